package resource

import (
	"fmt"
	"time"
)

// ExtractionError is returned when a record lacks a field required to build findings
type ExtractionError struct {
	Field      string
	ResourceID string
}

func (e *ExtractionError) Error() string {
	if e.ResourceID != "" {
		return fmt.Sprintf("resource %s: missing required field %s", e.ResourceID, e.Field)
	}
	return fmt.Sprintf("resource record: missing required field %s", e.Field)
}

var trueValues = map[string]struct{}{
	"true": {},
	"True": {},
	"TRUE": {},
}

// IsTrue reports whether v is a known representation of true. Everything
// else, including nil, is false.
func IsTrue(v interface{}) bool {
	switch t := v.(type) {
	case bool:
		return t
	case *bool:
		return t != nil && *t
	case string:
		_, ok := trueValues[t]
		return ok
	case *string:
		if t == nil {
			return false
		}
		_, ok := trueValues[*t]
		return ok
	default:
		return false
	}
}

// ExtractImage maps a raw image record into its typed attribute bags.
func ExtractImage(rec Record, id Identity) (*Image, error) {
	imageID := stringField(rec, KeyImageID)
	if imageID == "" {
		return nil, &ExtractionError{Field: KeyImageID}
	}
	name := stringField(rec, KeyName)
	if name == "" {
		return nil, &ExtractionError{Field: KeyName, ResourceID: imageID}
	}

	created := stringField(rec, KeyCreationDate)
	base := Subject{
		Kind:         KindImage,
		ResourceID:   imageID,
		ResourceARN:  ImageARN(id, imageID),
		Name:         name,
		CreationDate: created,
		CreatedAt:    parseTime(created),
		Public:       IsTrue(rec[KeyPublic]),
	}

	img := &Image{Subject: base}
	seen := make(map[string]bool)
	for i, m := range mappings(rec[KeyBlockDeviceMappings]) {
		vol := base
		vol.Kind = KindVolume
		vol.Public = false
		vol.Index = i
		vol.DeviceName = stringField(m, KeyDeviceName)
		vol.VirtualName = stringField(m, KeyVirtualName)
		vol.byIndex = seen[vol.DeviceName]
		seen[vol.DeviceName] = true
		if ebs, ok := asRecord(m[KeyEbs]); ok {
			vol.Encrypted = IsTrue(ebs[KeyEncrypted])
			vol.SnapshotID = stringField(ebs, KeySnapshotID)
			vol.VolumeType = stringField(ebs, KeyVolumeType)
			vol.KMSKeyID = stringField(ebs, KeyKMSKeyID)
		}
		img.Volumes = append(img.Volumes, vol)
	}

	return img, nil
}

func stringField(rec Record, key string) string {
	switch v := rec[key].(type) {
	case string:
		return v
	case *string:
		if v != nil {
			return *v
		}
	case fmt.Stringer:
		return v.String()
	}
	return ""
}

func asRecord(v interface{}) (Record, bool) {
	switch t := v.(type) {
	case Record:
		return t, true
	case map[string]interface{}:
		return Record(t), true
	default:
		return nil, false
	}
}

func mappings(v interface{}) []Record {
	var out []Record
	switch t := v.(type) {
	case []Record:
		return t
	case []map[string]interface{}:
		for _, m := range t {
			out = append(out, Record(m))
		}
	case []interface{}:
		for _, item := range t {
			if m, ok := asRecord(item); ok {
				out = append(out, m)
			}
		}
	}
	return out
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000Z",
	time.RFC3339,
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
