package resource

import (
	"context"
	"errors"
	"testing"
)

var testIdentity = Identity{AccountID: "123456789012", Region: "us-east-1", Partition: "aws"}

func TestIsTrue(t *testing.T) {
	yes := true
	no := false
	s := "true"
	var nilBool *bool

	tests := []struct {
		name string
		in   interface{}
		want bool
	}{
		{"bool true", true, true},
		{"bool false", false, false},
		{"pointer true", &yes, true},
		{"pointer false", &no, false},
		{"nil pointer", nilBool, false},
		{"lowercase string", "true", true},
		{"title string", "True", true},
		{"upper string", "TRUE", true},
		{"string pointer", &s, true},
		{"yes string", "yes", false},
		{"one string", "1", false},
		{"padded string", " true", false},
		{"integer one", 1, false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTrue(tt.in); got != tt.want {
				t.Errorf("IsTrue(%#v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestExtractImage_MissingRequiredFields(t *testing.T) {
	tests := []struct {
		name      string
		rec       Record
		wantField string
	}{
		{
			name:      "missing image id",
			rec:       Record{KeyName: "web"},
			wantField: KeyImageID,
		},
		{
			name:      "empty image id",
			rec:       Record{KeyImageID: "", KeyName: "web"},
			wantField: KeyImageID,
		},
		{
			name:      "missing name",
			rec:       Record{KeyImageID: "ami-1"},
			wantField: KeyName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := ExtractImage(tt.rec, testIdentity)
			if img != nil {
				t.Fatalf("ExtractImage() returned an image for an invalid record")
			}
			var extErr *ExtractionError
			if !errors.As(err, &extErr) {
				t.Fatalf("ExtractImage() error = %v, want *ExtractionError", err)
			}
			if extErr.Field != tt.wantField {
				t.Errorf("ExtractionError.Field = %q, want %q", extErr.Field, tt.wantField)
			}
		})
	}
}

func TestExtractImage_Volumes(t *testing.T) {
	rec := Record{
		KeyImageID:      "ami-0abc",
		KeyName:         "web-base",
		KeyCreationDate: "2023-05-01T10:00:00.000Z",
		KeyPublic:       "True",
		KeyBlockDeviceMappings: []interface{}{
			map[string]interface{}{
				KeyDeviceName: "/dev/xvda",
				KeyEbs: map[string]interface{}{
					KeyEncrypted:  true,
					KeySnapshotID: "snap-1",
					KeyVolumeType: "gp3",
					KeyKMSKeyID:   "arn:aws:kms:us-east-1:123456789012:key/k",
				},
			},
			map[string]interface{}{
				KeyDeviceName: "/dev/sdb",
				KeyEbs:        map[string]interface{}{KeyEncrypted: "false"},
			},
			// ephemeral mapping without EBS info or device name
			map[string]interface{}{"VirtualName": "ephemeral0"},
			"not a mapping",
		},
	}

	img, err := ExtractImage(rec, testIdentity)
	if err != nil {
		t.Fatalf("ExtractImage() error = %v", err)
	}

	if !img.Public {
		t.Error("image should be public")
	}
	if img.ResourceARN != "arn:aws:ec2:us-east-1::image/ami-0abc" {
		t.Errorf("ResourceARN = %q", img.ResourceARN)
	}
	if img.CreatedAt.IsZero() {
		t.Error("CreatedAt should be parsed")
	}
	if len(img.Volumes) != 3 {
		t.Fatalf("len(Volumes) = %d, want 3", len(img.Volumes))
	}

	wantKeys := []string{
		"arn:aws:ec2:us-east-1::image/ami-0abc/dev/xvda",
		"arn:aws:ec2:us-east-1::image/ami-0abc/dev/sdb",
		"arn:aws:ec2:us-east-1::image/ami-0abc/volume-2",
	}
	wantEncrypted := []bool{true, false, false}

	for i, v := range img.Volumes {
		if v.Kind != KindVolume {
			t.Errorf("volume %d kind = %q", i, v.Kind)
		}
		if v.Public {
			t.Errorf("volume %d should not carry the image's public flag", i)
		}
		if got := v.Key(); got != wantKeys[i] {
			t.Errorf("volume %d key = %q, want %q", i, got, wantKeys[i])
		}
		if v.Encrypted != wantEncrypted[i] {
			t.Errorf("volume %d encrypted = %v, want %v", i, v.Encrypted, wantEncrypted[i])
		}
	}

	d := img.Volumes[0].Details()
	if d["snapshotId"] != "snap-1" || d["volumeType"] != "gp3" || d["encrypted"] != "true" {
		t.Errorf("unexpected volume details: %v", d)
	}
	if _, ok := img.Volumes[1].Details()["snapshotId"]; ok {
		t.Error("empty snapshot id should be omitted from details")
	}
	if _, ok := img.Volumes[1].Details()["virtualName"]; ok {
		t.Error("EBS volume should not carry a virtual name")
	}
	if got := img.Volumes[2].Details()["virtualName"]; got != "ephemeral0" {
		t.Errorf("instance store virtualName = %q, want ephemeral0", got)
	}
}

func TestExtractImage_VolumeKeysAreUnique(t *testing.T) {
	rec := Record{
		KeyImageID: "ami-dup",
		KeyName:    "dup",
		KeyBlockDeviceMappings: []interface{}{
			map[string]interface{}{KeyDeviceName: "/dev/sdb"},
			map[string]interface{}{KeyDeviceName: "dev/sdb"},
			map[string]interface{}{KeyDeviceName: "/dev/sdb"},
			map[string]interface{}{KeyDeviceName: "/volume-0"},
			map[string]interface{}{},
		},
	}

	img, err := ExtractImage(rec, testIdentity)
	if err != nil {
		t.Fatalf("ExtractImage() error = %v", err)
	}

	want := []string{
		"arn:aws:ec2:us-east-1::image/ami-dup/dev/sdb",
		"arn:aws:ec2:us-east-1::image/ami-dup/volume-1",
		"arn:aws:ec2:us-east-1::image/ami-dup/volume-2",
		"arn:aws:ec2:us-east-1::image/ami-dup/volume-3",
		"arn:aws:ec2:us-east-1::image/ami-dup/volume-4",
	}
	seen := make(map[string]int)
	for i, v := range img.Volumes {
		key := v.Key()
		if key != want[i] {
			t.Errorf("volume %d key = %q, want %q", i, key, want[i])
		}
		if prev, dup := seen[key]; dup {
			t.Errorf("volumes %d and %d share key %q", prev, i, key)
		}
		seen[key] = i
	}
	if got := img.Volumes[1].Details()["deviceName"]; got != "dev/sdb" {
		t.Errorf("deviceName detail = %q, want the raw device name", got)
	}
}

func TestExtractImage_OptionalFieldsDefault(t *testing.T) {
	img, err := ExtractImage(Record{KeyImageID: "ami-1", KeyName: "bare"}, testIdentity)
	if err != nil {
		t.Fatalf("ExtractImage() error = %v", err)
	}
	if img.Public {
		t.Error("missing Public should mean private")
	}
	if len(img.Volumes) != 0 {
		t.Errorf("len(Volumes) = %d, want 0", len(img.Volumes))
	}
	if !img.CreatedAt.IsZero() {
		t.Error("missing creation date should leave CreatedAt zero")
	}
	if got := img.Subjects(KindImage); len(got) != 1 || got[0].Key() != img.ResourceARN {
		t.Errorf("Subjects(image) = %v", got)
	}
}

func TestPartitionForRegion(t *testing.T) {
	tests := map[string]string{
		"us-east-1":     "aws",
		"eu-west-2":     "aws",
		"cn-north-1":    "aws-cn",
		"us-gov-west-1": "aws-us-gov",
		"us-iso-east-1": "aws-iso",
		"":              "aws",
	}
	for region, want := range tests {
		if got := PartitionForRegion(region); got != want {
			t.Errorf("PartitionForRegion(%q) = %q, want %q", region, got, want)
		}
	}
}

func TestStaticIdentity_DerivesPartition(t *testing.T) {
	id, err := StaticIdentity{AccountID: "123456789012", Region: "cn-north-1"}.Identity(context.Background())
	if err != nil {
		t.Fatalf("Identity() error = %v", err)
	}
	if id.Partition != "aws-cn" {
		t.Errorf("Partition = %q, want aws-cn", id.Partition)
	}
	if got := ImageARN(id, "ami-9"); got != "arn:aws-cn:ec2:cn-north-1::image/ami-9" {
		t.Errorf("ImageARN() = %q", got)
	}
}
