package resource

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Record is a raw resource record as returned by a Lister. Keys follow the
// EC2 DescribeImages image shape.
type Record map[string]interface{}

// Record keys
const (
	KeyImageID             = "ImageId"
	KeyName                = "Name"
	KeyCreationDate        = "CreationDate"
	KeyPublic              = "Public"
	KeyOwnerID             = "OwnerId"
	KeyBlockDeviceMappings = "BlockDeviceMappings"
	KeyDeviceName          = "DeviceName"
	KeyVirtualName         = "VirtualName"
	KeyEbs                 = "Ebs"
	KeyEncrypted           = "Encrypted"
	KeySnapshotID          = "SnapshotId"
	KeyVolumeType          = "VolumeType"
	KeyKMSKeyID            = "KmsKeyId"
)

// Kind identifies what a Subject describes
type Kind string

const (
	KindImage  Kind = "image"
	KindVolume Kind = "volume"
)

// Identity is the account context every ARN and finding of a run is stamped with
type Identity struct {
	AccountID string `json:"account_id"`
	Region    string `json:"region"`
	Partition string `json:"partition"`
}

// PartitionForRegion derives the AWS partition from a region name.
func PartitionForRegion(region string) string {
	switch {
	case strings.HasPrefix(region, "cn-"):
		return "aws-cn"
	case strings.HasPrefix(region, "us-gov-"):
		return "aws-us-gov"
	case strings.HasPrefix(region, "us-iso-"):
		return "aws-iso"
	case strings.HasPrefix(region, "us-isob-"):
		return "aws-iso-b"
	default:
		return "aws"
	}
}

// ARN is a globally unique resource name
type ARN struct {
	Partition string
	Service   string
	Region    string
	AccountID string
	Resource  string
}

func (a ARN) String() string {
	partition := a.Partition
	if partition == "" {
		partition = "aws"
	}
	return fmt.Sprintf("arn:%s:%s:%s:%s:%s", partition, a.Service, a.Region, a.AccountID, a.Resource)
}

// ImageARN builds the ARN of a machine image. AMI ARNs carry no account segment.
func ImageARN(id Identity, imageID string) string {
	return ARN{
		Partition: id.Partition,
		Service:   "ec2",
		Region:    id.Region,
		Resource:  "image/" + imageID,
	}.String()
}

// Subject is the typed attribute bag a rule evaluates. Images produce one
// image subject plus one volume subject per block device mapping.
type Subject struct {
	Kind        Kind      `json:"kind"`
	ResourceID  string    `json:"resource_id"`
	ResourceARN string    `json:"resource_arn"`
	Name        string    `json:"name"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
	// CreationDate is the raw creation timestamp as reported by the provider
	CreationDate string `json:"creation_date,omitempty"`
	Public       bool   `json:"public"`
	Encrypted    bool   `json:"encrypted"`
	DeviceName   string `json:"device_name,omitempty"`
	// VirtualName names an instance store mapping such as ephemeral0
	VirtualName string `json:"virtual_name,omitempty"`
	SnapshotID  string `json:"snapshot_id,omitempty"`
	VolumeType  string `json:"volume_type,omitempty"`
	KMSKeyID    string `json:"kms_key_id,omitempty"`
	Index       int    `json:"index"`

	// byIndex forces the index form of Key, set when the device name repeats
	// within an image
	byIndex bool
}

const indexKeyPrefix = "volume-"

// Key returns the stable identity key of the subject. Volumes with an
// absolute device name use it verbatim after the image ARN; every other volume
// is keyed by its mapping index, so no two volumes of an image share a key.
func (s Subject) Key() string {
	if s.Kind != KindVolume {
		return s.ResourceARN
	}
	if s.byIndex || !verbatimDevice(s.DeviceName) {
		return s.ResourceARN + "/" + indexKeyPrefix + strconv.Itoa(s.Index)
	}
	return s.ResourceARN + s.DeviceName
}

func verbatimDevice(name string) bool {
	return strings.HasPrefix(name, "/") && !strings.HasPrefix(name, "/"+indexKeyPrefix)
}

// Details returns the flat resource detail bag attached to findings.
func (s Subject) Details() map[string]string {
	d := map[string]string{
		"imageId":          s.ResourceID,
		"imageName":        s.Name,
		"imageCreatedDate": s.CreationDate,
	}
	if s.Kind == KindVolume {
		d["deviceName"] = s.DeviceName
		if s.VirtualName != "" {
			d["virtualName"] = s.VirtualName
		}
		d["encrypted"] = strconv.FormatBool(s.Encrypted)
		if s.SnapshotID != "" {
			d["snapshotId"] = s.SnapshotID
		}
		if s.VolumeType != "" {
			d["volumeType"] = s.VolumeType
		}
		if s.KMSKeyID != "" {
			d["kmsKeyId"] = s.KMSKeyID
		}
	} else {
		d["public"] = strconv.FormatBool(s.Public)
	}
	return d
}

// Image is an extracted machine image
type Image struct {
	Subject
	Volumes []Subject `json:"volumes"`
}

// Subjects returns the attribute bags of the given kind.
func (img *Image) Subjects(kind Kind) []Subject {
	if kind == KindVolume {
		return img.Volumes
	}
	return []Subject{img.Subject}
}
