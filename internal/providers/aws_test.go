package providers

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pratik-mahalle/amiaudit/internal/domain/resource"
	apperrors "github.com/pratik-mahalle/amiaudit/internal/pkg/errors"
	"github.com/pratik-mahalle/amiaudit/internal/testutil"
)

type fakeEC2 struct {
	pages  []*ec2.DescribeImagesOutput
	err    error
	inputs []*ec2.DescribeImagesInput
}

func (f *fakeEC2) DescribeImages(ctx context.Context, in *ec2.DescribeImagesInput, _ ...func(*ec2.Options)) (*ec2.DescribeImagesOutput, error) {
	f.inputs = append(f.inputs, in)
	if f.err != nil {
		return nil, f.err
	}
	page := f.pages[len(f.inputs)-1]
	return page, nil
}

func sdkImage(id string, public, encrypted bool) types.Image {
	return types.Image{
		ImageId:      aws.String(id),
		Name:         aws.String("name-" + id),
		CreationDate: aws.String("2024-01-02T03:04:05.000Z"),
		OwnerId:      aws.String("123456789012"),
		Public:       aws.Bool(public),
		BlockDeviceMappings: []types.BlockDeviceMapping{
			{
				DeviceName: aws.String("/dev/sda1"),
				Ebs: &types.EbsBlockDevice{
					Encrypted:  aws.Bool(encrypted),
					SnapshotId: aws.String("snap-" + id),
					VolumeType: types.VolumeTypeGp3,
				},
			},
			{DeviceName: aws.String("/dev/sdb"), VirtualName: aws.String("ephemeral0")},
		},
	}
}

func TestImageRecord_Extracts(t *testing.T) {
	rec := ImageRecord(sdkImage("ami-1", true, true))

	img, err := resource.ExtractImage(rec, testutil.TestIdentity())
	require.NoError(t, err)

	assert.True(t, img.Public)
	assert.Equal(t, "name-ami-1", img.Name)
	assert.False(t, img.CreatedAt.IsZero())
	require.Len(t, img.Volumes, 2)
	assert.True(t, img.Volumes[0].Encrypted)
	assert.Equal(t, "gp3", img.Volumes[0].VolumeType)
	assert.Equal(t, "snap-ami-1", img.Volumes[0].SnapshotID)
	// instance store mappings have no EBS block and are never encrypted
	assert.False(t, img.Volumes[1].Encrypted)
	assert.Equal(t, "arn:aws:ec2:us-east-1::image/ami-1/dev/sdb", img.Volumes[1].Key())
	assert.Equal(t, "ephemeral0", img.Volumes[1].Details()["virtualName"])
}

func TestEC2ImageLister_List(t *testing.T) {
	client := &fakeEC2{pages: []*ec2.DescribeImagesOutput{
		{Images: []types.Image{sdkImage("ami-1", false, true), sdkImage("ami-2", true, false)}, NextToken: aws.String("next")},
		{Images: []types.Image{sdkImage("ami-3", false, false)}},
	}}
	lister := NewEC2ImageListerWithClient(client, testutil.NewLogger())

	records, err := lister.List(context.Background(), "self")
	require.NoError(t, err)
	assert.Len(t, records, 3)

	require.Len(t, client.inputs, 2)
	assert.Equal(t, []string{"self"}, client.inputs[0].Owners)
	assert.Equal(t, "next", aws.ToString(client.inputs[1].NextToken))
}

func TestEC2ImageLister_OwnerFilter(t *testing.T) {
	client := &fakeEC2{pages: []*ec2.DescribeImagesOutput{{}}}
	lister := NewEC2ImageListerWithClient(client, testutil.NewLogger())

	_, err := lister.List(context.Background(), "210987654321")
	require.NoError(t, err)

	require.Len(t, client.inputs, 1)
	assert.Empty(t, client.inputs[0].Owners)
	require.Len(t, client.inputs[0].Filters, 1)
	assert.Equal(t, "owner-id", aws.ToString(client.inputs[0].Filters[0].Name))
	assert.Equal(t, []string{"210987654321"}, client.inputs[0].Filters[0].Values)
}

func TestEC2ImageLister_Error(t *testing.T) {
	lister := NewEC2ImageListerWithClient(&fakeEC2{err: errors.New("UnauthorizedOperation")}, testutil.NewLogger())

	_, err := lister.List(context.Background(), "self")
	assert.Equal(t, apperrors.ErrCodeProviderAPI, apperrors.As(err).Code)
}

type fakeSTS struct {
	out *sts.GetCallerIdentityOutput
	err error
}

func (f fakeSTS) GetCallerIdentity(ctx context.Context, _ *sts.GetCallerIdentityInput, _ ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error) {
	return f.out, f.err
}

func TestSTSIdentityProvider(t *testing.T) {
	tests := []struct {
		name          string
		client        fakeSTS
		region        string
		wantPartition string
		wantErr       bool
	}{
		{
			name:          "commercial region",
			client:        fakeSTS{out: &sts.GetCallerIdentityOutput{Account: aws.String("123456789012")}},
			region:        "eu-central-1",
			wantPartition: "aws",
		},
		{
			name:          "china region",
			client:        fakeSTS{out: &sts.GetCallerIdentityOutput{Account: aws.String("123456789012")}},
			region:        "cn-north-1",
			wantPartition: "aws-cn",
		},
		{name: "call fails", client: fakeSTS{err: errors.New("ExpiredToken")}, region: "us-east-1", wantErr: true},
		{name: "no account", client: fakeSTS{out: &sts.GetCallerIdentityOutput{}}, region: "us-east-1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := NewSTSIdentityProviderWithClient(tt.client, tt.region).Identity(context.Background())
			if tt.wantErr {
				assert.Equal(t, apperrors.ErrCodeProviderAuth, apperrors.As(err).Code)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "123456789012", id.AccountID)
			assert.Equal(t, tt.region, id.Region)
			assert.Equal(t, tt.wantPartition, id.Partition)
		})
	}
}
