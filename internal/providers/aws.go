package providers

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/pratik-mahalle/amiaudit/internal/config"
	"github.com/pratik-mahalle/amiaudit/internal/domain/resource"
	"github.com/pratik-mahalle/amiaudit/internal/pkg/errors"
	"github.com/pratik-mahalle/amiaudit/internal/pkg/logger"
)

// LoadAWSConfig builds the shared SDK config. Static keys win over the
// profile, which wins over the default chain.
func LoadAWSConfig(ctx context.Context, c config.AWSConfig) (aws.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(nonEmpty(c.Region, "us-east-1")),
	}
	if c.AccessKeyID != "" && c.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.AccessKeyID, c.SecretAccessKey, c.SessionToken),
		))
	} else if c.Profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(c.Profile))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, errors.ProviderAuthError("AWS", err)
	}
	if c.EndpointURL != "" {
		cfg.BaseEndpoint = aws.String(c.EndpointURL)
	}
	return cfg, nil
}

// EC2ImageLister lists machine images with DescribeImages
type EC2ImageLister struct {
	client ec2.DescribeImagesAPIClient
	logger *logger.Logger
}

// NewEC2ImageLister creates a lister using cfg
func NewEC2ImageLister(cfg aws.Config, log *logger.Logger) *EC2ImageLister {
	return NewEC2ImageListerWithClient(ec2.NewFromConfig(cfg), log)
}

// NewEC2ImageListerWithClient creates a lister over an existing client
func NewEC2ImageListerWithClient(client ec2.DescribeImagesAPIClient, log *logger.Logger) *EC2ImageLister {
	return &EC2ImageLister{client: client, logger: log.WithComponent("ec2_lister")}
}

// List returns every image owned by owner, following pagination. "self"
// means the caller's account; anything else is matched against owner-id.
func (l *EC2ImageLister) List(ctx context.Context, owner string) ([]resource.Record, error) {
	input := &ec2.DescribeImagesInput{}
	switch owner {
	case "", "self":
		input.Owners = []string{"self"}
	default:
		input.Filters = []types.Filter{
			{Name: aws.String("owner-id"), Values: []string{owner}},
		}
	}

	var records []resource.Record
	p := ec2.NewDescribeImagesPaginator(l.client, input)
	pages := 0
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, errors.ProviderAPIError("AWS EC2", err)
		}
		pages++
		for _, img := range page.Images {
			records = append(records, ImageRecord(img))
		}
	}

	l.logger.WithFields(map[string]interface{}{
		"owner":  owner,
		"pages":  pages,
		"images": len(records),
	}).Debug("Listed machine images")

	return records, nil
}

// ImageRecord converts an SDK image into a raw resource record
func ImageRecord(img types.Image) resource.Record {
	rec := resource.Record{
		resource.KeyImageID:      aws.ToString(img.ImageId),
		resource.KeyName:         aws.ToString(img.Name),
		resource.KeyCreationDate: aws.ToString(img.CreationDate),
		resource.KeyOwnerID:      aws.ToString(img.OwnerId),
	}
	if img.Public != nil {
		rec[resource.KeyPublic] = *img.Public
	}

	mappings := make([]interface{}, 0, len(img.BlockDeviceMappings))
	for _, bdm := range img.BlockDeviceMappings {
		m := resource.Record{
			resource.KeyDeviceName: aws.ToString(bdm.DeviceName),
		}
		if bdm.VirtualName != nil {
			m[resource.KeyVirtualName] = *bdm.VirtualName
		}
		if bdm.Ebs != nil {
			ebs := resource.Record{
				resource.KeySnapshotID: aws.ToString(bdm.Ebs.SnapshotId),
				resource.KeyVolumeType: string(bdm.Ebs.VolumeType),
				resource.KeyKMSKeyID:   aws.ToString(bdm.Ebs.KmsKeyId),
			}
			if bdm.Ebs.Encrypted != nil {
				ebs[resource.KeyEncrypted] = *bdm.Ebs.Encrypted
			}
			m[resource.KeyEbs] = ebs
		}
		mappings = append(mappings, m)
	}
	rec[resource.KeyBlockDeviceMappings] = mappings

	return rec
}

// STSAPI is the part of the STS client used to resolve the caller
type STSAPI interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// STSIdentityProvider resolves the account of the configured credentials
type STSIdentityProvider struct {
	client STSAPI
	region string
}

// NewSTSIdentityProvider creates an identity provider using cfg
func NewSTSIdentityProvider(cfg aws.Config) *STSIdentityProvider {
	return NewSTSIdentityProviderWithClient(sts.NewFromConfig(cfg), cfg.Region)
}

// NewSTSIdentityProviderWithClient creates an identity provider over an existing client
func NewSTSIdentityProviderWithClient(client STSAPI, region string) *STSIdentityProvider {
	return &STSIdentityProvider{client: client, region: region}
}

// Identity implements resource.IdentityProvider
func (p *STSIdentityProvider) Identity(ctx context.Context) (resource.Identity, error) {
	out, err := p.client.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return resource.Identity{}, errors.ProviderAuthError("AWS STS", err)
	}

	account := aws.ToString(out.Account)
	if account == "" {
		return resource.Identity{}, errors.ProviderAuthError("AWS STS", fmt.Errorf("caller identity has no account"))
	}

	return resource.Identity{
		AccountID: account,
		Region:    p.region,
		Partition: resource.PartitionForRegion(p.region),
	}, nil
}

func nonEmpty(v string, def string) string {
	if v == "" {
		return def
	}
	return v
}
