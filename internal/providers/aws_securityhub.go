package providers

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/securityhub"
	"github.com/aws/aws-sdk-go-v2/service/securityhub/types"

	"github.com/pratik-mahalle/amiaudit/internal/domain/finding"
	"github.com/pratik-mahalle/amiaudit/internal/pkg/errors"
)

// SecurityHubAPI is the part of the Security Hub client used to import findings
type SecurityHubAPI interface {
	BatchImportFindings(ctx context.Context, params *securityhub.BatchImportFindingsInput, optFns ...func(*securityhub.Options)) (*securityhub.BatchImportFindingsOutput, error)
}

// SecurityHubStore implements finding.Store with BatchImportFindings
type SecurityHubStore struct {
	client SecurityHubAPI
}

// NewSecurityHubStore creates a store using cfg
func NewSecurityHubStore(cfg aws.Config) *SecurityHubStore {
	return NewSecurityHubStoreWithClient(securityhub.NewFromConfig(cfg))
}

// NewSecurityHubStoreWithClient creates a store over an existing client
func NewSecurityHubStoreWithClient(client SecurityHubAPI) *SecurityHubStore {
	return &SecurityHubStore{client: client}
}

// BatchImport implements finding.Store
func (s *SecurityHubStore) BatchImport(ctx context.Context, findings []finding.Finding) (*finding.ImportResult, error) {
	input := &securityhub.BatchImportFindingsInput{
		Findings: make([]types.AwsSecurityFinding, 0, len(findings)),
	}
	for i := range findings {
		input.Findings = append(input.Findings, toSecurityHub(&findings[i]))
	}

	out, err := s.client.BatchImportFindings(ctx, input)
	if err != nil {
		return nil, errors.ProviderAPIError("AWS Security Hub", err)
	}

	res := &finding.ImportResult{SuccessCount: int(aws.ToInt32(out.SuccessCount))}
	for _, fe := range out.FailedFindings {
		res.Failed = append(res.Failed, finding.FailedImport{
			FindingID:    aws.ToString(fe.Id),
			ErrorCode:    aws.ToString(fe.ErrorCode),
			ErrorMessage: aws.ToString(fe.ErrorMessage),
		})
	}
	return res, nil
}

func toSecurityHub(f *finding.Finding) types.AwsSecurityFinding {
	resources := make([]types.Resource, 0, len(f.Resources))
	for _, r := range f.Resources {
		res := types.Resource{
			Type:      aws.String(r.Type),
			Id:        aws.String(r.ID),
			Partition: types.Partition(r.Partition),
			Region:    aws.String(r.Region),
		}
		if len(r.Details.Other) > 0 {
			res.Details = &types.ResourceDetails{Other: r.Details.Other}
		}
		resources = append(resources, res)
	}

	return types.AwsSecurityFinding{
		SchemaVersion:   aws.String(f.SchemaVersion),
		Id:              aws.String(f.ID),
		ProductArn:      aws.String(f.ProductArn),
		GeneratorId:     aws.String(f.GeneratorID),
		AwsAccountId:    aws.String(f.AwsAccountID),
		Types:           f.Types,
		FirstObservedAt: aws.String(f.FirstObservedAt),
		CreatedAt:       aws.String(f.CreatedAt),
		UpdatedAt:       aws.String(f.UpdatedAt),
		Severity:        &types.Severity{Label: types.SeverityLabel(f.Severity.Label)},
		Confidence:      aws.Int32(int32(f.Confidence)),
		Title:           aws.String(f.Title),
		Description:     aws.String(f.Description),
		Remediation: &types.Remediation{
			Recommendation: &types.Recommendation{
				Text: aws.String(f.Remediation.Recommendation.Text),
				Url:  aws.String(f.Remediation.Recommendation.URL),
			},
		},
		ProductFields: f.ProductFields,
		Resources:     resources,
		Compliance: &types.Compliance{
			Status:              types.ComplianceStatus(f.Compliance.Status),
			RelatedRequirements: f.Compliance.RelatedRequirements,
		},
		Workflow:    &types.Workflow{Status: types.WorkflowStatus(f.Workflow.Status)},
		RecordState: types.RecordState(f.RecordState),
	}
}
