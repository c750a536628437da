package rule

import (
	"fmt"

	"github.com/pratik-mahalle/amiaudit/internal/domain/resource"
)

var amiTypes = []string{
	"Software and Configuration Checks/AWS Security Best Practices",
	"Effects/Data Exposure",
}

// PublicImageRule flags self-managed images shared with everyone
type PublicImageRule struct{}

func (PublicImageRule) Metadata() Metadata {
	return Metadata{
		Code:        "AMI.1",
		Title:       "[AMI.1] Self-managed Amazon Machine Images (AMIs) should not be public",
		Description: "Checks whether self-managed AMIs are shared publicly.",
		Severity:    SeverityCritical,
		Remediation: Remediation{
			Text: "If your AMI is not intended to be public refer to the Sharing an AMI with Specific AWS Accounts section of the EC2 user guide",
			URL:  "https://docs.aws.amazon.com/AWSEC2/latest/UserGuide/sharingamis-explicit.html",
		},
		Types: amiTypes,
		RelatedRequirements: []string{
			"NIST CSF PR.AC-3",
			"NIST SP 800-53 AC-1",
			"NIST SP 800-53 AC-17",
			"NIST SP 800-53 AC-19",
			"NIST SP 800-53 AC-20",
			"NIST SP 800-53 SC-15",
			"AICPA TSC CC6.6",
			"ISO 27001:2013 A.6.2.1",
			"ISO 27001:2013 A.6.2.2",
			"ISO 27001:2013 A.11.2.6",
			"ISO 27001:2013 A.13.1.1",
			"ISO 27001:2013 A.13.2.1",
		},
	}
}

func (PublicImageRule) Scope() resource.Kind { return resource.KindImage }

func (r PublicImageRule) Evaluate(s resource.Subject) Verdict {
	v := Verdict{RuleCode: r.Metadata().Code, Subject: s, Passed: !s.Public}
	if v.Passed {
		v.Description = fmt.Sprintf("Amazon Machine Image (AMI) %s is private.", s.Name)
	} else {
		v.Description = fmt.Sprintf("Amazon Machine Image (AMI) %s is exposed to the public. "+
			"Refer to the remediation instructions if this configuration is not intended", s.Name)
	}
	return v
}

// EncryptedImageRule flags image block device mappings backed by unencrypted snapshots
type EncryptedImageRule struct{}

func (EncryptedImageRule) Metadata() Metadata {
	return Metadata{
		Code:        "AMI.2",
		Title:       "[AMI.2] Self-managed Amazon Machine Images (AMIs) should be encrypted",
		Description: "Checks whether every block device mapping of a self-managed AMI is encrypted.",
		Severity:    SeverityHigh,
		Remediation: Remediation{
			Text: "If your AMI should be encrypted refer to the Image-Copying Scenarios section of the EC2 user guide",
			URL:  "https://docs.aws.amazon.com/AWSEC2/latest/UserGuide/AMIEncryption.html#AMI-encryption-copy",
		},
		Types: amiTypes,
		RelatedRequirements: []string{
			"NIST CSF PR.DS-1",
			"NIST SP 800-53 MP-8",
			"NIST SP 800-53 SC-12",
			"NIST SP 800-53 SC-28",
			"AICPA TSC CC6.1",
			"ISO 27001:2013 A.8.2.3",
		},
	}
}

func (EncryptedImageRule) Scope() resource.Kind { return resource.KindVolume }

func (r EncryptedImageRule) Evaluate(s resource.Subject) Verdict {
	v := Verdict{RuleCode: r.Metadata().Code, Subject: s, Passed: s.Encrypted}
	device := s.DeviceName
	if device == "" {
		device = fmt.Sprintf("#%d", s.Index)
	}
	if v.Passed {
		v.Description = fmt.Sprintf("Amazon Machine Image (AMI) %s block device %s is encrypted.", s.Name, device)
	} else {
		v.Description = fmt.Sprintf("Amazon Machine Image (AMI) %s block device %s is not encrypted. "+
			"Refer to the remediation instructions if this configuration is not intended", s.Name, device)
	}
	return v
}
