package audit

import "context"

// Service defines the interface for running audits
type Service interface {
	// Run executes one audit pass and returns its summary. The returned
	// error is non-nil only when the run could not audit anything.
	Run(ctx context.Context, opts Options) (*Run, error)
}

// Reporter publishes the summary of a finished run
type Reporter interface {
	Export(ctx context.Context, run *Run) error
}
