package audit

import "context"

// Repository defines the interface for run history
type Repository interface {
	// Create stores a new run
	Create(ctx context.Context, run *Run) error

	// Update stores the latest state of a run
	Update(ctx context.Context, run *Run) error

	// GetByID retrieves a run
	GetByID(ctx context.Context, id string) (*Run, error)

	// List retrieves runs, newest first
	List(ctx context.Context, filter Filter, limit, offset int) ([]*Run, int64, error)
}
