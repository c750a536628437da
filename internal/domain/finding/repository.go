package finding

import "context"

// Repository defines the interface for the local findings mirror
type Repository interface {
	// Upsert inserts or updates a finding by id. FirstObservedAt and
	// CreatedAt of an existing row are preserved.
	Upsert(ctx context.Context, f *Finding) error

	// GetByID retrieves a finding
	GetByID(ctx context.Context, id string) (*Finding, error)

	// List retrieves findings with filters and pagination
	List(ctx context.Context, filter Filter, limit, offset int) ([]*Finding, int64, error)

	// CountByState returns finding counts keyed by record state
	CountByState(ctx context.Context, accountID string) (map[string]int64, error)
}
