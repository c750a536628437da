package resource

import "context"

// Lister enumerates raw resource records owned by owner. Pagination is the
// implementation's concern.
type Lister interface {
	List(ctx context.Context, owner string) ([]Record, error)
}

// IdentityProvider supplies the account context of a run
type IdentityProvider interface {
	Identity(ctx context.Context) (Identity, error)
}

// StaticIdentity is an IdentityProvider returning a fixed identity
type StaticIdentity Identity

// Identity implements IdentityProvider
func (s StaticIdentity) Identity(ctx context.Context) (Identity, error) {
	id := Identity(s)
	if id.Partition == "" {
		id.Partition = PartitionForRegion(id.Region)
	}
	return id, nil
}
