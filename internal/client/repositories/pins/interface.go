package pins

import "context"

// Repository stores the first public key seen for each address. A later
// lookup returning a different key is treated as suspicious until the user
// explicitly re-trusts the address.
type Repository interface {
	// Get returns the pinned key for an address, or common.ErrorNotFound.
	Get(ctx context.Context, address string) (string, error)

	// Put records or replaces the pinned key for an address.
	Put(ctx context.Context, address, publicKey string) error

	// Delete removes a pin so the next lookup re-pins the address.
	Delete(ctx context.Context, address string) error
}
