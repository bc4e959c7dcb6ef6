package keyshares

import (
	"context"
	"fmt"

	"github.com/ruteri/validator-keyshares/interfaces"
)

// Save stores the serialized envelope as KeySharesType content. The returned
// id covers the createdAt stamp, so saving the same envelope twice yields
// two ids.
func Save(ctx context.Context, backend interfaces.StorageBackend, ks *KeyShares) (interfaces.ContentID, error) {
	data, err := ks.Serialize()
	if err != nil {
		return interfaces.ContentID{}, fmt.Errorf("failed to serialize keyshares: %w", err)
	}
	id, err := backend.Store(ctx, data, interfaces.KeySharesType)
	if err != nil {
		return interfaces.ContentID{}, fmt.Errorf("failed to store keyshares in %s: %w", backend.Name(), err)
	}
	return id, nil
}

// Load fetches an envelope and validates it with DefaultRegistry.
func Load(ctx context.Context, backend interfaces.StorageBackend, id interfaces.ContentID) (*KeyShares, error) {
	return DefaultRegistry().Load(ctx, backend, id)
}

// Load fetches an envelope and validates it exactly as FromData does.
func (r *Registry) Load(ctx context.Context, backend interfaces.StorageBackend, id interfaces.ContentID) (*KeyShares, error) {
	data, err := backend.Fetch(ctx, id, interfaces.KeySharesType)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch keyshares %s from %s: %w", id, backend.Name(), err)
	}
	return r.FromData(data)
}
