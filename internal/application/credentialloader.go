package application

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/ericfisherdev/callpanel/internal/domain/model"
	"github.com/ericfisherdev/callpanel/internal/domain/port/driven"
)

// CredentialLoader reads the provider credentials from the key-value store.
type CredentialLoader struct {
	store driven.KeyValueStore
}

// NewCredentialLoader creates a CredentialLoader over the given store.
func NewCredentialLoader(store driven.KeyValueStore) *CredentialLoader {
	return &CredentialLoader{store: store}
}

// Load performs the four credential lookups concurrently and assembles the
// set only after every lookup has resolved. A missing entry yields "". A
// failed lookup is returned as an error naming the key; the partial set is
// discarded so callers never see a half-populated record.
func (l *CredentialLoader) Load(ctx context.Context) (model.CredentialSet, error) {
	values := make([]string, len(model.CredentialKeys))

	g, gctx := errgroup.WithContext(ctx)
	for i, key := range model.CredentialKeys {
		g.Go(func() error {
			v, found, err := l.store.Lookup(gctx, key)
			if err != nil {
				return fmt.Errorf("lookup %q: %w", key, err)
			}
			if found {
				values[i] = v
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return model.CredentialSet{}, fmt.Errorf("load credentials: %w", err)
	}

	var creds model.CredentialSet
	for i, key := range model.CredentialKeys {
		creds = creds.With(key, values[i])
	}
	return creds, nil
}
