package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ericfisherdev/callpanel/internal/domain/model"
	"github.com/ericfisherdev/callpanel/internal/domain/port/driven"
)

// ErrUnknownKey is returned when a key name is not one of model.CredentialKeys.
var ErrUnknownKey = errors.New("unknown api key name")

// KeyService edits stored API keys and refreshes the call service's loaded
// credentials after every change.
type KeyService struct {
	store   driven.KeyValueStore
	callSvc *CallService
}

// NewKeyService creates a KeyService.
func NewKeyService(store driven.KeyValueStore, callSvc *CallService) *KeyService {
	return &KeyService{store: store, callSvc: callSvc}
}

// Save stores value under name and reloads credentials.
func (s *KeyService) Save(ctx context.Context, name, value string) error {
	if !model.IsCredentialKey(name) {
		return fmt.Errorf("%w: %q", ErrUnknownKey, name)
	}
	if err := s.store.Set(ctx, name, value); err != nil {
		return err
	}
	return s.callSvc.LoadCredentials(ctx)
}

// Delete removes the entry under name and reloads credentials.
func (s *KeyService) Delete(ctx context.Context, name string) error {
	if !model.IsCredentialKey(name) {
		return fmt.Errorf("%w: %q", ErrUnknownKey, name)
	}
	if err := s.store.Delete(ctx, name); err != nil {
		return err
	}
	return s.callSvc.LoadCredentials(ctx)
}

// UpdatedAt reports when each stored key was last written. Keys that were
// never stored are absent from the map. Values are not exposed.
func (s *KeyService) UpdatedAt(ctx context.Context) (map[string]time.Time, error) {
	keys, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list api keys: %w", err)
	}

	updated := make(map[string]time.Time, len(keys))
	for _, k := range keys {
		updated[k.Name] = k.UpdatedAt
	}
	return updated, nil
}
