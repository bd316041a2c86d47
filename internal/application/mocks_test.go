package application_test

import (
	"context"
	"sync"
	"time"

	"github.com/ericfisherdev/callpanel/internal/domain/model"
)

// mockUpdatedAt is the write time mockKeyValueStore reports for every entry.
var mockUpdatedAt = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

// mockKeyValueStore implements driven.KeyValueStore over a map. Keys listed in
// errs fail their lookup with the mapped error.
type mockKeyValueStore struct {
	mu      sync.Mutex
	values  map[string]string
	errs    map[string]error
	lookups []string
}

func newMockKeyValueStore(values map[string]string) *mockKeyValueStore {
	if values == nil {
		values = map[string]string{}
	}
	return &mockKeyValueStore{values: values, errs: map[string]error{}}
}

func (m *mockKeyValueStore) Lookup(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookups = append(m.lookups, key)
	if err, ok := m.errs[key]; ok {
		return "", false, err
	}
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *mockKeyValueStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *mockKeyValueStore) List(_ context.Context) ([]model.APIKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]model.APIKey, 0, len(m.values))
	for k, v := range m.values {
		keys = append(keys, model.APIKey{Name: k, Value: v, UpdatedAt: mockUpdatedAt})
	}
	return keys, nil
}

func (m *mockKeyValueStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// mockCallBackend implements driven.CallBackend by delegating to fn and
// recording every request it receives.
type mockCallBackend struct {
	mu       sync.Mutex
	fn       func(ctx context.Context, req model.CallRequest) (model.CallResponse, error)
	requests []model.CallRequest
}

func (m *mockCallBackend) InitiateCall(ctx context.Context, req model.CallRequest) (model.CallResponse, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	fn := m.fn
	m.mu.Unlock()
	return fn(ctx, req)
}

func (m *mockCallBackend) lastRequest() model.CallRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests[len(m.requests)-1]
}

func respondWith(resp model.CallResponse, err error) func(context.Context, model.CallRequest) (model.CallResponse, error) {
	return func(context.Context, model.CallRequest) (model.CallResponse, error) {
		return resp, err
	}
}
