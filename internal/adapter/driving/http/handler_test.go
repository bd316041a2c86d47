package httphandler_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httphandler "github.com/ericfisherdev/callpanel/internal/adapter/driving/http"
	"github.com/ericfisherdev/callpanel/internal/application"
	"github.com/ericfisherdev/callpanel/internal/domain/model"
	"github.com/ericfisherdev/callpanel/internal/domain/port/driven"
)

// --- Mock implementations ---

type mockStore struct {
	mu     sync.Mutex
	values map[string]string
	setErr error
}

func (m *mockStore) Lookup(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *mockStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.values[key] = value
	return nil
}

func (m *mockStore) List(_ context.Context) ([]model.APIKey, error) { return nil, nil }

func (m *mockStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

type mockBackend struct {
	resp    model.CallResponse
	err     error
	lastReq model.CallRequest
}

func (m *mockBackend) InitiateCall(_ context.Context, req model.CallRequest) (model.CallResponse, error) {
	m.lastReq = req
	return m.resp, m.err
}

// --- Test helpers ---

type testEnv struct {
	mux     http.Handler
	store   *mockStore
	backend *mockBackend
	callSvc *application.CallService
}

func setup(t *testing.T, backend *mockBackend, values map[string]string) *testEnv {
	t.Helper()
	if values == nil {
		values = map[string]string{}
	}
	store := &mockStore{values: values}
	callSvc := application.NewCallService(backend, application.NewCredentialLoader(store), model.DefaultPrompt, "+14158440885", slog.Default())
	require.NoError(t, callSvc.LoadCredentials(context.Background()))
	keySvc := application.NewKeyService(store, callSvc)

	h := httphandler.NewHandler(callSvc, keySvc, slog.Default())
	return &testEnv{
		mux:     httphandler.NewServeMux(h, slog.Default()),
		store:   store,
		backend: backend,
		callSvc: callSvc,
	}
}

func (e *testEnv) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	return e.serve(req)
}

func (e *testEnv) serve(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	require.NoError(t, json.NewDecoder(rec.Body).Decode(v))
}

// --- Tests ---

func TestHealth(t *testing.T) {
	env := setup(t, &mockBackend{}, nil)

	rec := env.do(http.MethodGet, "/api/v1/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	decodeJSON(t, rec, &resp)
	assert.Equal(t, "ok", resp["status"])
}

func TestGetCallState_Idle(t *testing.T) {
	env := setup(t, &mockBackend{}, nil)

	rec := env.do(http.MethodGet, "/api/v1/call", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	decodeJSON(t, rec, &resp)
	assert.Equal(t, "idle", resp["phase"])
	assert.Equal(t, "", resp["status"])
}

func TestInitiateCall(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		backend     *mockBackend
		wantStatus  int
		wantPhase   string
		wantError   string
		checkResult func(t *testing.T, resp map[string]any)
	}{
		{
			name:       "success",
			body:       `{"to":"+15551234567"}`,
			backend:    &mockBackend{resp: model.CallResponse{CallSID: "CA123", AIResponse: "Hello"}},
			wantStatus: http.StatusOK,
			wantPhase:  "succeeded",
			checkResult: func(t *testing.T, resp map[string]any) {
				assert.Equal(t, "Call initiated successfully. SID: CA123", resp["status"])
				assert.Equal(t, "AI Response: Hello", resp["ai_response"])
				assert.Equal(t, "CA123", resp["call_sid"])
				assert.Equal(t, "", resp["error_details"])
			},
		},
		{
			name:       "backend failure is reported in body",
			body:       `{"to":"+15551234567"}`,
			backend:    &mockBackend{err: errors.New("HTTP error! status: 500")},
			wantStatus: http.StatusOK,
			wantPhase:  "failed",
			checkResult: func(t *testing.T, resp map[string]any) {
				assert.Equal(t, "Error occurred during call", resp["status"])
				assert.Equal(t, "HTTP error! status: 500", resp["error_details"])
				assert.Equal(t, "", resp["ai_response"])
			},
		},
		{
			name:       "malformed body",
			body:       `{`,
			backend:    &mockBackend{},
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid request body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setup(t, tt.backend, nil)

			rec := env.do(http.MethodPost, "/api/v1/call", tt.body)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var resp map[string]any
			decodeJSON(t, rec, &resp)

			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, resp["error"])
				return
			}
			assert.Equal(t, tt.wantPhase, resp["phase"])
			if tt.checkResult != nil {
				tt.checkResult(t, resp)
			}
		})
	}
}

func TestInitiateCall_EmptyDestinationPassedThrough(t *testing.T) {
	backend := &mockBackend{resp: model.CallResponse{CallSID: "CA1"}}
	env := setup(t, backend, nil)

	rec := env.do(http.MethodPost, "/api/v1/call", `{"to":""}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.CallRequest{To: "", Prompt: model.DefaultPrompt}, backend.lastReq)
}

func TestInitiateCall_RequiresJSONContentType(t *testing.T) {
	for _, contentType := range []string{"", "text/plain", "application/x-www-form-urlencoded"} {
		t.Run(contentType, func(t *testing.T) {
			backend := &mockBackend{}
			env := setup(t, backend, nil)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/call", strings.NewReader(`{"to":"+19005551234"}`))
			if contentType != "" {
				req.Header.Set("Content-Type", contentType)
			}
			rec := env.serve(req)

			assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
			assert.Empty(t, backend.lastReq.To, "backend must not be called")
		})
	}
}

func TestMutatingRoutes_RejectCrossOrigin(t *testing.T) {
	tests := []struct {
		name    string
		method  string
		path    string
		body    string
		headers map[string]string
	}{
		{
			name:    "call from foreign origin",
			method:  http.MethodPost,
			path:    "/api/v1/call",
			body:    `{"to":"+19005551234"}`,
			headers: map[string]string{"Origin": "https://evil.example", "Content-Type": "application/json"},
		},
		{
			name:    "test call via cross-site form",
			method:  http.MethodPost,
			path:    "/api/v1/call/test",
			headers: map[string]string{"Origin": "https://evil.example", "Content-Type": "application/x-www-form-urlencoded"},
		},
		{
			name:    "test call with sec-fetch-site",
			method:  http.MethodPost,
			path:    "/api/v1/call/test",
			headers: map[string]string{"Sec-Fetch-Site": "cross-site"},
		},
		{
			name:    "key delete",
			method:  http.MethodDelete,
			path:    "/api/v1/keys/openai",
			headers: map[string]string{"Sec-Fetch-Site": "cross-site"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := &mockBackend{}
			env := setup(t, backend, map[string]string{model.KeyOpenAI: "sk-1"})

			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rec := env.serve(req)

			assert.Equal(t, http.StatusForbidden, rec.Code)
			assert.Empty(t, backend.lastReq.To, "backend must not be called")
			assert.Equal(t, "sk-1", env.store.values[model.KeyOpenAI])
		})
	}
}

func TestMutatingRoutes_AllowSameOrigin(t *testing.T) {
	backend := &mockBackend{resp: model.CallResponse{CallSID: "CA1"}}
	env := setup(t, backend, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/call/test", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Sec-Fetch-Site", "same-origin")
	rec := env.serve(req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "+14158440885", backend.lastReq.To)
}

func TestTestCall(t *testing.T) {
	backend := &mockBackend{resp: model.CallResponse{CallSID: "CA1"}}
	env := setup(t, backend, nil)

	rec := env.do(http.MethodPost, "/api/v1/call/test", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "+14158440885", backend.lastReq.To)
	assert.Equal(t, model.DefaultPrompt, backend.lastReq.Prompt)
}

func TestPrompt_GetAndSet(t *testing.T) {
	backend := &mockBackend{resp: model.CallResponse{CallSID: "CA1"}}
	env := setup(t, backend, nil)

	rec := env.do(http.MethodGet, "/api/v1/prompt", "")
	var got map[string]string
	decodeJSON(t, rec, &got)
	assert.Equal(t, model.DefaultPrompt, got["prompt"])

	rec = env.do(http.MethodPut, "/api/v1/prompt", `{"prompt":"Speak French."}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	env.do(http.MethodPost, "/api/v1/call", `{"to":"1"}`)
	assert.Equal(t, "Speak French.", backend.lastReq.Prompt)
}

func TestListKeys_Masked(t *testing.T) {
	env := setup(t, &mockBackend{}, map[string]string{
		model.KeyTwilioAuthToken:   "abcdef123456",
		model.KeyTwilioPhoneNumber: "+15550001111",
	})

	rec := env.do(http.MethodGet, "/api/v1/keys", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Keys     []map[string]any `json:"keys"`
		Complete bool             `json:"complete"`
	}
	decodeJSON(t, rec, &resp)
	require.Len(t, resp.Keys, 4)
	assert.False(t, resp.Complete)

	byName := map[string]map[string]any{}
	for _, k := range resp.Keys {
		byName[k["name"].(string)] = k
	}
	assert.Equal(t, "********3456", byName[model.KeyTwilioAuthToken]["value"])
	assert.Equal(t, "+15550001111", byName[model.KeyTwilioPhoneNumber]["value"])
	assert.Equal(t, false, byName[model.KeyOpenAI]["set"])
	assert.NotContains(t, rec.Body.String(), "abcdef123456")
}

func TestSetKey(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		body       string
		setErr     error
		wantStatus int
	}{
		{name: "stores known key", path: "/api/v1/keys/openai", body: `{"value":"sk-1"}`, wantStatus: http.StatusNoContent},
		{name: "unknown key", path: "/api/v1/keys/aws", body: `{"value":"x"}`, wantStatus: http.StatusNotFound},
		{name: "bad body", path: "/api/v1/keys/openai", body: `nope`, wantStatus: http.StatusBadRequest},
		{name: "store disabled", path: "/api/v1/keys/openai", body: `{"value":"x"}`, setErr: driven.ErrEncryptionKeyNotSet, wantStatus: http.StatusServiceUnavailable},
		{name: "store failure", path: "/api/v1/keys/openai", body: `{"value":"x"}`, setErr: errors.New("disk full"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setup(t, &mockBackend{}, nil)
			env.store.setErr = tt.setErr

			rec := env.do(http.MethodPut, tt.path, tt.body)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusNoContent {
				creds, err := env.callSvc.Credentials()
				require.NoError(t, err)
				assert.Equal(t, "sk-1", creds.OpenAIAPIKey)
			}
		})
	}
}

func TestDeleteKey(t *testing.T) {
	env := setup(t, &mockBackend{}, map[string]string{model.KeyOpenAI: "sk-1"})

	rec := env.do(http.MethodDelete, "/api/v1/keys/openai", "")

	assert.Equal(t, http.StatusNoContent, rec.Code)
	creds, _ := env.callSvc.Credentials()
	assert.Equal(t, "", creds.OpenAIAPIKey)
}

func TestSetKey_NoKeyService(t *testing.T) {
	store := &mockStore{values: map[string]string{}}
	callSvc := application.NewCallService(&mockBackend{}, application.NewCredentialLoader(store), model.DefaultPrompt, "1", slog.Default())
	mux := httphandler.NewServeMux(httphandler.NewHandler(callSvc, nil, slog.Default()), slog.Default())

	req := httptest.NewRequest(http.MethodPut, "/api/v1/keys/openai", strings.NewReader(`{"value":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
