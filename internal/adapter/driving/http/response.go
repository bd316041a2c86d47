package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ericfisherdev/callpanel/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// InitiateCallRequest is the JSON body for the initiate call endpoint.
type InitiateCallRequest struct {
	To string `json:"to"`
}

// PromptBody is both the request and response body of the prompt endpoints.
type PromptBody struct {
	Prompt string `json:"prompt"`
}

// SetKeyRequest is the JSON body for the set key endpoint.
type SetKeyRequest struct {
	Value string `json:"value"`
}

// CallStateResponse is the JSON representation of a call attempt.
type CallStateResponse struct {
	Phase        string `json:"phase"`
	AttemptID    string `json:"attempt_id,omitempty"`
	To           string `json:"to,omitempty"`
	Status       string `json:"status"`
	ErrorDetails string `json:"error_details"`
	AIResponse   string `json:"ai_response"`
	CallSID      string `json:"call_sid,omitempty"`
	UpdatedAt    string `json:"updated_at,omitempty"`
}

// KeysResponse lists the loaded credentials, masked.
type KeysResponse struct {
	Keys      []KeyResponse `json:"keys"`
	Complete  bool          `json:"complete"`
	LoadError string        `json:"load_error,omitempty"`
}

// KeyResponse is one masked credential.
type KeyResponse struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Set   bool   `json:"set"`
}

// toCallStateResponse converts a domain CallState to its JSON representation.
func toCallStateResponse(s model.CallState) CallStateResponse {
	resp := CallStateResponse{
		Phase:        string(s.Phase),
		AttemptID:    s.AttemptID,
		To:           s.To,
		Status:       s.Status,
		ErrorDetails: s.ErrorDetails,
		AIResponse:   s.AIResponse,
		CallSID:      s.CallSID,
	}
	if !s.UpdatedAt.IsZero() {
		resp.UpdatedAt = s.UpdatedAt.UTC().Format(time.RFC3339)
	}
	return resp
}

// toKeysResponse converts an already-masked credential set to its JSON
// representation in display order.
func toKeysResponse(masked model.CredentialSet, loadErr error) KeysResponse {
	keys := make([]KeyResponse, 0, len(model.CredentialKeys))
	for _, name := range model.CredentialKeys {
		v := masked.Get(name)
		keys = append(keys, KeyResponse{Name: name, Value: v, Set: v != ""})
	}

	resp := KeysResponse{Keys: keys, Complete: masked.IsComplete()}
	if loadErr != nil {
		resp.LoadError = loadErr.Error()
	}
	return resp
}
