package httphandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/ericfisherdev/callpanel/internal/application"
	"github.com/ericfisherdev/callpanel/internal/domain/port/driven"
)

// maxBodyBytes caps request bodies; prompts are free text but not documents.
const maxBodyBytes = 64 << 10

// Handler is the HTTP driving adapter that serves the REST API.
type Handler struct {
	callSvc *application.CallService
	keySvc  *application.KeyService
	logger  *slog.Logger
}

// NewHandler creates a Handler with all required dependencies. keySvc may be
// nil, in which case key mutation endpoints respond 503.
func NewHandler(callSvc *application.CallService, keySvc *application.KeyService, logger *slog.Logger) *Handler {
	return &Handler{
		callSvc: callSvc,
		keySvc:  keySvc,
		logger:  logger,
	}
}

// RegisterAPIRoutes registers all JSON API routes on the provided mux.
func RegisterAPIRoutes(mux *http.ServeMux, h *Handler) {
	mux.HandleFunc("GET /api/v1/health", h.Health)
	mux.HandleFunc("GET /api/v1/call", h.GetCallState)
	mux.HandleFunc("POST /api/v1/call", h.InitiateCall)
	mux.HandleFunc("POST /api/v1/call/test", h.TestCall)
	mux.HandleFunc("GET /api/v1/prompt", h.GetPrompt)
	mux.HandleFunc("PUT /api/v1/prompt", h.SetPrompt)
	mux.HandleFunc("GET /api/v1/keys", h.ListKeys)
	mux.HandleFunc("PUT /api/v1/keys/{name}", h.SetKey)
	mux.HandleFunc("DELETE /api/v1/keys/{name}", h.DeleteKey)
}

// NewServeMux creates an http.Handler with the API routes registered and
// wrapped with logging and recovery middleware.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	RegisterAPIRoutes(mux, h)
	return ApplyMiddleware(mux, logger)
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// GetCallState returns the state of the latest call attempt.
func (h *Handler) GetCallState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, toCallStateResponse(h.callSvc.State()))
}

// InitiateCall runs one call attempt and returns its outcome. Backend
// failures are part of the outcome, so the response is 200 either way. The
// destination is passed to the backend as given, empty included.
func (h *Handler) InitiateCall(w http.ResponseWriter, r *http.Request) {
	var req InitiateCallRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	outcome := h.callSvc.Initiate(r.Context(), req.To)
	writeJSON(w, http.StatusOK, toCallStateResponse(outcome))
}

// TestCall runs one call attempt against the configured test number.
func (h *Handler) TestCall(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toCallStateResponse(h.callSvc.TestCall(r.Context())))
}

// GetPrompt returns the prompt the next attempt will send.
func (h *Handler) GetPrompt(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, PromptBody{Prompt: h.callSvc.Prompt()})
}

// SetPrompt replaces the prompt.
func (h *Handler) SetPrompt(w http.ResponseWriter, r *http.Request) {
	var req PromptBody
	if !h.decodeBody(w, r, &req) {
		return
	}

	h.callSvc.SetPrompt(req.Prompt)
	writeJSON(w, http.StatusOK, PromptBody{Prompt: h.callSvc.Prompt()})
}

// ListKeys returns the loaded credentials with secrets masked.
func (h *Handler) ListKeys(w http.ResponseWriter, _ *http.Request) {
	masked := h.callSvc.MaskedCredentials()
	_, loadErr := h.callSvc.Credentials()
	writeJSON(w, http.StatusOK, toKeysResponse(masked, loadErr))
}

// SetKey stores one API key and reloads credentials.
func (h *Handler) SetKey(w http.ResponseWriter, r *http.Request) {
	if h.keySvc == nil {
		writeError(w, http.StatusServiceUnavailable, "key store unavailable")
		return
	}

	var req SetKeyRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	name := r.PathValue("name")
	if err := h.keySvc.Save(r.Context(), name, strings.TrimSpace(req.Value)); err != nil {
		h.writeKeyError(w, name, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteKey removes one API key and reloads credentials.
func (h *Handler) DeleteKey(w http.ResponseWriter, r *http.Request) {
	if h.keySvc == nil {
		writeError(w, http.StatusServiceUnavailable, "key store unavailable")
		return
	}

	name := r.PathValue("name")
	if err := h.keySvc.Delete(r.Context(), name); err != nil {
		h.writeKeyError(w, name, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeKeyError(w http.ResponseWriter, name string, err error) {
	switch {
	case errors.Is(err, application.ErrUnknownKey):
		writeError(w, http.StatusNotFound, "unknown key name")
	case errors.Is(err, driven.ErrEncryptionKeyNotSet):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		h.logger.Error("failed to update api key", "name", name, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// decodeBody reads a JSON request body into v. It writes the error response
// and returns false when the body is not JSON. Requiring the JSON media type
// keeps cross-site form and text/plain posts out.
func (h *Handler) decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		writeError(w, http.StatusUnsupportedMediaType, "content type must be application/json")
		return false
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
