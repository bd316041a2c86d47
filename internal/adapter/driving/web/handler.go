// Package web implements the HTML GUI driving adapter using templ components.
package web

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/a-h/templ"

	"github.com/ericfisherdev/callpanel/internal/adapter/driving/web/templates"
	"github.com/ericfisherdev/callpanel/internal/adapter/driving/web/templates/pages"
	"github.com/ericfisherdev/callpanel/internal/application"
	"github.com/ericfisherdev/callpanel/internal/domain/port/driven"
)

// Handler is the web GUI driving adapter that serves HTML via templ components.
type Handler struct {
	callSvc *application.CallService
	keySvc  *application.KeyService
	logger  *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(callSvc *application.CallService, keySvc *application.KeyService, logger *slog.Logger) *Handler {
	return &Handler{
		callSvc: callSvc,
		keySvc:  keySvc,
		logger:  logger,
	}
}

// CallPage renders the Test Call page with the latest attempt's result.
func (h *Handler) CallPage(w http.ResponseWriter, r *http.Request) {
	token := csrfToken(w, r)
	creds, credsErr := h.callSvc.Credentials()
	page := toCallPageViewModel(h.callSvc.State(), h.callSvc.Prompt(), h.callSvc.TestNumber(), token, creds, credsErr)

	h.render(w, r, http.StatusOK, "Test Call", pages.TestCall(page))
}

// InitiateCall applies the submitted prompt and calls the submitted number
// exactly as typed. The result is shown by redirecting back to the call page.
func (h *Handler) InitiateCall(w http.ResponseWriter, r *http.Request) {
	if !h.checkCSRF(w, r) {
		return
	}

	h.applyPrompt(r)
	h.callSvc.Initiate(r.Context(), r.PostForm.Get("to"))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// TestCall applies the submitted prompt and calls the configured test number.
func (h *Handler) TestCall(w http.ResponseWriter, r *http.Request) {
	if !h.checkCSRF(w, r) {
		return
	}

	h.applyPrompt(r)
	h.callSvc.TestCall(r.Context())
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// SavePrompt updates the prompt without placing a call.
func (h *Handler) SavePrompt(w http.ResponseWriter, r *http.Request) {
	if !h.checkCSRF(w, r) {
		return
	}

	h.applyPrompt(r)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// KeysPage renders the masked API keys. Viewing the page also writes the
// masked keys to the server log.
func (h *Handler) KeysPage(w http.ResponseWriter, r *http.Request) {
	token := csrfToken(w, r)
	page := toKeysPageViewModel(h.callSvc.MaskedCredentials(), h.keyTimes(r), token)
	if r.URL.Query().Get("saved") != "" {
		page.Flash = "Saved."
	}
	if _, err := h.callSvc.Credentials(); err != nil {
		page.Error = "API keys could not be loaded: " + err.Error()
	}

	h.render(w, r, http.StatusOK, "API Keys", pages.Keys(page))
}

// SaveKey stores one submitted key and reloads credentials.
func (h *Handler) SaveKey(w http.ResponseWriter, r *http.Request) {
	if !h.checkCSRF(w, r) {
		return
	}

	name := r.FormValue("name")
	value := strings.TrimSpace(r.FormValue("value"))

	if err := h.keySvc.Save(r.Context(), name, value); err != nil {
		token := csrfToken(w, r)
		page := toKeysPageViewModel(h.callSvc.MaskedCredentials(), h.keyTimes(r), token)

		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, application.ErrUnknownKey):
			status = http.StatusBadRequest
			page.Error = "Unknown key."
		case errors.Is(err, driven.ErrEncryptionKeyNotSet):
			status = http.StatusServiceUnavailable
			page.Error = err.Error()
		default:
			h.logger.Error("failed to save api key", "name", name, "error", err)
			page.Error = "Saving failed."
		}

		h.render(w, r, status, "API Keys", pages.Keys(page))
		return
	}

	h.logger.Info("api key saved", "name", name)
	http.Redirect(w, r, "/app/keys?saved=1", http.StatusSeeOther)
}

// keyTimes returns when each key was last saved. The page renders without
// the times when the store cannot list them.
func (h *Handler) keyTimes(r *http.Request) map[string]time.Time {
	updated, err := h.keySvc.UpdatedAt(r.Context())
	if err != nil {
		h.logger.Warn("failed to list api key times", "error", err)
		return nil
	}
	return updated
}

// applyPrompt stores the prompt field when the form carried one.
func (h *Handler) applyPrompt(r *http.Request) {
	if _, ok := r.PostForm["prompt"]; ok {
		h.callSvc.SetPrompt(r.PostForm.Get("prompt"))
	}
}

func (h *Handler) checkCSRF(w http.ResponseWriter, r *http.Request) bool {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return false
	}
	if !validateCSRF(r) {
		http.Error(w, "invalid csrf token", http.StatusForbidden)
		return false
	}
	return true
}

// render buffers the page so a rendering failure can still produce a clean 500.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, title string, body templ.Component) {
	var buf bytes.Buffer
	if err := templates.Layout(title, body).Render(r.Context(), &buf); err != nil {
		h.logger.Error("failed to render page", "title", title, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
