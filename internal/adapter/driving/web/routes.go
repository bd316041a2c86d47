package web

import (
	"io/fs"
	"net/http"
)

// RegisterRoutes registers all web GUI routes on the provided mux.
// Pages are served at / and /app/*; static assets come from the embedded
// filesystem at /static/*.
func RegisterRoutes(mux *http.ServeMux, h *Handler) {
	staticFS, _ := fs.Sub(StaticFS, "static")
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(staticFS)))

	mux.HandleFunc("GET /{$}", h.CallPage)
	mux.HandleFunc("POST /app/call", h.InitiateCall)
	mux.HandleFunc("POST /app/test-call", h.TestCall)
	mux.HandleFunc("POST /app/prompt", h.SavePrompt)
	mux.HandleFunc("GET /app/keys", h.KeysPage)
	mux.HandleFunc("POST /app/keys", h.SaveKey)
}
