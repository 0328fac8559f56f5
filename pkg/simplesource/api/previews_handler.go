package api

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tendant/simple-source/pkg/simplesource/preview"
)

// PreviewsHandler serves preview blobs by their issued tokens
type PreviewsHandler struct {
	previews *preview.Manager
}

func NewPreviewsHandler(previews *preview.Manager) *PreviewsHandler {
	return &PreviewsHandler{previews: previews}
}

// Routes returns the router for preview endpoints
func (h *PreviewsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/{token}", h.ServePreview)
	return r
}

// ServePreview streams the blob behind a preview token. A token that was
// revoked or never issued yields 404.
func (h *PreviewsHandler) ServePreview(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	rc, mimeType, ok := h.previews.Open(token)
	if !ok {
		http.Error(w, "Preview not found", http.StatusNotFound)
		return
	}
	defer rc.Close()

	if mimeType != "" {
		w.Header().Set("Content-Type", mimeType)
	}
	w.Header().Set("Cache-Control", "no-store")
	if _, err := io.Copy(w, rc); err != nil {
		slog.Warn("Failed to stream preview", "token", token, "error", err)
	}
}
