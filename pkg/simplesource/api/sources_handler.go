package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/tendant/simple-source/pkg/simplesource"
	"github.com/tendant/simple-source/pkg/simplesource/preview"
)

// SourcesHandler handles source ingestion and management API endpoints
type SourcesHandler struct {
	service  simplesource.Service
	previews *preview.Manager
}

func NewSourcesHandler(service simplesource.Service, previews *preview.Manager) *SourcesHandler {
	return &SourcesHandler{
		service:  service,
		previews: previews,
	}
}

// Routes returns the router for sources endpoints
func (h *SourcesHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/files", h.AddFile)
	r.Post("/links", h.AddLink)
	r.Post("/notes", h.AddNote)
	r.Get("/", h.ListSources)
	r.Get("/{source_id}", h.GetSource)
	r.Patch("/{source_id}", h.UpdateSource)
	r.Delete("/{source_id}", h.DeleteSource)
	return r
}

// AddLinkRequest represents the request to add a link source
type AddLinkRequest struct {
	Name        string `json:"name,omitempty"`
	URL         string `json:"url"`
	Tags        string `json:"tags,omitempty"`
	Description string `json:"description,omitempty"`
}

// AddNoteRequest represents the request to add a note source
type AddNoteRequest struct {
	Name        string `json:"name,omitempty"`
	Text        string `json:"text"`
	Tags        string `json:"tags,omitempty"`
	Description string `json:"description,omitempty"`
}

// UpdateSourceRequest represents the request to update source metadata
type UpdateSourceRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Tags        *string `json:"tags,omitempty"`
}

// SourceResponse represents a source in API responses
type SourceResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Kind        string    `json:"kind"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	Tags        []string  `json:"tags"`
	CreatedAt   time.Time `json:"created_at"`
	FileSize    int64     `json:"file_size,omitempty"`
	MimeType    string    `json:"mime_type,omitempty"`
	URL         string    `json:"url,omitempty"`
	PreviewURL  string    `json:"preview_url,omitempty"`
	PreviewText string    `json:"preview_text,omitempty"`
}

func (h *SourcesHandler) toResponse(source *simplesource.Source) SourceResponse {
	resp := SourceResponse{
		ID:          source.ID.String(),
		Name:        source.Name,
		Kind:        string(source.Kind),
		Category:    string(source.Category),
		Description: source.Description,
		Tags:        source.Tags,
		CreatedAt:   source.CreatedAt,
	}
	if resp.Tags == nil {
		resp.Tags = []string{}
	}
	switch {
	case source.File != nil:
		resp.FileSize = source.File.Size
		resp.MimeType = source.File.MimeType
	case source.URL != nil:
		resp.URL = source.URL.URL
	}
	if h.previews != nil {
		if handle, ok := h.previews.Handle(source.ID); ok {
			resp.PreviewURL = handle.URL
			resp.PreviewText = handle.Text
		}
	}
	return resp
}

// reconcilePreviews refreshes preview handles after the source list changed
func (h *SourcesHandler) reconcilePreviews(r *http.Request) {
	if h.previews == nil {
		return
	}
	sources, err := h.service.ListSources(r.Context())
	if err != nil {
		slog.Warn("Failed to list sources for preview reconcile", "error", err)
		return
	}
	if err := h.previews.Reconcile(r.Context(), sources); err != nil {
		slog.Warn("Failed to reconcile previews", "error", err)
	}
}

// AddFile ingests an uploaded file as a new source
func (h *SourcesHandler) AddFile(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		slog.Error("Failed to parse multipart form", "error", err)
		http.Error(w, "Invalid multipart request", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		slog.Error("Missing file part", "error", err)
		http.Error(w, "Missing required 'file' part", http.StatusBadRequest)
		return
	}
	defer file.Close()

	name := r.FormValue("name")
	if name == "" {
		name = header.Filename
	}

	source, err := h.service.AddFile(r.Context(), simplesource.AddFileRequest{
		Name:        name,
		MimeType:    header.Header.Get("Content-Type"),
		Size:        header.Size,
		Data:        file,
		Tags:        simplesource.ParseTags(r.FormValue("tags")),
		Description: r.FormValue("description"),
	})
	if err != nil {
		slog.Error("Failed to add file source", "name", name, "error", err)
		writeServiceError(w, err)
		return
	}

	h.reconcilePreviews(r)

	slog.Info("File source added", "source_id", source.ID.String(), "name", source.Name)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, h.toResponse(source))
}

// AddLink ingests a URL as a new source
func (h *SourcesHandler) AddLink(w http.ResponseWriter, r *http.Request) {
	var req AddLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Failed to decode request", "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(req.URL) == "" {
		http.Error(w, "URL is required", http.StatusBadRequest)
		return
	}

	source, err := h.service.AddURL(r.Context(), simplesource.AddURLRequest{
		Name:        req.Name,
		URL:         req.URL,
		Tags:        simplesource.ParseTags(req.Tags),
		Description: req.Description,
	})
	if err != nil {
		slog.Error("Failed to add link source", "url", req.URL, "error", err)
		writeServiceError(w, err)
		return
	}

	h.reconcilePreviews(r)

	slog.Info("Link source added", "source_id", source.ID.String(), "url", req.URL)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, h.toResponse(source))
}

// AddNote ingests pasted text as a new source
func (h *SourcesHandler) AddNote(w http.ResponseWriter, r *http.Request) {
	var req AddNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Failed to decode request", "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	source, err := h.service.AddText(r.Context(), simplesource.AddTextRequest{
		Name:        req.Name,
		Text:        req.Text,
		Tags:        simplesource.ParseTags(req.Tags),
		Description: req.Description,
	})
	if err != nil {
		slog.Error("Failed to add note source", "error", err)
		writeServiceError(w, err)
		return
	}

	h.reconcilePreviews(r)

	slog.Info("Note source added", "source_id", source.ID.String())
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, h.toResponse(source))
}

// ListSources returns sources, newest first, optionally filtered
func (h *SourcesHandler) ListSources(w http.ResponseWriter, r *http.Request) {
	sources, err := h.service.ListSources(r.Context())
	if err != nil {
		slog.Error("Failed to list sources", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	category := simplesource.Category(r.URL.Query().Get("category"))
	query := r.URL.Query().Get("q")
	filtered := simplesource.Filter(sources, category, query)

	resp := make([]SourceResponse, 0, len(filtered))
	for _, source := range filtered {
		resp = append(resp, h.toResponse(source))
	}
	render.JSON(w, r, resp)
}

// GetSource returns a single source by ID
func (h *SourcesHandler) GetSource(w http.ResponseWriter, r *http.Request) {
	id, ok := parseSourceID(w, r)
	if !ok {
		return
	}

	source, err := h.service.GetSource(r.Context(), id)
	if err != nil {
		slog.Error("Failed to get source", "source_id", id.String(), "error", err)
		writeServiceError(w, err)
		return
	}

	render.JSON(w, r, h.toResponse(source))
}

// UpdateSource updates name, description, or tags of a source
func (h *SourcesHandler) UpdateSource(w http.ResponseWriter, r *http.Request) {
	id, ok := parseSourceID(w, r)
	if !ok {
		return
	}

	var req UpdateSourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Failed to decode request", "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	update := simplesource.UpdateSourceRequest{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
	}
	if req.Tags != nil {
		tags := simplesource.ParseTags(*req.Tags)
		update.Tags = &tags
	}

	source, err := h.service.UpdateSource(r.Context(), update)
	if err != nil {
		slog.Error("Failed to update source", "source_id", id.String(), "error", err)
		writeServiceError(w, err)
		return
	}

	slog.Info("Source updated", "source_id", id.String())
	render.JSON(w, r, h.toResponse(source))
}

// DeleteSource removes a source and its stored payload
func (h *SourcesHandler) DeleteSource(w http.ResponseWriter, r *http.Request) {
	id, ok := parseSourceID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteSource(r.Context(), id); err != nil {
		slog.Error("Failed to delete source", "source_id", id.String(), "error", err)
		writeServiceError(w, err)
		return
	}

	h.reconcilePreviews(r)

	slog.Info("Source deleted", "source_id", id.String())
	w.WriteHeader(http.StatusNoContent)
}

func parseSourceID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	idStr := chi.URLParam(r, "source_id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		slog.Error("Invalid source ID", "source_id", idStr, "error", err)
		http.Error(w, "Invalid source ID", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

// writeServiceError maps service errors onto HTTP status codes
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, simplesource.ErrSourceNotFound), errors.Is(err, simplesource.ErrBlobNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, simplesource.ErrInvalidSource):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, simplesource.ErrEndpointNotConfigured), errors.Is(err, simplesource.ErrNoTargets):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		var deliveryErr *simplesource.DeliveryError
		if errors.As(err, &deliveryErr) {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
