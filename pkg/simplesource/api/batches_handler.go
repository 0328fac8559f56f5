package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/tendant/simple-source/pkg/simplesource"
)

// BatchesHandler handles outbound batch delivery API endpoints
type BatchesHandler struct {
	service simplesource.Service
}

func NewBatchesHandler(service simplesource.Service) *BatchesHandler {
	return &BatchesHandler{service: service}
}

// Routes returns the router for batch endpoints
func (h *BatchesHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.SendBatch)
	return r
}

// SendBatchRequest represents the request to deliver a batch of sources
type SendBatchRequest struct {
	Endpoint  string   `json:"endpoint,omitempty"`
	SourceIDs []string `json:"source_ids"`
}

// SendBatch delivers the named sources to the configured endpoint
func (h *BatchesHandler) SendBatch(w http.ResponseWriter, r *http.Request) {
	var req SendBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Failed to decode request", "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ids := make([]uuid.UUID, 0, len(req.SourceIDs))
	for _, idStr := range req.SourceIDs {
		id, err := uuid.Parse(idStr)
		if err != nil {
			slog.Error("Invalid source ID", "source_id", idStr, "error", err)
			http.Error(w, "Invalid source ID: "+idStr, http.StatusBadRequest)
			return
		}
		ids = append(ids, id)
	}

	receipt, err := h.service.SendBatch(r.Context(), simplesource.SendBatchRequest{
		Endpoint:  req.Endpoint,
		SourceIDs: ids,
	})
	if err != nil {
		slog.Error("Failed to send batch", "error", err)
		writeServiceError(w, err)
		return
	}

	slog.Info("Batch sent", "endpoint", receipt.Endpoint, "source_count", receipt.SourceCount, "skipped", receipt.Skipped)
	render.JSON(w, r, receipt)
}
