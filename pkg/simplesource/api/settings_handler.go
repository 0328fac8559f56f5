package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/tendant/simple-source/pkg/simplesource"
)

// SettingsHandler handles persisted settings API endpoints
type SettingsHandler struct {
	service simplesource.Service
}

func NewSettingsHandler(service simplesource.Service) *SettingsHandler {
	return &SettingsHandler{service: service}
}

// Routes returns the router for settings endpoints
func (h *SettingsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/webhook", h.GetWebhook)
	r.Put("/webhook", h.SetWebhook)
	return r
}

// WebhookSettingsResponse represents the stored webhook endpoint
type WebhookSettingsResponse struct {
	WebhookURL string `json:"webhook_url"`
}

// GetWebhook returns the stored webhook endpoint
func (h *SettingsHandler) GetWebhook(w http.ResponseWriter, r *http.Request) {
	endpoint, err := h.service.GetWebhookEndpoint(r.Context())
	if err != nil {
		slog.Error("Failed to load webhook settings", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	render.JSON(w, r, WebhookSettingsResponse{WebhookURL: endpoint})
}

// SetWebhook stores the webhook endpoint. An empty URL clears it.
func (h *SettingsHandler) SetWebhook(w http.ResponseWriter, r *http.Request) {
	var req WebhookSettingsResponse
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Failed to decode request", "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.service.SetWebhookEndpoint(r.Context(), req.WebhookURL); err != nil {
		slog.Error("Failed to save webhook settings", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	slog.Info("Webhook endpoint updated")
	render.JSON(w, r, WebhookSettingsResponse{WebhookURL: req.WebhookURL})
}
