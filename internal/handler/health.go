package handler

import (
	"net/http"

	"github.com/capitalize-ai/multimodal-gateway/internal/events"
	"github.com/capitalize-ai/multimodal-gateway/internal/service"
)

// HealthHandler handles the banner, health and provider test endpoints.
type HealthHandler struct {
	svc    *service.GatewayService
	events events.Publisher
}

// NewHealthHandler creates a new health handler. feed may be nil.
func NewHealthHandler(svc *service.GatewayService, feed events.Publisher) *HealthHandler {
	return &HealthHandler{svc: svc, events: feed}
}

// Root handles GET /
func (h *HealthHandler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Info())
}

// Health handles GET /api/health. It never contacts the provider.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Health())
}

// TestProvider handles GET /api/test-openai
func (h *HealthHandler) TestProvider(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.TestProvider(r.Context()))
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	// Check the event feed when one is configured
	if feed, ok := h.events.(interface{ IsConnected() bool }); ok && !feed.IsConnected() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"reason": "event feed not connected",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}
