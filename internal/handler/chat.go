package handler

import (
	"net/http"

	"github.com/capitalize-ai/multimodal-gateway/internal/middleware"
	"github.com/capitalize-ai/multimodal-gateway/internal/model"
	"github.com/capitalize-ai/multimodal-gateway/internal/service"
	"github.com/capitalize-ai/multimodal-gateway/pkg/logger"
)

// ChatHandler handles chat endpoints.
type ChatHandler struct {
	svc    *service.GatewayService
	logger *logger.Logger
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(svc *service.GatewayService, log *logger.Logger) *ChatHandler {
	return &ChatHandler{svc: svc, logger: log}
}

// Chat handles POST /api/chat
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req model.ChatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	if err := middleware.ValidateStruct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.svc.Chat(r.Context(), &req)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
