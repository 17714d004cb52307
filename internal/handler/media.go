package handler

import (
	"net/http"

	"github.com/capitalize-ai/multimodal-gateway/internal/middleware"
	"github.com/capitalize-ai/multimodal-gateway/internal/model"
	"github.com/capitalize-ai/multimodal-gateway/internal/service"
	"github.com/capitalize-ai/multimodal-gateway/pkg/logger"
)

// MediaHandler handles image, voice and file endpoints. Uploaded parts are
// stored by middleware.Upload before these handlers run.
type MediaHandler struct {
	svc    *service.GatewayService
	logger *logger.Logger
}

// NewMediaHandler creates a new media handler.
func NewMediaHandler(svc *service.GatewayService, log *logger.Logger) *MediaHandler {
	return &MediaHandler{svc: svc, logger: log}
}

// ProcessImage handles POST /api/process-image
func (h *MediaHandler) ProcessImage(w http.ResponseWriter, r *http.Request) {
	in := service.ImageInput{File: middleware.UploadedFile(r.Context())}
	if in.File == nil {
		if isJSON(r) {
			var req model.ImageRequest
			if err := decodeJSON(w, r, &req); err != nil {
				writeDecodeError(w, err)
				return
			}
			in.Base64Image = req.Base64Image
		} else {
			in.Base64Image = r.FormValue("base64Image")
		}
	}

	resp, err := h.svc.ProcessImage(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// ProcessVoice handles POST /api/process-voice
func (h *MediaHandler) ProcessVoice(w http.ResponseWriter, r *http.Request) {
	in := service.VoiceInput{File: middleware.UploadedFile(r.Context())}
	if in.File == nil {
		if isJSON(r) {
			var req model.VoiceRequest
			if err := decodeJSON(w, r, &req); err != nil {
				writeDecodeError(w, err)
				return
			}
			in.AudioData = req.AudioData
		} else {
			in.AudioData = r.FormValue("audioData")
		}
	}

	resp, err := h.svc.ProcessVoice(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// ProcessFile handles POST /api/process-file
func (h *MediaHandler) ProcessFile(w http.ResponseWriter, r *http.Request) {
	resp, err := h.svc.ProcessFile(r.Context(), middleware.UploadedFile(r.Context()))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
