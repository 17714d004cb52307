package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/capitalize-ai/multimodal-gateway/internal/model"
)

// WriteError writes the structured {success:false,error} body.
func WriteError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.ErrorResponse{Success: false, Error: message})
}
