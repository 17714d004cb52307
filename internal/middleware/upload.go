package middleware

import (
	"context"
	"errors"
	"mime"
	"net/http"

	"go.uber.org/zap"

	"github.com/capitalize-ai/multimodal-gateway/internal/upload"
	"github.com/capitalize-ai/multimodal-gateway/pkg/logger"
	"github.com/capitalize-ai/multimodal-gateway/pkg/metrics"
)

const (
	uploadedFileKey ContextKey = "uploaded_file"

	// multipartMemory is the part of a multipart body kept in memory before
	// spilling to disk.
	multipartMemory = 32 << 20

	// multipartOverhead allows for form fields and part headers around the file.
	multipartOverhead = 1 << 20
)

// Upload accepts at most one file from the multipart field named field,
// stores it and exposes it through UploadedFile. Requests that are not
// multipart pass through untouched. Rejected files never reach the handler.
// The stored file is removed after the handler returns, including on panic.
func Upload(store *upload.Store, field string, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !isMultipart(r) {
				next.ServeHTTP(w, r)
				return
			}

			if store.MaxBytes() > 0 {
				r.Body = http.MaxBytesReader(w, r.Body, store.MaxBytes()+multipartOverhead)
			}
			if err := r.ParseMultipartForm(multipartMemory); err != nil {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					reject(w, "too_large", upload.ErrFileTooLarge.Error())
					return
				}
				WriteError(w, http.StatusBadRequest, "Invalid multipart form")
				return
			}
			defer func() {
				if err := r.MultipartForm.RemoveAll(); err != nil {
					log.Warn("failed to clean multipart form", zap.Error(err))
				}
			}()

			headers := r.MultipartForm.File[field]
			if len(headers) == 0 {
				next.ServeHTTP(w, r)
				return
			}

			f, err := store.Save(headers[0])
			switch {
			case errors.Is(err, upload.ErrFileTooLarge):
				reject(w, "too_large", err.Error())
				return
			case errors.Is(err, upload.ErrUnsupportedMediaType):
				reject(w, "type", err.Error())
				return
			case err != nil:
				log.Error("failed to store upload", zap.String("field", field), zap.Error(err))
				WriteError(w, http.StatusInternalServerError, "Internal server error")
				return
			}
			defer func() {
				if err := f.Remove(); err != nil {
					log.Warn("failed to remove upload", zap.String("path", f.Path), zap.Error(err))
				}
			}()

			log.Debug("file uploaded",
				zap.String("field", field),
				zap.String("name", f.OriginalName),
				zap.String("mime_type", f.MimeType),
				zap.Int64("size", f.Size),
			)

			ctx := context.WithValue(r.Context(), uploadedFileKey, f)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UploadedFile returns the file stored by Upload, or nil.
func UploadedFile(ctx context.Context) *upload.File {
	f, _ := ctx.Value(uploadedFileKey).(*upload.File)
	return f
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

func reject(w http.ResponseWriter, reason, message string) {
	metrics.UploadsRejectedTotal.WithLabelValues(reason).Inc()
	WriteError(w, http.StatusBadRequest, message)
}
