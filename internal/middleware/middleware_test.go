package middleware

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/multimodal-gateway/internal/model"
	"github.com/capitalize-ai/multimodal-gateway/internal/upload"
	"github.com/capitalize-ai/multimodal-gateway/pkg/logger"
)

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) model.ErrorResponse {
	t.Helper()
	var body model.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func multipartBody(t *testing.T, field, filename, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	return &buf, mw.FormDataContentType()
}

func TestLogging_CorrelationID(t *testing.T) {
	var seen string
	h := Logging(logger.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetCorrelationID(r.Context())
	}))

	t.Run("propagates header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(CorrelationIDHeader, "abc-123")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, "abc-123", seen)
		assert.Equal(t, "abc-123", rec.Header().Get(CorrelationIDHeader))
	})

	t.Run("generates when missing", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.NotEmpty(t, seen)
		assert.Equal(t, seen, rec.Header().Get(CorrelationIDHeader))
	})
}

func TestRecover(t *testing.T) {
	h := Recover(logger.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeError(t, rec)
	assert.False(t, body.Success)
	assert.Equal(t, "Internal server error", body.Error)
	assert.NotContains(t, rec.Body.String(), "boom")
}

func TestSecurityHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	SecurityHeaders(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}

func TestRateLimit(t *testing.T) {
	h := RateLimit(1, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	first := httptest.NewRecorder()
	h.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	h.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "rate limit exceeded", decodeError(t, second).Error)
	assert.Equal(t, "60", second.Header().Get("Retry-After"))
}

func TestValidateStruct(t *testing.T) {
	assert.NoError(t, ValidateStruct(&model.ChatRequest{Message: "hi"}))

	err := ValidateStruct(&model.ChatRequest{
		Message: "hi",
		History: []model.HistoryEntry{{Text: "x", Sender: strings.Repeat("s", 40)}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Sender")
}

func TestUpload(t *testing.T) {
	newStore := func(t *testing.T, max int64) *upload.Store {
		store, err := upload.NewStore(t.TempDir(), max)
		require.NoError(t, err)
		return store
	}

	t.Run("stores file and removes it afterwards", func(t *testing.T) {
		store := newStore(t, 1<<20)
		var path string
		var content []byte
		h := Upload(store, "file", logger.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			f := UploadedFile(r.Context())
			require.NotNil(t, f)
			path = f.Path
			content, _ = f.ReadAll()
			assert.Equal(t, "notes.txt", f.OriginalName)
			assert.Equal(t, "text/plain", f.MimeType)
		}))

		body, ct := multipartBody(t, "file", "notes.txt", "text/plain; charset=utf-8", []byte("hello"))
		req := httptest.NewRequest(http.MethodPost, "/", body)
		req.Header.Set("Content-Type", ct)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "hello", string(content))
		assert.NoFileExists(t, path)
	})

	t.Run("rejects unsupported type", func(t *testing.T) {
		store := newStore(t, 1<<20)
		called := false
		h := Upload(store, "file", logger.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			called = true
		}))

		body, ct := multipartBody(t, "file", "run.exe", "application/x-msdownload", []byte("MZ"))
		req := httptest.NewRequest(http.MethodPost, "/", body)
		req.Header.Set("Content-Type", ct)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.False(t, called)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Invalid file type", decodeError(t, rec).Error)
		entries, err := os.ReadDir(store.Dir())
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("rejects oversized file", func(t *testing.T) {
		store := newStore(t, 16)
		called := false
		h := Upload(store, "file", logger.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			called = true
		}))

		body, ct := multipartBody(t, "file", "big.txt", "text/plain", bytes.Repeat([]byte("a"), 64))
		req := httptest.NewRequest(http.MethodPost, "/", body)
		req.Header.Set("Content-Type", ct)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.False(t, called)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "File too large", decodeError(t, rec).Error)
	})

	t.Run("non multipart passes through", func(t *testing.T) {
		store := newStore(t, 1<<20)
		var file *upload.File
		called := false
		h := Upload(store, "image", logger.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
			file = UploadedFile(r.Context())
		}))

		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"base64Image":"AAAA"}`))
		req.Header.Set("Content-Type", "application/json")
		h.ServeHTTP(httptest.NewRecorder(), req)

		assert.True(t, called)
		assert.Nil(t, file)
	})
}

func TestRoutePattern(t *testing.T) {
	var route string
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req)
			route = routePattern(req)
		})
	})
	r.Get("/items/{id}", func(w http.ResponseWriter, req *http.Request) {})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/42", nil))
	assert.Equal(t, "/items/{id}", route)

	assert.Equal(t, "unmatched", routePattern(httptest.NewRequest(http.MethodGet, "/", nil)))
}
