package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/multimodal-gateway/internal/events"
	"github.com/capitalize-ai/multimodal-gateway/internal/fallback"
	"github.com/capitalize-ai/multimodal-gateway/internal/model"
	"github.com/capitalize-ai/multimodal-gateway/internal/provider"
	"github.com/capitalize-ai/multimodal-gateway/internal/provider/mocks"
	"github.com/capitalize-ai/multimodal-gateway/internal/service"
	"github.com/capitalize-ai/multimodal-gateway/internal/upload"
	"github.com/capitalize-ai/multimodal-gateway/pkg/logger"
)

type testServer struct {
	handler  http.Handler
	store    *upload.Store
	provider *mocks.Provider
}

func newTestServer(t *testing.T, status model.ProviderStatus) *testServer {
	t.Helper()

	store, err := upload.NewStore(t.TempDir(), 1<<20)
	require.NoError(t, err)

	p := mocks.NewProvider(t)
	var tracker *provider.Tracker
	if status == model.StatusConnected {
		tracker = provider.NewStaticTracker(p, status, true, logger.NewNop())
	} else {
		tracker = provider.NewStaticTracker(nil, status, false, logger.NewNop())
	}

	svc := service.NewGatewayService(tracker, store, service.GatewayConfig{
		AssistantName:   "Hasan AI",
		HistoryLimit:    5,
		ProviderTimeout: time.Second,
	}, logger.NewNop())

	h := Routes(RouterConfig{
		Service:            svc,
		Uploads:            store,
		Logger:             logger.NewNop(),
		CORSAllowedOrigins: []string{"*"},
	})

	return &testServer{handler: h, store: store, provider: p}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) postJSON(path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return s.do(req)
}

func (s *testServer) postFile(t *testing.T, path, field, filename, contentType string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return s.do(req)
}

func (s *testServer) assertStoreEmpty(t *testing.T) {
	t.Helper()
	entries, err := os.ReadDir(s.store.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestChat_NotConfiguredFallback(t *testing.T) {
	s := newTestServer(t, model.StatusNotConfigured)

	rec := s.postJSON("/api/chat", `{"message":"hi"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[model.ChatResponse](t, rec)
	assert.True(t, resp.Success)
	assert.False(t, resp.OpenAI)
	assert.Equal(t, model.StatusNotConfigured, resp.Status)
	assert.Contains(t, fallback.ChatResponses("Hasan AI", "hi", model.StatusNotConfigured), resp.Response)
	assert.Contains(t, resp.Response, "hi")
}

func TestChat_EmptyMessage(t *testing.T) {
	s := newTestServer(t, model.StatusConnected)

	rec := s.postJSON("/api/chat", `{"message":""}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decode[model.ErrorResponse](t, rec)
	assert.False(t, resp.Success)
	assert.Equal(t, "Message is required", resp.Error)
}

func TestChat_InvalidJSON(t *testing.T) {
	s := newTestServer(t, model.StatusConnected)

	rec := s.postJSON("/api/chat", `{"message":`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid JSON body", decode[model.ErrorResponse](t, rec).Error)
}

func TestChat_ProviderErrorStillSucceeds(t *testing.T) {
	s := newTestServer(t, model.StatusConnected)
	s.provider.On("Complete", mock.Anything, mock.Anything).Return(nil, assert.AnError).Once()

	rec := s.postJSON("/api/chat", `{"message":"hi","history":[{"text":"earlier","sender":"user"}]}`)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[model.ChatResponse](t, rec)
	assert.True(t, resp.Success)
	assert.False(t, resp.OpenAI)
	assert.Equal(t, assert.AnError.Error(), resp.Error)
}

func TestProcessFile_NoFile(t *testing.T) {
	s := newTestServer(t, model.StatusNotConfigured)

	req := httptest.NewRequest(http.MethodPost, "/api/process-file", nil)
	rec := s.do(req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decode[model.ErrorResponse](t, rec)
	assert.False(t, resp.Success)
	assert.Equal(t, "No file uploaded", resp.Error)
}

func TestProcessFile_RejectedType(t *testing.T) {
	s := newTestServer(t, model.StatusNotConfigured)

	rec := s.postFile(t, "/api/process-file", "file", "tool.exe", "application/x-msdownload", []byte("MZ\x90\x00"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decode[model.ErrorResponse](t, rec)
	assert.False(t, resp.Success)
	assert.Equal(t, "Invalid file type", resp.Error)
	s.assertStoreEmpty(t)
}

func TestProcessFile_Text(t *testing.T) {
	s := newTestServer(t, model.StatusNotConfigured)

	rec := s.postFile(t, "/api/process-file", "file", "notes.txt", "text/plain", []byte("buy milk"))

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[model.FileResponse](t, rec)
	assert.True(t, resp.Success)
	assert.Equal(t, "notes.txt", resp.Filename)
	assert.Equal(t, int64(8), resp.Size)
	assert.Equal(t, "buy milk", resp.Content)
	s.assertStoreEmpty(t)
}

func TestProcessImage(t *testing.T) {
	t.Run("missing input", func(t *testing.T) {
		s := newTestServer(t, model.StatusNotConfigured)
		rec := s.postJSON("/api/process-image", `{}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "No image provided", decode[model.ErrorResponse](t, rec).Error)
	})

	t.Run("upload with provider", func(t *testing.T) {
		s := newTestServer(t, model.StatusConnected)
		s.provider.On("DescribeImage", mock.Anything, mock.MatchedBy(func(req *provider.ImageRequest) bool {
			return strings.HasPrefix(req.ImageURL, "data:image/png;base64,")
		})).Return(&provider.CompletionResponse{Content: "A red square."}, nil).Once()

		rec := s.postFile(t, "/api/process-image", "image", "photo.png", "image/png", []byte("\x89PNG\r\n\x1a\nrest"))

		require.Equal(t, http.StatusOK, rec.Code)
		resp := decode[model.ImageResponse](t, rec)
		assert.True(t, resp.OpenAI)
		assert.Equal(t, "A red square.", resp.Description)
		s.assertStoreEmpty(t)
	})

	t.Run("form field fallback", func(t *testing.T) {
		s := newTestServer(t, model.StatusNotConfigured)
		form := url.Values{"base64Image": {"AAAA"}}
		req := httptest.NewRequest(http.MethodPost, "/api/process-image", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		rec := s.do(req)

		require.Equal(t, http.StatusOK, rec.Code)
		resp := decode[model.ImageResponse](t, rec)
		assert.False(t, resp.OpenAI)
		assert.Equal(t, fallback.ImageDescription, resp.Description)
	})
}

func TestProcessVoice(t *testing.T) {
	t.Run("invalid audio", func(t *testing.T) {
		s := newTestServer(t, model.StatusConnected)
		rec := s.postJSON("/api/process-voice", `{"audioData":"***"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Invalid audio data", decode[model.ErrorResponse](t, rec).Error)
	})

	t.Run("transcribed", func(t *testing.T) {
		s := newTestServer(t, model.StatusConnected)
		s.provider.On("Transcribe", mock.Anything, mock.Anything).Return("hello there", nil).Once()

		rec := s.postFile(t, "/api/process-voice", "audio", "clip.webm", "audio/webm", []byte("webm"))

		require.Equal(t, http.StatusOK, rec.Code)
		resp := decode[model.VoiceResponse](t, rec)
		assert.True(t, resp.OpenAI)
		assert.Equal(t, "hello there", resp.Text)
		s.assertStoreEmpty(t)
	})
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, model.StatusNotConfigured)

	rec := s.do(httptest.NewRequest(http.MethodGet, "/api/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[model.HealthResponse](t, rec)
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, model.StatusNotConfigured, resp.OpenAI)
	assert.False(t, resp.APIKeyConfigured)
	assert.NotEmpty(t, resp.Timestamp)
}

func TestTestProvider_NotReady(t *testing.T) {
	s := newTestServer(t, model.StatusNotConfigured)

	rec := s.do(httptest.NewRequest(http.MethodGet, "/api/test-openai", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[model.ProviderTestResponse](t, rec)
	assert.False(t, resp.Success)
	assert.Equal(t, "OpenAI not ready. Status: not_configured", resp.Message)
}

func TestRoot(t *testing.T) {
	s := newTestServer(t, model.StatusNotConfigured)

	rec := s.do(httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[model.ServiceInfo](t, rec)
	assert.Equal(t, "🚀 Hasan AI API is running!", resp.Message)
	assert.Equal(t, "2.0.0", resp.Version)
}

func TestUnknownRoutes(t *testing.T) {
	s := newTestServer(t, model.StatusNotConfigured)

	for _, path := range []string{"/nope", "/api/nope"} {
		rec := s.do(httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
		assert.Equal(t, "Endpoint not found", decode[model.ErrorResponse](t, rec).Error)
	}

	rec := s.do(httptest.NewRequest(http.MethodGet, "/api/chat", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.False(t, decode[model.ErrorResponse](t, rec).Success)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, model.StatusNotConfigured)

	rec := s.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "provider_status")
}

type feed struct{ connected bool }

func (feed) Publish(context.Context, *model.GatewayEvent) error { return nil }

func (feed) Close() {}

func (f feed) IsConnected() bool { return f.connected }

func TestReady(t *testing.T) {
	store, err := upload.NewStore(t.TempDir(), 1<<20)
	require.NoError(t, err)
	tracker := provider.NewStaticTracker(nil, model.StatusNotConfigured, false, logger.NewNop())
	svc := service.NewGatewayService(tracker, store, service.GatewayConfig{}, logger.NewNop())

	tests := []struct {
		name   string
		events events.Publisher
		want   int
	}{
		{"no feed", nil, http.StatusOK},
		{"nop feed", events.NopPublisher{}, http.StatusOK},
		{"connected feed", feed{connected: true}, http.StatusOK},
		{"disconnected feed", feed{connected: false}, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := Routes(RouterConfig{Service: svc, Uploads: store, Events: tt.events, Logger: logger.NewNop(), CORSAllowedOrigins: []string{"*"}})
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
