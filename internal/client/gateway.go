package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/capitalize-ai/multimodal-gateway/internal/model"
)

// DefaultTimeout bounds each gateway call.
const DefaultTimeout = 90 * time.Second

// APIError is returned for non-2xx responses and for bodies reporting
// success:false.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gateway error (status %d): %s", e.StatusCode, e.Message)
}

// Gateway is an HTTP client for the gateway API.
type Gateway struct {
	baseURL string
	client  *http.Client
}

// NewGateway creates a client for the gateway at baseURL, e.g.
// "http://localhost:3001".
func NewGateway(baseURL string, timeout time.Duration) *Gateway {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	transport := &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	return &Gateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout, Transport: transport},
	}
}

// Info calls GET /.
func (g *Gateway) Info(ctx context.Context) (*model.ServiceInfo, error) {
	var out model.ServiceInfo
	if err := g.do(ctx, http.MethodGet, "/", nil, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Health calls GET /api/health.
func (g *Gateway) Health(ctx context.Context) (*model.HealthResponse, error) {
	var out model.HealthResponse
	if err := g.do(ctx, http.MethodGet, "/api/health", nil, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// TestProvider calls GET /api/test-openai. A provider that is not ready is
// reported in the body, not as an error.
func (g *Gateway) TestProvider(ctx context.Context) (*model.ProviderTestResponse, error) {
	var out model.ProviderTestResponse
	if err := g.do(ctx, http.MethodGet, "/api/test-openai", nil, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Chat calls POST /api/chat.
func (g *Gateway) Chat(ctx context.Context, message string, history []model.HistoryEntry) (*model.ChatResponse, error) {
	var out model.ChatResponse
	if err := g.postJSON(ctx, "/api/chat", model.ChatRequest{Message: message, History: history}, &out); err != nil {
		return nil, err
	}
	return &out, checkSuccess(out.Success)
}

// ProcessImage calls POST /api/process-image with a base64 image or data URI.
func (g *Gateway) ProcessImage(ctx context.Context, base64Image string) (*model.ImageResponse, error) {
	var out model.ImageResponse
	if err := g.postJSON(ctx, "/api/process-image", model.ImageRequest{Base64Image: base64Image}, &out); err != nil {
		return nil, err
	}
	return &out, checkSuccess(out.Success)
}

// ProcessVoice calls POST /api/process-voice with base64 audio.
func (g *Gateway) ProcessVoice(ctx context.Context, audioData string) (*model.VoiceResponse, error) {
	var out model.VoiceResponse
	if err := g.postJSON(ctx, "/api/process-voice", model.VoiceRequest{AudioData: audioData}, &out); err != nil {
		return nil, err
	}
	return &out, checkSuccess(out.Success)
}

// ProcessFile uploads data as the multipart field "file".
func (g *Gateway) ProcessFile(ctx context.Context, filename, mimeType string, data []byte) (*model.FileResponse, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	if mimeType != "" {
		h.Set("Content-Type", mimeType)
	}
	part, err := writer.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("write form file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart body: %w", err)
	}

	var out model.FileResponse
	if err := g.do(ctx, http.MethodPost, "/api/process-file", &body, writer.FormDataContentType(), &out); err != nil {
		return nil, err
	}
	return &out, checkSuccess(out.Success)
}

func (g *Gateway) postJSON(ctx context.Context, path string, in, out interface{}) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	return g.do(ctx, http.MethodPost, path, bytes.NewReader(payload), "application/json", out)
}

func (g *Gateway) do(ctx context.Context, method, path string, body io.Reader, contentType string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		var apiErr model.ErrorResponse
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error != "" {
			return &APIError{StatusCode: resp.StatusCode, Message: apiErr.Error}
		}
		return &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode gateway response: %w", err)
	}
	return nil
}

func checkSuccess(success bool) error {
	if success {
		return nil
	}
	return &APIError{StatusCode: http.StatusOK, Message: "request was not successful"}
}
