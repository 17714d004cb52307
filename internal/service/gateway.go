// Package service implements the gateway operations and their degradation
// policy.
package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/capitalize-ai/multimodal-gateway/internal/events"
	"github.com/capitalize-ai/multimodal-gateway/internal/fallback"
	"github.com/capitalize-ai/multimodal-gateway/internal/model"
	"github.com/capitalize-ai/multimodal-gateway/internal/provider"
	"github.com/capitalize-ai/multimodal-gateway/internal/upload"
	"github.com/capitalize-ai/multimodal-gateway/pkg/logger"
	"github.com/capitalize-ai/multimodal-gateway/pkg/metrics"
)

const (
	// Version is reported by the service banner.
	Version = "2.0.0"

	// MaxFileContentChars bounds the extracted file content in responses.
	MaxFileContentChars = 500

	tracerName = "github.com/capitalize-ai/multimodal-gateway/internal/service"
)

// GatewayConfig tunes the gateway operations.
type GatewayConfig struct {
	AssistantName   string
	HistoryLimit    int
	ProviderTimeout time.Duration
}

// GatewayService handles chat, image, voice and file requests.
type GatewayService struct {
	tracker *provider.Tracker
	store   *upload.Store
	events  events.Publisher
	random  fallback.Source
	now     func() time.Time
	cfg     GatewayConfig
	logger  *logger.Logger
}

// Option customizes a GatewayService.
type Option func(*GatewayService)

// WithEventPublisher sets the activity feed publisher.
func WithEventPublisher(p events.Publisher) Option {
	return func(s *GatewayService) { s.events = p }
}

// WithRandomSource sets the source used to pick fallback responses.
func WithRandomSource(src fallback.Source) Option {
	return func(s *GatewayService) { s.random = src }
}

// WithClock sets the clock used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *GatewayService) { s.now = now }
}

// NewGatewayService creates a new gateway service.
func NewGatewayService(tracker *provider.Tracker, store *upload.Store, cfg GatewayConfig, log *logger.Logger, opts ...Option) *GatewayService {
	if cfg.AssistantName == "" {
		cfg.AssistantName = "Hasan AI"
	}
	if cfg.HistoryLimit < 0 {
		cfg.HistoryLimit = 0
	}

	s := &GatewayService{
		tracker: tracker,
		store:   store,
		events:  events.NopPublisher{},
		random:  fallback.DefaultSource,
		now:     time.Now,
		cfg:     cfg,
		logger:  log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ImageInput is an image given inline or as an upload.
type ImageInput struct {
	Base64Image string
	File        *upload.File
}

// VoiceInput is audio given inline or as an upload.
type VoiceInput struct {
	AudioData string
	File      *upload.File
}

// Info returns the service banner.
func (s *GatewayService) Info() *model.ServiceInfo {
	return &model.ServiceInfo{
		Message: fmt.Sprintf("🚀 %s API is running!", s.cfg.AssistantName),
		Version: Version,
		OpenAI:  s.tracker.Status(),
		Endpoints: map[string]string{
			"health": "/api/health",
			"chat":   "/api/chat",
			"image":  "/api/process-image",
			"voice":  "/api/process-voice",
			"file":   "/api/process-file",
			"test":   "/api/test-openai",
		},
	}
}

// Health reports the provider status without calling the provider.
func (s *GatewayService) Health() *model.HealthResponse {
	return &model.HealthResponse{
		Status:           "healthy",
		Timestamp:        s.timestamp(),
		OpenAI:           s.tracker.Status(),
		APIKeyConfigured: s.tracker.CredentialConfigured(),
	}
}

// TestProvider issues one live call to the provider.
func (s *GatewayService) TestProvider(ctx context.Context) *model.ProviderTestResponse {
	status := s.tracker.Status()
	p, ok := s.tracker.Ready()
	if !ok {
		return &model.ProviderTestResponse{
			Success: false,
			Status:  status,
			Message: fmt.Sprintf("OpenAI not ready. Status: %s", status),
		}
	}

	var resp *provider.CompletionResponse
	err := s.call(ctx, p, model.OperationTest, func(ctx context.Context) error {
		var err error
		resp, err = p.Complete(ctx, &provider.CompletionRequest{
			Messages: []provider.ChatMessage{
				{Role: provider.RoleSystem, Content: "You are a test assistant. Respond with 'AI is working!'"},
				{Role: provider.RoleUser, Content: "Say hello"},
			},
			MaxTokens: 10,
		})
		return err
	})
	if err != nil {
		s.logger.Warn("provider test failed", zap.Error(err))
		return &model.ProviderTestResponse{
			Success: false,
			Status:  status,
			Message: "OpenAI test failed",
			Error:   err.Error(),
		}
	}

	return &model.ProviderTestResponse{
		Success:   true,
		Status:    status,
		Message:   "OpenAI API is working!",
		Response:  resp.Content,
		Timestamp: s.timestamp(),
	}
}

// Chat answers a message, degrading to diagnostic or fallback text when the
// provider cannot answer. Only blank messages fail.
func (s *GatewayService) Chat(ctx context.Context, req *model.ChatRequest) (*model.ChatResponse, error) {
	start := time.Now()

	if strings.TrimSpace(req.Message) == "" {
		return nil, NewInputError("Message is required")
	}

	status := s.tracker.Status()
	s.logger.Info("chat request",
		zap.String("preview", preview(req.Message, 50)),
		zap.Int("history", len(req.History)),
		zap.String("provider_status", status.String()),
	)

	if p, ok := s.tracker.Ready(); ok {
		var resp *provider.CompletionResponse
		err := s.call(ctx, p, model.OperationChat, func(ctx context.Context) error {
			var err error
			resp, err = p.Complete(ctx, &provider.CompletionRequest{
				Messages:    s.chatMessages(req),
				MaxTokens:   500,
				Temperature: 0.7,
			})
			return err
		})
		if err == nil {
			metrics.RecordTokens(resp.Model, resp.TokensIn, resp.TokensOut)
			s.emit(ctx, model.OperationChat, model.OutcomeProvider, "", start)
			return &model.ChatResponse{
				Success:   true,
				Response:  resp.Content,
				Timestamp: s.timestamp(),
				Model:     resp.Model,
				OpenAI:    true,
			}, nil
		}

		s.logger.Warn("provider chat failed", zap.Error(err))
		metrics.RecordFallback(model.OperationChat, "provider_error")
		s.emit(ctx, model.OperationChat, model.OutcomeDegraded, err.Error(), start)
		return &model.ChatResponse{
			Success:   true,
			Response:  fallback.ChatDiagnostic(s.cfg.AssistantName, req.Message, err),
			Timestamp: s.timestamp(),
			OpenAI:    false,
			Error:     err.Error(),
		}, nil
	}

	metrics.RecordFallback(model.OperationChat, status.String())
	s.emit(ctx, model.OperationChat, model.OutcomeFallback, status.String(), start)
	return &model.ChatResponse{
		Success:   true,
		Response:  fallback.Chat(s.random, s.cfg.AssistantName, req.Message, status),
		Timestamp: s.timestamp(),
		OpenAI:    false,
		Status:    status,
	}, nil
}

// ProcessImage describes an image. The uploaded file, if any, is removed
// before returning on every path.
func (s *GatewayService) ProcessImage(ctx context.Context, in ImageInput) (*model.ImageResponse, error) {
	start := time.Now()
	if in.File != nil {
		defer s.release(in.File)
	}

	var imageData string
	switch {
	case in.Base64Image != "":
		imageData = imageDataURI(in.Base64Image)
	case in.File != nil:
		data, err := in.File.ReadAll()
		if err != nil {
			return nil, fmt.Errorf("failed to read uploaded image: %w", err)
		}
		s.release(in.File)
		imageData = fmt.Sprintf("data:%s;base64,%s", in.File.MimeType, base64.StdEncoding.EncodeToString(data))
	default:
		return nil, NewInputError("No image provided")
	}

	reason := s.tracker.Status().String()
	if p, ok := s.tracker.Ready(); ok {
		var resp *provider.CompletionResponse
		err := s.call(ctx, p, model.OperationImage, func(ctx context.Context) error {
			var err error
			resp, err = p.DescribeImage(ctx, &provider.ImageRequest{ImageURL: imageData})
			return err
		})
		if err == nil {
			metrics.RecordTokens(resp.Model, resp.TokensIn, resp.TokensOut)
			s.emit(ctx, model.OperationImage, model.OutcomeProvider, "", start)
			return &model.ImageResponse{
				Success:     true,
				Description: resp.Content,
				Timestamp:   s.timestamp(),
				OpenAI:      true,
			}, nil
		}
		s.logger.Warn("provider vision failed", zap.Error(err))
		reason = "provider_error"
	}

	metrics.RecordFallback(model.OperationImage, reason)
	s.emit(ctx, model.OperationImage, model.OutcomeFallback, reason, start)
	return &model.ImageResponse{
		Success:     true,
		Description: fallback.ImageDescription,
		Timestamp:   s.timestamp(),
		OpenAI:      false,
	}, nil
}

// ProcessVoice transcribes audio through a request-scoped temp file that is
// removed whatever the outcome.
func (s *GatewayService) ProcessVoice(ctx context.Context, in VoiceInput) (*model.VoiceResponse, error) {
	start := time.Now()
	if in.File != nil {
		defer s.release(in.File)
	}

	var audio []byte
	switch {
	case in.AudioData != "":
		decoded, err := decodeBase64Payload(in.AudioData)
		if err != nil {
			return nil, NewInputError("Invalid audio data")
		}
		audio = decoded
	case in.File != nil:
		data, err := in.File.ReadAll()
		if err != nil {
			return nil, fmt.Errorf("failed to read uploaded audio: %w", err)
		}
		s.release(in.File)
		audio = data
	default:
		return nil, NewInputError("No audio provided")
	}

	reason := s.tracker.Status().String()
	if p, ok := s.tracker.Ready(); ok {
		text, err := s.transcribe(ctx, p, audio)
		if err == nil {
			s.emit(ctx, model.OperationVoice, model.OutcomeProvider, "", start)
			return &model.VoiceResponse{
				Success:   true,
				Text:      text,
				Timestamp: s.timestamp(),
				OpenAI:    true,
			}, nil
		}
		s.logger.Warn("provider transcription failed", zap.Error(err))
		reason = "provider_error"
	}

	metrics.RecordFallback(model.OperationVoice, reason)
	s.emit(ctx, model.OperationVoice, model.OutcomeFallback, reason, start)
	return &model.VoiceResponse{
		Success:   true,
		Text:      fallback.VoiceTranscript,
		Timestamp: s.timestamp(),
		OpenAI:    false,
	}, nil
}

// ProcessFile extracts up to MaxFileContentChars of text from an upload and
// removes the upload before returning.
func (s *GatewayService) ProcessFile(ctx context.Context, file *upload.File) (*model.FileResponse, error) {
	start := time.Now()
	if file == nil {
		return nil, NewInputError("No file uploaded")
	}
	defer s.release(file)

	content := extractText(file)
	s.release(file)

	s.emit(ctx, model.OperationFile, model.OutcomeLocal, "", start)
	return &model.FileResponse{
		Success:   true,
		Filename:  file.OriginalName,
		Size:      file.Size,
		Content:   truncate(content, MaxFileContentChars),
		Timestamp: s.timestamp(),
	}, nil
}

func (s *GatewayService) transcribe(ctx context.Context, p provider.Provider, audio []byte) (string, error) {
	tmp, err := s.store.CreateTemp("temp_audio_", ".webm", audio)
	if err != nil {
		return "", err
	}
	defer s.release(tmp)

	var text string
	err = s.call(ctx, p, model.OperationVoice, func(ctx context.Context) error {
		var err error
		text, err = p.Transcribe(ctx, &provider.TranscriptionRequest{FilePath: tmp.Path})
		return err
	})
	return text, err
}

// chatMessages builds the bounded provider context: preamble, the most
// recent history entries, then the new message.
func (s *GatewayService) chatMessages(req *model.ChatRequest) []provider.ChatMessage {
	history := req.History
	if len(history) > s.cfg.HistoryLimit {
		history = history[len(history)-s.cfg.HistoryLimit:]
	}

	messages := make([]provider.ChatMessage, 0, len(history)+2)
	messages = append(messages, provider.ChatMessage{Role: provider.RoleSystem, Content: s.systemPrompt()})
	for _, entry := range history {
		if strings.TrimSpace(entry.Text) == "" {
			continue
		}
		role := provider.RoleAssistant
		if entry.Sender == string(model.SenderUser) {
			role = provider.RoleUser
		}
		messages = append(messages, provider.ChatMessage{Role: role, Content: entry.Text})
	}
	messages = append(messages, provider.ChatMessage{Role: provider.RoleUser, Content: req.Message})
	return messages
}

func (s *GatewayService) systemPrompt() string {
	return fmt.Sprintf(`You are %s, a helpful assistant with capabilities:
- Process images from camera
- Transcribe voice messages
- Analyze uploaded files
- Answer questions knowledgeably
- Provide step-by-step guidance

Be friendly, concise, and helpful. Current time: %s`, s.cfg.AssistantName, s.now().Format(time.RFC1123))
}

// call runs one provider call under the configured timeout, inside a span,
// and records its latency.
func (s *GatewayService) call(ctx context.Context, p provider.Provider, operation string, fn func(ctx context.Context) error) error {
	if s.cfg.ProviderTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.ProviderTimeout)
		defer cancel()
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "provider."+operation)
	defer span.End()
	span.SetAttributes(attribute.String("provider.name", p.Name()))

	start := time.Now()
	err := fn(ctx)

	outcome := "success"
	if err != nil {
		outcome = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	metrics.RecordProviderCall(p.Name(), operation, outcome, time.Since(start).Seconds())
	return err
}

func (s *GatewayService) emit(ctx context.Context, operation string, outcome model.Outcome, reason string, start time.Time) {
	err := s.events.Publish(ctx, &model.GatewayEvent{
		ID:             uuid.Must(uuid.NewV7()).String(),
		Operation:      operation,
		Outcome:        outcome,
		ProviderStatus: s.tracker.Status(),
		Reason:         reason,
		LatencyMs:      time.Since(start).Milliseconds(),
		CreatedAt:      s.now(),
	})
	if err != nil {
		metrics.EventsPublishFailuresTotal.Inc()
		s.logger.Debug("failed to publish gateway event", zap.String("operation", operation), zap.Error(err))
	}
}

func (s *GatewayService) release(f *upload.File) {
	if err := f.Remove(); err != nil {
		s.logger.Warn("failed to remove temporary file", zap.String("path", f.Path), zap.Error(err))
	}
}

func (s *GatewayService) timestamp() string {
	return model.Timestamp(s.now())
}

func extractText(file *upload.File) string {
	data, err := file.ReadAll()
	if err != nil || !utf8.Valid(data) {
		return fmt.Sprintf("File: %s (%d bytes)", file.OriginalName, file.Size)
	}
	return string(data)
}

// imageDataURI leaves data URIs and remote URLs alone and wraps bare base64.
func imageDataURI(image string) string {
	image = strings.TrimSpace(image)
	if strings.HasPrefix(image, "data:") || strings.HasPrefix(image, "http://") || strings.HasPrefix(image, "https://") {
		return image
	}
	return "data:image/jpeg;base64," + image
}

// decodeBase64Payload accepts bare base64 or a data URI.
func decodeBase64Payload(payload string) ([]byte, error) {
	payload = strings.TrimSpace(payload)
	if strings.HasPrefix(payload, "data:") {
		if _, data, ok := strings.Cut(payload, ","); ok {
			payload = data
		}
	}
	decoded, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
	}
	return decoded, nil
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

func preview(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return truncate(s, n) + "..."
}
