package client

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"

	"github.com/capitalize-ai/multimodal-gateway/internal/model"
)

// Backend is the subset of the gateway API the dispatcher uses. *Gateway
// implements it.
type Backend interface {
	Chat(ctx context.Context, message string, history []model.HistoryEntry) (*model.ChatResponse, error)
	ProcessImage(ctx context.Context, base64Image string) (*model.ImageResponse, error)
	ProcessVoice(ctx context.Context, audioData string) (*model.VoiceResponse, error)
	ProcessFile(ctx context.Context, filename, mimeType string, data []byte) (*model.FileResponse, error)
}

// NoticeLevel classifies a transient notification.
type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeSuccess NoticeLevel = "success"
	NoticeError   NoticeLevel = "error"
)

// Notifier shows transient notifications next to the conversation log.
type Notifier interface {
	Notify(level NoticeLevel, message string)
}

type nopNotifier struct{}

func (nopNotifier) Notify(NoticeLevel, string) {}

// DispatcherConfig tunes the dispatcher.
type DispatcherConfig struct {
	// HistoryLimit caps the entries sent as chat context.
	HistoryLimit int
	// AutoSendTranscripts starts a chat dispatch with every transcript the
	// provider returns.
	AutoSendTranscripts bool
}

// Dispatcher turns user actions into gateway calls. Every action appends one
// user entry synchronously and exactly one assistant or error entry when
// its call completes. Calls run concurrently, so replies land in completion
// order.
type Dispatcher struct {
	conv      *Conversation
	artifacts *Artifacts
	backend   Backend
	notifier  Notifier
	cfg       DispatcherConfig
	wg        sync.WaitGroup
}

// NewDispatcher creates a dispatcher. A nil notifier discards notifications.
func NewDispatcher(conv *Conversation, artifacts *Artifacts, backend Backend, notifier Notifier, cfg DispatcherConfig) *Dispatcher {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if cfg.HistoryLimit < 0 {
		cfg.HistoryLimit = 0
	}
	return &Dispatcher{
		conv:      conv,
		artifacts: artifacts,
		backend:   backend,
		notifier:  notifier,
		cfg:       cfg,
	}
}

// SendText dispatches a chat message. Blank text is ignored and reported
// as false.
func (d *Dispatcher) SendText(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}

	history := d.conv.History(d.cfg.HistoryLimit)
	d.conv.Append(text, model.SenderUser)

	d.dispatch(func(ctx context.Context) {
		resp, err := d.backend.Chat(ctx, text, history)
		if err != nil {
			d.conv.Append("❌ Failed to get response. Please check connection.", model.SenderError)
			d.notifier.Notify(NoticeError, "Chat service unavailable")
			return
		}
		d.conv.Append(resp.Response, model.SenderAssistant)
	})
	return true
}

// SubmitPhoto dispatches a captured image given as base64 or a data URI.
func (d *Dispatcher) SubmitPhoto(base64Image string) {
	d.conv.Append("📷 Processing image...", model.SenderUser)

	d.dispatch(func(ctx context.Context) {
		resp, err := d.backend.ProcessImage(ctx, base64Image)
		if err != nil {
			d.conv.Append("❌ Failed to process image", model.SenderError)
			d.notifier.Notify(NoticeError, "Image processing failed")
			return
		}
		d.conv.Append("📸 "+resp.Description, model.SenderAssistant)
		d.notifier.Notify(NoticeSuccess, "Image analyzed successfully!")
	})
}

// SubmitRecording dispatches one completed recording.
func (d *Dispatcher) SubmitRecording(audio []byte) {
	d.conv.Append(fmt.Sprintf("🎤 Voice message (%d bytes)", len(audio)), model.SenderUser)
	encoded := base64.StdEncoding.EncodeToString(audio)

	d.dispatch(func(ctx context.Context) {
		resp, err := d.backend.ProcessVoice(ctx, encoded)
		if err != nil {
			d.conv.Append("❌ Failed to process audio", model.SenderError)
			d.notifier.Notify(NoticeError, "Voice processing failed")
			return
		}
		d.conv.Append("🎤 "+resp.Text, model.SenderAssistant)
		d.notifier.Notify(NoticeSuccess, "Voice processed successfully!")

		if d.cfg.AutoSendTranscripts && resp.OpenAI {
			d.SendText(resp.Text)
		}
	})
}

// DropFile uploads a file. Its type is sniffed from the content.
func (d *Dispatcher) DropFile(name string, data []byte) {
	d.conv.Append("📄 Uploaded: "+name, model.SenderUser)
	mimeType := mimetype.Detect(data).String()

	d.dispatch(func(ctx context.Context) {
		resp, err := d.backend.ProcessFile(ctx, name, mimeType, data)
		if err != nil {
			d.conv.Append("❌ Failed to upload "+name, model.SenderError)
			d.notifier.Notify(NoticeError, fmt.Sprintf("Failed to upload %s: %s", name, reason(err)))
			return
		}

		summary := prefix(resp.Content, 150) + "..."
		d.artifacts.Add(model.UploadedArtifact{
			Name:          resp.Filename,
			MimeType:      mimeType,
			SizeBytes:     resp.Size,
			ResultSummary: summary,
			Timestamp:     resp.Timestamp,
		})
		d.conv.Append("File processed: "+summary, model.SenderAssistant)
		d.notifier.Notify(NoticeSuccess, name+" uploaded successfully!")
	})
}

// Wait blocks until every in-flight dispatch has appended its result.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) dispatch(call func(ctx context.Context)) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		call(context.Background())
	}()
}

func reason(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return "Network error"
}

func prefix(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
