// Package provider wraps the external AI services the gateway forwards to.
package provider

import (
	"context"
	"errors"
)

// ErrUnsupported is returned for capabilities a provider does not offer.
var ErrUnsupported = errors.New("operation not supported by provider")

// CompletionRequest represents a completion request.
type CompletionRequest struct {
	Model       string
	Messages    []ChatMessage
	MaxTokens   int
	Temperature float64
}

// ChatMessage represents a chat message for the provider.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Chat roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// CompletionResponse represents a completion response.
type CompletionResponse struct {
	Content    string
	Model      string
	TokensIn   int
	TokensOut  int
	StopReason string
	LatencyMs  int64
}

// ImageRequest asks the provider to describe an image.
type ImageRequest struct {
	Model string
	// ImageURL is a data URI (data:<mime>;base64,<payload>) or a remote URL.
	ImageURL  string
	Prompt    string
	MaxTokens int
}

// TranscriptionRequest asks the provider to transcribe an audio file on disk.
type TranscriptionRequest struct {
	Model    string
	FilePath string
}

// Provider is the interface for external AI services.
type Provider interface {
	// Complete sends a chat completion request.
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// DescribeImage returns a textual description of an image.
	DescribeImage(ctx context.Context, req *ImageRequest) (*CompletionResponse, error)

	// Transcribe returns the transcript of an audio file.
	Transcribe(ctx context.Context, req *TranscriptionRequest) (string, error)

	// ListModels lists the models reachable with the configured credential.
	ListModels(ctx context.Context) ([]string, error)

	// Name returns the provider name.
	Name() string
}
