package provider

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicConfig configures the Anthropic provider.
type AnthropicConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// AnthropicClient is the Anthropic provider. It serves chat only; image and
// voice requests report ErrUnsupported so the gateway degrades them.
type AnthropicClient struct {
	client *anthropic.Client
	model  string
}

// NewAnthropicClient creates a new Anthropic client.
func NewAnthropicClient(cfg AnthropicConfig) (*AnthropicClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("Anthropic API key is required")
	}

	if cfg.Model == "" {
		cfg.Model = "claude-3-5-haiku-20241022"
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &AnthropicClient{
		client: anthropic.NewClient(opts...),
		model:  cfg.Model,
	}, nil
}

// Name returns the provider name.
func (c *AnthropicClient) Name() string {
	return "anthropic"
}

// Complete sends a completion request.
func (c *AnthropicClient) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	start := time.Now()

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 500
	}

	var system []anthropic.TextBlockParam
	var messages []anthropic.MessageParam
	for _, msg := range req.Messages {
		if msg.Role == RoleSystem {
			system = append(system, textBlock(msg.Content))
			continue
		}
		role := anthropic.MessageParamRoleUser
		if msg.Role == RoleAssistant {
			// The conversation must open with a user turn.
			if len(messages) == 0 {
				continue
			}
			role = anthropic.MessageParamRoleAssistant
		}
		messages = append(messages, anthropic.MessageParam{
			Role:    anthropic.F(role),
			Content: anthropic.F([]anthropic.ContentBlockParamUnion{textBlock(msg.Content)}),
		})
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.F(c.model),
		MaxTokens: anthropic.F(int64(maxTokens)),
		Messages:  anthropic.F(messages),
	}
	if len(system) > 0 {
		params.System = anthropic.F(system)
	}
	if req.Temperature > 0 {
		params.Temperature = anthropic.F(req.Temperature)
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, err
	}

	var content strings.Builder
	for _, block := range resp.Content {
		if block.Type == anthropic.ContentBlockTypeText {
			content.WriteString(block.Text)
		}
	}

	return &CompletionResponse{
		Content:    content.String(),
		Model:      resp.Model,
		TokensIn:   int(resp.Usage.InputTokens),
		TokensOut:  int(resp.Usage.OutputTokens),
		StopReason: string(resp.StopReason),
		LatencyMs:  time.Since(start).Milliseconds(),
	}, nil
}

// DescribeImage is not offered through this provider.
func (c *AnthropicClient) DescribeImage(ctx context.Context, req *ImageRequest) (*CompletionResponse, error) {
	return nil, ErrUnsupported
}

// Transcribe is not offered through this provider.
func (c *AnthropicClient) Transcribe(ctx context.Context, req *TranscriptionRequest) (string, error) {
	return "", ErrUnsupported
}

// ListModels confirms the credential with a one-token message and returns
// the configured model. The API offers no model listing for this client.
func (c *AnthropicClient) ListModels(ctx context.Context) ([]string, error) {
	if _, err := c.Complete(ctx, &CompletionRequest{
		Messages:  []ChatMessage{{Role: RoleUser, Content: "ping"}},
		MaxTokens: 1,
	}); err != nil {
		return nil, err
	}
	return []string{c.model}, nil
}

func textBlock(text string) anthropic.TextBlockParam {
	return anthropic.TextBlockParam{
		Type: anthropic.F(anthropic.TextBlockParamTypeText),
		Text: anthropic.F(text),
	}
}
