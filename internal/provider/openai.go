package provider

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

// OpenAIConfig configures the OpenAI provider.
type OpenAIConfig struct {
	APIKey             string
	BaseURL            string
	ChatModel          string
	VisionModel        string
	TranscriptionModel string
}

// OpenAIClient is the OpenAI provider.
type OpenAIClient struct {
	client             *openai.Client
	chatModel          string
	visionModel        string
	transcriptionModel string
}

// NewOpenAIClient creates a new OpenAI client.
func NewOpenAIClient(cfg OpenAIConfig) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}

	if cfg.ChatModel == "" {
		cfg.ChatModel = openai.GPT3Dot5Turbo
	}
	if cfg.VisionModel == "" {
		cfg.VisionModel = "gpt-4o"
	}
	if cfg.TranscriptionModel == "" {
		cfg.TranscriptionModel = openai.Whisper1
	}

	return &OpenAIClient{
		client:             openai.NewClientWithConfig(clientConfig),
		chatModel:          cfg.ChatModel,
		visionModel:        cfg.VisionModel,
		transcriptionModel: cfg.TranscriptionModel,
	}, nil
}

// Name returns the provider name.
func (c *OpenAIClient) Name() string {
	return "openai"
}

// Complete sends a completion request.
func (c *OpenAIClient) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	start := time.Now()

	model := req.Model
	if model == "" {
		model = c.chatModel
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 500
	}

	// Convert messages to OpenAI format
	messages := make([]openai.ChatCompletionMessage, len(req.Messages))
	for i, msg := range req.Messages {
		messages[i] = openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: float32(req.Temperature),
	})
	if err != nil {
		return nil, err
	}

	return completionFromResponse(resp, model, start)
}

// DescribeImage sends the image as a vision message part.
func (c *OpenAIClient) DescribeImage(ctx context.Context, req *ImageRequest) (*CompletionResponse, error) {
	start := time.Now()

	model := req.Model
	if model == "" {
		model = c.visionModel
	}

	prompt := req.Prompt
	if prompt == "" {
		prompt = "Describe this image"
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 300
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: prompt},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    req.ImageURL,
							Detail: openai.ImageURLDetailAuto,
						},
					},
				},
			},
		},
		MaxTokens: maxTokens,
	})
	if err != nil {
		return nil, err
	}

	return completionFromResponse(resp, model, start)
}

// Transcribe uploads the audio file for speech-to-text.
func (c *OpenAIClient) Transcribe(ctx context.Context, req *TranscriptionRequest) (string, error) {
	model := req.Model
	if model == "" {
		model = c.transcriptionModel
	}

	resp, err := c.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    model,
		FilePath: req.FilePath,
		Format:   openai.AudioResponseFormatText,
	})
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(resp.Text), nil
}

// ListModels lists the models available to the credential.
func (c *OpenAIClient) ListModels(ctx context.Context) ([]string, error) {
	list, err := c.client.ListModels(ctx)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(list.Models))
	for _, m := range list.Models {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

func completionFromResponse(resp openai.ChatCompletionResponse, model string, start time.Time) (*CompletionResponse, error) {
	if len(resp.Choices) == 0 {
		return nil, errors.New("provider returned no choices")
	}

	if resp.Model != "" {
		model = resp.Model
	}

	return &CompletionResponse{
		Content:    resp.Choices[0].Message.Content,
		Model:      model,
		TokensIn:   resp.Usage.PromptTokens,
		TokensOut:  resp.Usage.CompletionTokens,
		StopReason: string(resp.Choices[0].FinishReason),
		LatencyMs:  time.Since(start).Milliseconds(),
	}, nil
}
