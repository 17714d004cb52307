// Package config provides environment configuration for the gateway server.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Provider names accepted in LLM_PROVIDER.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	ServerPort         string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration

	// Provider settings
	LLMProvider        string
	OpenAIAPIKey       string
	OpenAIBaseURL      string
	AnthropicAPIKey    string
	AnthropicBaseURL   string
	ChatModel          string
	VisionModel        string
	TranscriptionModel string
	AnthropicModel     string
	ProviderTimeout    time.Duration
	HistoryLimit       int
	AssistantName      string

	// Uploads
	UploadDir      string
	MaxUploadBytes int64

	// HTTP surface
	RateLimitRequests  int
	RateLimitWindow    time.Duration
	CORSAllowedOrigins []string

	// Logging
	LogLevel  string
	LogFormat string

	// Event feed
	NATSURL           string
	NATSToken         string
	NATSCAFile        string
	NATSCertFile      string
	NATSKeyFile       string
	NATSSubjectPrefix string

	// Tracing
	TracingEndpoint string
	TracingEnabled  bool
}

// Load reads configuration from a local .env file, if any, and the environment.
// Variables already set in the environment win over the file.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		// Server
		ServerPort:         getEnv("PORT", "3001"),
		ServerReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 60*time.Second),
		ServerWriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 180*time.Second),

		// Provider
		LLMProvider:        strings.ToLower(getEnv("LLM_PROVIDER", ProviderOpenAI)),
		OpenAIAPIKey:       strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		OpenAIBaseURL:      getEnv("OPENAI_BASE_URL", ""),
		AnthropicAPIKey:    strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY")),
		AnthropicBaseURL:   getEnv("ANTHROPIC_BASE_URL", ""),
		ChatModel:          getEnv("CHAT_MODEL", "gpt-3.5-turbo"),
		VisionModel:        getEnv("VISION_MODEL", "gpt-4o"),
		TranscriptionModel: getEnv("TRANSCRIPTION_MODEL", "whisper-1"),
		AnthropicModel:     getEnv("ANTHROPIC_MODEL", "claude-3-5-haiku-20241022"),
		ProviderTimeout:    getDurationEnv("PROVIDER_TIMEOUT", 60*time.Second),
		HistoryLimit:       getIntEnv("HISTORY_LIMIT", 5),
		AssistantName:      getEnv("ASSISTANT_NAME", "Hasan AI"),

		// Uploads
		UploadDir:      getEnv("UPLOAD_DIR", "uploads"),
		MaxUploadBytes: getInt64Env("MAX_UPLOAD_BYTES", 100*1024*1024),

		// HTTP surface
		RateLimitRequests:  getIntEnv("RATE_LIMIT_REQUESTS", 120),
		RateLimitWindow:    getDurationEnv("RATE_LIMIT_WINDOW", time.Minute),
		CORSAllowedOrigins: getListEnv("CORS_ALLOWED_ORIGINS", []string{"*"}),

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		// Event feed
		NATSURL:           getEnv("NATS_URL", ""),
		NATSToken:         getEnv("NATS_TOKEN", ""),
		NATSCAFile:        getEnv("NATS_CA_FILE", ""),
		NATSCertFile:      getEnv("NATS_CERT_FILE", ""),
		NATSKeyFile:       getEnv("NATS_KEY_FILE", ""),
		NATSSubjectPrefix: getEnv("NATS_SUBJECT_PREFIX", "gateway"),

		// Tracing
		TracingEndpoint: getEnv("TRACING_ENDPOINT", "localhost:4318"),
		TracingEnabled:  getBoolEnv("TRACING_ENABLED", false),
	}
}

// Credential returns the API key for the selected provider.
func (c *Config) Credential() string {
	if c.LLMProvider == ProviderAnthropic {
		return c.AnthropicAPIKey
	}
	return c.OpenAIAPIKey
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getInt64Env(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
