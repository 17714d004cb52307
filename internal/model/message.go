package model

// HistoryEntry is one prior conversation turn sent as chat context.
type HistoryEntry struct {
	Text   string `json:"text" validate:"max=100000"`
	Sender string `json:"sender" validate:"max=32"`
}

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Message string         `json:"message" validate:"max=100000"`
	History []HistoryEntry `json:"history" validate:"max=1000,dive"`
}

// ChatResponse is the body returned by POST /api/chat.
type ChatResponse struct {
	Success   bool           `json:"success"`
	Response  string         `json:"response"`
	Timestamp string         `json:"timestamp"`
	Model     string         `json:"model,omitempty"`
	OpenAI    bool           `json:"openai"`
	Status    ProviderStatus `json:"status,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// ImageRequest is the JSON form of POST /api/process-image.
type ImageRequest struct {
	Base64Image string `json:"base64Image"`
}

// ImageResponse is the body returned by POST /api/process-image.
type ImageResponse struct {
	Success     bool   `json:"success"`
	Description string `json:"description"`
	Timestamp   string `json:"timestamp"`
	OpenAI      bool   `json:"openai"`
}

// VoiceRequest is the JSON form of POST /api/process-voice.
type VoiceRequest struct {
	AudioData string `json:"audioData"`
}

// VoiceResponse is the body returned by POST /api/process-voice.
type VoiceResponse struct {
	Success   bool   `json:"success"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
	OpenAI    bool   `json:"openai"`
}

// FileResponse is the body returned by POST /api/process-file.
type FileResponse struct {
	Success   bool   `json:"success"`
	Filename  string `json:"filename"`
	Size      int64  `json:"size"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// HealthResponse is the body returned by GET /api/health.
type HealthResponse struct {
	Status           string         `json:"status"`
	Timestamp        string         `json:"timestamp"`
	OpenAI           ProviderStatus `json:"openai"`
	APIKeyConfigured bool           `json:"api_key_configured"`
}

// ProviderTestResponse is the body returned by GET /api/test-openai.
type ProviderTestResponse struct {
	Success   bool           `json:"success"`
	Status    ProviderStatus `json:"status"`
	Message   string         `json:"message"`
	Response  string         `json:"response,omitempty"`
	Error     string         `json:"error,omitempty"`
	Timestamp string         `json:"timestamp,omitempty"`
}

// ServiceInfo is the banner returned by GET /.
type ServiceInfo struct {
	Message   string            `json:"message"`
	Version   string            `json:"version"`
	OpenAI    ProviderStatus    `json:"openai"`
	Endpoints map[string]string `json:"endpoints"`
}

// ErrorResponse is the structured error body for every failed request.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}
