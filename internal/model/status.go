package model

// ProviderStatus describes the state of the external AI provider as observed
// by the gateway.
type ProviderStatus string

const (
	StatusNotConfigured       ProviderStatus = "not_configured"
	StatusInvalidFormat       ProviderStatus = "invalid_format"
	StatusTooShort            ProviderStatus = "too_short"
	StatusConnected           ProviderStatus = "connected"
	StatusConnectionFailed    ProviderStatus = "connection_failed"
	StatusInitializationError ProviderStatus = "initialization_error"
)

// AllProviderStatuses lists every status value.
var AllProviderStatuses = []ProviderStatus{
	StatusNotConfigured,
	StatusInvalidFormat,
	StatusTooShort,
	StatusConnected,
	StatusConnectionFailed,
	StatusInitializationError,
}

func (s ProviderStatus) String() string {
	return string(s)
}
