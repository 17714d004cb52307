package model

import (
	"time"
)

// Outcome describes how the gateway satisfied a request.
type Outcome string

const (
	OutcomeProvider Outcome = "provider"
	OutcomeDegraded Outcome = "degraded"
	OutcomeFallback Outcome = "fallback"
	OutcomeLocal    Outcome = "local"
)

// Operation names used in events, metrics and spans.
const (
	OperationChat  = "chat"
	OperationImage = "image"
	OperationVoice = "voice"
	OperationFile  = "file"
	OperationProbe = "probe"
	OperationTest  = "test"
)

// GatewayEvent is published once per processed request.
type GatewayEvent struct {
	ID             string         `json:"id"`
	Operation      string         `json:"operation"`
	Outcome        Outcome        `json:"outcome"`
	ProviderStatus ProviderStatus `json:"provider_status"`
	Reason         string         `json:"reason,omitempty"`
	LatencyMs      int64          `json:"latency_ms"`
	CreatedAt      time.Time      `json:"created_at"`
}
