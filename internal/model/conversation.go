// Package model defines data structures shared by the gateway and its client.
package model

import (
	"time"
)

// Sender identifies who produced a conversation entry.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
	SenderError     Sender = "error"
)

// ConversationEntry is one message unit in the displayed chat log.
type ConversationEntry struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Sender    Sender `json:"sender"`
	Timestamp string `json:"timestamp"`
}

// UploadedArtifact records a file upload that completed a round-trip.
type UploadedArtifact struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	MimeType      string `json:"mime_type"`
	SizeBytes     int64  `json:"size_bytes"`
	ResultSummary string `json:"result_summary"`
	Timestamp     string `json:"timestamp"`
}

// Timestamp formats t the way every response and entry carries it:
// ISO-8601 in UTC with millisecond precision.
func Timestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}
