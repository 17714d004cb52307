// Package fallback holds the static responses served when the provider
// cannot answer.
package fallback

import (
	"fmt"
	"math/rand/v2"

	"github.com/capitalize-ai/multimodal-gateway/internal/model"
)

// Static responses for the media operations.
const (
	ImageDescription = "Image received! Configure OpenAI API key for AI analysis."
	VoiceTranscript  = "Audio received! Configure OpenAI for transcription."
)

// Source picks an index in [0, n). *rand.Rand from math/rand/v2 satisfies it.
type Source interface {
	IntN(n int) int
}

type globalSource struct{}

func (globalSource) IntN(n int) int { return rand.IntN(n) }

// DefaultSource draws from the process-wide generator and is safe for
// concurrent use.
var DefaultSource Source = globalSource{}

// ChatResponses returns the instructional responses for a chat message while
// the provider is not connected.
func ChatResponses(assistant, message string, status model.ProviderStatus) []string {
	return []string{
		fmt.Sprintf("Hello! I'm %s. You said: \"%s\". For AI responses, configure your OpenAI API key.", assistant, message),
		fmt.Sprintf("Got your message: \"%s\". Set up OpenAI API key to enable AI chat.", message),
		fmt.Sprintf("You asked: \"%s\". Add API key from https://platform.openai.com for intelligent responses.", message),
		fmt.Sprintf("Hi! Your message: \"%s\". OpenAI status: %s. Configure API key for full features.", message, status),
	}
}

// Chat picks one of ChatResponses using src.
func Chat(src Source, assistant, message string, status model.ProviderStatus) string {
	if src == nil {
		src = DefaultSource
	}
	responses := ChatResponses(assistant, message, status)
	return responses[src.IntN(len(responses))]
}

// ChatDiagnostic is the reply served when a live chat call failed.
func ChatDiagnostic(assistant, message string, err error) string {
	return fmt.Sprintf("I'm %s! You said: \"%s\".\n\nOpenAI error: %v. Please check your API key.", assistant, message, err)
}
