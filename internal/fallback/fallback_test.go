package fallback

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/capitalize-ai/multimodal-gateway/internal/model"
)

type fixedSource int

func (f fixedSource) IntN(n int) int { return int(f) % n }

func TestChatResponses_EmbedMessage(t *testing.T) {
	responses := ChatResponses("Hasan AI", "hi", model.StatusNotConfigured)

	assert.Len(t, responses, 4)
	for _, r := range responses {
		assert.Contains(t, r, `"hi"`)
	}
	assert.Contains(t, responses[0], "Hasan AI")
	assert.Contains(t, responses[3], "not_configured")
}

func TestChat_UsesSource(t *testing.T) {
	responses := ChatResponses("Hasan AI", "hello", model.StatusTooShort)

	for i := range responses {
		assert.Equal(t, responses[i], Chat(fixedSource(i), "Hasan AI", "hello", model.StatusTooShort))
	}
}

func TestChat_DeterministicWithSeededSource(t *testing.T) {
	a := rand.New(rand.NewPCG(7, 11))
	b := rand.New(rand.NewPCG(7, 11))

	for i := 0; i < 20; i++ {
		assert.Equal(t,
			Chat(a, "Hasan AI", "same", model.StatusNotConfigured),
			Chat(b, "Hasan AI", "same", model.StatusNotConfigured),
		)
	}
}

func TestChat_NilSourceFallsBackToDefault(t *testing.T) {
	got := Chat(nil, "Hasan AI", "x", model.StatusNotConfigured)
	assert.Contains(t, ChatResponses("Hasan AI", "x", model.StatusNotConfigured), got)
}

func TestChatDiagnostic(t *testing.T) {
	got := ChatDiagnostic("Hasan AI", "hi", errors.New("rate limited"))

	assert.Contains(t, got, `"hi"`)
	assert.Contains(t, got, "OpenAI error: rate limited")
}

func TestChatResponses_KeepMessageAsTyped(t *testing.T) {
	msg := "say \"hi\"\nthen C:\\path"

	for _, r := range ChatResponses("Hasan AI", msg, model.StatusNotConfigured) {
		assert.Contains(t, r, `"`+msg+`"`)
	}
	assert.Contains(t, ChatDiagnostic("Hasan AI", msg, errors.New("timeout")), `"`+msg+`"`)
}
