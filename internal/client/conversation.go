// Package client keeps the conversation state of a gateway client and
// dispatches user actions to the gateway.
package client

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/capitalize-ai/multimodal-gateway/internal/model"
)

// ClearedText is the single entry left after Clear.
const ClearedText = "Chat cleared. How can I help you today?"

// Greeting returns the entries a new conversation starts with.
func Greeting(assistant string) []string {
	return []string{
		"👋 Hello! I'm " + assistant + " Assistant. I can help you with:",
		"📷 Process images from camera or upload",
		"🎤 Record and transcribe voice messages",
		"📁 Upload and analyze files (PDF, images, docs)",
		"💬 Chat with AI for any questions",
		"Try any feature from the control panel!",
	}
}

// Conversation is an append-only log of entries, safe for concurrent use.
// Clear is the only operation that drops entries.
type Conversation struct {
	mu       sync.Mutex
	entries  []model.ConversationEntry
	onChange func(model.ConversationEntry)
	now      func() time.Time
}

// NewConversation creates a conversation seeded with the greeting for
// assistant. An empty assistant name starts an empty log.
func NewConversation(assistant string) *Conversation {
	c := &Conversation{now: time.Now}
	if assistant != "" {
		for _, text := range Greeting(assistant) {
			c.entries = append(c.entries, c.newEntry(text, model.SenderAssistant))
		}
	}
	return c
}

// OnChange registers fn to be called, outside the lock, with every entry
// appended after registration.
func (c *Conversation) OnChange(fn func(model.ConversationEntry)) {
	c.mu.Lock()
	c.onChange = fn
	c.mu.Unlock()
}

// Append adds an entry and returns it.
func (c *Conversation) Append(text string, sender model.Sender) model.ConversationEntry {
	c.mu.Lock()
	entry := c.newEntry(text, sender)
	c.entries = append(c.entries, entry)
	fn := c.onChange
	c.mu.Unlock()

	if fn != nil {
		fn(entry)
	}
	return entry
}

// Entries returns a copy of the log.
func (c *Conversation) Entries() []model.ConversationEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.ConversationEntry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Len returns the number of entries.
func (c *Conversation) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear replaces the log with a single ClearedText entry.
func (c *Conversation) Clear() {
	c.mu.Lock()
	c.entries = c.entries[:0:0]
	c.mu.Unlock()
	c.Append(ClearedText, model.SenderAssistant)
}

// History returns at most n of the most recent non-error entries in wire
// form, oldest first.
func (c *Conversation) History(n int) []model.HistoryEntry {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n <= 0 {
		return nil
	}

	history := make([]model.HistoryEntry, 0, n)
	for i := len(c.entries) - 1; i >= 0 && len(history) < n; i-- {
		e := c.entries[i]
		if e.Sender == model.SenderError {
			continue
		}
		history = append(history, model.HistoryEntry{Text: e.Text, Sender: string(e.Sender)})
	}

	for i, j := 0, len(history)-1; i < j; i, j = i+1, j-1 {
		history[i], history[j] = history[j], history[i]
	}
	return history
}

func (c *Conversation) newEntry(text string, sender model.Sender) model.ConversationEntry {
	return model.ConversationEntry{
		ID:        uuid.NewString(),
		Text:      text,
		Sender:    sender,
		Timestamp: model.Timestamp(c.now()),
	}
}
