// Package events publishes a feed of gateway activity.
package events

import (
	"context"

	"github.com/capitalize-ai/multimodal-gateway/internal/model"
)

// Publisher emits gateway events. Implementations must not block requests
// for long; failures are reported but never change a response.
type Publisher interface {
	Publish(ctx context.Context, event *model.GatewayEvent) error
	Close()
}

// NopPublisher drops every event.
type NopPublisher struct{}

// Publish implements Publisher.
func (NopPublisher) Publish(context.Context, *model.GatewayEvent) error { return nil }

// Close implements Publisher.
func (NopPublisher) Close() {}
