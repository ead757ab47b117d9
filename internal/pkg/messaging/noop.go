package messaging

import (
	"context"
	"log/slog"
)

// Noop is a Messaging implementation that drops every message.
//
// It is intended for local development and tests where no broker is running.
type Noop struct{}

// NewNoop returns a Messaging implementation that discards publishes and
// never delivers messages to consumers.
func NewNoop() *Noop {
	return &Noop{}
}

// Publish logs and discards the message.
func (n *Noop) Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error) {
	slog.DebugContext(ctx, "messaging: noop publish", "destination", destination, "size", len(msg.Body))

	return PublishResult{Topic: destination}, nil
}

// Consume blocks until the context is canceled without delivering any message.
func (n *Noop) Consume(ctx context.Context, source string, handler Handler, opts ...ConsumeOption) error {
	<-ctx.Done()

	return ctx.Err()
}

// Close implements io.Closer.
func (n *Noop) Close() error {
	return nil
}
