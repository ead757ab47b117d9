// Package delivery carries rendered one-time passcode messages to an
// identifier over an interchangeable set of channels (SMS providers, SMTP,
// or a log-only channel for development).
package delivery

import (
	"context"
	"log/slog"

	"github.com/scrapgain/otp-service/internal/pkg/mask"
	"github.com/scrapgain/otp-service/internal/pkg/validator"
)

// Channel is one concrete way of delivering a message to an identifier.
type Channel interface {
	// Name identifies the channel in logs and audit events.
	Name() string
	// IsAvailable reports whether the channel has everything it needs
	// (credentials, connections) to send.
	IsAvailable() bool
	// Send delivers the message to the destination.
	Send(ctx context.Context, destination, message string) error
}

// Dispatcher routes a message to the SMS or email channel based on the shape
// of the identifier, falling back to the log channel when the selected
// channel is not available.
type Dispatcher struct {
	sms      Channel
	email    Channel
	fallback Channel
}

func NewDispatcher(sms, email, fallback Channel) *Dispatcher {
	return &Dispatcher{sms: sms, email: email, fallback: fallback}
}

// Dispatch sends the message and returns the name of the channel used.
func (d *Dispatcher) Dispatch(ctx context.Context, identifier, message string) (string, error) {
	ch := d.sms
	if validator.IsEmailShaped(identifier) {
		ch = d.email
	}

	if ch == nil || !ch.IsAvailable() {
		name := "nil"
		if ch != nil {
			name = ch.Name()
		}
		slog.WarnContext(ctx, "delivery channel unavailable, using fallback",
			"channel", name, "identifier", mask.Identifier(identifier))
		ch = d.fallback
	}

	if err := ch.Send(ctx, identifier, message); err != nil {
		return ch.Name(), err
	}

	return ch.Name(), nil
}
