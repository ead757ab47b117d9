package delivery

import (
	"context"
	"log/slog"

	"github.com/scrapgain/otp-service/internal/pkg/mask"
)

// Log is the always-available channel used when no real provider is
// configured. It logs the masked destination and the message size, never the
// message body, which contains the plaintext passcode.
type Log struct{}

func NewLog() *Log {
	return &Log{}
}

func (Log) Name() string {
	return "log"
}

func (Log) IsAvailable() bool {
	return true
}

func (Log) Send(ctx context.Context, destination, message string) error {
	slog.InfoContext(ctx, "otp message dispatched to log channel",
		"destination", mask.Identifier(destination), "size", len(message))

	return nil
}
