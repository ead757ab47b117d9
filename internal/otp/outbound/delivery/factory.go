package delivery

import (
	"log/slog"
	"strings"

	"github.com/samber/lo"
)

// SelectSMSChannel picks the SMS channel named by configuration out of the
// candidates. An unknown or unavailable choice falls back to the log
// channel so a misconfigured provider never breaks issuance.
func SelectSMSChannel(provider string, candidates ...Channel) Channel {
	name := strings.ToLower(strings.TrimSpace(provider))

	ch, found := lo.Find(candidates, func(c Channel) bool {
		return c.Name() == name
	})
	if !found {
		if name != "" && name != "log" {
			slog.Warn("unknown sms provider, using log channel", "provider", provider)
		}
		return NewLog()
	}

	if !ch.IsAvailable() {
		slog.Warn("sms provider not configured, using log channel", "provider", ch.Name())
		return NewLog()
	}

	slog.Info("sms provider selected", "provider", ch.Name())

	return ch
}
