// Package push abstracts the mobile push-delivery channel. The production
// implementation is Firebase Cloud Messaging; when no credentials are
// configured, a logging sender stands in so the rest of the pipeline
// behaves identically.
package push

import (
	"context"
	"log/slog"
)

// Sender delivers one push message to one device token. Implementations
// report delivery errors to the caller; the caller decides whether they
// are fatal (the dispatcher logs and moves on).
type Sender interface {
	Send(ctx context.Context, token, title, body string, data map[string]string) error
}

// LogSender logs sends instead of delivering them. Used when FCM is not
// configured and in tests.
type LogSender struct {
	Logger *slog.Logger
}

func (s *LogSender) Send(ctx context.Context, token, title, body string, data map[string]string) error {
	s.Logger.Info("push send (delivery disabled)",
		"title", title, "body", body, "data", data)
	return nil
}
