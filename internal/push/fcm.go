package push

import (
	"context"
	"fmt"
	"log/slog"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// Android notification channel the mobile app registers for collar alerts.
const androidChannelID = "smartcollar_channel"

// FCMSender sends push notifications via Firebase Cloud Messaging.
type FCMSender struct {
	client *messaging.Client
	logger *slog.Logger
}

// NewFCMSender creates an FCM sender from a service account credentials
// file. Returns (nil, nil) if credentialsFile is empty: push delivery
// disabled, caller should fall back to a LogSender.
func NewFCMSender(ctx context.Context, credentialsFile string, logger *slog.Logger) (*FCMSender, error) {
	if credentialsFile == "" {
		return nil, nil
	}

	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("init messaging client: %w", err)
	}

	return &FCMSender{client: client, logger: logger}, nil
}

// Send delivers a high-priority notification to a single device token with
// the default sound on the collar alert channel.
func (s *FCMSender) Send(ctx context.Context, token, title, body string, data map[string]string) error {
	msg := &messaging.MulticastMessage{
		Tokens: []string{token},
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				ChannelID: androidChannelID,
				Sound:     "default",
			},
		},
		Data: data,
	}

	resp, err := s.client.SendEachForMulticast(ctx, msg)
	if err != nil {
		return fmt.Errorf("fcm send: %w", err)
	}

	s.logger.Info("push notification sent",
		"success", resp.SuccessCount, "failure", resp.FailureCount)
	if resp.FailureCount > 0 && resp.SuccessCount == 0 {
		return fmt.Errorf("fcm send: all %d deliveries failed", resp.FailureCount)
	}
	return nil
}
