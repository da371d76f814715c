// Package fcm adapts Firebase Cloud Messaging to the push transport used by
// the reminder dispatcher.
package fcm

import (
	"context"
	"fmt"
	"log/slog"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"github.com/daybookhq/daybook-api/internal/notify"
)

// Sender delivers push notifications through Firebase Cloud Messaging.
type Sender struct {
	client *messaging.Client
	logger *slog.Logger
}

// Ensure Sender implements the dispatcher's transport interface.
var _ notify.PushSender = (*Sender)(nil)

// NewSender initializes the Firebase app from the given service account
// credentials file and returns a messaging-backed sender.
func NewSender(ctx context.Context, credentialsFile string, log *slog.Logger) (*Sender, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("initialize firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("initialize messaging client: %w", err)
	}

	return &Sender{
		client: client,
		logger: log.With(slog.String("component", "fcm")),
	}, nil
}

// Send delivers a single notification to the given device token.
func (s *Sender) Send(ctx context.Context, token, title, body string) error {
	message := &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
	}

	id, err := s.client.Send(ctx, message)
	if err != nil {
		return fmt.Errorf("send push notification: %w", err)
	}

	s.logger.Debug("push notification delivered",
		slog.String("message_id", id))
	return nil
}

// NopSender is the transport used when push is not configured. Every send
// succeeds without delivering anything, which keeps the dispatcher's flag
// writes flowing in development environments.
type NopSender struct{}

var _ notify.PushSender = NopSender{}

// Send discards the notification.
func (NopSender) Send(_ context.Context, _, _, _ string) error { return nil }
