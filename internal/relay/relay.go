// Package relay carries an inbound email notification to Discord and records
// the correlation that later reply actions depend on.
package relay

import (
	"context"
	"log/slog"
	"time"

	"github.com/Traumatized-ink/zoho-discord/internal/discord"
	"github.com/Traumatized-ink/zoho-discord/internal/flow"
	"github.com/Traumatized-ink/zoho-discord/internal/format"
	"github.com/Traumatized-ink/zoho-discord/internal/store"
)

// Poster posts notifications to the chat platform.
type Poster interface {
	HasBot() bool
	CreateMessage(ctx context.Context, channelID string, msg discord.Message) (string, error)
	ExecuteWebhook(ctx context.Context, content string) error
}

// Recorder persists correlation records.
type Recorder interface {
	RecordCorrelation(ctx context.Context, c store.Correlation) error
}

type Relay struct {
	poster    Poster
	recorder  Recorder
	channelID string
	mailboxID string
	logger    *slog.Logger
}

func New(poster Poster, recorder Recorder, channelID, mailboxID string, logger *slog.Logger) *Relay {
	return &Relay{
		poster:    poster,
		recorder:  recorder,
		channelID: channelID,
		mailboxID: mailboxID,
		logger:    logger,
	}
}

// Handle formats the inbound payload, posts the notification, and records
// the chat-to-mail correlation. A posting failure is returned (the upstream
// webhook caller answers 500 and may retry); a correlation-store failure is
// logged only, since a missing record degrades replies for that one email
// but must not block the notification.
func (r *Relay) Handle(ctx context.Context, in format.Inbound) error {
	notification := format.Format(in)
	content := notification.Content()

	if !r.poster.HasBot() {
		// Webhook-only mode: the platform returns no message id, so no
		// affordances and no correlation are possible.
		return r.poster.ExecuteWebhook(ctx, content)
	}

	msg := discord.Message{
		Content:    content,
		Components: flow.NotificationComponents(string(in.MessageID)),
	}
	chatMessageID, err := r.poster.CreateMessage(ctx, r.channelID, msg)
	if err != nil {
		return err
	}

	record := store.Correlation{
		ChatMessageID: chatMessageID,
		MailMessageID: string(in.MessageID),
		MailboxID:     r.mailboxID,
		SenderAddress: in.FromAddress,
		Subject:       in.Subject,
		CreatedAt:     time.Now().UTC(),
	}
	if err := r.recorder.RecordCorrelation(ctx, record); err != nil {
		r.logger.Error("record correlation",
			"chat_message_id", chatMessageID,
			"mail_message_id", record.MailMessageID,
			"error", err)
	}
	return nil
}
