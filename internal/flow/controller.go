// Package flow drives the multi-step reply conversation: button press,
// identity choice, compose modal, and the final dispatch with its
// mark-as-read follow-up.
package flow

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Traumatized-ink/zoho-discord/internal/discord"
	"github.com/Traumatized-ink/zoho-discord/internal/store"
)

// ErrMappingNotFound means no correlation record exists for the email a
// reply targets. Always user-visible and terminal for that flow.
var ErrMappingNotFound = errors.New("no correlation record for message")

// MailProvider sends replies and updates read state at the mailbox.
type MailProvider interface {
	SendReply(ctx context.Context, messageID, fromAddress, toAddress, subject, content string) error
	MarkRead(ctx context.Context, messageID string) error
}

// Notifier updates previously posted chat messages.
type Notifier interface {
	EditMessage(ctx context.Context, channelID, messageID string, msg discord.Message) error
}

// CorrelationSource looks up the email context a chat message announced.
type CorrelationSource interface {
	CorrelationByMailMessage(ctx context.Context, mailMessageID string) (store.Correlation, error)
}

// IdentityResolver supplies the outbound identities and the smart default.
type IdentityResolver interface {
	List(ctx context.Context) ([]store.Identity, error)
	ResolveDefault(ctx context.Context, recipientHint string) (*store.Identity, error)
}

type Controller struct {
	mail         MailProvider
	notifier     Notifier
	correlations CorrelationSource
	directory    IdentityResolver
	channelID    string
	logger       *slog.Logger
}

func NewController(mail MailProvider, notifier Notifier, correlations CorrelationSource, directory IdentityResolver, channelID string, logger *slog.Logger) *Controller {
	return &Controller{
		mail:         mail,
		notifier:     notifier,
		correlations: correlations,
		directory:    directory,
		channelID:    channelID,
		logger:       logger,
	}
}

// HandleInteraction dispatches one inbound Discord interaction and returns
// the synchronous response. It never returns an error for user-level
// failures; those become ephemeral messages.
func (c *Controller) HandleInteraction(ctx context.Context, in discord.Interaction) (discord.InteractionResponse, error) {
	switch in.Type {
	case discord.InteractionPing:
		return discord.Pong(), nil
	case discord.InteractionComponent:
		return c.handleComponent(ctx, in)
	case discord.InteractionModalSubmit:
		return c.handleModalSubmit(ctx, in)
	default:
		return discord.InteractionResponse{}, fmt.Errorf("unsupported interaction type %d", in.Type)
	}
}

func (c *Controller) handleComponent(ctx context.Context, in discord.Interaction) (discord.InteractionResponse, error) {
	action, payload, err := splitCustomID(in.Data.CustomID)
	if err != nil {
		return discord.InteractionResponse{}, err
	}

	switch action {
	case actionRead:
		return c.handleMarkRead(ctx, payload), nil
	case actionReply:
		return c.handleReplyStart(ctx, payload), nil
	case actionQuick:
		return c.composeModal(payload), nil
	case actionPick:
		if len(in.Data.Values) == 0 {
			return discord.Ephemeral("No identity selected."), nil
		}
		return c.composeModal(in.Data.Values[0]), nil
	case actionDone:
		return discord.Ephemeral("This email has already been handled."), nil
	default:
		return discord.InteractionResponse{}, fmt.Errorf("unknown action %q", action)
	}
}

// handleMarkRead handles the standalone "Mark as Read" button. On success
// the notification itself is updated in place via an update-message
// response, labeled distinctly from the replied state.
func (c *Controller) handleMarkRead(ctx context.Context, mailMessageID string) discord.InteractionResponse {
	if err := c.mail.MarkRead(ctx, mailMessageID); err != nil {
		c.logger.Error("mark as read failed", "mail_message_id", mailMessageID, "error", err)
		return discord.Ephemeral(fmt.Sprintf("Failed to mark as read: %v", err))
	}
	return discord.InteractionResponse{
		Type: discord.ResponseUpdateMessage,
		Data: &discord.ResponseData{
			Components: terminalComponents("📖 Marked as read", discord.ButtonSecondary),
		},
	}
}

// handleReplyStart answers the Reply button with an ephemeral chooser: a
// quick-reply button using the smart default plus a select of all
// identities. The chosen identity travels onward inside session tokens.
func (c *Controller) handleReplyStart(ctx context.Context, mailMessageID string) discord.InteractionResponse {
	record, err := c.correlations.CorrelationByMailMessage(ctx, mailMessageID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.logger.Warn("reply without correlation", "mail_message_id", mailMessageID)
			return discord.Ephemeral("No mapping found for this email; it may predate the relay's records.")
		}
		c.logger.Error("correlation lookup failed", "mail_message_id", mailMessageID, "error", err)
		return discord.Ephemeral("Could not load the email's context. Try again later.")
	}

	identities, err := c.directory.List(ctx)
	if err != nil || len(identities) == 0 {
		c.logger.Error("no identities available", "error", err)
		return discord.Ephemeral("No sender identities available. Has the identity directory been refreshed?")
	}

	defaultIdentity, err := c.directory.ResolveDefault(ctx, record.SenderAddress)
	if err != nil {
		c.logger.Error("resolve default identity", "error", err)
	}

	var rows []discord.ActionRow
	if defaultIdentity != nil {
		token := encodeSession(Session{MailMessageID: mailMessageID, FromAddress: defaultIdentity.EmailAddress})
		rows = append(rows, discord.ActionRow{
			Type: discord.ComponentActionRow,
			Components: []discord.Component{{
				Type:     discord.ComponentButton,
				Style:    discord.ButtonPrimary,
				Label:    fmt.Sprintf("Quick reply as %s", defaultIdentity.EmailAddress),
				CustomID: customID(actionQuick, token),
			}},
		})
	}

	options := make([]discord.SelectOption, 0, len(identities))
	for _, identity := range identities {
		label := identity.EmailAddress
		if identity.IsPrimary {
			label += " (primary)"
		}
		options = append(options, discord.SelectOption{
			Label:       label,
			Value:       encodeSession(Session{MailMessageID: mailMessageID, FromAddress: identity.EmailAddress}),
			Description: identity.DisplayName,
		})
	}
	rows = append(rows, discord.ActionRow{
		Type: discord.ComponentActionRow,
		Components: []discord.Component{{
			Type:        discord.ComponentStringSelect,
			CustomID:    customID(actionPick, mailMessageID),
			Placeholder: "Send from...",
			Options:     options,
		}},
	})

	content := fmt.Sprintf("Replying to **%s** (%s)", record.SenderAddress, record.Subject)
	return discord.Ephemeral(content, rows...)
}

// composeModal opens the content-entry modal. The session token rides along
// in the modal's custom_id so the submit handler can recover it.
func (c *Controller) composeModal(token string) discord.InteractionResponse {
	if _, err := decodeSession(token); err != nil {
		return discord.Ephemeral("This reply session is no longer valid. Start again from the Reply button.")
	}
	return discord.InteractionResponse{
		Type: discord.ResponseModal,
		Data: &discord.ResponseData{
			CustomID: customID(actionCompose, token),
			Title:    "Reply to email",
			Components: []discord.ActionRow{{
				Type: discord.ComponentActionRow,
				Components: []discord.Component{{
					Type:        discord.ComponentTextInput,
					Style:       discord.TextInputParagraph,
					CustomID:    contentInputID,
					Label:       "Message",
					Placeholder: "Write your reply...",
					Required:    true,
				}},
			}},
		},
	}
}

// handleModalSubmit performs the actual dispatch: send the reply, then
// mark-as-read as an idempotent follow-up, then best-effort update of the
// original notification. Only the send itself can fail the flow.
func (c *Controller) handleModalSubmit(ctx context.Context, in discord.Interaction) (discord.InteractionResponse, error) {
	action, token, err := splitCustomID(in.Data.CustomID)
	if err != nil || action != actionCompose {
		return discord.InteractionResponse{}, fmt.Errorf("unexpected modal custom id %q", in.Data.CustomID)
	}
	session, err := decodeSession(token)
	if err != nil {
		return discord.Ephemeral("This reply session is no longer valid. Start again from the Reply button."), nil
	}

	content := strings.TrimSpace(in.Data.TextValue(contentInputID))
	if content == "" {
		return discord.Ephemeral("Reply content is empty; nothing was sent."), nil
	}

	record, err := c.correlations.CorrelationByMailMessage(ctx, session.MailMessageID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.logger.Warn("dispatch without correlation",
				"mail_message_id", session.MailMessageID, "error", ErrMappingNotFound)
			return discord.Ephemeral("No mapping found for this email; the reply was not sent."), nil
		}
		c.logger.Error("correlation lookup failed", "mail_message_id", session.MailMessageID, "error", err)
		return discord.Ephemeral("Could not load the email's context; the reply was not sent."), nil
	}

	subject := prefixReply(record.Subject)
	if err := c.mail.SendReply(ctx, session.MailMessageID, session.FromAddress, record.SenderAddress, subject, content); err != nil {
		c.logger.Error("send reply failed",
			"mail_message_id", session.MailMessageID,
			"from", session.FromAddress,
			"error", err)
		return discord.Ephemeral(fmt.Sprintf("Failed to send reply: %v", err)), nil
	}

	notice := fmt.Sprintf("✅ Reply sent from %s to %s.", session.FromAddress, record.SenderAddress)
	if err := c.mail.MarkRead(ctx, session.MailMessageID); err != nil {
		// The reply already succeeded; read-marking is best effort.
		c.logger.Error("mark as read after reply failed",
			"mail_message_id", session.MailMessageID, "error", err)
		notice += " (The email could not be marked as read.)"
	}

	c.finalizeNotification(ctx, record)

	return discord.Ephemeral(notice), nil
}

// finalizeNotification strips the action buttons off the original
// notification and labels it replied. Failures here are logged only: the
// reply itself already succeeded and must not be reported as failed.
func (c *Controller) finalizeNotification(ctx context.Context, record store.Correlation) {
	msg := discord.Message{Components: terminalComponents("✅ Replied", discord.ButtonSuccess)}
	if err := c.notifier.EditMessage(ctx, c.channelID, record.ChatMessageID, msg); err != nil {
		c.logger.Error("update notification after reply failed",
			"chat_message_id", record.ChatMessageID, "error", err)
	}
}

// prefixReply prepends "Re: " unless the subject already carries the exact
// prefix. Idempotent by construction.
func prefixReply(subject string) string {
	if strings.HasPrefix(subject, "Re: ") {
		return subject
	}
	return "Re: " + subject
}
