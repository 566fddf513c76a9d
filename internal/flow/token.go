package flow

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/Traumatized-ink/zoho-discord/internal/discord"
)

// Interaction custom_id actions. The reply flow keeps no server-side
// session: everything a later step needs travels inside the custom_id of
// the component that triggers it.
const (
	actionRead    = "read"
	actionReply   = "reply"
	actionQuick   = "quick"
	actionPick    = "pick"
	actionCompose = "compose"
	actionDone    = "done"

	contentInputID = "reply_content"
)

// Session is the ephemeral reply state carried between interaction steps.
// It lives only inside interaction tokens; a process restart mid-flow loses
// it and the user restarts from the Reply button.
type Session struct {
	MailMessageID string
	FromAddress   string
}

func encodeSession(s Session) string {
	payload := s.MailMessageID + "|" + s.FromAddress
	return base64.RawURLEncoding.EncodeToString([]byte(payload))
}

func decodeSession(token string) (Session, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return Session{}, errors.New("invalid session token")
	}
	parts := strings.Split(string(raw), "|")
	if len(parts) != 2 || parts[0] == "" {
		return Session{}, errors.New("invalid session token")
	}
	return Session{MailMessageID: parts[0], FromAddress: parts[1]}, nil
}

func customID(action, payload string) string {
	return action + ":" + payload
}

func splitCustomID(id string) (action, payload string, err error) {
	action, payload, ok := strings.Cut(id, ":")
	if !ok || action == "" {
		return "", "", fmt.Errorf("malformed custom id %q", id)
	}
	return action, payload, nil
}

// NotificationComponents builds the initial action affordances attached to a
// posted email notification.
func NotificationComponents(mailMessageID string) []discord.ActionRow {
	return []discord.ActionRow{{
		Type: discord.ComponentActionRow,
		Components: []discord.Component{
			{
				Type:     discord.ComponentButton,
				Style:    discord.ButtonPrimary,
				Label:    "Reply",
				CustomID: customID(actionReply, mailMessageID),
			},
			{
				Type:     discord.ComponentButton,
				Style:    discord.ButtonSecondary,
				Label:    "Mark as Read",
				CustomID: customID(actionRead, mailMessageID),
			},
		},
	}}
}

// terminalComponents replaces the action buttons with a single disabled
// button labeling the handled state, preserving the message content.
func terminalComponents(label string, style int) []discord.ActionRow {
	return []discord.ActionRow{{
		Type: discord.ComponentActionRow,
		Components: []discord.Component{{
			Type:     discord.ComponentButton,
			Style:    style,
			Label:    label,
			CustomID: customID(actionDone, "handled"),
			Disabled: true,
		}},
	}}
}
