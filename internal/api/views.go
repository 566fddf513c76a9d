package api

import (
	"time"

	"github.com/Traumatized-ink/zoho-discord/internal/store"
)

type identityView struct {
	EmailAddress string `json:"emailAddress"`
	DisplayName  string `json:"displayName"`
	IsPrimary    bool   `json:"isPrimary"`
	IsAlias      bool   `json:"isAlias"`
	LastUpdated  string `json:"lastUpdated"`
}

func toIdentityViews(identities []store.Identity) []identityView {
	views := make([]identityView, 0, len(identities))
	for _, identity := range identities {
		views = append(views, identityView{
			EmailAddress: identity.EmailAddress,
			DisplayName:  identity.DisplayName,
			IsPrimary:    identity.IsPrimary,
			IsAlias:      identity.IsAlias,
			LastUpdated:  identity.LastUpdated.UTC().Format(time.RFC3339),
		})
	}
	return views
}

type correlationView struct {
	ChatMessageID string `json:"chatMessageId"`
	MailMessageID string `json:"mailMessageId"`
	MailboxID     string `json:"mailboxId"`
	SenderAddress string `json:"senderAddress"`
	Subject       string `json:"subject"`
	CreatedAt     string `json:"createdAt"`
}

func toCorrelationViews(records []store.Correlation) []correlationView {
	views := make([]correlationView, 0, len(records))
	for _, record := range records {
		views = append(views, correlationView{
			ChatMessageID: record.ChatMessageID,
			MailMessageID: record.MailMessageID,
			MailboxID:     record.MailboxID,
			SenderAddress: record.SenderAddress,
			Subject:       record.Subject,
			CreatedAt:     record.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return views
}
