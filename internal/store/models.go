package store

import "time"

// Correlation links a posted Discord message to the Zoho message it
// announces. Records are insert-only and retained for audit.
type Correlation struct {
	ID            int64     `db:"id"`
	ChatMessageID string    `db:"chat_message_id"`
	MailMessageID string    `db:"mail_message_id"`
	MailboxID     string    `db:"mailbox_id"`
	SenderAddress string    `db:"sender_address"`
	Subject       string    `db:"subject"`
	CreatedAt     time.Time `db:"created_at"`
}

// Identity is an address the mailbox owner may send as. The set is a
// snapshot of the provider's account listing, replaced wholesale on refresh.
type Identity struct {
	EmailAddress string    `db:"email_address"`
	DisplayName  string    `db:"display_name"`
	IsPrimary    bool      `db:"is_primary"`
	IsAlias      bool      `db:"is_alias"`
	SendToken    string    `db:"send_token"`
	LastUpdated  time.Time `db:"last_updated"`
}
