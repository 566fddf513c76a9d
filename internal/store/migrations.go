package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations. Migrations are
// additive only: the identity table arrived after correlations and older
// databases upgrade in place without touching existing correlation rows.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS correlations (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	chat_message_id TEXT NOT NULL UNIQUE,
	mail_message_id TEXT NOT NULL,
	mailbox_id      TEXT NOT NULL DEFAULT '',
	sender_address  TEXT NOT NULL DEFAULT '',
	subject         TEXT NOT NULL DEFAULT '',
	created_at      DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_correlations_mail_message
	ON correlations(mail_message_id);
CREATE INDEX IF NOT EXISTS idx_correlations_created
	ON correlations(created_at);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE TABLE IF NOT EXISTS identities (
	email_address TEXT PRIMARY KEY,
	display_name  TEXT NOT NULL DEFAULT '',
	is_primary    INTEGER NOT NULL DEFAULT 0,
	is_alias      INTEGER NOT NULL DEFAULT 0,
	send_token    TEXT NOT NULL DEFAULT '',
	last_updated  DATETIME NOT NULL
);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}
