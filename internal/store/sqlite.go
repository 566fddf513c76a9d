package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Store persists correlation records and the from-identity snapshot in a
// local SQLite database.
type Store struct {
	db *sqlx.DB
}

// Open opens (or creates) the database at path, enables WAL mode, and runs
// any pending schema migrations. An empty path opens an in-memory database.
func Open(path string) (*Store, error) {
	trimmed := strings.TrimSpace(path)
	inMemory := false
	if trimmed == "" || trimmed == ":memory:" || strings.Contains(trimmed, "mode=memory") {
		trimmed = ":memory:"
		inMemory = true
	}

	db, err := sqlx.Open("sqlite", trimmed)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if !inMemory {
		if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL: %w", err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'")
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}
	if tableCount > 0 {
		if err := s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version"); err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}
	return nil
}

// RecordCorrelation inserts a single correlation record. Records are created
// exactly once per posted notification and never mutated afterwards.
func (s *Store) RecordCorrelation(ctx context.Context, c Correlation) error {
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO correlations
			(chat_message_id, mail_message_id, mailbox_id, sender_address, subject, created_at)
		VALUES
			(:chat_message_id, :mail_message_id, :mailbox_id, :sender_address, :subject, :created_at)`,
		c)
	if err != nil {
		return fmt.Errorf("insert correlation: %w", err)
	}
	return nil
}

// CorrelationByMailMessage returns the most recent correlation record for a
// mail message id. Returns sql.ErrNoRows (wrapped) when no record exists.
func (s *Store) CorrelationByMailMessage(ctx context.Context, mailMessageID string) (Correlation, error) {
	var c Correlation
	err := s.db.GetContext(ctx, &c, `
		SELECT id, chat_message_id, mail_message_id, mailbox_id, sender_address, subject, created_at
		FROM correlations
		WHERE mail_message_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT 1`, mailMessageID)
	if err != nil {
		return Correlation{}, fmt.Errorf("lookup correlation %s: %w", mailMessageID, err)
	}
	return c, nil
}

// ListCorrelations returns a page of correlation records, newest first, and
// the total record count.
func (s *Store) ListCorrelations(ctx context.Context, offset, limit int) ([]Correlation, int, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	var total int
	if err := s.db.GetContext(ctx, &total, "SELECT COUNT(1) FROM correlations"); err != nil {
		return nil, 0, fmt.Errorf("count correlations: %w", err)
	}

	records := []Correlation{}
	err := s.db.SelectContext(ctx, &records, `
		SELECT id, chat_message_id, mail_message_id, mailbox_id, sender_address, subject, created_at
		FROM correlations
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list correlations: %w", err)
	}
	return records, total, nil
}

// ReplaceIdentities swaps the entire identity set for the given snapshot.
// Delete and insert run in one transaction so concurrent readers observe
// either the old set or the new set, never a partial one.
func (s *Store) ReplaceIdentities(ctx context.Context, identities []Identity) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin identity replace: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM identities"); err != nil {
		return fmt.Errorf("clear identities: %w", err)
	}
	for _, identity := range identities {
		_, err := tx.NamedExecContext(ctx, `
			INSERT INTO identities
				(email_address, display_name, is_primary, is_alias, send_token, last_updated)
			VALUES
				(:email_address, :display_name, :is_primary, :is_alias, :send_token, :last_updated)`,
			identity)
		if err != nil {
			return fmt.Errorf("insert identity %s: %w", identity.EmailAddress, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit identity replace: %w", err)
	}
	return nil
}

// ListIdentities returns the identity snapshot sorted primary-first, then by
// address ascending.
func (s *Store) ListIdentities(ctx context.Context) ([]Identity, error) {
	identities := []Identity{}
	err := s.db.SelectContext(ctx, &identities, `
		SELECT email_address, display_name, is_primary, is_alias, send_token, last_updated
		FROM identities
		ORDER BY is_primary DESC, email_address ASC`)
	if err != nil {
		return nil, fmt.Errorf("list identities: %w", err)
	}
	return identities, nil
}
