// Package directory maintains the set of valid outbound "from" identities,
// refreshed from the mailbox provider and persisted locally.
package directory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Traumatized-ink/zoho-discord/internal/store"
	"github.com/Traumatized-ink/zoho-discord/internal/zoho"
)

// RefreshError wraps any failure refreshing the identity snapshot. The
// scheduler logs and swallows it; the last-known-good snapshot stays in
// place.
type RefreshError struct {
	Err error
}

func (e *RefreshError) Error() string {
	return fmt.Sprintf("identity refresh: %v", e.Err)
}

func (e *RefreshError) Unwrap() error {
	return e.Err
}

// AccountSource provides the mailbox account record.
type AccountSource interface {
	Account(ctx context.Context) (zoho.Account, error)
}

// IdentityStore persists the identity snapshot.
type IdentityStore interface {
	ReplaceIdentities(ctx context.Context, identities []store.Identity) error
	ListIdentities(ctx context.Context) ([]store.Identity, error)
}

type Directory struct {
	source AccountSource
	store  IdentityStore
}

func New(source AccountSource, identityStore IdentityStore) *Directory {
	return &Directory{source: source, store: identityStore}
}

// Refresh fetches the account record and atomically replaces the local
// identity set with the provider's current listing. Returns the number of
// identities stored.
func (d *Directory) Refresh(ctx context.Context) (int, error) {
	account, err := d.source.Account(ctx)
	if err != nil {
		return 0, &RefreshError{Err: err}
	}

	identities := identitiesFromAccount(account, time.Now().UTC())
	if err := d.store.ReplaceIdentities(ctx, identities); err != nil {
		return 0, &RefreshError{Err: err}
	}
	return len(identities), nil
}

// List returns the identity snapshot, primary-first then address ascending.
func (d *Directory) List(ctx context.Context) ([]store.Identity, error) {
	return d.store.ListIdentities(ctx)
}

// ResolveDefault picks the best "from" identity for replying to the given
// recipient address. Three tiers, never a hard failure: first identity whose
// address contains the recipient's domain, else the primary identity, else
// the first in sort order. Returns nil on an empty directory.
func (d *Directory) ResolveDefault(ctx context.Context, recipientHint string) (*store.Identity, error) {
	identities, err := d.store.ListIdentities(ctx)
	if err != nil {
		return nil, err
	}
	if len(identities) == 0 {
		return nil, nil
	}

	if domain := domainOf(recipientHint); domain != "" {
		for i := range identities {
			if strings.Contains(identities[i].EmailAddress, domain) {
				return &identities[i], nil
			}
		}
	}
	for i := range identities {
		if identities[i].IsPrimary {
			return &identities[i], nil
		}
	}
	return &identities[0], nil
}

func domainOf(address string) string {
	at := strings.LastIndex(address, "@")
	if at < 0 || at+1 >= len(address) {
		return ""
	}
	return address[at+1:]
}

func identitiesFromAccount(account zoho.Account, now time.Time) []store.Identity {
	sendTokens := make(map[string]string, len(account.SendMailDetails))
	displayNames := make(map[string]string, len(account.SendMailDetails))
	for _, detail := range account.SendMailDetails {
		sendTokens[detail.FromAddress] = detail.SendMailID
		displayNames[detail.FromAddress] = detail.DisplayName
	}

	identities := make([]store.Identity, 0, len(account.EmailAddresses))
	seen := make(map[string]struct{}, len(account.EmailAddresses))
	for _, address := range account.EmailAddresses {
		if address.MailID == "" {
			continue
		}
		if _, ok := seen[address.MailID]; ok {
			continue
		}
		seen[address.MailID] = struct{}{}

		displayName := displayNames[address.MailID]
		if displayName == "" {
			displayName = account.AccountDisplayName
		}
		identities = append(identities, store.Identity{
			EmailAddress: address.MailID,
			DisplayName:  displayName,
			IsPrimary:    address.IsPrimary,
			IsAlias:      address.IsAlias,
			SendToken:    sendTokens[address.MailID],
			LastUpdated:  now,
		})
	}
	return identities
}
