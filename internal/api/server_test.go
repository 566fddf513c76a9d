package api

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Traumatized-ink/zoho-discord/internal/config"
	"github.com/Traumatized-ink/zoho-discord/internal/directory"
	"github.com/Traumatized-ink/zoho-discord/internal/discord"
	"github.com/Traumatized-ink/zoho-discord/internal/format"
	"github.com/Traumatized-ink/zoho-discord/internal/store"
	"github.com/Traumatized-ink/zoho-discord/internal/zoho"
)

type stubRelay struct {
	err    error
	inputs []format.Inbound
}

func (s *stubRelay) Handle(_ context.Context, in format.Inbound) error {
	if s.err != nil {
		return s.err
	}
	s.inputs = append(s.inputs, in)
	return nil
}

type stubFlow struct {
	response discord.InteractionResponse
	received []discord.Interaction
}

func (s *stubFlow) HandleInteraction(_ context.Context, in discord.Interaction) (discord.InteractionResponse, error) {
	s.received = append(s.received, in)
	return s.response, nil
}

type stubAccountSource struct {
	account zoho.Account
	err     error
}

func (s *stubAccountSource) Account(context.Context) (zoho.Account, error) {
	return s.account, s.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type serverFixture struct {
	server *Server
	relay  *stubRelay
	flow   *stubFlow
	store  *store.Store
	key    ed25519.PrivateKey
}

func newFixture(t *testing.T) *serverFixture {
	t.Helper()
	st, err := store.Open("")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	public, private, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	relay := &stubRelay{}
	flow := &stubFlow{response: discord.Pong()}
	dir := directory.New(&stubAccountSource{account: zoho.Account{
		AccountDisplayName: "Acme",
		EmailAddresses: []zoho.AccountAddress{
			{MailID: "support@x.com", IsPrimary: true},
		},
	}}, st)
	tokens := zoho.NewTokens("cid", "secret", "refresh", "http://localhost:3000/oauth/callback")

	server := NewServer(config.Load(), relay, flow, dir, st, tokens, public, testLogger())
	return &serverFixture{server: server, relay: relay, flow: flow, store: st, key: private}
}

func TestHealth(t *testing.T) {
	fx := newFixture(t)
	rec := httptest.NewRecorder()
	fx.server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"OK"}`, rec.Body.String())
}

func TestWebhookRelaysPayload(t *testing.T) {
	fx := newFixture(t)
	body := `{"sender":"Bob","fromAddress":"bob@x.com","subject":"Hi","summary":"hello","messageId":42}`

	rec := httptest.NewRecorder()
	fx.server.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhook/zoho", strings.NewReader(body)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())
	require.Len(t, fx.relay.inputs, 1)
	assert.Equal(t, "bob@x.com", fx.relay.inputs[0].FromAddress)
	assert.Equal(t, format.MessageID("42"), fx.relay.inputs[0].MessageID)
}

func TestWebhookRelayFailureIs500(t *testing.T) {
	fx := newFixture(t)
	fx.relay.err = errors.New("discord unreachable")

	rec := httptest.NewRecorder()
	fx.server.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhook/zoho",
		strings.NewReader(`{"messageId":"42"}`)))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "error")
}

func TestWebhookRejectsInvalidJSON(t *testing.T) {
	fx := newFixture(t)
	rec := httptest.NewRecorder()
	fx.server.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhook/zoho", strings.NewReader("{nope")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhookRejectsGet(t *testing.T) {
	fx := newFixture(t)
	rec := httptest.NewRecorder()
	fx.server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/webhook/zoho", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func signedInteractionRequest(t *testing.T, key ed25519.PrivateKey, body string) *http.Request {
	t.Helper()
	timestamp := "1724900000"
	signature := ed25519.Sign(key, append([]byte(timestamp), []byte(body)...))
	req := httptest.NewRequest(http.MethodPost, "/interactions", strings.NewReader(body))
	req.Header.Set("X-Signature-Ed25519", hex.EncodeToString(signature))
	req.Header.Set("X-Signature-Timestamp", timestamp)
	return req
}

func TestInteractionsVerifiedAndDispatched(t *testing.T) {
	fx := newFixture(t)
	rec := httptest.NewRecorder()
	fx.server.ServeHTTP(rec, signedInteractionRequest(t, fx.key, `{"type":1}`))

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp discord.InteractionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, discord.ResponsePong, resp.Type)
	require.Len(t, fx.flow.received, 1)
}

func TestInteractionsRejectsBadSignature(t *testing.T) {
	fx := newFixture(t)
	req := httptest.NewRequest(http.MethodPost, "/interactions", strings.NewReader(`{"type":1}`))
	req.Header.Set("X-Signature-Ed25519", strings.Repeat("00", 64))
	req.Header.Set("X-Signature-Timestamp", "1724900000")

	rec := httptest.NewRecorder()
	fx.server.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, fx.flow.received)
}

func TestIdentitiesListAndRefresh(t *testing.T) {
	fx := newFixture(t)

	rec := httptest.NewRecorder()
	fx.server.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/identities/refresh", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"count":1}`, rec.Body.String())

	rec = httptest.NewRecorder()
	fx.server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/identities", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		Identities []struct {
			EmailAddress string `json:"emailAddress"`
			IsPrimary    bool   `json:"isPrimary"`
		} `json:"identities"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Len(t, payload.Identities, 1)
	assert.Equal(t, "support@x.com", payload.Identities[0].EmailAddress)
	assert.True(t, payload.Identities[0].IsPrimary)
}

func TestCorrelationsListing(t *testing.T) {
	fx := newFixture(t)
	now := time.Now().UTC().Truncate(time.Second)
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, fx.store.RecordCorrelation(context.Background(), store.Correlation{
			ChatMessageID: "chat-" + id,
			MailMessageID: "mail-" + id,
			SenderAddress: "bob@x.com",
			Subject:       "Hi",
			CreatedAt:     now,
		}))
	}

	rec := httptest.NewRecorder()
	fx.server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/correlations?page=1&limit=2", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		Correlations []struct {
			ChatMessageID string `json:"chatMessageId"`
		} `json:"correlations"`
		Total   int  `json:"total"`
		HasMore bool `json:"hasMore"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, 3, payload.Total)
	assert.Len(t, payload.Correlations, 2)
	assert.True(t, payload.HasMore)
}

func TestOAuthStartRendersAuthLink(t *testing.T) {
	fx := newFixture(t)
	rec := httptest.NewRecorder()
	fx.server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/oauth/start", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "accounts.zoho.com/oauth/v2/auth")
	assert.Contains(t, rec.Body.String(), "client_id=cid")
}

func TestOAuthCallbackWithoutCode(t *testing.T) {
	fx := newFixture(t)
	rec := httptest.NewRecorder()
	fx.server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/oauth/callback", nil))

	assert.Contains(t, rec.Body.String(), "No authorization code")
}
