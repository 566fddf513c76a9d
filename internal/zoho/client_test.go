package zoho

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

type recordedRequest struct {
	method string
	path   string
	auth   string
	body   map[string]any
}

// newTestServer stands in for both the accounts token endpoint and the mail
// API. It hands out "token-1" for the refresh grant and records API calls.
func newTestServer(t *testing.T, apiStatus int) (*httptest.Server, *[]recordedRequest) {
	t.Helper()
	var calls []recordedRequest
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/v2/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.Form.Get("grant_type") == "refresh_token" && r.Form.Get("refresh_token") != "valid-refresh" {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "invalid_grant"})
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "token-1",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		call := recordedRequest{
			method: r.Method,
			path:   r.URL.Path,
			auth:   r.Header.Get("Authorization"),
		}
		if r.Body != nil {
			var body map[string]any
			_ = json.NewDecoder(r.Body).Decode(&body)
			call.body = body
		}
		calls = append(calls, call)
		w.WriteHeader(apiStatus)
		w.Write([]byte(`{"data":{"accountId":"acc1","accountDisplayName":"Acme","primaryEmailAddress":"support@x.com","emailAddress":[{"mailId":"support@x.com","isPrimary":true}],"sendMailDetails":[{"sendMailId":"sm-1","displayName":"Acme","fromAddress":"support@x.com"}]}}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &calls
}

func newTestClient(srv *httptest.Server, refreshToken string) *Client {
	tokens := newTokens("cid", "secret", refreshToken, "http://localhost/oauth/callback", oauth2.Endpoint{
		AuthURL:  srv.URL + "/oauth/v2/auth",
		TokenURL: srv.URL + "/oauth/v2/token",
	})
	return &Client{
		http:      &http.Client{Timeout: 5 * time.Second},
		tokens:    tokens,
		baseURL:   srv.URL + "/api",
		accountID: "acc1",
	}
}

func TestAccessTokenExchangesRefreshToken(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusOK)
	client := newTestClient(srv, "valid-refresh")

	token, err := client.tokens.AccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "token-1", token)
}

func TestAccessTokenInvalidRefreshToken(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusOK)
	client := newTestClient(srv, "revoked")

	_, err := client.tokens.AccessToken(context.Background())
	var authErr *AuthError
	assert.ErrorAs(t, err, &authErr)
}

func TestAccessTokenMissingRefreshToken(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusOK)
	client := newTestClient(srv, "")

	_, err := client.tokens.AccessToken(context.Background())
	var authErr *AuthError
	assert.ErrorAs(t, err, &authErr)
	assert.False(t, client.Configured())
}

func TestAccountParsesRecord(t *testing.T) {
	srv, calls := newTestServer(t, http.StatusOK)
	client := newTestClient(srv, "valid-refresh")

	account, err := client.Account(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "acc1", account.AccountID)
	assert.Equal(t, "support@x.com", account.PrimaryEmailAddress)
	require.Len(t, account.EmailAddresses, 1)
	assert.True(t, account.EmailAddresses[0].IsPrimary)
	require.Len(t, account.SendMailDetails, 1)
	assert.Equal(t, "sm-1", account.SendMailDetails[0].SendMailID)

	require.Len(t, *calls, 1)
	assert.Equal(t, "/api/accounts/acc1", (*calls)[0].path)
	assert.Equal(t, "Zoho-oauthtoken token-1", (*calls)[0].auth)
}

func TestSendReplyBody(t *testing.T) {
	srv, calls := newTestServer(t, http.StatusOK)
	client := newTestClient(srv, "valid-refresh")

	err := client.SendReply(context.Background(), "42", "support@x.com", "bob@x.com", "Re: Hi", "Thanks!")
	require.NoError(t, err)

	require.Len(t, *calls, 1)
	call := (*calls)[0]
	assert.Equal(t, http.MethodPost, call.method)
	assert.Equal(t, "/api/accounts/acc1/messages/42", call.path)
	assert.Equal(t, "reply", call.body["action"])
	assert.Equal(t, "support@x.com", call.body["fromAddress"])
	assert.Equal(t, "bob@x.com", call.body["toAddress"])
	assert.Equal(t, "Re: Hi", call.body["subject"])
	assert.Equal(t, "Thanks!", call.body["content"])
}

func TestSendReplyFailureIsDispatchError(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusBadGateway)
	client := newTestClient(srv, "valid-refresh")

	err := client.SendReply(context.Background(), "42", "support@x.com", "bob@x.com", "Re: Hi", "Thanks!")
	var dispatchErr *DispatchError
	require.ErrorAs(t, err, &dispatchErr)
	assert.Equal(t, "42", dispatchErr.MessageID)

	var apiErr *APIError
	assert.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
}

func TestSendReplyAuthFailurePassesThrough(t *testing.T) {
	srv, calls := newTestServer(t, http.StatusOK)
	client := newTestClient(srv, "revoked")

	err := client.SendReply(context.Background(), "42", "support@x.com", "bob@x.com", "Re: Hi", "Thanks!")
	var authErr *AuthError
	assert.ErrorAs(t, err, &authErr)
	assert.Empty(t, *calls)
}

func TestMarkReadBody(t *testing.T) {
	srv, calls := newTestServer(t, http.StatusOK)
	client := newTestClient(srv, "valid-refresh")

	require.NoError(t, client.MarkRead(context.Background(), "42"))

	require.Len(t, *calls, 1)
	call := (*calls)[0]
	assert.Equal(t, http.MethodPut, call.method)
	assert.Equal(t, "/api/accounts/acc1/updatemessage", call.path)
	assert.Equal(t, "markAsRead", call.body["mode"])
	assert.Equal(t, []any{"42"}, call.body["messageId"])
}
