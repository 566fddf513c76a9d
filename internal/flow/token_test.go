package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionRoundTrip(t *testing.T) {
	session := Session{MailMessageID: "1719220000042", FromAddress: "support@x.com"}
	token := encodeSession(session)

	decoded, err := decodeSession(token)
	require.NoError(t, err)
	assert.Equal(t, session, decoded)
}

func TestDecodeSessionRejectsGarbage(t *testing.T) {
	for _, token := range []string{"", "not base64 ???", "bm9zZXBhcmF0b3I", encodeSession(Session{FromAddress: "a@b"})} {
		_, err := decodeSession(token)
		assert.Error(t, err, token)
	}
}

func TestSessionTokenFitsCustomIDLimit(t *testing.T) {
	// Discord caps custom_id at 100 characters.
	session := Session{
		MailMessageID: "1719220000042123456",
		FromAddress:   "a-fairly-long-alias@subdomain.example-company.com",
	}
	id := customID(actionQuick, encodeSession(session))
	assert.LessOrEqual(t, len(id), 100)
}

func TestSplitCustomID(t *testing.T) {
	action, payload, err := splitCustomID("reply:42")
	require.NoError(t, err)
	assert.Equal(t, "reply", action)
	assert.Equal(t, "42", payload)

	_, _, err = splitCustomID("no-separator")
	assert.Error(t, err)
}

func TestPrefixReplyIdempotent(t *testing.T) {
	assert.Equal(t, "Re: hello", prefixReply("hello"))
	assert.Equal(t, "Re: hello", prefixReply("Re: hello"))
	// Prefix check is case-sensitive and exact.
	assert.Equal(t, "Re: RE: hello", prefixReply("RE: hello"))
	assert.Equal(t, "Re: Regarding dinner", prefixReply("Regarding dinner"))
}

func TestNotificationComponents(t *testing.T) {
	rows := NotificationComponents("42")
	require.Len(t, rows, 1)
	require.Len(t, rows[0].Components, 2)
	assert.Equal(t, "reply:42", rows[0].Components[0].CustomID)
	assert.Equal(t, "read:42", rows[0].Components[1].CustomID)
}
