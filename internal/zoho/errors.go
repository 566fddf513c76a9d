package zoho

import (
	"errors"
	"fmt"
)

var errNoRefreshToken = errors.New("no refresh token configured")

// AuthError indicates the refresh-token exchange failed: the stored refresh
// credential is invalid or the token endpoint was unreachable.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("zoho auth: %v", e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// DispatchError indicates an outbound send to the mail provider failed.
type DispatchError struct {
	MessageID string
	Err       error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("zoho send reply for message %s: %v", e.MessageID, e.Err)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}

// APIError carries a non-2xx response from the Zoho Mail API.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("zoho api: status %d: %s", e.Status, e.Body)
}
