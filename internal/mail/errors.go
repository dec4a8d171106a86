package mail

import (
	"errors"
	"fmt"
)

// AuthError indicates the server rejected the configured credentials.
type AuthError struct {
	Server string
	Err    error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed for %s: %v", e.Server, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// IsAuthError reports whether err is an authentication failure.
func IsAuthError(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

// TransportError indicates the connection could not be established or
// died mid-operation. Timeouts are transport errors.
type TransportError struct {
	Server string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("connection to %s failed: %v", e.Server, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsTransportError reports whether err is a connection-level failure.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// FetchError indicates an IMAP command failed after a healthy login.
type FetchError struct {
	Op  string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("imap %s failed: %v", e.Op, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// SendError indicates the SMTP server refused an outgoing message.
type SendError struct {
	Server string
	Err    error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("send via %s failed: %v", e.Server, e.Err)
}

func (e *SendError) Unwrap() error { return e.Err }

// IsSendError reports whether err came from the submission path.
func IsSendError(err error) bool {
	var se *SendError
	return errors.As(err, &se)
}
