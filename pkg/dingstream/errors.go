package dingstream

import (
	"errors"
	"fmt"
)

// ErrNotConnected is returned by send operations invoked before the websocket
// session exists.
var ErrNotConnected = errors.New("stream not connected")

// AuthError reports a failed access-token fetch: a transport failure, a
// non-2xx status, or a non-zero errcode in the token response body.
type AuthError struct {
	Status  int    // HTTP status, 0 if the request never completed
	ErrCode int    // vendor errcode from the response body, 0 if unavailable
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	if e.ErrCode != 0 {
		return fmt.Sprintf("get token: %s (errcode=%d)", e.Message, e.ErrCode)
	}
	if e.Status != 0 {
		return fmt.Sprintf("get token: %s (status=%d)", e.Message, e.Status)
	}
	return fmt.Sprintf("get token: %s", e.Message)
}

func (e *AuthError) Unwrap() error { return e.Err }

// NegotiationError reports a failed endpoint exchange with the gateway.
type NegotiationError struct {
	Status  int
	Message string
	Err     error
}

func (e *NegotiationError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("get endpoint: %s (status=%d)", e.Message, e.Status)
	}
	return fmt.Sprintf("get endpoint: %s", e.Message)
}

func (e *NegotiationError) Unwrap() error { return e.Err }

// TransportError reports a websocket handshake that did not complete.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("open stream: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
