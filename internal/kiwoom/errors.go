package kiwoom

import "fmt"

// TokenError indicates the authentication endpoint answered with an unexpected
// shape (no token field). This is a configuration/protocol mismatch and is
// never retried.
type TokenError struct {
	Body string
}

func (e *TokenError) Error() string {
	return fmt.Sprintf("token missing in response: %s", e.Body)
}

// HTTPStatusError is a non-429 error status from the transport. It aborts the
// request immediately without consuming the retry budget.
type HTTPStatusError struct {
	APIID      string
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d", e.APIID, e.StatusCode)
}

// APIError is an application-level failure reported inside a transport-successful
// response via a non-zero return_code.
type APIError struct {
	Code int
	Msg  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Code, e.Msg)
}
