package leagueapi

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthentication is returned when the token step fails for any reason
	ErrAuthentication = errors.New("authentication failed")

	// ErrDataFetch is returned when the fixtures step fails after a token was obtained
	ErrDataFetch = errors.New("fixture fetch failed")
)

// Step names the request of the handshake that failed
type Step string

const (
	StepToken   Step = "token"
	StepMatches Step = "matches"
)

// TransportError wraps a network-level failure (timeout, DNS, connection
// reset, malformed body) in either step of the handshake
type TransportError struct {
	Step Step
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error during %s step: %v", e.Step, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// HTTPError represents an HTTP error with status code
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// Kind classifies a retrieval error as "authentication", "data_fetch" or
// "transport". Transport failures take precedence over the step sentinel.
func Kind(err error) string {
	var transportErr *TransportError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &transportErr):
		return "transport"
	case errors.Is(err, ErrAuthentication):
		return "authentication"
	case errors.Is(err, ErrDataFetch):
		return "data_fetch"
	default:
		return "unknown"
	}
}
