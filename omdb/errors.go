package omdb

import (
	"errors"
	"fmt"
)

// User-facing messages
const (
	MsgQueryTooShort = "Please enter at least 3 characters"
	MsgSearchFailed  = "failed to search movies"
	MsgDetailsFailed = "failed to fetch movie details"
	MsgMovieNotFound = "movie not found"
)

const (
	opSearch  = "search"
	opDetails = "details"
)

// ErrMissingID is returned by GetDetails when no identifier is given
var ErrMissingID = errors.New("movie ID is required")

// ProviderError is returned when OMDb itself reports a failure
type ProviderError struct {
	Op         string
	Message    string
	StatusCode int
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("omdb %s: %s", e.Op, e.Message)
}

// TransportError is returned when the request could not be completed or the
// response could not be understood
type TransportError struct {
	Op      string
	Message string
	Err     error
}

func (e *TransportError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("omdb %s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("omdb %s: %s: %v", e.Op, e.Message, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err is worth retrying
func IsTransient(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsNotFound reports whether err is a provider failure on a details lookup
func IsNotFound(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Op == opDetails
}

// Message returns the message that should be shown to a user for err
func Message(err error) string {
	if err == nil {
		return ""
	}

	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Message
	}

	var te *TransportError
	if errors.As(err, &te) {
		return te.Message
	}

	if errors.Is(err, ErrMissingID) {
		return ErrMissingID.Error()
	}

	return "Something went wrong"
}
