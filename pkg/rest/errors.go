package rest

import (
	"errors"
	"fmt"
)

// Configuration errors surface before any network attempt is made.
var (
	// ErrInvalidURI signals a relative or unparseable request URI.
	ErrInvalidURI = errors.New("invalid request URI")

	// ErrNilContent signals a nil content payload on a content-bearing send.
	ErrNilContent = errors.New("nil content payload")
)

// StatusError carries the structured failure extracted from an HTTP error
// response once the retry budget is exhausted.
type StatusError struct {
	URI    string
	Status int
	Body   []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request to %s failed with status %d", e.URI, e.Status)
}
