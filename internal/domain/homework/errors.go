// internal/domain/homework/errors.go
package homework

import (
	"errors"
	"fmt"
)

// Failure kinds surfaced by a poll cycle.
var ErrEndpoint = fmt.Errorf("endpoint error")
var ErrMalformedResponse = fmt.Errorf("malformed response")
var ErrMalformedItem = fmt.Errorf("malformed homework item")
var ErrVerdictLookup = fmt.Errorf("unknown homework status")

// Kind identifies the class of a cycle failure for deduplication.
type Kind string

const (
	KindNone              Kind = "none"
	KindEndpoint          Kind = "endpoint"
	KindMalformedResponse Kind = "malformed_response"
	KindMalformedItem     Kind = "malformed_item"
	KindVerdictLookup     Kind = "verdict_lookup"
)

// Classify maps an error returned by the fetcher, validator or parser to its Kind.
// Errors outside the taxonomy (transport errors, deadlines) count as endpoint failures.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrMalformedResponse):
		return KindMalformedResponse
	case errors.Is(err, ErrMalformedItem):
		return KindMalformedItem
	case errors.Is(err, ErrVerdictLookup):
		return KindVerdictLookup
	default:
		return KindEndpoint
	}
}
