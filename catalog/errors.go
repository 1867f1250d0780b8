package catalog

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-catalog-cache/store"
)

// ErrNotFound reports that a referenced entity or summary record is absent.
// It is the store sentinel re-exported so callers only import this package.
var ErrNotFound = store.ErrNotFound

// ErrInconsistency reports that a stats summary was still absent immediately
// after a recompute wrote it. The store and the cache disagree in a way a
// retry will not fix, so the read path surfaces it instead of looping.
var ErrInconsistency = errors.New("catalog: stats summary missing after recompute")

// ValidationError reports invalid input. It is always returned before any
// store call is attempted and is recoverable by correcting the input.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("catalog: invalid %s: %s", e.Field, e.Message)
}

// Kind classifies an error for callers that map failures to user-visible
// behavior: validation errors become field-level messages, everything else a
// generic retryable notice.
type Kind uint8

const (
	// KindUnknown covers errors this layer does not recognize.
	KindUnknown Kind = iota
	// KindValidation is bad input, rejected before any write.
	KindValidation
	// KindNotFound is a missing entity or summary.
	KindNotFound
	// KindInconsistency is the fatal stats read-after-recompute miss.
	KindInconsistency
	// KindStoreUnavailable is a transient backend failure.
	KindStoreUnavailable
)

// Classify maps an error returned by this layer to its Kind. Store errors
// that are not the not-found sentinel are treated as transient backend
// failures.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case isValidation(err):
		return KindValidation
	case errors.Is(err, ErrInconsistency):
		return KindInconsistency
	case errors.Is(err, store.ErrNotFound):
		return KindNotFound
	default:
		return KindStoreUnavailable
	}
}

func isValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
