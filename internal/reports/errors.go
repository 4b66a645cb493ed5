package reports

import (
	"errors"
	"fmt"

	"github.com/adima959/vl-marketing-tool-sub006/internal/daterange"
	"github.com/adima959/vl-marketing-tool-sub006/internal/dimensions"
)

// Request validation errors. All of them are detected before any store query
// runs and map to an unprocessable-entity response at the API edge.
var (
	ErrNoDimensions        = errors.New("no dimensions requested")
	ErrDuplicateDimension  = errors.New("duplicate dimension in hierarchy")
	ErrDepthOutOfRange     = errors.New("depth out of range")
	ErrMissingParentFilter = errors.New("missing parent filter")
	ErrFilterOutsideChain  = errors.New("filter outside the parent chain")
	ErrBadSortKey          = errors.New("unsupported sort key")
)

// ErrKeyArityMismatch signals that a tracking key reached a matcher with a
// segment count that contradicts the request's exclusion set. It is an
// internal failure, never a caller mistake.
var ErrKeyArityMismatch = errors.New("tracking key arity mismatch")

// IsValidationError reports whether err belongs to the request-validation
// class rejected before any store query runs.
func IsValidationError(err error) bool {
	for _, target := range []error{
		ErrNoDimensions,
		ErrDuplicateDimension,
		ErrDepthOutOfRange,
		ErrMissingParentFilter,
		ErrFilterOutsideChain,
		ErrBadSortKey,
		dimensions.ErrUnknownDimension,
		daterange.ErrInvalidRange,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// Store names carried by StoreError.
const (
	StoreVisits = "visits"
	StoreCRM    = "crm"
)

// Query stages carried by StoreError.
const (
	StageRows        = "rows"
	StageCombos      = "combos"
	StageConversions = "conversions"
	StageTouches     = "touches"
)

// StoreError wraps a failed store query with its origin. The raw SQL and the
// bound parameter values never travel with it; logs get the store and stage,
// callers get an opaque failure.
type StoreError struct {
	Store string
	Stage string
	Err   error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s store: %s query failed: %v", e.Store, e.Stage, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// IsStoreError reports whether err originated in a store query.
func IsStoreError(err error) bool {
	var storeErr *StoreError
	return errors.As(err, &storeErr)
}
