package dimensions

import (
	"strings"

	"github.com/adima959/vl-marketing-tool-sub006/internal/tracking"
)

// UnknownValue is the bucket every NULL-ish dimension value lands in.
const UnknownValue = "unknown"

// NormalizeValue maps a raw dimension value onto its report bucket. NULL,
// empty, the literal "null" and any casing of "unknown" all collapse into
// UnknownValue; everything else passes through unchanged. This is the single
// sentinel normalization shared by the matchers and the query builder's
// predicate generation.
func NormalizeValue(raw string) string {
	v := strings.TrimSpace(raw)
	if v == "" || strings.EqualFold(v, tracking.NullLiteral) || strings.EqualFold(v, UnknownValue) {
		return UnknownValue
	}
	return v
}

// IsUnknownValue reports whether a caller-supplied filter value addresses
// the unknown bucket.
func IsUnknownValue(v string) bool {
	return NormalizeValue(v) == UnknownValue
}
