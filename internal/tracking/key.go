// Package tracking canonicalizes the tracking identifiers shared by the
// visit and CRM stores into approximate join keys.
package tracking

import "strings"

// Field identifies one position in the tracking tuple. The order is shared
// by both stores and both sides of a join must agree on it.
type Field int

const (
	FieldNetwork Field = iota
	FieldCampaign
	FieldAdset
	FieldCreative

	// FieldCount is the fixed tuple arity.
	FieldCount = 4
)

// KeySeparator joins tuple segments into a tracking key.
const KeySeparator = "::"

// NullLiteral is the string some CRM writers store in place of SQL NULL.
const NullLiteral = "null"

// Tuple holds the raw tracking identifiers of one store row in field order.
type Tuple [FieldCount]string

// FieldSet is a set of tuple fields omitted from key construction.
type FieldSet map[Field]struct{}

// NewFieldSet builds a FieldSet from the given fields.
func NewFieldSet(fields ...Field) FieldSet {
	s := make(FieldSet, len(fields))
	for _, f := range fields {
		s[f] = struct{}{}
	}
	return s
}

// Add puts a field into the set.
func (s FieldSet) Add(f Field) {
	s[f] = struct{}{}
}

// Has reports whether the field is in the set.
func (s FieldSet) Has(f Field) bool {
	_, ok := s[f]
	return ok
}

// SegmentCount returns how many segments a key built under this exclusion
// set contains.
func (s FieldSet) SegmentCount() int {
	n := FieldCount
	for f := Field(0); f < FieldCount; f++ {
		if s.Has(f) {
			n--
		}
	}
	return n
}

// BuildKey canonicalizes a tuple into a tracking key. NULL sentinels and the
// literal "null" collapse to empty segments; excluded fields are omitted
// entirely rather than left as placeholders, so both sides of a join must
// use the identical exclusion set. The result depends only on the tuple
// values and the exclusion set.
func BuildKey(t Tuple, exclude FieldSet) string {
	segments := make([]string, 0, FieldCount)
	for f := Field(0); f < FieldCount; f++ {
		if exclude.Has(f) {
			continue
		}
		segments = append(segments, normalizeSegment(t[f]))
	}
	return strings.Join(segments, KeySeparator)
}

// KeySegments reports how many segments a built key contains. A key built
// with every field excluded is empty and has zero segments.
func KeySegments(key string) int {
	if key == "" {
		return 0
	}
	return strings.Count(key, KeySeparator) + 1
}

// normalizeSegment maps NULL-ish identifier values to the empty segment.
// A deliberately blank value is already empty and passes through unchanged.
func normalizeSegment(raw string) string {
	v := strings.TrimSpace(raw)
	if strings.EqualFold(v, NullLiteral) {
		return ""
	}
	return v
}
