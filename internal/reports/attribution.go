package reports

import (
	"fmt"

	"github.com/adima959/vl-marketing-tool-sub006/internal/dimensions"
	"github.com/adima959/vl-marketing-tool-sub006/internal/tracking"
)

// ConversionStats is the conversion credit accumulated by one bucket. The
// numbers stay fractional through matching and merging; rounding happens
// only when rows are serialized.
type ConversionStats struct {
	Trials   float64
	Approved float64
}

// AttributionResult maps normalized dimension values to conversion credit.
type AttributionResult map[string]ConversionStats

// MatchDirect folds natively grouped CRM conversions into buckets by
// normalized value. Values the visit store never saw survive here and are
// discarded at merge time.
func MatchDirect(convs []ValueConversion) AttributionResult {
	result := AttributionResult{}
	for _, conv := range convs {
		bucket := dimensions.NormalizeValue(conv.Value)
		stats := result[bucket]
		stats.Trials += conv.Trials
		stats.Approved += conv.Approved
		result[bucket] = stats
	}
	return result
}

// MatchProportional splits each tracking key's conversion totals across the
// dimension values that carry visits for that key, proportionally to their
// visit counts. A key whose conversions have no visit weight at all is
// skipped: its conversions are dropped rather than divided evenly.
//
// Both inputs must carry keys whose segment count matches the exclusion
// set; a mismatch is a pipeline fault and aborts the match.
func MatchProportional(convs []ConversionAggregate, visits []VisitAggregate, exclude tracking.FieldSet) (AttributionResult, error) {
	want := exclude.SegmentCount()

	credit := make(map[string]ConversionStats, len(convs))
	for _, conv := range convs {
		if got := tracking.KeySegments(conv.Key); got != want {
			return nil, fmt.Errorf("%w: conversion key has %d segments, want %d", ErrKeyArityMismatch, got, want)
		}
		stats := credit[conv.Key]
		stats.Trials += conv.Trials
		stats.Approved += conv.Approved
		credit[conv.Key] = stats
	}

	keyVisits := make(map[string]int64, len(visits))
	for _, visit := range visits {
		if got := tracking.KeySegments(visit.Key); got != want {
			return nil, fmt.Errorf("%w: visit key has %d segments, want %d", ErrKeyArityMismatch, got, want)
		}
		keyVisits[visit.Key] += visit.VisitCount
	}

	result := AttributionResult{}
	for _, visit := range visits {
		stats, ok := credit[visit.Key]
		if !ok {
			continue
		}
		total := keyVisits[visit.Key]
		if total <= 0 {
			continue
		}
		share := float64(visit.VisitCount) / float64(total)
		bucket := dimensions.NormalizeValue(visit.DimensionValue)
		acc := result[bucket]
		acc.Trials += stats.Trials * share
		acc.Approved += stats.Approved * share
		result[bucket] = acc
	}
	return result, nil
}

// MatchVisitorBased splits each converting visitor's totals evenly across
// the distinct dimension values that visitor touched in the window. A
// visitor with conversions but no recorded visit is dropped, not attributed
// to the unknown bucket.
func MatchVisitorBased(convs []VisitorConversion, touches []VisitorTouch) AttributionResult {
	touched := make(map[string]map[string]struct{}, len(touches))
	for _, touch := range touches {
		bucket := dimensions.NormalizeValue(touch.DimensionValue)
		values := touched[touch.VisitorID]
		if values == nil {
			values = make(map[string]struct{})
			touched[touch.VisitorID] = values
		}
		values[bucket] = struct{}{}
	}

	result := AttributionResult{}
	for _, conv := range convs {
		values := touched[conv.VisitorID]
		if len(values) == 0 {
			continue
		}
		share := 1.0 / float64(len(values))
		for value := range values {
			stats := result[value]
			stats.Trials += conv.Trials * share
			stats.Approved += conv.Approved * share
			result[value] = stats
		}
	}
	return result
}
