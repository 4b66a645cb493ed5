// Package dimensions holds the static drill-down dimension registry and the
// per-request attribution classifier built on top of it.
package dimensions

import (
	"errors"
	"fmt"

	"github.com/adima959/vl-marketing-tool-sub006/internal/tracking"
)

// ErrUnknownDimension is returned for dimension ids absent from the registry.
var ErrUnknownDimension = errors.New("unknown dimension")

// Mode selects how conversion credit is attributed to a dimension.
type Mode int

const (
	// ModeDirect matches conversions on a native CRM column.
	ModeDirect Mode = iota + 1
	// ModeProportional splits conversion totals by visit share under a
	// shared tracking key.
	ModeProportional
	// ModeVisitorBased splits conversion totals evenly across the distinct
	// values a converting visitor touched.
	ModeVisitorBased
	// ModeUnsupported has no conversion equivalent; attribution columns are
	// forced to zero and no CRM query runs.
	ModeUnsupported
)

// String returns the mode name used in logs and API payloads.
func (m Mode) String() string {
	switch m {
	case ModeDirect:
		return "direct"
	case ModeProportional:
		return "proportional"
	case ModeVisitorBased:
		return "visitor_based"
	case ModeUnsupported:
		return "unsupported"
	default:
		return "invalid"
	}
}

// Dimension describes one drill-down attribute and its column vocabulary in
// each store. An empty column name means the store cannot group or filter on
// the dimension.
type Dimension struct {
	ID          string
	Label       string
	VisitColumn string
	CRMColumn   string
	Mode        Mode

	// TrackingField is set when the dimension is one of the tracking tuple
	// positions shared by both stores.
	TrackingField   tracking.Field
	IsTrackingField bool

	// IsSource marks the acquisition channel dimension.
	IsSource bool
	// IsCountry marks the geo dimension, whose CRM side stores full country
	// names while the visit side stores ISO alpha-2 codes.
	IsCountry bool
}

// registry is the ordered dimension table. CRMColumn on the tracking-field
// dimensions is the best-effort tracking column, usable for drill-down
// predicates but never for direct grouping.
var registry = []Dimension{
	{ID: "network", Label: "Network", VisitColumn: "network", CRMColumn: "network", Mode: ModeDirect, IsTrackingField: true, TrackingField: tracking.FieldNetwork, IsSource: true},
	{ID: "country", Label: "Country", VisitColumn: "country_code", CRMColumn: "country", Mode: ModeDirect, IsCountry: true},
	{ID: "campaign", Label: "Campaign", VisitColumn: "campaign", CRMColumn: "campaign", Mode: ModeProportional, IsTrackingField: true, TrackingField: tracking.FieldCampaign},
	{ID: "adset", Label: "Ad Set", VisitColumn: "adset", CRMColumn: "adset", Mode: ModeProportional, IsTrackingField: true, TrackingField: tracking.FieldAdset},
	{ID: "creative", Label: "Creative", VisitColumn: "creative", CRMColumn: "creative", Mode: ModeProportional, IsTrackingField: true, TrackingField: tracking.FieldCreative},
	{ID: "device", Label: "Device Type", VisitColumn: "device_type", Mode: ModeVisitorBased},
	{ID: "browser", Label: "Browser", VisitColumn: "browser", Mode: ModeVisitorBased},
	{ID: "landing", Label: "Landing Page", VisitColumn: "landing_page", Mode: ModeVisitorBased},
	{ID: "language", Label: "Language", VisitColumn: "language", Mode: ModeUnsupported},
}

var byID = func() map[string]Dimension {
	m := make(map[string]Dimension, len(registry))
	for _, d := range registry {
		m[d.ID] = d
	}
	return m
}()

// All returns the registry in display order.
func All() []Dimension {
	out := make([]Dimension, len(registry))
	copy(out, registry)
	return out
}

// ByID looks up a dimension by id.
func ByID(id string) (Dimension, bool) {
	d, ok := byID[id]
	return d, ok
}

// Classification is the attribution plan for one grouping dimension,
// resolved once per request.
type Classification struct {
	Dimension Dimension
	// Exclude lists the tracking fields omitted from key construction for
	// this request: the grouping dimension itself plus every dimension fixed
	// by a parent filter, when they are tracking fields. Keeping them in the
	// key would reduce matching to a self-match on that field.
	Exclude tracking.FieldSet
}

// Mode returns the attribution mode of the classified dimension.
func (c Classification) Mode() Mode {
	return c.Dimension.Mode
}

// Classify resolves the grouping dimension and computes the tracking-field
// exclusion set from the parent filter chain. Unknown ids, whether grouping
// or parent, are rejected.
func Classify(groupID string, parentIDs []string) (Classification, error) {
	dim, ok := byID[groupID]
	if !ok {
		return Classification{}, fmt.Errorf("%w: %q", ErrUnknownDimension, groupID)
	}

	exclude := tracking.NewFieldSet()
	if dim.IsTrackingField {
		exclude.Add(dim.TrackingField)
	}
	for _, id := range parentIDs {
		parent, ok := byID[id]
		if !ok {
			return Classification{}, fmt.Errorf("%w: %q", ErrUnknownDimension, id)
		}
		if parent.IsTrackingField {
			exclude.Add(parent.TrackingField)
		}
	}

	return Classification{Dimension: dim, Exclude: exclude}, nil
}
