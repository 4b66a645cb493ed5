package reports

import (
	"fmt"

	"github.com/adima959/vl-marketing-tool-sub006/internal/daterange"
	"github.com/adima959/vl-marketing-tool-sub006/internal/dimensions"
)

// Sort keys accepted by a drill-down request. The visit-side keys are pushed
// down into the visit store query; the conversion-side keys can only be
// resolved after attribution and are applied in memory.
const (
	SortVisits         = "visits"
	SortVisitors       = "visitors"
	SortValue          = "value"
	SortTrials         = "trials"
	SortApproved       = "approved"
	SortConversionRate = "conversion_rate"
)

const (
	DefaultLimit = 50
	MaxLimit     = 500
)

// visitOrderings maps visit-side sort keys to their ORDER BY clause.
var visitOrderings = map[string]string{
	SortVisits:   "visits DESC, value ASC",
	SortVisitors: "visitors DESC, value ASC",
	SortValue:    "value ASC",
}

var conversionSortKeys = map[string]struct{}{
	SortTrials:         {},
	SortApproved:       {},
	SortConversionRate: {},
}

func validSortKey(key string) bool {
	if _, ok := visitOrderings[key]; ok {
		return true
	}
	_, ok := conversionSortKeys[key]
	return ok
}

// ReportParams describes one drill-down level request: the ordered dimension
// hierarchy, the zero-based depth currently being grouped, the values already
// selected for every ancestor level, and the reporting window.
type ReportParams struct {
	Dimensions []string
	Depth      int
	Filters    map[string]string
	Range      daterange.DateRange
	SortBy     string
	Limit      int
}

// normalize fills the optional knobs with their defaults.
func (p *ReportParams) normalize() {
	if p.SortBy == "" {
		p.SortBy = SortVisits
	}
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
}

// Validate rejects malformed requests before any store is touched.
func (p *ReportParams) Validate() error {
	if len(p.Dimensions) == 0 {
		return ErrNoDimensions
	}
	seen := make(map[string]struct{}, len(p.Dimensions))
	for _, id := range p.Dimensions {
		if _, ok := dimensions.ByID(id); !ok {
			return fmt.Errorf("%w: %q", dimensions.ErrUnknownDimension, id)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateDimension, id)
		}
		seen[id] = struct{}{}
	}
	if p.Depth < 0 || p.Depth >= len(p.Dimensions) {
		return fmt.Errorf("%w: depth %d with %d dimensions", ErrDepthOutOfRange, p.Depth, len(p.Dimensions))
	}
	for id := range p.Filters {
		if !p.isAncestor(id) {
			return fmt.Errorf("%w: %q", ErrFilterOutsideChain, id)
		}
	}
	for _, id := range p.Dimensions[:p.Depth] {
		if _, ok := p.Filters[id]; !ok {
			return fmt.Errorf("%w: %q", ErrMissingParentFilter, id)
		}
	}
	if err := p.Range.Validate(); err != nil {
		return err
	}
	if p.SortBy != "" && !validSortKey(p.SortBy) {
		return fmt.Errorf("%w: %q", ErrBadSortKey, p.SortBy)
	}
	return nil
}

func (p *ReportParams) isAncestor(id string) bool {
	for _, ancestor := range p.Dimensions[:p.Depth] {
		if ancestor == id {
			return true
		}
	}
	return false
}

// hierarchy resolves the dimensions grouped at this depth, parents first and
// the requested dimension last. Callers validate the ids beforehand.
func (p ReportParams) hierarchy() []dimensions.Dimension {
	dims := make([]dimensions.Dimension, 0, p.Depth+1)
	for _, id := range p.Dimensions[:p.Depth+1] {
		if dim, ok := dimensions.ByID(id); ok {
			dims = append(dims, dim)
		}
	}
	return dims
}

// parents resolves only the ancestor dimensions above the requested depth.
func (p ReportParams) parents() []dimensions.Dimension {
	dims := p.hierarchy()
	return dims[:len(dims)-1]
}
