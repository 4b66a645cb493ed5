package reports

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/adima959/vl-marketing-tool-sub006/internal/dimensions"
	"github.com/adima959/vl-marketing-tool-sub006/internal/pkg/async"
)

// Row is one serialized report row. Counts are rounded half-up from the
// fractional attribution credit; the conversion rate keeps four decimals.
type Row struct {
	Value          string  `json:"value"`
	Label          string  `json:"label"`
	Visits         int64   `json:"visits"`
	Visitors       int64   `json:"visitors"`
	Trials         int64   `json:"trials"`
	Approved       int64   `json:"approved"`
	ConversionRate float64 `json:"conversionRate"`
}

// Report is one drill-down level response.
type Report struct {
	Dimension string `json:"dimension"`
	Label     string `json:"label"`
	Depth     int    `json:"depth"`
	Mode      string `json:"mode"`
	Rows      []Row  `json:"rows"`
}

// Deps carries the store handles and the logger the engine reads from.
type Deps struct {
	Visits *gorm.DB
	CRM    *gorm.DB
	Logger *slog.Logger
}

const (
	taskVisitRows            = "visitRows"
	taskVisitAggregates      = "visitAggregates"
	taskConversionAggregates = "conversionAggregates"
	taskDirectConversions    = "directConversions"
	taskVisitorTouches       = "visitorTouches"
	taskVisitorConversions   = "visitorConversions"
)

// Generate runs one drill-down level end to end: validate, classify, fan the
// store queries out concurrently, attribute conversion credit onto the visit
// rows, then sort and serialize. Any failed store query fails the whole
// request.
func Generate(ctx context.Context, deps Deps, params ReportParams) (*Report, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	params.normalize()
	if err := params.Validate(); err != nil {
		return nil, err
	}

	class, err := dimensions.Classify(params.Dimensions[params.Depth], params.Dimensions[:params.Depth])
	if err != nil {
		return nil, err
	}

	tasks := buildTasks(deps, params, class)
	pool := async.NewPool(len(tasks))
	results := pool.Execute(ctx, tasks)

	for name, result := range results {
		if result.Err != nil {
			logStoreError(logger, result.Err)
			return nil, fmt.Errorf("error fetching %s: %w", name, result.Err)
		}
	}

	visitRows, _ := results[taskVisitRows].Data.([]VisitRow)

	var credit AttributionResult
	switch class.Mode() {
	case dimensions.ModeDirect:
		convs, _ := results[taskDirectConversions].Data.([]ValueConversion)
		credit = MatchDirect(convs)
	case dimensions.ModeProportional:
		convs, _ := results[taskConversionAggregates].Data.([]ConversionAggregate)
		weights, _ := results[taskVisitAggregates].Data.([]VisitAggregate)
		credit, err = MatchProportional(convs, weights, class.Exclude)
		if err != nil {
			logger.Error("attribution failed",
				slog.String("dimension", class.Dimension.ID),
				slog.Any("error", err))
			return nil, err
		}
	case dimensions.ModeVisitorBased:
		convs, _ := results[taskVisitorConversions].Data.([]VisitorConversion)
		touches, _ := results[taskVisitorTouches].Data.([]VisitorTouch)
		credit = MatchVisitorBased(convs, touches)
	default:
		credit = AttributionResult{}
	}

	merged := mergeRows(visitRows, credit)
	sortMerged(merged, params.SortBy)
	if len(merged) > params.Limit {
		merged = merged[:params.Limit]
	}

	return &Report{
		Dimension: class.Dimension.ID,
		Label:     class.Dimension.Label,
		Depth:     params.Depth,
		Mode:      class.Mode().String(),
		Rows:      serializeRows(class.Dimension, merged),
	}, nil
}

// buildTasks assembles the store queries this request needs. Every mode
// reads the visit rollup; the conversion-side tasks depend on how the
// dimension is matched. An unsupported dimension adds nothing, so the CRM
// is never queried for it.
func buildTasks(deps Deps, params ReportParams, class dimensions.Classification) []async.Task {
	tasks := []async.Task{{
		Name: taskVisitRows,
		Execute: func() (interface{}, error) {
			rows, err := GetVisitRows(deps.Visits, params, class)
			if err != nil {
				return nil, &StoreError{Store: StoreVisits, Stage: StageRows, Err: err}
			}
			return rows, nil
		},
	}}

	switch class.Mode() {
	case dimensions.ModeDirect:
		tasks = append(tasks, async.Task{
			Name: taskDirectConversions,
			Execute: func() (interface{}, error) {
				convs, err := GetDirectConversions(deps.CRM, params, class)
				if err != nil {
					return nil, &StoreError{Store: StoreCRM, Stage: StageConversions, Err: err}
				}
				return convs, nil
			},
		})
	case dimensions.ModeProportional:
		tasks = append(tasks,
			async.Task{
				Name: taskVisitAggregates,
				Execute: func() (interface{}, error) {
					weights, err := GetVisitAggregates(deps.Visits, params, class)
					if err != nil {
						return nil, &StoreError{Store: StoreVisits, Stage: StageCombos, Err: err}
					}
					return weights, nil
				},
			},
			async.Task{
				Name: taskConversionAggregates,
				Execute: func() (interface{}, error) {
					convs, err := GetConversionAggregates(deps.CRM, params, class)
					if err != nil {
						return nil, &StoreError{Store: StoreCRM, Stage: StageConversions, Err: err}
					}
					return convs, nil
				},
			},
		)
	case dimensions.ModeVisitorBased:
		tasks = append(tasks,
			async.Task{
				Name: taskVisitorTouches,
				Execute: func() (interface{}, error) {
					touches, err := GetVisitorTouches(deps.Visits, params, class)
					if err != nil {
						return nil, &StoreError{Store: StoreVisits, Stage: StageTouches, Err: err}
					}
					return touches, nil
				},
			},
			async.Task{
				Name: taskVisitorConversions,
				Execute: func() (interface{}, error) {
					convs, err := GetVisitorConversions(deps.CRM, params, class)
					if err != nil {
						return nil, &StoreError{Store: StoreCRM, Stage: StageConversions, Err: err}
					}
					return convs, nil
				},
			},
		)
	}

	return tasks
}

func logStoreError(logger *slog.Logger, err error) {
	var storeErr *StoreError
	if errors.As(err, &storeErr) {
		logger.Error("store query failed",
			slog.String("store", storeErr.Store),
			slog.String("stage", storeErr.Stage),
			slog.Any("error", storeErr.Err))
		return
	}
	logger.Error("report query failed", slog.Any("error", err))
}

// mergedRow keeps the fractional credit next to the visit counts so sorting
// happens on exact values before serialization rounds them.
type mergedRow struct {
	value    string
	visits   int64
	visitors int64
	stats    ConversionStats
}

// mergeRows attaches conversion credit to the visit rows. Credit for a value
// with no visit row in range is discarded, never invented as a new row.
func mergeRows(visitRows []VisitRow, credit AttributionResult) []mergedRow {
	merged := make([]mergedRow, 0, len(visitRows))
	for _, row := range visitRows {
		value := dimensions.NormalizeValue(row.Value)
		merged = append(merged, mergedRow{
			value:    value,
			visits:   row.Visits,
			visitors: row.Visitors,
			stats:    credit[value],
		})
	}
	return merged
}

// sortMerged applies the conversion-side sort keys in memory. Visit-side
// keys were already ordered by the store query and pass through untouched.
func sortMerged(rows []mergedRow, sortBy string) {
	var metric func(mergedRow) float64
	switch sortBy {
	case SortTrials:
		metric = func(r mergedRow) float64 { return r.stats.Trials }
	case SortApproved:
		metric = func(r mergedRow) float64 { return r.stats.Approved }
	case SortConversionRate:
		metric = func(r mergedRow) float64 {
			if r.visits <= 0 {
				return 0
			}
			return r.stats.Trials / float64(r.visits)
		}
	default:
		return
	}

	sort.SliceStable(rows, func(i, j int) bool {
		mi, mj := metric(rows[i]), metric(rows[j])
		if mi != mj {
			return mi > mj
		}
		return rows[i].value < rows[j].value
	})
}

func serializeRows(dim dimensions.Dimension, merged []mergedRow) []Row {
	caser := cases.Title(language.AmericanEnglish)
	rows := make([]Row, 0, len(merged))
	for _, m := range merged {
		rows = append(rows, Row{
			Value:          m.value,
			Label:          rowLabel(caser, dim, m.value),
			Visits:         m.visits,
			Visitors:       m.visitors,
			Trials:         roundHalfUp(m.stats.Trials),
			Approved:       roundHalfUp(m.stats.Approved),
			ConversionRate: conversionRate(m.stats.Trials, m.visits),
		})
	}
	return rows
}

func rowLabel(caser cases.Caser, dim dimensions.Dimension, value string) string {
	if value == dimensions.UnknownValue {
		return "Unknown"
	}
	if dim.IsCountry {
		return countryLabel(value)
	}
	switch dim.ID {
	case "device", "browser":
		return caser.String(value)
	}
	return value
}

// roundHalfUp rounds fractional credit to a whole count at the
// serialization boundary.
func roundHalfUp(v float64) int64 {
	return int64(math.Floor(v + 0.5))
}

// conversionRate is trials per visit, rounded half-up to four decimals, and
// zero when the row gathered no visits.
func conversionRate(trials float64, visits int64) float64 {
	if visits <= 0 {
		return 0
	}
	return math.Floor(trials/float64(visits)*10000+0.5) / 10000
}
