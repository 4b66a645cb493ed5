package reports

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/adima959/vl-marketing-tool-sub006/internal/dimensions"
	"github.com/adima959/vl-marketing-tool-sub006/internal/tracking"
)

// VisitRow is one rollup row from the visit store, before any conversion
// credit is attached.
type VisitRow struct {
	Value    string
	Visits   int64
	Visitors int64
}

// VisitAggregate carries the visit weight of one (dimension value, tracking
// key) pair.
type VisitAggregate struct {
	DimensionValue string
	Key            string
	VisitCount     int64
}

// ConversionAggregate carries conversion totals for one tracking key.
type ConversionAggregate struct {
	Key      string
	Trials   float64
	Approved float64
}

// ValueConversion carries conversion totals keyed directly by a dimension
// value the CRM records natively.
type ValueConversion struct {
	Value    string
	Trials   float64
	Approved float64
}

// VisitorTouch records that a visitor was exposed to a dimension value
// inside the reporting window.
type VisitorTouch struct {
	DimensionValue string
	VisitorID      string
}

// VisitorConversion carries conversion totals for one visitor.
type VisitorConversion struct {
	VisitorID string
	Trials    float64
	Approved  float64
}

// GetVisitRows returns the drill-down rows for the grouped dimension.
func GetVisitRows(db *gorm.DB, p ReportParams, c dimensions.Classification) ([]VisitRow, error) {
	plan := BuildVisitRowsQuery(p, c)

	var rows []VisitRow
	if err := db.Raw(plan.SQL, plan.Args...).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to get visit rows: %w", err)
	}
	return rows, nil
}

type visitComboRow struct {
	Value    string
	Network  string
	Campaign string
	Adset    string
	Creative string
	Visits   int64
}

// GetVisitAggregates returns visit weights per (value, canonical key) pair.
// Raw tracking tuples that collapse onto the same key after normalization
// are summed.
func GetVisitAggregates(db *gorm.DB, p ReportParams, c dimensions.Classification) ([]VisitAggregate, error) {
	plan := BuildVisitComboQuery(p, c)

	var rows []visitComboRow
	if err := db.Raw(plan.SQL, plan.Args...).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to get visit aggregates: %w", err)
	}

	out := make([]VisitAggregate, 0, len(rows))
	index := make(map[string]int, len(rows))
	for _, row := range rows {
		key := tracking.BuildKey(tracking.Tuple{row.Network, row.Campaign, row.Adset, row.Creative}, c.Exclude)
		value := dimensions.NormalizeValue(row.Value)
		mapKey := value + "\x00" + key
		if i, ok := index[mapKey]; ok {
			out[i].VisitCount += row.Visits
			continue
		}
		index[mapKey] = len(out)
		out = append(out, VisitAggregate{DimensionValue: value, Key: key, VisitCount: row.Visits})
	}
	return out, nil
}

type conversionComboRow struct {
	Network  string
	Campaign string
	Adset    string
	Creative string
	Trials   float64
	Approved float64
}

// GetConversionAggregates returns CRM conversion totals per canonical
// tracking key, summing raw tuples that normalize onto the same key.
func GetConversionAggregates(db *gorm.DB, p ReportParams, c dimensions.Classification) ([]ConversionAggregate, error) {
	plan := BuildConversionComboQuery(p, c)

	var rows []conversionComboRow
	if err := db.Raw(plan.SQL, plan.Args...).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to get conversion aggregates: %w", err)
	}

	out := make([]ConversionAggregate, 0, len(rows))
	index := make(map[string]int, len(rows))
	for _, row := range rows {
		key := tracking.BuildKey(tracking.Tuple{row.Network, row.Campaign, row.Adset, row.Creative}, c.Exclude)
		if i, ok := index[key]; ok {
			out[i].Trials += row.Trials
			out[i].Approved += row.Approved
			continue
		}
		index[key] = len(out)
		out = append(out, ConversionAggregate{Key: key, Trials: row.Trials, Approved: row.Approved})
	}
	return out, nil
}

type valueConversionRow struct {
	Value    string
	Trials   float64
	Approved float64
}

// GetDirectConversions returns CRM conversion totals bucketed by the
// dimension's native CRM values, translated into the visit store's
// vocabulary. Country names become alpha-2 codes so both stores agree.
func GetDirectConversions(db *gorm.DB, p ReportParams, c dimensions.Classification) ([]ValueConversion, error) {
	plan := BuildDirectConversionQuery(p, c)

	var rows []valueConversionRow
	if err := db.Raw(plan.SQL, plan.Args...).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to get direct conversions: %w", err)
	}

	out := make([]ValueConversion, 0, len(rows))
	index := make(map[string]int, len(rows))
	for _, row := range rows {
		value := row.Value
		if c.Dimension.IsCountry && !dimensions.IsUnknownValue(value) {
			value = visitCountryCode(value)
		}
		value = dimensions.NormalizeValue(value)
		if i, ok := index[value]; ok {
			out[i].Trials += row.Trials
			out[i].Approved += row.Approved
			continue
		}
		index[value] = len(out)
		out = append(out, ValueConversion{Value: value, Trials: row.Trials, Approved: row.Approved})
	}
	return out, nil
}

// GetVisitorTouches returns the distinct (value, visitor) exposure pairs in
// scope.
func GetVisitorTouches(db *gorm.DB, p ReportParams, c dimensions.Classification) ([]VisitorTouch, error) {
	plan := BuildVisitorTouchQuery(p, c)

	var rows []struct {
		Value     string
		VisitorID string
	}
	if err := db.Raw(plan.SQL, plan.Args...).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to get visitor touches: %w", err)
	}

	out := make([]VisitorTouch, 0, len(rows))
	for _, row := range rows {
		out = append(out, VisitorTouch{
			DimensionValue: dimensions.NormalizeValue(row.Value),
			VisitorID:      row.VisitorID,
		})
	}
	return out, nil
}

// GetVisitorConversions returns CRM conversion totals per visitor id.
func GetVisitorConversions(db *gorm.DB, p ReportParams, c dimensions.Classification) ([]VisitorConversion, error) {
	plan := BuildVisitorConversionQuery(p, c)

	var rows []VisitorConversion
	if err := db.Raw(plan.SQL, plan.Args...).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to get visitor conversions: %w", err)
	}
	return rows, nil
}
