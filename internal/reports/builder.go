package reports

import (
	"fmt"
	"strings"

	"github.com/adima959/vl-marketing-tool-sub006/internal/dimensions"
)

// QueryPlan is one parameterized store query ready to run. Column
// expressions come from the dimension registry; every caller-supplied value
// is a bound parameter.
type QueryPlan struct {
	SQL  string
	Args []interface{}
}

// trackingColumns are the raw key columns both stores share, in key order.
var trackingColumns = []string{"network", "campaign", "adset", "creative"}

// visitValueExpr buckets NULL and empty strings into the unknown sentinel at
// query time, so grouping, ordering and limits already operate on final
// buckets.
func visitValueExpr(column string) string {
	return fmt.Sprintf("COALESCE(NULLIF(TRIM(%s), ''), '%s')", column, dimensions.UnknownValue)
}

// crmValueExpr additionally folds the literal 'null' string some CRM writers
// persist into the unknown sentinel.
func crmValueExpr(column string) string {
	return fmt.Sprintf("COALESCE(NULLIF(NULLIF(TRIM(%s), ''), 'null'), '%s')", column, dimensions.UnknownValue)
}

// trackingSelect lists the raw tracking columns with NULLs folded to empty
// strings, so key assembly in Go sees one missing-value spelling.
func trackingSelect() string {
	parts := make([]string, len(trackingColumns))
	for i, col := range trackingColumns {
		parts[i] = fmt.Sprintf("COALESCE(%s, '') AS %s", col, col)
	}
	return strings.Join(parts, ", ")
}

// appendVisitScope writes the visit-store date window and the parent filter
// chain. A parent selected as Unknown matches NULL and empty values through
// a predicate that binds no parameter; every other value binds exactly one.
func appendVisitScope(sb *strings.Builder, args *[]interface{}, p ReportParams) {
	start, end := p.Range.VisitBounds()
	sb.WriteString(" WHERE occurred_at >= ? AND occurred_at <= ?")
	*args = append(*args, start, end)

	for _, dim := range p.parents() {
		value := p.Filters[dim.ID]
		if dimensions.IsUnknownValue(value) {
			fmt.Fprintf(sb, " AND (%s IS NULL OR TRIM(%s) = '')", dim.VisitColumn, dim.VisitColumn)
			continue
		}
		fmt.Fprintf(sb, " AND %s = ?", dim.VisitColumn)
		*args = append(*args, value)
	}
}

// appendCRMScope writes the CRM date window and the parent filter chain in
// the CRM's vocabulary: whole-day bounds compared as dates, country filters
// translated from codes to the full names the CRM stores, and filters on
// dimensions the CRM lacks dropped entirely.
func appendCRMScope(sb *strings.Builder, args *[]interface{}, p ReportParams) {
	from, to := p.Range.CRMBounds()
	sb.WriteString(" WHERE DATE(created_at) BETWEEN ? AND ?")
	*args = append(*args, from, to)

	for _, dim := range p.parents() {
		if dim.CRMColumn == "" {
			continue
		}
		value := p.Filters[dim.ID]
		if dimensions.IsUnknownValue(value) {
			fmt.Fprintf(sb, " AND (%s IS NULL OR TRIM(%s) = '' OR %s = 'null')",
				dim.CRMColumn, dim.CRMColumn, dim.CRMColumn)
			continue
		}
		if dim.IsCountry {
			value = crmCountryName(value)
		}
		fmt.Fprintf(sb, " AND %s = ?", dim.CRMColumn)
		*args = append(*args, value)
	}
}

// BuildVisitRowsQuery assembles the visit-store rollup for the dimension at
// the requested depth: one row per bucketed value with visit and distinct
// visitor counts, grouped through every level of the hierarchy. Visit-side
// sort keys are pushed down with a LIMIT; conversion-side keys leave the
// result unlimited for in-memory sorting after attribution.
func BuildVisitRowsQuery(p ReportParams, c dimensions.Classification) QueryPlan {
	groupExprs := make([]string, 0, p.Depth+1)
	for _, dim := range p.hierarchy() {
		groupExprs = append(groupExprs, visitValueExpr(dim.VisitColumn))
	}
	valueExpr := groupExprs[len(groupExprs)-1]

	var sb strings.Builder
	args := make([]interface{}, 0, 4)

	fmt.Fprintf(&sb,
		"SELECT %s AS value, COUNT(*) AS visits, COUNT(DISTINCT visitor_id) AS visitors FROM visits",
		valueExpr)
	appendVisitScope(&sb, &args, p)
	fmt.Fprintf(&sb, " GROUP BY %s", strings.Join(groupExprs, ", "))

	if ordering, ok := visitOrderings[p.SortBy]; ok {
		fmt.Fprintf(&sb, " ORDER BY %s LIMIT ?", ordering)
		args = append(args, p.Limit)
	} else {
		sb.WriteString(" ORDER BY visits DESC, value ASC")
	}

	return QueryPlan{SQL: sb.String(), Args: args}
}

// BuildVisitComboQuery returns visit counts per (bucketed value, raw
// tracking tuple). The tuples are collapsed into canonical keys in Go, so
// the grouping here stays on raw columns.
func BuildVisitComboQuery(p ReportParams, c dimensions.Classification) QueryPlan {
	valueExpr := visitValueExpr(c.Dimension.VisitColumn)

	var sb strings.Builder
	args := make([]interface{}, 0, 4)

	fmt.Fprintf(&sb, "SELECT %s AS value, %s, COUNT(*) AS visits FROM visits", valueExpr, trackingSelect())
	appendVisitScope(&sb, &args, p)
	fmt.Fprintf(&sb, " GROUP BY %s, %s", valueExpr, strings.Join(trackingColumns, ", "))

	return QueryPlan{SQL: sb.String(), Args: args}
}

// BuildVisitorTouchQuery returns the distinct (bucketed value, visitor)
// pairs in scope, the exposure set for visitor-based attribution.
func BuildVisitorTouchQuery(p ReportParams, c dimensions.Classification) QueryPlan {
	var sb strings.Builder
	args := make([]interface{}, 0, 4)

	fmt.Fprintf(&sb, "SELECT DISTINCT %s AS value, visitor_id FROM visits",
		visitValueExpr(c.Dimension.VisitColumn))
	appendVisitScope(&sb, &args, p)
	sb.WriteString(" AND visitor_id <> ''")

	return QueryPlan{SQL: sb.String(), Args: args}
}

// BuildDirectConversionQuery groups CRM conversions by the dimension's own
// CRM column, bucketing unknowns the same way the visit side does.
func BuildDirectConversionQuery(p ReportParams, c dimensions.Classification) QueryPlan {
	valueExpr := crmValueExpr(c.Dimension.CRMColumn)

	var sb strings.Builder
	args := make([]interface{}, 0, 4)

	fmt.Fprintf(&sb, "SELECT %s AS value, SUM(is_trial) AS trials, SUM(is_approved) AS approved FROM orders",
		valueExpr)
	appendCRMScope(&sb, &args, p)
	fmt.Fprintf(&sb, " GROUP BY %s", valueExpr)

	return QueryPlan{SQL: sb.String(), Args: args}
}

// BuildConversionComboQuery returns CRM conversion totals per raw tracking
// tuple, for key-based proportional matching.
func BuildConversionComboQuery(p ReportParams, c dimensions.Classification) QueryPlan {
	var sb strings.Builder
	args := make([]interface{}, 0, 4)

	fmt.Fprintf(&sb, "SELECT %s, SUM(is_trial) AS trials, SUM(is_approved) AS approved FROM orders",
		trackingSelect())
	appendCRMScope(&sb, &args, p)
	fmt.Fprintf(&sb, " GROUP BY %s", strings.Join(trackingColumns, ", "))

	return QueryPlan{SQL: sb.String(), Args: args}
}

// BuildVisitorConversionQuery returns CRM conversion totals per visitor.
// Orders without a visitor id cannot be matched and are excluded here
// rather than after the transfer.
func BuildVisitorConversionQuery(p ReportParams, c dimensions.Classification) QueryPlan {
	var sb strings.Builder
	args := make([]interface{}, 0, 4)

	sb.WriteString("SELECT visitor_id, SUM(is_trial) AS trials, SUM(is_approved) AS approved FROM orders")
	appendCRMScope(&sb, &args, p)
	sb.WriteString(" AND visitor_id IS NOT NULL AND visitor_id <> '' GROUP BY visitor_id")

	return QueryPlan{SQL: sb.String(), Args: args}
}
