package reports_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adima959/vl-marketing-tool-sub006/internal/reports"
	"github.com/adima959/vl-marketing-tool-sub006/internal/tracking"
)

func TestMatchProportionalSplitsByVisitShare(t *testing.T) {
	convs := []reports.ConversionAggregate{
		{Key: "google::c1::a1::x1", Trials: 10, Approved: 7},
	}
	visits := []reports.VisitAggregate{
		{DimensionValue: "landing-a", Key: "google::c1::a1::x1", VisitCount: 60},
		{DimensionValue: "landing-b", Key: "google::c1::a1::x1", VisitCount: 40},
	}

	credit, err := reports.MatchProportional(convs, visits, tracking.NewFieldSet())
	require.NoError(t, err)
	require.Len(t, credit, 2)

	assert.InDelta(t, 6.0, credit["landing-a"].Trials, 1e-9)
	assert.InDelta(t, 4.2, credit["landing-a"].Approved, 1e-9)
	assert.InDelta(t, 4.0, credit["landing-b"].Trials, 1e-9)
	assert.InDelta(t, 2.8, credit["landing-b"].Approved, 1e-9)
}

func TestMatchProportionalConservesTotals(t *testing.T) {
	exclude := tracking.NewFieldSet()
	exclude.Add(tracking.FieldCampaign)

	convs := []reports.ConversionAggregate{
		{Key: "google::a1::x1", Trials: 9, Approved: 5},
		{Key: "facebook::a2::x2", Trials: 4, Approved: 4},
	}
	visits := []reports.VisitAggregate{
		{DimensionValue: "c1", Key: "google::a1::x1", VisitCount: 1},
		{DimensionValue: "c2", Key: "google::a1::x1", VisitCount: 2},
		{DimensionValue: "c3", Key: "facebook::a2::x2", VisitCount: 7},
	}

	credit, err := reports.MatchProportional(convs, visits, exclude)
	require.NoError(t, err)

	var trials, approved float64
	for _, stats := range credit {
		trials += stats.Trials
		approved += stats.Approved
	}
	assert.InDelta(t, 13.0, trials, 1e-9)
	assert.InDelta(t, 9.0, approved, 1e-9)
}

func TestMatchProportionalSkipsKeysWithoutVisits(t *testing.T) {
	exclude := tracking.NewFieldSet()
	exclude.Add(tracking.FieldCampaign)

	convs := []reports.ConversionAggregate{
		{Key: "google::a1::x1", Trials: 10, Approved: 10},
		{Key: "bing::a9::x9", Trials: 50, Approved: 50},
	}
	visits := []reports.VisitAggregate{
		{DimensionValue: "c1", Key: "google::a1::x1", VisitCount: 5},
	}

	credit, err := reports.MatchProportional(convs, visits, exclude)
	require.NoError(t, err)

	// The bing conversions have no visit weight anywhere and vanish instead
	// of being spread evenly.
	require.Len(t, credit, 1)
	assert.InDelta(t, 10.0, credit["c1"].Trials, 1e-9)
}

func TestMatchProportionalRejectsArityMismatch(t *testing.T) {
	exclude := tracking.NewFieldSet()
	exclude.Add(tracking.FieldCampaign)

	t.Run("conversion side", func(t *testing.T) {
		convs := []reports.ConversionAggregate{{Key: "google::c1::a1::x1", Trials: 1}}
		_, err := reports.MatchProportional(convs, nil, exclude)
		require.ErrorIs(t, err, reports.ErrKeyArityMismatch)
	})

	t.Run("visit side", func(t *testing.T) {
		visits := []reports.VisitAggregate{{DimensionValue: "c1", Key: "google", VisitCount: 1}}
		_, err := reports.MatchProportional(nil, visits, exclude)
		require.ErrorIs(t, err, reports.ErrKeyArityMismatch)
	})
}

func TestMatchProportionalFoldsUnknownBuckets(t *testing.T) {
	convs := []reports.ConversionAggregate{
		{Key: "google::c1::a1::x1", Trials: 8},
	}
	visits := []reports.VisitAggregate{
		{DimensionValue: "", Key: "google::c1::a1::x1", VisitCount: 1},
		{DimensionValue: "NULL", Key: "google::c1::a1::x1", VisitCount: 1},
	}

	credit, err := reports.MatchProportional(convs, visits, tracking.NewFieldSet())
	require.NoError(t, err)

	require.Len(t, credit, 1)
	assert.InDelta(t, 8.0, credit["unknown"].Trials, 1e-9)
}

func TestMatchVisitorBasedSplitsEvenly(t *testing.T) {
	convs := []reports.VisitorConversion{
		{VisitorID: "v1", Trials: 10, Approved: 4},
		{VisitorID: "v2", Trials: 3, Approved: 3},
	}
	touches := []reports.VisitorTouch{
		{DimensionValue: "desktop", VisitorID: "v1"},
		{DimensionValue: "mobile", VisitorID: "v1"},
		{DimensionValue: "desktop", VisitorID: "v2"},
	}

	credit := reports.MatchVisitorBased(convs, touches)

	require.Len(t, credit, 2)
	assert.InDelta(t, 8.0, credit["desktop"].Trials, 1e-9) // 10/2 + 3
	assert.InDelta(t, 5.0, credit["desktop"].Approved, 1e-9)
	assert.InDelta(t, 5.0, credit["mobile"].Trials, 1e-9)
	assert.InDelta(t, 2.0, credit["mobile"].Approved, 1e-9)
}

func TestMatchVisitorBasedDropsUnseenVisitors(t *testing.T) {
	convs := []reports.VisitorConversion{
		{VisitorID: "ghost", Trials: 100, Approved: 100},
	}
	touches := []reports.VisitorTouch{
		{DimensionValue: "desktop", VisitorID: "v1"},
	}

	credit := reports.MatchVisitorBased(convs, touches)
	assert.Empty(t, credit)
}

func TestMatchVisitorBasedCountsDistinctValuesOnce(t *testing.T) {
	convs := []reports.VisitorConversion{
		{VisitorID: "v1", Trials: 6},
	}
	touches := []reports.VisitorTouch{
		{DimensionValue: "desktop", VisitorID: "v1"},
		{DimensionValue: "desktop", VisitorID: "v1"},
		{DimensionValue: "mobile", VisitorID: "v1"},
	}

	credit := reports.MatchVisitorBased(convs, touches)

	// Repeated exposure to the same value does not increase its share.
	assert.InDelta(t, 3.0, credit["desktop"].Trials, 1e-9)
	assert.InDelta(t, 3.0, credit["mobile"].Trials, 1e-9)
}

func TestMatchDirectFoldsUnknownSpellings(t *testing.T) {
	convs := []reports.ValueConversion{
		{Value: "google", Trials: 2, Approved: 1},
		{Value: "", Trials: 1},
		{Value: "null", Trials: 1},
		{Value: "Unknown", Trials: 1},
	}

	credit := reports.MatchDirect(convs)

	require.Len(t, credit, 2)
	assert.InDelta(t, 2.0, credit["google"].Trials, 1e-9)
	assert.InDelta(t, 3.0, credit["unknown"].Trials, 1e-9)
}
