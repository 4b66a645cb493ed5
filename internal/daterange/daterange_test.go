package daterange_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adima959/vl-marketing-tool-sub006/internal/daterange"
)

func TestParse(t *testing.T) {
	r, err := daterange.Parse("2026-03-01", "2026-03-31")
	require.NoError(t, err)

	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), r.Start)
	assert.Equal(t, time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC), r.End)
	assert.Equal(t, 31, r.Days())
}

func TestParseSingleDayRange(t *testing.T) {
	r, err := daterange.Parse("2026-03-15", "2026-03-15")
	require.NoError(t, err)
	assert.Equal(t, 1, r.Days())
}

func TestParseRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		from string
		to   string
	}{
		{"empty from", "", "2026-03-31"},
		{"empty to", "2026-03-01", ""},
		{"malformed from", "03/01/2026", "2026-03-31"},
		{"malformed to", "2026-03-01", "last tuesday"},
		{"reversed range", "2026-03-31", "2026-03-01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := daterange.Parse(tt.from, tt.to)
			assert.ErrorIs(t, err, daterange.ErrInvalidRange)
		})
	}
}

func TestVisitBounds(t *testing.T) {
	r, err := daterange.Parse("2026-03-01", "2026-03-02")
	require.NoError(t, err)

	from, to := r.VisitBounds()
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2026, 3, 2, 23, 59, 59, 0, time.UTC), to)
}

func TestCRMBounds(t *testing.T) {
	r, err := daterange.Parse("2026-03-01", "2026-03-02")
	require.NoError(t, err)

	from, to := r.CRMBounds()
	assert.Equal(t, "2026-03-01", from)
	assert.Equal(t, "2026-03-02", to)
}

func TestParseInHonorsLocation(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Madrid")
	require.NoError(t, err)

	r, err := daterange.ParseIn("2026-03-01", "2026-03-01", loc)
	require.NoError(t, err)

	from, to := r.VisitBounds()
	assert.Equal(t, loc, from.Location())
	assert.True(t, to.After(from))

	// CRM boundaries stay date-only regardless of location.
	crmFrom, crmTo := r.CRMBounds()
	assert.Equal(t, "2026-03-01", crmFrom)
	assert.Equal(t, "2026-03-01", crmTo)
}
