package tracking_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/adima959/vl-marketing-tool-sub006/internal/tracking"
)

func TestBuildKey(t *testing.T) {
	tests := []struct {
		name     string
		tuple    tracking.Tuple
		exclude  tracking.FieldSet
		expected string
	}{
		{
			name:     "full tuple no exclusions",
			tuple:    tracking.Tuple{"google", "c1", "a1", "x1"},
			exclude:  nil,
			expected: "google::c1::a1::x1",
		},
		{
			name:     "null literal collapses to empty segment",
			tuple:    tracking.Tuple{"google", "null", "a1", "x1"},
			exclude:  nil,
			expected: "google::::a1::x1",
		},
		{
			name:     "uppercase null literal collapses too",
			tuple:    tracking.Tuple{"google", "NULL", "a1", "x1"},
			exclude:  nil,
			expected: "google::::a1::x1",
		},
		{
			name:     "deliberately blank segment is preserved",
			tuple:    tracking.Tuple{"google", "", "a1", "x1"},
			exclude:  nil,
			expected: "google::::a1::x1",
		},
		{
			name:     "excluded field is omitted not blanked",
			tuple:    tracking.Tuple{"google", "c1", "a1", "x1"},
			exclude:  tracking.NewFieldSet(tracking.FieldCampaign),
			expected: "google::a1::x1",
		},
		{
			name:     "multiple exclusions",
			tuple:    tracking.Tuple{"google", "c1", "a1", "x1"},
			exclude:  tracking.NewFieldSet(tracking.FieldNetwork, tracking.FieldCampaign),
			expected: "a1::x1",
		},
		{
			name:     "all fields excluded yields empty key",
			tuple:    tracking.Tuple{"google", "c1", "a1", "x1"},
			exclude:  tracking.NewFieldSet(tracking.FieldNetwork, tracking.FieldCampaign, tracking.FieldAdset, tracking.FieldCreative),
			expected: "",
		},
		{
			name:     "surrounding whitespace is trimmed",
			tuple:    tracking.Tuple{" google ", "c1", "a1", "x1"},
			exclude:  nil,
			expected: "google::c1::a1::x1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tracking.BuildKey(tt.tuple, tt.exclude))
		})
	}
}

func TestBuildKeyNullEquivalence(t *testing.T) {
	withNulls := tracking.BuildKey(tracking.Tuple{"", "null", "x", "y"}, nil)
	withBlanks := tracking.BuildKey(tracking.Tuple{"", "", "x", "y"}, nil)
	assert.Equal(t, withBlanks, withNulls)
}

func TestBuildKeyIsDeterministic(t *testing.T) {
	tuple := tracking.Tuple{"fb", "summer", "broad", "vid-01"}
	exclude := tracking.NewFieldSet(tracking.FieldAdset)

	first := tracking.BuildKey(tuple, exclude)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, tracking.BuildKey(tuple, exclude))
	}
}

func TestBuildKeySegmentMonotonicity(t *testing.T) {
	tuples := []tracking.Tuple{
		{"google", "c1", "a1", "x1"},
		{"", "null", "", "x1"},
		{"fb", "", "a2", ""},
	}

	// Each set extends the previous one, so segment counts must not grow.
	exclusionChain := []tracking.FieldSet{
		tracking.NewFieldSet(),
		tracking.NewFieldSet(tracking.FieldNetwork),
		tracking.NewFieldSet(tracking.FieldNetwork, tracking.FieldAdset),
		tracking.NewFieldSet(tracking.FieldNetwork, tracking.FieldAdset, tracking.FieldCampaign),
		tracking.NewFieldSet(tracking.FieldNetwork, tracking.FieldAdset, tracking.FieldCampaign, tracking.FieldCreative),
	}

	for _, tuple := range tuples {
		prev := tracking.KeySegments(tracking.BuildKey(tuple, exclusionChain[0]))
		for _, exclude := range exclusionChain[1:] {
			current := tracking.KeySegments(tracking.BuildKey(tuple, exclude))
			assert.LessOrEqual(t, current, prev)
			prev = current
		}
	}
}

func TestKeySegments(t *testing.T) {
	assert.Equal(t, 0, tracking.KeySegments(""))
	assert.Equal(t, 1, tracking.KeySegments("google"))
	assert.Equal(t, 2, tracking.KeySegments("google::c1"))
	assert.Equal(t, 4, tracking.KeySegments("::::::"))
}

func TestFieldSetSegmentCount(t *testing.T) {
	assert.Equal(t, 4, tracking.FieldSet(nil).SegmentCount())
	assert.Equal(t, 3, tracking.NewFieldSet(tracking.FieldCampaign).SegmentCount())
	assert.Equal(t, 0, tracking.NewFieldSet(
		tracking.FieldNetwork, tracking.FieldCampaign, tracking.FieldAdset, tracking.FieldCreative,
	).SegmentCount())
}
