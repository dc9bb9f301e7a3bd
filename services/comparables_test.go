package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"appraisal-analytics/models"
)

func comparablePool() []models.Property {
	return []models.Property{baseHome(), distantHome(), closeHome(), condoHome(), bareHome()}
}

func ids(results []models.ComparablePropertyResult) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Property.ID
	}
	return out
}

func TestFindExcludesBaseAndSorts(t *testing.T) {
	sel := newTestSelector()
	base := baseHome()

	results := sel.Find(&base, comparablePool(), nil, 10)

	require.Len(t, results, 4)
	assert.NotContains(t, ids(results), "base")
	assert.Equal(t, "close", results[0].Property.ID)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].SimilarityScore, results[i].SimilarityScore)
	}
}

func TestFindRespectsMaxResults(t *testing.T) {
	sel := newTestSelector()
	base := baseHome()

	results := sel.Find(&base, comparablePool(), nil, 1)
	require.Len(t, results, 1)
	assert.Equal(t, "close", results[0].Property.ID)

	// a non-positive limit falls back to the default
	many := make([]models.Property, 0, 12)
	for i := 0; i < 12; i++ {
		p := closeHome()
		p.ID = string(rune('a' + i))
		many = append(many, p)
	}
	assert.Len(t, sel.Find(&base, many, nil, 0), DefaultMaxComparables)
}

func TestFindDifferences(t *testing.T) {
	sel := newTestSelector()
	base := baseHome()

	results := sel.Find(&base, []models.Property{closeHome(), bareHome()}, nil, 5)
	require.Len(t, results, 2)

	near := results[0]
	require.NotNil(t, near.PriceDifference)
	require.NotNil(t, near.SizeDifference)
	require.NotNil(t, near.DistanceKm)
	assert.InDelta(t, 20000, *near.PriceDifference, 1e-9)
	assert.InDelta(t, 100, *near.SizeDifference, 1e-9)
	assert.Less(t, *near.DistanceKm, 1.0)

	bare := results[1]
	assert.Nil(t, bare.PriceDifference)
	assert.Nil(t, bare.SizeDifference)
	assert.Nil(t, bare.DistanceKm)
	assert.Equal(t, 0.0, bare.SimilarityScore)
}

func TestFindFilters(t *testing.T) {
	tests := []struct {
		name    string
		filters *models.ComparableFilters
		want    []string
	}{
		{
			name:    "same neighborhood",
			filters: &models.ComparableFilters{SameNeighborhood: true},
			want:    []string{"close", "condo", "bare"},
		},
		{
			name:    "max distance",
			filters: &models.ComparableFilters{MaxDistanceKm: models.Float(5)},
			want:    []string{"close", "condo", "bare"},
		},
		{
			name:    "property type",
			filters: &models.ComparableFilters{PropertyType: "condo"},
			want:    []string{"condo", "bare"},
		},
		{
			name:    "bedroom range",
			filters: &models.ComparableFilters{Bedrooms: &models.IntRange{Min: models.Int(4)}},
			want:    []string{"distant", "bare"},
		},
		{
			name:    "value range",
			filters: &models.ComparableFilters{Value: &models.FloatRange{Max: models.Float(600000)}},
			want:    []string{"close", "condo", "bare"},
		},
		{
			name: "year built range",
			filters: &models.ComparableFilters{
				YearBuilt: &models.IntRange{Min: models.Int(1990), Max: models.Int(2005)},
			},
			want: []string{"close", "bare"},
		},
	}

	sel := newTestSelector()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := baseHome()
			got := sel.Find(&base, comparablePool(), tt.filters, 10)
			assert.ElementsMatch(t, tt.want, ids(got))
		})
	}
}

func TestFindStableTies(t *testing.T) {
	sel := newTestSelector()
	base := baseHome()

	first := closeHome()
	first.ID = "twin-a"
	second := closeHome()
	second.ID = "twin-b"
	third := closeHome()
	third.ID = "twin-c"

	got := sel.Find(&base, []models.Property{first, second, third}, nil, 5)
	assert.Equal(t, []string{"twin-a", "twin-b", "twin-c"}, ids(got))
}

func TestFindDoesNotMutateInput(t *testing.T) {
	sel := newTestSelector()
	base := baseHome()
	pool := comparablePool()
	pool[2].ValueHistory = models.ValueHistory{"2020": "480000"}
	before := make([]models.Property, len(pool))
	for i := range pool {
		before[i] = pool[i].Clone()
	}

	results := sel.Find(&base, pool, nil, 10)
	results[0].Property.ValueHistory["2020"] = "1"

	assert.Equal(t, before, pool)
}

func TestFindEmptyPool(t *testing.T) {
	sel := newTestSelector()
	base := baseHome()

	got := sel.Find(&base, nil, nil, 5)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	got = sel.Find(&base, []models.Property{baseHome()}, nil, 5)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
