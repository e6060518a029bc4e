package tableprof

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studioevoque/tableprof/profile"
)

func profileOf(t *testing.T, columns map[string][]any) *profile.DatasetProfile {
	t.Helper()

	b, err := profile.NewBuilder(nil)
	require.NoError(t, err)

	var rows int
	for _, values := range columns {
		if len(values) > rows {
			rows = len(values)
		}
	}

	require.NoError(t, b.IngestBatch(profile.Batch{NumRows: rows, Columns: columns}))

	return b.Profile()
}

func TestRecommendTypes(t *testing.T) {
	// High-cardinality strings for the text case.
	text := make([]any, 40)
	for i := range text {
		text[i] = fmt.Sprintf("free form note %d about nothing in particular", i)
	}

	// Low-cardinality strings for the category case.
	category := make([]any, 40)
	for i := range category {
		category[i] = []string{"red", "green", "blue", "yellow"}[i%4]
	}

	numbers := make([]any, 40)
	flags := make([]any, 40)
	dates := make([]any, 40)
	for i := range numbers {
		numbers[i] = float64(i) * 0.5
		flags[i] = []string{"yes", "no"}[i%2]
		dates[i] = fmt.Sprintf("2024-01-%02d", i%28+1)
	}

	p := profileOf(t, map[string][]any{
		"notes":  text,
		"color":  category,
		"amount": numbers,
		"active": flags,
		"day":    dates,
	})

	rec := Recommend(p)

	assert.Equal(t, TextFeature, rec.Features["notes"].Type)
	assert.Equal(t, CategoryFeature, rec.Features["color"].Type)
	assert.Equal(t, NumberFeature, rec.Features["amount"].Type)
	assert.Equal(t, BinaryFeature, rec.Features["active"].Type)
	assert.Equal(t, DateFeature, rec.Features["day"].Type)
}

func TestRecommendBinaryFromTwoDistinct(t *testing.T) {
	values := make([]any, 20)
	for i := range values {
		values[i] = int64(i % 2)
	}

	rec := Recommend(profileOf(t, map[string][]any{"flag": values}))
	assert.Equal(t, BinaryFeature, rec.Features["flag"].Type)
}

func TestRecommendFillStrategies(t *testing.T) {
	p := profileOf(t, map[string][]any{
		"amount": {1.5, nil, 2.5, 4.0},
		"color":  {"red", "red", nil, "blue", "green"},
	})

	rec := Recommend(p)

	amount := rec.Features["amount"]
	assert.True(t, amount.Nullable)
	assert.Equal(t, "fill_with_mean", amount.FillWith)

	color := rec.Features["color"]
	assert.True(t, color.Nullable)
	assert.Equal(t, "fill_with_mode", color.FillWith)
}

func TestRecommendSortedFeatures(t *testing.T) {
	rec := Recommend(profileOf(t, map[string][]any{
		"b": {"1"},
		"a": {"2"},
	}))

	sorted := rec.SortedFeatures()
	require.Len(t, sorted, 2)
	assert.Equal(t, "a", sorted[0].Name)
	assert.Equal(t, "b", sorted[1].Name)
}
