package tableprof

import (
	"sort"

	"github.com/studioevoque/tableprof/profile"
	"github.com/studioevoque/tableprof/profile/sketch"
)

// FeatureType is the recommended ML treatment of a feature.
type FeatureType string

const (
	BinaryFeature    FeatureType = "binary"
	CategoryFeature  FeatureType = "category"
	NumberFeature    FeatureType = "number"
	TextFeature      FeatureType = "text"
	DateFeature      FeatureType = "date"
	TimestampFeature FeatureType = "timestamp"
)

// Map of inferred value types to feature types, for the cases that do
// not depend on cardinality.
var featureTypeMap = map[sketch.ValueType]FeatureType{
	sketch.BoolType:     BinaryFeature,
	sketch.FloatType:    NumberFeature,
	sketch.DateType:     DateFeature,
	sketch.DateTimeType: TimestampFeature,
}

// A column whose distinct values cover at most this share of its rows
// is treated as categorical rather than free text.
const categoryDistinctRatio = 0.5

// maxCategoryCardinality caps how many distinct values a categorical
// feature may have before it is demoted to text.
const maxCategoryCardinality = 10000

// FeatureRecommendation is the suggested configuration for one feature.
type FeatureRecommendation struct {
	Name string      `json:"name"`
	Type FeatureType `json:"type"`

	// Nullable reports that the column contains missing values and
	// needs a fill strategy.
	Nullable bool `json:"nullable"`

	// FillWith is the suggested missing-value strategy: the running
	// mean for numbers, the most frequent value otherwise. Empty when
	// the column has no nulls.
	FillWith string `json:"fill_with,omitempty"`

	// Distinct is the estimated distinct-value count behind the
	// decision.
	Distinct uint64 `json:"distinct"`
}

// Recommendation maps every profiled feature to a suggested type
// assignment for a training pipeline.
type Recommendation struct {
	SessionID   string                            `json:"session_id"`
	NumExamples int64                             `json:"num_examples"`
	Features    map[string]*FeatureRecommendation `json:"features"`
}

// Recommend derives feature-type assignments from a finalized profile.
func Recommend(p *profile.DatasetProfile) *Recommendation {
	rec := &Recommendation{
		SessionID:   p.SessionID,
		NumExamples: p.NumExamples,
		Features:    make(map[string]*FeatureRecommendation, len(p.Features)),
	}

	for name, f := range p.Features {
		rec.Features[name] = recommendFeature(name, f.Sketch.Snapshot())
	}

	return rec
}

func recommendFeature(name string, snap sketch.Snapshot) *FeatureRecommendation {
	r := &FeatureRecommendation{
		Name:     name,
		Type:     featureType(snap),
		Nullable: snap.NullCount > 0,
		Distinct: snap.DistinctCount,
	}

	if r.Nullable {
		r.FillWith = fillStrategy(r.Type)
	}

	return r
}

func featureType(snap sketch.Snapshot) FeatureType {
	// Two observed values is a binary feature no matter the type.
	if nonNull := snap.Count - snap.NullCount; nonNull > 0 && snap.DistinctCount <= 2 {
		return BinaryFeature
	}

	if t, ok := featureTypeMap[snap.InferredType]; ok {
		return t
	}

	switch snap.InferredType {
	case sketch.IntType:
		return NumberFeature

	case sketch.StringType, sketch.BinaryType:
		nonNull := snap.Count - snap.NullCount
		if nonNull > 0 &&
			snap.DistinctCount <= maxCategoryCardinality &&
			float64(snap.DistinctCount) <= categoryDistinctRatio*float64(nonNull) {
			return CategoryFeature
		}

		return TextFeature
	}

	return TextFeature
}

func fillStrategy(t FeatureType) string {
	if t == NumberFeature {
		return "fill_with_mean"
	}

	return "fill_with_mode"
}

// SortedFeatures returns the recommendations in name order, for stable
// presentation.
func (r *Recommendation) SortedFeatures() []*FeatureRecommendation {
	out := make([]*FeatureRecommendation, 0, len(r.Features))
	for _, f := range r.Features {
		out = append(out, f)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	return out
}
