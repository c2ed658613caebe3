package evaluation

import "sort"

// FeatureScore pairs a feature name with its importance.
type FeatureScore struct {
	Name  string  `yaml:"name" json:"name"`
	Score float64 `yaml:"score" json:"score"`
}

// RankImportances sorts features by descending score. Equal scores keep the
// original column order.
func RankImportances(names []string, scores []float64) []FeatureScore {
	n := min(len(names), len(scores))
	out := make([]FeatureScore, n)
	for i := 0; i < n; i++ {
		out[i] = FeatureScore{Name: names[i], Score: scores[i]}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Score > out[b].Score })
	return out
}

// TopN returns the names of the first n ranked features.
func TopN(ranked []FeatureScore, n int) []string {
	n = min(n, len(ranked))
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = ranked[i].Name
	}
	return out
}
