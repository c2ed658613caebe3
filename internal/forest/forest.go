package forest

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
)

// RandomForest is a bagged ensemble of DecisionTree classifiers.
type RandomForest struct {
	// Hyperparameters / options
	NEstimators     int
	MaxDepth        int
	MinSamplesSplit int
	MinSamplesLeaf  int
	MaxFeatures     int // 0 => floor(sqrt(p))
	Bootstrap       bool
	RandomState     int64
	Workers         int

	// Internal state
	trees       []*DecisionTree
	classes     []int
	nFeatures   int
	importances []float64
}

// Option functional config for RandomForest
type Option func(*RandomForest)

func WithNEstimators(n int) Option   { return func(rf *RandomForest) { rf.NEstimators = n } }
func WithMaxDepth(d int) Option      { return func(rf *RandomForest) { rf.MaxDepth = d } }
func WithMaxFeatures(k int) Option   { return func(rf *RandomForest) { rf.MaxFeatures = k } }
func WithBootstrap(b bool) Option    { return func(rf *RandomForest) { rf.Bootstrap = b } }
func WithRandomState(s int64) Option { return func(rf *RandomForest) { rf.RandomState = s } }
func WithWorkers(n int) Option       { return func(rf *RandomForest) { rf.Workers = n } }

// New initializes the forest with sklearn-like defaults and seed 0.
func New(opts ...Option) *RandomForest {
	rf := &RandomForest{
		NEstimators:     100,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		Bootstrap:       true,
		Workers:         runtime.GOMAXPROCS(0),
	}
	for _, o := range opts {
		o(rf)
	}
	return rf
}

// Fit trains the forest. Tree i draws its bootstrap sample and feature subsets
// from a source seeded with RandomState+i, so the fitted forest does not depend
// on scheduling.
func (rf *RandomForest) Fit(ctx context.Context, X [][]float64, y []int) error {
	if len(X) == 0 {
		return errors.New("randomforest: empty X")
	}
	n := len(X)
	if len(y) != n {
		return errors.New("randomforest: X and y length mismatch")
	}
	if rf.NEstimators <= 0 {
		return fmt.Errorf("randomforest: n_estimators must be positive, got %d", rf.NEstimators)
	}
	p := len(X[0])
	for i := range X {
		if len(X[i]) != p {
			return fmt.Errorf("randomforest: row %d has %d features, want %d", i, len(X[i]), p)
		}
	}

	rf.classes = uniqueSorted(y)
	classIdx := make(map[int]int, len(rf.classes))
	for i, c := range rf.classes {
		classIdx[c] = i
	}
	yi := make([]int, n)
	for i, lab := range y {
		yi[i] = classIdx[lab]
	}
	rf.nFeatures = p
	maxFeatures := rf.MaxFeatures
	if maxFeatures <= 0 {
		maxFeatures = max(1, int(math.Sqrt(float64(p))))
	}

	trees := make([]*DecisionTree, rf.NEstimators)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, rf.Workers))
	for i := 0; i < rf.NEstimators; i++ {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rnd := rand.New(rand.NewSource(rf.RandomState + int64(i)))
			sample := make([]int, n)
			for j := range sample {
				if rf.Bootstrap {
					sample[j] = rnd.Intn(n)
				} else {
					sample[j] = j
				}
			}
			tree := &DecisionTree{
				MaxDepth:        rf.MaxDepth,
				MinSamplesSplit: rf.MinSamplesSplit,
				MinSamplesLeaf:  rf.MinSamplesLeaf,
				MaxFeatures:     maxFeatures,
			}
			if err := tree.Fit(X, yi, len(rf.classes), sample, rnd); err != nil {
				return fmt.Errorf("tree %d: %w", i, err)
			}
			trees[i] = tree
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	rf.trees = trees
	rf.importances = rf.aggregateImportances()
	return nil
}

// PredictProba returns per-class probabilities averaged over trees. Columns
// follow Classes().
func (rf *RandomForest) PredictProba(X [][]float64) [][]float64 {
	out := make([][]float64, len(X))
	for i, x := range X {
		acc := make([]float64, len(rf.classes))
		for _, t := range rf.trees {
			floats.Add(acc, t.PredictProba(x))
		}
		if len(rf.trees) > 0 {
			floats.Scale(1/float64(len(rf.trees)), acc)
		}
		out[i] = acc
	}
	return out
}

// Predict returns the class with the highest averaged probability; ties go to
// the smaller class label.
func (rf *RandomForest) Predict(X [][]float64) []int {
	proba := rf.PredictProba(X)
	out := make([]int, len(X))
	for i, p := range proba {
		best := 0
		for c := 1; c < len(p); c++ {
			if p[c] > p[best] {
				best = c
			}
		}
		out[i] = rf.classes[best]
	}
	return out
}

// FeatureImportances returns mean-decrease-in-impurity scores aligned to the
// training feature order. They sum to 1 unless no tree ever split.
func (rf *RandomForest) FeatureImportances() []float64 {
	return append([]float64(nil), rf.importances...)
}

// Classes returns the sorted class labels seen during Fit.
func (rf *RandomForest) Classes() []int { return append([]int(nil), rf.classes...) }

// Trees returns the number of fitted trees.
func (rf *RandomForest) Trees() int { return len(rf.trees) }

func (rf *RandomForest) aggregateImportances() []float64 {
	total := make([]float64, rf.nFeatures)
	for _, t := range rf.trees {
		imp := append([]float64(nil), t.importances...)
		if s := floats.Sum(imp); s > 0 {
			floats.Scale(1/s, imp)
			floats.Add(total, imp)
		}
	}
	if s := floats.Sum(total); s > 0 {
		floats.Scale(1/s, total)
	}
	return total
}

func uniqueSorted(y []int) []int {
	seen := map[int]struct{}{}
	var out []int
	for _, v := range y {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	sort.Ints(out)
	return out
}
