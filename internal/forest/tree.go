package forest

import (
	"errors"
	"math"
	"math/rand"
	"sort"
)

// DecisionTree is a CART classifier using gini impurity and numeric thresholds.
// Labels are class indices in [0, nClasses).
type DecisionTree struct {
	MaxDepth        int // 0 => no limit
	MinSamplesSplit int
	MinSamplesLeaf  int
	MaxFeatures     int // 0 => all features

	nClasses    int
	nFeatures   int
	nodes       []node
	importances []float64 // raw impurity decrease per feature
}

type node struct {
	leaf      bool
	feature   int
	threshold float64 // x <= threshold goes left
	nanLeft   bool    // where missing values go
	left      int
	right     int
	probas    []float64
}

// splitCandidate is the best split found for one feature.
type splitCandidate struct {
	feature   int
	threshold float64
	nanLeft   bool
	gain      float64
	impL      float64
	impR      float64
	nL, nR    int
}

// NewDecisionTree returns a tree with sklearn-like defaults.
func NewDecisionTree() *DecisionTree {
	return &DecisionTree{MinSamplesSplit: 2, MinSamplesLeaf: 1}
}

// Fit grows the tree on the rows of X selected by idx. idx may repeat rows
// (bootstrap samples). rnd drives feature subsampling.
func (t *DecisionTree) Fit(X [][]float64, y []int, nClasses int, idx []int, rnd *rand.Rand) error {
	if len(X) == 0 || len(idx) == 0 {
		return errors.New("dtree: empty X")
	}
	if len(y) != len(X) {
		return errors.New("dtree: X and y length mismatch")
	}
	if nClasses <= 0 {
		return errors.New("dtree: no classes in y")
	}
	t.nClasses = nClasses
	t.nFeatures = len(X[0])
	t.nodes = t.nodes[:0]
	t.importances = make([]float64, t.nFeatures)
	if t.MinSamplesSplit < 2 {
		t.MinSamplesSplit = 2
	}
	if t.MinSamplesLeaf < 1 {
		t.MinSamplesLeaf = 1
	}
	work := append([]int(nil), idx...)
	t.build(X, y, work, 0, rnd)
	return nil
}

// build appends the subtree for idx and returns its node index.
func (t *DecisionTree) build(X [][]float64, y []int, idx []int, depth int, rnd *rand.Rand) int {
	counts := make([]int, t.nClasses)
	for _, i := range idx {
		counts[y[i]]++
	}
	self := len(t.nodes)
	t.nodes = append(t.nodes, node{})

	if isPure(counts) || len(idx) < t.MinSamplesSplit || (t.MaxDepth > 0 && depth >= t.MaxDepth) {
		t.nodes[self] = node{leaf: true, probas: countsToProbas(counts)}
		return self
	}

	parentImp := gini(counts, len(idx))
	best := splitCandidate{feature: -1}
	for _, f := range t.candidateFeatures(rnd) {
		c := t.bestSplit(X, y, idx, f, parentImp)
		if c.feature >= 0 && c.gain > best.gain {
			best = c
		}
	}
	if best.feature < 0 || best.gain <= 0 {
		t.nodes[self] = node{leaf: true, probas: countsToProbas(counts)}
		return self
	}

	n := float64(len(idx))
	t.importances[best.feature] += n*parentImp - float64(best.nL)*best.impL - float64(best.nR)*best.impR

	leftIdx := make([]int, 0, best.nL)
	rightIdx := make([]int, 0, best.nR)
	for _, i := range idx {
		if goesLeft(X[i][best.feature], best.threshold, best.nanLeft) {
			leftIdx = append(leftIdx, i)
		} else {
			rightIdx = append(rightIdx, i)
		}
	}
	l := t.build(X, y, leftIdx, depth+1, rnd)
	r := t.build(X, y, rightIdx, depth+1, rnd)
	t.nodes[self] = node{
		feature:   best.feature,
		threshold: best.threshold,
		nanLeft:   best.nanLeft,
		left:      l,
		right:     r,
	}
	return self
}

// candidateFeatures draws MaxFeatures features without replacement.
func (t *DecisionTree) candidateFeatures(rnd *rand.Rand) []int {
	p := t.nFeatures
	feats := make([]int, p)
	for j := range feats {
		feats[j] = j
	}
	k := t.MaxFeatures
	if k <= 0 || k >= p {
		return feats
	}
	for i := 0; i < k; i++ {
		j := i + rnd.Intn(p-i)
		feats[i], feats[j] = feats[j], feats[i]
	}
	return feats[:k]
}

type valLabel struct {
	v   float64
	lab int
}

// bestSplit scans the sorted values of feature f once, keeping running class
// counts, and tries missing values on either side.
func (t *DecisionTree) bestSplit(X [][]float64, y []int, idx []int, f int, parentImp float64) splitCandidate {
	best := splitCandidate{feature: -1}
	valid := make([]valLabel, 0, len(idx))
	nanCounts := make([]int, t.nClasses)
	nNaN := 0
	for _, i := range idx {
		v := X[i][f]
		if math.IsNaN(v) {
			nanCounts[y[i]]++
			nNaN++
			continue
		}
		valid = append(valid, valLabel{v, y[i]})
	}
	if len(valid) < 2 {
		return best
	}
	sort.Slice(valid, func(a, b int) bool { return valid[a].v < valid[b].v })

	total := make([]int, t.nClasses)
	for _, p := range valid {
		total[p.lab]++
	}
	n := len(idx)
	left := make([]int, t.nClasses)
	lc := make([]int, t.nClasses)
	rc := make([]int, t.nClasses)
	for s := 1; s < len(valid); s++ {
		left[valid[s-1].lab]++
		if valid[s].v == valid[s-1].v {
			continue
		}
		thr := (valid[s-1].v + valid[s].v) / 2
		for _, nanLeft := range []bool{false, true} {
			if nanLeft && nNaN == 0 {
				break
			}
			nL, nR := s, len(valid)-s
			for c := range lc {
				lc[c] = left[c]
				rc[c] = total[c] - left[c]
			}
			if nanLeft {
				nL += nNaN
				for c := range lc {
					lc[c] += nanCounts[c]
				}
			} else {
				nR += nNaN
				for c := range rc {
					rc[c] += nanCounts[c]
				}
			}
			if nL < t.MinSamplesLeaf || nR < t.MinSamplesLeaf {
				continue
			}
			impL := gini(lc, nL)
			impR := gini(rc, nR)
			gain := parentImp - (float64(nL)*impL+float64(nR)*impR)/float64(n)
			if gain > best.gain {
				best = splitCandidate{feature: f, threshold: thr, nanLeft: nanLeft, gain: gain, impL: impL, impR: impR, nL: nL, nR: nR}
			}
		}
	}
	return best
}

// PredictProba returns the leaf class distribution for x.
func (t *DecisionTree) PredictProba(x []float64) []float64 {
	if len(t.nodes) == 0 {
		p := make([]float64, t.nClasses)
		for i := range p {
			p[i] = 1 / float64(len(p))
		}
		return p
	}
	i := 0
	for !t.nodes[i].leaf {
		nd := t.nodes[i]
		if goesLeft(x[nd.feature], nd.threshold, nd.nanLeft) {
			i = nd.left
		} else {
			i = nd.right
		}
	}
	return t.nodes[i].probas
}

// Depth returns the depth of the fitted tree (a single leaf has depth 0).
func (t *DecisionTree) Depth() int {
	if len(t.nodes) == 0 {
		return 0
	}
	var walk func(i int) int
	walk = func(i int) int {
		if t.nodes[i].leaf {
			return 0
		}
		return 1 + max(walk(t.nodes[i].left), walk(t.nodes[i].right))
	}
	return walk(0)
}

func goesLeft(v, threshold float64, nanLeft bool) bool {
	if math.IsNaN(v) {
		return nanLeft
	}
	return v <= threshold
}

func gini(counts []int, n int) float64 {
	if n == 0 {
		return 0
	}
	res := 1.0
	for _, c := range counts {
		p := float64(c) / float64(n)
		res -= p * p
	}
	return res
}

func isPure(counts []int) bool {
	nonZero := 0
	for _, c := range counts {
		if c > 0 {
			nonZero++
		}
	}
	return nonZero <= 1
}

func countsToProbas(counts []int) []float64 {
	n := 0
	for _, c := range counts {
		n += c
	}
	p := make([]float64, len(counts))
	if n == 0 {
		return p
	}
	for i, c := range counts {
		p[i] = float64(c) / float64(n)
	}
	return p
}
