package dataset

import (
	"math"
	"math/rand"
)

// Split holds disjoint row indices of the train and test partitions.
type Split struct {
	Train []int
	Test  []int
}

// SplitIndices shuffles 0..n-1 with a seeded source and takes the first
// ceil(n*testSize) positions as the test partition. The same n, testSize and
// seed always produce the same partitions.
func SplitIndices(n int, testSize float64, seed int64) Split {
	if n <= 0 {
		return Split{}
	}
	nTest := int(math.Ceil(float64(n) * testSize))
	if n >= 2 {
		nTest = min(max(nTest, 1), n-1)
	} else {
		nTest = 0
	}
	perm := rand.New(rand.NewSource(seed)).Perm(n)
	s := Split{
		Test:  append([]int(nil), perm[:nTest]...),
		Train: append([]int(nil), perm[nTest:]...),
	}
	return s
}

// Take selects rows of X and y by index.
func Take(X [][]float64, y []int, idx []int) ([][]float64, []int) {
	xs := make([][]float64, len(idx))
	ys := make([]int, len(idx))
	for k, i := range idx {
		xs[k] = X[i]
		ys[k] = y[i]
	}
	return xs, ys
}
