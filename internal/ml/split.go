package ml

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// DefaultSeed makes splits reproducible across runs.
const DefaultSeed = 42

// Split holds a train/test partition.
type Split struct {
	XTrain, XTest *mat.Dense
	YTrain, YTest []int
}

// TrainTestSplit shuffles rows with a seeded source and moves ceil(n·testSize)
// of them to the test set.
func TrainTestSplit(x *mat.Dense, y []int, testSize float64, seed int64) (*Split, error) {
	if testSize < 0.1 || testSize > 0.5 {
		return nil, ErrTestSize
	}
	n, k := x.Dims()
	nTest := int(math.Ceil(float64(n) * testSize))
	if n < 2 || nTest < 1 || nTest >= n {
		return nil, ErrEmptyDataset
	}
	perm := rand.New(rand.NewSource(seed)).Perm(n)

	s := &Split{
		XTest:  mat.NewDense(nTest, k, nil),
		XTrain: mat.NewDense(n-nTest, k, nil),
		YTest:  make([]int, nTest),
		YTrain: make([]int, n-nTest),
	}
	for i, src := range perm {
		if i < nTest {
			s.XTest.SetRow(i, x.RawRowView(src))
			s.YTest[i] = y[src]
			continue
		}
		s.XTrain.SetRow(i-nTest, x.RawRowView(src))
		s.YTrain[i-nTest] = y[src]
	}
	return s, nil
}
