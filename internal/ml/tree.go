package ml

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/mat"
)

// DefaultMaxDepth bounds the decision tree.
const DefaultMaxDepth = 5

type treeNode struct {
	Leaf      bool      `json:"leaf"`
	Feature   int       `json:"feature,omitempty"`
	Threshold float64   `json:"threshold,omitempty"`
	Left      *treeNode `json:"left,omitempty"`
	Right     *treeNode `json:"right,omitempty"`
	Class     int       `json:"class"`
	Positive  float64   `json:"positive"` // share of class 1 among samples
	Samples   int       `json:"samples"`
}

// TreeModel is a CART classifier split on Gini impurity. Inputs are unscaled.
type TreeModel struct {
	Features  []string   `json:"features"`
	Root      *treeNode  `json:"root"`
	Depth     int        `json:"depth"`
	Leaves    int        `json:"leaves"`
	Eval      Evaluation `json:"evaluation"`
	TestSize  float64    `json:"test_size"`
	TrainedAt time.Time  `json:"trained_at"`
}

func growTree(x *mat.Dense, y []int, maxDepth int) *treeNode {
	idx := make([]int, len(y))
	for i := range idx {
		idx[i] = i
	}
	return grow(x, y, idx, 0, maxDepth)
}

func grow(x *mat.Dense, y []int, idx []int, depth, maxDepth int) *treeNode {
	pos := 0
	for _, i := range idx {
		pos += y[i]
	}
	node := &treeNode{
		Leaf:     true,
		Samples:  len(idx),
		Positive: float64(pos) / float64(len(idx)),
	}
	if 2*pos > len(idx) {
		node.Class = 1
	}
	if depth >= maxDepth || pos == 0 || pos == len(idx) || len(idx) < 2 {
		return node
	}
	feature, threshold, ok := bestSplit(x, y, idx)
	if !ok {
		return node
	}
	var left, right []int
	for _, i := range idx {
		if x.At(i, feature) <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	node.Leaf = false
	node.Feature, node.Threshold = feature, threshold
	node.Left = grow(x, y, left, depth+1, maxDepth)
	node.Right = grow(x, y, right, depth+1, maxDepth)
	return node
}

// bestSplit scans midpoints between consecutive distinct values of every
// feature and keeps the one with the lowest weighted Gini impurity.
func bestSplit(x *mat.Dense, y []int, idx []int) (int, float64, bool) {
	_, k := x.Dims()
	n := len(idx)
	totalPos := 0
	for _, i := range idx {
		totalPos += y[i]
	}
	best := gini(totalPos, n)
	bestFeature, bestThreshold, found := -1, 0.0, false

	order := make([]int, n)
	for j := 0; j < k; j++ {
		copy(order, idx)
		sort.SliceStable(order, func(a, b int) bool { return x.At(order[a], j) < x.At(order[b], j) })
		leftPos := 0
		for s := 1; s < n; s++ {
			leftPos += y[order[s-1]]
			lo, hi := x.At(order[s-1], j), x.At(order[s], j)
			if lo == hi {
				continue
			}
			impurity := (float64(s)*gini(leftPos, s) + float64(n-s)*gini(totalPos-leftPos, n-s)) / float64(n)
			if impurity < best {
				best, bestFeature, bestThreshold, found = impurity, j, (lo+hi)/2, true
			}
		}
	}
	return bestFeature, bestThreshold, found
}

func gini(pos, n int) float64 {
	if n == 0 {
		return 0
	}
	p := float64(pos) / float64(n)
	return 1 - p*p - (1-p)*(1-p)
}

func (n *treeNode) leafFor(row []float64) *treeNode {
	for !n.Leaf {
		if row[n.Feature] <= n.Threshold {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	return n
}

func (n *treeNode) depth() int {
	if n.Leaf {
		return 0
	}
	return 1 + max(n.Left.depth(), n.Right.depth())
}

func (n *treeNode) leaves() int {
	if n.Leaf {
		return 1
	}
	return n.Left.leaves() + n.Right.leaves()
}

// Predict returns the class label and the leaf's share of diabetic samples.
func (m *TreeModel) Predict(input map[string]float64) (int, float64, error) {
	row, err := featureRow(m.Features, input)
	if err != nil {
		return 0, 0, err
	}
	leaf := m.Root.leafFor(row)
	return leaf.Class, leaf.Positive, nil
}

func (m *TreeModel) predictMatrix(x *mat.Dense) []int {
	r, _ := x.Dims()
	out := make([]int, r)
	for i := 0; i < r; i++ {
		out[i] = m.Root.leafFor(x.RawRowView(i)).Class
	}
	return out
}
