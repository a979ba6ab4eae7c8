package ml

import (
	"context"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/diabetecam/diabetecam/internal/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// syntheticDataset builds a deterministic dataset where high glucose and BMI
// mean diabetes, with a few flipped labels.
func syntheticDataset(t *testing.T, n int) *dataset.Dataset {
	t.Helper()
	var b strings.Builder
	b.WriteString(strings.Join(dataset.Columns, ",") + "\n")
	for i := 0; i < n; i++ {
		glucose := 80 + (i*37)%150
		bmi := 20 + (i*13)%25
		outcome := 0
		if glucose+2*bmi > 230 {
			outcome = 1
		}
		if i%17 == 0 {
			outcome = 1 - outcome
		}
		fmt.Fprintf(&b, "%d,%d,%d,20,80,%d,0.5,%d,%d\n", i%6, glucose, 60+i%30, bmi, 21+i%50, outcome)
	}
	d, err := dataset.Parse(strings.NewReader(b.String()))
	require.NoError(t, err)
	require.Equal(t, n, d.Len())
	return d
}

func TestBracket(t *testing.T) {
	tests := []struct {
		p    float64
		want Risk
	}{
		{0, RiskFaible},
		{0.39, RiskFaible},
		{0.399999, RiskFaible},
		{0.40, RiskModere},
		{0.699, RiskModere},
		{0.70, RiskEleve},
		{1, RiskEleve},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Bracket(tt.p), "p=%v", tt.p)
	}
}

func TestTrainTestSplit(t *testing.T) {
	n := 50
	x := mat.NewDense(n, 1, nil)
	y := make([]int, n)
	for i := 0; i < n; i++ {
		x.Set(i, 0, float64(i))
		y[i] = i % 2
	}
	s, err := TrainTestSplit(x, y, 0.2, DefaultSeed)
	require.NoError(t, err)
	assert.Len(t, s.YTest, 10)
	assert.Len(t, s.YTrain, 40)

	seen := map[float64]bool{}
	for _, m := range []*mat.Dense{s.XTrain, s.XTest} {
		r, _ := m.Dims()
		for i := 0; i < r; i++ {
			seen[m.At(i, 0)] = true
		}
	}
	assert.Len(t, seen, n, "every row lands in exactly one side")

	again, err := TrainTestSplit(x, y, 0.2, DefaultSeed)
	require.NoError(t, err)
	assert.True(t, mat.Equal(s.XTest, again.XTest), "same seed, same split")

	// ceil(50*0.33) = 17
	s, err = TrainTestSplit(x, y, 0.33, DefaultSeed)
	require.NoError(t, err)
	assert.Len(t, s.YTest, 17)

	_, err = TrainTestSplit(x, y, 0.05, DefaultSeed)
	assert.ErrorIs(t, err, ErrTestSize)
	_, err = TrainTestSplit(mat.NewDense(1, 1, nil), []int{1}, 0.2, DefaultSeed)
	assert.ErrorIs(t, err, ErrEmptyDataset)
}

func TestStandardScaler(t *testing.T) {
	x := mat.NewDense(4, 2, []float64{
		1, 5,
		2, 5,
		3, 5,
		4, 5,
	})
	s := FitScaler(x)
	assert.InDelta(t, 2.5, s.Mean[0], 1e-12)
	assert.InDelta(t, math.Sqrt(1.25), s.Scale[0], 1e-12)
	assert.Equal(t, 1.0, s.Scale[1], "constant column keeps unit scale")

	z := s.Transform(x)
	col := mat.Col(nil, 0, z)
	sum := 0.0
	for _, v := range col {
		sum += v
	}
	assert.InDelta(t, 0, sum, 1e-12)
	assert.Equal(t, 0.0, z.At(0, 1))
	assert.Equal(t, 1.0, x.At(0, 0), "input is not modified")
}

func TestEvaluate(t *testing.T) {
	yTrue := []int{0, 0, 0, 0, 1, 1, 1, 0}
	yPred := []int{0, 0, 1, 0, 1, 0, 1, 0}
	e := Evaluate(yTrue, yPred)
	assert.Equal(t, [2][2]int{{4, 1}, {1, 2}}, e.Confusion)
	assert.InDelta(t, 0.75, e.Accuracy, 1e-12)
	assert.Equal(t, 8, e.TestCount)

	require.Len(t, e.Report.Classes, 2)
	neg, pos := e.Report.Classes[0], e.Report.Classes[1]
	assert.Equal(t, "Non-Diabétique", neg.Label)
	assert.InDelta(t, 0.8, neg.Precision, 1e-12)
	assert.InDelta(t, 0.8, neg.Recall, 1e-12)
	assert.Equal(t, 5, neg.Support)
	assert.InDelta(t, 2.0/3, pos.Precision, 1e-12)
	assert.InDelta(t, 2.0/3, pos.Recall, 1e-12)
	assert.InDelta(t, (0.8+2.0/3)/2, e.Report.MacroAvg.F1, 1e-12)
	assert.InDelta(t, 0.8*5/8+(2.0/3)*3/8, e.Report.WeightedAvg.Recall, 1e-12)
}

func TestEvaluate_NoPositivePredictions(t *testing.T) {
	e := Evaluate([]int{1, 0}, []int{0, 0})
	assert.Equal(t, 0.0, e.Report.Classes[1].Precision)
	assert.Equal(t, 0.0, e.Report.Classes[1].F1)
}

func TestTrainLogReg(t *testing.T) {
	tr := NewTrainer(syntheticDataset(t, 300))
	m, err := tr.TrainLogReg(context.Background(), nil, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, []string{"Glucose", "BMI"}, m.Features)
	assert.Equal(t, 60, m.Eval.TestCount)
	assert.Greater(t, m.Eval.Accuracy, 0.8)
	assert.Greater(t, m.Coef[0], 0.0, "glucose raises risk")
	assert.Greater(t, m.Coef[1], 0.0, "BMI raises risk")
	assert.LessOrEqual(t, m.Iterations, 1000)

	low, err := m.PredictProba(map[string]float64{"Glucose": 85, "BMI": 21})
	require.NoError(t, err)
	high, err := m.PredictProba(map[string]float64{"Glucose": 220, "BMI": 42})
	require.NoError(t, err)
	assert.Less(t, low, 0.4)
	assert.Greater(t, high, 0.7)

	class, p, err := m.Predict(map[string]float64{"Glucose": 220, "BMI": 42, "Age": 50})
	require.NoError(t, err)
	assert.Equal(t, 1, class)
	assert.Equal(t, high, p, "extra inputs are ignored")

	_, err = m.PredictProba(map[string]float64{"Glucose": 120})
	assert.ErrorIs(t, err, ErrMissingFeature)
	_, err = m.PredictProba(map[string]float64{"Glucose": math.NaN(), "BMI": 25})
	assert.ErrorIs(t, err, ErrNotFinite)
}

func TestTrainLogReg_Deterministic(t *testing.T) {
	tr := NewTrainer(syntheticDataset(t, 120))
	a, err := tr.TrainLogReg(context.Background(), nil, DefaultOptions())
	require.NoError(t, err)
	b, err := tr.TrainLogReg(context.Background(), nil, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, a.Coef, b.Coef)
	assert.Equal(t, a.Eval, b.Eval)
}

func TestGrowTree_SingleThreshold(t *testing.T) {
	x := mat.NewDense(10, 1, nil)
	y := make([]int, 10)
	for i := 0; i < 10; i++ {
		x.Set(i, 0, float64(i+1))
		if i+1 > 5 {
			y[i] = 1
		}
	}
	root := growTree(x, y, DefaultMaxDepth)
	assert.Equal(t, 1, root.depth())
	assert.Equal(t, 2, root.leaves())
	assert.Equal(t, 5.5, root.Threshold)
	assert.Equal(t, 0, root.leafFor([]float64{3}).Class)
	assert.Equal(t, 1, root.leafFor([]float64{8}).Class)
}

func TestTrainTree(t *testing.T) {
	tr := NewTrainer(syntheticDataset(t, 300))
	opts := DefaultOptions()
	opts.Features = []string{"Glucose", "BMI", "Glucose", "Age"}
	m, err := tr.TrainTree(context.Background(), nil, opts)
	require.NoError(t, err)

	assert.Equal(t, []string{"Glucose", "BMI", "Age"}, m.Features, "duplicates removed, order kept")
	assert.LessOrEqual(t, m.Depth, DefaultMaxDepth)
	assert.Greater(t, m.Depth, 0)
	assert.Greater(t, m.Eval.Accuracy, 0.75)

	class, share, err := m.Predict(map[string]float64{"Glucose": 190, "BMI": 38, "Age": 30})
	require.NoError(t, err)
	assert.Equal(t, 1, class)
	assert.Greater(t, share, 0.5)

	class, _, err = m.Predict(map[string]float64{"Glucose": 85, "BMI": 21, "Age": 30})
	require.NoError(t, err)
	assert.Equal(t, 0, class)

	_, _, err = m.Predict(map[string]float64{"Glucose": 225})
	assert.ErrorIs(t, err, ErrMissingFeature)
}

type refusingGuard struct{}

func (refusingGuard) TryBegin() (func(), bool) { return nil, false }

type countingGuard struct{ begun, ended int }

func (g *countingGuard) TryBegin() (func(), bool) {
	g.begun++
	return func() { g.ended++ }, true
}

func TestTrainer_Errors(t *testing.T) {
	ctx := context.Background()
	tr := NewTrainer(syntheticDataset(t, 60))

	_, err := tr.TrainLogReg(ctx, nil, Options{TestSize: 0.2})
	assert.ErrorIs(t, err, ErrNoFeatures)
	_, err = tr.TrainTree(ctx, nil, Options{Features: []string{"Outcome"}, TestSize: 0.2})
	assert.ErrorIs(t, err, ErrUnknownFeature)
	_, err = tr.TrainTree(ctx, nil, Options{Features: []string{"BMI"}, TestSize: 0.6})
	assert.ErrorIs(t, err, ErrTestSize)

	_, err = tr.TrainLogReg(ctx, refusingGuard{}, DefaultOptions())
	assert.ErrorIs(t, err, ErrBusy)

	g := &countingGuard{}
	_, err = tr.TrainTree(ctx, g, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 1, g.begun)
	assert.Equal(t, 1, g.ended, "guard released after training")

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = tr.TrainLogReg(cancelled, nil, DefaultOptions())
	assert.ErrorIs(t, err, context.Canceled)

	_, err = NewTrainer(nil).TrainLogReg(ctx, nil, DefaultOptions())
	assert.ErrorIs(t, err, ErrEmptyDataset)
}
