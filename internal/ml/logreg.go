package ml

import (
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

// LogRegModel is an L2-regularised logistic regression on standardised inputs.
type LogRegModel struct {
	Features   []string        `json:"features"`
	Scaler     *StandardScaler `json:"scaler"`
	Coef       []float64       `json:"coef"`
	Intercept  float64         `json:"intercept"`
	Iterations int             `json:"iterations"`
	Converged  bool            `json:"converged"`
	Eval       Evaluation      `json:"evaluation"`
	TestSize   float64         `json:"test_size"`
	TrainedAt  time.Time       `json:"trained_at"`
}

type logisticFit struct {
	coef       []float64
	intercept  float64
	iterations int
	converged  bool
}

// fitLogistic minimises ½‖w‖² + C·Σ log(1+exp(−yᵢ(xᵢ·w+b))) with LBFGS.
// The intercept is not penalised.
func fitLogistic(x *mat.Dense, y []int, c float64, maxIter int) (*logisticFit, error) {
	n, k := x.Dims()
	sign := make([]float64, n)
	for i, v := range y {
		sign[i] = -1
		if v == 1 {
			sign[i] = 1
		}
	}
	margin := func(w []float64, i int) float64 {
		return floats.Dot(x.RawRowView(i), w[:k]) + w[k]
	}

	problem := optimize.Problem{
		Func: func(w []float64) float64 {
			loss := 0.0
			for i := 0; i < n; i++ {
				loss += logOnePlusExp(-sign[i] * margin(w, i))
			}
			return 0.5*floats.Dot(w[:k], w[:k]) + c*loss
		},
		Grad: func(grad, w []float64) {
			copy(grad[:k], w[:k])
			grad[k] = 0
			for i := 0; i < n; i++ {
				g := -c * sign[i] * sigmoid(-sign[i]*margin(w, i))
				floats.AddScaled(grad[:k], g, x.RawRowView(i))
				grad[k] += g
			}
		},
	}
	settings := &optimize.Settings{
		MajorIterations:   maxIter,
		GradientThreshold: 1e-4,
	}
	res, err := optimize.Minimize(problem, make([]float64, k+1), settings, &optimize.LBFGS{})
	if res == nil {
		return nil, err
	}
	for _, v := range res.X {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, ErrDidNotConverge
		}
	}
	return &logisticFit{
		coef:       append([]float64(nil), res.X[:k]...),
		intercept:  res.X[k],
		iterations: res.Stats.MajorIterations,
		converged:  err == nil,
	}, nil
}

// PredictProba returns P(diabetic) for input keyed by feature name.
func (m *LogRegModel) PredictProba(input map[string]float64) (float64, error) {
	row, err := featureRow(m.Features, input)
	if err != nil {
		return 0, err
	}
	m.Scaler.transformRow(row)
	return sigmoid(floats.Dot(row, m.Coef) + m.Intercept), nil
}

// Predict returns the class label and P(diabetic).
func (m *LogRegModel) Predict(input map[string]float64) (int, float64, error) {
	p, err := m.PredictProba(input)
	if err != nil {
		return 0, 0, err
	}
	if p >= 0.5 {
		return 1, p, nil
	}
	return 0, p, nil
}

func (m *LogRegModel) predictMatrix(scaled *mat.Dense) []int {
	r, _ := scaled.Dims()
	out := make([]int, r)
	for i := 0; i < r; i++ {
		if sigmoid(floats.Dot(scaled.RawRowView(i), m.Coef)+m.Intercept) >= 0.5 {
			out[i] = 1
		}
	}
	return out
}

func featureRow(features []string, input map[string]float64) ([]float64, error) {
	row := make([]float64, len(features))
	for j, f := range features {
		v, ok := input[f]
		if !ok {
			return nil, ErrMissingFeature
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, ErrNotFinite
		}
		row[j] = v
	}
	return row, nil
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

func logOnePlusExp(z float64) float64 {
	if z > 0 {
		return z + math.Log1p(math.Exp(-z))
	}
	return math.Log1p(math.Exp(z))
}
