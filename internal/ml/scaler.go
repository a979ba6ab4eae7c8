package ml

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// StandardScaler centres each column and scales it to unit population variance.
type StandardScaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

func FitScaler(x *mat.Dense) *StandardScaler {
	_, k := x.Dims()
	s := &StandardScaler{Mean: make([]float64, k), Scale: make([]float64, k)}
	for j := 0; j < k; j++ {
		col := mat.Col(nil, j, x)
		mean, std := stat.PopMeanStdDev(col, nil)
		if std == 0 {
			std = 1
		}
		s.Mean[j], s.Scale[j] = mean, std
	}
	return s
}

// Transform returns a scaled copy of x.
func (s *StandardScaler) Transform(x *mat.Dense) *mat.Dense {
	out := mat.DenseCopyOf(x)
	r, k := out.Dims()
	for i := 0; i < r; i++ {
		row := out.RawRowView(i)
		s.transformRow(row[:k])
	}
	return out
}

func (s *StandardScaler) transformRow(row []float64) {
	for j := range row {
		row[j] = (row[j] - s.Mean[j]) / s.Scale[j]
	}
}
