package dataset

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Summary holds the per-column statistics shown on the home page.
type Summary struct {
	Column string
	Count  int
	Mean   float64
	Std    float64
	Min    float64
	Q25    float64
	Median float64
	Q75    float64
	Max    float64
}

// Describe summarises every column. Std is the sample standard deviation and
// quartiles interpolate linearly between closest ranks.
func (d *Dataset) Describe() []Summary {
	if d.IsEmpty() {
		return nil
	}
	out := make([]Summary, 0, len(Columns))
	for _, c := range Columns {
		col, _ := d.Column(c)
		sorted := append([]float64(nil), col...)
		sort.Float64s(sorted)
		mean, std := stat.MeanStdDev(sorted, nil)
		if len(sorted) < 2 {
			std = math.NaN()
		}
		out = append(out, Summary{
			Column: c,
			Count:  len(sorted),
			Mean:   mean,
			Std:    std,
			Min:    floats.Min(sorted),
			Q25:    quantile(sorted, 0.25),
			Median: quantile(sorted, 0.5),
			Q75:    quantile(sorted, 0.75),
			Max:    floats.Max(sorted),
		})
	}
	return out
}

// quantile uses the (n-1)p rank with linear interpolation; gonum's
// stat.Quantile only offers the empirical and n·p variants.
func quantile(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := p * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := min(lo+1, len(sorted)-1)
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

// Correlation returns the Pearson correlation matrix over all columns.
func (d *Dataset) Correlation() (*mat.SymDense, []string) {
	if d.IsEmpty() {
		return nil, nil
	}
	x := mat.NewDense(len(d.rows), len(Columns), nil)
	for i, row := range d.rows {
		x.SetRow(i, row)
	}
	c := mat.NewSymDense(len(Columns), nil)
	stat.CorrelationMatrix(c, x, nil)
	return c, append([]string(nil), Columns...)
}

// Histogram counts values into bins equal-width buckets between min and max.
// It returns bucket lower edges and counts.
func Histogram(values []float64, bins int) ([]float64, []int) {
	if len(values) == 0 || bins <= 0 {
		return nil, nil
	}
	lo, hi := floats.Min(values), floats.Max(values)
	edges := make([]float64, bins)
	counts := make([]int, bins)
	width := (hi - lo) / float64(bins)
	for i := range edges {
		edges[i] = lo + float64(i)*width
	}
	for _, v := range values {
		b := bins - 1
		if width > 0 {
			b = min(int((v-lo)/width), bins-1)
		}
		counts[b]++
	}
	return edges, counts
}

// SplitByOutcome partitions a column by label.
func (d *Dataset) SplitByOutcome(column string) (negative, positive []float64, err error) {
	col, err := d.Column(column)
	if err != nil {
		return nil, nil, err
	}
	for i, y := range d.Labels() {
		if y == 1 {
			positive = append(positive, col[i])
		} else {
			negative = append(negative, col[i])
		}
	}
	return negative, positive, nil
}
