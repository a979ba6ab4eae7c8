// Package dataset loads the Pima-style screening dataset used to train the
// classifiers and feed the visualisations.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Outcome is the label column.
const Outcome = "Outcome"

// Columns lists every column in dataset order.
var Columns = []string{
	"Pregnancies", "Glucose", "BloodPressure", "SkinThickness",
	"Insulin", "BMI", "DiabetesPedigreeFunction", "Age", Outcome,
}

// Features lists the predictor columns.
var Features = Columns[:len(Columns)-1]

// A zero in these columns is a missing reading; such rows are dropped.
var zeroIsMissing = map[string]bool{
	"Glucose":                  true,
	"BloodPressure":            true,
	"BMI":                      true,
	"DiabetesPedigreeFunction": true,
	"Age":                      true,
}

var (
	ErrEmpty         = errors.New("dataset: no rows loaded")
	ErrUnknownColumn = errors.New("dataset: unknown column")
)

var columnIndex = func() map[string]int {
	m := make(map[string]int, len(Columns))
	for i, c := range Columns {
		m[c] = i
	}
	return m
}()

// Dataset is an immutable in-memory table. Rows hold values in Columns order.
type Dataset struct {
	rows    [][]float64
	dropped int
	source  string
}

// Empty returns a dataset with no rows.
func Empty() *Dataset { return &Dataset{} }

// Load reads path. On any failure it returns an empty dataset together with
// the error, so dependent pages can show the empty state.
func Load(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return Empty(), fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()
	d, err := Parse(f)
	if err != nil {
		return Empty(), err
	}
	d.source = path
	return d, nil
}

// Parse reads CSV with a header naming every column in Columns, in any order.
func Parse(r io.Reader) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	pos := make([]int, len(Columns))
	for i := range pos {
		pos[i] = -1
	}
	for i, h := range header {
		if j, ok := columnIndex[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))]; ok {
			pos[j] = i
		}
	}
	for j, p := range pos {
		if p < 0 {
			return nil, fmt.Errorf("missing column %q", Columns[j])
		}
	}

	d := &Dataset{}
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		row := make([]float64, len(Columns))
		missing := false
		for j, p := range pos {
			raw := strings.TrimSpace(rec[p])
			if raw == "" {
				missing = true
				continue
			}
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d column %s: %w", line, Columns[j], err)
			}
			if v == 0 && zeroIsMissing[Columns[j]] {
				missing = true
			}
			row[j] = v
		}
		if missing {
			d.dropped++
			continue
		}
		d.rows = append(d.rows, row)
	}
	return d, nil
}

func (d *Dataset) Len() int { return len(d.rows) }

func (d *Dataset) IsEmpty() bool { return len(d.rows) == 0 }

// Dropped is the number of rows discarded for missing values.
func (d *Dataset) Dropped() int { return d.dropped }

func (d *Dataset) Source() string { return d.source }

// Column returns a copy of the named column.
func (d *Dataset) Column(name string) ([]float64, error) {
	j, ok := columnIndex[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownColumn, name)
	}
	out := make([]float64, len(d.rows))
	for i, row := range d.rows {
		out[i] = row[j]
	}
	return out, nil
}

// Labels returns the outcome column as 0/1.
func (d *Dataset) Labels() []int {
	j := columnIndex[Outcome]
	out := make([]int, len(d.rows))
	for i, row := range d.rows {
		if row[j] != 0 {
			out[i] = 1
		}
	}
	return out
}

// Matrix returns the selected feature columns as an n×k matrix.
func (d *Dataset) Matrix(features []string) (*mat.Dense, error) {
	if d.IsEmpty() {
		return nil, ErrEmpty
	}
	idx := make([]int, len(features))
	for k, f := range features {
		j, ok := columnIndex[f]
		if !ok || f == Outcome {
			return nil, fmt.Errorf("%w: %s", ErrUnknownColumn, f)
		}
		idx[k] = j
	}
	m := mat.NewDense(len(d.rows), len(features), nil)
	for i, row := range d.rows {
		for k, j := range idx {
			m.Set(i, k, row[j])
		}
	}
	return m, nil
}

// Row is one record keyed by column name.
type Row map[string]float64

// Head returns up to n leading rows.
func (d *Dataset) Head(n int) []Row {
	n = min(n, len(d.rows))
	out := make([]Row, n)
	for i := 0; i < n; i++ {
		r := make(Row, len(Columns))
		for j, c := range Columns {
			r[c] = d.rows[i][j]
		}
		out[i] = r
	}
	return out
}

// IsFeature reports whether name is a predictor column.
func IsFeature(name string) bool {
	j, ok := columnIndex[name]
	return ok && j < len(Features)
}
