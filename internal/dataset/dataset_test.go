package dataset

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DropsMissing(t *testing.T) {
	d, err := Load("testdata/sample.csv")
	require.NoError(t, err)
	assert.Equal(t, 8, d.Len())
	assert.Equal(t, 2, d.Dropped(), "zero blood pressure and zero BMI rows are dropped")
	assert.Equal(t, "testdata/sample.csv", d.Source())

	// zeros in Insulin and SkinThickness are kept
	ins, err := d.Column("Insulin")
	require.NoError(t, err)
	assert.Equal(t, 0.0, ins[0])

	assert.Equal(t, []int{1, 0, 1, 0, 1, 0, 1, 1}, d.Labels())
}

func TestLoad_MissingFile(t *testing.T) {
	d, err := Load("testdata/nope.csv")
	assert.Error(t, err)
	require.NotNil(t, d)
	assert.True(t, d.IsEmpty())
	assert.Nil(t, d.Describe())
	_, err = d.Matrix([]string{"Glucose"})
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse(strings.NewReader("Glucose,BMI\n1,2\n"))
	assert.ErrorContains(t, err, "missing column")

	bad := strings.Join(Columns, ",") + "\n1,abc,1,1,1,1,1,1,0\n"
	_, err = Parse(strings.NewReader(bad))
	assert.ErrorContains(t, err, "Glucose")
}

func TestParse_ReorderedHeaderAndBlankCell(t *testing.T) {
	csv := "Outcome,Age,DiabetesPedigreeFunction,BMI,Insulin,SkinThickness,BloodPressure,Glucose,Pregnancies\n" +
		"1,50,0.6,33.6,0,35,72,148,6\n" +
		"0,31,0.3,,0,29,66,85,1\n"
	d, err := Parse(strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, 1, d.Len())
	head := d.Head(5)
	require.Len(t, head, 1)
	assert.Equal(t, 148.0, head[0]["Glucose"])
	assert.Equal(t, 1.0, head[0][Outcome])
}

func TestMatrix(t *testing.T) {
	d, err := Load("testdata/sample.csv")
	require.NoError(t, err)
	m, err := d.Matrix([]string{"Glucose", "BMI"})
	require.NoError(t, err)
	r, c := m.Dims()
	assert.Equal(t, 8, r)
	assert.Equal(t, 2, c)
	assert.Equal(t, 148.0, m.At(0, 0))
	assert.Equal(t, 33.6, m.At(0, 1))

	_, err = d.Matrix([]string{Outcome})
	assert.ErrorIs(t, err, ErrUnknownColumn)
	_, err = d.Matrix([]string{"Cholesterol"})
	assert.ErrorIs(t, err, ErrUnknownColumn)
}

func TestDescribe(t *testing.T) {
	d, err := Load("testdata/sample.csv")
	require.NoError(t, err)
	stats := d.Describe()
	require.Len(t, stats, len(Columns))

	age := stats[7]
	assert.Equal(t, "Age", age.Column)
	assert.Equal(t, 8, age.Count)
	assert.Equal(t, 21.0, age.Min)
	assert.Equal(t, 53.0, age.Max)
	// ages sorted: 21 26 30 31 32 33 50 53
	assert.InDelta(t, 34.5, age.Mean, 1e-9)
	assert.InDelta(t, 31.5, age.Median, 1e-9)
	assert.InDelta(t, 29.0, age.Q25, 1e-9)
	assert.InDelta(t, 37.25, age.Q75, 1e-9)
	assert.False(t, math.IsNaN(age.Std))
}

func TestCorrelation(t *testing.T) {
	d, err := Load("testdata/sample.csv")
	require.NoError(t, err)
	c, names := d.Correlation()
	require.NotNil(t, c)
	assert.Equal(t, Columns, names)
	n, _ := c.Dims()
	assert.Equal(t, len(Columns), n)
	for i := 0; i < n; i++ {
		assert.InDelta(t, 1.0, c.At(i, i), 1e-9)
	}
	assert.Equal(t, c.At(1, 5), c.At(5, 1))
}

func TestHistogram(t *testing.T) {
	edges, counts := Histogram([]float64{20, 25, 30, 40, 60}, 4)
	assert.Equal(t, []float64{20, 30, 40, 50}, edges)
	assert.Equal(t, []int{2, 1, 1, 1}, counts)

	edges, counts = Histogram([]float64{5, 5}, 3)
	assert.Len(t, edges, 3)
	assert.Equal(t, []int{0, 0, 2}, counts)

	e, c := Histogram(nil, 10)
	assert.Nil(t, e)
	assert.Nil(t, c)
}

func TestSplitByOutcome(t *testing.T) {
	d, err := Load("testdata/sample.csv")
	require.NoError(t, err)
	neg, pos, err := d.SplitByOutcome("Glucose")
	require.NoError(t, err)
	assert.Equal(t, []float64{85, 89, 116}, neg)
	assert.Len(t, pos, 5)
	assert.True(t, IsFeature("BMI"))
	assert.False(t, IsFeature(Outcome))
}
