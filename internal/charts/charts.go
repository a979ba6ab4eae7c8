// Package charts builds the dashboard's go-echarts pages. Every builder
// returns a standalone HTML page meant to be embedded with an iframe.
package charts

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/diabetecam/diabetecam/internal/dataset"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

var (
	ErrUnknownChart = errors.New("charts: unknown chart")
	ErrNoData       = errors.New("charts: no data")
	ErrTooFewPoints = errors.New("charts: at least two points are needed")
)

const (
	colorHealthy  = "#2ecc71"
	colorDiabetic = "#e74c3c"
	colorPrimary  = "#006233"
)

// Renderer is implemented by every go-echarts chart.
type Renderer interface {
	Render(w io.Writer) error
}

func initOpts(title string) charts.GlobalOpts {
	return charts.WithInitializationOpts(opts.Initialization{
		PageTitle: title,
		Width:     "100%",
		Height:    "420px",
	})
}

func titleOpts(title, subtitle string) charts.GlobalOpts {
	return charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle})
}

// DatasetCharts lists the dataset chart names in display order.
func DatasetCharts() []string {
	names := []string{"age", "glucose-bmi", "correlation"}
	for _, f := range dataset.Features {
		names = append(names, "distribution-"+f)
	}
	return names
}

// ForDataset builds the named dataset chart.
func ForDataset(name string, d *dataset.Dataset) (Renderer, error) {
	if d == nil || d.IsEmpty() {
		return nil, ErrNoData
	}
	switch {
	case name == "age":
		return AgeHistogram(d)
	case name == "glucose-bmi":
		return GlucoseBMIScatter(d)
	case name == "correlation":
		return CorrelationHeatmap(d)
	case strings.HasPrefix(name, "distribution-"):
		f := strings.TrimPrefix(name, "distribution-")
		if dataset.IsFeature(f) {
			return FeatureDistribution(d, f, 20)
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownChart, name)
}

// AgeHistogram counts patients per age bucket over 10 bins.
func AgeHistogram(d *dataset.Dataset) (Renderer, error) {
	ages, err := d.Column("Age")
	if err != nil {
		return nil, err
	}
	edges, counts := dataset.Histogram(ages, 10)
	width := 0.0
	if len(edges) > 1 {
		width = edges[1] - edges[0]
	}
	labels := make([]string, len(edges))
	data := make([]opts.BarData, len(counts))
	for i, e := range edges {
		labels[i] = fmt.Sprintf("%.0f–%.0f", e, e+width)
		data[i] = opts.BarData{Value: counts[i]}
	}
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		initOpts("Distribution des âges"),
		titleOpts("📊 Distribution des âges", fmt.Sprintf("%d patients", d.Len())),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Âge"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Patients"}),
		charts.WithColorsOpts(opts.Colors{colorPrimary}),
	)
	bar.SetXAxis(labels).AddSeries("Patients", data)
	return bar, nil
}

// GlucoseBMIScatter plots glucose against BMI with one series per outcome.
func GlucoseBMIScatter(d *dataset.Dataset) (Renderer, error) {
	glucose, err := d.Column("Glucose")
	if err != nil {
		return nil, err
	}
	bmi, err := d.Column("BMI")
	if err != nil {
		return nil, err
	}
	var healthy, diabetic []opts.ScatterData
	for i, y := range d.Labels() {
		pt := opts.ScatterData{Value: []interface{}{glucose[i], bmi[i]}, SymbolSize: 6}
		if y == 1 {
			diabetic = append(diabetic, pt)
		} else {
			healthy = append(healthy, pt)
		}
	}
	sc := charts.NewScatter()
	sc.SetGlobalOptions(
		initOpts("Glucose vs BMI"),
		titleOpts("🔬 Glucose vs BMI", "par statut diabétique"),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Right: "10%"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Glucose", Type: "value", Min: "dataMin"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "BMI", Type: "value", Min: "dataMin"}),
		charts.WithColorsOpts(opts.Colors{colorHealthy, colorDiabetic}),
	)
	sc.AddSeries("Non-Diabétique", healthy).AddSeries("Diabétique", diabetic)
	return sc, nil
}

// CorrelationHeatmap renders the Pearson matrix of every column.
func CorrelationHeatmap(d *dataset.Dataset) (Renderer, error) {
	corr, names := d.Correlation()
	if corr == nil {
		return nil, ErrNoData
	}
	var data []opts.HeatMapData
	for i := range names {
		for j := range names {
			v := corr.At(i, j)
			if math.IsNaN(v) {
				v = 0
			}
			data = append(data, opts.HeatMapData{Value: [3]interface{}{i, j, math.Round(v*100) / 100}})
		}
	}
	hm := charts.NewHeatMap()
	hm.SetGlobalOptions(
		initOpts("Matrice de corrélation"),
		titleOpts("🔥 Matrice de corrélation", ""),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", Data: names, AxisLabel: &opts.AxisLabel{Rotate: 30}}),
		charts.WithYAxisOpts(opts.YAxis{Type: "category", Data: names}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Calculable: opts.Bool(true),
			Min:        -1,
			Max:        1,
			InRange:    &opts.VisualMapInRange{Color: []string{"#3b4cc0", "#f7f7f7", "#b40426"}},
		}),
	)
	hm.SetXAxis(names).AddSeries("Corrélation", data,
		charts.WithLabelOpts(opts.Label{Show: opts.Bool(true)}))
	return hm, nil
}

// FeatureDistribution compares a feature's histogram between outcomes, on
// shared bins so the bars line up.
func FeatureDistribution(d *dataset.Dataset, feature string, bins int) (Renderer, error) {
	all, err := d.Column(feature)
	if err != nil {
		return nil, err
	}
	neg, pos, err := d.SplitByOutcome(feature)
	if err != nil {
		return nil, err
	}
	edges, _ := dataset.Histogram(all, bins)
	if len(edges) == 0 {
		return nil, ErrNoData
	}
	lo := edges[0]
	width := 0.0
	if len(edges) > 1 {
		width = edges[1] - edges[0]
	}
	bucket := func(values []float64) []opts.BarData {
		counts := make([]int, len(edges))
		for _, v := range values {
			b := len(edges) - 1
			if width > 0 {
				b = min(int((v-lo)/width), len(edges)-1)
			}
			counts[b]++
		}
		out := make([]opts.BarData, len(counts))
		for i, c := range counts {
			out[i] = opts.BarData{Value: c}
		}
		return out
	}
	labels := make([]string, len(edges))
	for i, e := range edges {
		labels[i] = trimFloat(e)
	}
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		initOpts("Distribution "+feature),
		titleOpts("📈 Distribution de "+feature, "selon le statut diabétique"),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Right: "10%"}),
		charts.WithXAxisOpts(opts.XAxis{Name: feature}),
		charts.WithColorsOpts(opts.Colors{colorHealthy, colorDiabetic}),
	)
	bar.SetXAxis(labels).
		AddSeries("Non-Diabétique", bucket(neg)).
		AddSeries("Diabétique", bucket(pos))
	return bar, nil
}

func trimFloat(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
