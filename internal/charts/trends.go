package charts

import (
	"fmt"

	"github.com/diabetecam/diabetecam/internal/models"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// TrendMetric names a measurement series with its clinical reference lines.
type TrendMetric string

const (
	TrendGlucose       TrendMetric = "glucose"
	TrendBMI           TrendMetric = "bmi"
	TrendBloodPressure TrendMetric = "tension"
)

// TrendMetrics lists the patient trend charts in display order.
var TrendMetrics = []TrendMetric{TrendGlucose, TrendBMI, TrendBloodPressure}

type reference struct {
	name  string
	value float64
}

type trendDef struct {
	title string
	unit  string
	value func(m *models.Measurement) float64
	refs  []reference
}

var trendDefs = map[TrendMetric]trendDef{
	TrendGlucose: {
		title: "🍬 Évolution de la glycémie",
		unit:  "mg/dL",
		value: func(m *models.Measurement) float64 { return m.Glucose },
		refs:  []reference{{"Seuil diabète", 126}, {"Seuil prédiabète", 100}},
	},
	TrendBMI: {
		title: "⚖️ Évolution de l'IMC",
		unit:  "kg/m²",
		value: func(m *models.Measurement) float64 { return m.BMI },
		refs:  []reference{{"Surpoids", 25}, {"Obésité", 30}},
	},
	TrendBloodPressure: {
		title: "💉 Évolution de la tension artérielle",
		unit:  "mmHg",
		value: func(m *models.Measurement) float64 { return float64(m.BloodPressure) },
		refs:  []reference{{"Hypertension", 140}},
	},
}

// Trend plots one metric over a newest-first history, oldest point on the left.
func Trend(metric TrendMetric, history []models.Measurement) (Renderer, error) {
	def, ok := trendDefs[metric]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownChart, metric)
	}
	if len(history) < 2 {
		return nil, ErrTooFewPoints
	}
	n := len(history)
	x := make([]string, n)
	data := make([]opts.LineData, n)
	for i := range history {
		m := &history[n-1-i]
		x[i] = m.DateMesure.Format("02/01/2006 15:04")
		data[i] = opts.LineData{Value: def.value(m)}
	}
	marks := make([]charts.SeriesOpts, 0, len(def.refs))
	for _, r := range def.refs {
		marks = append(marks, charts.WithMarkLineNameYAxisItemOpts(opts.MarkLineNameYAxisItem{Name: r.name, YAxis: r.value}))
	}
	line := charts.NewLine()
	line.SetGlobalOptions(
		initOpts(def.title),
		titleOpts(def.title, def.unit),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithYAxisOpts(opts.YAxis{Name: def.unit, Type: "value", Scale: opts.Bool(true)}),
		charts.WithColorsOpts(opts.Colors{colorPrimary}),
	)
	marks = append(marks, charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(true)}))
	line.SetXAxis(x).AddSeries(string(metric), data, marks...)
	return line, nil
}
