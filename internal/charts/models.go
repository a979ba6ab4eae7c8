package charts

import (
	"fmt"

	"github.com/diabetecam/diabetecam/internal/ml"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// ConfusionMatrix draws actual (rows) against predicted (columns) counts.
func ConfusionMatrix(cm [2][2]int, title string) Renderer {
	labels := ml.ClassLabels[:]
	var data []opts.HeatMapData
	maxCount := 1
	for actual := 0; actual < 2; actual++ {
		for predicted := 0; predicted < 2; predicted++ {
			data = append(data, opts.HeatMapData{Value: [3]interface{}{predicted, actual, cm[actual][predicted]}})
			maxCount = max(maxCount, cm[actual][predicted])
		}
	}
	hm := charts.NewHeatMap()
	hm.SetGlobalOptions(
		initOpts(title),
		titleOpts(title, fmt.Sprintf("%d cas de test", cm[0][0]+cm[0][1]+cm[1][0]+cm[1][1])),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Prédiction", Type: "category", Data: labels}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Réalité", Type: "category", Data: labels}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        float32(maxCount),
			InRange:    &opts.VisualMapInRange{Color: []string{"#e8f5e9", colorPrimary}},
		}),
	)
	hm.SetXAxis(labels).AddSeries("Cas", data, charts.WithLabelOpts(opts.Label{Show: opts.Bool(true)}))
	return hm
}
