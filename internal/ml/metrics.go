package ml

// ClassLabels names the outcome classes 0 and 1.
var ClassLabels = [2]string{"Non-Diabétique", "Diabétique"}

// ClassReport is one row of a classification report.
type ClassReport struct {
	Label     string  `json:"label"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// Report mirrors the usual per-class precision/recall/F1 table with averages.
type Report struct {
	Classes     []ClassReport `json:"classes"`
	Accuracy    float64       `json:"accuracy"`
	MacroAvg    ClassReport   `json:"macro_avg"`
	WeightedAvg ClassReport   `json:"weighted_avg"`
}

// Evaluation is what the model pages display after training.
type Evaluation struct {
	Accuracy  float64   `json:"accuracy"`
	TestCount int       `json:"test_count"`
	Confusion [2][2]int `json:"confusion"` // [actual][predicted]
	Report    Report    `json:"report"`
}

func ConfusionMatrix(yTrue, yPred []int) [2][2]int {
	var cm [2][2]int
	for i := range yTrue {
		cm[yTrue[i]][yPred[i]]++
	}
	return cm
}

func Accuracy(yTrue, yPred []int) float64 {
	if len(yTrue) == 0 {
		return 0
	}
	ok := 0
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			ok++
		}
	}
	return float64(ok) / float64(len(yTrue))
}

// Evaluate scores predictions. Undefined ratios count as zero.
func Evaluate(yTrue, yPred []int) Evaluation {
	cm := ConfusionMatrix(yTrue, yPred)
	acc := Accuracy(yTrue, yPred)
	rep := Report{Accuracy: acc}
	total := len(yTrue)
	macro := ClassReport{Label: "macro avg", Support: total}
	weighted := ClassReport{Label: "weighted avg", Support: total}

	for c := 0; c < 2; c++ {
		tp := cm[c][c]
		predicted := cm[0][c] + cm[1][c]
		support := cm[c][0] + cm[c][1]
		cr := ClassReport{
			Label:     ClassLabels[c],
			Precision: ratio(tp, predicted),
			Recall:    ratio(tp, support),
			Support:   support,
		}
		if cr.Precision+cr.Recall > 0 {
			cr.F1 = 2 * cr.Precision * cr.Recall / (cr.Precision + cr.Recall)
		}
		rep.Classes = append(rep.Classes, cr)

		macro.Precision += cr.Precision / 2
		macro.Recall += cr.Recall / 2
		macro.F1 += cr.F1 / 2
		if total > 0 {
			w := float64(support) / float64(total)
			weighted.Precision += cr.Precision * w
			weighted.Recall += cr.Recall * w
			weighted.F1 += cr.F1 * w
		}
	}
	rep.MacroAvg, rep.WeightedAvg = macro, weighted
	return Evaluation{Accuracy: acc, TestCount: total, Confusion: cm, Report: rep}
}

func ratio(a, b int) float64 {
	if b == 0 {
		return 0
	}
	return float64(a) / float64(b)
}
