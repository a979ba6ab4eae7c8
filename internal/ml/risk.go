package ml

// Risk is the bracket assigned to a positive-class probability.
type Risk string

const (
	RiskFaible Risk = "Faible"
	RiskModere Risk = "Modéré"
	RiskEleve  Risk = "Élevé"
)

// Bracket maps P(diabetic) to a risk level: ≥0.70 high, ≥0.40 moderate, else low.
func Bracket(p float64) Risk {
	switch {
	case p >= 0.7:
		return RiskEleve
	case p >= 0.4:
		return RiskModere
	default:
		return RiskFaible
	}
}
