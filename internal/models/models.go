package models

import (
	"time"

	"gorm.io/datatypes"
)

// Sexes accepted on the patient form.
var Sexes = []string{"Homme", "Femme"}

// Cities offered on the patient form.
var Cities = []string{
	"Douala", "Yaoundé", "Bafoussam", "Bamenda",
	"Garoua", "Maroua", "Ngaoundéré", "Bertoua",
	"Buea", "Limbé", "Kribi", "Ebolowa", "Kumba",
}

// Prediction labels stored on a measurement.
const (
	PredictionDiabetic    = "Diabétique"
	PredictionNonDiabetic = "Non-Diabétique"
	PredictionNone        = "Non analysé"
	PredictionError       = "Erreur de prédiction"
)

// Risk labels stored on a measurement besides the probability brackets.
const (
	RiskPending = "À évaluer"
	RiskError   = "Erreur"
)

type Patient struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	Nom             string         `gorm:"size:100;not null" json:"nom"`
	Prenom          string         `gorm:"size:100;not null" json:"prenom"`
	DateNaissance   datatypes.Date `gorm:"column:date_naissance" json:"date_naissance"`
	Sexe            string         `gorm:"size:10" json:"sexe"`
	Telephone       string         `gorm:"size:30" json:"telephone"`
	Ville           string         `gorm:"size:50" json:"ville"`
	Quartier        string         `gorm:"size:100" json:"quartier,omitempty"`
	DateInscription time.Time      `gorm:"column:date_inscription;autoCreateTime;index" json:"date_inscription"`
}

func (Patient) TableName() string { return "patients" }

// FullName is "Prénom Nom" as shown in patient pickers.
func (p *Patient) FullName() string {
	return p.Prenom + " " + p.Nom
}

// Age is the difference of calendar years, as the clinic forms count it.
func (p *Patient) Age(now time.Time) int {
	return now.Year() - time.Time(p.DateNaissance).Year()
}

// DefaultMeasureAge is the age pre-filled on the measurement form.
func (p *Patient) DefaultMeasureAge(now time.Time) int {
	return max(18, p.Age(now))
}

// Measurement is one clinical reading with the prediction made at entry time.
type Measurement struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	PatientID        uint      `gorm:"column:patient_id;not null;index" json:"patient_id"`
	Patient          *Patient  `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	DateMesure       time.Time `gorm:"column:date_mesure;autoCreateTime;index" json:"date_mesure"`
	Pregnancies      int       `json:"pregnancies"`
	Glucose          float64   `json:"glucose"`
	BloodPressure    int       `gorm:"column:blood_pressure" json:"blood_pressure"`
	SkinThickness    float64   `gorm:"column:skin_thickness" json:"skin_thickness"`
	Insulin          float64   `json:"insulin"`
	BMI              float64   `gorm:"column:bmi" json:"bmi"`
	DiabetesPedigree float64   `gorm:"column:diabetes_pedigree" json:"diabetes_pedigree"`
	Age              int       `json:"age"`
	Prediction       string    `gorm:"size:50" json:"prediction"`
	RisqueNiveau     string    `gorm:"column:risque_niveau;size:20" json:"risque_niveau"`
}

func (Measurement) TableName() string { return "mesures" }

// Features returns the reading keyed by dataset column name.
func (m *Measurement) Features() map[string]float64 {
	return map[string]float64{
		"Pregnancies":              float64(m.Pregnancies),
		"Glucose":                  m.Glucose,
		"BloodPressure":            float64(m.BloodPressure),
		"SkinThickness":            m.SkinThickness,
		"Insulin":                  m.Insulin,
		"BMI":                      m.BMI,
		"DiabetesPedigreeFunction": m.DiabetesPedigree,
		"Age":                      float64(m.Age),
	}
}

// All lists every persisted model, parents first.
func All() []any {
	return []any{&User{}, &Patient{}, &Measurement{}}
}
