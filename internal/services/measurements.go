package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/diabetecam/diabetecam/internal/ml"
	"github.com/diabetecam/diabetecam/internal/models"
	"github.com/diabetecam/diabetecam/validation"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MeasurementInput is the clinical reading form.
type MeasurementInput struct {
	PatientID        uint    `form:"patient_id" validate:"required"`
	Pregnancies      int     `form:"pregnancies" validate:"gte=0,lte=20"`
	Glucose          float64 `form:"glucose" validate:"gte=50,lte=300"`
	BloodPressure    int     `form:"blood_pressure" validate:"gte=40,lte=200"`
	SkinThickness    float64 `form:"skin_thickness" validate:"gte=0,lte=100"`
	Insulin          float64 `form:"insulin" validate:"gte=0,lte=900"`
	BMI              float64 `form:"bmi" validate:"gte=10,lte=70"`
	DiabetesPedigree float64 `form:"diabetes_pedigree" validate:"gte=0,lte=3"`
	Age              int     `form:"age" validate:"gte=18,lte=100"`
}

func (in MeasurementInput) measurement() *models.Measurement {
	return &models.Measurement{
		PatientID:        in.PatientID,
		Pregnancies:      in.Pregnancies,
		Glucose:          in.Glucose,
		BloodPressure:    in.BloodPressure,
		SkinThickness:    in.SkinThickness,
		Insulin:          in.Insulin,
		BMI:              in.BMI,
		DiabetesPedigree: in.DiabetesPedigree,
		Age:              in.Age,
	}
}

// Predictor scores a reading keyed by dataset column name.
type Predictor interface {
	Predict(input map[string]float64) (class int, probability float64, err error)
}

// Prediction is the label pair stored with a measurement.
type Prediction struct {
	Label       string
	Risk        string
	Probability float64
	Analysed    bool
}

// Classify labels a reading. Without a model the reading is marked for later
// review; a failing model marks it as an error. Neither blocks storage.
func Classify(p Predictor, features map[string]float64) Prediction {
	if p == nil {
		return Prediction{Label: models.PredictionNone, Risk: models.RiskPending}
	}
	class, prob, err := p.Predict(features)
	if err != nil {
		return Prediction{Label: models.PredictionError, Risk: models.RiskError}
	}
	label := models.PredictionNonDiabetic
	if class == 1 {
		label = models.PredictionDiabetic
	}
	return Prediction{Label: label, Risk: string(ml.Bracket(prob)), Probability: prob, Analysed: true}
}

type MeasurementService struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewMeasurementService(db *gorm.DB, log *zap.Logger) *MeasurementService {
	return &MeasurementService{db: db, log: log}
}

// Record validates the reading, classifies it with model (which may be nil)
// and stores it. The patient lookup and the insert share one transaction.
func (s *MeasurementService) Record(ctx context.Context, in MeasurementInput, model Predictor) (*models.Measurement, Prediction, error) {
	if err := validation.Struct(in).Err(); err != nil {
		return nil, Prediction{}, err
	}
	m := in.measurement()
	pred := Classify(model, m.Features())
	m.Prediction, m.RisqueNiveau = pred.Label, pred.Risk
	if pred.Label == models.PredictionError {
		s.log.Warn("prediction failed", zap.Uint("patient_id", in.PatientID))
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.Patient{}).Where("id = ?", in.PatientID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return ErrPatientNotFound
		}
		return tx.Create(m).Error
	})
	if errors.Is(err, ErrPatientNotFound) {
		return nil, pred, err
	}
	if err != nil {
		return nil, pred, fmt.Errorf("record measurement: %w", err)
	}
	s.log.Info("measurement recorded",
		zap.Uint("patient_id", m.PatientID),
		zap.String("prediction", m.Prediction),
		zap.String("risk", m.RisqueNiveau))
	return m, pred, nil
}

// History returns a patient's readings, newest first.
func (s *MeasurementService) History(ctx context.Context, patientID uint) ([]models.Measurement, error) {
	var out []models.Measurement
	err := s.db.WithContext(ctx).
		Where("patient_id = ?", patientID).
		Order("date_mesure DESC, id DESC").
		Find(&out).Error
	return out, err
}

func (s *MeasurementService) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Measurement{}).Count(&n).Error
	return n, err
}
