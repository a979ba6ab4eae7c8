package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/diabetecam/diabetecam/internal/models"
	"github.com/diabetecam/diabetecam/validation"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// NewPatient is the registration form.
type NewPatient struct {
	Nom           string `form:"nom" validate:"required,max=100"`
	Prenom        string `form:"prenom" validate:"required,max=100"`
	DateNaissance string `form:"date_naissance" validate:"required,datetime=2006-01-02"`
	Sexe          string `form:"sexe" validate:"required,oneof=Homme Femme"`
	Telephone     string `form:"telephone" validate:"required,max=30"`
	Ville         string `form:"ville" validate:"required,oneof=Douala Yaoundé Bafoussam Bamenda Garoua Maroua Ngaoundéré Bertoua Buea Limbé Kribi Ebolowa Kumba"`
	Quartier      string `form:"quartier" validate:"max=100"`
}

type PatientService struct {
	db  *gorm.DB
	log *zap.Logger
	now func() time.Time
}

func NewPatientService(db *gorm.DB, log *zap.Logger) *PatientService {
	return &PatientService{db: db, log: log, now: time.Now}
}

// Create registers a patient. A birth date in the future is rejected.
func (s *PatientService) Create(ctx context.Context, in NewPatient) (*models.Patient, error) {
	in.Nom = strings.TrimSpace(in.Nom)
	in.Prenom = strings.TrimSpace(in.Prenom)
	in.Telephone = strings.TrimSpace(in.Telephone)
	in.Quartier = strings.TrimSpace(in.Quartier)
	v := validation.Struct(in)
	var born time.Time
	if _, bad := v["date_naissance"]; !bad {
		born, _ = time.Parse(time.DateOnly, in.DateNaissance)
		if born.After(s.now()) {
			v.Add("date_naissance", "invalid_date")
		}
	}
	if err := v.Err(); err != nil {
		return nil, err
	}
	p := &models.Patient{
		Nom:           in.Nom,
		Prenom:        in.Prenom,
		DateNaissance: datatypes.Date(born),
		Sexe:          in.Sexe,
		Telephone:     in.Telephone,
		Ville:         in.Ville,
		Quartier:      in.Quartier,
	}
	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		return nil, fmt.Errorf("create patient: %w", err)
	}
	s.log.Info("patient registered", zap.Uint("patient_id", p.ID), zap.String("ville", p.Ville))
	return p, nil
}

func (s *PatientService) Get(ctx context.Context, id uint) (*models.Patient, error) {
	var p models.Patient
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPatientNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns patients, newest registrations first.
func (s *PatientService) List(ctx context.Context) ([]models.Patient, error) {
	var out []models.Patient
	err := s.db.WithContext(ctx).Order("date_inscription DESC, id DESC").Find(&out).Error
	return out, err
}

func (s *PatientService) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Patient{}).Count(&n).Error
	return n, err
}
