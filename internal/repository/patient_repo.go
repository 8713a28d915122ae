package repository

import (
	"hospital-appointments/internal/models"

	"gorm.io/gorm"
)

type PatientRepository struct {
	db *gorm.DB
}

func NewPatientRepo(db *gorm.DB) *PatientRepository {
	return &PatientRepository{db: db}
}

func (r *PatientRepository) CreatePatient(patient *models.Patient) error {
	return translate(r.db.Create(patient).Error, "patient")
}

func (r *PatientRepository) GetPatientByID(id string) (*models.Patient, error) {
	var patient models.Patient
	if err := r.db.Where("id = ?", id).First(&patient).Error; err != nil {
		return nil, translate(err, "patient")
	}
	return &patient, nil
}

func (r *PatientRepository) GetPatientByEmail(email string) (*models.Patient, error) {
	var patient models.Patient
	if err := r.db.Where("email = ?", email).First(&patient).Error; err != nil {
		return nil, translate(err, "patient")
	}
	return &patient, nil
}
