package repository

import (
	"hospital-appointments/internal/models"

	"gorm.io/gorm"
)

type HospitalRepository struct {
	db *gorm.DB
}

func NewHospitalRepo(db *gorm.DB) *HospitalRepository {
	return &HospitalRepository{db: db}
}

// GetAllHospitals retrieves every registered hospital
func (r *HospitalRepository) GetAllHospitals() ([]models.Hospital, error) {
	var hospitals []models.Hospital
	err := r.db.Order("hospital_id ASC").Find(&hospitals).Error
	return hospitals, err
}

// GetHospitalByID retrieves a hospital by its internal id
func (r *HospitalRepository) GetHospitalByID(id string) (*models.Hospital, error) {
	var hospital models.Hospital
	if err := r.db.Where("id = ?", id).First(&hospital).Error; err != nil {
		return nil, translate(err, "hospital")
	}
	return &hospital, nil
}

// GetHospitalByCode retrieves a hospital by its public hospitalId
func (r *HospitalRepository) GetHospitalByCode(code string) (*models.Hospital, error) {
	var hospital models.Hospital
	if err := r.db.Where("hospital_id = ?", code).First(&hospital).Error; err != nil {
		return nil, translate(err, "hospital")
	}
	return &hospital, nil
}

// ExistsByCodeOrEmail reports whether either unique key is already taken
func (r *HospitalRepository) ExistsByCodeOrEmail(code, email string) (bool, error) {
	var count int64
	err := r.db.Model(&models.Hospital{}).
		Where("hospital_id = ? OR email = ?", code, email).
		Count(&count).Error
	return count > 0, err
}

// CreateHospital creates a new hospital
func (r *HospitalRepository) CreateHospital(hospital *models.Hospital) error {
	return translate(r.db.Create(hospital).Error, "hospital")
}
