package repository

import (
	"hospital-appointments/internal/models"

	"gorm.io/gorm"
)

type AppointmentRepository struct {
	db *gorm.DB
}

func NewAppointmentRepo(db *gorm.DB) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

// WithTx returns a repository bound to an open transaction
func (r *AppointmentRepository) WithTx(tx *gorm.DB) *AppointmentRepository {
	return &AppointmentRepository{db: tx}
}

// AppointmentFilter narrows list queries; empty fields are ignored
type AppointmentFilter struct {
	HospitalID string
	PatientID  string
	DoctorID   string
	Status     models.AppointmentStatus
}

func (r *AppointmentRepository) CreateAppointment(appointment *models.Appointment) error {
	return translate(r.db.Create(appointment).Error, "appointment")
}

func (r *AppointmentRepository) GetAppointmentByID(id string) (*models.Appointment, error) {
	var appointment models.Appointment
	if err := r.db.Where("id = ?", id).First(&appointment).Error; err != nil {
		return nil, translate(err, "appointment")
	}
	return &appointment, nil
}

// GetAppointments lists appointments, emergencies first then oldest first
func (r *AppointmentRepository) GetAppointments(filter AppointmentFilter) ([]models.Appointment, error) {
	appointments := []models.Appointment{}
	query := r.db.Model(&models.Appointment{})
	if filter.HospitalID != "" {
		query = query.Where("hospital_id = ?", filter.HospitalID)
	}
	if filter.PatientID != "" {
		query = query.Where("patient_id = ?", filter.PatientID)
	}
	if filter.DoctorID != "" {
		query = query.Where("doctor_id = ?", filter.DoctorID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	err := query.Order("is_emergency DESC").Order("created_at ASC").Order("id ASC").Find(&appointments).Error
	return appointments, err
}

// UpdateIfVersion applies updates only if the row is still at version and
// status, bumping the version. It returns false when another writer got there first.
func (r *AppointmentRepository) UpdateIfVersion(id string, version int, status models.AppointmentStatus, updates map[string]interface{}) (bool, error) {
	fields := make(map[string]interface{}, len(updates)+1)
	for k, v := range updates {
		fields[k] = v
	}
	fields["version"] = gorm.Expr("version + 1")

	res := r.db.Model(&models.Appointment{}).
		Where("id = ? AND version = ? AND status = ?", id, version, status).
		Updates(fields)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// DeleteIfVersion deletes the appointment only if it is still at version
func (r *AppointmentRepository) DeleteIfVersion(id string, version int) (bool, error) {
	res := r.db.Where("id = ? AND version = ?", id, version).Delete(&models.Appointment{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
