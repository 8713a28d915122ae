package repository

import (
	"time"

	"hospital-appointments/internal/apperr"
	"hospital-appointments/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DoctorRepository struct {
	db *gorm.DB
}

func NewDoctorRepo(db *gorm.DB) *DoctorRepository {
	return &DoctorRepository{db: db}
}

// WithTx returns a repository bound to an open transaction
func (r *DoctorRepository) WithTx(tx *gorm.DB) *DoctorRepository {
	return &DoctorRepository{db: tx}
}

// CreateDoctor creates a new doctor
func (r *DoctorRepository) CreateDoctor(doctor *models.Doctor) error {
	if err := r.db.Create(doctor).Error; err != nil {
		return translate(err, "doctor")
	}
	doctor.AppointmentIDs = []string{}
	return nil
}

// GetDoctorByID retrieves a doctor with its appointment list
func (r *DoctorRepository) GetDoctorByID(id string) (*models.Doctor, error) {
	var doctor models.Doctor
	if err := r.db.Where("id = ?", id).First(&doctor).Error; err != nil {
		return nil, translate(err, "doctor")
	}

	doctors := []models.Doctor{doctor}
	if err := r.loadAppointmentIDs(doctors); err != nil {
		return nil, err
	}
	return &doctors[0], nil
}

// GetDoctorForUpdate loads a doctor and locks its row until the transaction
// ends, so assignment and deletion of the same doctor cannot interleave
func (r *DoctorRepository) GetDoctorForUpdate(id string) (*models.Doctor, error) {
	var doctor models.Doctor
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&doctor).Error
	if err != nil {
		return nil, translate(err, "doctor")
	}
	return &doctor, nil
}

// GetDoctorsByHospital retrieves a hospital's doctors, optionally only the active ones
func (r *DoctorRepository) GetDoctorsByHospital(hospitalID string, activeOnly bool) ([]models.Doctor, error) {
	doctors := []models.Doctor{}
	query := r.db.Where("hospital_id = ?", hospitalID)
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	if err := query.Order("name ASC").Find(&doctors).Error; err != nil {
		return nil, err
	}
	if err := r.loadAppointmentIDs(doctors); err != nil {
		return nil, err
	}
	return doctors, nil
}

// UpdateDoctor writes the editable columns of doctor, zero values included
func (r *DoctorRepository) UpdateDoctor(doctor *models.Doctor) error {
	err := r.db.Model(doctor).
		Select("name", "email", "specialisation", "shift_start", "shift_end", "is_active", "updated_at").
		Updates(doctor).Error
	return translate(err, "doctor")
}

// DeleteDoctor removes a doctor and its appointment list
func (r *DoctorRepository) DeleteDoctor(id string) error {
	if err := r.db.Where("doctor_id = ?", id).Delete(&models.DoctorAppointment{}).Error; err != nil {
		return err
	}
	res := r.db.Where("id = ?", id).Delete(&models.Doctor{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "doctor")
	}
	return nil
}

// CountAppointed counts the doctor's appointments still in the appointed state
func (r *DoctorRepository) CountAppointed(doctorID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Appointment{}).
		Where("doctor_id = ? AND status = ?", doctorID, models.StatusAppointed).
		Count(&count).Error
	return count, err
}

// SlotTaken reports whether the doctor already has an appointed appointment at slot
func (r *DoctorRepository) SlotTaken(doctorID string, slot time.Time) (bool, error) {
	var count int64
	err := r.db.Model(&models.DoctorAppointment{}).
		Where("doctor_id = ? AND active_slot = ?", doctorID, slot).
		Count(&count).Error
	return count > 0, err
}

// AppendAppointment adds an appointment to the doctor's list, reserving slot.
// A second reservation of the same doctor and slot fails with a duplicate key
// error; a doctor deleted in the meantime fails with NotFound.
func (r *DoctorRepository) AppendAppointment(doctorID, appointmentID string, slot time.Time) error {
	entry := &models.DoctorAppointment{
		DoctorID:      doctorID,
		AppointmentID: appointmentID,
		SlotTime:      slot,
		ActiveSlot:    &slot,
	}
	err := r.db.Create(entry).Error
	if err != nil && isForeignKeyViolation(err) {
		return apperr.Wrap(apperr.KindNotFound, "doctor not found", err)
	}
	return translate(err, "doctor appointment")
}

// ReleaseSlot frees the reservation of a completed appointment and keeps its list entry
func (r *DoctorRepository) ReleaseSlot(appointmentID string) error {
	return r.db.Model(&models.DoctorAppointment{}).
		Where("appointment_id = ?", appointmentID).
		Update("active_slot", nil).Error
}

// RemoveAppointment drops an appointment from whichever doctor list holds it
func (r *DoctorRepository) RemoveAppointment(appointmentID string) error {
	return r.db.Where("appointment_id = ?", appointmentID).Delete(&models.DoctorAppointment{}).Error
}

func (r *DoctorRepository) loadAppointmentIDs(doctors []models.Doctor) error {
	if len(doctors) == 0 {
		return nil
	}

	ids := make([]string, len(doctors))
	for i := range doctors {
		ids[i] = doctors[i].ID
		doctors[i].AppointmentIDs = []string{}
	}

	var entries []models.DoctorAppointment
	if err := r.db.Where("doctor_id IN ?", ids).Order("id ASC").Find(&entries).Error; err != nil {
		return err
	}

	byDoctor := make(map[string][]string, len(doctors))
	for _, e := range entries {
		byDoctor[e.DoctorID] = append(byDoctor[e.DoctorID], e.AppointmentID)
	}
	for i := range doctors {
		if list, ok := byDoctor[doctors[i].ID]; ok {
			doctors[i].AppointmentIDs = list
		}
	}
	return nil
}
