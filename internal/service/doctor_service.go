package service

import (
	"fmt"
	"strings"

	"hospital-appointments/internal/apperr"
	"hospital-appointments/internal/models"
	"hospital-appointments/internal/repository"
	"hospital-appointments/pkg/logger"

	"gorm.io/gorm"
)

// DoctorService is the per-hospital doctor registry
type DoctorService struct {
	db         *gorm.DB
	doctorRepo *repository.DoctorRepository
	audit      auditor
	log        *logger.Logger
}

func NewDoctorService(
	db *gorm.DB,
	doctorRepo *repository.DoctorRepository,
	auditRepo *repository.AuditRepository,
	log *logger.Logger,
) *DoctorService {
	return &DoctorService{
		db:         db,
		doctorRepo: doctorRepo,
		audit:      auditor{repo: auditRepo, log: log},
		log:        log,
	}
}

// CreateDoctorInput carries the fields of a new doctor
type CreateDoctorInput struct {
	Name           string
	Email          string
	Specialisation string
	Shift          models.Shift
}

// DoctorPatch lists the editable doctor fields; nil means unchanged
type DoctorPatch struct {
	Name           *string
	Email          *string
	Specialisation *string
	Shift          *models.Shift
	IsActive       *bool
}

func (p DoctorPatch) empty() bool {
	return p.Name == nil && p.Email == nil && p.Specialisation == nil && p.Shift == nil && p.IsActive == nil
}

// CreateDoctor registers an active doctor in the actor's hospital
func (s *DoctorService) CreateDoctor(actor Actor, in CreateDoctorInput) (*models.Doctor, error) {
	if !actor.IsHospital() {
		return nil, apperr.ErrForbidden
	}

	doctor := &models.Doctor{
		HospitalID:     actor.HospitalID,
		Name:           strings.TrimSpace(in.Name),
		Email:          strings.ToLower(strings.TrimSpace(in.Email)),
		Specialisation: strings.TrimSpace(in.Specialisation),
		Shift:          in.Shift,
		IsActive:       true,
	}
	if err := validateDoctor(doctor); err != nil {
		return nil, err
	}

	if err := s.doctorRepo.CreateDoctor(doctor); err != nil {
		return nil, err
	}

	s.audit.record(actor, actor.HospitalID, "doctor_create", "Created doctor %s (%s)", doctor.ID, doctor.Email)
	return doctor, nil
}

// GetDoctor returns a doctor of the actor's hospital
func (s *DoctorService) GetDoctor(actor Actor, id string) (*models.Doctor, error) {
	return s.getOwned(s.doctorRepo, actor, id)
}

// ListDoctors returns every doctor of the actor's hospital, possibly none
func (s *DoctorService) ListDoctors(actor Actor) ([]models.Doctor, error) {
	if !actor.IsHospital() {
		return nil, apperr.ErrForbidden
	}
	return s.doctorRepo.GetDoctorsByHospital(actor.HospitalID, false)
}

// UpdateDoctor applies patch and re-validates the merged record
func (s *DoctorService) UpdateDoctor(actor Actor, id string, patch DoctorPatch) (*models.Doctor, error) {
	if patch.empty() {
		return nil, apperr.Validation("no fields to update")
	}

	doctor, err := s.getOwned(s.doctorRepo, actor, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		doctor.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Email != nil {
		doctor.Email = strings.ToLower(strings.TrimSpace(*patch.Email))
	}
	if patch.Specialisation != nil {
		doctor.Specialisation = strings.TrimSpace(*patch.Specialisation)
	}
	if patch.Shift != nil {
		doctor.Shift = *patch.Shift
	}
	if patch.IsActive != nil {
		doctor.IsActive = *patch.IsActive
	}
	if err := validateDoctor(doctor); err != nil {
		return nil, err
	}

	if err := s.doctorRepo.UpdateDoctor(doctor); err != nil {
		return nil, err
	}

	s.audit.record(actor, actor.HospitalID, "doctor_update", "Updated doctor %s", doctor.ID)
	return doctor, nil
}

// DeleteDoctor removes a doctor that holds no appointed appointments
func (s *DoctorService) DeleteDoctor(actor Actor, id string) (*models.Doctor, error) {
	var deleted *models.Doctor
	err := s.db.Transaction(func(tx *gorm.DB) error {
		doctors := s.doctorRepo.WithTx(tx)

		if !actor.IsHospital() {
			return apperr.ErrForbidden
		}
		// Locked so an assignment in flight either commits first and is counted,
		// or waits and then finds the doctor gone
		doctor, err := doctors.GetDoctorForUpdate(id)
		if err != nil {
			return err
		}
		if doctor.HospitalID != actor.HospitalID {
			return apperr.NotFound("doctor")
		}

		active, err := doctors.CountAppointed(doctor.ID)
		if err != nil {
			return fmt.Errorf("failed to count appointments: %w", err)
		}
		if active > 0 {
			return apperr.Newf(apperr.KindDoctorBusy, "doctor has %d appointed appointment(s); cancel or complete them first", active)
		}

		if err := doctors.DeleteDoctor(doctor.ID); err != nil {
			return err
		}
		deleted = doctor
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.record(actor, actor.HospitalID, "doctor_delete", "Deleted doctor %s (%s)", deleted.ID, deleted.Email)
	return deleted, nil
}

// getOwned loads a doctor and hides doctors of other hospitals behind NotFound
func (s *DoctorService) getOwned(repo *repository.DoctorRepository, actor Actor, id string) (*models.Doctor, error) {
	if !actor.IsHospital() {
		return nil, apperr.ErrForbidden
	}
	if strings.TrimSpace(id) == "" {
		return nil, apperr.Validation("doctor id is required")
	}

	doctor, err := repo.GetDoctorByID(id)
	if err != nil {
		return nil, err
	}
	if doctor.HospitalID != actor.HospitalID {
		return nil, apperr.NotFound("doctor")
	}
	return doctor, nil
}

func validateDoctor(d *models.Doctor) error {
	switch {
	case d.Name == "":
		return apperr.Validation("name is required")
	case d.Email == "":
		return apperr.Validation("email is required")
	case d.Specialisation == "":
		return apperr.Validation("specialisation is required")
	}
	if err := validate.Var(d.Email, "email"); err != nil {
		return apperr.Validation("email is not a valid address")
	}
	if !d.Shift.Valid() {
		return apperr.Validation("shift must satisfy 0 <= start < end <= 23, got start=%d end=%d", d.Shift.Start, d.Shift.End)
	}
	return nil
}
