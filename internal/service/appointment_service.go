package service

import (
	"errors"
	"fmt"
	"strings"

	"hospital-appointments/internal/apperr"
	"hospital-appointments/internal/metrics"
	"hospital-appointments/internal/models"
	"hospital-appointments/internal/repository"
	"hospital-appointments/pkg/logger"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// errStaleVersion means the appointment row changed between read and write
var errStaleVersion = errors.New("appointment was modified concurrently")

// transitions lists the status changes setStatus may apply. pending -> appointed
// is reserved for the assignment coordinator; completed and cancelled are terminal.
var transitions = map[models.AppointmentStatus][]models.AppointmentStatus{
	models.StatusPending:   {models.StatusCancelled},
	models.StatusAppointed: {models.StatusCompleted, models.StatusCancelled},
}

// CanTransition reports whether a direct status update from -> to is allowed
func CanTransition(from, to models.AppointmentStatus) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// AppointmentService is the appointment ledger
type AppointmentService struct {
	db              *gorm.DB
	appointmentRepo *repository.AppointmentRepository
	doctorRepo      *repository.DoctorRepository
	hospitalRepo    *repository.HospitalRepository
	patientRepo     *repository.PatientRepository
	audit           auditor
	log             *logger.Logger
	metrics         *metrics.Metrics
	maxAttempts     int

	// beforeWrite runs inside each status or delete attempt after the row is
	// read and checked; tests use it to let a competing writer commit first
	beforeWrite func()
}

func NewAppointmentService(
	db *gorm.DB,
	appointmentRepo *repository.AppointmentRepository,
	doctorRepo *repository.DoctorRepository,
	hospitalRepo *repository.HospitalRepository,
	patientRepo *repository.PatientRepository,
	auditRepo *repository.AuditRepository,
	log *logger.Logger,
	m *metrics.Metrics,
	maxAttempts int,
) *AppointmentService {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &AppointmentService{
		db:              db,
		appointmentRepo: appointmentRepo,
		doctorRepo:      doctorRepo,
		hospitalRepo:    hospitalRepo,
		patientRepo:     patientRepo,
		audit:           auditor{repo: auditRepo, log: log},
		log:             log,
		metrics:         m,
		maxAttempts:     maxAttempts,
	}
}

// CreateAppointmentInput carries a new appointment request. Hospital actors
// name the patient, patient actors name the hospital.
type CreateAppointmentInput struct {
	HospitalID  string
	PatientID   string
	IsEmergency bool
	Description string
}

// CreateAppointment records a pending, unassigned appointment
func (s *AppointmentService) CreateAppointment(actor Actor, in CreateAppointmentInput) (*models.Appointment, error) {
	appointment := &models.Appointment{
		IsEmergency: in.IsEmergency,
		Description: strings.TrimSpace(in.Description),
		Status:      models.StatusPending,
		Version:     1,
	}

	switch {
	case actor.IsHospital():
		appointment.HospitalID = actor.HospitalID
		appointment.PatientID = strings.TrimSpace(in.PatientID)
		if appointment.PatientID == "" {
			return nil, apperr.Validation("patientId is required")
		}
		if _, err := s.patientRepo.GetPatientByID(appointment.PatientID); err != nil {
			return nil, err
		}
	case actor.IsPatient():
		appointment.PatientID = actor.ID
		appointment.HospitalID = strings.TrimSpace(in.HospitalID)
		if appointment.HospitalID == "" {
			return nil, apperr.Validation("hospitalId is required")
		}
		if _, err := s.hospitalRepo.GetHospitalByCode(appointment.HospitalID); err != nil {
			return nil, err
		}
	default:
		return nil, apperr.ErrForbidden
	}

	if err := s.appointmentRepo.CreateAppointment(appointment); err != nil {
		return nil, fmt.Errorf("failed to create appointment: %w", err)
	}

	s.audit.record(actor, appointment.HospitalID, "appointment_create",
		"Created appointment %s for patient %s (emergency=%t)", appointment.ID, appointment.PatientID, appointment.IsEmergency)
	return appointment, nil
}

// GetAppointment returns an appointment visible to the actor
func (s *AppointmentService) GetAppointment(actor Actor, id string) (*models.Appointment, error) {
	return s.getVisible(s.appointmentRepo, actor, id)
}

// ListAppointments returns the tenant's appointments for hospitals and the
// caller's own for patients, optionally filtered by status
func (s *AppointmentService) ListAppointments(actor Actor, status string) ([]models.Appointment, error) {
	filter := repository.AppointmentFilter{}
	if status != "" {
		st, ok := models.ParseAppointmentStatus(status)
		if !ok {
			return nil, apperr.Validation("unknown status %q", status)
		}
		filter.Status = st
	}

	switch {
	case actor.IsHospital():
		filter.HospitalID = actor.HospitalID
	case actor.IsPatient():
		filter.PatientID = actor.ID
	default:
		return nil, apperr.ErrForbidden
	}
	return s.appointmentRepo.GetAppointments(filter)
}

// SetStatus applies a direct status transition. Patients may only cancel.
// Cancelling an appointed appointment frees the doctor's slot.
func (s *AppointmentService) SetStatus(actor Actor, id, status string) (*models.Appointment, error) {
	target, ok := models.ParseAppointmentStatus(status)
	if !ok {
		return nil, apperr.Validation("unknown status %q", status)
	}
	if actor.IsPatient() && target != models.StatusCancelled {
		return nil, apperr.New(apperr.KindForbidden, "patients may only cancel appointments")
	}

	var (
		result *models.Appointment
		from   models.AppointmentStatus
	)
	err := s.retryOnStale(func() error {
		return s.db.Transaction(func(tx *gorm.DB) error {
			appointments := s.appointmentRepo.WithTx(tx)

			appointment, err := s.getVisible(appointments, actor, id)
			if err != nil {
				return err
			}
			if !CanTransition(appointment.Status, target) {
				return apperr.Newf(apperr.KindInvalidTransition, "cannot move appointment from %s to %s", appointment.Status, target)
			}

			if s.beforeWrite != nil {
				s.beforeWrite()
			}

			// Cancelling drops the list entry; completing keeps it and frees the slot
			if appointment.Status == models.StatusAppointed {
				doctors := s.doctorRepo.WithTx(tx)
				release := doctors.ReleaseSlot
				if target == models.StatusCancelled {
					release = doctors.RemoveAppointment
				}
				if err := release(appointment.ID); err != nil {
					return fmt.Errorf("failed to release doctor slot: %w", err)
				}
			}

			updated, err := appointments.UpdateIfVersion(appointment.ID, appointment.Version, appointment.Status,
				map[string]interface{}{"status": target})
			if err != nil {
				return fmt.Errorf("failed to update appointment status: %w", err)
			}
			if !updated {
				return errStaleVersion
			}

			from = appointment.Status
			appointment.Status = target
			appointment.Version++
			result = appointment
			return nil
		})
	})
	if errors.Is(err, errStaleVersion) {
		return nil, apperr.Wrap(apperr.KindInvalidTransition, "appointment kept changing, status not updated", err)
	}
	if err != nil {
		return nil, err
	}

	s.metrics.StatusTransitions.WithLabelValues(string(from), string(target)).Inc()
	s.log.WithComponent("ledger").WithFields(logrus.Fields{
		"appointment_id": result.ID,
		"from":           from,
		"to":             target,
	}).Info("Appointment status updated")
	s.audit.record(actor, result.HospitalID, "appointment_status", "Appointment %s: %s -> %s", result.ID, from, target)
	return result, nil
}

// DeleteAppointment removes an appointment and its entry in the doctor's list
func (s *AppointmentService) DeleteAppointment(actor Actor, id string) (*models.Appointment, error) {
	if !actor.IsHospital() {
		return nil, apperr.ErrForbidden
	}

	var deleted *models.Appointment
	err := s.retryOnStale(func() error {
		return s.db.Transaction(func(tx *gorm.DB) error {
			appointments := s.appointmentRepo.WithTx(tx)

			appointment, err := s.getVisible(appointments, actor, id)
			if err != nil {
				return err
			}
			if s.beforeWrite != nil {
				s.beforeWrite()
			}
			if err := s.doctorRepo.WithTx(tx).RemoveAppointment(appointment.ID); err != nil {
				return fmt.Errorf("failed to release doctor slot: %w", err)
			}

			ok, err := appointments.DeleteIfVersion(appointment.ID, appointment.Version)
			if err != nil {
				return fmt.Errorf("failed to delete appointment: %w", err)
			}
			if !ok {
				return errStaleVersion
			}
			deleted = appointment
			return nil
		})
	})
	if errors.Is(err, errStaleVersion) {
		return nil, apperr.Wrap(apperr.KindInternal, "appointment kept changing, not deleted", err)
	}
	if err != nil {
		return nil, err
	}

	s.audit.record(actor, deleted.HospitalID, "appointment_delete", "Deleted appointment %s (status %s)", deleted.ID, deleted.Status)
	return deleted, nil
}

// getVisible hides appointments of other tenants and other patients behind NotFound
func (s *AppointmentService) getVisible(repo *repository.AppointmentRepository, actor Actor, id string) (*models.Appointment, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperr.Validation("appointment id is required")
	}
	if !actor.IsHospital() && !actor.IsPatient() {
		return nil, apperr.ErrForbidden
	}

	appointment, err := repo.GetAppointmentByID(id)
	if err != nil {
		return nil, err
	}
	if actor.IsHospital() && appointment.HospitalID != actor.HospitalID {
		return nil, apperr.NotFound("appointment")
	}
	if actor.IsPatient() && appointment.PatientID != actor.ID {
		return nil, apperr.NotFound("appointment")
	}
	return appointment, nil
}

func (s *AppointmentService) retryOnStale(fn func() error) error {
	return retryOnStale(s.maxAttempts, fn)
}

func retryOnStale(attempts int, fn func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); !errors.Is(err, errStaleVersion) {
			return err
		}
	}
	return err
}
