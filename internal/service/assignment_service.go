package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"hospital-appointments/internal/apperr"
	"hospital-appointments/internal/metrics"
	"hospital-appointments/internal/models"
	"hospital-appointments/internal/repository"
	"hospital-appointments/pkg/logger"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// appointmentTimeLayouts are accepted by ParseAppointmentTime, most specific first
var appointmentTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// ParseAppointmentTime parses an RFC3339 timestamp or a zone-less
// "2006-01-02T15:04[:05]" wall clock, which is taken as UTC
func ParseAppointmentTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range appointmentTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, apperr.Validation("time %q is not an RFC3339 or YYYY-MM-DDTHH:MM timestamp", s)
}

// AssignmentService binds pending appointments to doctors
type AssignmentService struct {
	db              *gorm.DB
	appointmentRepo *repository.AppointmentRepository
	doctorRepo      *repository.DoctorRepository
	audit           auditor
	log             *logger.Logger
	metrics         *metrics.Metrics
	maxAttempts     int

	// beforeReserve runs inside each attempt after the checks pass and before
	// any write; tests use it to let a competing writer commit first
	beforeReserve func()
}

func NewAssignmentService(
	db *gorm.DB,
	appointmentRepo *repository.AppointmentRepository,
	doctorRepo *repository.DoctorRepository,
	auditRepo *repository.AuditRepository,
	log *logger.Logger,
	m *metrics.Metrics,
	maxAttempts int,
) *AssignmentService {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &AssignmentService{
		db:              db,
		appointmentRepo: appointmentRepo,
		doctorRepo:      doctorRepo,
		audit:           auditor{repo: auditRepo, log: log},
		log:             log,
		metrics:         m,
		maxAttempts:     maxAttempts,
	}
}

// Assign binds a pending appointment to doctorID at the given time.
//
// The appointment update and the doctor's list append commit in one
// transaction. The doctor row is locked for the duration so a concurrent
// delete waits. The unique index on (doctor, active slot) makes the slot
// reservation atomic, and the appointment write is guarded by its version;
// a lost race is retried up to maxAttempts and then reported as SlotConflict.
func (s *AssignmentService) Assign(actor Actor, appointmentID, doctorID string, at time.Time) (*models.Appointment, error) {
	entry := s.log.WithComponent("coordinator").WithFields(logrus.Fields{
		"appointment_id": appointmentID,
		"doctor_id":      doctorID,
		"time":           at,
	})

	appointment, err := s.assign(actor, appointmentID, doctorID, at)
	if err != nil {
		outcome := metrics.OutcomeRejected
		switch apperr.KindOf(err) {
		case apperr.KindSlotConflict:
			outcome = metrics.OutcomeConflict
		case apperr.KindInternal:
			outcome = metrics.OutcomeError
		}
		s.metrics.Assignments.WithLabelValues(outcome).Inc()
		entry.WithError(err).WithField("outcome", outcome).Warn("Appointment assignment failed")
		return nil, err
	}

	s.metrics.Assignments.WithLabelValues(metrics.OutcomeAssigned).Inc()
	entry.Info("Appointment assigned")
	s.audit.record(actor, appointment.HospitalID, "appointment_assign",
		"Assigned appointment %s to doctor %s at %s", appointment.ID, doctorID, appointment.AppointmentTime.Format(time.RFC3339))
	return appointment, nil
}

func (s *AssignmentService) assign(actor Actor, appointmentID, doctorID string, at time.Time) (*models.Appointment, error) {
	if !actor.IsHospital() {
		return nil, apperr.ErrForbidden
	}
	if strings.TrimSpace(appointmentID) == "" || strings.TrimSpace(doctorID) == "" {
		return nil, apperr.Validation("appointment id and doctorId are required")
	}
	if at.IsZero() {
		return nil, apperr.Validation("time is required")
	}

	var result *models.Appointment
	err := retryOnStale(s.maxAttempts, func() error {
		var err error
		result, err = s.assignOnce(actor, appointmentID, doctorID, at)
		return err
	})
	if errors.Is(err, errStaleVersion) {
		return nil, apperr.Wrap(apperr.KindSlotConflict, "assignment lost to concurrent updates", err)
	}
	return result, err
}

func (s *AssignmentService) assignOnce(actor Actor, appointmentID, doctorID string, at time.Time) (*models.Appointment, error) {
	slot := at.UTC().Truncate(time.Second)

	var result *models.Appointment
	err := s.db.Transaction(func(tx *gorm.DB) error {
		appointments := s.appointmentRepo.WithTx(tx)
		doctors := s.doctorRepo.WithTx(tx)

		appointment, err := appointments.GetAppointmentByID(appointmentID)
		if err != nil {
			return err
		}
		if appointment.HospitalID != actor.HospitalID {
			return apperr.NotFound("appointment")
		}
		if appointment.Status != models.StatusPending {
			return apperr.Newf(apperr.KindInvalidTransition, "appointment is %s; only pending appointments can be assigned", appointment.Status)
		}

		doctor, err := doctors.GetDoctorForUpdate(doctorID)
		if err != nil {
			return err
		}
		if doctor.HospitalID != appointment.HospitalID {
			return apperr.ErrTenantMismatch
		}
		if !doctor.IsActive {
			return apperr.ErrDoctorInactive
		}
		// The shift is checked against the wall clock the caller supplied
		if !doctor.Shift.Covers(at) {
			return apperr.Newf(apperr.KindOutsideShift, "%02d:%02d is outside the doctor's shift %02d:00-%02d:00",
				at.Hour(), at.Minute(), doctor.Shift.Start, doctor.Shift.End)
		}

		taken, err := doctors.SlotTaken(doctor.ID, slot)
		if err != nil {
			return fmt.Errorf("failed to check doctor slot: %w", err)
		}
		if taken {
			return apperr.ErrSlotConflict
		}

		if s.beforeReserve != nil {
			s.beforeReserve()
		}

		if err := doctors.AppendAppointment(doctor.ID, appointment.ID, slot); err != nil {
			if errors.Is(err, apperr.ErrDuplicateKey) {
				// A concurrent assignment reserved the slot or this appointment; re-evaluate from scratch
				return errStaleVersion
			}
			return fmt.Errorf("failed to append appointment to doctor: %w", err)
		}

		updated, err := appointments.UpdateIfVersion(appointment.ID, appointment.Version, models.StatusPending, map[string]interface{}{
			"doctor_id":        doctor.ID,
			"appointment_time": slot,
			"status":           models.StatusAppointed,
		})
		if err != nil {
			return fmt.Errorf("failed to update appointment: %w", err)
		}
		if !updated {
			return errStaleVersion
		}

		appointment.DoctorID = &doctor.ID
		appointment.AppointmentTime = &slot
		appointment.Status = models.StatusAppointed
		appointment.Version++
		result = appointment
		return nil
	})
	return result, err
}
