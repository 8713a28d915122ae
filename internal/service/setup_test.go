package service

import (
	"testing"
	"time"

	"hospital-appointments/internal/metrics"
	"hospital-appointments/internal/models"
	"hospital-appointments/internal/repository"
	"hospital-appointments/internal/testutil"
	"hospital-appointments/pkg/logger"
	"hospital-appointments/pkg/utils"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type testEnv struct {
	db           *gorm.DB
	metrics      *metrics.Metrics
	tokens       *utils.TokenManager
	auth         *AuthService
	hospitals    *HospitalService
	doctors      *DoctorService
	appointments *AppointmentService
	assignments  *AssignmentService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvOn(t, testutil.NewDB(t))
}

// newRaceEnv runs on a database whose connections can hold open transactions
// side by side, so a hook can commit a competing write mid-operation
func newRaceEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvOn(t, testutil.NewConcurrentDB(t))
}

func newTestEnvOn(t *testing.T, db *gorm.DB) *testEnv {
	t.Helper()

	log := logger.Discard()
	m := metrics.New(prometheus.NewRegistry())
	tokens := utils.NewTokenManager("test-secret", time.Hour, 24*time.Hour)

	hospitalRepo := repository.NewHospitalRepo(db)
	patientRepo := repository.NewPatientRepo(db)
	sessionRepo := repository.NewSessionRepo(db)
	auditRepo := repository.NewAuditRepo(db)
	doctorRepo := repository.NewDoctorRepo(db)
	appointmentRepo := repository.NewAppointmentRepo(db)

	auth := NewAuthService(hospitalRepo, patientRepo, sessionRepo, auditRepo, tokens, log)
	auth.hashPassword = func(p string) (string, error) {
		return utils.HashPasswordWithCost(p, bcrypt.MinCost)
	}

	return &testEnv{
		db:           db,
		metrics:      m,
		tokens:       tokens,
		auth:         auth,
		hospitals:    NewHospitalService(hospitalRepo, doctorRepo, auditRepo),
		doctors:      NewDoctorService(db, doctorRepo, auditRepo, log),
		appointments: NewAppointmentService(db, appointmentRepo, doctorRepo, hospitalRepo, patientRepo, auditRepo, log, m, 3),
		assignments:  NewAssignmentService(db, appointmentRepo, doctorRepo, auditRepo, log, m, 3),
	}
}

// registerHospital creates a tenant and returns its admin actor
func (e *testEnv) registerHospital(t *testing.T, code string) Actor {
	t.Helper()
	h, err := e.auth.RegisterHospital(RegisterHospitalInput{
		HospitalID: code,
		Email:      code + "@hospital.test",
		Password:   "password",
		Address:    "1 Main St",
	})
	require.NoError(t, err)
	return HospitalActor(h.ID, h.HospitalID)
}

func (e *testEnv) createDoctor(t *testing.T, admin Actor, name string, start, end int) *models.Doctor {
	t.Helper()
	d, err := e.doctors.CreateDoctor(admin, CreateDoctorInput{
		Name:           name,
		Email:          name + "@" + admin.HospitalID + ".test",
		Specialisation: "General",
		Shift:          models.Shift{Start: start, End: end},
	})
	require.NoError(t, err)
	return d
}

// ensurePatient stores a patient account with id unless it already exists
func (e *testEnv) ensurePatient(t *testing.T, id string) {
	t.Helper()
	patient := models.Patient{
		ID:           id,
		FullName:     "Patient " + id,
		Email:        id + "@patient.test",
		PasswordHash: "x",
	}
	require.NoError(t, e.db.Where("id = ?", id).FirstOrCreate(&patient).Error)
}

func (e *testEnv) createAppointment(t *testing.T, admin Actor, patientID string) *models.Appointment {
	t.Helper()
	e.ensurePatient(t, patientID)
	a, err := e.appointments.CreateAppointment(admin, CreateAppointmentInput{
		PatientID:   patientID,
		Description: "check-up",
	})
	require.NoError(t, err)
	return a
}

func at(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := ParseAppointmentTime(s)
	require.NoError(t, err)
	return ts
}

// assertInvariants checks the cross-entity rules against the stored rows
func (e *testEnv) assertInvariants(t *testing.T) {
	t.Helper()

	var appointments []models.Appointment
	require.NoError(t, e.db.Find(&appointments).Error)
	var entries []models.DoctorAppointment
	require.NoError(t, e.db.Find(&entries).Error)

	listed := map[string]string{}
	active := map[string]time.Time{}
	for _, entry := range entries {
		listed[entry.AppointmentID] = entry.DoctorID
		if entry.ActiveSlot != nil {
			active[entry.AppointmentID] = *entry.ActiveSlot
		}
	}

	for _, a := range appointments {
		switch a.Status {
		case models.StatusPending:
			assert.Nil(t, a.DoctorID, "pending appointment %s has a doctor", a.ID)
			assert.Nil(t, a.AppointmentTime, "pending appointment %s has a time", a.ID)
		case models.StatusAppointed:
			if assert.NotNil(t, a.DoctorID) && assert.NotNil(t, a.AppointmentTime) {
				var doctor models.Doctor
				require.NoError(t, e.db.Where("id = ?", *a.DoctorID).First(&doctor).Error)
				assert.Equal(t, a.HospitalID, doctor.HospitalID)
			}
		}

		if entry, ok := active[a.ID]; ok || a.Status == models.StatusAppointed {
			assert.True(t, ok, "appointed appointment %s holds no slot", a.ID)
			assert.Equal(t, models.StatusAppointed, a.Status, "%s appointment %s still holds a slot", a.Status, a.ID)
			if ok && a.AppointmentTime != nil {
				assert.True(t, entry.Equal(*a.AppointmentTime))
			}
		}

		doctorID, inList := listed[a.ID]
		wantListed := a.Status == models.StatusAppointed || a.Status == models.StatusCompleted
		assert.Equal(t, wantListed, inList, "appointment %s (%s) list membership", a.ID, a.Status)
		if inList && a.DoctorID != nil {
			assert.Equal(t, *a.DoctorID, doctorID)
		}
		delete(listed, a.ID)
	}
	assert.Empty(t, listed, "doctor lists reference missing appointments")
}
