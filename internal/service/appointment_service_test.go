package service

import (
	"errors"
	"sync/atomic"
	"testing"

	"hospital-appointments/internal/apperr"
	"hospital-appointments/internal/models"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAppointment_RoundTrip(t *testing.T) {
	env := newTestEnv(t)
	admin := env.registerHospital(t, "H1")
	env.ensurePatient(t, "patient-1")

	created, err := env.appointments.CreateAppointment(admin, CreateAppointmentInput{
		PatientID: "patient-1", IsEmergency: true, Description: "chest pain",
	})
	require.NoError(t, err)

	got, err := env.appointments.GetAppointment(admin, created.ID)
	require.NoError(t, err)

	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "H1", got.HospitalID)
	assert.Equal(t, "patient-1", got.PatientID)
	assert.True(t, got.IsEmergency)
	assert.Equal(t, "chest pain", got.Description)
	assert.Equal(t, models.StatusPending, got.Status)
	assert.Nil(t, got.DoctorID)
	assert.Nil(t, got.AppointmentTime)
	env.assertInvariants(t)
}

func TestCreateAppointment_RequiresPatient(t *testing.T) {
	env := newTestEnv(t)
	admin := env.registerHospital(t, "H1")

	_, err := env.appointments.CreateAppointment(admin, CreateAppointmentInput{Description: "x"})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestCreateAppointment_UnknownPatient(t *testing.T) {
	env := newTestEnv(t)
	admin := env.registerHospital(t, "H1")

	_, err := env.appointments.CreateAppointment(admin, CreateAppointmentInput{PatientID: "nobody", Description: "x"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	list, err := env.appointments.ListAppointments(admin, "")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCreateAppointment_ByPatient(t *testing.T) {
	env := newTestEnv(t)
	env.registerHospital(t, "H1")
	patient := PatientActor("patient-7")

	a, err := env.appointments.CreateAppointment(patient, CreateAppointmentInput{HospitalID: "H1", Description: "rash"})
	require.NoError(t, err)
	assert.Equal(t, "patient-7", a.PatientID)
	assert.Equal(t, "H1", a.HospitalID)

	_, err = env.appointments.CreateAppointment(patient, CreateAppointmentInput{HospitalID: "H404"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = env.appointments.CreateAppointment(patient, CreateAppointmentInput{})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestListAppointments_ScopedAndFiltered(t *testing.T) {
	env := newTestEnv(t)
	h1 := env.registerHospital(t, "H1")
	h2 := env.registerHospital(t, "H2")

	routine := env.createAppointment(t, h1, "patient-1")
	env.ensurePatient(t, "patient-2")
	urgent, err := env.appointments.CreateAppointment(h1, CreateAppointmentInput{PatientID: "patient-2", IsEmergency: true})
	require.NoError(t, err)
	env.createAppointment(t, h2, "patient-1")

	list, err := env.appointments.ListAppointments(h1, "")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, urgent.ID, list[0].ID, "emergencies are listed first")
	assert.Equal(t, routine.ID, list[1].ID)

	_, err = env.appointments.SetStatus(h1, routine.ID, "cancelled")
	require.NoError(t, err)

	pending, err := env.appointments.ListAppointments(h1, "pending")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, urgent.ID, pending[0].ID)

	mine, err := env.appointments.ListAppointments(PatientActor("patient-1"), "")
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	_, err = env.appointments.ListAppointments(h1, "bogus")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestGetAppointment_OtherTenantIsNotFound(t *testing.T) {
	env := newTestEnv(t)
	h1 := env.registerHospital(t, "H1")
	h2 := env.registerHospital(t, "H2")
	a := env.createAppointment(t, h1, "patient-1")

	_, err := env.appointments.GetAppointment(h2, a.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = env.appointments.GetAppointment(PatientActor("patient-2"), a.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = env.appointments.GetAppointment(h1, "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCanTransition(t *testing.T) {
	all := []models.AppointmentStatus{models.StatusPending, models.StatusAppointed, models.StatusCompleted, models.StatusCancelled}
	allowed := map[[2]models.AppointmentStatus]bool{
		{models.StatusPending, models.StatusCancelled}:   true,
		{models.StatusAppointed, models.StatusCompleted}: true,
		{models.StatusAppointed, models.StatusCancelled}: true,
	}

	for _, from := range all {
		for _, to := range all {
			assert.Equal(t, allowed[[2]models.AppointmentStatus{from, to}], CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestSetStatus_RejectsInvalidTransitions(t *testing.T) {
	env := newTestEnv(t)
	admin := env.registerHospital(t, "H1")
	a := env.createAppointment(t, admin, "patient-1")

	_, err := env.appointments.SetStatus(admin, a.ID, "completed")
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)

	_, err = env.appointments.SetStatus(admin, a.ID, "appointed")
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition, "pending -> appointed goes through assign")

	_, err = env.appointments.SetStatus(admin, a.ID, "whatever")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	cancelled, err := env.appointments.SetStatus(admin, a.ID, "cancelled")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, cancelled.Status)

	_, err = env.appointments.SetStatus(admin, a.ID, "pending")
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition, "cancelled is terminal")
	env.assertInvariants(t)
}

func TestSetStatus_CancelReleasesDoctorSlot(t *testing.T) {
	env := newTestEnv(t)
	admin := env.registerHospital(t, "H1")
	d := env.createDoctor(t, admin, "Dr-A", 9, 17)
	first := env.createAppointment(t, admin, "patient-1")
	second := env.createAppointment(t, admin, "patient-2")
	slot := at(t, "2025-01-01T10:00")

	_, err := env.assignments.Assign(admin, first.ID, d.ID, slot)
	require.NoError(t, err)

	_, err = env.appointments.SetStatus(admin, first.ID, "cancelled")
	require.NoError(t, err)

	doctor, err := env.doctors.GetDoctor(admin, d.ID)
	require.NoError(t, err)
	assert.Empty(t, doctor.AppointmentIDs)
	env.assertInvariants(t)

	_, err = env.assignments.Assign(admin, second.ID, d.ID, slot)
	require.NoError(t, err)
	env.assertInvariants(t)

	from := testutil.ToFloat64(env.metrics.StatusTransitions.WithLabelValues("appointed", "cancelled"))
	assert.Equal(t, 1.0, from)
}

func TestSetStatus_CompleteKeepsDoctorList(t *testing.T) {
	env := newTestEnv(t)
	admin := env.registerHospital(t, "H1")
	d := env.createDoctor(t, admin, "Dr-A", 9, 17)
	a := env.createAppointment(t, admin, "patient-1")

	_, err := env.assignments.Assign(admin, a.ID, d.ID, at(t, "2025-01-01T10:00"))
	require.NoError(t, err)

	done, err := env.appointments.SetStatus(admin, a.ID, "completed")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, done.Status)

	doctor, err := env.doctors.GetDoctor(admin, d.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID}, doctor.AppointmentIDs)

	_, err = env.appointments.SetStatus(admin, a.ID, "cancelled")
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition, "completed is terminal")
	env.assertInvariants(t)
}

func TestSetStatus_CompleteFreesDoctorSlot(t *testing.T) {
	env := newTestEnv(t)
	admin := env.registerHospital(t, "H1")
	d := env.createDoctor(t, admin, "Dr-A", 9, 17)
	first := env.createAppointment(t, admin, "patient-1")
	second := env.createAppointment(t, admin, "patient-2")
	slot := at(t, "2025-01-01T10:00")

	_, err := env.assignments.Assign(admin, first.ID, d.ID, slot)
	require.NoError(t, err)
	_, err = env.appointments.SetStatus(admin, first.ID, "completed")
	require.NoError(t, err)

	got, err := env.assignments.Assign(admin, second.ID, d.ID, slot)
	require.NoError(t, err, "a completed appointment no longer holds the slot")
	assert.Equal(t, models.StatusAppointed, got.Status)

	doctor, err := env.doctors.GetDoctor(admin, d.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{first.ID, second.ID}, doctor.AppointmentIDs)
	env.assertInvariants(t)
}

func TestSetStatus_RetriesAfterConcurrentAssign(t *testing.T) {
	env := newRaceEnv(t)
	admin := env.registerHospital(t, "H1")
	d := env.createDoctor(t, admin, "Dr-A", 9, 17)
	a := env.createAppointment(t, admin, "patient-1")

	var fired atomic.Bool
	env.appointments.beforeWrite = func() {
		if fired.CompareAndSwap(false, true) {
			_, err := env.assignments.Assign(admin, a.ID, d.ID, at(t, "2025-01-01T10:00"))
			require.NoError(t, err)
		}
	}

	got, err := env.appointments.SetStatus(admin, a.ID, "cancelled")
	require.NoError(t, err)
	assert.True(t, fired.Load())
	assert.Equal(t, models.StatusCancelled, got.Status)
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.StatusTransitions.WithLabelValues("appointed", "cancelled")),
		"the retry saw the appointed row written underneath it")

	doctor, err := env.doctors.GetDoctor(admin, d.ID)
	require.NoError(t, err)
	assert.Empty(t, doctor.AppointmentIDs)
	env.assertInvariants(t)
}

func TestSetStatus_GivesUpWhenAlwaysStale(t *testing.T) {
	env := newRaceEnv(t)
	admin := env.registerHospital(t, "H1")
	a := env.createAppointment(t, admin, "patient-1")

	calls := 0
	env.appointments.beforeWrite = func() {
		calls++
		require.NoError(t, env.db.Exec("UPDATE appointments SET version = version + 1 WHERE id = ?", a.ID).Error)
	}

	_, err := env.appointments.SetStatus(admin, a.ID, "cancelled")
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
	assert.Equal(t, 3, calls)

	got, err := env.appointments.GetAppointment(admin, a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, got.Status)
	assert.Equal(t, 4, got.Version)
}

func TestSetStatus_PatientMayOnlyCancelOwn(t *testing.T) {
	env := newTestEnv(t)
	admin := env.registerHospital(t, "H1")
	a := env.createAppointment(t, admin, "patient-1")

	_, err := env.appointments.SetStatus(PatientActor("patient-1"), a.ID, "completed")
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = env.appointments.SetStatus(PatientActor("patient-2"), a.ID, "cancelled")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	got, err := env.appointments.SetStatus(PatientActor("patient-1"), a.ID, "cancelled")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, got.Status)
}

func TestDeleteAppointment(t *testing.T) {
	env := newTestEnv(t)
	admin := env.registerHospital(t, "H1")
	d := env.createDoctor(t, admin, "Dr-A", 9, 17)
	a := env.createAppointment(t, admin, "patient-1")

	_, err := env.assignments.Assign(admin, a.ID, d.ID, at(t, "2025-01-01T10:00"))
	require.NoError(t, err)

	deleted, err := env.appointments.DeleteAppointment(admin, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, deleted.ID)

	_, err = env.appointments.GetAppointment(admin, a.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	doctor, err := env.doctors.GetDoctor(admin, d.ID)
	require.NoError(t, err)
	assert.Empty(t, doctor.AppointmentIDs)
	env.assertInvariants(t)

	_, err = env.appointments.DeleteAppointment(admin, a.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = env.appointments.DeleteAppointment(PatientActor("patient-1"), a.ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestDeleteAppointment_RetriesAfterConcurrentCancel(t *testing.T) {
	env := newRaceEnv(t)
	admin := env.registerHospital(t, "H1")
	d := env.createDoctor(t, admin, "Dr-A", 9, 17)
	a := env.createAppointment(t, admin, "patient-1")
	_, err := env.assignments.Assign(admin, a.ID, d.ID, at(t, "2025-01-01T10:00"))
	require.NoError(t, err)

	var fired atomic.Bool
	env.appointments.beforeWrite = func() {
		if fired.CompareAndSwap(false, true) {
			_, err := env.appointments.SetStatus(admin, a.ID, "cancelled")
			require.NoError(t, err)
		}
	}

	deleted, err := env.appointments.DeleteAppointment(admin, a.ID)
	require.NoError(t, err)
	assert.True(t, fired.Load())
	assert.Equal(t, models.StatusCancelled, deleted.Status, "the retry deleted the row as the rival left it")

	_, err = env.appointments.GetAppointment(admin, a.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	env.assertInvariants(t)
}

func TestRetryOnStale(t *testing.T) {
	calls := 0
	err := retryOnStale(3, func() error {
		calls++
		return errStaleVersion
	})
	assert.ErrorIs(t, err, errStaleVersion)
	assert.Equal(t, 3, calls)

	calls = 0
	boom := errors.New("boom")
	err = retryOnStale(3, func() error {
		calls++
		if calls == 1 {
			return errStaleVersion
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, calls)
}
