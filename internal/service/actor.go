package service

import (
	"fmt"

	"hospital-appointments/internal/repository"
	"hospital-appointments/pkg/logger"
	"hospital-appointments/pkg/utils"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Actor is the authenticated caller of a service operation
type Actor struct {
	Type       string // utils.SubjectHospital or utils.SubjectPatient
	ID         string // internal id of the hospital or patient
	HospitalID string // tenant for hospital actors, empty for patients
}

func HospitalActor(internalID, hospitalID string) Actor {
	return Actor{Type: utils.SubjectHospital, ID: internalID, HospitalID: hospitalID}
}

func PatientActor(patientID string) Actor {
	return Actor{Type: utils.SubjectPatient, ID: patientID}
}

func (a Actor) IsHospital() bool {
	return a.Type == utils.SubjectHospital && a.HospitalID != ""
}

func (a Actor) IsPatient() bool {
	return a.Type == utils.SubjectPatient && a.ID != ""
}

// auditor writes audit rows; a failed write is logged and never fails the operation
type auditor struct {
	repo *repository.AuditRepository
	log  *logger.Logger
}

// record files the entry under hospitalID, which for patient actors is the
// hospital the action touched
func (a auditor) record(actor Actor, hospitalID, action, format string, args ...interface{}) {
	details := fmt.Sprintf(format, args...)
	if err := a.repo.CreateAuditLog(actor.Type, actor.ID, hospitalID, action, details); err != nil {
		a.log.WithComponent("audit").WithError(err).WithField("action", action).Warn("Failed to write audit log")
	}
	a.log.Audit(actor.Type, actor.ID, action, true, map[string]interface{}{
		"hospital_id": hospitalID,
		"details":     details,
	})
}
