package service

import (
	"hospital-appointments/internal/models"
	"hospital-appointments/internal/repository"
)

// HospitalService serves the public hospital directory and the tenant audit trail
type HospitalService struct {
	hospitalRepo *repository.HospitalRepository
	doctorRepo   *repository.DoctorRepository
	auditRepo    *repository.AuditRepository
}

func NewHospitalService(
	hospitalRepo *repository.HospitalRepository,
	doctorRepo *repository.DoctorRepository,
	auditRepo *repository.AuditRepository,
) *HospitalService {
	return &HospitalService{
		hospitalRepo: hospitalRepo,
		doctorRepo:   doctorRepo,
		auditRepo:    auditRepo,
	}
}

// GetAllHospitals lists every hospital
func (s *HospitalService) GetAllHospitals() ([]models.Hospital, error) {
	return s.hospitalRepo.GetAllHospitals()
}

// GetActiveDoctors lists the active doctors of the hospital with the given public id
func (s *HospitalService) GetActiveDoctors(hospitalID string) ([]models.Doctor, error) {
	if _, err := s.hospitalRepo.GetHospitalByCode(hospitalID); err != nil {
		return nil, err
	}
	return s.doctorRepo.GetDoctorsByHospital(hospitalID, true)
}

// GetAuditTrail returns the most recent audit entries of a hospital
func (s *HospitalService) GetAuditTrail(actor Actor, limit int) ([]models.AuditLog, error) {
	switch {
	case limit <= 0:
		limit = 100
	case limit > 500:
		limit = 500
	}
	return s.auditRepo.ListByHospital(actor.HospitalID, limit)
}
