package repository

import (
	"hospital-appointments/internal/models"

	"gorm.io/gorm"
)

type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepo(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// CreateAuditLog creates a new audit log entry
func (r *AuditRepository) CreateAuditLog(actorType, actorID, hospitalID, action, details string) error {
	log := &models.AuditLog{
		ActorType:  actorType,
		ActorID:    actorID,
		HospitalID: hospitalID,
		Action:     action,
		Details:    details,
	}
	return r.db.Create(log).Error
}

// ListByHospital returns the newest audit entries for a hospital
func (r *AuditRepository) ListByHospital(hospitalID string, limit int) ([]models.AuditLog, error) {
	var logs []models.AuditLog
	err := r.db.Where("hospital_id = ?", hospitalID).
		Order("id DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}
