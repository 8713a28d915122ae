package models

import "time"

// AuditLog represents the audit_logs table
// Every mutating tenant or patient action is recorded here
type AuditLog struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ActorType  string    `gorm:"size:16;not null" json:"actorType"`
	ActorID    string    `gorm:"size:64;not null;index" json:"actorId"`
	HospitalID string    `gorm:"size:64;index" json:"hospitalId,omitempty"`
	Action     string    `gorm:"size:100;not null" json:"action"`
	Details    string    `gorm:"type:text" json:"details"`
	CreatedAt  time.Time `json:"createdAt"`
}

// TableName specifies the table name for AuditLog model
func (AuditLog) TableName() string {
	return "audit_logs"
}
