package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Hospital is a tenant. HospitalID is the public identifier used to log in
// and carried in session tokens; ID is internal.
type Hospital struct {
	ID           string    `gorm:"type:char(36);primaryKey" json:"id"`
	HospitalID   string    `gorm:"size:64;not null;uniqueIndex" json:"hospitalId"`
	Email        string    `gorm:"size:255;not null;uniqueIndex" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Address      string    `gorm:"type:text;not null" json:"address"`
	CreatedAt    time.Time `json:"createdAt"`
}

// TableName specifies the table name for Hospital model
func (Hospital) TableName() string {
	return "hospitals"
}

func (h *Hospital) BeforeCreate(tx *gorm.DB) error {
	if h.ID == "" {
		h.ID = uuid.New().String()
	}
	return nil
}
