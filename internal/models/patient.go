package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Patient represents a patient account that can book appointments at any hospital
type Patient struct {
	ID           string     `gorm:"type:char(36);primaryKey" json:"id"`
	FullName     string     `gorm:"size:255;not null" json:"fullName"`
	Email        string     `gorm:"size:255;not null;uniqueIndex" json:"email"`
	PasswordHash string     `gorm:"size:255;not null" json:"-"`
	PhoneNumber  string     `gorm:"size:32" json:"phoneNumber,omitempty"`
	DateOfBirth  *time.Time `gorm:"type:date" json:"dateOfBirth,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// TableName specifies the table name for Patient model
func (Patient) TableName() string {
	return "patients"
}

func (p *Patient) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}
