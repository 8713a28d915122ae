package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "pending"
	StatusAppointed AppointmentStatus = "appointed"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
)

// ParseAppointmentStatus returns the status named by s, or false if s is unknown
func ParseAppointmentStatus(s string) (AppointmentStatus, bool) {
	switch st := AppointmentStatus(s); st {
	case StatusPending, StatusAppointed, StatusCompleted, StatusCancelled:
		return st, true
	}
	return "", false
}

// Appointment is unassigned (DoctorID and AppointmentTime nil) while pending.
// Version is bumped on every write and guards concurrent updates.
type Appointment struct {
	ID              string            `gorm:"type:char(36);primaryKey" json:"id"`
	HospitalID      string            `gorm:"size:64;not null;index" json:"hospitalId"`
	PatientID       string            `gorm:"size:64;not null;index" json:"patientId"`
	DoctorID        *string           `gorm:"type:char(36);index" json:"doctorId"`
	AppointmentTime *time.Time        `json:"appointmentTime"`
	IsEmergency     bool              `gorm:"not null;default:false" json:"isEmergency"`
	Description     string            `gorm:"type:text" json:"description"`
	Status          AppointmentStatus `gorm:"size:16;not null;default:'pending';index" json:"status"`
	Version         int               `gorm:"not null;default:1" json:"-"`
	CreatedAt       time.Time         `json:"createdAt"`
	UpdatedAt       time.Time         `json:"updatedAt"`
}

// TableName specifies the table name for Appointment model
func (Appointment) TableName() string {
	return "appointments"
}

func (a *Appointment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return nil
}
