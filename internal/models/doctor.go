package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Shift is a doctor's working window in whole hours of the day, [Start, End)
type Shift struct {
	Start int `gorm:"not null" json:"start"`
	End   int `gorm:"not null" json:"end"`
}

// Valid reports whether 0 <= Start < End <= 23
func (s Shift) Valid() bool {
	return s.Start >= 0 && s.End <= 23 && s.Start < s.End
}

// Covers reports whether the hour of t falls inside the shift
func (s Shift) Covers(t time.Time) bool {
	h := t.Hour()
	return h >= s.Start && h < s.End
}

// Doctor belongs to exactly one hospital
type Doctor struct {
	ID             string    `gorm:"type:char(36);primaryKey" json:"id"`
	HospitalID     string    `gorm:"size:64;not null;index" json:"hospitalId"`
	Name           string    `gorm:"size:255;not null" json:"name"`
	Email          string    `gorm:"size:255;not null;uniqueIndex" json:"email"`
	Specialisation string    `gorm:"size:255;not null" json:"specialisation"`
	Shift          Shift     `gorm:"embedded;embeddedPrefix:shift_" json:"shift"`
	IsActive       bool      `gorm:"not null;default:true" json:"isActive"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`

	// Filled from doctor_appointments in insertion order
	AppointmentIDs []string `gorm:"-" json:"appointmentIds"`
}

// TableName specifies the table name for Doctor model
func (Doctor) TableName() string {
	return "doctors"
}

func (d *Doctor) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	return nil
}

// DoctorAppointment is one entry of a doctor's appointment list. ActiveSlot
// reserves the doctor's time while the appointment is appointed; it is cleared
// on completion so the entry stays in the list without blocking the slot.
// NULLs never collide in the unique index.
type DoctorAppointment struct {
	ID            uint       `gorm:"primaryKey" json:"-"`
	DoctorID      string     `gorm:"type:char(36);not null;uniqueIndex:idx_doctor_active_slot,priority:1" json:"doctorId"`
	Doctor        *Doctor    `gorm:"foreignKey:DoctorID;constraint:OnDelete:RESTRICT" json:"-"`
	AppointmentID string     `gorm:"type:char(36);not null;uniqueIndex" json:"appointmentId"`
	SlotTime      time.Time  `gorm:"not null" json:"slotTime"`
	ActiveSlot    *time.Time `gorm:"uniqueIndex:idx_doctor_active_slot,priority:2" json:"-"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// TableName specifies the table name for DoctorAppointment model
func (DoctorAppointment) TableName() string {
	return "doctor_appointments"
}
