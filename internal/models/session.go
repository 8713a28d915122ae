package models

import "time"

// RefreshToken represents the refresh_tokens table.
// SubjectType is "hospital" or "patient"; SubjectID is the internal id.
type RefreshToken struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	SubjectType string    `gorm:"size:16;not null" json:"subjectType"`
	SubjectID   string    `gorm:"type:char(36);not null;index" json:"subjectId"`
	TokenHash   string    `gorm:"not null;size:255;uniqueIndex" json:"-"`
	ExpiresAt   time.Time `gorm:"not null" json:"expiresAt"`
	CreatedAt   time.Time `json:"createdAt"`
	Revoked     bool      `gorm:"default:false" json:"revoked"`
}

// TableName specifies the table name for RefreshToken model
func (RefreshToken) TableName() string {
	return "refresh_tokens"
}
