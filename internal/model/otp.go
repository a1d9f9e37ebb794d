package model

import "time"

// OTP is the single live verification code of an email address. The unique
// index on Email keeps it that way, new codes replace old ones.
type OTP struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	UserID    string    `gorm:"index;not null"`
	Email     string    `gorm:"uniqueIndex;not null"`
	Code      string    `gorm:"not null"`
	ExpiresAt time.Time `gorm:"index;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (OTP) TableName() string {
	return "otps"
}
