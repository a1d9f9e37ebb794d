// Package model defines database models
package model

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"

	ProviderCredentials = "credentials"

	DefaultImage   = "https://ik.imagekit.io/4kojujvb7/profileIcon1_3FPZFYj27V?updatedAt=1745381581156"
	DefaultImageID = "680868cc432c476416d53e56"
)

type User struct {
	ID    string `gorm:"primaryKey;type:text" json:"id"`
	Name  string `json:"name"`
	Email string `gorm:"uniqueIndex;not null" json:"email"`
	// Only loaded by credential reads, every other query omits it
	PasswordHash  string    `gorm:"column:password;not null" json:"-"`
	Image         string    `json:"image"`
	ImageID       string    `json:"imageId"`
	Provider      string    `gorm:"not null;default:credentials" json:"provider"`
	Role          string    `gorm:"not null;default:user;index" json:"role"`
	EmailVerified bool      `gorm:"not null;default:false" json:"emailVerified"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`

	OTPs []OTP `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (User) TableName() string {
	return "users"
}
