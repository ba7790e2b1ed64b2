package models

import "time"

// User represents the user model in the database.
//
// A user always has at least one authentication method: either a password
// hash (email signup) or a Google subject id (OAuth signup). Username stays
// NULL until the user picks one, which is why it is a pointer: the unique
// index must not collide on empty strings.
type User struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	Email       string  `gorm:"uniqueIndex;not null;size:255" json:"email"`
	Username    *string `gorm:"uniqueIndex;size:50" json:"username"`
	DisplayName string  `gorm:"size:100" json:"display_name"`

	PasswordHash *string `gorm:"size:100" json:"-"`
	GoogleSubID  *string `gorm:"uniqueIndex;size:255" json:"-"`

	IsEmailVerified                 bool       `gorm:"default:false" json:"is_email_verified"`
	EmailVerificationToken          *string    `gorm:"size:100" json:"-"`
	EmailVerificationTokenExpiresAt *time.Time `json:"-"`
	PasswordResetToken              *string    `gorm:"size:100" json:"-"`
	PasswordResetTokenExpiresAt     *time.Time `json:"-"`

	ProfilePictureURL string `gorm:"size:500" json:"profile_picture_url"`
	Bio               string `gorm:"size:500" json:"bio"`
	PersonalityType   string `gorm:"size:50" json:"personality_type"`
	NearestCity       string `gorm:"size:100" json:"nearest_city"`

	CreatedAt   time.Time  `json:"created_at"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`

	Connections []Connection `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Hobbies     []Hobby      `gorm:"many2many:user_hobbies;constraint:OnDelete:CASCADE" json:"-"`
}
