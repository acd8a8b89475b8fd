package models

import (
	"time"

	"github.com/google/uuid"
)

// User is the identity record. Username and email are stored trimmed and
// lower-cased so uniqueness holds under case/whitespace variations.
type User struct {
	BaseModel
	Username     string   `gorm:"uniqueIndex" json:"username"`
	Email        string   `gorm:"uniqueIndex" json:"email"`
	FirstName    string   `json:"first_name"`
	LastName     string   `json:"last_name"`
	PasswordHash string   `json:"-"`
	IsStaff      bool     `json:"-"`
	Profile      *Profile `json:"profile,omitempty"`
}

// Profile is the 1:1 extension of a User carrying the role tag and the
// descriptive fields shown on profile pages.
type Profile struct {
	BaseModel
	UserID       uuid.UUID  `gorm:"type:uuid;uniqueIndex" json:"user"`
	User         *User      `json:"-"`
	Username     string     `gorm:"uniqueIndex" json:"username"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	File         string     `json:"file"`
	UploadedAt   *time.Time `json:"uploaded_at"`
	Location     string     `json:"location"`
	Tel          string     `json:"tel"`
	Description  string     `json:"description"`
	WorkingHours string     `json:"working_hours"`
	Role         Role       `gorm:"column:type" json:"type"`
	Email        string     `json:"email"`
}
