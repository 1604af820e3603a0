package models

import (
	"time"
)

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// User is the credential record. UserID and Email are stored lower-cased;
// the unique indexes are the actual guard against duplicate registrations,
// the service-level pre-checks only exist for friendlier error messages.
type User struct {
	ID           uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID       string  `gorm:"uniqueIndex;not null"     json:"userId"`
	Name         string  `json:"name"`
	Email        string  `gorm:"uniqueIndex;not null"     json:"email"`
	PasswordHash string  `gorm:"not null"                 json:"-"`
	Role         string  `gorm:"not null;default:USER"    json:"role"`
	Verified     bool    `gorm:"not null;default:false"   json:"verified"`
	RefreshToken *string `json:"-"`
}

// VerificationToken holds a single-use email verification secret.
// UserID is unique so a user holds at most one live token; sends upsert
// on it, verify deletes the row before looking at the expiry.
type VerificationToken struct {
	ID        uint      `gorm:"primaryKey"           json:"id"`
	UserID    string    `gorm:"uniqueIndex;not null" json:"user_id"`
	Token     string    `gorm:"uniqueIndex;not null" json:"-"`
	ExpiresAt time.Time `gorm:"not null"             json:"expires_at"`
}

type Player struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	PlayerID     string `gorm:"uniqueIndex;not null"     json:"playerId"`
	Name         string `gorm:"not null"                 json:"name"`
	Country      string `json:"country"`
	BattingStyle string `json:"battingStyle"`
	BowlingStyle string `json:"bowlingStyle"`
	Matches      uint   `json:"matches"`
	Runs         uint   `json:"runs"`
	Wickets      uint   `json:"wickets"`
}
