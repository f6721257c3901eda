package models

import (
	"time"

	"github.com/google/uuid"
)

// SessionToken is a row in the database-backed token store. Only a SHA-256
// digest of the bearer token is persisted; the identity columns are a
// snapshot of the user at issuance time.
type SessionToken struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TokenHash  string    `gorm:"uniqueIndex;not null;size:64" json:"-"`
	UserID     uint      `gorm:"not null;index" json:"user_id"`
	Email      string    `gorm:"size:256;not null" json:"email"`
	Uniquifier string    `gorm:"size:64;not null" json:"-"`
	ExpiresAt  time.Time `gorm:"not null;index" json:"expires_at"`
	CreatedAt  time.Time `json:"created_at"`
}
