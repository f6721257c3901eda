package models

import (
	"time"

	"gorm.io/datatypes"
)

// User is the persisted account record. The email is the external identity
// and is enforced unique by the database index; the uniquifier rotates when
// all of a user's sessions must be invalidated at once.
//
// The two-factor (TF*) and unified-sign-in (US*) columns are provisioned for
// future flows. Nothing in the login path reads them yet.
type User struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Email        string `gorm:"size:256;not null;uniqueIndex" json:"email"`
	PasswordHash string `gorm:"size:100;not null" json:"-"`
	Active       bool   `gorm:"not null;default:true" json:"active"`
	Uniquifier   string `gorm:"size:64;not null" json:"-"`

	TFPrimaryMethod *string `gorm:"size:64" json:"-"`
	TFTOTPSecret    *string `gorm:"size:255" json:"-"`
	TFPhoneNumber   *string `gorm:"size:64" json:"-"`

	USTOTPSecrets datatypes.JSON `json:"-"`
	USPhoneNumber *string        `gorm:"size:64" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
