package models

import "time"

// Note is an opaque piece of text tied to a user. It carries no
// authentication logic of its own; ownership is established by the token
// presented when it is stored.
type Note struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Text      string    `gorm:"size:256;not null" json:"text"`
	CreatedAt time.Time `json:"created_at"`
	User      User      `gorm:"foreignKey:UserID" json:"-"`
}
