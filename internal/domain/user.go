package domain

import "time"

type User struct {
	ID           string    `gorm:"type:varchar(36);primaryKey"`
	Email        string    `gorm:"uniqueIndex;not null"`
	PasswordHash string    `gorm:"not null"`
	CreatedAt    time.Time `gorm:"not null"`
}

// Identity is the authenticated caller resolved from a request. The zero
// value means "unauthenticated".
type Identity struct {
	UserID string
	Email  string
}

func (i Identity) Authenticated() bool {
	return i.UserID != ""
}
