package credentials

import (
	"time"
)

// User is the principal record. The lockout columns are mutated exclusively
// through the lockout service, never directly by login code.
type User struct {
	ID                  uint       `json:"id" gorm:"primaryKey"`
	Email               string     `json:"email" gorm:"uniqueIndex;size:255;not null"`
	Password            string     `json:"-" gorm:"size:255;not null"`
	Active              bool       `json:"active" gorm:"not null;default:true"`
	FailedLoginAttempts int        `json:"-" gorm:"not null;default:0"`
	LockoutUntil        *time.Time `json:"-"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}
