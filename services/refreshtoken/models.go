package refreshtoken

import (
	"time"
)

type RefreshToken struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	UserID      uint       `json:"user_id" gorm:"not null;index"`
	TokenHash   string     `json:"-" gorm:"uniqueIndex;size:64;not null"`
	FamilyID    string     `json:"family_id" gorm:"size:36;not null;index"`
	IssuedAt    time.Time  `json:"issued_at" gorm:"not null"`
	ExpiresAt   time.Time  `json:"expires_at" gorm:"not null;index"`
	RevokedAt   *time.Time `json:"revoked_at" gorm:"index"`
	CreatedByIP string     `json:"created_by_ip" gorm:"size:45"`
	DeviceInfo  string     `json:"device_info" gorm:"size:500"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

func (t *RefreshToken) IsRevoked() bool {
	return t.RevokedAt != nil
}

func (t *RefreshToken) IsExpired(at time.Time) bool {
	return !t.ExpiresAt.After(at)
}

// IsActive reports whether the token can still be presented for validation
// or rotation.
func (t *RefreshToken) IsActive(at time.Time) bool {
	return !t.IsRevoked() && !t.IsExpired(at)
}

type TokenSessionInfo struct {
	IPAddress  string
	UserAgent  string
	DeviceInfo map[string]any
}

type TokenData struct {
	Token     string
	TokenID   uint
	Hash      string
	FamilyID  string
	ExpiresAt time.Time
}

type TokenRotationResult struct {
	Token      string
	TokenID    uint
	OldTokenID uint
	FamilyID   string
	UserID     uint
	ExpiresAt  time.Time
}
