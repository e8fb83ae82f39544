package lockout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// GormStore keeps lockout state on the users table itself, in the
// failed_login_attempts and lockout_until columns.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) IncrementFailures(ctx context.Context, userID uint) (int, error) {
	result := s.db.WithContext(ctx).Table("users").
		Where("id = ?", userID).
		UpdateColumn("failed_login_attempts", gorm.Expr("failed_login_attempts + ?", 1))
	if result.Error != nil {
		return 0, fmt.Errorf("failed to increment failure counter: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return 0, fmt.Errorf("user %d not found", userID)
	}

	var count int
	err := s.db.WithContext(ctx).Table("users").
		Select("failed_login_attempts").
		Where("id = ?", userID).
		Scan(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to read failure counter: %w", err)
	}

	return count, nil
}

func (s *GormStore) Lock(ctx context.Context, userID uint, until time.Time) error {
	err := s.db.WithContext(ctx).Table("users").
		Where("id = ?", userID).
		UpdateColumn("lockout_until", until).Error
	if err != nil {
		return fmt.Errorf("failed to set lockout window: %w", err)
	}
	return nil
}

func (s *GormStore) Reset(ctx context.Context, userID uint) error {
	err := s.db.WithContext(ctx).Table("users").
		Where("id = ?", userID).
		UpdateColumns(map[string]any{
			"failed_login_attempts": 0,
			"lockout_until":         nil,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to reset lockout state: %w", err)
	}
	return nil
}

func (s *GormStore) LockedUntil(ctx context.Context, userID uint) (*time.Time, error) {
	var row struct {
		LockoutUntil *time.Time
	}
	err := s.db.WithContext(ctx).Table("users").
		Select("lockout_until").
		Where("id = ?", userID).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read lockout window: %w", err)
	}
	return row.LockoutUntil, nil
}
