package refreshtoken

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Store is the persistence boundary for refresh token records. Records are
// never hard-deleted by the lifecycle operations; revocation is the only
// mutation and it is one-way. DeleteExpired exists for an external retention
// job.
type Store interface {
	Insert(ctx context.Context, token *RefreshToken) error
	FindByHash(ctx context.Context, hash string) (*RefreshToken, error)
	// RevokeConditional sets revoked_at on the matching record only if it is
	// not already revoked, and reports how many rows changed. Exactly-one
	// semantics here are what serialises concurrent rotation attempts.
	RevokeConditional(ctx context.Context, hash string, at time.Time) (int64, error)
	RevokeFamily(ctx context.Context, familyID string, at time.Time) (int64, error)
	RevokeAllForUser(ctx context.Context, userID uint, at time.Time) (int64, error)
	CountActive(ctx context.Context, userID uint, now time.Time) (int64, error)
	OldestActive(ctx context.Context, userID uint, now time.Time) (*RefreshToken, error)
	ListActive(ctx context.Context, userID uint, now time.Time) ([]RefreshToken, error)
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
	Transaction(ctx context.Context, fn func(Store) error) error
}

var ErrRecordNotFound = errors.New("refresh token record not found")

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Insert(ctx context.Context, token *RefreshToken) error {
	if err := s.db.WithContext(ctx).Create(token).Error; err != nil {
		return fmt.Errorf("failed to insert refresh token: %w", err)
	}
	return nil
}

func (s *GormStore) FindByHash(ctx context.Context, hash string) (*RefreshToken, error) {
	var token RefreshToken
	err := s.db.WithContext(ctx).Where("token_hash = ?", hash).First(&token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &token, nil
}

func (s *GormStore) RevokeConditional(ctx context.Context, hash string, at time.Time) (int64, error) {
	result := s.db.WithContext(ctx).Model(&RefreshToken{}).
		Where("token_hash = ? AND revoked_at IS NULL", hash).
		Update("revoked_at", at)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to revoke refresh token: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (s *GormStore) RevokeFamily(ctx context.Context, familyID string, at time.Time) (int64, error) {
	result := s.db.WithContext(ctx).Model(&RefreshToken{}).
		Where("family_id = ? AND revoked_at IS NULL", familyID).
		Update("revoked_at", at)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to revoke token family: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (s *GormStore) RevokeAllForUser(ctx context.Context, userID uint, at time.Time) (int64, error) {
	result := s.db.WithContext(ctx).Model(&RefreshToken{}).
		Where("user_id = ? AND revoked_at IS NULL", userID).
		Update("revoked_at", at)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to revoke user refresh tokens: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (s *GormStore) CountActive(ctx context.Context, userID uint, now time.Time) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&RefreshToken{}).
		Where("user_id = ? AND revoked_at IS NULL AND expires_at > ?", userID, now).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count active refresh tokens: %w", err)
	}
	return count, nil
}

// OldestActive orders by issued_at with the primary key as tie-break, so two
// tokens issued in the same instant evict deterministically.
func (s *GormStore) OldestActive(ctx context.Context, userID uint, now time.Time) (*RefreshToken, error) {
	var token RefreshToken
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND revoked_at IS NULL AND expires_at > ?", userID, now).
		Order("issued_at ASC, id ASC").
		First(&token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &token, nil
}

func (s *GormStore) ListActive(ctx context.Context, userID uint, now time.Time) ([]RefreshToken, error) {
	var tokens []RefreshToken
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND revoked_at IS NULL AND expires_at > ?", userID, now).
		Order("issued_at DESC, id DESC").
		Find(&tokens).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list active refresh tokens: %w", err)
	}
	return tokens, nil
}

func (s *GormStore) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("expires_at < ?", before).
		Delete(&RefreshToken{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete expired refresh tokens: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (s *GormStore) Transaction(ctx context.Context, fn func(Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}
