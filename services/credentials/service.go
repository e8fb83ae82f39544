package credentials

import (
	"context"
	"errors"
	"fmt"

	"github.com/tech-arch1tect/authcore/config"
	"github.com/tech-arch1tect/authcore/services/logging"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrUserNotFound          = errors.New("user not found")
	ErrPasswordHashingFailed = errors.New("failed to hash password")
)

// dummyHash is compared against when the looked-up user does not exist, so a
// missing account costs the same as a wrong password.
const dummyHash = "$2a$12$R9h/cIPz0gi.URNNX3kh2OPST9/PgBkqquzi.Ss7KIUgO2t0jWMUW"

type Service struct {
	db     *gorm.DB
	config *config.Config
	logger *logging.Service
}

func NewService(db *gorm.DB, cfg *config.Config, logger *logging.Service) *Service {
	if cfg.Auth.BcryptCost < bcrypt.MinCost || cfg.Auth.BcryptCost > bcrypt.MaxCost {
		cfg.Auth.BcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		db:     db,
		config: cfg,
		logger: logger,
	}
}

func (s *Service) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.config.Auth.BcryptCost)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("password hashing failed", zap.Error(err))
		}
		return "", ErrPasswordHashingFailed
	}
	return string(hash), nil
}

// CompareDummy burns a bcrypt comparison against a fixed hash, so callers can
// keep unknown-user handling on the same timing profile as a real mismatch.
func (s *Service) CompareDummy(password string) {
	_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
}

func (s *Service) VerifyPassword(hashedPassword, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

func (s *Service) CreateUser(ctx context.Context, email, password string) (*User, error) {
	hash, err := s.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &User{
		Email:    email,
		Password: hash,
		Active:   true,
	}

	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if s.logger != nil {
			s.logger.Error("failed to create user", zap.Error(err))
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("user created", zap.Uint("user_id", user.ID))
	}

	return user, nil
}

// Verify looks up the user by email and checks the presented password. An
// unknown email and a wrong password are indistinguishable to the caller.
func (s *Service) Verify(ctx context.Context, email, password string) (*User, error) {
	var user User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
			if s.logger != nil {
				s.logger.Warn("credential verification failed - user not found")
			}
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if err := s.VerifyPassword(user.Password, password); err != nil {
		if s.logger != nil {
			s.logger.Warn("credential verification failed - password mismatch",
				zap.Uint("user_id", user.ID))
		}
		return nil, ErrInvalidCredentials
	}

	return &user, nil
}

func (s *Service) FindByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &user, nil
}

func (s *Service) FindByID(ctx context.Context, userID uint) (*User, error) {
	var user User
	err := s.db.WithContext(ctx).First(&user, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &user, nil
}

func (s *Service) SetActive(ctx context.Context, userID uint, active bool) error {
	result := s.db.WithContext(ctx).Model(&User{}).
		Where("id = ?", userID).
		Update("active", active)
	if result.Error != nil {
		return fmt.Errorf("failed to update user status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}

	if s.logger != nil {
		s.logger.Info("user status updated",
			zap.Uint("user_id", userID),
			zap.Bool("active", active))
	}

	return nil
}
