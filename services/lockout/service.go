package lockout

import (
	"context"
	"time"

	"github.com/tech-arch1tect/authcore/config"
	"github.com/tech-arch1tect/authcore/services/logging"
	"go.uber.org/zap"
)

type Status int

const (
	StatusOpen Status = iota
	StatusLocked
)

func (s Status) String() string {
	if s == StatusLocked {
		return "locked"
	}
	return "open"
}

type Policy interface {
	RecordFailure(ctx context.Context, userID uint) error
	RecordSuccess(ctx context.Context, userID uint) error
	CheckStatus(ctx context.Context, userID uint) (Status, error)
}

type Service struct {
	store  Store
	config *config.Config
	logger *logging.Service
}

func NewService(store Store, config *config.Config, logger *logging.Service) *Service {
	if logger != nil {
		logger.Info("initializing lockout service",
			zap.Int("max_failed_attempts", config.Lockout.MaxFailedAttempts),
			zap.Duration("lockout_duration", config.Lockout.Duration),
			zap.String("store", config.Lockout.Store))
	}

	return &Service{
		store:  store,
		config: config,
		logger: logger,
	}
}

// RecordFailure counts a failed authentication attempt. Reaching the
// configured maximum starts the lockout window.
func (s *Service) RecordFailure(ctx context.Context, userID uint) error {
	count, err := s.store.IncrementFailures(ctx, userID)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("failed to record authentication failure",
				zap.Error(err), zap.Uint("user_id", userID))
		}
		return err
	}

	if s.logger != nil {
		s.logger.Debug("authentication failure recorded",
			zap.Uint("user_id", userID),
			zap.Int("failed_attempts", count))
	}

	if count < s.config.Lockout.MaxFailedAttempts {
		return nil
	}

	until := time.Now().UTC().Add(s.config.Lockout.Duration)
	if err := s.store.Lock(ctx, userID, until); err != nil {
		if s.logger != nil {
			s.logger.Error("failed to set lockout window",
				zap.Error(err), zap.Uint("user_id", userID))
		}
		return err
	}

	if s.logger != nil {
		s.logger.Warn("account locked after repeated authentication failures",
			zap.Uint("user_id", userID),
			zap.Int("failed_attempts", count),
			zap.Time("locked_until", until))
	}

	return nil
}

// RecordSuccess clears the failure counter and any lockout window, regardless
// of prior state.
func (s *Service) RecordSuccess(ctx context.Context, userID uint) error {
	if err := s.store.Reset(ctx, userID); err != nil {
		if s.logger != nil {
			s.logger.Error("failed to reset lockout state",
				zap.Error(err), zap.Uint("user_id", userID))
		}
		return err
	}

	if s.logger != nil {
		s.logger.Debug("lockout state reset", zap.Uint("user_id", userID))
	}

	return nil
}

// CheckStatus reads the lockout window lazily: a window that has already
// elapsed counts as open, so no unlock sweep is ever needed.
func (s *Service) CheckStatus(ctx context.Context, userID uint) (Status, error) {
	until, err := s.store.LockedUntil(ctx, userID)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("failed to read lockout status",
				zap.Error(err), zap.Uint("user_id", userID))
		}
		return StatusOpen, err
	}

	if until != nil && until.After(time.Now().UTC()) {
		return StatusLocked, nil
	}

	return StatusOpen, nil
}

var _ Policy = (*Service)(nil)
