package refreshtoken

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/tech-arch1tect/authcore/config"
	"github.com/tech-arch1tect/authcore/services/logging"
	"go.uber.org/zap"
)

var (
	// ErrTokenInvalid covers not-found, expired, revoked and replayed tokens
	// alike. Callers must not be able to distinguish these cases.
	ErrTokenInvalid          = errors.New("invalid refresh token")
	ErrTokenGenerationFailed = errors.New("failed to generate secure token")

	// errRotationLost signals that a concurrent rotation consumed the
	// presented token between our read and our conditional revoke.
	errRotationLost = errors.New("refresh token rotation lost race")
)

type TokenAuthority interface {
	Issue(ctx context.Context, userID uint, sessionInfo TokenSessionInfo) (*TokenData, error)
	Validate(ctx context.Context, tokenString string) (*RefreshToken, error)
	Rotate(ctx context.Context, tokenString string, sessionInfo TokenSessionInfo) (*TokenRotationResult, error)
	Revoke(ctx context.Context, tokenString string) (bool, error)
	RevokeAll(ctx context.Context, userID uint) (int64, error)
	ActiveSessions(ctx context.Context, userID uint) ([]RefreshToken, error)
	CleanupExpired(ctx context.Context) (int64, error)
}

type Service struct {
	store  Store
	config *config.Config
	logger *logging.Service
}

func NewService(store Store, config *config.Config, logger *logging.Service) *Service {
	if logger != nil {
		logger.Info("initializing refresh token service",
			zap.Duration("token_expiry", config.RefreshToken.Expiry),
			zap.Int("token_length", config.RefreshToken.TokenLength),
			zap.Int("max_active_sessions", config.RefreshToken.MaxActiveSessions))
	}

	return &Service{
		store:  store,
		config: config,
		logger: logger,
	}
}

// Issue creates an origin token with a fresh family. The per-user session
// limit is enforced here and not during rotation: rotation is a 1-for-1
// replacement, only origin issuance grows the session count.
func (s *Service) Issue(ctx context.Context, userID uint, sessionInfo TokenSessionInfo) (*TokenData, error) {
	if s.logger != nil {
		s.logger.Debug("issuing refresh token", zap.Uint("user_id", userID))
	}

	now := time.Now().UTC()

	if err := s.enforceSessionLimit(ctx, userID, now); err != nil {
		return nil, err
	}

	record, token, err := s.buildRecord(userID, uuid.New().String(), sessionInfo, now)
	if err != nil {
		return nil, err
	}

	if err := s.store.Insert(ctx, record); err != nil {
		if s.logger != nil {
			s.logger.Error("failed to store refresh token", zap.Error(err))
		}
		return nil, err
	}

	if s.logger != nil {
		s.logger.Info("refresh token issued",
			zap.Uint("user_id", userID),
			zap.Uint("token_id", record.ID),
			zap.String("family_id", record.FamilyID),
			zap.Time("expires_at", record.ExpiresAt))
	}

	return &TokenData{
		Token:     token,
		TokenID:   record.ID,
		Hash:      record.TokenHash,
		FamilyID:  record.FamilyID,
		ExpiresAt: record.ExpiresAt,
	}, nil
}

// Validate answers whether the presented token is currently usable. It never
// mutates state; reuse detection belongs exclusively to Rotate.
func (s *Service) Validate(ctx context.Context, tokenString string) (*RefreshToken, error) {
	record, err := s.store.FindByHash(ctx, s.hashToken(tokenString))
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			if s.logger != nil {
				s.logger.Warn("refresh token validation failed - token not found")
			}
			return nil, ErrTokenInvalid
		}
		return nil, err
	}

	if !record.IsActive(time.Now().UTC()) {
		if s.logger != nil {
			s.logger.Warn("refresh token validation failed - token revoked or expired",
				zap.Uint("token_id", record.ID),
				zap.Uint("user_id", record.UserID))
		}
		return nil, ErrTokenInvalid
	}

	return record, nil
}

// Rotate exchanges a valid token for a successor in the same family. A
// presented token that is already revoked is treated as theft evidence and
// burns the whole family. Of two concurrent rotations of one token, exactly
// one succeeds; the loser observes the revoked state and takes the reuse path.
func (s *Service) Rotate(ctx context.Context, tokenString string, sessionInfo TokenSessionInfo) (*TokenRotationResult, error) {
	hash := s.hashToken(tokenString)
	now := time.Now().UTC()

	record, err := s.store.FindByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			if s.logger != nil {
				s.logger.Warn("refresh token rotation failed - token not found")
			}
			return nil, ErrTokenInvalid
		}
		return nil, err
	}

	if record.IsExpired(now) {
		if s.logger != nil {
			s.logger.Warn("refresh token rotation failed - token expired",
				zap.Uint("token_id", record.ID),
				zap.Uint("user_id", record.UserID),
				zap.Time("expired_at", record.ExpiresAt))
		}
		return nil, ErrTokenInvalid
	}

	if record.IsRevoked() {
		return nil, s.handleReuse(ctx, record, now)
	}

	var result *TokenRotationResult
	err = s.store.Transaction(ctx, func(tx Store) error {
		affected, err := tx.RevokeConditional(ctx, hash, now)
		if err != nil {
			return err
		}
		if affected != 1 {
			return errRotationLost
		}

		successor, token, err := s.buildRecord(record.UserID, record.FamilyID, sessionInfo, now)
		if err != nil {
			return err
		}

		if err := tx.Insert(ctx, successor); err != nil {
			return err
		}

		result = &TokenRotationResult{
			Token:      token,
			TokenID:    successor.ID,
			OldTokenID: record.ID,
			FamilyID:   successor.FamilyID,
			UserID:     successor.UserID,
			ExpiresAt:  successor.ExpiresAt,
		}
		return nil
	})

	if errors.Is(err, errRotationLost) {
		// The token was consumed by a concurrent rotation after our read.
		return nil, s.handleReuse(ctx, record, time.Now().UTC())
	}
	if err != nil {
		if s.logger != nil {
			s.logger.Error("refresh token rotation failed", zap.Error(err),
				zap.Uint("user_id", record.UserID))
		}
		return nil, err
	}

	if s.logger != nil {
		s.logger.Info("refresh token rotated",
			zap.Uint("user_id", result.UserID),
			zap.Uint("old_token_id", result.OldTokenID),
			zap.Uint("new_token_id", result.TokenID),
			zap.String("family_id", result.FamilyID))
	}

	return result, nil
}

// handleReuse revokes every descendant of the replayed token's family. The
// caller still sees a plain invalid-token error; only the log record carries
// the distinction. Store failures propagate unchanged so an unreachable
// database is never reported as a bad token.
func (s *Service) handleReuse(ctx context.Context, record *RefreshToken, now time.Time) error {
	if s.logger != nil {
		s.logger.Warn("refresh token reuse detected - revoking token family",
			zap.Uint("token_id", record.ID),
			zap.Uint("user_id", record.UserID),
			zap.String("family_id", record.FamilyID),
			zap.String("created_by_ip", record.CreatedByIP))
	}

	revoked, err := s.store.RevokeFamily(ctx, record.FamilyID, now)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("failed to revoke token family after reuse detection",
				zap.Error(err),
				zap.String("family_id", record.FamilyID))
		}
		return err
	}

	if s.logger != nil {
		s.logger.Info("token family revoked",
			zap.String("family_id", record.FamilyID),
			zap.Uint("user_id", record.UserID),
			zap.Int64("tokens_revoked", revoked))
	}

	return ErrTokenInvalid
}

// Revoke invalidates a single token. Idempotent: revoking an already-revoked
// token reports false and does not trigger the family cascade.
func (s *Service) Revoke(ctx context.Context, tokenString string) (bool, error) {
	affected, err := s.store.RevokeConditional(ctx, s.hashToken(tokenString), time.Now().UTC())
	if err != nil {
		if s.logger != nil {
			s.logger.Error("failed to revoke refresh token", zap.Error(err))
		}
		return false, err
	}

	if s.logger != nil {
		s.logger.Info("refresh token revocation processed",
			zap.Bool("revoked", affected == 1))
	}

	return affected == 1, nil
}

func (s *Service) RevokeAll(ctx context.Context, userID uint) (int64, error) {
	count, err := s.store.RevokeAllForUser(ctx, userID, time.Now().UTC())
	if err != nil {
		if s.logger != nil {
			s.logger.Error("failed to revoke all user refresh tokens",
				zap.Error(err), zap.Uint("user_id", userID))
		}
		return 0, err
	}

	if s.logger != nil {
		s.logger.Info("all user refresh tokens revoked",
			zap.Uint("user_id", userID),
			zap.Int64("count", count))
	}

	return count, nil
}

func (s *Service) ActiveSessions(ctx context.Context, userID uint) ([]RefreshToken, error) {
	return s.store.ListActive(ctx, userID, time.Now().UTC())
}

// CleanupExpired removes rows whose validity window has fully elapsed. It is
// intended to be driven by an external scheduler; the service itself starts
// no background work.
func (s *Service) CleanupExpired(ctx context.Context) (int64, error) {
	count, err := s.store.DeleteExpired(ctx, time.Now().UTC())
	if err != nil {
		if s.logger != nil {
			s.logger.Error("failed to cleanup expired refresh tokens", zap.Error(err))
		}
		return 0, err
	}

	if s.logger != nil && count > 0 {
		s.logger.Info("cleaned up expired refresh tokens", zap.Int64("count", count))
	}

	return count, nil
}

// enforceSessionLimit revokes the oldest active token when the user is at the
// session cap, so origin issuance never grows the active set past the limit.
// Concurrent logins at the cap may evict more than one session.
func (s *Service) enforceSessionLimit(ctx context.Context, userID uint, now time.Time) error {
	count, err := s.store.CountActive(ctx, userID, now)
	if err != nil {
		return err
	}

	if count < int64(s.config.RefreshToken.MaxActiveSessions) {
		return nil
	}

	oldest, err := s.store.OldestActive(ctx, userID, now)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return nil
		}
		return err
	}

	if _, err := s.store.RevokeConditional(ctx, oldest.TokenHash, now); err != nil {
		return err
	}

	if s.logger != nil {
		s.logger.Info("evicted oldest session at session limit",
			zap.Uint("user_id", userID),
			zap.Uint("evicted_token_id", oldest.ID),
			zap.Int("max_active_sessions", s.config.RefreshToken.MaxActiveSessions))
	}

	return nil
}

func (s *Service) buildRecord(userID uint, familyID string, sessionInfo TokenSessionInfo, now time.Time) (*RefreshToken, string, error) {
	token, err := s.generateSecureToken()
	if err != nil {
		if s.logger != nil {
			s.logger.Error("failed to generate secure refresh token", zap.Error(err))
		}
		return nil, "", ErrTokenGenerationFailed
	}

	deviceInfo := sessionInfo.DeviceInfo
	if deviceInfo == nil && sessionInfo.UserAgent != "" {
		deviceInfo = ParseDeviceInfo(sessionInfo.UserAgent)
	}

	deviceInfoJSON := ""
	if deviceInfo != nil {
		if jsonBytes, err := json.Marshal(deviceInfo); err == nil {
			deviceInfoJSON = string(jsonBytes)
		}
	}

	record := &RefreshToken{
		UserID:      userID,
		TokenHash:   s.hashToken(token),
		FamilyID:    familyID,
		IssuedAt:    now,
		ExpiresAt:   now.Add(s.config.RefreshToken.Expiry),
		CreatedByIP: sessionInfo.IPAddress,
		DeviceInfo:  deviceInfoJSON,
	}

	return record, token, nil
}

func (s *Service) generateSecureToken() (string, error) {
	tokenBytes := make([]byte, s.config.RefreshToken.TokenLength)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(tokenBytes), nil
}

func (s *Service) hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

var _ TokenAuthority = (*Service)(nil)
