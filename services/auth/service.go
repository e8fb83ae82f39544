package auth

import (
	"context"
	"errors"
	"time"

	"github.com/tech-arch1tect/authcore/services/credentials"
	"github.com/tech-arch1tect/authcore/services/jwt"
	"github.com/tech-arch1tect/authcore/services/lockout"
	"github.com/tech-arch1tect/authcore/services/logging"
	"github.com/tech-arch1tect/authcore/services/refreshtoken"
	"go.uber.org/zap"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountLocked      = errors.New("account is locked")
	ErrAccountInactive    = errors.New("account is inactive")

	// ErrInvalidToken is the single refresh failure surfaced to callers,
	// whatever the underlying cause.
	ErrInvalidToken = refreshtoken.ErrTokenInvalid
)

type AuthResult struct {
	UserID           uint
	AccessToken      string
	AccessClaims     *jwt.Claims
	RefreshToken     string
	RefreshExpiresAt time.Time
}

type Service struct {
	credentials *credentials.Service
	lockouts    lockout.Policy
	tokens      refreshtoken.TokenAuthority
	jwt         *jwt.Service
	logger      *logging.Service
}

func NewService(
	credentialsSvc *credentials.Service,
	lockouts lockout.Policy,
	tokens refreshtoken.TokenAuthority,
	jwtSvc *jwt.Service,
	logger *logging.Service,
) *Service {
	return &Service{
		credentials: credentialsSvc,
		lockouts:    lockouts,
		tokens:      tokens,
		jwt:         jwtSvc,
		logger:      logger,
	}
}

// Authenticate runs the login sequence in a fixed order: lockout status is
// read before any credential verification is attempted, a failure is counted
// on mismatch, and on match the lockout state is reset before any token is
// issued.
func (s *Service) Authenticate(ctx context.Context, email, password string, sessionInfo refreshtoken.TokenSessionInfo) (*AuthResult, error) {
	user, err := s.credentials.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, credentials.ErrUserNotFound) {
			s.credentials.CompareDummy(password)
			if s.logger != nil {
				s.logger.Warn("authentication failed - unknown identifier")
			}
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	status, err := s.lockouts.CheckStatus(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if status == lockout.StatusLocked {
		if s.logger != nil {
			s.logger.Warn("authentication rejected - account locked",
				zap.Uint("user_id", user.ID))
		}
		return nil, ErrAccountLocked
	}

	if err := s.credentials.VerifyPassword(user.Password, password); err != nil {
		if recordErr := s.lockouts.RecordFailure(ctx, user.ID); recordErr != nil {
			return nil, recordErr
		}
		if s.logger != nil {
			s.logger.Warn("authentication failed - credential mismatch",
				zap.Uint("user_id", user.ID))
		}
		return nil, ErrInvalidCredentials
	}

	if !user.Active {
		if s.logger != nil {
			s.logger.Warn("authentication rejected - account inactive",
				zap.Uint("user_id", user.ID))
		}
		return nil, ErrAccountInactive
	}

	if err := s.lockouts.RecordSuccess(ctx, user.ID); err != nil {
		return nil, err
	}

	tokenData, err := s.tokens.Issue(ctx, user.ID, sessionInfo)
	if err != nil {
		return nil, err
	}

	accessToken, claims, err := s.jwt.GenerateToken(user.ID)
	if err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.Info("user authenticated",
			zap.Uint("user_id", user.ID),
			zap.String("family_id", tokenData.FamilyID))
	}

	return &AuthResult{
		UserID:           user.ID,
		AccessToken:      accessToken,
		AccessClaims:     claims,
		RefreshToken:     tokenData.Token,
		RefreshExpiresAt: tokenData.ExpiresAt,
	}, nil
}

// Refresh exchanges a refresh token for a rotated successor plus a fresh
// access token.
func (s *Service) Refresh(ctx context.Context, tokenString string, sessionInfo refreshtoken.TokenSessionInfo) (*AuthResult, error) {
	rotation, err := s.tokens.Rotate(ctx, tokenString, sessionInfo)
	if err != nil {
		return nil, err
	}

	accessToken, claims, err := s.jwt.GenerateToken(rotation.UserID)
	if err != nil {
		return nil, err
	}

	return &AuthResult{
		UserID:           rotation.UserID,
		AccessToken:      accessToken,
		AccessClaims:     claims,
		RefreshToken:     rotation.Token,
		RefreshExpiresAt: rotation.ExpiresAt,
	}, nil
}

// Logout invalidates a single session's refresh token.
func (s *Service) Logout(ctx context.Context, tokenString string) (bool, error) {
	return s.tokens.Revoke(ctx, tokenString)
}

// LogoutAllSessions invalidates every active refresh token for the user, for
// password changes, "log out everywhere" and administrative suspension.
func (s *Service) LogoutAllSessions(ctx context.Context, userID uint) (int64, error) {
	return s.tokens.RevokeAll(ctx, userID)
}
