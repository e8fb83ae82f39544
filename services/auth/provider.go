package auth

import (
	"github.com/tech-arch1tect/authcore/services/credentials"
	"github.com/tech-arch1tect/authcore/services/jwt"
	"github.com/tech-arch1tect/authcore/services/lockout"
	"github.com/tech-arch1tect/authcore/services/logging"
	"github.com/tech-arch1tect/authcore/services/refreshtoken"
	"go.uber.org/fx"
)

func ProvideAuthService(
	credentialsSvc *credentials.Service,
	lockouts lockout.Policy,
	tokens refreshtoken.TokenAuthority,
	jwtSvc *jwt.Service,
	logger *logging.Service,
) *Service {
	return NewService(credentialsSvc, lockouts, tokens, jwtSvc, logger)
}

var Options = fx.Options(
	fx.Provide(ProvideAuthService),
)
