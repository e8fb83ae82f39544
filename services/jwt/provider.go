package jwt

import (
	"github.com/tech-arch1tect/authcore/config"
	"github.com/tech-arch1tect/authcore/services/logging"
	"go.uber.org/fx"
)

func ProvideJWTService(cfg *config.Config, logger *logging.Service) *Service {
	return NewService(cfg, logger)
}

var Options = fx.Options(
	fx.Provide(ProvideJWTService),
)
