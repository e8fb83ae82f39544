package credentials

import (
	"github.com/tech-arch1tect/authcore/config"
	"github.com/tech-arch1tect/authcore/services/logging"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func ProvideCredentialsService(db *gorm.DB, cfg *config.Config, logger *logging.Service) *Service {
	return NewService(db, cfg, logger)
}

var Options = fx.Options(
	fx.Provide(ProvideCredentialsService),
)
