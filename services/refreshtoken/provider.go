package refreshtoken

import (
	"github.com/tech-arch1tect/authcore/config"
	"github.com/tech-arch1tect/authcore/services/logging"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func ProvideRefreshTokenService(db *gorm.DB, config *config.Config, logger *logging.Service) TokenAuthority {
	return NewService(NewGormStore(db), config, logger)
}

var Options = fx.Options(
	fx.Provide(ProvideRefreshTokenService),
)
