package database

import (
	"github.com/tech-arch1tect/authcore/config"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Options(
	fx.Provide(ProvideDatabaseFx),
)

func ProvideDatabaseFx(cfg *config.Config, modelsOpt *ModelsOption) (*gorm.DB, error) {
	return ProvideDatabase(*cfg, modelsOpt)
}
