package lockout

import (
	"github.com/redis/go-redis/v9"
	"github.com/tech-arch1tect/authcore/config"
	"github.com/tech-arch1tect/authcore/services/logging"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func ProvideLockoutService(db *gorm.DB, cfg *config.Config, logger *logging.Service) Policy {
	var store Store
	switch cfg.Lockout.Store {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		store = NewRedisStore(client)
	default:
		store = NewGormStore(db)
	}

	return NewService(store, cfg, logger)
}

var Options = fx.Options(
	fx.Provide(ProvideLockoutService),
)
