package config

import (
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	App          AppConfig          `envPrefix:"AUTHCORE_APP_"`
	Log          LogConfig          `envPrefix:"AUTHCORE_LOG_"`
	Database     DatabaseConfig     `envPrefix:"AUTHCORE_DATABASE_"`
	Redis        RedisConfig        `envPrefix:"AUTHCORE_REDIS_"`
	Auth         AuthConfig         `envPrefix:"AUTHCORE_AUTH_"`
	JWT          JWTConfig          `envPrefix:"AUTHCORE_JWT_"`
	RefreshToken RefreshTokenConfig `envPrefix:"AUTHCORE_REFRESH_TOKEN_"`
	Lockout      LockoutConfig      `envPrefix:"AUTHCORE_LOCKOUT_"`
}

type AppConfig struct {
	Name string `env:"NAME" envDefault:"authcore Application"`
}

type LogConfig struct {
	Level      string `env:"LEVEL" envDefault:"info"`
	Format     string `env:"FORMAT" envDefault:"json"`
	OutputPath string `env:"OUTPUT" envDefault:"stdout"`
}

type DatabaseConfig struct {
	Driver      string `env:"DRIVER" envDefault:"sqlite"`
	DSN         string `env:"DSN" envDefault:"authcore.db"`
	AutoMigrate bool   `env:"AUTO_MIGRATE" envDefault:"true"`
}

type RedisConfig struct {
	Addr     string `env:"ADDR" envDefault:"localhost:6379"`
	Password string `env:"PASSWORD" envDefault:""`
	DB       int    `env:"DB" envDefault:"0"`
}

type AuthConfig struct {
	BcryptCost int `env:"BCRYPT_COST" envDefault:"12"`
}

type JWTConfig struct {
	SecretKey    string        `env:"SECRET_KEY"`
	Issuer       string        `env:"ISSUER" envDefault:"authcore"`
	AccessExpiry time.Duration `env:"ACCESS_EXPIRY" envDefault:"15m"`
}

type RefreshTokenConfig struct {
	TokenLength       int           `env:"TOKEN_LENGTH" envDefault:"32"`
	Expiry            time.Duration `env:"EXPIRY" envDefault:"720h"`
	MaxActiveSessions int           `env:"MAX_ACTIVE_SESSIONS" envDefault:"5"`
}

type LockoutConfig struct {
	MaxFailedAttempts int           `env:"MAX_FAILED_ATTEMPTS" envDefault:"5"`
	Duration          time.Duration `env:"DURATION" envDefault:"15m"`
	Store             string        `env:"STORE" envDefault:"database"`
}

func LoadConfig(cfg any) error {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found: %v", err)
	}

	if err := env.Parse(cfg); err != nil {
		return err
	}

	if c, ok := cfg.(*Config); ok {
		return Validate(c)
	}

	return nil
}

func Validate(cfg *Config) error {
	if err := validateRefreshTokenConfig(&cfg.RefreshToken); err != nil {
		return err
	}
	if err := validateLockoutConfig(&cfg.Lockout); err != nil {
		return err
	}
	if err := validateJWTConfig(&cfg.JWT); err != nil {
		return err
	}
	return nil
}

func validateRefreshTokenConfig(cfg *RefreshTokenConfig) error {
	if cfg.TokenLength < 32 {
		return fmt.Errorf("refresh token length must be at least 32 bytes")
	}
	if cfg.TokenLength > 128 {
		return fmt.Errorf("refresh token length cannot exceed 128 bytes")
	}
	if cfg.Expiry <= 0 {
		return fmt.Errorf("refresh token expiry must be positive")
	}
	if cfg.MaxActiveSessions < 1 {
		return fmt.Errorf("max active sessions must be at least 1")
	}
	return nil
}

func validateLockoutConfig(cfg *LockoutConfig) error {
	if cfg.MaxFailedAttempts < 1 {
		return fmt.Errorf("lockout max failed attempts must be at least 1")
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("lockout duration must be positive")
	}
	if cfg.Store != "database" && cfg.Store != "redis" {
		return fmt.Errorf("lockout store must be: database or redis")
	}
	return nil
}

func validateJWTConfig(cfg *JWTConfig) error {
	if len(cfg.SecretKey) > 0 && len(cfg.SecretKey) < 32 {
		return fmt.Errorf("JWT secret key must be at least 32 characters")
	}
	if cfg.AccessExpiry <= 0 {
		return fmt.Errorf("JWT access expiry must be positive")
	}
	return nil
}
