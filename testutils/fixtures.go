package testutils

import (
	"time"

	"github.com/tech-arch1tect/authcore/config"
	"golang.org/x/crypto/bcrypt"
)

func GetTestConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Name: "Test App",
		},
		Log: config.LogConfig{
			Level:      "info",
			Format:     "json",
			OutputPath: "stdout",
		},
		Auth: config.AuthConfig{
			BcryptCost: bcrypt.MinCost,
		},
		JWT: config.JWTConfig{
			SecretKey:    "test-secret-key-32-chars-long!!!",
			Issuer:       "test-issuer",
			AccessExpiry: 15 * time.Minute,
		},
		RefreshToken: config.RefreshTokenConfig{
			TokenLength:       32,
			Expiry:            24 * time.Hour,
			MaxActiveSessions: 5,
		},
		Lockout: config.LockoutConfig{
			MaxFailedAttempts: 5,
			Duration:          15 * time.Minute,
			Store:             "database",
		},
		Database: config.DatabaseConfig{
			Driver:      "sqlite",
			DSN:         ":memory:",
			AutoMigrate: true,
		},
	}
}
