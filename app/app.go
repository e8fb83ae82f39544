package app

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tech-arch1tect/authcore/config"
	"github.com/tech-arch1tect/authcore/services/auth"
	"github.com/tech-arch1tect/authcore/services/logging"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

type App struct {
	fx     *fx.App
	config *config.Config
	logger *logging.Service
	db     *gorm.DB
	auth   *auth.Service
}

func (a *App) Start() error {
	return a.fx.Start(context.Background())
}

func (a *App) Run() {
	if err := a.Start(); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	if a.logger != nil {
		a.logger.Info("Received shutdown signal, stopping gracefully...")
	} else {
		log.Printf("Received signal %v, shutting down gracefully...", sig)
	}

	a.Stop()
}

func (a *App) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.fx.Stop(ctx); err != nil && a.logger != nil {
		a.logger.Errorw("failed to stop application cleanly", "error", err)
	}

	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

func (a *App) Config() *config.Config {
	return a.config
}

func (a *App) Logger() *logging.Service {
	return a.logger
}

func (a *App) DB() *gorm.DB {
	return a.db
}

func (a *App) Auth() *auth.Service {
	return a.auth
}
