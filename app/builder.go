package app

import (
	"fmt"

	"github.com/tech-arch1tect/authcore/config"
	"github.com/tech-arch1tect/authcore/database"
	"github.com/tech-arch1tect/authcore/services/auth"
	"github.com/tech-arch1tect/authcore/services/credentials"
	"github.com/tech-arch1tect/authcore/services/jwt"
	"github.com/tech-arch1tect/authcore/services/lockout"
	"github.com/tech-arch1tect/authcore/services/logging"
	"github.com/tech-arch1tect/authcore/services/refreshtoken"
	"go.uber.org/fx"
)

type AppBuilder struct {
	config    *config.Config
	models    []any
	fxOptions []fx.Option
	errors    []error
}

func NewApp() *AppBuilder {
	return &AppBuilder{
		models:    []any{&credentials.User{}, &refreshtoken.RefreshToken{}},
		fxOptions: make([]fx.Option, 0),
		errors:    make([]error, 0),
	}
}

func (b *AppBuilder) WithConfig(cfg *config.Config) *AppBuilder {
	if cfg == nil {
		b.addError("config cannot be nil")
		return b
	}
	b.config = cfg
	return b
}

func (b *AppBuilder) WithAutoConfig() *AppBuilder {
	cfg := &config.Config{}
	if err := config.LoadConfig(cfg); err != nil {
		b.addError(fmt.Sprintf("failed to load config: %v", err))
		return b
	}
	b.config = cfg
	return b
}

// WithModels registers additional consumer models for auto-migration
// alongside the auth tables.
func (b *AppBuilder) WithModels(models ...any) *AppBuilder {
	b.models = append(b.models, models...)
	return b
}

func (b *AppBuilder) WithFxOptions(opts ...fx.Option) *AppBuilder {
	b.fxOptions = append(b.fxOptions, opts...)
	return b
}

func (b *AppBuilder) Build() (*App, error) {
	if len(b.errors) > 0 {
		return nil, fmt.Errorf("configuration errors: %v", b.errors)
	}

	if b.config == nil {
		b.WithAutoConfig()
		if len(b.errors) > 0 {
			return nil, fmt.Errorf("configuration errors: %v", b.errors)
		}
	}

	logger, err := logging.NewService(logging.Config{
		Level:      logging.LogLevel(b.config.Log.Level),
		Format:     b.config.Log.Format,
		OutputPath: b.config.Log.OutputPath,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	db, err := database.ProvideDatabase(*b.config, database.WithModels(b.models...))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	application := &App{
		config: b.config,
		logger: logger,
		db:     db,
	}

	options := []fx.Option{
		fx.Supply(b.config),
		fx.Supply(logger),
		fx.Supply(db),
		fx.NopLogger,
		credentials.Options,
		lockout.Options,
		refreshtoken.Options,
		jwt.Options,
		auth.Options,
	}
	options = append(options, b.fxOptions...)
	options = append(options, fx.Invoke(func(svc *auth.Service) {
		application.auth = svc
	}))

	application.fx = fx.New(options...)

	return application, nil
}

func (b *AppBuilder) addError(msg string) {
	b.errors = append(b.errors, fmt.Errorf("%s", msg))
}
