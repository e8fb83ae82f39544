// Package authcore provides the refresh-token lifecycle and account-lockout
// core of an authentication service: token issuance, rotation with
// theft detection, per-user session limits, and failed-login lockout policy.
package authcore

import (
	"github.com/tech-arch1tect/authcore/app"
	"github.com/tech-arch1tect/authcore/config"
)

type App = app.App

func New() *app.AppBuilder {
	return app.NewApp()
}

func WithConfig(cfg *config.Config) *app.AppBuilder {
	return app.NewApp().WithConfig(cfg)
}
