// Package auth provides the authentication bounded context module.
package auth

import (
	"leadsync_backend/internal/auth/handler"
	"leadsync_backend/internal/auth/service"
	apphttp "leadsync_backend/internal/http"
	"leadsync_backend/platform/config"
	"leadsync_backend/platform/logger"
	"leadsync_backend/platform/validator"
)

// Module is the auth bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
}

// NewModule creates and initializes the auth module.
func NewModule(cfg config.AuthServiceConfig, val *validator.Validator, log *logger.Logger) *Module {
	svc := service.New(cfg, log)
	return &Module{handler: handler.New(svc, val)}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "auth"
}

// RegisterRoutes mounts auth routes. Login sits behind the stricter auth
// rate limiter; the identity probe requires a valid token.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	authGroup := ctx.V1.Group("/auth")
	authGroup.POST("/login", ctx.AuthRateLimiter.RateLimit(), m.handler.Login)
	authGroup.GET("/me", ctx.AuthMiddleware, m.handler.Me)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
