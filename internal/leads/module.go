// Package leads provides the lead pipeline bounded context module.
// This file defines the module that encapsulates all leads setup and route registration.
package leads

import (
	"context"

	"leadsync_backend/internal/capi"
	"leadsync_backend/internal/events"
	apphttp "leadsync_backend/internal/http"
	"leadsync_backend/internal/importer/csvimport"
	"leadsync_backend/internal/importer/sheet"
	"leadsync_backend/internal/leads/handler"
	"leadsync_backend/internal/leads/repository"
	"leadsync_backend/internal/leads/service"
	"leadsync_backend/platform/config"
	"leadsync_backend/platform/logger"
	"leadsync_backend/platform/validator"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the leads module with all its dependencies.
// The store and archiver are built by the composition root because both hold
// external connections; either may be nil for a reduced deployment.
func NewModule(ctx context.Context, store repository.Store, archiver service.CSVArchiver, bus events.Bus, val *validator.Validator, cfg *config.Config, log *logger.Logger) (*Module, error) {
	repo, err := repository.New(ctx, store, log)
	if err != nil {
		return nil, err
	}

	mapping, err := sheet.LoadMapping(cfg.GetSheetMappingFile())
	if err != nil {
		return nil, err
	}

	importer := sheet.New(cfg, mapping, log)
	publisher := capi.NewClient(cfg, log)

	svc := service.New(repo, publisher, importer, csvimport.Import, archiver, bus, log)

	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}, nil
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// Service returns the orchestrator service for external use (scheduler worker).
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts leads routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// All leads routes require authentication.
	leadsGroup := ctx.Protected.Group("/leads")
	m.handler.RegisterRoutes(leadsGroup)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
