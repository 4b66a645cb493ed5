// Package internal contains core application functionality
package internal

import (
	"fmt"

	"github.com/karloscodes/cartridge"

	"github.com/adima959/vl-marketing-tool-sub006/internal/config"
	"github.com/adima959/vl-marketing-tool-sub006/internal/database"
	"github.com/adima959/vl-marketing-tool-sub006/internal/jobs"
)

// Application wraps cartridge.Application with the attribution-specific
// components: the tracker store manager (also serving as cartridge's
// DBManager) and the CRM store manager.
type Application struct {
	*cartridge.Application
	Tracker *database.TrackerManager
	CRM     *database.CRMManager
	Jobs    *jobs.Scheduler
}

// NewApp creates a new application instance with default settings
func NewApp() (*Application, error) {
	cfg := config.GetConfig()
	return NewAppWithConfig(cfg)
}

// NewAppWithConfig creates a new application with the provided config
func NewAppWithConfig(cfg *config.Config) (*Application, error) {
	// Create logger
	logger := cartridge.NewLogger(cfg, nil)

	// Initialize the tracker store (cartridge-managed sqlite)
	tracker := database.NewTrackerManager(cfg, logger)
	if err := tracker.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize tracker store: %w", err)
	}

	// Initialize the CRM store (sqlite or mysql, by config)
	crm := database.NewCRMManager(cfg, logger)
	if err := crm.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize crm store: %w", err)
	}

	// Initialize jobs system
	jobsManager, err := jobs.NewScheduler(tracker, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize jobs: %w", err)
	}

	// Create the cartridge application using NewApplication. The route
	// mount closes over the CRM handle; cartridge itself only knows about
	// the tracker store.
	app, err := cartridge.NewApplication(cartridge.ApplicationOptions{
		Config:    cfg,
		Logger:    logger,
		DBManager: tracker,
		RouteMountFunc: func(srv *cartridge.Server) {
			MountAppRoutes(srv, crm.GetConnection())
		},
		BackgroundWorkers: []cartridge.BackgroundWorker{jobsManager},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create application: %w", err)
	}

	return &Application{
		Application: app,
		Tracker:     tracker,
		CRM:         crm,
		Jobs:        jobsManager,
	}, nil
}
