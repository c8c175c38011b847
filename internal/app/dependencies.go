package app

import (
	"context"
	"fmt"

	"github.com/ratiobudget/ratiobudget/internal/config"
	"github.com/ratiobudget/ratiobudget/internal/database"
	"github.com/ratiobudget/ratiobudget/internal/event_bus"
	"github.com/ratiobudget/ratiobudget/internal/utils"
	"github.com/ratiobudget/ratiobudget/pkg/backup"
	"github.com/ratiobudget/ratiobudget/pkg/insights"
	"github.com/ratiobudget/ratiobudget/pkg/report"
	"github.com/ratiobudget/ratiobudget/pkg/state"
	"github.com/ratiobudget/ratiobudget/pkg/store"
	log "github.com/sirupsen/logrus"
)

// Dependencies holds all services and handlers for the application.
type Dependencies struct {
	Clock    utils.Clock
	EventBus *event_bus.EventBus
	Store    *store.Store

	StateService state.Service
	StateHandler *state.Handler

	InsightsService  *insights.ServiceImpl
	CsvTrendRenderer *report.CsvTrendRendererImpl
	InsightsHandler  *insights.Handler

	BackupService *backup.ServiceImpl
	BackupHandler *backup.Handler

	WorkbookRenderer *report.WorkbookRendererImpl
	ReportService    *report.ServiceImpl
	ReportHandler    *report.Handler

	closers []func()
}

// OpenRepository opens the document repository of the configured backend.
// The returned func releases its resources.
func OpenRepository(cfg config.Application) (store.Repository, func(), error) {
	switch cfg.Store.Backend {
	case "sqlite", "":
		db, err := database.OpenSQLite(cfg.Store.Path)
		if err != nil {
			return nil, nil, err
		}
		return store.NewSQLiteRepository(db), func() { db.Close() }, nil
	case "postgres":
		if err := database.Migrate(cfg.Database); err != nil {
			return nil, nil, err
		}
		pool, err := database.Open(cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		return store.NewPostgresRepository(pool), pool.Close, nil
	case "file":
		repo, err := store.NewFileRepository(cfg.Store.Dir)
		if err != nil {
			return nil, nil, err
		}
		return repo, func() {}, nil
	case "memory":
		return store.NewMemoryRepository(), func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
}

// BuildDependencies initializes and wires all application services and handlers.
func BuildDependencies(ctx context.Context, cfg config.Application) (*Dependencies, error) {
	deps := &Dependencies{}

	repo, closeRepo, err := OpenRepository(cfg)
	if err != nil {
		return nil, err
	}
	deps.closers = append(deps.closers, closeRepo)
	log.Infof("Using %s store", cfg.Store.Backend)

	deps.Clock = &utils.SystemClock{}
	deps.EventBus = event_bus.NewEventBus()
	deps.Store = store.NewStore(repo, cfg.Store.Key, deps.Clock)

	deps.closers = append(deps.closers, state.SubscribeJournal(deps.EventBus))
	if cfg.Backup.AutoDir != "" {
		unsubscribe, err := backup.SubscribeAutoBackup(deps.EventBus, cfg.Backup.AutoDir, deps.Clock)
		if err != nil {
			deps.Close()
			return nil, err
		}
		deps.closers = append(deps.closers, unsubscribe)
	}

	deps.StateService = state.NewStateService(ctx, deps.Store, deps.EventBus, deps.Clock)
	deps.StateHandler = state.NewStateHandler(deps.StateService)

	deps.InsightsService = insights.NewInsightsService(deps.StateService, deps.Clock)
	deps.CsvTrendRenderer = report.NewCsvTrendRenderer()
	deps.InsightsHandler = insights.NewInsightsHandler(deps.InsightsService, deps.CsvTrendRenderer)

	deps.BackupService = backup.NewBackupService(deps.StateService, deps.Clock, cfg.Backup.PreviewTTL)
	deps.BackupHandler = backup.NewBackupHandler(deps.BackupService)

	deps.WorkbookRenderer = report.NewWorkbookRenderer()
	deps.ReportService = report.NewReportService(deps.StateService, deps.WorkbookRenderer, deps.Clock)
	deps.ReportHandler = report.NewReportHandler(deps.ReportService)

	return deps, nil
}

// Close unsubscribes event handlers and releases the store, in reverse order.
func (d *Dependencies) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
	d.closers = nil
}
