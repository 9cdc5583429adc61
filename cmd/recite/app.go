package main

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/okeefe/recite-api/internal/config"
	"github.com/okeefe/recite-api/internal/domain/srs"
	"github.com/okeefe/recite-api/internal/events"
	"github.com/okeefe/recite-api/internal/platform/logger"
	"github.com/okeefe/recite-api/internal/platform/postgres"
	"github.com/okeefe/recite-api/internal/service"
	"github.com/okeefe/recite-api/internal/service/review"
	"github.com/okeefe/recite-api/internal/store"
	"github.com/okeefe/recite-api/internal/task"
)

// application holds the wired dependencies of a running server. Everything
// is constructed once in newApplication and torn down in cleanup.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	deckStore store.DeckStore
	cardStore store.CardStore
	logStore  store.ReviewLogStore

	deckService   service.DeckService
	cardService   service.CardService
	reviewService review.Service

	taskRunner *task.Runner
	sweeper    *task.Sweeper
}

// newApplication loads configuration and wires every component of the
// server: logger, database, stores, scheduling algorithm, services, and the
// background stats refresher.
func newApplication() (*application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	log.Info("configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel),
		slog.String("algorithm", cfg.Study.Algorithm))

	db, err := setupDatabase(cfg, log)
	if err != nil {
		return nil, err
	}

	deckStore := postgres.NewPostgresDeckStore(db, log)
	cardStore := postgres.NewPostgresCardStore(db, log)
	logStore := postgres.NewPostgresReviewLogStore(db, log)

	algorithm, err := srs.NewAlgorithmFromName(cfg.Study.Algorithm)
	if err != nil {
		return nil, fmt.Errorf("failed to build scheduling algorithm: %w", err)
	}

	emitter := events.NewInMemoryEventEmitter(log)

	deckRepo := service.NewDeckRepositoryAdapter(deckStore, db)
	cardRepo := service.NewCardRepositoryAdapter(cardStore, db)

	deckService := service.NewDeckService(
		deckRepo,
		cardRepo,
		emitter,
		cfg.Study.DefaultDeckSettings(),
		log,
	)
	cardService := service.NewCardService(cardRepo, deckRepo, algorithm, emitter, log)

	reviewRepo := review.NewStoreRepository(db, deckStore, cardStore, logStore)
	reviewService := review.NewService(reviewRepo, algorithm, emitter, log)

	refresher := task.NewStatsRefresher(deckStore, cardStore)
	runner := task.NewRunner(task.RunnerConfig{
		WorkerCount: cfg.Task.WorkerCount,
		QueueSize:   cfg.Task.QueueSize,
	}, log)
	emitter.RegisterHandler(task.NewStatsEventHandler(refresher, runner, log))
	sweeper := task.NewSweeper(refresher, runner, cfg.Task.StatsSchedule, log)

	return &application{
		config:        cfg,
		logger:        log,
		db:            db,
		deckStore:     deckStore,
		cardStore:     cardStore,
		logStore:      logStore,
		deckService:   deckService,
		cardService:   cardService,
		reviewService: reviewService,
		taskRunner:    runner,
		sweeper:       sweeper,
	}, nil
}

// startBackground starts the task runner and the scheduled stats sweep.
func (app *application) startBackground() error {
	app.taskRunner.Start()
	if err := app.sweeper.Start(); err != nil {
		return fmt.Errorf("failed to start stats sweeper: %w", err)
	}
	return nil
}

// cleanup releases the application's resources in reverse construction
// order.
func (app *application) cleanup() {
	app.sweeper.Stop()
	app.taskRunner.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("failed to close database", slog.String("error", err.Error()))
	}
}
