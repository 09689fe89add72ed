package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/sumanuel/Auto-Guardian-sub000/internal/auth"
	"github.com/sumanuel/Auto-Guardian-sub000/internal/config"
	"github.com/sumanuel/Auto-Guardian-sub000/internal/log"
	"github.com/sumanuel/Auto-Guardian-sub000/internal/notify"
	"github.com/sumanuel/Auto-Guardian-sub000/internal/pipeline"
	"github.com/sumanuel/Auto-Guardian-sub000/internal/store"
	transport "github.com/sumanuel/Auto-Guardian-sub000/internal/transport/http"
	"github.com/sumanuel/Auto-Guardian-sub000/internal/urgency"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()

	logOpts := log.NewOptions()
	logOpts.Name = "maintenance"
	logOpts.Level = cfg.LogLevel
	logOpts.Format = cfg.LogFormat
	if errs := logOpts.Validate(); len(errs) > 0 {
		return fmt.Errorf("invalid log options: %v", errs)
	}
	log.Init(logOpts)
	defer log.Sync()

	display, badge, err := config.LoadThresholds(cfg.ThresholdsFile)
	if err != nil {
		return err
	}
	engine := urgency.New(urgency.WithDisplayThresholds(display), urgency.WithBadgeThresholds(badge))
	log.Info("Thresholds loaded", "display", display, "badge", badge)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := store.NewPostgresStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	redisStore, err := store.NewRedisStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer redisStore.Close()

	authenticator := auth.NewAuthenticator(cfg, redisStore)
	notifier := notify.New(cfg, log.WithName("notify"))
	dispatcher := pipeline.NewDispatcher(cfg.DBChannelSize, cfg.StateChannelSize, cfg.AlertChannelSize)

	// Workers drain their channels after the server stops accepting readings.
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()

	var workers sync.WaitGroup
	startWorker := func(run func(context.Context)) {
		workers.Add(1)
		go func() {
			defer workers.Done()
			run(workerCtx)
		}()
	}

	for range cfg.DBWriterWorkers {
		startWorker(pipeline.NewDBWriter(dispatcher.DBChan, db, cfg.DBBatchSize, cfg.DBFlushIntervalMS).Run)
	}
	for range cfg.StateWriterWorkers {
		startWorker(pipeline.NewStateWriter(dispatcher.StateChan, redisStore).Run)
	}
	for range cfg.AlertWorkers {
		startWorker(pipeline.NewAlertEvaluator(dispatcher.AlertChan, engine, db, redisStore, notifier, cfg.AlertDedupTTL).Run)
	}

	sweeper := pipeline.NewAlertEvaluator(nil, engine, db, redisStore, notifier, cfg.AlertDedupTTL)

	router := transport.NewRouter(transport.Deps{
		Store:      db,
		Redis:      redisStore,
		Engine:     engine,
		Dispatcher: dispatcher,
		Auth:       authenticator,
		Feed:       transport.NewRedisFeed(redisStore),
	})
	server := transport.NewServer(":"+cfg.HTTPPort, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Start(gctx)
	})
	g.Go(func() error {
		sweeper.RunSweeper(gctx, cfg.SweepInterval)
		return nil
	})

	log.Info("Maintenance service started",
		"port", cfg.HTTPPort,
		"db_writers", cfg.DBWriterWorkers,
		"state_writers", cfg.StateWriterWorkers,
		"alert_workers", cfg.AlertWorkers,
		"sweep_interval", cfg.SweepInterval,
	)

	err = g.Wait()

	log.Info("Shutting down, draining pipeline")
	dispatcher.Close()
	workers.Wait()

	return err
}
