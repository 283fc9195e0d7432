package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"go.uber.org/zap"

	"github.com/chrissnell/ctsmpost/internal/api"
	"github.com/chrissnell/ctsmpost/internal/store"
	"github.com/chrissnell/ctsmpost/pkg/calendar"
	"github.com/chrissnell/ctsmpost/pkg/config"
)

// App represents the main application
type App struct {
	configProvider config.ConfigProvider
	logger         *zap.SugaredLogger
	cfg            *config.ConfigData
	store          *store.Store
}

// Task selects what a Run does. Steps run in field order.
type Task struct {
	// ImportCSV, when set, loads phase samples from this file into Case.
	ImportCSV string
	// TimeUnits and Calendar decode a raw time column in ImportCSV.
	TimeUnits string
	Calendar  string
	// Case is extracted when set.
	Case string
	// Serve starts the read API and blocks until shutdown.
	Serve bool
}

// New creates a new application instance
func New(configProvider config.ConfigProvider, logger *zap.SugaredLogger) *App {
	return &App{
		configProvider: configProvider,
		logger:         logger,
	}
}

// Open loads the configuration and connects to the store.
func (a *App) Open(ctx context.Context) error {
	cfg, err := a.configProvider.LoadConfig()
	if err != nil {
		return fmt.Errorf("error loading configuration: %w", err)
	}
	a.cfg = cfg

	a.store, err = store.Open(ctx, cfg.Database.Driver, cfg.Database.DSN, a.logger)
	if err != nil {
		return err
	}
	return nil
}

// Close releases the store.
func (a *App) Close() error {
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}

// Run opens the application, performs task and closes it again.
func (a *App) Run(ctx context.Context, task Task) error {
	if task.ImportCSV == "" && task.Case == "" && !task.Serve {
		return errors.New("nothing to do: give a case to process or ask to serve")
	}
	if task.ImportCSV != "" && task.Case == "" {
		return errors.New("a case name is required to import samples")
	}

	if err := a.Open(ctx); err != nil {
		return err
	}
	defer a.Close()

	if task.ImportCSV != "" {
		if err := a.Import(ctx, task.Case, task.ImportCSV, task.TimeUnits, task.Calendar); err != nil {
			return err
		}
	}
	if task.Case != "" {
		if _, err := a.Process(ctx, task.Case); err != nil {
			return err
		}
	}
	if task.Serve {
		return a.Serve(ctx)
	}
	return nil
}

// Import replaces the phase samples of caseName with those in a CSV file.
// Empty units mean the file carries year and doy columns.
func (a *App) Import(ctx context.Context, caseName, path, units, cal string) error {
	var dec *calendar.Decoder
	if units != "" {
		d, err := calendar.NewDecoder(units, cal)
		if err != nil {
			return err
		}
		dec = &d
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	samples, err := store.ReadPhaseCSV(f, dec)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := a.store.SavePhaseSamples(ctx, caseName, samples); err != nil {
		return err
	}
	a.logger.Infow("imported phase samples", "case", caseName, "file", path, "samples", len(samples))
	return nil
}

// Serve runs the read API until a signal arrives or ctx is cancelled. It
// returns the server's error if the API could not listen or stopped on its own.
func (a *App) Serve(ctx context.Context) error {
	var wg sync.WaitGroup

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	srv := api.NewServer(ctx, &wg, a.cfg.Server.ListenAddr, a.store, a.logger)
	srv.Start()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	var serveErr error
	select {
	case serveErr = <-srv.Errors():
		a.logger.Errorw("calendar API stopped", "error", serveErr)
	case <-sigs:
		a.logger.Info("shutdown signal received, initiating graceful shutdown...")
	case <-ctx.Done():
		a.logger.Info("context cancelled, shutting down...")
	}

	cancel()

	a.logger.Info("waiting for the API server to stop...")
	wg.Wait()
	a.logger.Info("shutdown complete")

	return serveErr
}
