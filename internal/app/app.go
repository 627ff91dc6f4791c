package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"motiondetector/internal/camera"
	"motiondetector/internal/config"
	"motiondetector/internal/logger"
	"motiondetector/internal/repository"
	"motiondetector/internal/repository/sqlite"
	"motiondetector/internal/route"
	"motiondetector/internal/service/capture"
	"motiondetector/internal/service/motion"
	"motiondetector/internal/service/recorder"
	"motiondetector/internal/service/storage"
)

// ErrCatalogDisabled is returned when the event browser starts without EVENT_DB.
var ErrCatalogDisabled = errors.New("event catalog is disabled, set EVENT_DB")

type App struct {
	config     *config.Config
	logger     *logger.Logger
	db         *sqlite.DB
	eventRepo  repository.EventRepository
	regionRepo repository.RegionRepository
}

// NewApp loads the configuration, sets up logging and opens the event catalog when configured.
func NewApp() (*App, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	l, err := logger.New(cfg.LogDirectory, os.Stdout, os.Stderr)
	if err != nil {
		return nil, err
	}

	a := &App{config: cfg, logger: l}

	if cfg.EventDatabase != "" {
		db, err := sqlite.New(cfg.EventDatabase)
		if err != nil {
			l.Close()
			return nil, fmt.Errorf("failed to open event catalog: %w", err)
		}
		a.db = db
		a.eventRepo = sqlite.NewEventRepository(db)
		a.regionRepo = sqlite.NewRegionRepository(db)
	}

	return a, nil
}

// Config returns the loaded configuration.
func (a *App) Config() *config.Config {
	return a.config
}

// RunDetector opens the camera and runs the capture loop until quit, cancellation or a capture error.
func (a *App) RunDetector(ctx context.Context) error {
	cfg := a.config

	cam, err := camera.Open(cfg)
	if err != nil {
		a.logger.Error("%v", err)
		return err
	}
	width, height := cam.Size()
	a.logger.Info("Camera %s opened at %dx%d", cfg.CameraDevice, width, height)

	var display capture.Display = camera.Headless{}
	if cfg.ShowWindow {
		display = camera.NewWindow(cfg.WindowTitle)
	}

	detector := motion.NewDetector(cfg)
	defer detector.Close()

	store := storage.NewEventStore(cfg, a.logger, a.eventRepo, a.regionRepo)

	var opener capture.WriterOpener
	if cfg.RecordVideo {
		open := recorder.Opener(cfg)
		opener = func(path string) (capture.VideoWriter, error) {
			rec, err := open(path)
			if err != nil {
				return nil, err
			}
			return rec, nil
		}
	}

	session := capture.NewSession(cfg, a.logger, cam, display, detector, store, opener)
	session.OnEvent(func(ev capture.Event) {
		a.logger.Info("Event %s handled: %d regions, %d video frames", ev.ID, len(ev.Regions), ev.VideoFrames)
	})

	a.logger.Info("Motion detector started (%s)", cfg)
	return session.Run(ctx)
}

// RunServer serves the event browser until ctx is cancelled.
func (a *App) RunServer(ctx context.Context) error {
	if a.db == nil {
		return ErrCatalogDisabled
	}
	if a.config.Password == config.DefaultPassword {
		a.logger.Warning("PASSWORD is not set, the event browser uses the default password")
	}

	router := route.SetupRoutes(a.config, a.logger, a.eventRepo, a.regionRepo)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", a.config.Port),
		Handler: router,
	}

	fmt.Printf("📍 URL: http://localhost:%d\n", a.config.Port)
	fmt.Printf("📁 Events: %s\n", a.config.OutputDirectory)
	fmt.Printf("🗄️  Catalog: %s\n", a.config.EventDatabase)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		a.logger.Info("Shutting down event browser")
		return server.Shutdown(shutdownCtx)
	}
}

// Close releases the catalog and the log files.
func (a *App) Close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warning("Failed to close event catalog: %v", err)
		}
	}
	a.logger.Close()
}
