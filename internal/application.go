package application

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gridplay/tictactoe-backend/internal/config"
	"github.com/gridplay/tictactoe-backend/internal/repository"
	"github.com/gridplay/tictactoe-backend/internal/repository/storage"
	"github.com/gridplay/tictactoe-backend/internal/repository/storage/sqlite"
	"github.com/gridplay/tictactoe-backend/internal/service"
	"github.com/gridplay/tictactoe-backend/transport/rest"
)

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	sqliteStorage, err := sqlite.New(conf.SQLiteStoragePath)
	if err != nil {
		return fmt.Errorf("could not open sqlite storage: %w", err)
	}

	defer func() {
		if err = sqliteStorage.Close(); err != nil {
			log.Error("could not close sqlite storage", "error", err)
		}
	}()

	if err = sqliteStorage.Init(ctx); err != nil {
		return fmt.Errorf("could not init sqlite storage: %w", err)
	}

	gameRepo := repository.NewGameRepository(sqliteStorage.Connection)

	// the redis snapshot cache is optional; without it reads go straight to SQLite
	if redisAddr := conf.Redis.GetRedisAddr(); redisAddr != "" {
		redisStorage, redisErr := storage.NewRedisStorage(ctx, redisAddr)
		if redisErr != nil {
			return fmt.Errorf("could not connect to redis storage: %w", redisErr)
		}

		defer func() {
			if redisErr = redisStorage.Close(); redisErr != nil {
				log.Error("could not close redis storage", "error", redisErr)
			}
		}()

		gameRepo = repository.NewCachedGameRepository(logger, gameRepo, redisStorage.Connection)
	} else {
		log.Info("no redis address configured, running without the game cache")
	}

	platformLogger := service.NewPlatformLogger(logger, conf.Platform.URL, conf.Platform.QueueSize)
	defer platformLogger.Close()

	aiClient := service.NewAIClient(logger, conf.AIService.URL, conf.AIService.Timeout)

	scheduler := service.NewScheduler(logger, conf.AIService.Workers, conf.AIService.QueueSize, conf.AIService.Timeout*2)
	gamePlay := service.NewGamePlayService(logger, gameRepo, aiClient, platformLogger, scheduler, conf.AIService.Difficulty)

	schedulerDone := make(chan struct{})
	go func() {
		scheduler.Run(ctx, gamePlay)
		close(schedulerDone)
	}()

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		httpErrCh <- rest.Start(ctx, logger, conf.HTTPPort, gamePlay)
	}()

	select {
	case err = <-httpErrCh:
		cancel()
		<-schedulerDone
		if err != nil {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
	}

	// storages and the platform logger are closed by the defers above, so
	// in-flight requests and scheduled resolutions have to finish first
	<-schedulerDone
	if err = <-httpErrCh; err != nil {
		return fmt.Errorf("HTTP server error: %w", err)
	}

	return nil
}
