package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"

	"chat-desk/infrastructure/http"
	"chat-desk/internal"
	"chat-desk/repositories"
	"chat-desk/runtime"
	"chat-desk/services"
	"chat-desk/sink"
	"chat-desk/storage"
)

const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	// Thin wrapper: run() owns the lifecycle so defers always execute.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Server terminated with error: %v\n", err)
	}
	os.Exit(code)
}

func run() (int, error) {
	// 1. Configuration & logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	logger := internal.LoggerFromString(config.LogLevel)

	// 2. Storage (BadgerDB + Bluge index)
	db, err := badger.Open(buildBadgerOpts(config, logger))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		logger.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	blugeWriter, err := bluge.OpenWriter(bluge.DefaultConfig(config.BlugeFilepath))
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to open bluge writer: %w", err)
	}
	defer func() {
		logger.Info("Closing Bluge...")
		_ = blugeWriter.Close()
	}()

	// 3. Repositories and delivery machinery
	messageRepository, err := repositories.NewMessageRepository(db, blugeWriter, logger)
	if err != nil {
		return exitRuntime, err
	}
	defer func() { _ = messageRepository.Close() }()

	notificationRepository := repositories.NewNotificationRepository(db, logger, config.NotificationLimit)

	registry := runtime.NewRegistry(logger)
	dispatcher := runtime.NewDispatcher(logger, registry)

	throttle, err := runtime.NewThrottle(config.ThrottleCapacity, config.ThrottleTTL)
	if err != nil {
		return exitRuntime, fmt.Errorf("throttle init: %w", err)
	}
	defer throttle.Close()

	blobs, err := storage.NewDiskBlobStore(config.BlobRoot)
	if err != nil {
		return exitRuntime, err
	}

	chatService := services.NewChatService(
		logger,
		messageRepository,
		notificationRepository,
		dispatcher,
		registry,
		throttle,
		sink.NewAuditLog(logger),
	)

	// 4. HTTP server
	router := http.NewRouter(logger, chatService, blobs, http.RouterConfig{
		AuthSecret: config.AuthSecret,
		PageSize:   config.PageSize,
		WS: http.WSConfig{
			WriteWait:      config.WriteWait,
			PongWait:       config.PongWait,
			PingInterval:   config.PingInterval,
			MaxMessageSize: config.MaxMessageSize,
			SendBufferSize: config.SendBufferSize,
		},
	})

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := &nethttp.Server{Addr: address, Handler: router}

	// 5. Context & signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Background maintenance under supervision.
	supervisor := runtime.NewSupervisor(logger).
		Add(repositories.NewStoreJanitor(db, logger, config.GCInterval))
	supervisorDone := make(chan struct{})
	go func() {
		supervisor.Run(ctx)
		close(supervisorDone)
	}()

	errChan := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", "address", address, "at", time.Now().UTC())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 6. Wait for stop or crash
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errChan:
		return exitRuntime, err
	}

	// 7. Graceful shutdown: let in-flight requests finish, sockets drain.
	logger.Info("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Forced shutdown", "error", err)
	}
	stop()
	<-supervisorDone
	logger.Info("Program stopped cleanly")

	return exitOK, nil
}

func buildBadgerOpts(config internal.Config, logger *slog.Logger) badger.Options {
	options := badger.DefaultOptions(config.BadgerFilepath)
	if logger.Enabled(context.Background(), slog.LevelDebug) {
		options = options.WithLoggingLevel(badger.DEBUG)
	} else {
		options = options.WithLoggingLevel(badger.WARNING)
	}
	return options
}
