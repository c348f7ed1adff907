package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/abdurrahman998/tournament/internal/cache"
	"github.com/abdurrahman998/tournament/internal/db"
	"github.com/abdurrahman998/tournament/internal/handlers"
	"github.com/abdurrahman998/tournament/internal/logger"
	"github.com/abdurrahman998/tournament/internal/repository/postgres"
	"github.com/abdurrahman998/tournament/internal/service/auth"
	"github.com/abdurrahman998/tournament/internal/service/auth/tokenmanager"
	"github.com/abdurrahman998/tournament/internal/service/notification"
	"github.com/abdurrahman998/tournament/internal/service/profile"
	"github.com/abdurrahman998/tournament/internal/service/reconciler"
	"github.com/abdurrahman998/tournament/internal/service/settlement"
	"github.com/abdurrahman998/tournament/internal/service/tournament"
	"github.com/abdurrahman998/tournament/internal/service/user"
	"github.com/abdurrahman998/tournament/internal/service/wallet"
)

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler

	reconciler *reconciler.Reconciler
	logger     logger.Logger
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	// Initialize logger
	logger, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	// Connect to the database and run migrations
	pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}

	// Initialize repositories
	storage := postgres.NewStorage(pool)

	// Initialize services
	tokenManager, err := tokenmanager.New(tokenmanager.Config{SecretKey: c.SecretKey}, storage.Refresh())
	if err != nil {
		return nil, fmt.Errorf("error while creating token manager")
	}
	userService := user.NewService(auth.DefaultHasher, storage)
	authService, err := auth.NewService(auth.Config{}, tokenManager, userService)
	if err != nil {
		return nil, fmt.Errorf("error while creating auth service. Err: %w", err)
	}

	var writer notification.KafkaWriter
	if c.KafkaAddr != "" {
		writer = &kafka.Writer{
			Addr:     kafka.TCP(c.KafkaAddr),
			Topic:    c.KafkaTopic,
			Balancer: &kafka.LeastBytes{},
		}
	}
	notificationService := notification.NewService(storage, writer, logger)

	tournamentService := tournament.NewService(storage, nil, logger)
	if c.RedisAddr != "" {
		listCache, err := cache.NewTournamentCache(ctx, c.RedisAddr, logger)
		if err != nil {
			return nil, fmt.Errorf("error while connecting to redis. Err: %w", err)
		}
		tournamentService = tournament.NewService(storage, listCache, logger)
	}

	settlementService := settlement.NewService(storage, notificationService, logger)
	walletService := wallet.NewService(storage, notificationService, logger)
	profileService := profile.NewService(storage)

	mux := handlers.NewRouter(
		authService,
		tournamentService,
		settlementService,
		walletService,
		profileService,
		notificationService,
		logger,
	)

	return &ServerApp{
		ListenAddr: c.ListenAddr,
		Handler:    mux,
		reconciler: reconciler.New(storage, notificationService, logger),
		logger:     logger,
	}, nil
}

// Run starts http server and closes gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    s.ListenAddr,
		Handler: s.Handler,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	// Sweep stale pending transactions in the background
	reconcilerStopped := s.reconciler.Run(srvCtx)

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); err == context.DeadlineExceeded {
			s.logger.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		s.logger.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	s.logger.Info("Starting server", "addr", s.ListenAddr)
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed
	<-reconcilerStopped

	return err
}
