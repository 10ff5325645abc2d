package main

import (
	"context"
	"cryptochat/auth"
	"cryptochat/infrastructure/http/server"
	"cryptochat/internal"
	"cryptochat/moderation"
	"cryptochat/repositories"
	"cryptochat/repositories/postgres"
	"cryptochat/runtime/workers"
	"cryptochat/search"
	"cryptochat/services"
	"cryptochat/sink"
	"cryptochat/storage"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run wires every component and keeps deferred cleanups running on any exit path.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if err := internal.ValidateStoreDriver(config.StoreDriver, config.DatabaseURL); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	censoredChar, err := internal.CharacterRune(config.CharacterReplacement)
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Store
	repos, closeStore, err := openStore(ctx, config, log)
	if err != nil {
		return err
	}
	defer closeStore()

	// 3. Search index, object storage, moderation
	writer, err := search.OpenWriter(config.BlugeFilepath)
	if err != nil {
		return fmt.Errorf("search index opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing search index...")
		_ = writer.Close()
	}()
	index := search.NewProfileIndex(writer, log)

	objects, err := storage.NewDiskObjectStore(config.ObjectStoreDir, config.PublicBaseURL, log)
	if err != nil {
		return err
	}
	moderator, err := moderation.NewModerator(internal.SplitList(config.CensoredWords), censoredChar, log)
	if err != nil {
		return err
	}

	// 4. Background workers: event fan-out to the derived views, process sampling
	censorship := sink.NewCensorshipSink(log)
	fanout := workers.NewEventFanout(log, config.IndexBufferSize, config.SinkTimeout,
		sink.NewSearchSink(index, log),
		censorship,
	)
	monitor := workers.NewProcessMonitor(log, config.MetricInterval)
	sup := workers.NewSupervisor(log, config.RestartInterval).Add(fanout, monitor)

	workersCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()
	workersDone := make(chan struct{})
	go func() {
		defer close(workersDone)
		sup.Run(workersCtx)
	}()

	// 5. Services
	tokens := auth.NewTokenManager(config.JWTSecret, config.JWTIssuer, config.AuthTokenDuration)
	ledger := services.NewLedgerService(repos.Transactions, repos.Profiles, log)
	profiles := services.NewProfileService(repos.Profiles, index, objects, fanout, config.MaxAvatarBytes, log)
	chat := services.NewChatService(repos.Conversations, repos.Messages, ledger, moderator, fanout,
		services.ChatConfig{MessageReward: config.MessageReward, MaxContentLength: config.MaxContentLength}, log)
	authService := services.NewAuthService(repos.Users, repos.Profiles, tokens, fanout, log)

	if err = profiles.RebuildIndex(ctx); err != nil {
		return fmt.Errorf("search index rebuild failed: %w", err)
	}

	// 6. HTTP API and gRPC health
	httpServer := server.New(server.Config{
		Address:        fmt.Sprintf("%s:%d", config.Host, config.Port),
		CORSOrigins:    internal.SplitList(config.CORSAllowedOrigins),
		MaxAvatarBytes: config.MaxAvatarBytes,
	}, server.Dependencies{
		Auth:       authService,
		Profiles:   profiles,
		Chat:       chat,
		Ledger:     ledger,
		Tokens:     tokens,
		Objects:    objects,
		Pinger:     repos.Pinger,
		Monitor:    monitor,
		Censorship: censorship,
	}, log)

	grpcAddress := fmt.Sprintf("%s:%d", config.Host, config.GRPCPort)
	listener, err := net.Listen("tcp", grpcAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", grpcAddress, err)
	}
	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	// Use an error channel to capture Serve() issues
	errChan := make(chan error, 2)
	go func() {
		log.Info("Starting gRPC health server", "address", grpcAddress)
		if err := grpcServer.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			errChan <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()
	go func() {
		if err := httpServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// 7. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err = <-errChan:
		log.Error("Server failed, shutting down", "error", err)
	}

	// 8. Final Cleanup: stop accepting requests, then drain pending events
	healthServer.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if shutdownErr := httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
		log.Warn("HTTP shutdown incomplete", "error", shutdownErr)
	}
	grpcServer.GracefulStop()
	stopWorkers()
	<-workersDone
	log.Info("Program stopped cleanly")

	return err
}

// openStore returns the repositories of the configured backend and its cleanup.
func openStore(ctx context.Context, config Config, log *slog.Logger) (repositories.Repositories, func(), error) {
	if config.StoreDriver == internal.StorePostgres {
		store, err := postgres.NewStore(ctx, config.DatabaseURL, log, config.LimitMessages)
		if err != nil {
			return repositories.Repositories{}, nil, fmt.Errorf("postgres opening failed: %w", err)
		}
		return store.Repositories(), func() {
			log.Info("Closing Postgres pool...")
			store.Close()
		}, nil
	}

	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return repositories.Repositories{}, nil, fmt.Errorf("database opening failed: %w", err)
	}
	return repositories.NewBadgerRepositories(db, log, config.LimitMessages), func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}, nil
}
