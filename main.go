package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"life_tracker/internal/auth"
	"life_tracker/internal/entries"
	"life_tracker/internal/server"
	"life_tracker/src"
	"life_tracker/src/contextstore"
	"life_tracker/src/llm/interpreter"
	"life_tracker/src/logger"
	"life_tracker/src/storage"
	"life_tracker/src/workout"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("No .env file loaded, using process environment")
	}

	config, err := src.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if err := logger.InitLogger(config.Log); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize logger")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, config); err != nil {
		logger.Fatal().Err(err).Msg("Server stopped with error")
	}
	logger.Info().Msg("Server stopped")
}

func run(ctx context.Context, config *src.Config) error {
	backend, err := storage.NewRedisBackend(ctx, config.Redis.URL)
	if err != nil {
		return err
	}
	defer backend.Close()

	store := contextstore.New(backend, config.Context.TTL())
	logger.Info().Dur("ttl", store.TTL()).Msg("Context store ready")

	chatModel, err := interpreter.NewChatModel(ctx, config.LLM)
	if err != nil {
		return err
	}
	prompts := interpreter.DefaultPromptConfig()
	if config.LLM.PromptFile != "" {
		if prompts, err = interpreter.LoadPromptFile(config.LLM.PromptFile); err != nil {
			return err
		}
	}

	entryStore, closeEntries, err := openEntries(ctx, config)
	if err != nil {
		return err
	}
	defer closeEntries()

	handler := server.New(server.Deps{
		Store:       store,
		Workout:     workout.NewMachine(store),
		Interpreter: interpreter.New(chatModel, prompts),
		Entries:     entryStore,
		Auth:        auth.NewJWTAuthenticator(config.Auth),
	})

	httpServer := &http.Server{
		Addr:    config.HTTP.Addr,
		Handler: handler,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", config.HTTP.Addr).Msg("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.HTTP.ShutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// openEntries picks the Postgres store when DATABASE_URL is set and falls
// back to logging entries otherwise.
func openEntries(ctx context.Context, config *src.Config) (server.EntryStore, func(), error) {
	if config.Database.URL == "" {
		logger.Warn().Msg("DATABASE_URL not set, tracker entries will only be logged")
		return entries.NewLogPersister(), func() {}, nil
	}

	if _, err := os.Stat(config.Database.MigrationsPath); err == nil {
		if err := entries.RunMigrations(config.Database.URL, config.Database.MigrationsPath); err != nil {
			return nil, nil, err
		}
		logger.Info().Str("path", config.Database.MigrationsPath).Msg("Database migrations applied")
	} else {
		logger.Warn().Str("path", config.Database.MigrationsPath).Msg("Migrations directory not found, skipping")
	}

	persister, err := entries.NewPostgresPersister(ctx, config.Database.URL)
	if err != nil {
		return nil, nil, err
	}
	return persister, persister.Close, nil
}
