package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/visitsafe-api/internal/config"
	"github.com/visitsafe-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/visitsafe-api/internal/infrastructure/jwt"
	s3infra "github.com/visitsafe-api/internal/infrastructure/s3"
	"github.com/visitsafe-api/internal/infrastructure/sns"
	transporthttp "github.com/visitsafe-api/internal/transport/http"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, reading from environment")
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// DynamoDB connects lazily; a failed connect surfaces per request as 503.
	handle := dynamo.Default(cfg)
	if cfg.DynamoBootstrap {
		if err := dynamo.Bootstrap(ctx, handle, cfg.DynamoTables); err != nil {
			slog.Warn("dynamodb bootstrap failed", "err", err)
		}
	}

	deps := &transporthttp.Deps{
		VisitorRequests: dynamo.NewVisitorRequestRepo(handle, cfg.DynamoTables.VisitorRequests),
		Residents:       dynamo.NewResidentRepo(handle, cfg.DynamoTables.Residents),
		Residencies:     dynamo.NewResidencyRepo(handle, cfg.DynamoTables.Residencies),
		Units:           dynamo.NewUnitRepo(handle, cfg.DynamoTables.Units),
		Blocks:          dynamo.NewBlockRepo(handle, cfg.DynamoTables.Blocks),
		Ready: func(ctx context.Context) error {
			_, err := handle.Client(ctx)
			return err
		},
	}

	snsClient, err := sns.NewClient(ctx, cfg)
	if err != nil {
		slog.Error("sns client unavailable", "err", err)
		os.Exit(1)
	}
	deps.Push = sns.NewPusher(snsClient, cfg.PushPlatformApplicationARN)
	if !deps.Push.Configured() {
		slog.Warn("PUSH_PLATFORM_APPLICATION_ARN not set, push notifications and broadcasts disabled")
	}
	if cfg.SMSFallbackEnabled {
		deps.SMS = sns.NewSender(snsClient)
	}

	// Visitor photos are optional.
	if cfg.S3BucketName != "" {
		if s3Client, err := s3infra.NewClient(ctx, cfg); err == nil {
			deps.Photos = s3infra.NewStore(s3Client, cfg.S3BucketName)
		} else {
			slog.Warn("s3 store not available, visitor photos disabled", "err", err)
		}
	}

	// JWT provider (optional, graceful fallback if keys are missing).
	if p, err := jwtinfra.NewProvider(cfg); err == nil {
		deps.JWTProvider = p
	} else {
		slog.Warn("jwt provider not available, device routes disabled", "err", err)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      transporthttp.NewRouter(ctx, cfg, deps),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", cfg.AppPort, "env", cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "err", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
