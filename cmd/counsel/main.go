package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/schoolcounsel/counsel-admin/internal/api"
	"github.com/schoolcounsel/counsel-admin/internal/cli"
	"github.com/schoolcounsel/counsel-admin/internal/core/domain"
	"github.com/schoolcounsel/counsel-admin/internal/core/service"
	mongostore "github.com/schoolcounsel/counsel-admin/internal/infrastructure/db/mongo"
	"github.com/schoolcounsel/counsel-admin/internal/infrastructure/http/handlers"
	"github.com/schoolcounsel/counsel-admin/internal/infrastructure/roster"
	"github.com/schoolcounsel/counsel-admin/internal/pkg/config"
	"github.com/schoolcounsel/counsel-admin/pkg/logger"
)

const usage = `usage: counsel [flags] [serve]

  (no command)  interactive console
  serve         admin HTTP API

flags:
`

// @title                       Counsel Admin API
// @version                     1.0
// @description                 Account login, password changes and roster imports for the school counseling program.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Type "Bearer" followed by a space and the JWT.
func main() {
	mongoUser := flag.String("mongo-user", "", "MongoDB user (overrides MONGO_USER)")
	mongoPass := flag.String("mongo-pass", "", "MongoDB password (overrides MONGO_PASS)")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	command := flag.Arg(0)
	if command != "" && command != "serve" {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, command, *mongoUser, *mongoPass); err != nil {
		fmt.Fprintln(os.Stderr, "counsel:", describe(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, command, mongoUser, mongoPass string) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.Development(),
		Service: "counsel-admin",
	})

	uri, err := cfg.Mongo.ResolveURI(mongoUser, mongoPass)
	if err != nil {
		return err
	}

	client, db, err := mongostore.Connect(ctx, mongostore.Config{
		URI:      uri,
		Database: cfg.Mongo.Database,
		Timeout:  cfg.Mongo.Timeout,
	})
	if err != nil {
		return err
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Disconnect(dctx)
	}()
	log.Info().Str("database", cfg.Mongo.Database).Msg("connected to MongoDB")

	creds := mongostore.NewCredentialRepository(db)
	profiles := mongostore.NewProfileRepository(db)
	if err := creds.EnsureIndexes(ctx); err != nil {
		log.Warn().Err(err).Msg("could not ensure credential indexes")
	}
	if err := profiles.EnsureIndexes(ctx); err != nil {
		log.Warn().Err(err).Msg("could not ensure profile indexes")
	}

	hasher, err := service.NewHasher(cfg.PasswordHash)
	if err != nil {
		return err
	}
	adminHash, err := hasher.Hash(domain.DefaultAdminPassword)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	if err := service.EnsureAdmin(ctx, creds, domain.DefaultAdminUsername, adminHash, logger.Component("bootstrap")); err != nil {
		return err
	}

	authService := service.NewAuthService(creds, hasher, cfg.JWTSecret, cfg.TokenTTL, logger.Component("auth"))
	provisioner := service.NewProvisioningService(creds, profiles, hasher, logger.Component("provisioning"))

	if command == "serve" {
		if cfg.JWTSecret == "" {
			return &domain.ConfigurationError{Reason: "JWT_SECRET is required to serve the HTTP API"}
		}
		e := api.NewRouter(api.Dependencies{
			Auth:        authService,
			Provisioner: provisioner,
			ParseRoster: roster.Parse,
			Mongo:       handlers.MongoPinger{DB: db},
			JWTSecret:   cfg.JWTSecret,
			Log:         logger.Component("http"),
		})
		return serve(ctx, e, ":"+cfg.Port, log)
	}

	console := cli.New(authService, provisioner, cli.Options{Log: logger.Component("console")})
	done := make(chan error, 1)
	go func() { done <- console.Run(ctx) }()

	// A blocked terminal read does not observe ctx; leave on signal.
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return nil
	}
}

func serve(ctx context.Context, h http.Handler, addr string, log zerolog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info().Msg("shutdown complete")
	return nil
}

// describe renders fatal errors for the operator.
func describe(err error) string {
	var ce *domain.ConfigurationError
	if errors.As(err, &ce) {
		return "configuration error: " + ce.Reason
	}
	return err.Error()
}
