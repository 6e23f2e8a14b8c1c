// Command porchlite serves the session and property readiness API.
//
//	@title						PorchLite API
//	@version					1.0
//	@description				Session and property readiness coordinator for property operations.
//	@BasePath					/
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/porchlite/porchlite/internal/api"
	"github.com/porchlite/porchlite/internal/pkg/config"
	"github.com/porchlite/porchlite/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		bootLog := zerolog.New(os.Stderr)
		bootLog.Fatal().Err(err).Msg("load config")
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "porchlite",
	})

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("porchlite stopped")
	}
	log.Info().Msg("porchlite stopped")
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	app, err := build(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.close()

	if err := app.shell.Start(ctx); err != nil {
		return err
	}

	router := api.NewRouter(api.Dependencies{
		App:       app.shell,
		Activity:  app.monitor,
		Roles:     app.roles,
		Mongo:     app.db,
		Redis:     app.redis,
		JWTSecret: cfg.JWTSecret,
		Log:       logger.Component("http"),
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("port", cfg.Port).Msg("http server listening")
		if err := router.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return app.monitor.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		return router.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
