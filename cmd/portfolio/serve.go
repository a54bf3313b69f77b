package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kbukum/portfolio/api"
	"github.com/kbukum/portfolio/auth"
	"github.com/kbukum/portfolio/bootstrap"
	"github.com/kbukum/portfolio/config"
	"github.com/kbukum/portfolio/database"
	"github.com/kbukum/portfolio/ingest"
	"github.com/kbukum/portfolio/logger"
	"github.com/kbukum/portfolio/observability"
	"github.com/kbukum/portfolio/portfolio"
	"github.com/kbukum/portfolio/server"
	"github.com/kbukum/portfolio/storage"
	"github.com/kbukum/portfolio/version"
)

func newServeCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), flags)
		},
	}
}

func runServe(ctx context.Context, flags *rootFlags) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load(flags.loaderOptions()...)
	if err != nil {
		return err
	}
	if cfg.Version == "" {
		cfg.Version = version.GetShortVersion()
	}

	app, err := bootstrap.NewApp(cfg)
	if err != nil {
		return err
	}
	if err := wire(ctx, app); err != nil {
		app.Logger.Error("Startup failed", logger.ErrorFields("wire", err))
		return err
	}
	return app.Run(ctx)
}

// wire builds every dependency and registers the components in start order:
// observability, database, storage, then the HTTP server.
func wire(ctx context.Context, app *bootstrap.App[*config.Config]) error {
	cfg := app.Cfg
	log := app.Logger

	obs, err := observability.Setup(ctx, cfg.Observability, cfg.Name, cfg.Version)
	if err != nil {
		return fmt.Errorf("observability: %w", err)
	}
	if err := app.RegisterComponent(obs); err != nil {
		return err
	}
	metrics, err := observability.NewMetrics(observability.Meter())
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	db, err := database.Open(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	if err := app.RegisterComponent(database.NewComponent(db)); err != nil {
		return err
	}
	if !cfg.Database.SkipMigrations {
		if err := portfolio.NewMigrator(db, log).Up(); err != nil {
			return err
		}
	}

	blobs, err := storage.New(cfg.Storage, log)
	if err != nil {
		return err
	}
	if err := app.RegisterComponent(storage.NewComponent(blobs, cfg.Storage)); err != nil {
		return err
	}

	authn, err := auth.New(cfg.Admin, log)
	if err != nil {
		return err
	}

	repo := portfolio.NewRepository(db)
	pipeline := ingest.New(repo, blobs, cfg.Upload,
		ingest.WithMetrics(metrics),
		ingest.WithLogger(log),
	)

	srv := server.New(cfg.Server, log)
	srv.ApplyDefaults(cfg.Name, metrics, app.Components.HealthAll)
	api.New(pipeline, authn, log).Register(srv.GinEngine(), cfg.Storage.Local.URLPrefix)
	if err := app.RegisterComponent(server.NewComponent(srv)); err != nil {
		return err
	}

	app.Summary.TrackBusinessComponent("portfolio.Repository", "repository", "database")
	app.Summary.TrackBusinessComponent("ingest.Pipeline", "service", "portfolio.Repository", "storage:"+cfg.Storage.Selected())
	app.Summary.TrackBusinessComponent("api.Handler", "handler", "ingest.Pipeline", "auth.Authenticator")
	return nil
}
