package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/alexanderramin/skilltree/internal/cache"
	"github.com/alexanderramin/skilltree/internal/cli"
	"github.com/alexanderramin/skilltree/internal/config"
	"github.com/alexanderramin/skilltree/internal/db"
	"github.com/alexanderramin/skilltree/internal/gateway"
	"github.com/alexanderramin/skilltree/internal/logging"
	"github.com/mattn/go-isatty"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		database    *sql.DB
		registry    = prometheus.NewRegistry()
		metricsFile string
	)

	app := &cli.App{}

	// Detect interactive terminal for confirmation prompts.
	app.IsInteractive = func() bool {
		return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	}

	app.Open = func(ctx context.Context, g cli.Globals) error {
		cfg, err := config.Load(g.ConfigPath)
		if err != nil {
			return err
		}
		if g.DBPath != "" {
			cfg.DBPath = g.DBPath
		}
		metricsFile = cfg.MetricsFile
		if g.MetricsFile != "" {
			metricsFile = g.MetricsFile
		}

		logger, err := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
		if err != nil {
			return err
		}

		database, err = db.OpenDB(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}

		gw := gateway.NewSQLGateway(database, gateway.Options{
			Timeout:  cfg.GatewayTimeout(),
			Observer: gateway.NewLogCallObserver(logger),
			Metrics:  gateway.NewMetrics(registry),
		})

		app.Gateway = gw
		app.Cache = cache.New(gw, cache.Options{Logger: logger})
		app.UserID = cfg.UserID
		return nil
	}

	err := cli.NewRootCmd(app).Execute()

	if database != nil {
		database.Close()
	}
	if metricsFile != "" {
		if werr := prometheus.WriteToTextfile(metricsFile, registry); werr != nil && err == nil {
			err = fmt.Errorf("writing metrics: %w", werr)
		}
	}
	return err
}
