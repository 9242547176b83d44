package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/okian/leaguestats/internal/adapters/http/api"
	"github.com/okian/leaguestats/internal/adapters/leaderboard"
	"github.com/okian/leaguestats/internal/adapters/repository"
	app "github.com/okian/leaguestats/internal/app"
	"github.com/okian/leaguestats/internal/config"
	"github.com/okian/leaguestats/internal/domain/aggregate"
	"github.com/okian/leaguestats/internal/domain/retention"
	"github.com/okian/leaguestats/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		os.Stderr.WriteString("leaguestats: " + err.Error() + "\n")
		stop()
		os.Exit(1) //nolint:gocritic // stop already called
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "leaguestats",
		Usage: "collect Tetra League rank statistics",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to a YAML configuration file",
				EnvVars: []string{config.EnvPrefix + "CONFIG"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "fetch the leaderboard once and update the snapshot file",
				Action: runCommand,
			},
			{
				Name:   "serve",
				Usage:  "run on a cron schedule and serve the HTTP API",
				Action: serveCommand,
			},
		},
	}
}

// setup loads configuration, initializes logging and builds the service.
func setup(c *cli.Context) (*config.Config, *app.Service, error) {
	cfg, err := config.Load(c.Context, c.String("config"))
	if err != nil {
		return nil, nil, err
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat), logger.WithOutput(c.App.ErrWriter)); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logging: %w", err)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(c.Context, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	table, err := cfg.TierTable()
	if err != nil {
		return nil, nil, err
	}

	svc := app.New(
		app.WithFetcher(leaderboard.New(
			leaderboard.WithBaseURL(cfg.APIBaseURL),
			leaderboard.WithUserAgent(cfg.UserAgent),
			leaderboard.WithTimeout(cfg.HTTPTimeout()),
			leaderboard.WithRetry(uint(cfg.FetchMaxTries), cfg.FetchInitialBackoff(), cfg.FetchMaxBackoff()), //nolint:gosec // validated positive
		)),
		app.WithStore(repository.NewFileStore(cfg.OutputPath)),
		app.WithAggregator(aggregate.New(aggregate.WithTable(table))),
		app.WithRetention(retention.New(retention.WithWindowDays(cfg.RetentionDays))),
		app.WithMetricsTextfile(cfg.MetricsTextfile),
	)
	return cfg, svc, nil
}

func runCommand(c *cli.Context) error {
	cfg, svc, err := setup(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Context, cfg.RunTimeout())
	defer cancel()

	res, err := svc.Run(ctx)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(c.App.Writer, "run %s: %d players, %d snapshots stored, %d pruned\n",
		res.RunID, res.PlayersFetched, res.Stored, res.Pruned)
	return nil
}

func serveCommand(c *cli.Context) error {
	cfg, svc, err := setup(c)
	if err != nil {
		return err
	}
	ctx := c.Context
	log := logger.Get()

	sched, err := app.NewScheduler(svc, cfg.Schedule,
		app.WithRunTimeout(cfg.RunTimeout()),
		app.WithRunOnStart(cfg.RunOnStart),
	)
	if err != nil {
		return err
	}
	if err := sched.Start(ctx); err != nil {
		return err
	}
	defer sched.Stop()

	// HTTP mux and routes.
	mux := http.NewServeMux()
	api.NewServer(svc, svc).Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for shutdown signal or a listener failure.
	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}
	log.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
	return nil
}
