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

	"github.com/schollz/progressbar/v3"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"StocksDashboard/internal/api"
	"StocksDashboard/internal/collector"
	"StocksDashboard/internal/config"
	"StocksDashboard/internal/dashboard"
	"StocksDashboard/internal/display"
	"StocksDashboard/internal/recorder"
	"StocksDashboard/internal/scheduler"
)

func main() {
	app := &cli.App{
		Name:     "dashboard",
		HelpName: "dashboard",
		Usage:    "Stock price dashboard with 20/200-day moving averages",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "eg. ./configs/config.yaml",
				EnvVars: []string{"CONFIG_PATH"},
				Value:   "configs/config.yaml",
			},
		},
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:     "serve",
				HelpName: "serve",
				Usage:    "Serve the dashboard over HTTP and run scheduled snapshots",
				Action:   serve,
			},
			{
				Name:     "snapshot",
				HelpName: "snapshot",
				Usage:    "Render the dashboard once to a standalone HTML file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "eg. ./dashboard.html (default snapshot.path)",
					},
				},
				Action: snapshot,
			},
			{
				Name:     "summary",
				HelpName: "summary",
				Usage:    "Print the latest close and moving averages per symbol",
				Action:   summary,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// services holds the wired components shared by every command.
type services struct {
	cfg       *config.Config
	dashboard *dashboard.Dashboard
	recorder  recorder.Recorder
}

func setup(c *cli.Context) (*services, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	setupLogging(cfg.LogLevel)

	fetcher := newFetcher(cfg)
	log.Infof("data source: %s", fetcher.Name())

	col := collector.NewCollector(fetcher, cfg.Pipeline.ShortWindow, cfg.Pipeline.LongWindow,
		time.Duration(cfg.DataSource.TimeoutSeconds)*time.Second)
	rec := newRecorder(cfg.Database.SQLitePath)

	return &services{
		cfg:       cfg,
		dashboard: dashboard.New(cfg.Title, cfg.Pipeline, col, rec),
		recorder:  rec,
	}, nil
}

func (a *services) Close() {
	if err := a.recorder.Close(); err != nil {
		log.Warnf("close recorder: %v", err)
	}
}

func setupLogging(level string) {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	lvl, err := log.ParseLevel(level)
	if err != nil {
		log.Warnf("invalid log level %q, using info", level)
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)
}

func newFetcher(cfg *config.Config) collector.Fetcher {
	ds := cfg.DataSource
	switch ds.Provider {
	case config.ProviderAlpaca:
		return collector.NewAlpacaFetcher(ds.APIKey, ds.APISecret, ds.BaseURL, time.Duration(ds.TimeoutSeconds)*time.Second)
	case config.ProviderMock:
		return &collector.MockFetcher{}
	default:
		return collector.NewYahooFetcher(ds.BaseURL, cfg.Proxy, time.Duration(ds.TimeoutSeconds)*time.Second)
	}
}

// newRecorder falls back to the noop recorder when SQLite cannot be opened;
// run history is not worth refusing to start over.
func newRecorder(path string) recorder.Recorder {
	if path == "" {
		return recorder.NewNoopRecorder()
	}
	sr, err := recorder.NewSQLiteRecorder(path)
	if err != nil {
		log.Warnf("init sqlite recorder failed, using noop: %v", err)
		return recorder.NewNoopRecorder()
	}
	return sr
}

func serve(c *cli.Context) error {
	a, err := setup(c)
	if err != nil {
		return err
	}
	defer a.Close()
	log.Info("stocks dashboard starting...")

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sched := scheduler.NewScheduler(ctx, a.dashboard, a.cfg.Snapshot.Path)
	if err := sched.Register(a.cfg.Schedule.SnapshotCron); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	if a.cfg.Schedule.RunOnStart {
		log.Info("run_on_start enabled, rendering snapshot now")
		go func() {
			if err := sched.RunSnapshotNow(); err != nil {
				log.Errorf("snapshot: %v", err)
			}
		}()
	}

	srv := api.NewAPIHandler(a.dashboard, a.recorder, log.StandardLogger()).NewServer(a.cfg.Server.Addr)
	errCh := make(chan error, 1)
	go func() {
		log.Infof("listening on %s", a.cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		log.Info("shutdown signal received, stopping...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warnf("http shutdown: %v", err)
	}
	log.Info("stocks dashboard stopped")
	return nil
}

func snapshot(c *cli.Context) error {
	a, err := setup(c)
	if err != nil {
		return err
	}
	defer a.Close()

	path := c.String("output")
	if path == "" {
		path = a.cfg.Snapshot.Path
	}

	bar := progressbar.NewOptions(len(a.dashboard.Symbols()),
		progressbar.OptionSetDescription("rendering"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetWriter(os.Stderr),
	)
	page := display.NewPage()
	if _, err := a.dashboard.Run(c.Context, recorder.TriggerCLI, display.WithProgress(page, bar)); err != nil {
		page.Fail(err)
		log.Warnf("snapshot rendered partially: %v", err)
	}
	if err := display.WriteHTMLFile(path, page); err != nil {
		return err
	}
	log.Infof("snapshot written: %s (%d charts)", path, page.ChartCount())
	return nil
}

func summary(c *cli.Context) error {
	a, err := setup(c)
	if err != nil {
		return err
	}
	defer a.Close()

	term := display.NewTerminal(os.Stdout)
	_, runErr := a.dashboard.Run(c.Context, recorder.TriggerCLI, term)
	if err := term.Flush(); err != nil {
		return err
	}
	return runErr
}
