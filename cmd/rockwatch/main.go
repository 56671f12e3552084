package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/multierr"

	"rockwatch/internal/alerts"
	"rockwatch/internal/api"
	"rockwatch/internal/broadcast"
	"rockwatch/internal/client"
	"rockwatch/internal/config"
	"rockwatch/internal/history"
	"rockwatch/internal/logging"
	"rockwatch/internal/metrics"
	"rockwatch/internal/notify"
	"rockwatch/internal/poller"
	"rockwatch/internal/simulator"
	"rockwatch/internal/storage"
	"rockwatch/internal/zones"
)

var version = "dev"

const usage = `usage: rockwatch [serve|mockapi] [-config path]

  serve     poll the prediction backend and serve the dashboard (default)
  mockapi   run the simulated prediction backend
`

func main() {
	lvl := new(slog.LevelVar)
	log := logging.NewLogger(lvl)

	cmd := "serve"
	args := os.Args[1:]
	if len(args) > 0 && len(args[0]) > 0 && args[0][0] != '-' {
		cmd, args = args[0], args[1:]
	}
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	configPath := fs.String("config", os.Getenv("ROCKWATCH_CONFIG"), "path to a YAML or JSON config file")
	fs.Usage = func() { fmt.Fprint(os.Stderr, usage); fs.PrintDefaults() }
	_ = fs.Parse(args)

	var err error
	switch cmd {
	case "serve":
		err = serve(*configPath, lvl, log)
	case "mockapi":
		err = mockAPI(*configPath, lvl, log)
	default:
		fs.Usage()
		os.Exit(2)
	}
	exitCode := handleErrors(err, log)
	log.Info("done", "exit_code", exitCode)
	os.Exit(exitCode)
}

func loadConfig(path string, lvl *slog.LevelVar, log *slog.Logger) (*config.Manager, error) {
	config.LoadDotEnv()
	mgr, err := config.NewManager(config.ResolvePath(path))
	if err != nil {
		return nil, err
	}
	cfg := mgr.Get()
	logging.SetLevel(lvl, cfg.LogLevel, cfg.Debug)
	log.Info("config loaded", "path", mgr.Path(), "backend", cfg.Backend.BaseURL, "log_level", lvl.Level().String())
	return mgr, nil
}

func serve(path string, lvl *slog.LevelVar, log *slog.Logger) (err error) {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	mgr, err := loadConfig(path, lvl, log)
	if err != nil {
		return err
	}
	cfg := mgr.Get()

	backend := client.New(cfg.Backend, log)

	store, err := storage.NewStore(cfg.Storage)
	if err != nil {
		return err
	}
	var sinks []poller.Sink
	var saver alerts.Saver
	if store != nil {
		if err := store.Init(ctx); err != nil {
			_ = store.Close()
			return err
		}
		defer func() { err = multierr.Append(err, store.Close()) }()
		saver = store
		sinks = append(sinks, storage.NewSink(store))
		log.Info("storage enabled", "driver", cfg.Storage.Driver)
	}

	sensors := metrics.NewStore(cfg.Sensors.StoreLimit)
	alertStore := alerts.NewStore(cfg.Alerts.StoreLimit)
	recorder := alerts.NewRecorder(alertStore, saver, log, cfg.Alerts.RaiseCategory, cfg.Alerts.Cooldown)
	sinks = append(sinks, sensors, recorder)

	casts, err := broadcast.Open(cfg.Broadcast, log)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, broadcast.CloseAll(casts)) }()
	for _, c := range casts {
		sinks = append(sinks, c)
	}

	var email *notify.Email
	if cfg.Notify.Email.Enabled {
		email = notify.NewEmail(cfg.Notify.Email, log)
		sinks = append(sinks, email)
		log.Info("email notifications enabled", "to", cfg.Notify.Email.To, "min_category", cfg.Notify.Email.MinCategory)
	}

	window := history.NewWindow(cfg.Poller.HistorySize)
	live := poller.New(backend, window, cfg.Poller.Interval, log, sinks...)
	if store != nil && cfg.Storage.Seed {
		snaps, err := store.RecentSnapshots(ctx, cfg.Poller.HistorySize)
		if err != nil {
			log.Warn("history seed failed", "err", err)
		} else {
			live.Seed(storage.HistoryEntries(snaps))
			log.Info("history seeded", "entries", len(snaps))
		}
	}
	health := poller.NewHealthMonitor(backend, cfg.Poller.HealthInterval, log)

	live.Start(ctx)
	defer live.Stop()
	health.Start(ctx)
	defer health.Stop()

	applyPolicy := func(next *config.Config) {
		logging.SetLevel(lvl, next.LogLevel, next.Debug)
		recorder.SetPolicy(next.Alerts.RaiseCategory, next.Alerts.Cooldown)
		if email != nil {
			email.SetPolicy(next.Notify.Email.MinCategory, next.Notify.Email.Cooldown)
		}
	}

	api.Start(ctx, api.Deps{
		Config:     mgr,
		Backend:    backend,
		Live:       live,
		Health:     health,
		Sensors:    sensors,
		Alerts:     alertStore,
		MockAlerts: alerts.NewGenerator(0),
		Zones:      zones.NewGenerator(0),
		Recorder:   recorder,
		Logger:     log,
		Version:    version,

		OnConfigChange: applyPolicy,
	})

	go mgr.Watch(3*time.Second, func(next *config.Config) {
		applyPolicy(next)
		log.Info("config reloaded", "log_level", lvl.Level().String())
	}, func(err error) {
		log.Warn("config reload failed", "err", err)
	}, ctx.Done())

	log.Info("rockwatch started", "version", version, "interval", cfg.Poller.Interval.String())
	<-ctx.Done()
	log.Info("shutting down")
	return ctx.Err()
}

func mockAPI(path string, lvl *slog.LevelVar, log *slog.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	mgr, err := loadConfig(path, lvl, log)
	if err != nil {
		return err
	}
	cfg := mgr.Get().Simulator
	return simulator.New(cfg.Seed, log).ListenAndServe(ctx, cfg.Addr)
}

func handleErrors(err error, log *slog.Logger) int {
	if err == nil {
		return 0
	}
	exitCode := 0
	for _, e := range multierr.Errors(err) {
		if errors.Is(e, context.Canceled) {
			continue
		}
		log.Error("error occurred", "error", e, "stack", fmt.Sprintf("%+v", e))
		exitCode = 1
	}
	return exitCode
}
