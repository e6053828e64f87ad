package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/raoulx24/backup-rotator/internal/config"
	"github.com/raoulx24/backup-rotator/internal/logging"
	"github.com/raoulx24/backup-rotator/internal/mailbox"
	"github.com/raoulx24/backup-rotator/internal/rotation"
	"github.com/raoulx24/backup-rotator/internal/watcher"
)

func newDaemonCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Run continuously: rotate on schedule and on new arrivals",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon()
		},
	}
}

func runDaemon() error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}

	log := logging.New(cfg.Logging.Level, cfg.Logging.Format)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	engine := rotation.New(rotation.Config{
		Policy:      cfg.Policy(),
		ArrivalsDir: cfg.BackupsDir,
		ArchiveRoot: cfg.ArchivesDir,
		Logger:      log,
	})

	// Mailbox coalesces triggers from the schedule and the watcher.
	mb := mailbox.New[rotation.Trigger]()

	watch := watcher.New(cfg, log, mb)
	go func() {
		if err := watch.Start(ctx); err != nil {
			log.Error("watcher failed", "error", err)
		}
	}()

	sched := cron.New()
	if _, err := sched.AddFunc(cfg.Daemon.Schedule, func() {
		mb.Put(rotation.Trigger{Reason: "schedule", At: time.Now()})
	}); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	// Hot reload on SIGHUP
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGHUP)

		for range sigCh {
			newCfg, err := config.Load(flagConfig)
			if err != nil {
				log.Error("config reload failed", "error", err)
				continue
			}

			engine.UpdateConfig(newCfg.Policy(), newCfg.BackupsDir, newCfg.ArchivesDir)
			watch.UpdateConfig(newCfg)

			log.Info("config reloaded")
		}
	}()

	// Rotate once at startup to absorb whatever accumulated while down.
	mb.Put(rotation.Trigger{Reason: "startup", At: time.Now()})

	log.Info("daemon started", "schedule", cfg.Daemon.Schedule, "arrivals", cfg.BackupsDir)

	for {
		trig, ok := mb.Take(ctx)
		if !ok {
			log.Info("shutting down")
			return nil
		}

		log.Info("rotation pass starting", "reason", trig.Reason)
		report, err := engine.RunOnce(ctx)
		if err != nil {
			log.Error("rotation pass aborted", "error", err)
			continue
		}
		if report.Failed() {
			log.Warn("rotation pass finished with errors", "errors", len(report.Errors))
		}
	}
}
