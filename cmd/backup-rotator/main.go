// backup-rotator rotates accumulating backup files into hourly, daily and
// weekly archive tiers.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/raoulx24/backup-rotator/internal/config"
	"github.com/raoulx24/backup-rotator/internal/logging"
	"github.com/raoulx24/backup-rotator/internal/rotation"
)

var (
	flagConfig string
	flagDryRun bool
)

func main() {
	root := &cobra.Command{
		Use:   "backup-rotator",
		Short: "Rotate backup files into hourly/daily/weekly archive tiers",
		Long: `backup-rotator classifies backup files by age, promotes them through
hourly, daily and weekly tiers, and deletes what the retention policy no
longer needs. Running it with no arguments performs one rotation pass.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(cmd.Context())
		},
	}

	root.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "path to config file")
	root.Flags().BoolVar(&flagDryRun, "dry-run", false, "log decisions without touching any file")

	root.AddCommand(newDaemonCmd())
	root.AddCommand(newVersionCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func runOnce(ctx context.Context) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}

	log := logging.New(cfg.Logging.Level, cfg.Logging.Format)

	engine := rotation.New(rotation.Config{
		Policy:      cfg.Policy(),
		ArrivalsDir: cfg.BackupsDir,
		ArchiveRoot: cfg.ArchivesDir,
		DryRun:      flagDryRun,
		Logger:      log,
	})

	report, err := engine.RunOnce(ctx)
	if err != nil {
		return err
	}
	if report.Failed() {
		return fmt.Errorf("rotation pass finished with %d errors", len(report.Errors))
	}
	return nil
}
