package main

import (
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"weighttracker/internal/config"
	"weighttracker/internal/logging"
)

// cli carries state shared by every subcommand.
type cli struct {
	configPath string
	stdin      io.Reader

	cfg config.Config
	log *zap.Logger
}

func newRootCmd(stdin io.Reader) *cobra.Command {
	c := &cli{stdin: stdin}
	v := config.New()

	root := &cobra.Command{
		Use:   "weighttracker",
		Short: "Weighttracker records body-weight measurements",
		Long: `Weighttracker keeps a history of body-weight measurements with the change
between consecutive entries, plus theme and language preferences.

Run "weighttracker serve" to start the HTTP API, or use the weight and
settings subcommands to work with the store directly.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v, c.configPath)
			if err != nil {
				return sysError{err}
			}
			log, err := logging.New(cfg.Log.Level, cfg.Log.Format)
			if err != nil {
				return sysError{err}
			}
			c.cfg = cfg
			c.log = log
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.log != nil {
				_ = c.log.Sync()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.configPath, "config", "", "config file (default: ./config.yaml if present)")
	flags.String("storage-driver", "", "storage backend: sqlite, postgres or memory")
	flags.String("dsn", "", "sqlite file path or postgres connection string")
	flags.String("log-level", "", "log level: debug, info, warn, error")
	_ = v.BindPFlag(config.KeyStorageDriver, flags.Lookup("storage-driver"))
	_ = v.BindPFlag(config.KeyStorageDSN, flags.Lookup("dsn"))
	_ = v.BindPFlag(config.KeyLogLevel, flags.Lookup("log-level"))

	root.AddCommand(
		newServeCmd(c, v),
		newWeightCmd(c),
		newSettingsCmd(c),
		newUserCmd(c),
	)
	return root
}
