package cmd

import (
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lguibr/switchboard/internal/config"
	"github.com/lguibr/switchboard/internal/logging"
)

// app is the state shared by every command of one invocation.
type app struct {
	configPath string

	v      *viper.Viper
	cfg    *config.Config
	logger *slog.Logger
	closer io.Closer
}

// flagKeys maps command-line flags to the config keys they override.
var flagKeys = map[string]string{
	"log-level":     "logging.level",
	"log-format":    "logging.format",
	"log-file":      "logging.file",
	"poll-interval": "runtime.poll_interval",
	"metrics":       "metrics.enabled",
	"root":          "scan.root",
	"writing":       "scan.writing",
	"workers":       "scan.workers",
	"format":        "scan.format",
}

// NewRootCmd builds the switchboard command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "switchboard",
		Short: "Message-passing component runtime",
		Long: `Switchboard runs a main component and its dependencies inside a single
message loop. The scan command wires a code scanner and a writing sampler as
dependencies of a reporter and prints what they found.`,
		SilenceUsage:       true,
		PersistentPreRunE:  a.load,
		PersistentPostRunE: a.close,
	}

	// Global flags
	pf := root.PersistentFlags()
	pf.StringVarP(&a.configPath, "config", "c", "", "config file (default is ./switchboard.yaml or $HOME/.config/switchboard/switchboard.yaml)")
	pf.String("log-level", "", "log level: "+strings.Join(logging.ValidLevels(), ", "))
	pf.String("log-format", "", "log format: text or json")
	pf.String("log-file", "", "write logs to this file instead of stderr")

	root.AddCommand(newScanCmd(a), newConfigCmd(a))
	return root
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}

func (a *app) load(cmd *cobra.Command, _ []string) error {
	a.v = config.NewViper(a.configPath)
	for name, key := range flagKeys {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := a.v.BindPFlag(key, f); err != nil {
				return err
			}
		}
	}

	cfg, err := config.Load(a.v, a.configPath != "")
	if err != nil {
		return err
	}
	a.cfg = cfg

	logger, closer, err := logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		File:   cfg.Logging.File,
	})
	if err != nil {
		return err
	}
	a.logger, a.closer = logger, closer
	a.logger.Debug("configuration loaded", slog.String("file", a.v.ConfigFileUsed()))
	return nil
}

func (a *app) close(*cobra.Command, []string) error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}
