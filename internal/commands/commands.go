// Package commands implements the renderctl command line.
package commands

import (
	"fmt"

	"github.com/99designs/keyring"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"airender/internal/capture"
	"airender/internal/config"
	"airender/internal/engine"
	"airender/internal/logging"
	"airender/internal/utils"
)

// GlobalOptions are shared by every subcommand.
type GlobalOptions struct {
	ConfigPath string
	ConfigRoot string
	LogLevel   string
	NoDatabase bool
	// MemoryKeyring skips the OS credential store.
	MemoryKeyring bool
}

func New() *cobra.Command {
	g := &GlobalOptions{}
	cmd := &cobra.Command{
		Use:           "renderctl",
		Short:         "Drive the AI render engine without the desktop shell.",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.PersistentFlags().StringVar(&g.ConfigPath, "config", "", "Path to an airender.yaml config file.")
	cmd.PersistentFlags().StringVar(&g.ConfigRoot, "config-root", "", "Override the application config root.")
	cmd.PersistentFlags().StringVar(&g.LogLevel, "log-level", "", "Log level (debug, info, warn, error).")
	cmd.PersistentFlags().BoolVar(&g.NoDatabase, "no-db", false, "Do not record generation runs.")
	cmd.PersistentFlags().BoolVar(&g.MemoryKeyring, "memory-keyring", false, "Keep API keys in memory instead of the OS keyring.")
	_ = cmd.PersistentFlags().MarkHidden("memory-keyring")

	AddCommands(cmd, g)
	return cmd
}

func AddCommands(topLevel *cobra.Command, g *GlobalOptions) {
	addServe(topLevel, g)
	addGenerate(topLevel, g)
	addHistory(topLevel, g)
	addFavorite(topLevel, g)
}

// build loads configuration and assembles an engine around host.
func (g *GlobalOptions) build(host capture.Host) (*engine.Engine, error) {
	cfg, err := config.Load(g.ConfigPath)
	if err != nil {
		return nil, err
	}
	if g.ConfigRoot != "" {
		cfg.App.ConfigRoot = g.ConfigRoot
	}
	if g.LogLevel != "" {
		cfg.Log.Level = g.LogLevel
	}

	log, err := logging.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	if cfg.App.DevMode {
		if err := utils.LoadEnv(); err != nil && !utils.IsNotFound(err) {
			log.Warn("cannot load .env", zap.Error(err))
		}
	}
	opts := engine.Options{Config: cfg, Host: host, Logger: log, NoDatabase: g.NoDatabase}
	if g.MemoryKeyring {
		opts.Ring = keyring.NewArrayKeyring(nil)
	}
	return engine.New(opts)
}
