package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"kidbloom/internal/config"
	"kidbloom/internal/logging"
)

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	dataDir    string
	logLevel   string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:           "kidbloom",
		Short:         "Daily activities, stories and rewards for parents, with spreadsheet content import",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default: config.toml next to the executable)")
	root.PersistentFlags().StringVar(&opts.dataDir, "data-dir", "", "data directory (overrides the config file)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(
		newServeCmd(opts),
		newImportCmd(opts),
		newTemplateCmd(),
		newExportCmd(opts),
	)
	return root
}

// load reads configuration and applies the persistent flags on top.
func (o *globalOptions) load() (*config.AppConfig, config.LoadConfigInfo, *logrus.Logger, error) {
	path := o.configPath
	if path == "" {
		path = config.DefaultConfigPath()
	}
	cfg, info, err := config.LoadFile(path)
	if err != nil {
		return nil, info, nil, err
	}
	if o.dataDir != "" {
		cfg.Data.DataDir = o.dataDir
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	return cfg, info, logging.New(cfg.Log), nil
}
