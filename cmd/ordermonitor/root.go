package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/timmy/ordermonitor/internal/config"
	"github.com/timmy/ordermonitor/internal/logger"
)

var configPath string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ordermonitor",
	Short: "Ingest order drop files",
	Long: `Watch a drop folder for order transaction and cancellation JSON files,
validate them and apply them to the order store.`,
	SilenceUsage: true,
}

func init() {
	// CONFIG_PATH is honoured for container deployments.
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (default ./configs/config.yaml, or $CONFIG_PATH)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(validateCmd)
}

// loadConfig reads the configuration and installs the process-wide logger.
func loadConfig() (*config.Config, *logger.Logger, error) {
	path := configPath
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}

	appLogger := logger.New(&logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		ServiceName: "ordermonitor",
		File:        cfg.Log.File,
		FileOnly:    cfg.Log.FileOnly,
		MaxSize:     cfg.Log.MaxSize,
		MaxBackups:  cfg.Log.MaxBackups,
		MaxAge:      cfg.Log.MaxAge,
		Compress:    cfg.Log.Compress,
	})
	logger.SetDefaultLogger(appLogger)
	return cfg, appLogger, nil
}
