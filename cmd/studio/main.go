package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/avstrong/studio/internal/app"
	"github.com/avstrong/studio/internal/config"
	"github.com/avstrong/studio/internal/logger"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "studio",
	Short:         "Radio studio booking and contributor payroll",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func loadConfig() (*config.Config, *logger.Logger, error) {
	path := configPath
	if path == "" {
		var err error
		if path, err = config.DefaultPath(); err != nil {
			return nil, nil, err
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	l, err := logger.New(logger.Config{Level: cfg.Log.Level, Development: cfg.Log.Development})
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}

	return cfg, l, nil
}

// withApp builds the application for one command and tears it down afterwards.
func withApp(fn func(a *app.App) error) error {
	cfg, l, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = l.Sync() }()

	a, err := app.New(cfg, l)
	if err != nil {
		return err
	}

	defer func() {
		if err := a.Close(); err != nil {
			l.LogErrorf("Failed to close storage: %v", err)
		}
	}()

	return fn(a)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default ~/.studio/config.toml)")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(paymentsCmd())
	rootCmd.AddCommand(tokenCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
