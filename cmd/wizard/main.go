// Command wizard runs the metadata wizard lookup proxy.
package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/precliniverse/wizard/internal/config"
	logpkg "github.com/precliniverse/wizard/internal/logger"
)

var (
	configPath string
	envName    string
)

var rootCmd = &cobra.Command{
	Use:           "wizard",
	Short:         "Schema-driven lookup proxy for metadata forms",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default config/<env>.yaml)")
	rootCmd.PersistentFlags().StringVar(&envName, "env", config.GetEnv(), "environment: local, dev, docker, prod")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		rootCmd.PrintErrln("Error:", err)
		os.Exit(1)
	}
}

// loadConfig reads --config when given, else the file for --env.
func loadConfig() (config.Config, error) {
	if configPath != "" {
		return config.LoadFile(configPath) //nolint:wrapcheck // already wrapped with the path
	}
	return config.Load(envName) //nolint:wrapcheck // already wrapped with the path
}

// bootstrap loads the configuration and builds the logger.
func bootstrap() (config.Config, *zap.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return config.Config{}, nil, err
	}
	logger, err := logpkg.NewLogger(envName, cfg.Logging.Level)
	if err != nil {
		return config.Config{}, nil, err //nolint:wrapcheck // message names the setting
	}
	return cfg, logger, nil
}
