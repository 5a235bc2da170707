package cli

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"pump-alerts/internal/app"
	"pump-alerts/internal/config"
	"pump-alerts/internal/logging"
	"pump-alerts/internal/version"
)

var (
	cfgFile   string
	logLevel  string
	logFormat string
	appHandle *app.App
)

var rootCmd = &cobra.Command{
	Use:           "pumpalerts",
	Short:         "Watch KuCoin USDT pairs for pump and dump momentum and alert on Telegram",
	Version:       version.String(),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if appHandle != nil {
			return nil
		}

		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		appHandle = app.NewApp(cfg, bootstrapLogger(cfg))
		return nil
	},
}

// bootstrapLogger applies the command line overrides before building the
// process logger.
func bootstrapLogger(cfg *config.Config) zerolog.Logger {
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if logFormat != "" {
		cfg.Logging.Format = logFormat
	}
	return logging.NewLogger(cfg.Logging).With().
		Str("app", cfg.App.Name).
		Str("env", cfg.App.Environment).
		Str("version", version.Version).
		Logger()
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override log level defined in config")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Override log format (json or console)")

	rootCmd.AddCommand(runCmd, showCmd, exportCmd, simulateCmd, versionCmd)
}

func getApp() *app.App {
	if appHandle == nil {
		panic("pumpalerts: app not initialised before command ran")
	}
	return appHandle
}
