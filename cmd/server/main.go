package main // Entry point package

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iliyamo/maternal-health/internal/config"
	"github.com/iliyamo/maternal-health/internal/logging"
)

var (
	envFiles []string
	logLevel string

	// logger is built once flags are parsed; every subcommand uses it.
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "maternal",
	Short: "Maternal health records API",
	Long: `Backend for the maternal health field app.

Without a subcommand the HTTP server starts, same as 'maternal serve'.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config.LoadDotEnv(envFiles...)
		level := logLevel
		if level == "" {
			level = os.Getenv("LOG_LEVEL")
		}
		l, err := logging.New(os.Getenv("APP_ENV"), level)
		if err != nil {
			return fmt.Errorf("build logger: %w", err)
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
	RunE: runServe,
}

func init() {
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "dotenv files to load (default .env)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error (default from LOG_LEVEL)")
	addServeFlags(rootCmd)
	addServeFlags(serveCmd)

	rootCmd.AddCommand(serveCmd, migrateCmd, consumeCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
