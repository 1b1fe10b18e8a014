package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tbourn/go-support-agent/internal/config"
	"github.com/tbourn/go-support-agent/internal/sysutil"
)

// Version is stamped at build time with -ldflags "-X .../cmd.Version=...".
var Version = "dev"

var envFiles []string

var rootCmd = &cobra.Command{
	Use:           "support-agent",
	Short:         "AI support agent: chat and email intake, ticketing, follow-ups",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", []string{".env", "../.env"}, "dotenv files to load before reading the environment")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the build version",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), Version)
	},
}

// loadConfig reads dotenv files and the environment, then configures the
// global logger.
func loadConfig() (config.Config, error) {
	config.LoadDotenv(envFiles...)
	cfg, err := config.Load()
	if err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	sysutil.SetupLogger(cfg.LogLevel, cfg.LogPretty)
	return cfg, nil
}
