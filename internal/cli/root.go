// Package cli implements fightctl, the operator command line: offline
// predictions, feature inspection and database maintenance.
package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/ArnavTamrakar/Fight-predict/internal/config"
	"github.com/ArnavTamrakar/Fight-predict/pkg/logger"
)

// Linker flags.
var (
	version = "dev"
	commit  = "none"
)

// configFile overrides FIGHT_CONFIG when set.
var configFile string

// useColor toggles ANSI colors in table output.
var useColor bool

// cfg holds the loaded configuration for the running command.
var cfg *config.Config

// rootCmd is the command-line entrypoint for all other commands.
var rootCmd = &cobra.Command{
	Use:   "fightctl",
	Short: "Inspect fighters, derive features and run predictions from the shell.",
	Long: `fightctl works against the same configuration as the prediction server.
Settings come from defaults, an optional YAML file (--config or FIGHT_CONFIG)
and FIGHT_* environment variables, in that order.`,
	Version:           version + " (" + commit + ")",
	SilenceErrors:     true,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

func loadConfig(cmd *cobra.Command, _ []string) error {
	path := configFile
	if path == "" {
		path = os.Getenv(config.EnvConfigFile)
	}
	c, err := config.LoadFile(cmd.Context(), path)
	if err != nil {
		return err
	}
	cfg = c

	if err := logger.InitWith(cmd.ErrOrStderr(), cfg.LogFormat); err != nil {
		return err
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		_ = logger.SetLevelString("warn")
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "YAML config file (overrides FIGHT_CONFIG)")
	rootCmd.PersistentFlags().BoolVar(&useColor, "color", true, "colorize table output")

	rootCmd.AddCommand(predictCmd, featuresCmd, fightersCmd, dbCmd, loadCmd)
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
