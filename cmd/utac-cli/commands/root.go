package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"utac-backend/internal/components/telemetry"

	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool

	config        Config
	otelProviders telemetry.Otel
)

var rootCmd = &cobra.Command{
	Use:   "utac-cli",
	Short: "utac-cli looks up and crawls vehicle inspection centers listed by UTAC-OTC.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		telemetry.InitSlog(verbose)

		var err error
		config, err = LoadConfig(configPath)
		if err != nil {
			return err
		}

		otelProviders, err = telemetry.SetupFromEnv(cmd.Context(), "utac-cli")
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			slog.Warn("telemetry disabled", "err", err)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		err := otelProviders.Shutdown(context.Background())
		if err != nil {
			slog.Warn("shutdown telemetry", "err", err)
		}
		return nil
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.json5", "path to the config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
