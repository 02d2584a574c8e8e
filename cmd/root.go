// Package cmd defines the CLI commands of the leaguewatch executable.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/league-watcher/internal/app"
	"github.com/JakeFAU/league-watcher/internal/config"
	"github.com/JakeFAU/league-watcher/internal/watcher"
	dotenv "github.com/JakeFAU/league-watcher/pkg/config"
)

// appKeyType is the key for storing the App in the context.
type appKeyType string

const appKey appKeyType = "app"

// modeAnnotation marks which services a subcommand needs.
const modeAnnotation = "leaguewatch/mode"

// App is the part of the application container commands use. Tests swap in a
// fake through newApp.
type App interface {
	Check(ctx context.Context) (watcher.Report, error)
	Run(ctx context.Context) error
	Close(ctx context.Context) error
	Logger() *zap.Logger
}

var newApp = func(ctx context.Context, cfg config.Config, mode app.Mode) (App, error) {
	return app.Build(ctx, cfg, mode)
}

type rootFlags struct {
	configPath string
	envFile    string
}

func newRootCmd() *cobra.Command {
	var flags rootFlags
	cmd := &cobra.Command{
		Use:   "leaguewatch",
		Short: "Watches a rec-league API for leagues with open signups.",
		Long: `leaguewatch polls the league API, keeps the leagues that match the
configured play level and day, and announces the ones still open for signup
to the console, a Telegram chat, or a Pub/Sub topic.`,
		SilenceUsage: true,

		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := dotenv.LoadDotEnv(flags.envFile); err != nil {
				return err
			}
			cfg, err := config.Load(flags.configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			mode := app.ModeCheck
			if cmd.Annotations[modeAnnotation] == "watch" {
				mode = app.ModeWatch
			}
			appInstance, err := newApp(cmd.Context(), cfg, mode)
			if err != nil {
				return fmt.Errorf("failed to initialize application services: %w", err)
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey, appInstance))
			return nil
		},

		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if appInstance, ok := cmd.Context().Value(appKey).(App); ok && appInstance != nil {
				_ = appInstance.Close(context.Background()) //nolint:errcheck // Close logs its own failures
			}
		},
	}

	cmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "path to a YAML/TOML/JSON config file")
	cmd.PersistentFlags().StringVar(&flags.envFile, "env-file", "", "dotenv file with secrets (default .env if present)")

	cmd.AddCommand(newCheckCmd())
	cmd.AddCommand(newWatchCmd())
	return cmd
}

func resolveApp(ctx context.Context) (App, error) {
	appInstance, ok := ctx.Value(appKey).(App)
	if !ok || appInstance == nil {
		return nil, errors.New("application services not initialized")
	}
	return appInstance, nil
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
