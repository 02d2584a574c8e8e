package cmd

import (
	"github.com/spf13/cobra"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Polls on a schedule and announces open leagues to chat",
		Long: `Connects the Telegram bot (when enabled), waits for it to be ready,
sleeps the warm-up delay, then runs a poll cycle on every scheduler tick.
The ops HTTP server exposes health, metrics, and on-demand cycles.`,
		Annotations: map[string]string{modeAnnotation: "watch"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			return appInstance.Run(cmd.Context())
		},
	}
}
