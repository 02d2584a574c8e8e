package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newCheckCmd() *cobra.Command {
	var dump bool
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Runs one poll cycle and prints open leagues",
		Long: `Fetches the league list once, prints the matching leagues that are open
for signup, and saves them as the previous results. A failed cycle is logged
and the command still exits zero.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			rep, err := appInstance.Check(cmd.Context())
			if err != nil {
				appInstance.Logger().Warn("cycle skipped", zap.String("cycle_id", rep.CycleID), zap.Error(err))
				return nil
			}
			if dump {
				data, err := json.MarshalIndent(rep.Filtered, "", "    ")
				if err != nil {
					return fmt.Errorf("encode leagues: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dump, "dump", false, "print the filtered leagues as JSON")
	return cmd
}
