package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"modguard/internal/bootstrap"
	"modguard/internal/bootstrap/logging"
	"modguard/internal/errs"
	"modguard/internal/usecase/moderation"
)

var analyticsCmd = &cobra.Command{
	Use:   "analytics [submitter]",
	Short: "Show a submitter's moderation summary",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *moderation.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		summary, err := svc.Analytics(ctx, cmd.Flags().Arg(0))
		if err != nil {
			return errs.Wrap(err, "load analytics summary")
		}

		encoded, err := json.MarshalIndent(summary, "", "  ")
		if err != nil {
			return errs.Wrap(err, "encode summary")
		}
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), string(encoded)); err != nil {
			return errs.Wrap(err, "write summary")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(analyticsCmd)
}
