package cmd

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"modguard/internal/bootstrap"
	"modguard/internal/bootstrap/logging"
	domainmod "modguard/internal/domain/moderation"
	"modguard/internal/errs"
	"modguard/internal/usecase/moderation"
)

var moderateCmd = &cobra.Command{
	Use:   "moderate",
	Short: "Moderate content from the command line",
}

var moderateTextCmd = &cobra.Command{
	Use:   "text [content]",
	Short: "Moderate a piece of text",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *moderation.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		submitter, _ := cmd.Flags().GetString("submitter")
		outcome, err := svc.Submit(ctx, moderation.SubmitInput{
			SubmitterID: submitter,
			ContentType: domainmod.ContentTypeText,
			Content:     []byte(cmd.Flags().Arg(0)),
		})
		if err != nil {
			return errs.Wrap(err, "moderate text")
		}
		return printOutcome(cmd, outcome)
	}),
}

var moderateImageCmd = &cobra.Command{
	Use:   "image [file]",
	Short: "Moderate an image file",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *moderation.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		path := cmd.Flags().Arg(0)
		content, err := os.ReadFile(path)
		if err != nil {
			return errs.Wrapf(err, "read image file %q", path)
		}
		// Files may arrive already base64 encoded, e.g. piped from an
		// export; decode those back to raw bytes first.
		if decoded, decErr := base64.StdEncoding.DecodeString(string(content)); decErr == nil {
			content = decoded
		}

		submitter, _ := cmd.Flags().GetString("submitter")
		outcome, err := svc.Submit(ctx, moderation.SubmitInput{
			SubmitterID: submitter,
			ContentType: domainmod.ContentTypeImage,
			Content:     content,
		})
		if err != nil {
			return errs.Wrap(err, "moderate image")
		}
		return printOutcome(cmd, outcome)
	}),
}

func printOutcome(cmd *cobra.Command, outcome moderation.Outcome) error {
	encoded, err := json.MarshalIndent(outcome, "", "  ")
	if err != nil {
		return errs.Wrap(err, "encode outcome")
	}
	if _, err := fmt.Fprintln(cmd.OutOrStdout(), string(encoded)); err != nil {
		return errs.Wrap(err, "write outcome")
	}
	return nil
}

func init() {
	rootCmd.AddCommand(moderateCmd)
	moderateCmd.AddCommand(moderateTextCmd)
	moderateCmd.AddCommand(moderateImageCmd)

	moderateCmd.PersistentFlags().String("submitter", "", "Submitter email address")
	_ = moderateCmd.MarkPersistentFlagRequired("submitter")
}
