package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"modguard/internal/bootstrap"
	"modguard/internal/bootstrap/logging"
	"modguard/internal/errs"
	"modguard/internal/usecase/moderation"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Purge moderation requests past the retention window",
	Long:  "Deletes requests (with results and notification logs) older than cleanup.retention. Runs once by default; --daemon keeps running on cleanup.schedule.",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App, svc *moderation.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		daemon, _ := cmd.Flags().GetBool("daemon")
		retention := app.Config.Cleanup.Retention

		if !daemon {
			purged, err := svc.PurgeOlderThan(ctx, retention)
			if err != nil {
				return errs.Wrap(err, "purge aged requests")
			}
			if _, err := fmt.Fprintf(cmd.OutOrStdout(), "purged %d aged requests\n", purged); err != nil {
				return errs.Wrap(err, "write cleanup output")
			}
			return nil
		}

		scheduler := cron.New()
		_, err := scheduler.AddFunc(app.Config.Cleanup.Schedule, func() {
			purged, err := svc.PurgeOlderThan(ctx, retention)
			if err != nil {
				logging.Error(ctx, "scheduled cleanup failed", slog.Any("err", errs.Loggable(err)))
				return
			}
			logging.Info(ctx, "scheduled cleanup completed", slog.Int64("purged_requests", purged))
		})
		if err != nil {
			return errs.Wrapf(err, "parse cleanup schedule %q", app.Config.Cleanup.Schedule)
		}

		scheduler.Start()
		logging.Info(ctx, "cleanup scheduler started", slog.String("schedule", app.Config.Cleanup.Schedule))

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-quit:
		case <-ctx.Done():
		}

		stopCtx := scheduler.Stop()
		<-stopCtx.Done()
		logging.Info(ctx, "cleanup scheduler stopped")
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(cleanupCmd)

	cleanupCmd.Flags().Bool("daemon", false, "Keep running and purge on the configured schedule")
}
