package cmd

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"modguard/internal/bootstrap"
	"modguard/internal/bootstrap/logging"
	"modguard/internal/errs"
	"modguard/internal/usecase/moderation"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the moderation HTTP API",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App, svc *moderation.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		addr, _ := cmd.Flags().GetString("addr")
		addr = strings.TrimSpace(addr)
		if addr == "" {
			addr = app.Config.Server.Addr
		}

		server := &http.Server{
			Addr:         addr,
			Handler:      newModerationAPIHandler(svc, app.Config.App.Name, app.Config.App.Env),
			ReadTimeout:  app.Config.Server.ReadTimeout,
			WriteTimeout: app.Config.Server.WriteTimeout,
		}

		logging.Info(ctx, "moderation api server started", slog.String("addr", addr))

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error(ctx, "moderation api server failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "serve moderation api")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "Listen address (defaults to server.addr from config)")
}
