package bootstrap

import (
	"context"
	"log/slog"
	"time"

	"github.com/getsentry/sentry-go"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"modguard/internal/bootstrap/config"
	"modguard/internal/bootstrap/database"
	"modguard/internal/bootstrap/logging"
	"modguard/internal/infrastructure/classifier"
	notifyinfra "modguard/internal/infrastructure/notify"
	sqliterepo "modguard/internal/infrastructure/persistence/sqlite/repository"
	sqliteuow "modguard/internal/infrastructure/persistence/sqlite/uow"
	"modguard/internal/infrastructure/tracker"
	"modguard/internal/ports"
	"modguard/internal/usecase/escalate"
	"modguard/internal/usecase/moderation"
	"modguard/internal/usecase/notify"
)

var Module = fx.Options(
	fx.Provide(provideConfig),
	fx.Provide(provideDatabase),
	fx.Provide(provideApp),
	fx.Invoke(initSentry),
	fx.Provide(
		fx.Annotate(
			sqliterepo.NewModerationRepository,
			fx.As(new(ports.ModerationRepository)),
		),
	),
	fx.Provide(
		fx.Annotate(
			sqliteuow.NewUnitOfWork,
			fx.As(new(ports.UnitOfWork)),
		),
	),
	fx.Provide(provideClassifier),
	fx.Provide(provideNotifiers),
	fx.Provide(provideDispatcher),
	fx.Provide(provideTracker),
	fx.Provide(provideEscalator),
	fx.Provide(moderation.NewService),
)

type configParams struct {
	fx.In

	Ctx        context.Context
	ConfigFile string `name:"configFile"`
}

func provideConfig(p configParams) (config.Config, error) {
	ctx := logging.WithAttrs(p.Ctx, slog.String("component", "bootstrap.fx"))
	return config.Load(ctx, p.ConfigFile)
}

func provideDatabase(lc fx.Lifecycle, ctx context.Context, cfg config.Config) (*gorm.DB, error) {
	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.fx"))

	db, err := database.Open(logCtx, cfg.Database)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})

	return db, nil
}

func provideApp(cfg config.Config, db *gorm.DB) *App {
	return &App{
		Config: cfg,
		DB:     db,
	}
}

func provideClassifier(cfg config.Config) (ports.Classifier, error) {
	var opts []classifier.OpenAIOption
	if cfg.Classifier.BaseURL != "" {
		opts = append(opts, classifier.WithBaseURL(cfg.Classifier.BaseURL))
	}
	return classifier.NewOpenAIClassifier(cfg.Classifier.APIKey, cfg.Classifier.Model, opts...)
}

// provideNotifiers builds one notifier per configured channel. An empty
// slice is valid: the dispatcher simply has nothing to fan out to.
func provideNotifiers(lc fx.Lifecycle, ctx context.Context, cfg config.Config) ([]ports.ChannelNotifier, error) {
	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.fx"))

	var notifiers []ports.ChannelNotifier

	if cfg.Notify.Email.Configured() {
		brevo, err := notifyinfra.NewBrevoNotifier(cfg.Notify.Email.BrevoAPIKey, cfg.Notify.Email.SenderEmail)
		if err != nil {
			return nil, err
		}
		notifiers = append(notifiers, brevo)
	}

	if cfg.Notify.Slack.Configured() {
		slackNotifier, err := notifyinfra.NewSlackNotifier(cfg.Notify.Slack.BotToken, cfg.Notify.Slack.ChannelID)
		if err != nil {
			return nil, err
		}
		notifiers = append(notifiers, slackNotifier)
	}

	if cfg.Notify.NATS.Configured() {
		natsNotifier, err := notifyinfra.NewNATSNotifier(cfg.Notify.NATS.URL, cfg.Notify.NATS.Subject)
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{
			OnStop: func(_ context.Context) error {
				natsNotifier.Close()
				return nil
			},
		})
		notifiers = append(notifiers, natsNotifier)
	}

	channels := make([]string, 0, len(notifiers))
	for _, n := range notifiers {
		channels = append(channels, string(n.Channel()))
	}
	logging.Info(logCtx, "notification channels configured", slog.Any("channels", channels))

	return notifiers, nil
}

func provideDispatcher(cfg config.Config, notifiers []ports.ChannelNotifier) moderation.Dispatcher {
	return notify.NewDispatcher(notifiers, cfg.Notify.ChannelTimeout)
}

// provideTracker returns a nil tracker when GitHub is not configured;
// the escalator degrades to logging and Sentry capture only.
func provideTracker(ctx context.Context, cfg config.Config) (ports.IssueTracker, error) {
	if !cfg.Tracker.Configured() {
		logging.Warn(logging.WithAttrs(ctx, slog.String("component", "bootstrap.fx")),
			"issue tracker not configured, escalations will not be filed")
		return nil, nil
	}
	return tracker.NewGitHubTracker(cfg.Tracker.GitHubToken, cfg.Tracker.Owner, cfg.Tracker.Repo)
}

func provideEscalator(cfg config.Config, issueTracker ports.IssueTracker) moderation.Escalator {
	return escalate.NewEscalator(issueTracker, cfg.App.Env, cfg.Tracker.Labels)
}

func initSentry(lc fx.Lifecycle, ctx context.Context, cfg config.Config) error {
	if cfg.Sentry.DSN == "" {
		return nil
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.fx"))
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.Sentry.DSN,
		Environment: cfg.App.Env,
	}); err != nil {
		return err
	}
	logging.Info(logCtx, "sentry initialized", slog.String("env", cfg.App.Env))

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			sentry.Flush(2 * time.Second)
			return nil
		},
	})
	return nil
}
