package config

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"

	"modguard/internal/bootstrap/logging"
	"modguard/internal/errs"
)

type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Server     ServerConfig     `mapstructure:"server"`
	Classifier ClassifierConfig `mapstructure:"classifier"`
	Notify     NotifyConfig     `mapstructure:"notify"`
	Tracker    TrackerConfig    `mapstructure:"tracker"`
	Sentry     SentryConfig     `mapstructure:"sentry"`
	Cleanup    CleanupConfig    `mapstructure:"cleanup"`
}

type AppConfig struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type ClassifierConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

type NotifyConfig struct {
	ChannelTimeout time.Duration `mapstructure:"channel_timeout"`
	Slack          SlackConfig   `mapstructure:"slack"`
	Email          EmailConfig   `mapstructure:"email"`
	NATS           NATSConfig    `mapstructure:"nats"`
}

type SlackConfig struct {
	BotToken  string `mapstructure:"bot_token"`
	ChannelID string `mapstructure:"channel_id"`
}

// Configured reports whether the channel has everything it needs; an
// unconfigured channel is left out of the fan-out entirely.
func (c SlackConfig) Configured() bool {
	return c.BotToken != "" && c.ChannelID != ""
}

type EmailConfig struct {
	BrevoAPIKey string `mapstructure:"brevo_api_key"`
	SenderEmail string `mapstructure:"sender_email"`
}

func (c EmailConfig) Configured() bool {
	return c.BrevoAPIKey != "" && c.SenderEmail != ""
}

type NATSConfig struct {
	URL     string `mapstructure:"url"`
	Subject string `mapstructure:"subject"`
}

func (c NATSConfig) Configured() bool {
	return c.URL != ""
}

type TrackerConfig struct {
	GitHubToken string   `mapstructure:"github_token"`
	Owner       string   `mapstructure:"owner"`
	Repo        string   `mapstructure:"repo"`
	Labels      []string `mapstructure:"labels"`
}

func (c TrackerConfig) Configured() bool {
	return c.GitHubToken != "" && c.Owner != "" && c.Repo != ""
}

type SentryConfig struct {
	DSN string `mapstructure:"dsn"`
}

type CleanupConfig struct {
	Retention time.Duration `mapstructure:"retention"`
	Schedule  string        `mapstructure:"schedule"`
}

func Load(ctx context.Context, configFile string) (Config, error) {
	if ctx == nil {
		return Config{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return Config{}, errs.Wrap(err, "check context")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.config"))

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("MODGUARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile == "" && errors.As(err, &notFound) {
			// Keep default and env-backed config when no file is provided.
			logging.Warn(logCtx, "config file not found, fallback to defaults and env")
		} else {
			return Config{}, errs.Wrap(err, "read config")
		}
	} else {
		logging.Info(logCtx, "using config file", slog.String("path", v.ConfigFileUsed()))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errs.Wrap(err, "unmarshal config")
	}

	if cfg.Database.DSN == "" {
		return Config{}, errors.New("database.dsn is required")
	}
	if cfg.Classifier.APIKey == "" {
		return Config{}, errors.New("classifier.api_key is required")
	}
	if cfg.Cleanup.Retention <= 0 {
		return Config{}, errors.New("cleanup.retention must be positive")
	}

	logging.Info(
		logCtx,
		"config loaded",
		slog.String("app", cfg.App.Name),
		slog.String("env", cfg.App.Env),
		slog.String("database_driver", cfg.Database.Driver),
		slog.String("classifier_model", cfg.Classifier.Model),
		slog.Bool("slack_enabled", cfg.Notify.Slack.Configured()),
		slog.Bool("email_enabled", cfg.Notify.Email.Configured()),
		slog.Bool("nats_enabled", cfg.Notify.NATS.Configured()),
		slog.Bool("tracker_enabled", cfg.Tracker.Configured()),
	)

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "modguard")
	v.SetDefault("app.env", "development")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "data/modguard.sqlite")
	v.SetDefault("server.addr", ":8000")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("classifier.model", "gpt-4o-mini")
	v.SetDefault("notify.channel_timeout", 10*time.Second)
	v.SetDefault("notify.nats.subject", "moderation.flagged")
	v.SetDefault("tracker.labels", []string{"bug", "escalation", "content-moderation"})
	v.SetDefault("cleanup.retention", 720*time.Hour)
	v.SetDefault("cleanup.schedule", "0 3 * * *")
}
