package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/a8m/envsubst"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration of the relay. All sections can be set via
// the YAML config file, except for Webhook which is read from the environment
// to stay compatible with existing live-vlm-webui deployments.
type Config struct {
	Core struct {
		// KeepEvents is the maximum number of analysis events kept in the journal.
		// Older events are pruned periodically. A value of 0 disables pruning.
		KeepEvents int `yaml:"keep_events" validate:"min=0"`
		// PruneInterval is the delay between two journal pruning runs.
		PruneInterval time.Duration `yaml:"prune_interval"`
	} `yaml:"core"`

	Advanced struct {
		// LogLevel sets the verbosity of the logger: trace, debug, info, warn or error.
		LogLevel string `yaml:"log_level"`
		// LogPretty enables human friendly colorless log output.
		LogPretty bool `yaml:"log_pretty"`
		// LogJson switches the log output to JSON format.
		LogJson bool `yaml:"log_json"`
	} `yaml:"advanced"`

	Database DatabaseConfig `yaml:"database"`

	Web WebConfig `yaml:"web"`

	Metrics MetricsConfig `yaml:"metrics"`

	Mail MailConfig `yaml:"mail"`

	Notifications NotificationsConfig `yaml:"notifications"`

	Webhook WebhookConfig `yaml:"-"`
}

func defaultConfig() *Config {
	cfg := &Config{}

	cfg.Core.KeepEvents = 10000
	cfg.Core.PruneInterval = 1 * time.Hour

	cfg.Advanced.LogLevel = "info"

	cfg.Database = DatabaseConfig{
		Type: DatabaseSQLite,
		DSN:  "data/relay.db",
	}

	cfg.Web = WebConfig{
		RequestLogging:   false,
		ListeningAddress: ":8787",
	}

	cfg.Metrics = MetricsConfig{
		Enabled:          true,
		ListeningAddress: ":8788",
		PingChecks:       false,
		PingInterval:     1 * time.Minute,
	}

	cfg.Mail = MailConfig{
		Host:           "127.0.0.1",
		Port:           25,
		Encryption:     MailEncryptionNone,
		CertValidation: true,
		AuthType:       MailAuthPlain,
		From:           "VLM Relay <relay@vlm.local>",
	}

	cfg.Notifications = NotificationsConfig{
		Cooldown: 5 * time.Minute,
	}

	return cfg
}

// GetConfig returns the configuration, assembled from defaults, the optional
// YAML config file and the LIVE_VLM_WEBHOOK_* environment variables.
func GetConfig() (*Config, error) {
	cfg := defaultConfig()

	cfgFileName := "config.yml"
	if envCfgFileName := os.Getenv("LIVE_VLM_RELAY_CONFIG"); envCfgFileName != "" {
		cfgFileName = envCfgFileName
	}

	if err := loadConfigFile(cfg, cfgFileName); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			slog.Warn("config file not found, using default values", "file", cfgFileName)
		} else {
			return nil, fmt.Errorf("failed to load config from yaml: %w", err)
		}
	}

	cfg.Web.Sanitize()

	cfg.Webhook = LoadWebhookConfig(nil, nil)

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadConfigFile reads the YAML file into cfg. Environment variable references
// like ${DB_PASSWORD} are expanded before the file is parsed.
func loadConfigFile(cfg any, filename string) error {
	data, err := envsubst.ReadFile(filename)
	if err != nil {
		return err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return err
	}

	return nil
}
