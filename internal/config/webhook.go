package config

import (
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
)

// WebhookMode selects which analysis kinds are forwarded to the receiver.
type WebhookMode string

const (
	WebhookModeSingle WebhookMode = "single"
	WebhookModeMulti  WebhookMode = "multi"
	WebhookModeBoth   WebhookMode = "both"
)

const (
	defaultWebhookTimeout     = 2 * time.Second
	defaultWebhookSampleEvery = 1
	defaultWebhookMaxAttempts = 3
)

// WebhookConfig contains the configuration for the webhook forwarder.
// It is populated exclusively from LIVE_VLM_WEBHOOK_* environment variables so
// that the relay can be dropped into existing live-vlm-webui deployments
// without touching their config files.
type WebhookConfig struct {
	// Enabled toggles webhook forwarding. Forwarding stays disabled if Url is empty.
	Enabled bool
	// Url is the receiver endpoint that analysis events are POSTed to.
	// If empty, no webhook will be sent.
	Url string
	// Authentication is the authorization header for the webhook request.
	// It can either be a Bearer token or a Basic auth string.
	Authentication string
	// Secret is the key used to sign request bodies with HMAC SHA-256.
	// If empty, requests are not signed.
	Secret string
	// Timeout is the timeout for a single webhook request.
	Timeout time.Duration
	// Mode limits forwarding to single-stream events, multi-stream events or both.
	Mode WebhookMode
	// SampleEvery forwards only every n-th event per stream and kind.
	SampleEvery int
	// IncludeMetrics adds pipeline metrics to the webhook payload.
	IncludeMetrics bool
	// Filter is an optional boolean expression that an event must satisfy to be
	// forwarded, for example: alert == true && stream startsWith "cam".
	Filter string
	// MaxAttempts is the total number of delivery attempts per event, including retries.
	MaxAttempts int
}

// EnvLookup resolves an environment variable. It has the same contract as os.LookupEnv.
type EnvLookup func(key string) (string, bool)

// LoadWebhookConfig reads the webhook settings from LIVE_VLM_WEBHOOK_* environment
// variables. Invalid values are logged as warnings and replaced by their defaults,
// the function never fails. A nil lookup falls back to os.LookupEnv, a nil logger
// to slog.Default.
func LoadWebhookConfig(lookup EnvLookup, log *slog.Logger) WebhookConfig {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if log == nil {
		log = slog.Default()
	}

	cfg := WebhookConfig{
		Enabled:        false,
		Url:            "",
		Timeout:        defaultWebhookTimeout,
		Mode:           WebhookModeBoth,
		SampleEvery:    defaultWebhookSampleEvery,
		IncludeMetrics: true,
		MaxAttempts:    defaultWebhookMaxAttempts,
	}

	cfg.Enabled = envBool(lookup, "LIVE_VLM_WEBHOOK_ENABLED", cfg.Enabled)
	cfg.IncludeMetrics = envBool(lookup, "LIVE_VLM_WEBHOOK_INCLUDE_METRICS", cfg.IncludeMetrics)

	cfg.Url, _ = envString(lookup, "LIVE_VLM_WEBHOOK_URL")
	cfg.Authentication, _ = envString(lookup, "LIVE_VLM_WEBHOOK_AUTH")
	cfg.Secret, _ = envString(lookup, "LIVE_VLM_WEBHOOK_SECRET")
	cfg.Filter, _ = envString(lookup, "LIVE_VLM_WEBHOOK_FILTER")

	if raw, ok := lookup("LIVE_VLM_WEBHOOK_TIMEOUT_SEC"); ok {
		seconds, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil || math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds <= 0 {
			log.Warn("invalid LIVE_VLM_WEBHOOK_TIMEOUT_SEC, using default",
				"value", raw, "default", defaultWebhookTimeout)
		} else {
			cfg.Timeout = time.Duration(seconds * float64(time.Second))
		}
	}

	if raw, ok := lookup("LIVE_VLM_WEBHOOK_SAMPLE_EVERY"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil || n < 1 {
			log.Warn("invalid LIVE_VLM_WEBHOOK_SAMPLE_EVERY, using default",
				"value", raw, "default", defaultWebhookSampleEvery)
		} else {
			cfg.SampleEvery = n
		}
	}

	if value, ok := envString(lookup, "LIVE_VLM_WEBHOOK_MODE"); ok {
		switch mode := WebhookMode(strings.ToLower(value)); mode {
		case WebhookModeSingle, WebhookModeMulti, WebhookModeBoth:
			cfg.Mode = mode
		default:
			log.Warn("invalid LIVE_VLM_WEBHOOK_MODE, using default",
				"value", string(mode), "default", WebhookModeBoth)
		}
	}

	if raw, ok := lookup("LIVE_VLM_WEBHOOK_MAX_ATTEMPTS"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil || n < 1 {
			log.Warn("invalid LIVE_VLM_WEBHOOK_MAX_ATTEMPTS, using default",
				"value", raw, "default", defaultWebhookMaxAttempts)
		} else {
			cfg.MaxAttempts = n
		}
	}

	// If forwarding is enabled but no receiver is configured, disable it so the
	// relay keeps running with the pre-webhook behavior.
	if cfg.Enabled && cfg.Url == "" {
		log.Warn("LIVE_VLM_WEBHOOK_ENABLED is true but LIVE_VLM_WEBHOOK_URL is empty")
		cfg.Enabled = false
	}

	return cfg
}

// envString returns the trimmed value of the given environment variable.
// The second return value is false if the variable is unset or blank.
func envString(lookup EnvLookup, key string) (string, bool) {
	raw, ok := lookup(key)
	if !ok {
		return "", false
	}
	value := strings.TrimSpace(raw)
	if value == "" {
		return "", false
	}

	return value, true
}

// envBool interprets 1, true, yes and on (case-insensitive) as true. Any other
// non-empty value is false. The default is only used if the variable is unset.
func envBool(lookup EnvLookup, key string, dflt bool) bool {
	raw, ok := lookup(key)
	if !ok {
		return dflt
	}

	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
