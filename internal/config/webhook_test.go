package config

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// mapLookup returns an EnvLookup backed by the given map.
func mapLookup(env map[string]string) EnvLookup {
	return func(key string) (string, bool) {
		value, ok := env[key]
		return value, ok
	}
}

// recordingHandler collects all log records so tests can assert on warnings.
type recordingHandler struct {
	records *[]slog.Record
}

func (h recordingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h recordingHandler) Handle(_ context.Context, r slog.Record) error {
	*h.records = append(*h.records, r)
	return nil
}

func (h recordingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }

func (h recordingHandler) WithGroup(string) slog.Handler { return h }

func recordingLogger() (*slog.Logger, *[]slog.Record) {
	records := &[]slog.Record{}
	return slog.New(recordingHandler{records: records}), records
}

func warningsMentioning(records []slog.Record, substr string) int {
	count := 0
	for _, r := range records {
		if r.Level == slog.LevelWarn && strings.Contains(r.Message, substr) {
			count++
		}
	}
	return count
}

func TestLoadWebhookConfig_Defaults(t *testing.T) {
	log, records := recordingLogger()

	cfg := LoadWebhookConfig(mapLookup(nil), log)

	assert.False(t, cfg.Enabled)
	assert.Empty(t, cfg.Url)
	assert.Empty(t, cfg.Authentication)
	assert.Empty(t, cfg.Secret)
	assert.Empty(t, cfg.Filter)
	assert.Equal(t, 2*time.Second, cfg.Timeout)
	assert.Equal(t, WebhookModeBoth, cfg.Mode)
	assert.Equal(t, 1, cfg.SampleEvery)
	assert.True(t, cfg.IncludeMetrics)
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Empty(t, *records, "defaults must load without warnings")
}

func TestLoadWebhookConfig_BooleanTokens(t *testing.T) {
	truthy := []string{"1", "true", "yes", "on", "TRUE", "Yes", " on "}
	for _, value := range truthy {
		log, _ := recordingLogger()
		cfg := LoadWebhookConfig(mapLookup(map[string]string{
			"LIVE_VLM_WEBHOOK_ENABLED": value,
			"LIVE_VLM_WEBHOOK_URL":     "https://receiver.example.com/hook",
		}), log)
		assert.True(t, cfg.Enabled, "%q should enable the webhook", value)
	}

	falsy := []string{"0", "false", "off", "no", "", "enabled", "2"}
	for _, value := range falsy {
		log, _ := recordingLogger()
		cfg := LoadWebhookConfig(mapLookup(map[string]string{
			"LIVE_VLM_WEBHOOK_ENABLED": value,
			"LIVE_VLM_WEBHOOK_URL":     "https://receiver.example.com/hook",
		}), log)
		assert.False(t, cfg.Enabled, "%q should not enable the webhook", value)
	}
}

func TestLoadWebhookConfig_UrlTrimmed(t *testing.T) {
	log, records := recordingLogger()

	cfg := LoadWebhookConfig(mapLookup(map[string]string{
		"LIVE_VLM_WEBHOOK_URL": "  https://receiver.example.com/hook  ",
	}), log)

	assert.Equal(t, "https://receiver.example.com/hook", cfg.Url)
	assert.Empty(t, *records)
}

func TestLoadWebhookConfig_Timeout(t *testing.T) {
	log, records := recordingLogger()
	cfg := LoadWebhookConfig(mapLookup(map[string]string{
		"LIVE_VLM_WEBHOOK_TIMEOUT_SEC": "5.5",
	}), log)
	assert.Equal(t, 5500*time.Millisecond, cfg.Timeout)
	assert.Empty(t, *records)

	for _, invalid := range []string{"abc", "-1", "0", "", "nan"} {
		log, records := recordingLogger()
		cfg := LoadWebhookConfig(mapLookup(map[string]string{
			"LIVE_VLM_WEBHOOK_TIMEOUT_SEC": invalid,
		}), log)
		assert.Equal(t, 2*time.Second, cfg.Timeout, "%q should fall back to the default timeout", invalid)
		assert.Equal(t, 1, warningsMentioning(*records, "LIVE_VLM_WEBHOOK_TIMEOUT_SEC"))
	}
}

func TestLoadWebhookConfig_SampleEvery(t *testing.T) {
	log, records := recordingLogger()
	cfg := LoadWebhookConfig(mapLookup(map[string]string{
		"LIVE_VLM_WEBHOOK_SAMPLE_EVERY": "24",
	}), log)
	assert.Equal(t, 24, cfg.SampleEvery)
	assert.Empty(t, *records)

	for _, invalid := range []string{"0", "-3", "x", "1.5", ""} {
		log, records := recordingLogger()
		cfg := LoadWebhookConfig(mapLookup(map[string]string{
			"LIVE_VLM_WEBHOOK_SAMPLE_EVERY": invalid,
		}), log)
		assert.Equal(t, 1, cfg.SampleEvery, "%q should fall back to the default sampling rate", invalid)
		assert.Equal(t, 1, warningsMentioning(*records, "LIVE_VLM_WEBHOOK_SAMPLE_EVERY"))
	}
}

func TestLoadWebhookConfig_Mode(t *testing.T) {
	log, records := recordingLogger()
	cfg := LoadWebhookConfig(mapLookup(map[string]string{
		"LIVE_VLM_WEBHOOK_MODE": "  SINGLE  ",
	}), log)
	assert.Equal(t, WebhookModeSingle, cfg.Mode)
	assert.Empty(t, *records)

	log, records = recordingLogger()
	cfg = LoadWebhookConfig(mapLookup(map[string]string{
		"LIVE_VLM_WEBHOOK_MODE": "multi",
	}), log)
	assert.Equal(t, WebhookModeMulti, cfg.Mode)
	assert.Empty(t, *records)

	// a blank mode silently falls back to the default
	log, records = recordingLogger()
	cfg = LoadWebhookConfig(mapLookup(map[string]string{
		"LIVE_VLM_WEBHOOK_MODE": "   ",
	}), log)
	assert.Equal(t, WebhookModeBoth, cfg.Mode)
	assert.Empty(t, *records)

	log, records = recordingLogger()
	cfg = LoadWebhookConfig(mapLookup(map[string]string{
		"LIVE_VLM_WEBHOOK_MODE": "bogus",
	}), log)
	assert.Equal(t, WebhookModeBoth, cfg.Mode)
	assert.Equal(t, 1, warningsMentioning(*records, "LIVE_VLM_WEBHOOK_MODE"))
}

func TestLoadWebhookConfig_EnabledWithoutUrl(t *testing.T) {
	log, records := recordingLogger()

	cfg := LoadWebhookConfig(mapLookup(map[string]string{
		"LIVE_VLM_WEBHOOK_ENABLED": "true",
	}), log)

	assert.False(t, cfg.Enabled)
	assert.Equal(t, 1, warningsMentioning(*records, "LIVE_VLM_WEBHOOK_ENABLED"))
	assert.Equal(t, 1, warningsMentioning(*records, "LIVE_VLM_WEBHOOK_URL"))
}

func TestLoadWebhookConfig_IncludeMetricsDisabled(t *testing.T) {
	log, records := recordingLogger()

	cfg := LoadWebhookConfig(mapLookup(map[string]string{
		"LIVE_VLM_WEBHOOK_INCLUDE_METRICS": "0",
	}), log)

	assert.False(t, cfg.IncludeMetrics)
	assert.Empty(t, *records)
}

func TestLoadWebhookConfig_ReceiverExtras(t *testing.T) {
	log, records := recordingLogger()

	cfg := LoadWebhookConfig(mapLookup(map[string]string{
		"LIVE_VLM_WEBHOOK_ENABLED":      "yes",
		"LIVE_VLM_WEBHOOK_URL":          "https://receiver.example.com/hook",
		"LIVE_VLM_WEBHOOK_AUTH":         " Bearer secret-token ",
		"LIVE_VLM_WEBHOOK_SECRET":       "  signing-key  ",
		"LIVE_VLM_WEBHOOK_FILTER":       `alert == true`,
		"LIVE_VLM_WEBHOOK_MAX_ATTEMPTS": "5",
	}), log)

	assert.True(t, cfg.Enabled)
	assert.Equal(t, "Bearer secret-token", cfg.Authentication)
	assert.Equal(t, "signing-key", cfg.Secret)
	assert.Equal(t, `alert == true`, cfg.Filter)
	assert.Equal(t, 5, cfg.MaxAttempts)
	assert.Empty(t, *records)
}

func TestLoadWebhookConfig_MaxAttemptsInvalid(t *testing.T) {
	log, records := recordingLogger()

	cfg := LoadWebhookConfig(mapLookup(map[string]string{
		"LIVE_VLM_WEBHOOK_MAX_ATTEMPTS": "0",
	}), log)

	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, 1, warningsMentioning(*records, "LIVE_VLM_WEBHOOK_MAX_ATTEMPTS"))
}

func TestLoadWebhookConfig_NilFallbacks(t *testing.T) {
	t.Setenv("LIVE_VLM_WEBHOOK_ENABLED", "on")
	t.Setenv("LIVE_VLM_WEBHOOK_URL", "https://receiver.example.com/hook")

	cfg := LoadWebhookConfig(nil, nil)

	assert.True(t, cfg.Enabled)
	assert.Equal(t, "https://receiver.example.com/hook", cfg.Url)
}
