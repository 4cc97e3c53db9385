package model

import (
	"github.com/livevlm/vlm-relay/internal/config"
)

// WebhookSettings is the effective webhook configuration of the relay.
// Secret values are redacted, only their presence is exposed.
type WebhookSettings struct {
	Enabled        bool    `json:"Enabled"`
	Url            string  `json:"Url"`
	TimeoutSeconds float64 `json:"TimeoutSeconds"`
	Mode           string  `json:"Mode"`
	SampleEvery    int     `json:"SampleEvery"`
	IncludeMetrics bool    `json:"IncludeMetrics"`
	Filter         string  `json:"Filter"`
	MaxAttempts    int     `json:"MaxAttempts"`
	HasSecret      bool    `json:"HasSecret"`
	HasAuthHeader  bool    `json:"HasAuthHeader"`
}

// NewWebhookSettings creates REST API WebhookSettings from the webhook configuration.
func NewWebhookSettings(src config.WebhookConfig) WebhookSettings {
	return WebhookSettings{
		Enabled:        src.Enabled,
		Url:            src.Url,
		TimeoutSeconds: src.Timeout.Seconds(),
		Mode:           string(src.Mode),
		SampleEvery:    src.SampleEvery,
		IncludeMetrics: src.IncludeMetrics,
		Filter:         src.Filter,
		MaxAttempts:    src.MaxAttempts,
		HasSecret:      src.Secret != "",
		HasAuthHeader:  src.Authentication != "",
	}
}
