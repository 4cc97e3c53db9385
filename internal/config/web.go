package config

import "strings"

// WebConfig contains the configuration for the management API server.
type WebConfig struct {
	// RequestLogging enables logging of all HTTP requests.
	RequestLogging bool `yaml:"request_logging"`
	// ExternalUrl is the URL where a client can reach the relay API.
	// It is used to build links in notification mails.
	ExternalUrl string `yaml:"external_url"`
	// ListeningAddress is the address and port for the management API server.
	ListeningAddress string `yaml:"listening_address" validate:"required"`
	// ApiToken protects the management API with a bearer token.
	// If empty, the API can be used without authentication.
	ApiToken string `yaml:"api_token"`
	// CertFile is the path to the TLS certificate file.
	CertFile string `yaml:"cert_file"`
	// KeyFile is the path to the TLS certificate key file.
	KeyFile string `yaml:"key_file"`
}

func (c *WebConfig) Sanitize() {
	c.ExternalUrl = strings.TrimRight(c.ExternalUrl, "/")
}
