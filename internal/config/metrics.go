package config

import "time"

// MetricsConfig contains the configuration for the Prometheus endpoint.
type MetricsConfig struct {
	// Enabled switches the metrics server on or off.
	Enabled bool `yaml:"enabled"`
	// ListeningAddress is the address and port for the metrics server.
	ListeningAddress string `yaml:"listening_address" validate:"required_if=Enabled true"`
	// PingChecks enables periodic ICMP reachability probes for the webhook receiver host.
	PingChecks bool `yaml:"ping_checks"`
	// PingUnprivileged uses unprivileged UDP pings instead of raw ICMP sockets.
	PingUnprivileged bool `yaml:"ping_unprivileged"`
	// PingInterval is the delay between two reachability probes.
	PingInterval time.Duration `yaml:"ping_interval"`
}
