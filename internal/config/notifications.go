package config

import "time"

// NotificationsConfig controls alert notifications that are sent by mail.
type NotificationsConfig struct {
	// MailTo is the list of recipients for alert notification mails.
	// If empty, no mails are sent.
	MailTo []string `yaml:"mail_to"`
	// Cooldown is the minimum delay between two alert mails for the same stream.
	// It avoids flooding recipients while a stream keeps alerting.
	Cooldown time.Duration `yaml:"cooldown"`
}
