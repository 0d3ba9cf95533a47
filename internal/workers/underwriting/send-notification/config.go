// internal/workers/underwriting/send-notification/config.go
package sendnotification

import "time"

type Config struct {
	EmailEnabled bool
	FromEmail    string

	SMSEnabled bool
	// SMSFitThreshold is the minimum best-match fit score that justifies an
	// SMS on top of the email. Matched applications below it stay email-only.
	SMSFitThreshold float64

	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		EmailEnabled:    true,
		FromEmail:       "underwriting@example.com",
		SMSEnabled:      false,
		SMSFitThreshold: 80.0,
		Timeout:         10 * time.Second,
	}
}
