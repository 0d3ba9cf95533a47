// internal/workers/underwriting/derive-features/config.go
package derivefeatures

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}
