// internal/workers/underwriting/finalize-results/config.go
package finalizeresults

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}
