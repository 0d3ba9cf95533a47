// internal/workers/underwriting/evaluate-lenders/config.go
package evaluatelenders

import "time"

type Config struct {
	CacheTTL    time.Duration
	MaxParallel int
	Timeout     time.Duration
}

func LoadConfig() *Config {
	return &Config{
		CacheTTL:    5 * time.Minute,
		MaxParallel: 8,
		Timeout:     30 * time.Second,
	}
}
