// internal/workers/underwriting/index-match-results/config.go
package indexmatchresults

import "time"

type Config struct {
	IndexName string
	Timeout   time.Duration
}

func LoadConfig() *Config {
	return &Config{
		IndexName: "match-results",
		Timeout:   15 * time.Second,
	}
}
