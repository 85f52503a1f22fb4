// internal/workers/recommendation/recommend-listings/config.go
package recommendlistings

import "time"

type Config struct {
	Timeout time.Duration
	// EnrichQuery is used when a job does not set enrichQuery itself.
	EnrichQuery bool
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 30 * time.Second,
	}
}
