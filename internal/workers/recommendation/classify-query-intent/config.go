// internal/workers/recommendation/classify-query-intent/config.go
package classifyqueryintent

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}
