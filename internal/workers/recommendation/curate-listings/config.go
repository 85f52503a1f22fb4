// internal/workers/recommendation/curate-listings/config.go
package curatelistings

import (
	"time"

	"food-recommender/internal/ranking"
)

type Config struct {
	Timeout       time.Duration
	RankingScheme string
	// MaxResults caps the output when a job sets no limit. 0 keeps everything.
	MaxResults int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:       30 * time.Second,
		RankingScheme: ranking.SchemePriceSensitive,
	}
}
