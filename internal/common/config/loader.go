// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configs/config.yaml, merges configs/config.<APP_ENVIRONMENT>.yaml over it,
// applies environment overrides and defaults, and validates the result.
func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // environment file is optional

	return decode(v)
}

// LoadFromFile reads a single YAML file.
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env", // tests in test/e2e/
	}
	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// expandEnvVars resolves ${VAR} references in string values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			if expanded := os.ExpandEnv(strVal); expanded != strVal && expanded != "" {
				v.Set(key, expanded)
			}
		}
	}
}

func overrideEmptyConfig(cfg *Config) {
	if cfg.Database.Postgres.User == "" {
		if val := os.Getenv("DB_USER"); val != "" {
			cfg.Database.Postgres.User = val
		}
	}
	if cfg.Database.Postgres.Password == "" {
		if val := os.Getenv("DB_PASSWORD"); val != "" {
			cfg.Database.Postgres.Password = val
		}
	}
	if cfg.Database.Redis.Password == "" {
		if val := os.Getenv("REDIS_PASSWORD"); val != "" {
			cfg.Database.Redis.Password = val
		}
	}
	if val := os.Getenv("RANKING_SCHEME"); val != "" {
		cfg.Recommendation.RankingScheme = val
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}
	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 10
	}
	if cfg.Camunda.Timeout == 0 {
		cfg.Camunda.Timeout = 30000
	}
	if cfg.Camunda.RequestTimeout == 0 {
		cfg.Camunda.RequestTimeout = 30000
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Elasticsearch.URL == "" && len(cfg.Database.Elasticsearch.Addresses) > 0 {
		cfg.Database.Elasticsearch.URL = cfg.Database.Elasticsearch.Addresses[0]
	}

	if cfg.Recommendation.RankingScheme == "" {
		cfg.Recommendation.RankingScheme = "price_sensitive"
	}
	if cfg.Recommendation.ProviderTimeout == 0 {
		cfg.Recommendation.ProviderTimeout = 8000
	}
	if cfg.Recommendation.CacheTTL == 0 {
		cfg.Recommendation.CacheTTL = 3600
	}
	if cfg.Profile.CacheTTL == 0 {
		cfg.Profile.CacheTTL = 600
	}

	for i := range cfg.Platforms {
		p := &cfg.Platforms[i]
		p.Name = strings.ToLower(strings.TrimSpace(p.Name))
		p.Type = strings.ToLower(strings.TrimSpace(p.Type))
		if p.MaxItems == 0 {
			p.MaxItems = 10
		}
		if p.Timeout == 0 {
			p.Timeout = cfg.Recommendation.ProviderTimeout
		}
		if p.Breaker.MinRequests == 0 {
			p.Breaker.MinRequests = 5
		}
		if p.Breaker.FailureRatio == 0 {
			p.Breaker.FailureRatio = 0.6
		}
		if p.Breaker.OpenTimeout == 0 {
			p.Breaker.OpenTimeout = 30000
		}
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	for key, worker := range cfg.Workers {
		if worker.MaxJobsActive == 0 {
			worker.MaxJobsActive = 5
		}
		if worker.Timeout == 0 {
			worker.Timeout = 30000
		}
		if worker.MaxRetries == 0 {
			worker.MaxRetries = 3
		}
		cfg.Workers[key] = worker
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Camunda.BrokerAddress == "" {
		return fmt.Errorf("camunda.broker_address is required")
	}
	if cfg.Database.Postgres.Host == "" {
		return fmt.Errorf("database.postgres.host is required")
	}
	if cfg.Database.Postgres.Database == "" {
		return fmt.Errorf("database.postgres.database is required")
	}
	if cfg.Database.Postgres.User == "" {
		return fmt.Errorf("database.postgres.user is required")
	}
	if cfg.Database.Redis.Address == "" {
		return fmt.Errorf("database.redis.address is required")
	}

	switch cfg.Recommendation.RankingScheme {
	case "price_sensitive", "brand_weighted":
	default:
		return fmt.Errorf("recommendation.ranking_scheme %q is not supported", cfg.Recommendation.RankingScheme)
	}

	seen := make(map[string]bool, len(cfg.Platforms))
	for i, p := range cfg.Platforms {
		if p.Name == "" {
			return fmt.Errorf("platforms[%d].name is required", i)
		}
		if seen[p.Name] {
			return fmt.Errorf("platform %s is declared twice", p.Name)
		}
		seen[p.Name] = true

		switch p.Type {
		case PlatformHTML:
			if p.SearchURL == "" || p.Selectors.Item == "" || p.Selectors.Name == "" {
				return fmt.Errorf("platform %s: html needs search_url and item/name selectors", p.Name)
			}
		case PlatformJSON:
			if p.SearchURL == "" {
				return fmt.Errorf("platform %s: json needs search_url", p.Name)
			}
		case PlatformCatalog:
			if p.Index == "" {
				return fmt.Errorf("platform %s: catalog needs index", p.Name)
			}
			if !p.Disabled && !cfg.Database.Elasticsearch.Enabled() {
				return fmt.Errorf("platform %s: catalog needs database.elasticsearch", p.Name)
			}
		case PlatformFixture:
			if p.FixturePath == "" {
				return fmt.Errorf("platform %s: fixture needs fixture_path", p.Name)
			}
		default:
			return fmt.Errorf("platform %s: unknown type %q", p.Name, p.Type)
		}
	}
	return nil
}

func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

func GetWorkerConfig(cfg *Config, workerName string) WorkerConfig {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker
	}
	return WorkerConfig{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       30000,
		MaxRetries:    3,
	}
}

func IsWorkerEnabled(cfg *Config, workerName string) bool {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker.Enabled
	}
	return true
}

// EnabledPlatforms returns the platforms that are not disabled, in declaration order.
func (c *Config) EnabledPlatforms() []PlatformConfig {
	out := make([]PlatformConfig, 0, len(c.Platforms))
	for _, p := range c.Platforms {
		if !p.Disabled {
			out = append(out, p)
		}
	}
	return out
}
