// internal/common/config/config.go
package config

import "fmt"

type Config struct {
	App            AppConfig               `mapstructure:"app"`
	Server         ServerConfig            `mapstructure:"server"`
	Camunda        CamundaConfig           `mapstructure:"camunda"`
	Database       DatabaseConfig          `mapstructure:"database"`
	Workers        map[string]WorkerConfig `mapstructure:"workers"`
	Recommendation RecommendationConfig    `mapstructure:"recommendation"`
	Profile        ProfileConfig           `mapstructure:"profile"`
	Platforms      []PlatformConfig        `mapstructure:"platforms"`
	Logging        LoggingConfig           `mapstructure:"logging"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"` // health and metrics listener
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	URL       string   `mapstructure:"url"` // single address shorthand
}

func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

// Enabled reports whether any Elasticsearch address is configured.
func (e ElasticsearchConfig) Enabled() bool {
	return e.GetURL() != ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

type RecommendationConfig struct {
	RankingScheme   string `mapstructure:"ranking_scheme"`   // price_sensitive | brand_weighted
	ProviderTimeout int    `mapstructure:"provider_timeout"` // milliseconds, per platform call
	CacheTTL        int    `mapstructure:"cache_ttl"`        // seconds
	MaxResults      int    `mapstructure:"max_results"`      // 0 keeps every ranked listing
}

type ProfileConfig struct {
	CacheTTL int `mapstructure:"cache_ttl"` // seconds
}

// Platform provider types.
const (
	PlatformHTML    = "html"
	PlatformJSON    = "json"
	PlatformCatalog = "catalog"
	PlatformFixture = "fixture"
)

// PlatformConfig declares one retrieval platform. Platforms are queried in list order.
type PlatformConfig struct {
	Name     string `mapstructure:"name"`
	Type     string `mapstructure:"type"`
	Disabled bool   `mapstructure:"disabled"`
	MaxItems int    `mapstructure:"max_items"`

	// html and json
	SearchURL string            `mapstructure:"search_url"`
	Headers   map[string]string `mapstructure:"headers"`
	UserAgent string            `mapstructure:"user_agent"`
	Timeout   int               `mapstructure:"timeout"` // milliseconds, HTTP or browser

	// html
	Selectors         SelectorConfig `mapstructure:"selectors"`
	Render            bool           `mapstructure:"render"` // headless browser instead of plain GET
	WaitSelector      string         `mapstructure:"wait_selector"`
	Settle            int            `mapstructure:"settle"` // milliseconds to wait after wait_selector is ready
	BrowserPath       string         `mapstructure:"browser_path"`
	RequestsPerSecond float64        `mapstructure:"requests_per_second"`
	Burst             int            `mapstructure:"burst"`

	// catalog
	Index string `mapstructure:"index"`

	// fixture
	FixturePath string `mapstructure:"fixture_path"`

	Cache   bool          `mapstructure:"cache"`
	Breaker BreakerConfig `mapstructure:"breaker"`
}

type SelectorConfig struct {
	Item        string `mapstructure:"item"`
	Name        string `mapstructure:"name"`
	Source      string `mapstructure:"source"`
	Price       string `mapstructure:"price"`
	Rating      string `mapstructure:"rating"`
	Reviews     string `mapstructure:"reviews"`
	Distance    string `mapstructure:"distance"`
	Cuisine     string `mapstructure:"cuisine"`
	Tags        string `mapstructure:"tags"`
	Description string `mapstructure:"description"`
	Image       string `mapstructure:"image"`
	Link        string `mapstructure:"link"`
}

type BreakerConfig struct {
	Enabled      bool    `mapstructure:"enabled"`
	MinRequests  uint32  `mapstructure:"min_requests"`
	FailureRatio float64 `mapstructure:"failure_ratio"`
	OpenTimeout  int     `mapstructure:"open_timeout"` // milliseconds
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
