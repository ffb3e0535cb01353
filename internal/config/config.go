package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/williampepple1/dspace-site-finder/internal/logger"
)

// AppConfig holds the complete application configuration
type AppConfig struct {
	Fetcher   FetcherConfig   `yaml:"fetcher"`
	IO        IOConfig        `yaml:"io"`
	Discovery DiscoveryConfig `yaml:"discovery"`
	Geo       GeoConfig       `yaml:"geo"`
	Proxies   ProxyConfig     `yaml:"proxies"`
	Browser   BrowserConfig   `yaml:"browser"`
	Logging   logger.Config   `yaml:"logging"`
}

// FetcherConfig holds the site probing configuration
type FetcherConfig struct {
	MaxRedirects       int           `yaml:"max_redirects"        env:"SITEFINDER_MAX_REDIRECTS"`
	Timeout            time.Duration `yaml:"timeout"              env:"SITEFINDER_TIMEOUT"`
	InsecureSkipVerify bool          `yaml:"insecure_skip_verify" env:"SITEFINDER_INSECURE_SKIP_VERIFY"`
	UserAgents         []string      `yaml:"user_agents,omitempty"`
}

// IOConfig holds the input/output table configuration.
// URLColumn < 0 selects the second column when a row has two or more
// columns, else the first.
type IOConfig struct {
	InputFile        string `yaml:"input_file"`
	OutputFile       string `yaml:"output_file"`
	URLColumn        int    `yaml:"url_column"        env:"SITEFINDER_URL_COLUMN"`
	FallbackEncoding string `yaml:"fallback_encoding" env:"SITEFINDER_FALLBACK_ENCODING"`
}

// DiscoveryConfig holds the candidate discovery configuration.
// Sources enables or disables each registry by name.
type DiscoveryConfig struct {
	Sources          map[string]bool `yaml:"sources"`
	OpenDOARURL      string          `yaml:"opendoar_url"       env:"SITEFINDER_OPENDOAR_URL"`
	ROARURL          string          `yaml:"roar_url"           env:"SITEFINDER_ROAR_URL"`
	ROARSets         []string        `yaml:"roar_sets"`
	GoogleURL        string          `yaml:"google_url"         env:"SITEFINDER_GOOGLE_URL"`
	GooglePause      time.Duration   `yaml:"google_pause"       env:"SITEFINDER_GOOGLE_PAUSE"`
	GoogleMaxResults int             `yaml:"google_max_results"`
	GooglePageSize   int             `yaml:"google_page_size"`
}

// GeoConfig holds the country lookup configuration
type GeoConfig struct {
	Endpoint string        `yaml:"endpoint" env:"SITEFINDER_GEO_ENDPOINT"`
	Timeout  time.Duration `yaml:"timeout"`
}

// ProxyConfig holds the proxy configuration
type ProxyConfig struct {
	Enabled bool     `yaml:"enabled" env:"SITEFINDER_PROXY_ENABLED"`
	Rotate  bool     `yaml:"rotate"`
	List    []string `yaml:"list"    env:"SITEFINDER_PROXY_LIST"`
	Auth    struct {
		Username string `yaml:"username" env:"SITEFINDER_PROXY_USERNAME"`
		Password string `yaml:"password" env:"SITEFINDER_PROXY_PASSWORD"`
	} `yaml:"auth"`
}

// BrowserConfig holds the headless browser configuration used to render
// search result pages
type BrowserConfig struct {
	Enabled   bool          `yaml:"enabled"  env:"SITEFINDER_BROWSER_ENABLED"`
	Headless  bool          `yaml:"headless"`
	UserAgent string        `yaml:"user_agent"`
	WaitTime  time.Duration `yaml:"wait_time"`
}

// Load loads the configuration from a YAML file on top of the defaults,
// then applies environment overrides (including those from .env files).
func Load(filename string) (*AppConfig, error) {
	config := CreateDefault()

	if filename != "" {
		data, err := os.ReadFile(filename)
		if err != nil {
			return nil, fmt.Errorf("read config file %s: %w", filename, err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", filename, err)
		}
	}

	if err := loadEnvFiles(); err != nil {
		return nil, err
	}
	applyEnvOverrides(config)

	if len(config.Fetcher.UserAgents) == 0 {
		config.Fetcher.UserAgents = DefaultUserAgents
	}

	return config, config.Validate()
}

// Validate rejects settings the pipeline cannot run with
func (c *AppConfig) Validate() error {
	if c.Fetcher.MaxRedirects < 0 {
		return fmt.Errorf("%w: fetcher.max_redirects must be >= 0, got %d", ErrInvalidConfig, c.Fetcher.MaxRedirects)
	}
	if c.Fetcher.Timeout <= 0 {
		return fmt.Errorf("%w: fetcher.timeout must be positive", ErrInvalidConfig)
	}
	if c.Discovery.GooglePageSize <= 0 {
		return fmt.Errorf("%w: discovery.google_page_size must be positive", ErrInvalidConfig)
	}
	return nil
}

// SourceEnabled reports whether the named discovery source is switched on.
// Sources missing from the map are enabled.
func (d DiscoveryConfig) SourceEnabled(name string) bool {
	enabled, ok := d.Sources[name]
	return !ok || enabled
}

// CreateDefault creates a default configuration
func CreateDefault() *AppConfig {
	return &AppConfig{
		Fetcher: FetcherConfig{
			MaxRedirects:       DefaultMaxRedirects,
			Timeout:            DefaultTimeout,
			InsecureSkipVerify: true,
			UserAgents:         DefaultUserAgents,
		},
		IO: IOConfig{
			URLColumn:        -1,
			FallbackEncoding: DefaultFallbackEncoding,
		},
		Discovery: DiscoveryConfig{
			Sources: map[string]bool{
				SourceOpenDOAR: true,
				SourceROAR:     true,
			},
			OpenDOARURL:      "http://www.opendoar.org/api.php",
			ROARURL:          "http://roar.eprints.org/cgi/oai2",
			ROARSets:         DefaultROARSets,
			GoogleURL:        "http://www.google.com/search",
			GooglePause:      2 * time.Second,
			GoogleMaxResults: 1000,
			GooglePageSize:   100,
		},
		Geo: GeoConfig{
			Endpoint: "http://freegeoip.net/xml/",
			Timeout:  DefaultTimeout,
		},
		Proxies: ProxyConfig{
			Rotate: true,
			List:   []string{},
		},
		Browser: BrowserConfig{
			Headless:  true,
			UserAgent: DefaultUserAgents[0],
			WaitTime:  3 * time.Second,
		},
		Logging: logger.Config{
			Level:    "info",
			Encoding: "console",
		},
	}
}

// loadEnvFiles loads ENV_FILE if set, else .env.local and .env when present.
func loadEnvFiles() error {
	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("load env file %s: %w", envFile, err)
		}
		return nil
	}

	for _, name := range []string{".env.local", ".env"} {
		if _, err := os.Stat(name); err != nil {
			continue
		}
		if err := godotenv.Load(name); err != nil {
			return fmt.Errorf("load %s: %w", name, err)
		}
	}
	return nil
}
