package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all traveld configuration.
type Config struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// HTTP server
	Server ServerConfig `yaml:"server"`

	// Scraping behavior shared by the flight and hotel searchers
	Scraper ScraperConfig `yaml:"scraper"`

	// Headless Chromium
	Browser BrowserConfig `yaml:"browser"`

	// Search result cache
	Cache CacheConfig `yaml:"cache"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr              string `yaml:"addr"`
	ReadHeaderTimeout string `yaml:"read_header_timeout"`
	ShutdownTimeout   string `yaml:"shutdown_timeout"`
}

// ScraperConfig configures page fetching.
type ScraperConfig struct {
	UserAgent   string `yaml:"user_agent"`
	HTTPTimeout string `yaml:"http_timeout"`
	// Maximum response body read per fetch, in bytes.
	MaxBodyBytes int64 `yaml:"max_body_bytes"`
	// Fetch modes the trip planner uses for its legs.
	FlightFetchMode string `yaml:"flight_fetch_mode"`
	HotelFetchMode  string `yaml:"hotel_fetch_mode"`
	// Domains (and their subdomains) no fetcher may contact.
	BlockedDomains []string `yaml:"blocked_domains"`
}

// BrowserConfig configures the shared Chromium instance.
type BrowserConfig struct {
	// Connect to a running Chrome instead of launching one.
	DebuggerURL string `yaml:"debugger_url"`
	// Binary plus extra flags; empty means rod's managed download.
	Launch            []string `yaml:"launch"`
	Headless          bool     `yaml:"headless"`
	ViewportWidth     int      `yaml:"viewport_width"`
	ViewportHeight    int      `yaml:"viewport_height"`
	NavigationTimeout string   `yaml:"navigation_timeout"`
	// Concurrent page bound.
	MaxPages int `yaml:"max_pages"`
}

// CacheConfig configures the SQLite search cache.
type CacheConfig struct {
	Enabled      bool   `yaml:"enabled"`
	DatabasePath string `yaml:"database_path"`
	TTL          string `yaml:"ttl"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "traveld",
		Version: "1.0.0",

		Server: ServerConfig{
			Addr:              ":5000",
			ReadHeaderTimeout: "5s",
			ShutdownTimeout:   "15s",
		},

		Scraper: ScraperConfig{
			UserAgent:       "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0 Safari/537.36",
			HTTPTimeout:     "30s",
			MaxBodyBytes:    4 << 20,
			FlightFetchMode: "local",
			HotelFetchMode:  "live",
		},

		Browser: BrowserConfig{
			Headless:          true,
			ViewportWidth:     1920,
			ViewportHeight:    1080,
			NavigationTimeout: "30s",
			MaxPages:          4,
		},

		Cache: CacheConfig{
			Enabled:      true,
			DatabasePath: "data/traveld.db",
			TTL:          "10m",
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load loads configuration from a YAML file.
// A missing file is not an error; defaults apply.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
// Env always wins over file values.
func (c *Config) applyEnvOverrides() {
	if addr := os.Getenv("TRAVELD_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
	if db := os.Getenv("TRAVELD_DB"); db != "" {
		c.Cache.DatabasePath = db
	}
	if bin := os.Getenv("TRAVELD_CHROME_BIN"); bin != "" {
		c.Browser.Launch = []string{bin}
	}
	if url := os.Getenv("TRAVELD_DEBUGGER_URL"); url != "" {
		c.Browser.DebuggerURL = url
	}
	if lvl := os.Getenv("TRAVELD_LOG_LEVEL"); lvl != "" {
		c.Logging.Level = lvl
	}
}

// Validate checks the constraints YAML parsing cannot.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Server.ReadHeaderTimeout != "" {
		if _, err := time.ParseDuration(c.Server.ReadHeaderTimeout); err != nil {
			return fmt.Errorf("server.read_header_timeout: %w", err)
		}
	}
	if _, err := time.ParseDuration(c.Scraper.HTTPTimeout); err != nil {
		return fmt.Errorf("scraper.http_timeout: %w", err)
	}
	if _, err := time.ParseDuration(c.Browser.NavigationTimeout); err != nil {
		return fmt.Errorf("browser.navigation_timeout: %w", err)
	}
	if c.Cache.Enabled {
		if _, err := time.ParseDuration(c.Cache.TTL); err != nil {
			return fmt.Errorf("cache.ttl: %w", err)
		}
	}
	return nil
}

// ReadHeaderTimeoutDuration returns the parsed timeout, defaulting on error.
func (s ServerConfig) ReadHeaderTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(s.ReadHeaderTimeout)
	if err != nil || d <= 0 {
		return 5 * time.Second
	}
	return d
}

// ShutdownTimeoutDuration returns the parsed shutdown grace period.
func (s ServerConfig) ShutdownTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(s.ShutdownTimeout)
	if err != nil || d <= 0 {
		return 15 * time.Second
	}
	return d
}

// HTTPTimeoutDuration returns the parsed fetch timeout.
func (s ScraperConfig) HTTPTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(s.HTTPTimeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// NavigationTimeoutDuration returns the parsed navigation timeout.
func (b BrowserConfig) NavigationTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(b.NavigationTimeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// TTLDuration returns the parsed cache TTL.
func (c CacheConfig) TTLDuration() time.Duration {
	d, err := time.ParseDuration(c.TTL)
	if err != nil || d <= 0 {
		return 10 * time.Minute
	}
	return d
}
