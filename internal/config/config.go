package config

import (
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sydlexius/discresolve/internal/logging"
)

// Search backends.
const (
	BackendSerpAPI    = "serpapi"
	BackendDuckDuckGo = "duckduckgo"
)

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig   `yaml:"server"`
	Search  SearchConfig   `yaml:"search"`
	Catalog CatalogConfig  `yaml:"catalog"`
	Logging logging.Config `yaml:"logging"`
	Metrics MetricsConfig  `yaml:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port     int    `yaml:"port"`
	BasePath string `yaml:"base_path"`

	// Resolve requests per minute per client IP; 0 disables the limit.
	RateLimitPerMinute int `yaml:"rate_limit_per_minute"`

	// TrustedProxies lists the addresses or CIDR ranges of reverse proxies
	// whose X-Forwarded-For and X-Real-Ip headers name the client. Requests
	// from anywhere else are keyed on the connection address.
	TrustedProxies []string `yaml:"trusted_proxies"`
}

// TrustedProxyPrefixes parses TrustedProxies. A bare address is a single
// host prefix.
func (s ServerConfig) TrustedProxyPrefixes() ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(s.TrustedProxies))
	for _, raw := range s.TrustedProxies {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if strings.Contains(raw, "/") {
			p, err := netip.ParsePrefix(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid trusted proxy %q: %w", raw, err)
			}
			prefixes = append(prefixes, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q: %w", raw, err)
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}

// SearchConfig selects and configures the web search provider.
type SearchConfig struct {
	Backend string `yaml:"backend"`
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Engine  string `yaml:"engine"`
}

// CatalogConfig holds the Discogs settings. The token is optional.
type CatalogConfig struct {
	Token   string `yaml:"token"`
	BaseURL string `yaml:"base_url"`
	Domain  string `yaml:"domain"`
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:               8080,
			BasePath:           "/",
			RateLimitPerMinute: 30,
		},
		Search: SearchConfig{
			Backend: BackendSerpAPI,
			Engine:  "google",
		},
		Catalog: CatalogConfig{
			Domain: "discogs.com",
		},
		Logging: logging.DefaultConfig(),
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Load reads config from a YAML file (if it exists) and overrides with
// environment variables. Environment variables take precedence.
//
// A missing search API key is not an error here; each resolution reports
// it instead.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFromFile(path); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	cfg.loadFromEnv()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func (c *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return yaml.Unmarshal(data, c)
}

func (c *Config) loadFromEnv() {
	if v := os.Getenv("DR_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("DR_BASE_PATH"); v != "" {
		c.Server.BasePath = v
	}
	if v := os.Getenv("DR_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Server.RateLimitPerMinute = n
		}
	}
	if v := os.Getenv("DR_TRUSTED_PROXIES"); v != "" {
		c.Server.TrustedProxies = strings.Split(v, ",")
	}
	if v := os.Getenv("DR_SEARCH_BACKEND"); v != "" {
		c.Search.Backend = v
	}
	if v := firstEnv("DR_SEARCH_API_KEY", "SERPAPI_API_KEY"); v != "" {
		c.Search.APIKey = v
	}
	if v := os.Getenv("DR_SEARCH_BASE_URL"); v != "" {
		c.Search.BaseURL = v
	}
	if v := firstEnv("DR_DISCOGS_TOKEN", "DISCOGS_TOKEN"); v != "" {
		c.Catalog.Token = v
	}
	if v := os.Getenv("DR_DISCOGS_BASE_URL"); v != "" {
		c.Catalog.BaseURL = v
	}
	if v := os.Getenv("DR_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("DR_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv("DR_LOG_FILE"); v != "" {
		c.Logging.FilePath = v
	}
	if v := os.Getenv("DR_METRICS_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			c.Metrics.Enabled = enabled
		}
	}
}

// firstEnv returns the value of the first set variable among keys.
func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if c.Server.RateLimitPerMinute < 0 {
		return fmt.Errorf("invalid rate limit: %d", c.Server.RateLimitPerMinute)
	}
	if _, err := c.Server.TrustedProxyPrefixes(); err != nil {
		return err
	}
	c.Search.Backend = strings.ToLower(strings.TrimSpace(c.Search.Backend))
	switch c.Search.Backend {
	case BackendSerpAPI, BackendDuckDuckGo:
	default:
		return fmt.Errorf("unknown search backend %q", c.Search.Backend)
	}
	if strings.TrimSpace(c.Catalog.Domain) == "" {
		return fmt.Errorf("catalog domain is required")
	}
	if err := c.Logging.Validate(); err != nil {
		return err
	}
	c.Server.BasePath = strings.TrimRight(c.Server.BasePath, "/")
	return nil
}
