package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	CMS      CMSConfig     `yaml:"cms"`
	Server   ServerConfig  `yaml:"server"`
	Listing  ListingConfig `yaml:"listing"`
	Cache    CacheConfig   `yaml:"cache"`
	Content  ContentConfig `yaml:"content"`
	LogLevel string        `yaml:"log_level"`
	// LogFormat is "console" or "json".
	LogFormat string `yaml:"log_format"`
}

type CMSConfig struct {
	ServiceDomain string        `yaml:"service_domain"`
	APIKey        string        `yaml:"api_key"`
	BaseURL       string        `yaml:"base_url"`
	Endpoint      string        `yaml:"endpoint"`
	PageSize      int           `yaml:"page_size"`
	Timeout       time.Duration `yaml:"timeout"`
	RateLimit     float64       `yaml:"rate_limit"`
	Burst         int           `yaml:"burst"`
}

type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	// StaticDir serves /static/ from disk instead of the embedded assets.
	StaticDir     string          `yaml:"static_dir"`
	SiteTitle     string          `yaml:"site_title"`
	SiteURL       string          `yaml:"site_url"`
	WebhookSecret string          `yaml:"webhook_secret"`
	RateLimit     RateLimitConfig `yaml:"rate_limit"`
	// TrustedProxies lists the IPs or CIDRs whose X-Forwarded-For header is
	// believed when keying the rate limiter.
	TrustedProxies []string `yaml:"trusted_proxies"`
}

type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type ListingConfig struct {
	TopPageSize   int           `yaml:"top_page_size"`
	BlogPageSize  int           `yaml:"blog_page_size"`
	LoadMoreDelay time.Duration `yaml:"load_more_delay"`
}

type CacheConfig struct {
	Enabled     bool          `yaml:"enabled"`
	RedisAddr   string        `yaml:"redis_addr"`
	BadgerPath  string        `yaml:"badger_path"`
	TTL         time.Duration `yaml:"ttl"`
	WarmOnPurge bool          `yaml:"warm_on_purge"`
}

type ContentConfig struct {
	Sanitize bool `yaml:"sanitize"`
}

// Load reads an optional YAML file (empty path skips it), applies
// environment overrides and defaults. It does not validate; call Validate.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}

		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.setDefaults()

	return &cfg, nil
}

func (c *Config) applyEnv() {
	setString := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	setString(&c.CMS.ServiceDomain, "MICROCMS_SERVICE_DOMAIN")
	setString(&c.CMS.APIKey, "MICROCMS_API_KEY")
	setString(&c.CMS.BaseURL, "MICROCMS_BASE_URL")
	setString(&c.Server.Addr, "BLOGFRONT_ADDR")
	setString(&c.Server.SiteURL, "BLOGFRONT_SITE_URL")
	setString(&c.Server.WebhookSecret, "MICROCMS_WEBHOOK_SECRET")
	setString(&c.Cache.RedisAddr, "REDIS_ADDR")
	setString(&c.LogLevel, "LOG_LEVEL")

	if v := os.Getenv("BLOGFRONT_CACHE"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			c.Cache.Enabled = enabled
		}
	}
}

func (c *Config) setDefaults() {
	if c.CMS.Endpoint == "" {
		c.CMS.Endpoint = "blogs"
	}
	if c.CMS.PageSize == 0 {
		c.CMS.PageSize = 100
	}
	if c.CMS.Timeout == 0 {
		c.CMS.Timeout = 10 * time.Second
	}
	if c.CMS.RateLimit == 0 {
		c.CMS.RateLimit = 10
	}
	if c.CMS.Burst == 0 {
		c.CMS.Burst = 5
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":3000"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}
	if c.Server.SiteTitle == "" {
		c.Server.SiteTitle = "Latest Articles"
	}
	if c.Server.RateLimit.RPS == 0 {
		c.Server.RateLimit.RPS = 5
	}
	if c.Server.RateLimit.Burst == 0 {
		c.Server.RateLimit.Burst = 10
	}
	if c.Listing.TopPageSize == 0 {
		c.Listing.TopPageSize = 6
	}
	if c.Listing.BlogPageSize == 0 {
		c.Listing.BlogPageSize = 10
	}
	if c.Listing.LoadMoreDelay == 0 {
		c.Listing.LoadMoreDelay = 100 * time.Millisecond
	}
	if c.Cache.RedisAddr == "" {
		c.Cache.RedisAddr = "localhost:6379"
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = 5 * time.Minute
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "console"
	}
}

// Validate reports every missing required setting at once. The service
// cannot run without CMS credentials.
func (c *Config) Validate() error {
	var errs []error
	if c.CMS.ServiceDomain == "" {
		errs = append(errs, errors.New("cms service domain is required (MICROCMS_SERVICE_DOMAIN)"))
	}
	if c.CMS.APIKey == "" {
		errs = append(errs, errors.New("cms api key is required (MICROCMS_API_KEY)"))
	}
	if c.CMS.PageSize < 1 || c.CMS.PageSize > 100 {
		errs = append(errs, fmt.Errorf("cms page size must be between 1 and 100, got %d", c.CMS.PageSize))
	}
	if c.Listing.TopPageSize < 1 || c.Listing.BlogPageSize < 1 {
		errs = append(errs, errors.New("listing page sizes must be positive"))
	}
	return errors.Join(errs...)
}
