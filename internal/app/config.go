package app

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/raysh454/apiextract/internal/browser"
	"github.com/raysh454/apiextract/internal/capture"
	"github.com/raysh454/apiextract/internal/crawler"
	"github.com/raysh454/apiextract/internal/logging"
	"github.com/raysh454/apiextract/internal/webclient"
)

// EnvPrefix prefixes every environment variable, e.g. APIEXTRACT_BASE_URL.
const EnvPrefix = "APIEXTRACT"

// Config is the process-wide configuration. Values come from DefaultConfig,
// then an optional YAML file, then the environment.
type Config struct {
	ListenAddr string `yaml:"listen_addr" envconfig:"LISTEN_ADDR"`

	// BaseURL is the page navigated to by /extract-urls and the prefix results are filtered by.
	BaseURL string `yaml:"base_url" envconfig:"BASE_URL"`

	CaptureTimeout       time.Duration `yaml:"capture_timeout" envconfig:"CAPTURE_TIMEOUT"`
	CaptureIdle          time.Duration `yaml:"capture_idle" envconfig:"CAPTURE_IDLE"`
	CaptureMaxConcurrent int64         `yaml:"capture_max_concurrent" envconfig:"CAPTURE_MAX_CONCURRENT"`

	Headless   bool   `yaml:"headless" envconfig:"HEADLESS"`
	ChromePath string `yaml:"chrome_path" envconfig:"CHROME_PATH"`
	NoSandbox  bool   `yaml:"no_sandbox" envconfig:"NO_SANDBOX"`

	CrawlDelay    time.Duration `yaml:"crawl_delay" envconfig:"CRAWL_DELAY"`
	CrawlTimeout  time.Duration `yaml:"crawl_timeout" envconfig:"CRAWL_TIMEOUT"`
	CrawlMaxPages int           `yaml:"crawl_max_pages" envconfig:"CRAWL_MAX_PAGES"`
	CrawlRetries  int           `yaml:"crawl_retries" envconfig:"CRAWL_RETRIES"`

	// StorePath is the SQLite file for capture history. Empty disables history.
	StorePath string `yaml:"store_path" envconfig:"STORE_PATH"`

	// JobRetention is how long finished jobs stay listed.
	JobRetention time.Duration `yaml:"job_retention" envconfig:"JOB_RETENTION"`

	LogLevel string `yaml:"log_level" envconfig:"LOG_LEVEL"`
	LogDev   bool   `yaml:"log_dev" envconfig:"LOG_DEV"`
}

// DefaultConfig returns a Config populated with the service defaults.
func DefaultConfig() *Config {
	return &Config{
		ListenAddr:           ":3000",
		BaseURL:              "https://open.dosm.gov.my/",
		CaptureTimeout:       60 * time.Second,
		CaptureIdle:          500 * time.Millisecond,
		CaptureMaxConcurrent: 4,
		Headless:             true,
		CrawlDelay:           time.Second,
		CrawlTimeout:         10 * time.Second,
		CrawlMaxPages:        200,
		CrawlRetries:         2,
		JobRetention:         time.Hour,
		LogLevel:             "info",
	}
}

// LoadConfig builds the configuration. path may be empty.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("loading config from environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the service cannot run with.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("invalid config: base url is empty")
	}
	if c.ListenAddr == "" {
		return fmt.Errorf("invalid config: listen address is empty")
	}
	if c.CaptureTimeout < 0 || c.CaptureIdle < 0 || c.CrawlDelay < 0 || c.CrawlTimeout < 0 {
		return fmt.Errorf("invalid config: durations must not be negative")
	}
	return nil
}

func (c *Config) CaptureConfig() capture.Config {
	return capture.Config{
		Timeout:       c.CaptureTimeout,
		MaxConcurrent: c.CaptureMaxConcurrent,
	}
}

func (c *Config) BrowserConfig() browser.Config {
	return browser.Config{
		IdleAfter: c.CaptureIdle,
		Headless:  c.Headless,
		ExecPath:  c.ChromePath,
		NoSandbox: c.NoSandbox,
	}
}

func (c *Config) CrawlerConfig() crawler.Config {
	return crawler.Config{
		Delay:    c.CrawlDelay,
		MaxPages: c.CrawlMaxPages,
	}
}

func (c *Config) WebClientConfig() webclient.Config {
	wc := webclient.DefaultConfig()
	wc.Timeout = c.CrawlTimeout
	wc.RetryMax = c.CrawlRetries
	return wc
}

func (c *Config) LoggingConfig() logging.Config {
	lc := logging.DefaultConfig()
	lc.Level = c.LogLevel
	lc.Development = c.LogDev
	return lc
}
