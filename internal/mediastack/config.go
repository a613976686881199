package mediastack

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultBaseURL = "http://api.mediastack.com/v1/news"
	DefaultTimeout = 30 * time.Second
)

type RetryConfig struct {
	Attempts    int
	Delay       time.Duration
	Exponential bool
}

// Config is the immutable client configuration. It is loaded once at
// startup and passed explicitly; the API key comes from the environment
// only and is never accepted from callers.
type Config struct {
	APIKey        string
	BaseURL       string
	Timeout       time.Duration
	Retry         RetryConfig
	DefaultParams Params
}

type yamlConfig struct {
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	Retry          struct {
		Attempts    int  `yaml:"attempts"`
		DelayMillis int  `yaml:"delay_ms"`
		Exponential bool `yaml:"exponential"`
	} `yaml:"retry"`
	DefaultParams struct {
		Limit      int    `yaml:"limit"`
		Languages  string `yaml:"languages"`
		Countries  string `yaml:"countries"`
		Categories string `yaml:"categories"`
		Sort       string `yaml:"sort"`
	} `yaml:"default_params"`
}

// DefaultConfig mirrors the stock mediastack parameter set.
func DefaultConfig() Config {
	return Config{
		BaseURL: DefaultBaseURL,
		Timeout: DefaultTimeout,
		Retry: RetryConfig{
			Attempts: 3,
			Delay:    time.Second,
		},
		DefaultParams: Params{
			Limit:      100,
			Languages:  "en",
			Countries:  "us,gb,ca,au",
			Categories: "general,business,entertainment,health,science,sports,technology",
			Sort:       "published_desc",
		},
	}
}

// LoadConfig builds the client configuration from an optional YAML file
// plus environment overrides. MEDIASTACK_API_KEY is required.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to open mediastack config: %w", err)
		}
		defer f.Close()

		if cfg, err = parseYAML(f, cfg); err != nil {
			return Config{}, err
		}
	}

	if v := os.Getenv("MEDIASTACK_API_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("MEDIASTACK_TIMEOUT"); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil || secs <= 0 {
			return Config{}, fmt.Errorf("invalid MEDIASTACK_TIMEOUT: %q", v)
		}
		cfg.Timeout = time.Duration(secs) * time.Second
	}

	cfg.APIKey = os.Getenv("MEDIASTACK_API_KEY")
	if cfg.APIKey == "" {
		return Config{}, fmt.Errorf("MEDIASTACK_API_KEY environment variable is not set")
	}

	return cfg, nil
}

func parseYAML(r io.Reader, cfg Config) (Config, error) {
	var yc yamlConfig
	if err := yaml.NewDecoder(r).Decode(&yc); err != nil {
		return Config{}, fmt.Errorf("failed to parse mediastack config: %w", err)
	}

	if yc.BaseURL != "" {
		cfg.BaseURL = yc.BaseURL
	}
	if yc.TimeoutSeconds > 0 {
		cfg.Timeout = time.Duration(yc.TimeoutSeconds) * time.Second
	}
	if yc.Retry.Attempts > 0 {
		cfg.Retry.Attempts = yc.Retry.Attempts
	}
	if yc.Retry.DelayMillis > 0 {
		cfg.Retry.Delay = time.Duration(yc.Retry.DelayMillis) * time.Millisecond
	}
	cfg.Retry.Exponential = yc.Retry.Exponential

	if yc.DefaultParams.Limit > 0 {
		cfg.DefaultParams.Limit = yc.DefaultParams.Limit
	}
	if yc.DefaultParams.Languages != "" {
		cfg.DefaultParams.Languages = yc.DefaultParams.Languages
	}
	if yc.DefaultParams.Countries != "" {
		cfg.DefaultParams.Countries = yc.DefaultParams.Countries
	}
	if yc.DefaultParams.Categories != "" {
		cfg.DefaultParams.Categories = yc.DefaultParams.Categories
	}
	if yc.DefaultParams.Sort != "" {
		cfg.DefaultParams.Sort = yc.DefaultParams.Sort
	}

	return cfg, nil
}

// MaskedEndpoint is the endpoint recorded in the run log: base URL plus
// the access key with everything but the first and last four characters
// starred out.
func (c Config) MaskedEndpoint() string {
	return c.BaseURL + "?access_key=" + maskKey(c.APIKey)
}

func maskKey(key string) string {
	if len(key) <= 5 {
		return strings.Repeat("*", len(key))
	}
	return key[:1] + strings.Repeat("*", len(key)-5) + key[len(key)-4:]
}
