package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for catalog generation and validation
type Config struct {
	Source    SourceConfig    `yaml:"source" json:"source"`
	HTTP      HTTPConfig      `yaml:"http" json:"http"`
	Retry     RetryConfig     `yaml:"retry" json:"retry"`
	Challenge ChallengeConfig `yaml:"challenge" json:"challenge"`
	Pacing    PacingConfig    `yaml:"pacing" json:"pacing"`
	Output    OutputConfig    `yaml:"output" json:"output"`
	Local     LocalConfig     `yaml:"local" json:"local"`
	LinkCheck LinkCheckConfig `yaml:"link_check" json:"link_check"`
	Logging   LoggingConfig   `yaml:"logging" json:"logging"`
	Auth      AuthConfig      `yaml:"auth" json:"auth"`
}

// SourceConfig describes the shared figshare folder to scrape
type SourceConfig struct {
	SharedURL  string `yaml:"shared_url" json:"shared_url"`
	ShareToken string `yaml:"share_token" json:"share_token"`
	SiteURL    string `yaml:"site_url" json:"site_url"`
	// Limit caps how many identifiers are resolved (0 = all)
	Limit int `yaml:"limit" json:"limit"`
}

type HTTPConfig struct {
	Timeout          time.Duration `yaml:"timeout" json:"timeout"`
	UserAgent        string        `yaml:"user_agent" json:"user_agent"`
	CloudflareBypass bool          `yaml:"cloudflare_bypass" json:"cloudflare_bypass"`
}

// RetryConfig bounds retries of a single request
type RetryConfig struct {
	MaxAttempts  int           `yaml:"max_attempts" json:"max_attempts"`
	BaseDelay    time.Duration `yaml:"base_delay" json:"base_delay"`
	MaxDelay     time.Duration `yaml:"max_delay" json:"max_delay"`
	Multiplier   float64       `yaml:"multiplier" json:"multiplier"`
	JitterFactor float64       `yaml:"jitter_factor" json:"jitter_factor"`
}

// ChallengeConfig describes the bot-verification response and the wait after it
type ChallengeConfig struct {
	Status  int           `yaml:"status" json:"status"`
	MinWait time.Duration `yaml:"min_wait" json:"min_wait"`
	MaxWait time.Duration `yaml:"max_wait" json:"max_wait"`
}

// PacingConfig spaces sequential filename resolutions
type PacingConfig struct {
	MinDelay time.Duration `yaml:"min_delay" json:"min_delay"`
	Jitter   time.Duration `yaml:"jitter" json:"jitter"`
}

type OutputConfig struct {
	CatalogPath      string `yaml:"catalog_path" json:"catalog_path"`
	SchemaPath       string `yaml:"schema_path" json:"schema_path"`
	SpeciesNamesPath string `yaml:"species_names_path" json:"species_names_path"`
}

// LocalConfig configures the directory-tree pipeline
type LocalConfig struct {
	Root    string `yaml:"root" json:"root"`
	BaseURL string `yaml:"base_url" json:"base_url"`
}

type LinkCheckConfig struct {
	Workers   int           `yaml:"workers" json:"workers"`
	Timeout   time.Duration `yaml:"timeout" json:"timeout"`
	UserAgent string        `yaml:"user_agent" json:"user_agent"`
	// RequestsPerSecond throttles probes across all workers (0 = unlimited)
	RequestsPerSecond float64 `yaml:"requests_per_second" json:"requests_per_second"`
}

type LoggingConfig struct {
	Level      string `yaml:"level" json:"level"`
	Format     string `yaml:"format" json:"format"`
	NoColor    bool   `yaml:"no_color" json:"no_color"`
	File       string `yaml:"file" json:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb" json:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups" json:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days" json:"max_age_days"`
}

// AuthConfig selects where the shared-link token is kept
type AuthConfig struct {
	Store    string `yaml:"store" json:"store"`
	FilePath string `yaml:"file_path" json:"file_path"`
}

const (
	DefaultSharedURL = "https://figshare.com/s/92ea9308ff2587864c49"
	DefaultSiteURL   = "https://figshare.com"
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
	LinkCheckAgent   = "FireMapsLinkChecker/1.0 (+https://github.com/)"
)

// DefaultConfig returns a Config instance with the service's tolerated defaults
func DefaultConfig() *Config {
	return &Config{
		Source: SourceConfig{
			SharedURL: DefaultSharedURL,
			SiteURL:   DefaultSiteURL,
		},
		HTTP: HTTPConfig{
			Timeout:          30 * time.Second,
			UserAgent:        DefaultUserAgent,
			CloudflareBypass: true,
		},
		Retry: RetryConfig{
			MaxAttempts:  3,
			BaseDelay:    1 * time.Second,
			MaxDelay:     30 * time.Second,
			Multiplier:   2.0,
			JitterFactor: 0.1,
		},
		Challenge: ChallengeConfig{
			Status:  202,
			MinWait: 2 * time.Second,
			MaxWait: 5 * time.Second,
		},
		Pacing: PacingConfig{
			MinDelay: 1 * time.Second,
			Jitter:   500 * time.Millisecond,
		},
		Output: OutputConfig{
			CatalogPath:      "schema.json",
			SchemaPath:       "schema.spec.json",
			SpeciesNamesPath: "species_names.json",
		},
		LinkCheck: LinkCheckConfig{
			Workers:   10,
			Timeout:   15 * time.Second,
			UserAgent: LinkCheckAgent,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Auth: AuthConfig{
			Store: "auto",
		},
	}
}

// Token returns the configured shared-link token, falling back to the last
// path segment of a /s/<token> shared URL
func (c *Config) Token() string {
	if c.Source.ShareToken != "" {
		return c.Source.ShareToken
	}
	u, err := url.Parse(c.Source.SharedURL)
	if err != nil {
		return ""
	}
	dir, last := path.Split(strings.TrimSuffix(u.Path, "/"))
	if dir == "/s/" {
		return last
	}
	return ""
}

// LoadFromEnv loads configuration from FIREMAPS_* environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error

	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	setDuration := func(key string, dst *time.Duration) {
		if v := os.Getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}

	setString("FIREMAPS_SHARED_URL", &c.Source.SharedURL)
	setString("FIREMAPS_SHARE_TOKEN", &c.Source.ShareToken)
	setString("FIREMAPS_SITE_URL", &c.Source.SiteURL)
	setString("FIREMAPS_USER_AGENT", &c.HTTP.UserAgent)
	setInt("FIREMAPS_MAX_ATTEMPTS", &c.Retry.MaxAttempts)
	setDuration("FIREMAPS_BASE_DELAY", &c.Retry.BaseDelay)
	setInt("FIREMAPS_CHALLENGE_STATUS", &c.Challenge.Status)
	setDuration("FIREMAPS_PACING_MIN_DELAY", &c.Pacing.MinDelay)
	setDuration("FIREMAPS_PACING_JITTER", &c.Pacing.Jitter)
	setString("FIREMAPS_OUTPUT", &c.Output.CatalogPath)
	setString("FIREMAPS_SCHEMA", &c.Output.SchemaPath)
	setString("FIREMAPS_SPECIES_NAMES", &c.Output.SpeciesNamesPath)
	setString("FIREMAPS_LOCAL_ROOT", &c.Local.Root)
	setString("FIREMAPS_LOCAL_BASE_URL", &c.Local.BaseURL)
	setInt("FIREMAPS_LINK_WORKERS", &c.LinkCheck.Workers)
	setString("FIREMAPS_LOG_LEVEL", &c.Logging.Level)
	setString("FIREMAPS_LOG_FILE", &c.Logging.File)
	setString("FIREMAPS_AUTH_STORE", &c.Auth.Store)

	if v := os.Getenv("FIREMAPS_CLOUDFLARE_BYPASS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("FIREMAPS_CLOUDFLARE_BYPASS: %w", err))
		} else {
			c.HTTP.CloudflareBypass = b
		}
	}

	return errors.Join(errs...)
}

// LoadFromFile loads configuration from a YAML file, then merges a sibling
// <name>.local.<ext> file over it when present
func (c *Config) LoadFromFile(configPath string) error {
	if configPath == "" {
		configPath = findConfigFile()
		if configPath == "" {
			return nil
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	localPath := LocalOverridePath(configPath)
	localData, err := os.ReadFile(localPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read local config: %w", err)
	}

	var override Config
	if err := yaml.Unmarshal(localData, &override); err != nil {
		return fmt.Errorf("failed to parse local config: %w", err)
	}
	if err := mergo.Merge(c, override, mergo.WithOverride); err != nil {
		return fmt.Errorf("failed to merge local config: %w", err)
	}
	return nil
}

// LocalOverridePath maps dir/name.ext to dir/name.local.ext
func LocalOverridePath(configPath string) string {
	ext := filepath.Ext(configPath)
	return strings.TrimSuffix(configPath, ext) + ".local" + ext
}

func findConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		"firemaps.yaml",
		"firemaps.yml",
		".firemaps.yaml",
		filepath.Join(home, ".config", "firemaps", "config.yaml"),
		filepath.Join("/etc", "firemaps", "config.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}
	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Source.SharedURL != "" {
		if err := validateAbsURL(c.Source.SharedURL); err != nil {
			errs = append(errs, fmt.Errorf("source.shared_url: %w", err))
		}
	}
	if err := validateAbsURL(c.Source.SiteURL); err != nil {
		errs = append(errs, fmt.Errorf("source.site_url: %w", err))
	}
	if c.Source.Limit < 0 {
		errs = append(errs, errors.New("source.limit cannot be negative"))
	}

	if c.HTTP.Timeout <= 0 {
		errs = append(errs, errors.New("http.timeout must be positive"))
	}

	if c.Retry.MaxAttempts < 1 {
		errs = append(errs, errors.New("retry.max_attempts must be at least 1"))
	}
	if c.Retry.BaseDelay < 0 {
		errs = append(errs, errors.New("retry.base_delay cannot be negative"))
	}
	if c.Retry.Multiplier < 1 {
		errs = append(errs, errors.New("retry.multiplier must be at least 1"))
	}
	if c.Retry.JitterFactor < 0 || c.Retry.JitterFactor > 1 {
		errs = append(errs, errors.New("retry.jitter_factor must be between 0 and 1"))
	}

	if c.Challenge.Status < 100 || c.Challenge.Status > 599 || c.Challenge.Status == 200 {
		errs = append(errs, errors.New("challenge.status must be a non-200 HTTP status"))
	}
	if c.Challenge.MinWait < 0 || c.Challenge.MaxWait < c.Challenge.MinWait {
		errs = append(errs, errors.New("challenge wait window is invalid"))
	}

	if c.Pacing.MinDelay < 0 || c.Pacing.Jitter < 0 {
		errs = append(errs, errors.New("pacing delays cannot be negative"))
	}

	if c.Output.CatalogPath == "" {
		errs = append(errs, errors.New("output.catalog_path is required"))
	}

	if c.Local.BaseURL != "" {
		if err := validateAbsURL(c.Local.BaseURL); err != nil {
			errs = append(errs, fmt.Errorf("local.base_url: %w", err))
		}
	}

	if c.LinkCheck.Workers <= 0 || c.LinkCheck.Workers > 100 {
		errs = append(errs, errors.New("link_check.workers must be between 1 and 100"))
	}
	if c.LinkCheck.Timeout <= 0 {
		errs = append(errs, errors.New("link_check.timeout must be positive"))
	}
	if c.LinkCheck.RequestsPerSecond < 0 {
		errs = append(errs, errors.New("link_check.requests_per_second cannot be negative"))
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Errorf("invalid log level %q", c.Logging.Level))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "console", "json":
	default:
		errs = append(errs, fmt.Errorf("invalid log format %q", c.Logging.Format))
	}

	switch c.Auth.Store {
	case "", "auto", "keyring", "file", "env":
	default:
		errs = append(errs, fmt.Errorf("invalid auth store %q", c.Auth.Store))
	}

	return errors.Join(errs...)
}

func validateAbsURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return fmt.Errorf("%q is not an absolute http(s) URL", raw)
	}
	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(configPath string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// MergeCommandLineFlags applies explicitly set command line flags
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	str := func(key string, dst *string) {
		if v, ok := flags[key].(string); ok && v != "" {
			*dst = v
		}
	}
	positive := func(key string, dst *int) {
		if v, ok := flags[key].(int); ok && v > 0 {
			*dst = v
		}
	}

	str("shared-url", &c.Source.SharedURL)
	str("token", &c.Source.ShareToken)
	str("output", &c.Output.CatalogPath)
	str("catalog", &c.Output.CatalogPath)
	str("schema", &c.Output.SchemaPath)
	str("species-names", &c.Output.SpeciesNamesPath)
	str("dir", &c.Local.Root)
	str("base-url", &c.Local.BaseURL)
	str("log-level", &c.Logging.Level)
	str("log-file", &c.Logging.File)
	positive("limit", &c.Source.Limit)
	positive("max-attempts", &c.Retry.MaxAttempts)
	positive("workers", &c.LinkCheck.Workers)
}

// Load loads configuration from all sources with proper precedence:
// flags > environment > .env > local override file > config file > defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".config", "firemaps", "firemaps.env"))

	cfg := DefaultConfig()

	if err := cfg.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := cfg.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg.MergeCommandLineFlags(flags)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}
