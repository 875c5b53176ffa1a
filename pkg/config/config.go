package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the archiver
type Config struct {
	// Pixiv session settings
	Pixiv PixivConfig `yaml:"pixiv" json:"pixiv"`

	// Rate limiting configuration
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Download settings
	Download DownloadConfig `yaml:"download" json:"download"`

	// Crawl seeds
	Targets TargetConfig `yaml:"targets" json:"targets"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// PixivConfig holds session-specific configuration
type PixivConfig struct {
	// Session is the PHPSESSID cookie value
	Session   string `yaml:"session" json:"session"`
	UserAgent string `yaml:"user_agent" json:"user_agent"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int           `yaml:"requests_per_minute" json:"requests_per_minute"`
	MaxRetries        int           `yaml:"max_retries" json:"max_retries"`
	RetryDelay        time.Duration `yaml:"retry_delay" json:"retry_delay"`
}

// OutputConfig holds archive output configuration
type OutputConfig struct {
	Directory         string `yaml:"directory" json:"directory"`
	OverwriteExisting bool   `yaml:"overwrite_existing" json:"overwrite_existing"`
}

// DownloadConfig holds download-specific configuration
type DownloadConfig struct {
	// ConcurrentBatches bounds how many artwork file batches are fetched
	// and post-processed at once. Decoding and resizing are CPU bound, so
	// this is independent of the request rate limit.
	ConcurrentBatches int           `yaml:"concurrent_batches" json:"concurrent_batches"`
	DownloadTimeout   time.Duration `yaml:"download_timeout" json:"download_timeout"`
}

// TargetConfig holds the seed identifiers for a run
type TargetConfig struct {
	Users         []uint64 `yaml:"users" json:"users"`
	Illusts       []uint64 `yaml:"illusts" json:"illusts"`
	Novels        []uint64 `yaml:"novels" json:"novels"`
	IllustSeries  []uint64 `yaml:"illust_series" json:"illust_series"`
	NovelSeries   []uint64 `yaml:"novel_series" json:"novel_series"`
	FollowedUsers bool     `yaml:"followed_users" json:"followed_users"`
	Favorites     bool     `yaml:"favorites" json:"favorites"`
}

// Empty reports whether the run has no seeds at all.
func (t TargetConfig) Empty() bool {
	return len(t.Users) == 0 &&
		len(t.Illusts) == 0 &&
		len(t.Novels) == 0 &&
		len(t.IllustSeries) == 0 &&
		len(t.NovelSeries) == 0 &&
		!t.FollowedUsers &&
		!t.Favorites
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 30,
			MaxRetries:        3,
			RetryDelay:        5 * time.Second,
		},
		Output: OutputConfig{
			Directory:         "./archive",
			OverwriteExisting: false,
		},
		Download: DownloadConfig{
			ConcurrentBatches: 3,
			DownloadTimeout:   60 * time.Second,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if session := os.Getenv("PHPSESSID"); session != "" {
		c.Pixiv.Session = session
	}
	if session := os.Getenv("PIXIVARC_SESSION"); session != "" {
		c.Pixiv.Session = session
	}
	if userAgent := os.Getenv("PIXIVARC_USER_AGENT"); userAgent != "" {
		c.Pixiv.UserAgent = userAgent
	}
	if rpm := os.Getenv("PIXIVARC_REQUESTS_PER_MINUTE"); rpm != "" {
		if val, err := strconv.Atoi(rpm); err == nil && val > 0 {
			c.RateLimit.RequestsPerMinute = val
		}
	}
	if outputDir := os.Getenv("PIXIVARC_OUTPUT_DIR"); outputDir != "" {
		c.Output.Directory = outputDir
	}
	if concurrent := os.Getenv("PIXIVARC_CONCURRENT_BATCHES"); concurrent != "" {
		if val, err := strconv.Atoi(concurrent); err == nil && val > 0 {
			c.Download.ConcurrentBatches = val
		}
	}
	if logLevel := os.Getenv("PIXIVARC_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	locations := []string{
		".pixivarc.yaml",
		".pixivarc.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "pixivarc", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "pixivarc", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".pixivarc.yaml"),
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

	if c.Pixiv.Session == "" {
		errs = append(errs, errors.New("pixiv session cookie is required"))
	}

	if c.RateLimit.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests per minute must be positive"))
	}
	if c.RateLimit.MaxRetries < 0 {
		errs = append(errs, errors.New("max retries cannot be negative"))
	}

	if c.Download.ConcurrentBatches <= 0 {
		errs = append(errs, errors.New("concurrent batches must be positive"))
	}
	if c.Download.ConcurrentBatches > 10 {
		errs = append(errs, errors.New("concurrent batches should not exceed 10"))
	}
	if c.Download.DownloadTimeout <= 0 {
		errs = append(errs, errors.New("download timeout must be positive"))
	}

	if c.Output.Directory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Load loads configuration from all sources with proper precedence.
// Precedence order: mutate callback (flags) > Environment variables >
// .env file > Config file > Defaults.
// The result is not validated: callers may still fill in values from
// other sources (the keyring-stored session) and call Validate themselves.
func Load(configPath string, mutate func(*Config)) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".pixivarc.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if mutate != nil {
		mutate(config)
	}

	return config, nil
}
