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

// Config holds all configuration for the scraping pipeline.
type Config struct {
	Browser BrowserConfig `yaml:"browser" json:"browser"`
	Session SessionConfig `yaml:"session" json:"session"`
	Scrape  ScrapeConfig  `yaml:"scrape" json:"scrape"`
	Output  OutputConfig  `yaml:"output" json:"output"`
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// BrowserConfig controls how the browser engine is launched.
type BrowserConfig struct {
	Headless  bool   `yaml:"headless" json:"headless"`
	UserAgent string `yaml:"user_agent" json:"user_agent"`
	BinPath   string `yaml:"bin_path" json:"bin_path"`
	// WindowSize is passed to the launcher as WIDTHxHEIGHT.
	WindowSize string `yaml:"window_size" json:"window_size"`
}

// SessionConfig controls session persistence and the login wait loop.
type SessionConfig struct {
	File             string        `yaml:"file" json:"file"`
	MaxAge           time.Duration `yaml:"max_age" json:"max_age"`
	AutosaveInterval time.Duration `yaml:"autosave_interval" json:"autosave_interval"`
	PollInterval     time.Duration `yaml:"poll_interval" json:"poll_interval"`
	ProbeTimeout     time.Duration `yaml:"probe_timeout" json:"probe_timeout"`
	HomeURL          string        `yaml:"home_url" json:"home_url"`
}

// ScrapeConfig controls per-target extraction bounds and pacing.
type ScrapeConfig struct {
	NavigationTimeout time.Duration `yaml:"navigation_timeout" json:"navigation_timeout"`
	AnchorTimeout     time.Duration `yaml:"anchor_timeout" json:"anchor_timeout"`
	SettleDelay       time.Duration `yaml:"settle_delay" json:"settle_delay"`

	// RequestDelay paces general bulk scraping; MultiKindDelay paces the
	// smaller same-run multi-kind scrape.
	RequestDelay   time.Duration `yaml:"request_delay" json:"request_delay"`
	MultiKindDelay time.Duration `yaml:"multi_kind_delay" json:"multi_kind_delay"`

	// Optional budget cap across a whole bulk run. Zero disables it.
	WindowLimit int           `yaml:"window_limit" json:"window_limit"`
	WindowSize  time.Duration `yaml:"window_size" json:"window_size"`

	MaxExperience   int `yaml:"max_experience" json:"max_experience"`
	MaxEducation    int `yaml:"max_education" json:"max_education"`
	MaxSkills       int `yaml:"max_skills" json:"max_skills"`
	MaxRepositories int `yaml:"max_repositories" json:"max_repositories"`
}

// OutputConfig controls where scrape results are written.
type OutputConfig struct {
	BaseDirectory string `yaml:"base_directory" json:"base_directory"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// userAgents is a small pool of desktop user agents; one is chosen per
// launch when no explicit user agent is configured.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
}

// PickUserAgent returns the configured user agent, or one from the pool
// keyed by the current time so repeated launches rotate.
func (c *BrowserConfig) PickUserAgent() string {
	if c.UserAgent != "" {
		return c.UserAgent
	}
	return userAgents[time.Now().UnixNano()%int64(len(userAgents))]
}

// DefaultConfig returns a Config with the pipeline's default policy values.
func DefaultConfig() *Config {
	return &Config{
		Browser: BrowserConfig{
			Headless:   false,
			WindowSize: "1920,1080",
		},
		Session: SessionConfig{
			File:             defaultSessionFile(),
			MaxAge:           7 * 24 * time.Hour,
			AutosaveInterval: 30 * time.Minute,
			PollInterval:     5 * time.Second,
			ProbeTimeout:     3 * time.Second,
			HomeURL:          "https://www.linkedin.com/feed/",
		},
		Scrape: ScrapeConfig{
			NavigationTimeout: 30 * time.Second,
			AnchorTimeout:     15 * time.Second,
			SettleDelay:       3 * time.Second,
			RequestDelay:      5 * time.Second,
			MultiKindDelay:    2 * time.Second,
			WindowLimit:       0,
			WindowSize:        time.Minute,
			MaxExperience:     5,
			MaxEducation:      5,
			MaxSkills:         10,
			MaxRepositories:   10,
		},
		Output: OutputConfig{
			BaseDirectory: "./scraped",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

func defaultSessionFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "linkedin_session.json"
	}
	return filepath.Join(home, ".local", "share", "profilescraper", "linkedin_session.json")
}

// LoadFromFile loads configuration from a YAML file. An empty path searches
// the standard locations; a missing file is not an error.
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = findConfigFile()
		if path == "" {
			return nil
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

func findConfigFile() string {
	locations := []string{
		".profilescraper.yaml",
		".profilescraper.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "profilescraper", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".profilescraper.yaml"),
	}
	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}
	return ""
}

// LoadFromEnv overrides configuration from PROFILESCRAPER_* variables.
func (c *Config) LoadFromEnv() {
	if v := os.Getenv("PROFILESCRAPER_SESSION_FILE"); v != "" {
		c.Session.File = v
	}
	if v := os.Getenv("PROFILESCRAPER_SESSION_MAX_AGE"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			c.Session.MaxAge = d
		}
	}
	if v := os.Getenv("PROFILESCRAPER_HOME_URL"); v != "" {
		c.Session.HomeURL = v
	}
	if v := os.Getenv("PROFILESCRAPER_USER_AGENT"); v != "" {
		c.Browser.UserAgent = v
	}
	if v := os.Getenv("PROFILESCRAPER_HEADLESS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Browser.Headless = b
		}
	}
	if v := os.Getenv("PROFILESCRAPER_OUTPUT_DIR"); v != "" {
		c.Output.BaseDirectory = v
	}
	if v := os.Getenv("PROFILESCRAPER_REQUEST_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d >= 0 {
			c.Scrape.RequestDelay = d
		}
	}
	if v := os.Getenv("PROFILESCRAPER_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Validate checks the configuration for contradictions.
func (c *Config) Validate() error {
	var errs []error

	if c.Session.File == "" {
		errs = append(errs, errors.New("session file path is required"))
	}
	if c.Session.MaxAge <= 0 {
		errs = append(errs, errors.New("session max age must be positive"))
	}
	if c.Session.PollInterval <= 0 {
		errs = append(errs, errors.New("login poll interval must be positive"))
	}
	if c.Session.AutosaveInterval <= 0 {
		errs = append(errs, errors.New("session autosave interval must be positive"))
	}
	if c.Session.HomeURL == "" {
		errs = append(errs, errors.New("home URL is required"))
	}

	if c.Scrape.NavigationTimeout <= 0 {
		errs = append(errs, errors.New("navigation timeout must be positive"))
	}
	if c.Scrape.AnchorTimeout <= 0 {
		errs = append(errs, errors.New("anchor timeout must be positive"))
	}
	if c.Scrape.RequestDelay < 0 || c.Scrape.MultiKindDelay < 0 {
		errs = append(errs, errors.New("request delays cannot be negative"))
	}
	if c.Scrape.MaxSkills <= 0 || c.Scrape.MaxRepositories <= 0 ||
		c.Scrape.MaxExperience <= 0 || c.Scrape.MaxEducation <= 0 {
		errs = append(errs, errors.New("list caps must be positive"))
	}
	if c.Scrape.WindowLimit > 0 && c.Scrape.WindowSize <= 0 {
		errs = append(errs, errors.New("window size must be positive when a window limit is set"))
	}

	if c.Output.BaseDirectory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Load loads configuration from all sources.
// Precedence: environment variables > .env file > config file > defaults.
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".profilescraper.env"))

	cfg := DefaultConfig()

	if err := cfg.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}
	cfg.LoadFromEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}
