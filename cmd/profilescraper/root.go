package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/nithin434/seriousbro/pkg/config"
	"github.com/nithin434/seriousbro/pkg/logger"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	headless   bool
	outputDir  string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "profilescraper",
	Short: "Session-persistent profile scraper driven by a real browser",
	Long: `profilescraper logs into professional networking sites through a real
browser, keeps the session alive across runs, and extracts structured
profile data with resilient selector fallbacks.

Sessions are saved to disk and restored on the next run, so interactive
login happens once per session lifetime, not once per run. Credentials
can optionally be stored (system keychain or encrypted file) to autofill
the login form; captcha and 2FA always stay with the operator.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is .profilescraper.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&headless, "headless", false, "run the browser headless (manual login needs a visible window)")
	rootCmd.PersistentFlags().StringVarP(&outputDir, "output", "o", "", "output directory for scraped records")

	rootCmd.SetVersionTemplate(`profilescraper {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// loadConfig loads configuration and applies global flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}

	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if outputDir != "" {
		cfg.Output.BaseDirectory = outputDir
	}
	if headless {
		cfg.Browser.Headless = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setupLogger initializes the global logger from config.
func setupLogger(cfg *config.Config) (logger.Logger, error) {
	err := logger.Initialize(logger.Options{
		Level: cfg.Logging.Level,
		File:  cfg.Logging.File,
	})
	if err != nil {
		return nil, err
	}
	return logger.GetLogger(), nil
}
