package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nithin434/seriousbro/pkg/auth"
	"github.com/nithin434/seriousbro/pkg/browser"
	"github.com/nithin434/seriousbro/pkg/config"
	scraperrors "github.com/nithin434/seriousbro/pkg/errors"
	"github.com/nithin434/seriousbro/pkg/logger"
	"github.com/nithin434/seriousbro/pkg/ratelimit"
	"github.com/nithin434/seriousbro/pkg/scrape"
	"github.com/nithin434/seriousbro/pkg/session"
	"github.com/nithin434/seriousbro/pkg/storage"
)

var (
	// Scrape command flags
	targetKind string
	searchURL  string
	githubURL  string
	rawURL     string
	delay      time.Duration
	noAutofill bool
)

// scrapeCmd represents the scrape command
var scrapeCmd = &cobra.Command{
	Use:   "scrape [url]",
	Short: "Scrape one or more targets behind a persistent session",
	Long: `Scrape profile data from one or more pages in a single browser run.

The positional URL is scraped with the strategy named by --kind. The
--search, --github and --raw flags add further targets to the same run;
all targets share one authenticated session and are processed
sequentially with a fixed delay between requests.

If no fresh saved session exists, a browser window opens and waits for
login to complete before scraping starts.`,
	Example: `  # Scrape a single profile
  profilescraper scrape https://www.linkedin.com/in/someone/

  # Profile plus repository listing in one run
  profilescraper scrape https://www.linkedin.com/in/someone/ --github https://github.com/someone

  # Search results with a custom inter-request delay
  profilescraper scrape "https://www.linkedin.com/search/results/people/?keywords=gopher" --kind search --delay 10s

  # Raw text dump when structured selectors cannot be trusted
  profilescraper scrape https://example.com/obfuscated --kind raw-dump`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScrape,
}

func init() {
	rootCmd.AddCommand(scrapeCmd)

	scrapeCmd.Flags().StringVarP(&targetKind, "kind", "k", string(scrape.KindProfile), "extraction strategy for the positional URL (profile, search, repository-list, raw-dump)")
	scrapeCmd.Flags().StringVar(&searchURL, "search", "", "also scrape a search results page")
	scrapeCmd.Flags().StringVar(&githubURL, "github", "", "also scrape a repository listing")
	scrapeCmd.Flags().StringVar(&rawURL, "raw", "", "also capture a raw text dump of a page")
	scrapeCmd.Flags().DurationVar(&delay, "delay", 0, "inter-request delay (default: config request_delay, or multi_kind_delay for multi-target runs)")
	scrapeCmd.Flags().BoolVar(&noAutofill, "no-autofill", false, "never autofill the login form from stored credentials")
}

func runScrape(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := setupLogger(cfg)
	if err != nil {
		return err
	}

	targets, err := buildTargets(args)
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		return fmt.Errorf("no targets given: pass a URL or one of --search, --github, --raw")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	manager := buildSessionManager(cfg, log)

	if err := manager.Start(ctx); err != nil {
		if scraperrors.IsFatal(err) {
			log.WithError(err).Error("Browser could not be launched")
			os.Exit(1)
		}
		return err
	}

	writer, err := storage.NewManager(cfg.Output.BaseDirectory)
	if err != nil {
		manager.Close()
		return err
	}

	pacer := ratelimit.NewFixedInterval(pickDelay(cfg, len(targets)))
	var window ratelimit.Limiter
	if cfg.Scrape.WindowLimit > 0 {
		window = ratelimit.NewSlidingWindow(cfg.Scrape.WindowLimit, cfg.Scrape.WindowSize)
	}

	scraper := scrape.NewScraper(writer, cfg.Scrape, log)
	runner := scrape.NewRunner(manager, scraper, pacer, window, log)

	results := runner.Run(ctx, targets)

	failed := 0
	for kind, result := range results {
		if result == nil {
			failed++
			log.WithField("kind", string(kind)).Warn("Target yielded no result")
			continue
		}
		log.WithFields(map[string]interface{}{
			"kind": string(kind),
			"url":  result.SourceURL,
		}).Info("Target captured")
	}
	log.WithFields(map[string]interface{}{
		"total":  len(results),
		"failed": failed,
		"output": cfg.Output.BaseDirectory,
	}).Info("Run complete")

	if failed == len(results) && len(results) > 0 {
		return fmt.Errorf("all %d targets failed", len(results))
	}
	return nil
}

// buildTargets assembles the kind → URL mapping from args and flags.
func buildTargets(args []string) (map[scrape.Kind]string, error) {
	targets := make(map[scrape.Kind]string)

	if len(args) == 1 {
		kind := scrape.Kind(targetKind)
		switch kind {
		case scrape.KindProfile, scrape.KindSearch, scrape.KindRepositoryList, scrape.KindRawDump:
			targets[kind] = args[0]
		default:
			return nil, fmt.Errorf("unknown kind %q", targetKind)
		}
	}
	if searchURL != "" {
		targets[scrape.KindSearch] = searchURL
	}
	if githubURL != "" {
		targets[scrape.KindRepositoryList] = githubURL
	}
	if rawURL != "" {
		targets[scrape.KindRawDump] = rawURL
	}

	return targets, nil
}

// pickDelay chooses the inter-request delay: an explicit flag wins, then
// the multi-kind delay for same-run multi-target scrapes, then the
// general bulk delay.
func pickDelay(cfg *config.Config, targetCount int) time.Duration {
	if delay > 0 {
		return delay
	}
	if targetCount > 1 {
		return cfg.Scrape.MultiKindDelay
	}
	return cfg.Scrape.RequestDelay
}

// buildSessionManager wires the session manager with its store, detector
// and browser factory.
func buildSessionManager(cfg *config.Config, log logger.Logger) *session.Manager {
	store := session.NewStore(cfg.Session.File, log)
	detector := session.NewDetector(cfg.Session.ProbeTimeout, log)

	userAgent := cfg.Browser.PickUserAgent()
	factory := func() (session.Browser, error) {
		engine, err := browser.Launch(browser.Options{
			Headless:   cfg.Browser.Headless,
			UserAgent:  userAgent,
			BinPath:    cfg.Browser.BinPath,
			WindowSize: cfg.Browser.WindowSize,
		}, log)
		if err != nil {
			return nil, err
		}
		return engine, nil
	}

	creds := loadCredentials(log)
	return session.NewManager(factory, store, detector, cfg.Session, creds, log)
}

// loadCredentials fetches stored credentials for login autofill. Absence
// is normal: login is then completed by hand.
func loadCredentials(log logger.Logger) *auth.Account {
	if noAutofill {
		return nil
	}
	manager, err := auth.NewManager()
	if err != nil {
		log.WithError(err).Debug("Credential manager unavailable")
		return nil
	}
	account, err := manager.RetrieveDefault()
	if err != nil {
		log.Debug("No stored credentials, login stays manual")
		return nil
	}
	log.WithField("email", account.Email).Debug("Credentials loaded for autofill")
	return account
}
