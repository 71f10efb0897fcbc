// Package browser wraps the rod browser engine behind a small surface the
// session manager and scraper consume. Pages are exposed through the Page
// interface so callers can be tested without a live browser.
package browser

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	scraperrors "github.com/nithin434/seriousbro/pkg/errors"
	"github.com/nithin434/seriousbro/pkg/logger"
)

// Page is a single browser tab.
type Page interface {
	// Navigate loads url and waits for the load event, bounded by timeout.
	Navigate(url string, timeout time.Duration) error
	// WaitVisible blocks until selector matches a visible element, bounded
	// by timeout.
	WaitVisible(selector string, timeout time.Duration) error
	// Eval runs a JS function expression in the page and unmarshals its
	// return value into out. A nil out discards the result.
	Eval(js string, out any) error
	// URL returns the page's current URL.
	URL() string
	Close() error
}

// stealthScript masks the most common automation fingerprints before any
// page script runs.
const stealthScript = `
Object.defineProperty(navigator, 'webdriver', { get: () => undefined });
Object.defineProperty(navigator, 'plugins', { get: () => [1, 2, 3, 4, 5] });
Object.defineProperty(navigator, 'languages', { get: () => ['en-US', 'en'] });
window.chrome = window.chrome || { runtime: {} };
`

// Options controls how the engine launches its browser process.
type Options struct {
	Headless   bool
	UserAgent  string
	BinPath    string
	WindowSize string
}

// Engine owns a browser process and its control connection.
type Engine struct {
	browser   *rod.Browser
	launcher  *launcher.Launcher
	userAgent string
	log       logger.Logger
}

// Launch starts a browser with automation-hardening flags and connects to
// it. Failure here is fatal to the pipeline.
func Launch(opts Options, log logger.Logger) (*Engine, error) {
	l := launcher.New().
		Headless(opts.Headless).
		Set("disable-blink-features", "AutomationControlled").
		Set("disable-infobars").
		Set("disable-dev-shm-usage").
		Set("disable-gpu").
		Set("no-sandbox").
		Set("start-maximized")

	if opts.WindowSize != "" {
		l = l.Set("window-size", opts.WindowSize)
	}
	if opts.BinPath != "" {
		l = l.Bin(opts.BinPath)
	}

	url, err := l.Launch()
	if err != nil {
		return nil, scraperrors.Wrap(scraperrors.KindLaunch, "browser.Launch", err)
	}

	b := rod.New().ControlURL(url)
	if err := b.Connect(); err != nil {
		l.Cleanup()
		return nil, scraperrors.Wrap(scraperrors.KindLaunch, "browser.Launch", err)
	}

	log.WithFields(map[string]interface{}{
		"headless":   opts.Headless,
		"user_agent": opts.UserAgent,
	}).Debug("Browser launched")

	return &Engine{
		browser:   b,
		launcher:  l,
		userAgent: opts.UserAgent,
		log:       log,
	}, nil
}

// UserAgent returns the user agent applied to new pages.
func (e *Engine) UserAgent() string { return e.userAgent }

// SetCookies installs cookies into the browser before navigation.
func (e *Engine) SetCookies(cookies []*proto.NetworkCookie) error {
	if err := e.browser.SetCookies(proto.CookiesToParams(cookies)); err != nil {
		return scraperrors.Wrap(scraperrors.KindSessionIO, "browser.SetCookies", err)
	}
	return nil
}

// Cookies returns all cookies currently held by the browser.
func (e *Engine) Cookies() ([]*proto.NetworkCookie, error) {
	cookies, err := e.browser.GetCookies()
	if err != nil {
		return nil, scraperrors.Wrap(scraperrors.KindSessionIO, "browser.Cookies", err)
	}
	return cookies, nil
}

// NewPage opens a fresh tab with the stealth script and user agent
// applied before any navigation.
func (e *Engine) NewPage() (Page, error) {
	p, err := e.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, scraperrors.Wrap(scraperrors.KindLaunch, "browser.NewPage", err)
	}

	if _, err := (proto.PageAddScriptToEvaluateOnNewDocument{Source: stealthScript}).Call(p); err != nil {
		e.log.WithError(err).Warn("Failed to install stealth script")
	}
	if e.userAgent != "" {
		if err := (proto.NetworkSetUserAgentOverride{UserAgent: e.userAgent}).Call(p); err != nil {
			e.log.WithError(err).Warn("Failed to override user agent")
		}
	}

	return &tab{page: p}, nil
}

// Close shuts down the browser process and releases the launcher's
// temporary profile.
func (e *Engine) Close() error {
	err := e.browser.Close()
	e.launcher.Cleanup()
	if err != nil {
		return fmt.Errorf("failed to close browser: %w", err)
	}
	return nil
}

// tab adapts a rod page to the Page interface.
type tab struct {
	page *rod.Page
}

func (t *tab) Navigate(url string, timeout time.Duration) error {
	p := t.page.Timeout(timeout)
	if err := p.Navigate(url); err != nil {
		return scraperrors.Wrap(scraperrors.KindTimeout, "page.Navigate", err)
	}
	if err := p.WaitLoad(); err != nil {
		return scraperrors.Wrap(scraperrors.KindTimeout, "page.Navigate", err)
	}
	return nil
}

func (t *tab) WaitVisible(selector string, timeout time.Duration) error {
	el, err := t.page.Timeout(timeout).Element(selector)
	if err != nil {
		return scraperrors.Wrap(scraperrors.KindTimeout, "page.WaitVisible", err)
	}
	if err := el.WaitVisible(); err != nil {
		return scraperrors.Wrap(scraperrors.KindTimeout, "page.WaitVisible", err)
	}
	return nil
}

func (t *tab) Eval(js string, out any) error {
	obj, err := t.page.Eval(js)
	if err != nil {
		return scraperrors.Wrap(scraperrors.KindTarget, "page.Eval", err)
	}
	if out == nil {
		return nil
	}
	raw, err := json.Marshal(obj.Value)
	if err != nil {
		return scraperrors.Wrap(scraperrors.KindTarget, "page.Eval", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return scraperrors.Wrap(scraperrors.KindTarget, "page.Eval", err)
	}
	return nil
}

func (t *tab) URL() string {
	info, err := t.page.Info()
	if err != nil {
		return ""
	}
	return info.URL
}

func (t *tab) Close() error {
	return t.page.Close()
}
