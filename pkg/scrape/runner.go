package scrape

import (
	"context"

	"github.com/nithin434/seriousbro/pkg/browser"
	"github.com/nithin434/seriousbro/pkg/logger"
	"github.com/nithin434/seriousbro/pkg/ratelimit"
)

// Session is the slice of the session manager the runner needs: a live
// page to borrow and a close path it must guarantee.
type Session interface {
	Page() browser.Page
	Close() error
}

// Runner sequences multiple scrape targets against one shared session.
// Processing is deliberately sequential: targets share a single page,
// and parallel requests to the same origin raise the ban risk.
type Runner struct {
	session Session
	scraper *Scraper
	pacer   ratelimit.Limiter
	// window optionally caps requests across the whole run. Nil disables
	// it.
	window ratelimit.Limiter
	log    logger.Logger
}

// NewRunner creates a runner. pacer spaces consecutive targets; window
// may be nil.
func NewRunner(session Session, scraper *Scraper, pacer, window ratelimit.Limiter, log logger.Logger) *Runner {
	return &Runner{
		session: session,
		scraper: scraper,
		pacer:   pacer,
		window:  window,
		log:     log,
	}
}

// Run scrapes every requested target in a fixed kind order, pacing
// between requests, and returns results keyed by kind. A failed target
// maps to nil; cancellation marks the remaining targets nil. The
// session is closed before Run returns, on every path.
func (r *Runner) Run(ctx context.Context, targets map[Kind]string) map[Kind]*Result {
	defer func() {
		if err := r.session.Close(); err != nil {
			r.log.WithError(err).Warn("Session close failed after run")
		}
	}()

	results := make(map[Kind]*Result, len(targets))
	for kind := range targets {
		results[kind] = nil
	}

	for _, kind := range kindOrder {
		url, ok := targets[kind]
		if !ok {
			continue
		}

		if ctx.Err() != nil {
			r.log.Warn("Run cancelled, skipping remaining targets")
			break
		}

		// The pacer's first pass is free, so only targets after the first
		// are delayed.
		if err := r.pacer.Wait(ctx); err != nil {
			r.log.Warn("Run cancelled while pacing, skipping remaining targets")
			break
		}

		if r.window != nil {
			if err := r.window.Wait(ctx); err != nil {
				r.log.Warn("Run cancelled while waiting for request budget")
				break
			}
		}

		results[kind] = r.scraper.Extract(ctx, r.session.Page(), Target{Kind: kind, URL: url})
	}

	return results
}
