package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nithin434/seriousbro/pkg/browser"
	"github.com/nithin434/seriousbro/pkg/logger"
	"github.com/nithin434/seriousbro/pkg/probe"
)

// authenticatedSelectors match elements that only render for a logged-in
// member, ordered by confidence.
var authenticatedSelectors = []string{
	"img.global-nav__me-photo",
	".global-nav__me",
	".feed-identity-module",
	"div.feed-identity-module__actor-meta",
}

// loginURLMarkers appear in the URL when the site is asking for
// credentials or extra verification.
var loginURLMarkers = []string{
	"/login",
	"/uas/login",
	"/checkpoint",
	"/authwall",
	"/signup",
}

// fallbackSelector matches profile links present across most
// authenticated pages. Lowest confidence, checked last.
const fallbackSelector = `a[href*="/in/"]`

// Detector decides whether a page is in a logged-in state. Detection is
// read-only and can be repeated at any time.
type Detector struct {
	probeTimeout time.Duration
	log          logger.Logger
}

// NewDetector creates a detector with the given per-probe timeout.
func NewDetector(probeTimeout time.Duration, log logger.Logger) *Detector {
	return &Detector{probeTimeout: probeTimeout, log: log}
}

// IsAuthenticated runs the detection cascade against the page. Selector
// probes run first, then the URL check, then the generic fallback. Any
// probe failure counts as a miss, never an error.
func (d *Detector) IsAuthenticated(ctx context.Context, page browser.Page) bool {
	probes := make([]probe.Probe[bool], 0, len(authenticatedSelectors)+2)

	for _, sel := range authenticatedSelectors {
		sel := sel
		probes = append(probes, probe.Probe[bool]{
			Name: "selector:" + sel,
			Run: func(ctx context.Context) (bool, bool) {
				return true, page.WaitVisible(sel, d.probeTimeout) == nil
			},
		})
	}

	probes = append(probes, probe.Probe[bool]{
		Name: "url",
		Run: func(ctx context.Context) (bool, bool) {
			url := page.URL()
			if url == "" {
				return false, false
			}
			for _, marker := range loginURLMarkers {
				if strings.Contains(url, marker) {
					// Definitely on a login surface: report a hit with a
					// logged-out verdict so the fallback cannot override it.
					return false, true
				}
			}
			return false, false
		},
	})

	probes = append(probes, probe.Probe[bool]{
		Name: "fallback:" + fallbackSelector,
		Run: func(ctx context.Context) (bool, bool) {
			return true, d.selectorPresent(page, fallbackSelector)
		},
	})

	out := probe.First(ctx, probes)
	if out.Hit {
		d.log.WithFields(map[string]interface{}{
			"probe":     out.Name,
			"logged_in": out.Value,
		}).Debug("Login state detected")
		return out.Value
	}

	return false
}

// OnLoginPage reports whether the page's URL is a login or verification
// surface.
func (d *Detector) OnLoginPage(page browser.Page) bool {
	url := page.URL()
	for _, marker := range loginURLMarkers {
		if strings.Contains(url, marker) {
			return true
		}
	}
	return false
}

func (d *Detector) selectorPresent(page browser.Page, selector string) bool {
	var found bool
	js := fmt.Sprintf("() => !!document.querySelector(%q)", selector)
	if err := page.Eval(js, &found); err != nil {
		return false
	}
	return found
}
