package session

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod/lib/proto"

	"github.com/nithin434/seriousbro/pkg/browser"
)

// fakePage simulates a browser tab for tests. Selector checks succeed
// for any selector marked present; Eval answers querySelector-style
// scripts from the same set.
type fakePage struct {
	mu        sync.Mutex
	url       string
	selectors map[string]bool
	navErr    error
	// navigateTo, when set, simulates a server redirect: any navigation
	// lands there instead of the requested URL.
	navigateTo string
	evalLog    []string
	closed     bool
}

func newFakePage(url string) *fakePage {
	return &fakePage{url: url, selectors: make(map[string]bool)}
}

func (p *fakePage) setSelector(sel string, present bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.selectors[sel] = present
}

func (p *fakePage) setURL(url string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.url = url
}

func (p *fakePage) Navigate(url string, _ time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.navErr != nil {
		return p.navErr
	}
	if p.navigateTo != "" {
		p.url = p.navigateTo
	} else {
		p.url = url
	}
	return nil
}

func (p *fakePage) WaitVisible(selector string, _ time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.selectors[selector] {
		return nil
	}
	return errors.New("element not visible")
}

func (p *fakePage) Eval(js string, out any) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.evalLog = append(p.evalLog, js)

	found := false
	for sel, present := range p.selectors {
		if present && strings.Contains(js, sel) {
			found = true
			break
		}
	}
	if b, ok := out.(*bool); ok {
		*b = found
	}
	return nil
}

func (p *fakePage) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

func (p *fakePage) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *fakePage) evalCount(substr string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, js := range p.evalLog {
		if strings.Contains(js, substr) {
			n++
		}
	}
	return n
}

// fakeEngine simulates the browser engine for manager tests.
type fakeEngine struct {
	mu          sync.Mutex
	page        *fakePage
	cookies     []*proto.NetworkCookie
	setCalls    int
	closeCalls  int
	userAgent   string
	newPageErr  error
	cookiesErr  error
}

func (e *fakeEngine) NewPage() (browser.Page, error) {
	if e.newPageErr != nil {
		return nil, e.newPageErr
	}
	return e.page, nil
}

func (e *fakeEngine) SetCookies(cookies []*proto.NetworkCookie) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cookies = cookies
	e.setCalls++
	return nil
}

func (e *fakeEngine) Cookies() ([]*proto.NetworkCookie, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cookiesErr != nil {
		return nil, e.cookiesErr
	}
	return e.cookies, nil
}

func (e *fakeEngine) UserAgent() string { return e.userAgent }

func (e *fakeEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closeCalls++
	return nil
}

func (e *fakeEngine) closed() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closeCalls
}
