package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod/lib/proto"

	"github.com/nithin434/seriousbro/pkg/auth"
	"github.com/nithin434/seriousbro/pkg/browser"
	"github.com/nithin434/seriousbro/pkg/config"
	scraperrors "github.com/nithin434/seriousbro/pkg/errors"
	"github.com/nithin434/seriousbro/pkg/logger"
)

// State tracks where the manager is in its lifecycle.
type State string

const (
	StateIdle          State = "idle"
	StateLaunching     State = "launching"
	StateRestoring     State = "restoring"
	StateVerifying     State = "verifying"
	StateAwaitingLogin State = "awaiting_login"
	StateReady         State = "ready"
	StateClosed        State = "closed"
)

// Browser is the engine surface the manager drives. *browser.Engine
// implements it; tests substitute fakes.
type Browser interface {
	NewPage() (browser.Page, error)
	SetCookies(cookies []*proto.NetworkCookie) error
	Cookies() ([]*proto.NetworkCookie, error)
	UserAgent() string
	Close() error
}

// EngineFactory launches a browser engine.
type EngineFactory func() (Browser, error)

// Manager owns one browser session end to end: launch, cookie restore,
// login verification, the manual-login wait, periodic saves, and
// shutdown.
type Manager struct {
	factory  EngineFactory
	store    *Store
	detector *Detector
	cfg      config.SessionConfig
	creds    *auth.Account
	log      logger.Logger

	engine Browser
	page   browser.Page

	mu        sync.Mutex
	state     State
	saveMu    sync.Mutex
	closeOnce sync.Once
	closeErr  error
	stopSave  chan struct{}
}

// NewManager creates a manager. creds may be nil, in which case the login
// form is never autofilled and the operator completes login by hand.
func NewManager(factory EngineFactory, store *Store, detector *Detector, cfg config.SessionConfig, creds *auth.Account, log logger.Logger) *Manager {
	return &Manager{
		factory:  factory,
		store:    store,
		detector: detector,
		cfg:      cfg,
		creds:    creds,
		log:      log,
		state:    StateIdle,
		stopSave: make(chan struct{}),
	}
}

// State returns the manager's current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
	m.log.WithField("state", string(s)).Debug("Session state changed")
}

// Page returns the managed page. Only valid once Start has returned nil.
func (m *Manager) Page() browser.Page {
	return m.page
}

// Start brings the session to an authenticated, ready state: launch the
// browser, restore saved cookies if fresh, verify login on the home page,
// and if logged out, wait for login to complete. On success an autosave
// loop runs until Close.
func (m *Manager) Start(ctx context.Context) error {
	m.setState(StateLaunching)

	engine, err := m.factory()
	if err != nil {
		return err
	}
	m.engine = engine

	m.setState(StateRestoring)
	if record, _ := m.store.Load(); record != nil {
		if record.IsStale(m.cfg.MaxAge) {
			m.log.WithField("age", record.Age().String()).Info("Saved session too old, ignoring")
		} else {
			if err := engine.SetCookies(record.Cookies); err != nil {
				m.log.WithError(err).Warn("Failed to restore cookies")
			} else {
				m.log.WithField("cookies", len(record.Cookies)).Info("Session restored from disk")
			}
		}
	}

	page, err := engine.NewPage()
	if err != nil {
		m.Close()
		return err
	}
	m.page = page

	m.setState(StateVerifying)
	if err := page.Navigate(m.cfg.HomeURL, 30*time.Second); err != nil {
		m.log.WithError(err).Warn("Home page navigation failed, checking login state anyway")
	}

	if !m.detector.IsAuthenticated(ctx, page) {
		if err := m.awaitLogin(ctx); err != nil {
			m.Close()
			return err
		}
	}

	if err := m.Save(); err != nil {
		m.log.WithError(err).Warn("Initial session save failed")
	}

	go m.autosaveLoop()

	m.setState(StateReady)
	m.log.Info("Session ready")
	return nil
}

// awaitLogin polls the page until the detector reports a logged-in state
// or the context is cancelled. If credentials are available and a login
// form is on screen, the form is filled and submitted once; challenges
// like captcha or 2FA are always left to the operator.
func (m *Manager) awaitLogin(ctx context.Context) error {
	m.setState(StateAwaitingLogin)
	m.log.Info("Waiting for login to complete in the browser window")

	autofilled := false
	ticker := time.NewTicker(m.cfg.PollInterval)
	defer ticker.Stop()

	for {
		if m.creds != nil && !autofilled && m.detector.OnLoginPage(m.page) {
			if err := m.fillLoginForm(); err != nil {
				m.log.WithError(err).Debug("Login form autofill failed")
			} else {
				m.log.Info("Login form submitted from stored credentials")
			}
			autofilled = true
		}

		select {
		case <-ctx.Done():
			return scraperrors.Wrap(scraperrors.KindAuthRequired, "session.awaitLogin", ctx.Err())
		case <-ticker.C:
		}

		if m.detector.IsAuthenticated(ctx, m.page) {
			m.log.Info("Login detected")
			return nil
		}
	}
}

// fillLoginForm types stored credentials into the login form and submits
// it.
func (m *Manager) fillLoginForm() error {
	email, err := json.Marshal(m.creds.Email)
	if err != nil {
		return err
	}
	password, err := json.Marshal(m.creds.Password)
	if err != nil {
		return err
	}

	js := fmt.Sprintf(`() => {
		const user = document.querySelector('#username') || document.querySelector('input[name="session_key"]');
		const pass = document.querySelector('#password') || document.querySelector('input[name="session_password"]');
		const submit = document.querySelector('button[type="submit"]');
		if (!user || !pass || !submit) return false;
		const set = (el, value) => {
			const setter = Object.getOwnPropertyDescriptor(window.HTMLInputElement.prototype, 'value').set;
			setter.call(el, value);
			el.dispatchEvent(new Event('input', { bubbles: true }));
		};
		set(user, %s);
		set(pass, %s);
		submit.click();
		return true;
	}`, email, password)

	var filled bool
	if err := m.page.Eval(js, &filled); err != nil {
		return err
	}
	if !filled {
		return fmt.Errorf("login form fields not found")
	}
	return nil
}

// Save captures the browser's cookies to disk. Concurrent callers
// serialize; the autosave loop and explicit saves share this path.
func (m *Manager) Save() error {
	m.saveMu.Lock()
	defer m.saveMu.Unlock()

	if m.State() == StateClosed {
		return nil
	}

	cookies, err := m.engine.Cookies()
	if err != nil {
		return err
	}

	return m.store.Save(NewRecord(cookies, m.engine.UserAgent()))
}

func (m *Manager) autosaveLoop() {
	ticker := time.NewTicker(m.cfg.AutosaveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopSave:
			return
		case <-ticker.C:
			if err := m.Save(); err != nil {
				m.log.WithError(err).Warn("Session autosave failed")
			}
		}
	}
}

// Close saves the session one last time and shuts the browser down.
// Safe to call more than once; later calls return the first result.
func (m *Manager) Close() error {
	m.closeOnce.Do(func() {
		close(m.stopSave)

		if m.engine != nil {
			if m.State() == StateReady {
				if err := m.Save(); err != nil {
					m.log.WithError(err).Warn("Final session save failed")
				}
			}
			m.setState(StateClosed)
			m.closeErr = m.engine.Close()
		} else {
			m.setState(StateClosed)
		}
	})
	return m.closeErr
}
