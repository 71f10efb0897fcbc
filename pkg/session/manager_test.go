package session

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-rod/rod/lib/proto"

	"github.com/nithin434/seriousbro/pkg/auth"
	"github.com/nithin434/seriousbro/pkg/config"
	scraperrors "github.com/nithin434/seriousbro/pkg/errors"
	"github.com/nithin434/seriousbro/pkg/logger"
)

func testSessionConfig(dir string) config.SessionConfig {
	return config.SessionConfig{
		File:             filepath.Join(dir, "session.json"),
		MaxAge:           7 * 24 * time.Hour,
		AutosaveInterval: time.Hour,
		PollInterval:     10 * time.Millisecond,
		ProbeTimeout:     10 * time.Millisecond,
		HomeURL:          "https://www.linkedin.com/feed/",
	}
}

func newTestManager(t *testing.T, engine *fakeEngine, creds *auth.Account) (*Manager, *Store) {
	t.Helper()
	cfg := testSessionConfig(t.TempDir())
	store := NewStore(cfg.File, logger.Nop())
	detector := NewDetector(cfg.ProbeTimeout, logger.Nop())
	factory := func() (Browser, error) { return engine, nil }
	return NewManager(factory, store, detector, cfg, creds, logger.Nop()), store
}

func TestStartFreshRunThroughManualLogin(t *testing.T) {
	page := newFakePage("")
	engine := &fakeEngine{
		page:      page,
		userAgent: "TestAgent/1.0",
		cookies: []*proto.NetworkCookie{
			{Name: "li_at", Value: "fresh-token", Domain: ".linkedin.com"},
		},
	}
	m, store := newTestManager(t, engine, nil)

	// Login completes in the browser a few polls in.
	go func() {
		time.Sleep(50 * time.Millisecond)
		page.setSelector("img.global-nav__me-photo", true)
	}()

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer m.Close()

	if m.State() != StateReady {
		t.Errorf("expected ready state, got %s", m.State())
	}

	// The fresh session was persisted.
	record, err := store.Load()
	if err != nil || record == nil {
		t.Fatalf("expected a saved session, got record=%v err=%v", record, err)
	}
	if len(record.Cookies) != 1 || record.Cookies[0].Value != "fresh-token" {
		t.Errorf("saved cookies do not match the browser's: %+v", record.Cookies)
	}
	if record.UserAgent != "TestAgent/1.0" {
		t.Errorf("saved user agent mismatch: %q", record.UserAgent)
	}
}

func TestStartRestoresFreshSession(t *testing.T) {
	page := newFakePage("")
	page.setSelector("img.global-nav__me-photo", true)
	engine := &fakeEngine{page: page}
	m, store := newTestManager(t, engine, nil)

	saved := []*proto.NetworkCookie{{Name: "li_at", Value: "saved-token", Domain: ".linkedin.com"}}
	if err := store.Save(NewRecord(saved, "OldAgent/1.0")); err != nil {
		t.Fatal(err)
	}

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer m.Close()

	if engine.setCalls != 1 {
		t.Errorf("expected cookies restored once, got %d calls", engine.setCalls)
	}
	if len(engine.cookies) != 1 || engine.cookies[0].Value != "saved-token" {
		t.Errorf("restored cookies mismatch: %+v", engine.cookies)
	}
}

func TestStartIgnoresStaleSession(t *testing.T) {
	page := newFakePage("")
	page.setSelector("img.global-nav__me-photo", true)
	engine := &fakeEngine{page: page}
	m, store := newTestManager(t, engine, nil)

	stale := &Record{
		Cookies:   []*proto.NetworkCookie{{Name: "li_at", Value: "stale-token"}},
		Timestamp: time.Now().Add(-8 * 24 * time.Hour).UnixMilli(),
	}
	if err := store.Save(stale); err != nil {
		t.Fatal(err)
	}

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer m.Close()

	if engine.setCalls != 0 {
		t.Error("stale cookies must not be injected")
	}
}

func TestStartAutofillsLoginForm(t *testing.T) {
	page := newFakePage("")
	engine := &fakeEngine{page: page}
	creds := &auth.Account{Email: "user@example.com", Password: "pw12345678"}
	m, _ := newTestManager(t, engine, creds)

	// Home navigation lands on the login wall with a form on screen.
	page.navigateTo = "https://www.linkedin.com/login"
	page.setSelector("#username", true)

	go func() {
		time.Sleep(60 * time.Millisecond)
		page.setURL("https://www.linkedin.com/feed/")
		page.setSelector("img.global-nav__me-photo", true)
	}()

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer m.Close()

	if n := page.evalCount("session_key"); n != 1 {
		t.Errorf("expected exactly one autofill attempt, got %d", n)
	}
}

func TestStartCancelledDuringLoginWait(t *testing.T) {
	page := newFakePage("")
	engine := &fakeEngine{page: page}
	m, _ := newTestManager(t, engine, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()

	err := m.Start(ctx)
	if err == nil {
		t.Fatal("expected Start to fail when login never completes")
	}
	if scraperrors.KindOf(err) != scraperrors.KindAuthRequired {
		t.Errorf("expected auth-required error, got %v", err)
	}
	if engine.closed() != 1 {
		t.Errorf("browser must be released on failed start, close calls: %d", engine.closed())
	}
}

func TestCloseSavesAndIsIdempotent(t *testing.T) {
	page := newFakePage("")
	page.setSelector("img.global-nav__me-photo", true)
	engine := &fakeEngine{
		page:    page,
		cookies: []*proto.NetworkCookie{{Name: "li_at", Value: "token"}},
	}
	m, store := newTestManager(t, engine, nil)

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if err := m.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if m.State() != StateClosed {
		t.Errorf("expected closed state, got %s", m.State())
	}
	if engine.closed() != 1 {
		t.Errorf("expected one engine close, got %d", engine.closed())
	}

	record, _ := store.Load()
	if record == nil || len(record.Cookies) != 1 {
		t.Error("expected final save before close")
	}

	// Second close is a no-op.
	if err := m.Close(); err != nil {
		t.Errorf("second Close should return the first result, got %v", err)
	}
	if engine.closed() != 1 {
		t.Errorf("second Close must not touch the engine again, got %d closes", engine.closed())
	}
}

func TestSaveAfterCloseIsNoop(t *testing.T) {
	page := newFakePage("")
	page.setSelector("img.global-nav__me-photo", true)
	engine := &fakeEngine{page: page}
	m, _ := newTestManager(t, engine, nil)

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	m.Close()

	if err := m.Save(); err != nil {
		t.Errorf("Save after Close must be a silent no-op, got %v", err)
	}
}

func TestStartLaunchFailureIsFatal(t *testing.T) {
	launchErr := scraperrors.New(scraperrors.KindLaunch, "browser.Launch")
	factory := func() (Browser, error) { return nil, launchErr }

	cfg := testSessionConfig(t.TempDir())
	store := NewStore(cfg.File, logger.Nop())
	detector := NewDetector(cfg.ProbeTimeout, logger.Nop())
	m := NewManager(factory, store, detector, cfg, nil, logger.Nop())

	err := m.Start(context.Background())
	if err == nil {
		t.Fatal("expected launch failure to propagate")
	}
	if !scraperrors.IsFatal(err) {
		t.Error("launch failure must be fatal")
	}
}
