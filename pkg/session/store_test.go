package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-rod/rod/lib/proto"

	"github.com/nithin434/seriousbro/pkg/logger"
)

func sampleCookies() []*proto.NetworkCookie {
	return []*proto.NetworkCookie{
		{
			Name:     "li_at",
			Value:    "AQEDAVeryLongOpaqueToken",
			Domain:   ".linkedin.com",
			Path:     "/",
			Expires:  proto.TimeSinceEpoch(1790000000),
			HTTPOnly: true,
			Secure:   true,
		},
		{
			Name:   "JSESSIONID",
			Value:  `"ajax:1234567890"`,
			Domain: ".www.linkedin.com",
			Path:   "/",
		},
	}
}

func TestStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	store := NewStore(path, logger.Nop())

	record := NewRecord(sampleCookies(), "TestAgent/1.0")
	if err := store.Save(record); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded == nil {
		t.Fatal("Load returned nil for an existing session")
	}

	if loaded.UserAgent != "TestAgent/1.0" {
		t.Errorf("UserAgent mismatch: %q", loaded.UserAgent)
	}
	if loaded.Timestamp != record.Timestamp {
		t.Errorf("Timestamp mismatch: %d != %d", loaded.Timestamp, record.Timestamp)
	}

	// Cookies survive the round trip exactly
	want, _ := json.Marshal(record.Cookies)
	got, _ := json.Marshal(loaded.Cookies)
	if string(want) != string(got) {
		t.Errorf("Cookies mutated by round trip:\nwant %s\ngot  %s", want, got)
	}
}

func TestStoreLoadMissing(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "nope.json"), logger.Nop())

	record, err := store.Load()
	if err != nil {
		t.Errorf("missing file must not be an error, got %v", err)
	}
	if record != nil {
		t.Error("missing file must load as nil")
	}
}

func TestStoreLoadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}

	store := NewStore(path, logger.Nop())
	record, err := store.Load()
	if err != nil {
		t.Errorf("corrupt file must not be an error, got %v", err)
	}
	if record != nil {
		t.Error("corrupt file must load as nil")
	}
}

func TestStoreDelete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	store := NewStore(path, logger.Nop())

	if err := store.Save(NewRecord(nil, "")); err != nil {
		t.Fatal(err)
	}
	if err := store.Delete(); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("session file should be gone after Delete")
	}

	// Deleting again is fine
	if err := store.Delete(); err != nil {
		t.Errorf("second Delete should succeed, got %v", err)
	}
}

func TestRecordStaleness(t *testing.T) {
	maxAge := 7 * 24 * time.Hour

	fresh := NewRecord(nil, "")
	if fresh.IsStale(maxAge) {
		t.Error("fresh record must not be stale")
	}

	old := &Record{Timestamp: time.Now().Add(-8 * 24 * time.Hour).UnixMilli()}
	if !old.IsStale(maxAge) {
		t.Error("8 day old record must be stale against a 7 day limit")
	}

	boundary := &Record{Timestamp: time.Now().Add(-6 * 24 * time.Hour).UnixMilli()}
	if boundary.IsStale(maxAge) {
		t.Error("6 day old record must still be fresh")
	}
}

func TestRecordTimestampIsMillis(t *testing.T) {
	r := NewRecord(nil, "")
	// Epoch millis for recent dates are 13 digits; epoch seconds are 10.
	if r.Timestamp < 1e12 {
		t.Errorf("timestamp %d looks like seconds, want milliseconds", r.Timestamp)
	}
}
