package scrape

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nithin434/seriousbro/pkg/config"
	"github.com/nithin434/seriousbro/pkg/logger"
)

// fakePage serves canned extraction payloads keyed by a marker substring
// of the script that requests them.
type fakePage struct {
	mu       sync.Mutex
	url      string
	navErr   map[string]error
	anchorOK bool
	payloads map[string]string
	evalErr  error
}

func newScrapePage() *fakePage {
	return &fakePage{
		anchorOK: true,
		navErr:   make(map[string]error),
		payloads: make(map[string]string),
	}
}

func (p *fakePage) Navigate(url string, _ time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.navErr[url]; err != nil {
		return err
	}
	p.url = url
	return nil
}

func (p *fakePage) WaitVisible(selector string, _ time.Duration) error {
	if p.anchorOK {
		return nil
	}
	return errors.New("element not visible")
}

func (p *fakePage) Eval(js string, out any) error {
	if p.evalErr != nil {
		return p.evalErr
	}
	for marker, payload := range p.payloads {
		if strings.Contains(js, marker) {
			return json.Unmarshal([]byte(payload), out)
		}
	}
	return errors.New("no payload for script")
}

func (p *fakePage) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

func (p *fakePage) Close() error { return nil }

// fakeWriter records persisted results in memory.
type fakeWriter struct {
	mu      sync.Mutex
	records []any
	raws    []string
	err     error
}

func (w *fakeWriter) SaveRecord(subject, kind string, capturedAt time.Time, v any) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return "", w.err
	}
	w.records = append(w.records, v)
	return "/fake/" + kind + "/" + subject + ".json", nil
}

func (w *fakeWriter) SaveRaw(subject, kind string, capturedAt time.Time, content string) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return "", w.err
	}
	w.raws = append(w.raws, content)
	return "/fake/" + kind + "/" + subject + ".txt", nil
}

func (w *fakeWriter) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.records)
}

func testScrapeConfig() config.ScrapeConfig {
	cfg := config.DefaultConfig().Scrape
	cfg.SettleDelay = time.Millisecond
	return cfg
}

func newTestScraper(w Writer) *Scraper {
	return NewScraper(w, testScrapeConfig(), logger.Nop())
}

func TestExtractProfile(t *testing.T) {
	page := newScrapePage()
	// 20 skills with duplicates, 7 experience entries, missing headline.
	skills := make([]string, 0, 20)
	for i := 0; i < 10; i++ {
		skills = append(skills, "Go", "Python")
	}
	payload := map[string]any{
		"name":     "Ada Lovelace",
		"headline": "",
		"location": "London",
		"about":    "Engineer",
		"experience": []map[string]string{
			{"title": "Engineer", "company": "A", "duration": "1 yr"},
			{"title": "Engineer", "company": "B", "duration": "1 yr"},
			{"title": "Engineer", "company": "C", "duration": "1 yr"},
			{"title": "Engineer", "company": "D", "duration": "1 yr"},
			{"title": "Engineer", "company": "E", "duration": "1 yr"},
			{"title": "Engineer", "company": "F", "duration": "1 yr"},
			{"title": "Engineer", "company": "G", "duration": ""},
		},
		"education": []map[string]string{},
		"skills":    skills,
	}
	raw, _ := json.Marshal(payload)
	page.payloads["skills"] = string(raw)

	writer := &fakeWriter{}
	s := newTestScraper(writer)

	result := s.Extract(context.Background(), page, Target{Kind: KindProfile, URL: "https://www.linkedin.com/in/ada/"})
	if result == nil {
		t.Fatal("expected a result")
	}

	if result.Fields["name"] != "Ada Lovelace" {
		t.Errorf("name = %v", result.Fields["name"])
	}
	if result.Fields["headline"] != NotAvailable {
		t.Errorf("empty headline must carry the sentinel, got %v", result.Fields["headline"])
	}

	gotSkills := result.Fields["skills"].([]string)
	if len(gotSkills) != 2 {
		t.Errorf("expected 2 unique skills, got %v", gotSkills)
	}
	seen := map[string]bool{}
	for _, sk := range gotSkills {
		if seen[sk] {
			t.Errorf("duplicate skill survived: %s", sk)
		}
		seen[sk] = true
	}

	exp := result.Fields["experience"].([]ExperienceEntry)
	if len(exp) != 5 {
		t.Errorf("expected experience capped at 5, got %d", len(exp))
	}
	if exp[0].Duration != "1 yr" {
		t.Errorf("experience fields mangled: %+v", exp[0])
	}

	if writer.count() != 1 {
		t.Errorf("expected write-through persistence, got %d writes", writer.count())
	}
}

func TestExtractSkillsCapAtTen(t *testing.T) {
	page := newScrapePage()
	skills := make([]string, 20)
	for i := range skills {
		skills[i] = string(rune('a' + i))
	}
	payload := map[string]any{
		"name": "X", "headline": "", "location": "", "about": "",
		"experience": []map[string]string{}, "education": []map[string]string{},
		"skills": skills,
	}
	raw, _ := json.Marshal(payload)
	page.payloads["skills"] = string(raw)

	s := newTestScraper(&fakeWriter{})
	result := s.Extract(context.Background(), page, Target{Kind: KindProfile, URL: "https://example.com/p"})
	if result == nil {
		t.Fatal("expected a result")
	}

	got := result.Fields["skills"].([]string)
	if len(got) != 10 {
		t.Errorf("expected at most 10 skills, got %d", len(got))
	}
}

func TestExtractNavigationFailure(t *testing.T) {
	page := newScrapePage()
	page.navErr["https://bad.example.com"] = errors.New("navigation timeout")

	writer := &fakeWriter{}
	s := newTestScraper(writer)

	result := s.Extract(context.Background(), page, Target{Kind: KindProfile, URL: "https://bad.example.com"})
	if result != nil {
		t.Error("navigation failure must yield nil")
	}
	if writer.count() != 0 {
		t.Error("nothing should be persisted for a failed target")
	}
}

func TestExtractAnchorTimeout(t *testing.T) {
	page := newScrapePage()
	page.anchorOK = false

	s := newTestScraper(&fakeWriter{})
	result := s.Extract(context.Background(), page, Target{Kind: KindProfile, URL: "https://example.com/p"})
	if result != nil {
		t.Error("anchor timeout must yield nil")
	}
}

func TestExtractRawDumpSkipsAnchor(t *testing.T) {
	page := newScrapePage()
	page.anchorOK = false
	payload, _ := json.Marshal(map[string]any{
		"title":    "Page",
		"text":     "full page text",
		"sections": map[string]string{"about": "section text"},
	})
	page.payloads["sections"] = string(payload)

	writer := &fakeWriter{}
	s := newTestScraper(writer)

	result := s.Extract(context.Background(), page, Target{Kind: KindRawDump, URL: "https://example.com/p"})
	if result == nil {
		t.Fatal("raw dump must not depend on structural anchors")
	}
	if result.Fields["text"] != "full page text" {
		t.Errorf("text = %v", result.Fields["text"])
	}
	if len(writer.raws) != 1 || writer.raws[0] != "full page text" {
		t.Errorf("expected a plain-text copy, got %v", writer.raws)
	}
}

func TestExtractRepositoriesDedupeAndCap(t *testing.T) {
	page := newScrapePage()
	repos := make([]map[string]string, 0, 15)
	for i := 0; i < 12; i++ {
		repos = append(repos, map[string]string{
			"name": "repo-" + string(rune('a'+i)), "description": "", "language": "Go", "stars": "1",
		})
	}
	repos = append(repos, map[string]string{"name": "repo-a"}, map[string]string{"name": "repo-b"})
	payload, _ := json.Marshal(map[string]any{
		"name": "Ada", "username": "ada", "bio": "",
		"repositories": repos,
	})
	page.payloads["codeRepository"] = string(payload)

	s := newTestScraper(&fakeWriter{})
	result := s.Extract(context.Background(), page, Target{Kind: KindRepositoryList, URL: "https://github.com/ada"})
	if result == nil {
		t.Fatal("expected a result")
	}

	got := result.Fields["repositories"].([]Repository)
	if len(got) != 10 {
		t.Errorf("expected repositories capped at 10, got %d", len(got))
	}
	seen := map[string]bool{}
	for _, r := range got {
		if seen[r.Name] {
			t.Errorf("duplicate repository survived: %s", r.Name)
		}
		seen[r.Name] = true
		if r.Description != NotAvailable {
			t.Errorf("empty description must carry the sentinel, got %q", r.Description)
		}
	}
	if result.Fields["bio"] != NotAvailable {
		t.Errorf("empty bio must carry the sentinel")
	}
}

func TestExtractPersistFailureDropsTarget(t *testing.T) {
	page := newScrapePage()
	payload, _ := json.Marshal(map[string]any{
		"name": "X", "headline": "", "location": "", "about": "",
		"experience": []map[string]string{}, "education": []map[string]string{},
		"skills": []string{},
	})
	page.payloads["skills"] = string(payload)

	writer := &fakeWriter{err: errors.New("disk full")}
	s := newTestScraper(writer)

	result := s.Extract(context.Background(), page, Target{Kind: KindProfile, URL: "https://example.com/p"})
	if result != nil {
		t.Error("a scrape is not durable until the write succeeds")
	}
}

func TestExtractEvalFailure(t *testing.T) {
	page := newScrapePage()
	page.evalErr = errors.New("execution context destroyed")

	s := newTestScraper(&fakeWriter{})
	result := s.Extract(context.Background(), page, Target{Kind: KindSearch, URL: "https://example.com/s"})
	if result != nil {
		t.Error("evaluation failure must yield nil")
	}
}
