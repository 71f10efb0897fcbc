package scrape

import (
	"context"
	"time"

	"github.com/nithin434/seriousbro/pkg/browser"
	"github.com/nithin434/seriousbro/pkg/config"
	"github.com/nithin434/seriousbro/pkg/logger"
)

// anchors are the coarse structural elements each kind waits for before
// extraction. Raw dumps skip the anchor wait entirely.
var anchors = map[Kind]string{
	KindProfile:        "main",
	KindSearch:         "main",
	KindRepositoryList: "main",
}

// Writer persists results as they are produced. *storage.Manager
// implements it.
type Writer interface {
	SaveRecord(subject, kind string, capturedAt time.Time, v any) (string, error)
	SaveRaw(subject, kind string, capturedAt time.Time, content string) (string, error)
}

// Scraper extracts one target at a time from a borrowed page. It never
// owns or closes the page.
type Scraper struct {
	writer Writer
	cfg    config.ScrapeConfig
	log    logger.Logger
}

// NewScraper creates a scraper writing through the given writer.
func NewScraper(writer Writer, cfg config.ScrapeConfig, log logger.Logger) *Scraper {
	return &Scraper{writer: writer, cfg: cfg, log: log}
}

// Extract navigates to the target and runs its extraction strategy. Any
// failure along the way is logged and yields nil; a single bad target
// never aborts a run. The result is persisted before it is returned.
func (s *Scraper) Extract(ctx context.Context, page browser.Page, target Target) *Result {
	log := s.log.WithFields(map[string]interface{}{
		"kind": string(target.Kind),
		"url":  target.URL,
	})
	log.Info("Scraping target")

	if err := page.Navigate(target.URL, s.cfg.NavigationTimeout); err != nil {
		log.WithError(err).Warn("Navigation failed, skipping target")
		return nil
	}

	if anchor, ok := anchors[target.Kind]; ok {
		if err := page.WaitVisible(anchor, s.cfg.AnchorTimeout); err != nil {
			log.WithError(err).Warn("Content anchor never appeared, skipping target")
			return nil
		}
	}

	if !s.settle(ctx) {
		log.Warn("Cancelled during settle delay")
		return nil
	}

	var (
		fields map[string]any
		err    error
	)
	switch target.Kind {
	case KindProfile:
		fields, err = s.extractProfile(page)
	case KindSearch:
		fields, err = s.extractSearch(page)
	case KindRepositoryList:
		fields, err = s.extractRepositories(page)
	case KindRawDump:
		fields, err = s.extractRawDump(page)
	default:
		log.Warn("Unknown target kind, skipping")
		return nil
	}
	if err != nil {
		log.WithError(err).Warn("Extraction failed, skipping target")
		return nil
	}

	result := &Result{
		Target:     target,
		Fields:     fields,
		CapturedAt: time.Now(),
		SourceURL:  page.URL(),
	}

	if err := s.persist(result); err != nil {
		log.WithError(err).Warn("Failed to persist result, dropping target")
		return nil
	}

	log.Info("Target scraped")
	return result
}

// settle pauses for client-side rendering to finish. Returns false if
// cancelled.
func (s *Scraper) settle(ctx context.Context) bool {
	if s.cfg.SettleDelay <= 0 {
		return true
	}
	timer := time.NewTimer(s.cfg.SettleDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (s *Scraper) extractProfile(page browser.Page) (map[string]any, error) {
	var raw struct {
		Name       string            `json:"name"`
		Headline   string            `json:"headline"`
		Location   string            `json:"location"`
		About      string            `json:"about"`
		Experience []ExperienceEntry `json:"experience"`
		Education  []EducationEntry  `json:"education"`
		Skills     []string          `json:"skills"`
	}
	if err := page.Eval(profileJS, &raw); err != nil {
		return nil, err
	}

	experience := capList(raw.Experience, s.cfg.MaxExperience)
	for i := range experience {
		experience[i].Title = orNA(experience[i].Title)
		experience[i].Company = orNA(experience[i].Company)
		experience[i].Duration = orNA(experience[i].Duration)
	}
	education := capList(raw.Education, s.cfg.MaxEducation)
	for i := range education {
		education[i].School = orNA(education[i].School)
		education[i].Degree = orNA(education[i].Degree)
	}

	return map[string]any{
		"name":       orNA(raw.Name),
		"headline":   orNA(raw.Headline),
		"location":   orNA(raw.Location),
		"about":      orNA(raw.About),
		"experience": experience,
		"education":  education,
		"skills":     capList(dedupe(raw.Skills), s.cfg.MaxSkills),
	}, nil
}

func (s *Scraper) extractSearch(page browser.Page) (map[string]any, error) {
	var raw []SearchEntry
	if err := page.Eval(searchJS, &raw); err != nil {
		return nil, err
	}

	for i := range raw {
		raw[i].Name = orNA(raw[i].Name)
		raw[i].Headline = orNA(raw[i].Headline)
	}

	return map[string]any{
		"results": raw,
		"count":   len(raw),
	}, nil
}

func (s *Scraper) extractRepositories(page browser.Page) (map[string]any, error) {
	var raw struct {
		Name         string       `json:"name"`
		Username     string       `json:"username"`
		Bio          string       `json:"bio"`
		Repositories []Repository `json:"repositories"`
	}
	if err := page.Eval(repositoryJS, &raw); err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(raw.Repositories))
	unique := raw.Repositories[:0]
	for _, repo := range raw.Repositories {
		if seen[repo.Name] {
			continue
		}
		seen[repo.Name] = true
		unique = append(unique, repo)
	}
	repos := capList(unique, s.cfg.MaxRepositories)
	for i := range repos {
		repos[i].Description = orNA(repos[i].Description)
		repos[i].Language = orNA(repos[i].Language)
		repos[i].Stars = orNA(repos[i].Stars)
	}

	return map[string]any{
		"name":         orNA(raw.Name),
		"username":     orNA(raw.Username),
		"bio":          orNA(raw.Bio),
		"repositories": repos,
	}, nil
}

func (s *Scraper) extractRawDump(page browser.Page) (map[string]any, error) {
	var raw struct {
		Title    string            `json:"title"`
		Text     string            `json:"text"`
		Sections map[string]string `json:"sections"`
	}
	if err := page.Eval(rawDumpJS, &raw); err != nil {
		return nil, err
	}

	return map[string]any{
		"title":    orNA(raw.Title),
		"text":     raw.Text,
		"sections": raw.Sections,
	}, nil
}

// persist writes the result to durable output. Raw dumps also get a
// plain-text copy for eyeballing.
func (s *Scraper) persist(result *Result) error {
	if _, err := s.writer.SaveRecord(result.Target.URL, string(result.Target.Kind), result.CapturedAt, result); err != nil {
		return err
	}
	if result.Target.Kind == KindRawDump {
		if text, ok := result.Fields["text"].(string); ok {
			if _, err := s.writer.SaveRaw(result.Target.URL, string(result.Target.Kind), result.CapturedAt, text); err != nil {
				return err
			}
		}
	}
	return nil
}

func capList[T any](list []T, max int) []T {
	if max > 0 && len(list) > max {
		return list[:max]
	}
	return list
}

func dedupe(list []string) []string {
	seen := make(map[string]bool, len(list))
	out := list[:0]
	for _, v := range list {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
