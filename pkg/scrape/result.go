package scrape

import "time"

// NotAvailable marks a field the page did not yield. Fields are always
// present in a result so consumers see a stable schema.
const NotAvailable = "Not available"

// Result is the structured output of one extraction pass. Never mutated
// after creation.
type Result struct {
	Target     Target         `json:"target"`
	Fields     map[string]any `json:"fields"`
	CapturedAt time.Time      `json:"captured_at"`
	SourceURL  string         `json:"source_url"`
}

// ExperienceEntry is one position in a profile's experience section.
type ExperienceEntry struct {
	Title    string `json:"title"`
	Company  string `json:"company"`
	Duration string `json:"duration"`
}

// EducationEntry is one school in a profile's education section.
type EducationEntry struct {
	School string `json:"school"`
	Degree string `json:"degree"`
}

// SearchEntry is one hit on a search results page.
type SearchEntry struct {
	Name     string `json:"name"`
	Headline string `json:"headline"`
	URL      string `json:"url"`
}

// Repository is one entry in a developer's repository listing.
type Repository struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Language    string `json:"language"`
	Stars       string `json:"stars"`
}

// orNA substitutes the sentinel for empty scalar values.
func orNA(s string) string {
	if s == "" {
		return NotAvailable
	}
	return s
}
