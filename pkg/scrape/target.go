// Package scrape extracts structured records from authenticated pages
// and sequences bulk runs with inter-request pacing.
package scrape

// Kind selects the extraction strategy for a target.
type Kind string

const (
	// KindProfile extracts a member profile (name, headline, experience,
	// education, skills).
	KindProfile Kind = "profile"
	// KindSearch extracts a page of search results.
	KindSearch Kind = "search"
	// KindRepositoryList extracts a developer profile with its repository
	// listing.
	KindRepositoryList Kind = "repository-list"
	// KindRawDump captures full page text with no targeted lookups. Used
	// when structured selectors cannot be trusted.
	KindRawDump Kind = "raw-dump"
)

// kindOrder fixes the processing order for bulk runs.
var kindOrder = []Kind{KindProfile, KindSearch, KindRepositoryList, KindRawDump}

// Target is one page to scrape. Immutable, constructed by the caller.
type Target struct {
	Kind Kind   `json:"kind"`
	URL  string `json:"url"`
}
