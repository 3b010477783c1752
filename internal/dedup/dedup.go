// In-run deduplication keyed on normalized job URLs.
// Listings repeat across pages when LinkedIn re-ranks results live, so the
// same posting can show up on page 1 and again on page 3 under a different
// tracking query string.

package dedup

import (
	"net/url"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
)

// Set tracks job URLs already emitted during this run. It is not persisted:
// re-running with an overlapping query may append duplicates across runs.
type Set struct {
	urls mapset.Set[string]
}

func New() *Set {
	return &Set{urls: mapset.NewSet[string]()}
}

// Normalize canonicalizes a job URL so that raw variants of the same posting
// collide: scheme/host lowercased, query (tracking params) and fragment
// dropped, trailing slash trimmed.
func Normalize(raw string) string {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return strings.TrimSuffix(raw, "/")
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.RawQuery = ""
	u.Fragment = ""
	u.Path = strings.TrimSuffix(u.Path, "/")
	return u.String()
}

func (s *Set) Seen(rawURL string) bool {
	return s.urls.Contains(Normalize(rawURL))
}

func (s *Set) Mark(rawURL string) {
	s.urls.Add(Normalize(rawURL))
}

// Len reports how many unique postings have been marked.
func (s *Set) Len() int {
	return s.urls.Cardinality()
}
