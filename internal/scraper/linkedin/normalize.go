// Lossy normalization of free-text labels into the closed enums the output
// schema uses. Unmatched text maps to the unknown sentinel; the raw label is
// not preserved anywhere else.

package linkedin

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"go-linkedin-harvester/internal/scraper"
)

// lexiconEntry maps a folded substring to its enum value; first match wins.
type lexiconEntry struct {
	substr string
	value  string
}

// Labels show up localized (the default query targets Spain), so the
// lexicons carry the Spanish variants too and matching runs on
// accent-folded lowercase text.
var workplaceLexicon = []lexiconEntry{
	{"remote", "remote"},
	{"remoto", "remote"},
	{"hybrid", "hybrid"},
	{"hibrido", "hybrid"},
	{"on-site", "onsite"},
	{"onsite", "onsite"},
	{"presencial", "onsite"},
}

var scheduleLexicon = []lexiconEntry{
	{"full-time", "full-time"},
	{"full time", "full-time"},
	{"jornada completa", "full-time"},
	{"part-time", "part-time"},
	{"part time", "part-time"},
	{"media jornada", "part-time"},
	{"internship", "internship"},
	{"practicas", "internship"},
	{"contract", "contract"},
	{"temporary", "temporary"},
	{"temporal", "temporary"},
}

// foldText lowercases and strips diacritics so "Híbrido" matches "hibrido".
func foldText(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)
	return strings.ToLower(result)
}

func normalizeLexicon(raw string, lexicon []lexiconEntry) string {
	folded := foldText(raw)
	for _, e := range lexicon {
		if strings.Contains(folded, e.substr) {
			return e.value
		}
	}
	return scraper.Unknown
}

// NormalizeWorkplace maps a workplace label to onsite|remote|hybrid|unknown.
func NormalizeWorkplace(raw string) string {
	return normalizeLexicon(raw, workplaceLexicon)
}

// NormalizeSchedule maps a schedule label (often buried inside a longer
// "Full-time · Entry level" insight string) to a small closed set.
func NormalizeSchedule(raw string) string {
	return normalizeLexicon(raw, scheduleLexicon)
}

var (
	relativeDateRegex = regexp.MustCompile(`(?i)(\d+)\s*(minute|hour|day|week|month|year)s?\s+ago`)
	isoDateRegex      = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)
	slashDateRegex    = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)
)

// NormalizePostedDate resolves a posted-date label to YYYY-MM-DD when it can
// ("2 weeks ago", ISO timestamps, dd/mm/yyyy) and otherwise passes the raw
// string through verbatim. Empty input yields the unknown sentinel.
func NormalizePostedDate(raw string, now time.Time) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return scraper.Unknown
	}

	if m := relativeDateRegex.FindStringSubmatch(s); m != nil {
		n, _ := strconv.Atoi(m[1])
		var d time.Time
		switch strings.ToLower(m[2]) {
		case "minute":
			d = now.Add(-time.Duration(n) * time.Minute)
		case "hour":
			d = now.Add(-time.Duration(n) * time.Hour)
		case "day":
			d = now.AddDate(0, 0, -n)
		case "week":
			d = now.AddDate(0, 0, -7*n)
		case "month":
			d = now.AddDate(0, -n, 0)
		case "year":
			d = now.AddDate(-n, 0, 0)
		}
		return d.Format("2006-01-02")
	}

	if isoDateRegex.MatchString(s) {
		if d, err := time.Parse("2006-01-02", s[:10]); err == nil {
			return d.Format("2006-01-02")
		}
	}

	// dd/mm/yyyy, the other format seen on detail pages
	if m := slashDateRegex.FindStringSubmatch(s); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		if month >= 1 && month <= 12 && day >= 1 && day <= 31 {
			return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC).Format("2006-01-02")
		}
	}

	return s
}
