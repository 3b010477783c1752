// Shared types for the scraping pipeline:
// the listing item handle, the persisted job record and its CSV schema.

package scraper

import (
	"errors"
	"time"
)

// Unknown is the sentinel written for any field that could not be resolved,
// keeping every output row on the same fixed column set.
const Unknown = "unknown"

// ErrMissingIdentity is returned when a listing card carries no job URL.
// Without the URL there is no identity key, so the item is skipped.
var ErrMissingIdentity = errors.New("listing item has no job url")

// ListingItem is a handle to one job card seen during pagination.
// Raw fields are best-effort text scraped off the card and may be empty.
type ListingItem struct {
	PositionIndex int
	SourceURL     string
	RawTitle      string
	RawCompany    string
	RawLocation   string
}

// JobRecord is the persisted unit. URL is the identity key and must be
// non-empty; everything else falls back to a sentinel.
type JobRecord struct {
	Title         string
	Company       string
	Location      string
	WorkplaceType string
	PostedDate    string
	Schedule      string
	Description   string
	URL           string
	ExtractedAt   time.Time
}

// NewJobRecord returns a record with every field sentinel-filled except the
// identity URL and extraction timestamp.
func NewJobRecord(url string, extractedAt time.Time) JobRecord {
	return JobRecord{
		Title:         Unknown,
		Company:       Unknown,
		Location:      Unknown,
		WorkplaceType: Unknown,
		PostedDate:    Unknown,
		Schedule:      Unknown,
		Description:   "",
		URL:           url,
		ExtractedAt:   extractedAt,
	}
}

// CSVHeader is the fixed on-disk column order.
var CSVHeader = []string{
	"title", "company", "location", "workplaceType",
	"postedDate", "schedule", "description", "url", "extractedAt",
}

// CSVRow maps the record onto CSVHeader's column order.
func (r JobRecord) CSVRow() []string {
	return []string{
		r.Title,
		r.Company,
		r.Location,
		r.WorkplaceType,
		r.PostedDate,
		r.Schedule,
		r.Description,
		r.URL,
		r.ExtractedAt.Format(time.RFC3339),
	}
}
