// Orchestrator: sequences authentication, crawl, extraction, dedup and
// output into one run and turns component failures into a run summary.
//
// Per-item failures only bump counters; the run itself aborts only on
// infrastructure failures (auth, navigation retry exhaustion, write errors).

package run

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go-linkedin-harvester/internal/scraper"
	"go-linkedin-harvester/internal/session"
)

// Authenticator establishes the browsing session.
type Authenticator interface {
	Establish(ctx context.Context) error
}

// Crawler walks the listing pages and hands each card to fn in first-seen
// order. fn returning an error aborts the crawl.
type Crawler interface {
	Crawl(ctx context.Context, fn func(scraper.ListingItem) error) (pages, emptyPages int, err error)
}

// Extractor resolves a listing card into a job record, sentinel-filling
// fields it cannot read.
type Extractor interface {
	Extract(ctx context.Context, item scraper.ListingItem) (scraper.JobRecord, error)
}

// Deduper suppresses re-emission of postings already written this run.
type Deduper interface {
	Seen(url string) bool
	Mark(url string)
}

// Sink appends records to durable storage. Append errors are fatal: they
// mean disk/permissions, not a transient network condition.
type Sink interface {
	Append(rec scraper.JobRecord) error
}

// Summary is what a finished (or aborted) run reports. Written, duplicate
// and failed counts are always populated so a degraded run is
// distinguishable from a clean one even when both exit zero.
type Summary struct {
	PagesVisited       int
	EmptyPages         int
	ItemsSeen          int
	RecordsWritten     int
	DuplicatesSkipped  int
	ExtractionFailures int
	Elapsed            time.Duration
}

func (s Summary) String() string {
	return fmt.Sprintf(
		"pages=%d (empty=%d) items=%d written=%d duplicates=%d failures=%d elapsed=%s",
		s.PagesVisited, s.EmptyPages, s.ItemsSeen, s.RecordsWritten,
		s.DuplicatesSkipped, s.ExtractionFailures, s.Elapsed.Round(time.Second),
	)
}

// Orchestrator drives one run: Init -> Authenticating -> Crawling ->
// Finished, with Aborted reachable from any state on a fatal failure.
type Orchestrator struct {
	auth      Authenticator
	crawler   Crawler
	extractor Extractor
	dedup     Deduper
	sink      Sink
	now       func() time.Time
}

func New(auth Authenticator, crawler Crawler, extractor Extractor, dedup Deduper, sink Sink) *Orchestrator {
	return &Orchestrator{
		auth:      auth,
		crawler:   crawler,
		extractor: extractor,
		dedup:     dedup,
		sink:      sink,
		now:       time.Now,
	}
}

// Run executes the pipeline. A nil error means Finished; a non-nil error
// means Aborted with that reason. The summary is valid either way.
func (o *Orchestrator) Run(ctx context.Context) (sum Summary, err error) {
	start := o.now()
	defer func() { sum.Elapsed = o.now().Sub(start) }()

	log.Println("🔐 Establishing session...")
	if err := o.auth.Establish(ctx); err != nil {
		return sum, fmt.Errorf("establish session: %w", err)
	}

	log.Println("🚀 Crawling...")
	pages, empty, err := o.crawler.Crawl(ctx, func(item scraper.ListingItem) error {
		sum.ItemsSeen++

		rec, err := o.extractor.Extract(ctx, item)
		if err != nil {
			var ae *session.AuthError
			if errors.As(err, &ae) {
				// challenge mid-crawl: infrastructure, not item
				return err
			}
			sum.ExtractionFailures++
			log.Printf("⚠️ Skipping item %d: %v", item.PositionIndex, err)
			return nil
		}

		if o.dedup.Seen(rec.URL) {
			sum.DuplicatesSkipped++
			log.Printf("🔁 Duplicate posting skipped: %s", rec.URL)
			return nil
		}
		o.dedup.Mark(rec.URL)

		if err := o.sink.Append(rec); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		sum.RecordsWritten++
		log.Printf("💾 [%d] %s @ %s", sum.RecordsWritten, rec.Title, rec.Company)
		return nil
	})
	sum.PagesVisited = pages
	sum.EmptyPages = empty
	if err != nil {
		return sum, err
	}

	return sum, nil
}
