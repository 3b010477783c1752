package linkedin

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-linkedin-harvester/internal/config"
	"go-linkedin-harvester/internal/run"
	"go-linkedin-harvester/internal/scraper"
	"go-linkedin-harvester/internal/session"
)

func testQuery(pages int) config.SearchQuery {
	return config.SearchQuery{
		Keywords:  "junior data analyst",
		Location:  "Spain",
		GeoID:     "105646813",
		PageCount: pages,
	}
}

func TestPageURLIsDeterministic(t *testing.T) {
	q := testQuery(3)
	assert.Equal(t, PageURL(q, 2), PageURL(q, 2), "same query and index must build the same target")
	assert.NotEqual(t, PageURL(q, 0), PageURL(q, 1))
}

func TestPageURL(t *testing.T) {
	q := testQuery(3)

	first := PageURL(q, 0)
	assert.Contains(t, first, "https://www.linkedin.com/jobs/search/?")
	assert.Contains(t, first, "keywords=junior+data+analyst")
	assert.Contains(t, first, "location=Spain")
	assert.Contains(t, first, "geoId=105646813")
	assert.NotContains(t, first, "start=", "page 0 carries no offset")

	assert.Contains(t, PageURL(q, 2), "start=50")

	q.GeoID = ""
	assert.NotContains(t, PageURL(q, 0), "geoId=")
}

// fakeListingSource drives crawlPages without a browser.
type fakeListingSource struct {
	opened       []string
	failuresLeft int         // timeout failures before OpenListing succeeds
	cardsByCall  map[int]int // open index -> number of cards
	nextPosition int
}

func (f *fakeListingSource) OpenListing(url string) error {
	if f.failuresLeft > 0 {
		f.failuresLeft--
		return &session.NavError{Kind: session.NavTimeout, URL: url, Err: errors.New("ready selector never appeared")}
	}
	f.opened = append(f.opened, url)
	return nil
}

func (f *fakeListingSource) Cards(basePosition int) ([]scraper.ListingItem, error) {
	n := f.cardsByCall[len(f.opened)-1]
	items := make([]scraper.ListingItem, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, scraper.ListingItem{
			PositionIndex: basePosition + i,
			SourceURL:     fmt.Sprintf("https://www.linkedin.com/jobs/view/%d", f.nextPosition+i),
		})
	}
	f.nextPosition += n
	return items, nil
}

func fastRetry(sleeps *[]time.Duration) run.RetryPolicy {
	return run.RetryPolicy{
		Attempts: 3,
		Backoff:  time.Second,
		Sleep:    func(d time.Duration) { *sleeps = append(*sleeps, d) },
	}
}

func TestCrawlPagesBoundedByPageCount(t *testing.T) {
	src := &fakeListingSource{cardsByCall: map[int]int{0: 2, 1: 2, 2: 2}}
	var sleeps []time.Duration

	var seen []scraper.ListingItem
	pages, empty, err := crawlPages(context.Background(), testQuery(3), fastRetry(&sleeps), src, func(it scraper.ListingItem) error {
		seen = append(seen, it)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, pages)
	assert.Equal(t, 0, empty)
	require.Len(t, src.opened, 3, "at most PageCount navigations")
	for i, target := range src.opened {
		assert.Equal(t, PageURL(testQuery(3), i), target)
	}
	// positions follow traversal order across pages
	require.Len(t, seen, 6)
	for i, it := range seen {
		assert.Equal(t, i, it.PositionIndex)
	}
}

func TestCrawlPagesEmptyPageIsNotFatal(t *testing.T) {
	src := &fakeListingSource{cardsByCall: map[int]int{0: 2, 1: 0, 2: 1}}
	var sleeps []time.Duration

	count := 0
	pages, empty, err := crawlPages(context.Background(), testQuery(3), fastRetry(&sleeps), src, func(scraper.ListingItem) error {
		count++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, pages)
	assert.Equal(t, 1, empty)
	assert.Equal(t, 3, count)
}

func TestCrawlPagesRetriesTimeoutsThenSucceeds(t *testing.T) {
	// first two attempts time out, third succeeds: no failure surfaced
	src := &fakeListingSource{failuresLeft: 2, cardsByCall: map[int]int{0: 1}}
	var sleeps []time.Duration

	pages, _, err := crawlPages(context.Background(), testQuery(1), fastRetry(&sleeps), src, func(scraper.ListingItem) error {
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, pages)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, sleeps)
}

func TestCrawlPagesSurfacesRetryExhaustion(t *testing.T) {
	src := &fakeListingSource{failuresLeft: 5, cardsByCall: map[int]int{}}
	var sleeps []time.Duration

	_, _, err := crawlPages(context.Background(), testQuery(2), fastRetry(&sleeps), src, func(scraper.ListingItem) error {
		return nil
	})

	require.Error(t, err)
	var ne *session.NavError
	assert.ErrorAs(t, err, &ne)
	assert.Contains(t, err.Error(), "listing page 0")
}

func TestCrawlPagesStopsWhenConsumerFails(t *testing.T) {
	src := &fakeListingSource{cardsByCall: map[int]int{0: 3, 1: 3}}
	var sleeps []time.Duration

	fatal := errors.New("disk full")
	_, _, err := crawlPages(context.Background(), testQuery(2), fastRetry(&sleeps), src, func(it scraper.ListingItem) error {
		if it.PositionIndex == 1 {
			return fatal
		}
		return nil
	})

	assert.ErrorIs(t, err, fatal)
	assert.Len(t, src.opened, 1, "no further navigation after a fatal consumer error")
}

func TestCrawlPagesHonorsCancellation(t *testing.T) {
	src := &fakeListingSource{cardsByCall: map[int]int{0: 2, 1: 2}}
	var sleeps []time.Duration

	ctx, cancel := context.WithCancel(context.Background())
	count := 0
	_, _, err := crawlPages(ctx, testQuery(2), fastRetry(&sleeps), src, func(scraper.ListingItem) error {
		count++
		cancel() // interrupt at an item boundary
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, count)
}
