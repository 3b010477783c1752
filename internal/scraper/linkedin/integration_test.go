package linkedin

import (
	"context"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-linkedin-harvester/internal/dedup"
	"go-linkedin-harvester/internal/run"
	"go-linkedin-harvester/internal/session"
)

const listingHTML = `<html><body>
<ul class="jobs-search__results-list">
  <li>
    <a class="job-card-container__link" href="/jobs/view/111?refId=first">
      <span class="base-search-card__title">Junior Data Analyst</span>
    </a>
    <div class="base-search-card__subtitle">Acme Analytics</div>
    <div class="job-search-card__location">Madrid, Spain</div>
  </li>
  <li>
    <a class="job-card-container__link" href="/jobs/view/222?refId=second">
      <span class="base-search-card__title">Data Analyst Intern</span>
    </a>
    <div class="base-search-card__subtitle">Beta Labs</div>
    <div class="job-search-card__location">Barcelona, Spain</div>
  </li>
  <li>
    <a class="job-card-container__link" href="/jobs/view/111/?trackingId=repeat">
      <span class="base-search-card__title">Junior Data Analyst</span>
    </a>
    <div class="base-search-card__subtitle">Acme Analytics</div>
    <div class="job-search-card__location">Madrid, Spain</div>
  </li>
</ul>
</body></html>`

const detailHTML = `<html><body>
<div class="jobs-unified-top-card">
  <h1 class="jobs-unified-top-card__job-title">Junior Data Analyst</h1>
  <a class="jobs-unified-top-card__company-name">Acme Analytics</a>
  <span class="jobs-unified-top-card__bullet">Madrid, Spain</span>
  <span class="jobs-unified-top-card__workplace-type">Hybrid</span>
  <span class="jobs-unified-top-card__posted-date">2 weeks ago</span>
  <span class="jobs-unified-top-card__job-insight">Full-time · Entry level</span>
</div>
<div class="jobs-description__content">
  <div class="jobs-box__html-content">Analyze data, write SQL.</div>
</div>
</body></html>`

// helper start mock browser
func setupPlaywright(t *testing.T) (*playwright.Playwright, playwright.Browser, playwright.Page) {
	t.Helper()
	pw, err := playwright.Run()
	if err != nil {
		t.Skipf("playwright not available: %v", err)
	}
	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
	})
	if err != nil {
		pw.Stop()
		t.Skipf("could not launch browser: %v", err)
	}
	page, err := browser.NewPage()
	if err != nil {
		t.Fatalf("could not create page: %v", err)
	}
	return pw, browser, page
}

func routeFixtures(t *testing.T, page playwright.Page) {
	t.Helper()
	err := page.Route("**/*", func(route playwright.Route) {
		body := listingHTML
		if strings.Contains(route.Request().URL(), "/jobs/view/") {
			body = detailHTML
		}
		route.Fulfill(playwright.RouteFulfillOptions{
			Status:      playwright.Int(200),
			ContentType: playwright.String("text/html"),
			Body:        body,
		})
	})
	require.NoError(t, err)
}

func TestScraper_CrawlAndExtract_Fixture(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping browser test in short mode")
	}
	pw, browser, page := setupPlaywright(t)
	defer pw.Stop()
	defer browser.Close()
	routeFixtures(t, page)

	sess := session.New(page, session.Credentials{Username: "u", Password: "p"})
	retry := run.RetryPolicy{Attempts: 3, Backoff: time.Millisecond, Sleep: func(time.Duration) {}}
	site := New(sess, testQuery(1), retry)

	require.NoError(t, site.OpenListing(PageURL(testQuery(1), 0)))
	items, err := site.Cards(0)
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.Equal(t, "https://www.linkedin.com/jobs/view/111", items[0].SourceURL)
	assert.Equal(t, "https://www.linkedin.com/jobs/view/222", items[1].SourceURL)
	assert.Equal(t, "Junior Data Analyst", items[0].RawTitle)
	assert.Equal(t, "Acme Analytics", items[0].RawCompany)
	assert.Equal(t, "Madrid, Spain", items[0].RawLocation)

	// the duplicate card collapses onto the first under normalization
	assert.Equal(t, dedup.Normalize(items[0].SourceURL), dedup.Normalize(items[2].SourceURL))

	rec, err := site.Extract(context.Background(), items[0])
	require.NoError(t, err)
	assert.Equal(t, "Junior Data Analyst", rec.Title)
	assert.Equal(t, "Acme Analytics", rec.Company)
	assert.Equal(t, "Madrid, Spain", rec.Location)
	assert.Equal(t, "hybrid", rec.WorkplaceType)
	assert.Equal(t, "full-time", rec.Schedule)
	assert.Regexp(t, regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`), rec.PostedDate)
	assert.Equal(t, "Analyze data, write SQL.", rec.Description)
	assert.False(t, rec.ExtractedAt.IsZero())
}

func TestScraper_ExtractPartialWhenDetailPageUnreachable(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping browser test in short mode")
	}
	pw, browser, page := setupPlaywright(t)
	defer pw.Stop()
	defer browser.Close()

	// detail pages hard-fail: a usable partial row beats dropping the job
	err := page.Route("**/*", func(route playwright.Route) {
		if strings.Contains(route.Request().URL(), "/jobs/view/") {
			route.Abort()
			return
		}
		route.Fulfill(playwright.RouteFulfillOptions{
			Status:      playwright.Int(200),
			ContentType: playwright.String("text/html"),
			Body:        listingHTML,
		})
	})
	require.NoError(t, err)

	sess := session.New(page, session.Credentials{Username: "u", Password: "p"})
	retry := run.RetryPolicy{Attempts: 3, Backoff: time.Millisecond, Sleep: func(time.Duration) {}}
	site := New(sess, testQuery(1), retry)

	require.NoError(t, site.OpenListing(PageURL(testQuery(1), 0)))
	items, err := site.Cards(0)
	require.NoError(t, err)
	require.NotEmpty(t, items)

	rec, err := site.Extract(context.Background(), items[0])
	require.NoError(t, err, "detail failure must not fail the item")
	assert.Equal(t, "Junior Data Analyst", rec.Title)
	assert.Equal(t, "Acme Analytics", rec.Company)
	assert.Equal(t, items[0].SourceURL, rec.URL)
	assert.Empty(t, rec.Description)
}
