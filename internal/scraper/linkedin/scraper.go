// LinkedIn jobs scraper: paginated listing traversal plus per-card detail
// extraction, driven through one authenticated session.
//
// Selectors are the fragile part of this package and live in the constants
// below; the pipeline contract (Crawl/Extract) does not change when markup
// does.

package linkedin

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"

	"go-linkedin-harvester/internal/browser"
	"go-linkedin-harvester/internal/config"
	"go-linkedin-harvester/internal/run"
	"go-linkedin-harvester/internal/scraper"
	"go-linkedin-harvester/internal/session"
)

const (
	baseURL  = "https://www.linkedin.com"
	pageSize = 25

	resultsListSelector = "ul.jobs-search__results-list, .jobs-search-results__list, ul.scaffold-layout__list-container, div.jobs-search-two-pane__results-list"
	cardSelector        = "li.scaffold-layout__list-item, li.jobs-search-results__list-item, ul.jobs-search__results-list > li"
	cardLinkSelector    = "a.job-card-container__link, a[href*='/jobs/view/']"
	detailReadySelector = ".jobs-unified-top-card, .job-details-jobs-unified-top-card__job-title, .top-card-layout, h1"
)

var (
	cardTitleSelectors    = []string{".job-card-list__title", ".base-search-card__title", ".artdeco-entity-lockup__title"}
	cardCompanySelectors  = []string{".job-card-container__primary-description", ".base-search-card__subtitle", ".artdeco-entity-lockup__subtitle"}
	cardLocationSelectors = []string{".job-card-container__metadata-item", ".job-search-card__location", ".artdeco-entity-lockup__caption"}

	titleSelectors       = []string{".job-details-jobs-unified-top-card__job-title h1", ".jobs-unified-top-card__job-title", "h1"}
	companySelectors     = []string{".job-details-jobs-unified-top-card__company-name", "a.jobs-unified-top-card__company-name", ".jobs-unified-top-card__company-name"}
	primaryDescSelectors = []string{".job-details-jobs-unified-top-card__primary-description-container", ".jobs-unified-top-card__primary-description"}
	locationSelectors    = []string{".jobs-unified-top-card__bullet", "[data-test-topcard-location]"}
	workplaceSelectors   = []string{".jobs-unified-top-card__workplace-type", ".job-details-jobs-unified-top-card__workplace-type"}
	postedSelectors      = []string{".jobs-unified-top-card__posted-date", "[data-test-posted-date]", ".posted-time-ago__text"}
	scheduleSelectors    = []string{".jobs-unified-top-card__job-insight", ".job-details-jobs-unified-top-card__job-insight", ".description__job-criteria-text"}
	descriptionSelectors = []string{"[data-testid='expandable-text-box']", ".jobs-description__content .jobs-box__html-content", "#job-details", ".description__text"}
)

// PageURL builds the navigation target for one listing page. It depends
// only on the query and the page index, so any page can be replayed without
// clicking through its predecessors.
func PageURL(q config.SearchQuery, page int) string {
	v := url.Values{}
	v.Set("keywords", q.Keywords)
	v.Set("location", q.Location)
	if q.GeoID != "" {
		v.Set("geoId", q.GeoID)
	}
	if page > 0 {
		v.Set("start", strconv.Itoa(page*pageSize))
	}
	return baseURL + "/jobs/search/?" + v.Encode()
}

// Scraper is both the pagination crawler and the field extractor for
// LinkedIn, sharing the run's session and retry policy.
type Scraper struct {
	sess  *session.Session
	query config.SearchQuery
	retry run.RetryPolicy
	now   func() time.Time
}

func New(sess *session.Session, query config.SearchQuery, retry run.RetryPolicy) *Scraper {
	return &Scraper{
		sess:  sess,
		query: query,
		retry: retry,
		now:   time.Now,
	}
}

// listingSource is the DOM side of pagination, split out so the paging loop
// can be exercised without a browser.
type listingSource interface {
	OpenListing(url string) error
	Cards(basePosition int) ([]scraper.ListingItem, error)
}

// Crawl walks pages 0..PageCount-1 in order, handing each card to fn as
// soon as it is enumerated. Nothing is buffered ahead of the consumer.
func (s *Scraper) Crawl(ctx context.Context, fn func(scraper.ListingItem) error) (int, int, error) {
	return crawlPages(ctx, s.query, s.retry, s, fn)
}

func crawlPages(ctx context.Context, q config.SearchQuery, retry run.RetryPolicy, src listingSource, fn func(scraper.ListingItem) error) (pages, emptyPages int, err error) {
	position := 0
	for i := 0; i < q.PageCount; i++ {
		if err := ctx.Err(); err != nil {
			return pages, emptyPages, err
		}

		target := PageURL(q, i)
		log.Printf("🌐 Listing page %d/%d: %s", i+1, q.PageCount, target)
		if err := retry.Do(func() error { return src.OpenListing(target) }, session.IsRetryable); err != nil {
			return pages, emptyPages, fmt.Errorf("listing page %d: %w", i, err)
		}
		pages++

		items, err := src.Cards(position)
		if err != nil {
			return pages, emptyPages, fmt.Errorf("enumerate cards on page %d: %w", i, err)
		}
		if len(items) == 0 {
			// fewer results than the requested page count implies
			emptyPages++
			log.Printf("ℹ️ Page %d returned no cards, continuing.", i+1)
			continue
		}
		position += len(items)
		log.Printf("📄 Page %d: %d cards.", i+1, len(items))

		for _, item := range items {
			if err := ctx.Err(); err != nil {
				return pages, emptyPages, err
			}
			if err := fn(item); err != nil {
				return pages, emptyPages, err
			}
		}
	}
	return pages, emptyPages, nil
}

// OpenListing navigates to a listing page and forces the lazy-loaded cards
// into the DOM.
func (s *Scraper) OpenListing(url string) error {
	if err := s.sess.Goto(url, resultsListSelector); err != nil {
		return err
	}
	page := s.sess.Page()
	browser.MouseJiggle(page)
	browser.HumanScroll(page)
	return nil
}

// Cards enumerates the job cards on the current listing page in DOM order.
// A card without a resolvable link still yields an item (with an empty
// SourceURL) so the failure is counted rather than silently dropped.
func (s *Scraper) Cards(basePosition int) ([]scraper.ListingItem, error) {
	cards, err := s.sess.Page().Locator(cardSelector).All()
	if err != nil {
		return nil, err
	}

	items := make([]scraper.ListingItem, 0, len(cards))
	for i, card := range cards {
		item := scraper.ListingItem{PositionIndex: basePosition + i}
		if href := cardAttr(card, cardLinkSelector, "href"); href != "" {
			item.SourceURL = canonicalJobURL(href)
		}
		item.RawTitle = cardText(card, cardTitleSelectors...)
		item.RawCompany = cardText(card, cardCompanySelectors...)
		item.RawLocation = cardText(card, cardLocationSelectors...)
		items = append(items, item)
	}
	return items, nil
}

// Extract resolves one card into a job record. Field extraction is
// independently fallible: a missing field becomes its sentinel, and an
// unreachable detail page yields the card-level partial record instead of
// dropping the job. Only a missing URL fails the item.
func (s *Scraper) Extract(ctx context.Context, item scraper.ListingItem) (scraper.JobRecord, error) {
	if err := ctx.Err(); err != nil {
		return scraper.JobRecord{}, err
	}
	if item.SourceURL == "" {
		return scraper.JobRecord{}, fmt.Errorf("card %d: %w", item.PositionIndex, scraper.ErrMissingIdentity)
	}

	rec := scraper.NewJobRecord(item.SourceURL, s.now())
	if item.RawTitle != "" {
		rec.Title = item.RawTitle
	}
	if item.RawCompany != "" {
		rec.Company = item.RawCompany
	}
	if item.RawLocation != "" {
		rec.Location = item.RawLocation
	}

	err := s.retry.Do(func() error {
		return s.sess.Goto(item.SourceURL, detailReadySelector)
	}, session.IsRetryable)
	if err != nil {
		var ae *session.AuthError
		if errors.As(err, &ae) {
			return rec, err
		}
		log.Printf("⚠️ Detail page unreachable for %s, keeping card-level fields: %v", item.SourceURL, err)
		return rec, nil
	}

	page := s.sess.Page()
	s.expandDescription(page)

	if v := pageText(page, titleSelectors...); v != "" {
		rec.Title = v
	}
	if v := pageText(page, companySelectors...); v != "" {
		rec.Company = v
	}
	// "Madrid, Spain · 2 weeks ago · 53 applicants"
	if v := pageText(page, primaryDescSelectors...); v != "" {
		if loc := strings.TrimSpace(strings.Split(v, "·")[0]); loc != "" {
			rec.Location = loc
		}
	} else if v := pageText(page, locationSelectors...); v != "" {
		rec.Location = v
	}
	if v := pageText(page, workplaceSelectors...); v != "" {
		rec.WorkplaceType = NormalizeWorkplace(v)
	}
	if v := pageText(page, postedSelectors...); v != "" {
		rec.PostedDate = NormalizePostedDate(v, s.now())
	}
	if v := pageText(page, scheduleSelectors...); v != "" {
		rec.Schedule = NormalizeSchedule(v)
	}
	if v := pageText(page, descriptionSelectors...); v != "" {
		rec.Description = v
	}

	browser.RandomDelay(500, 1200)
	return rec, nil
}

func (s *Scraper) expandDescription(page playwright.Page) {
	btn := page.Locator(".show-more-less-html__button, button[data-testid='expandable-text-button']").First()
	if visible, _ := btn.IsVisible(); visible {
		btn.Click(playwright.LocatorClickOptions{
			Force:   playwright.Bool(true),
			Timeout: playwright.Float(3000),
		})
		browser.RandomDelay(300, 600)
	}
}

// canonicalJobURL absolutizes a card href and strips its tracking query so
// the same posting always yields the same identity key.
func canonicalJobURL(href string) string {
	full := strings.TrimSpace(href)
	if full == "" {
		return ""
	}
	if !strings.HasPrefix(full, "http") {
		full = baseURL + full
	}
	if i := strings.IndexByte(full, '?'); i >= 0 {
		full = full[:i]
	}
	return full
}

func cardAttr(card playwright.Locator, selector, attr string) string {
	loc := card.Locator(selector).First()
	if n, err := loc.Count(); err != nil || n == 0 {
		return ""
	}
	v, err := loc.GetAttribute(attr, playwright.LocatorGetAttributeOptions{
		Timeout: playwright.Float(2000),
	})
	if err != nil {
		return ""
	}
	return strings.TrimSpace(v)
}

func cardText(card playwright.Locator, selectors ...string) string {
	for _, sel := range selectors {
		loc := card.Locator(sel).First()
		if n, err := loc.Count(); err != nil || n == 0 {
			continue
		}
		txt, err := loc.InnerText(playwright.LocatorInnerTextOptions{
			Timeout: playwright.Float(2000),
		})
		if err == nil {
			if t := strings.TrimSpace(txt); t != "" {
				return t
			}
		}
	}
	return ""
}

func pageText(page playwright.Page, selectors ...string) string {
	for _, sel := range selectors {
		loc := page.Locator(sel).First()
		if n, err := loc.Count(); err != nil || n == 0 {
			continue
		}
		txt, err := loc.InnerText(playwright.LocatorInnerTextOptions{
			Timeout: playwright.Float(2000),
		})
		if err == nil {
			if t := strings.TrimSpace(txt); t != "" {
				return t
			}
		}
	}
	return ""
}
