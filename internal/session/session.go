// Session management for the authenticated LinkedIn browsing session:
// login, challenge detection, and the navigate-and-wait-ready primitive
// everything downstream is built on.

package session

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/playwright-community/playwright-go"

	"go-linkedin-harvester/internal/browser"
)

const (
	loginURL = "https://www.linkedin.com/login"
	feedURL  = "https://www.linkedin.com/feed/"

	// #global-nav only renders for an authenticated member
	loggedInSelector = "#global-nav"

	navTimeoutMs   = 30000
	readyTimeoutMs = 15000
)

// consent banners vary by region; all of these are best-effort
var consentSelectors = []string{
	"button[action-type='ACCEPT']",
	"button[aria-label*='Accept']",
	"button[title*='Accept']",
}

var authwallDismissSelectors = []string{
	"button[aria-label='Dismiss']",
	"button[aria-label='Close']",
	".artdeco-modal__dismiss",
}

// Credentials are opaque to this package beyond being typed into the form.
type Credentials struct {
	Username string
	Password string
}

// Session is the exclusively-owned handle to the one authenticated browser
// page a run drives. It is not safe for concurrent use: page state (DOM,
// cookies, challenge prompts) is shared mutable state with no isolation.
type Session struct {
	page  playwright.Page
	creds Credentials
	shots *browser.Screenshotter
}

func New(page playwright.Page, creds Credentials) *Session {
	return &Session{
		page:  page,
		creds: creds,
		shots: browser.NewScreenshotter(),
	}
}

// Page exposes the underlying playwright page for DOM work. Callers must
// respect the single-thread-of-control contract.
func (s *Session) Page() playwright.Page { return s.page }

// Establish logs the session in. If restored cookies already carry a live
// session the login form is skipped entirely. Failures are *AuthError and
// never retried: bad credentials and challenges need a human.
func (s *Session) Establish(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// warm start: saved cookies may still be valid
	log.Println("🏠 Navigating to LinkedIn feed to check for a live session...")
	if _, err := s.page.Goto(feedURL, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(navTimeoutMs),
	}); err == nil && s.isLoggedIn(5000) {
		log.Println("✅ Session restored from cookies, skipping login.")
		return nil
	}

	if s.isChallenged() {
		s.shots.CaptureAndLog(s.page, "challenge-prelogin", "🚨 Challenge interstitial before login")
		return &AuthError{Reason: ReasonChallengeRequired}
	}

	log.Println("🔐 Logging in...")
	if err := s.login(); err != nil {
		return err
	}
	log.Println("✅ Login confirmed.")
	return nil
}

func (s *Session) login() error {
	if _, err := s.page.Goto(loginURL, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(navTimeoutMs),
	}); err != nil {
		return &AuthError{Reason: ReasonTimeout, Err: err}
	}

	s.dismissConsent()

	if err := s.page.Locator("#username").Fill(s.creds.Username, playwright.LocatorFillOptions{
		Timeout: playwright.Float(10000),
	}); err != nil {
		return &AuthError{Reason: ReasonTimeout, Err: err}
	}
	if err := s.page.Locator("#password").Fill(s.creds.Password, playwright.LocatorFillOptions{
		Timeout: playwright.Float(10000),
	}); err != nil {
		return &AuthError{Reason: ReasonTimeout, Err: err}
	}
	if err := s.page.Locator("button[type='submit']").First().Click(playwright.LocatorClickOptions{
		Timeout: playwright.Float(10000),
	}); err != nil {
		return &AuthError{Reason: ReasonTimeout, Err: err}
	}

	if s.isLoggedIn(20000) {
		return nil
	}

	if s.isChallenged() {
		s.shots.CaptureAndLog(s.page, "challenge-postlogin", "🚨 Challenge interstitial after login submit")
		return &AuthError{Reason: ReasonChallengeRequired}
	}
	if s.hasCredentialError() {
		return &AuthError{Reason: ReasonInvalidCredentials}
	}
	return &AuthError{Reason: ReasonTimeout, Err: errors.New("logged-in nav never appeared")}
}

// Goto navigates and blocks until readySelector is present or the bounded
// timeout elapses. Nothing is cached: every call re-verifies readiness and
// re-checks for interstitials.
func (s *Session) Goto(url, readySelector string) error {
	if _, err := s.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(navTimeoutMs),
	}); err != nil {
		return navError(url, err)
	}

	if s.isChallenged() {
		s.shots.CaptureAndLog(s.page, "challenge-goto", "🚨 Challenge interstitial during crawl")
		return &AuthError{Reason: ReasonChallengeRequired}
	}

	s.clearAuthwall(url)

	if readySelector != "" {
		if _, err := s.page.WaitForSelector(readySelector, playwright.PageWaitForSelectorOptions{
			Timeout: playwright.Float(readyTimeoutMs),
		}); err != nil {
			return navError(url, err)
		}
	}
	return nil
}

// clearAuthwall handles the "Sign in to view more jobs" overlay that
// LinkedIn raises when it decides the session looks logged out: dismiss it
// if possible, otherwise re-authenticate and return to the target URL.
func (s *Session) clearAuthwall(returnURL string) {
	if !s.hasAuthwall() {
		return
	}
	log.Println("⚠️ Sign-in overlay detected, attempting to clear it...")

	for _, sel := range authwallDismissSelectors {
		if s.tryClick(sel, 2000) {
			if !s.hasAuthwall() {
				return
			}
		}
	}
	s.page.Keyboard().Press("Escape")
	if !s.hasAuthwall() {
		return
	}

	// Overlay won't dismiss: the session really is logged out. Re-auth
	// once and come back.
	if err := s.login(); err != nil {
		log.Printf("⚠️ Re-authentication failed: %v", err)
		return
	}
	if _, err := s.page.Goto(returnURL, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(navTimeoutMs),
	}); err != nil {
		log.Printf("⚠️ Could not return to %s after re-auth: %v", returnURL, err)
	}
}

func (s *Session) isLoggedIn(timeoutMs float64) bool {
	_, err := s.page.WaitForSelector(loggedInSelector, playwright.PageWaitForSelectorOptions{
		Timeout: playwright.Float(timeoutMs),
	})
	return err == nil
}

func (s *Session) isChallenged() bool {
	u := s.page.URL()
	if strings.Contains(u, "/checkpoint/") || strings.Contains(u, "/authwall") {
		return true
	}
	if n, err := s.page.Locator("#captcha-internal, .challenge-dialog").Count(); err == nil && n > 0 {
		return true
	}
	title, err := s.page.Title()
	return err == nil && strings.Contains(title, "Security Verification")
}

func (s *Session) hasAuthwall() bool {
	if n, err := s.page.Locator("h2:has-text('Sign in to view more jobs')").Count(); err == nil && n > 0 {
		return true
	}
	n, err := s.page.Locator(".artdeco-modal, .sign-in-modal").Count()
	return err == nil && n > 0
}

func (s *Session) hasCredentialError() bool {
	n, err := s.page.Locator("#error-for-username, #error-for-password").Count()
	return err == nil && n > 0
}

func (s *Session) dismissConsent() {
	for _, sel := range consentSelectors {
		if s.tryClick(sel, 2000) {
			return
		}
	}
}

func (s *Session) tryClick(selector string, timeoutMs float64) bool {
	loc := s.page.Locator(selector).First()
	if visible, err := loc.IsVisible(); err != nil || !visible {
		return false
	}
	return loc.Click(playwright.LocatorClickOptions{
		Timeout: playwright.Float(timeoutMs),
	}) == nil
}

func navError(url string, err error) *NavError {
	kind := NavFailed
	if errors.Is(err, playwright.ErrTimeout) || strings.Contains(err.Error(), "Timeout") {
		kind = NavTimeout
	}
	return &NavError{Kind: kind, URL: url, Err: err}
}
