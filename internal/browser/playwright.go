package browser

import (
	"errors"
	"fmt"

	"github.com/playwright-community/playwright-go"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/127.0.0.0 Safari/537.36"

// Manager owns the playwright driver and the single Chromium instance the
// whole run shares. One authenticated session drives one sequential stream
// of page loads; never navigate the same context from two goroutines.
type Manager struct {
	pw      *playwright.Playwright
	browser playwright.Browser
}

func NewManager(headless bool) (*Manager, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(headless),
		Args: []string{
			"--disable-blink-features=AutomationControlled",
			"--window-size=1280,1200",
			"--disable-gpu",
			"--no-sandbox",
			"--disable-dev-shm-usage",
		},
	})
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("launch chromium: %w", err)
	}

	return &Manager{pw: pw, browser: browser}, nil
}

// NewContext creates a browser context with the stealth init script applied
// and any previously saved cookies restored.
func (m *Manager) NewContext(cookies []playwright.OptionalCookie) (playwright.BrowserContext, error) {
	ctx, err := m.browser.NewContext(playwright.BrowserNewContextOptions{
		UserAgent: playwright.String(userAgent),
		Viewport:  &playwright.Size{Width: 1280, Height: 1200},
	})
	if err != nil {
		return nil, fmt.Errorf("new browser context: %w", err)
	}

	// navigator.webdriver is the first thing bot checks look at
	if err := ctx.AddInitScript(playwright.Script{
		Content: playwright.String("Object.defineProperty(navigator, 'webdriver', {get: () => undefined})"),
	}); err != nil {
		return nil, fmt.Errorf("add stealth init script: %w", err)
	}

	if len(cookies) > 0 {
		if err := ctx.AddCookies(cookies); err != nil {
			return nil, fmt.Errorf("restore cookies: %w", err)
		}
	}
	return ctx, nil
}

func (m *Manager) Close() error {
	return errors.Join(m.browser.Close(), m.pw.Stop())
}
