package browser

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/playwright-community/playwright-go"
)

// Cookie is the on-disk cookie jar entry saved between runs.
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires"`
	HTTPOnly bool    `json:"httpOnly"`
	Secure   bool    `json:"secure"`
	SameSite string  `json:"sameSite"`
}

func (c Cookie) toPlaywright() playwright.OptionalCookie {
	pc := playwright.OptionalCookie{
		Name:   c.Name,
		Value:  c.Value,
		Domain: playwright.String(c.Domain),
		Path:   playwright.String(c.Path),
	}
	if c.Expires > 0 {
		pc.Expires = playwright.Float(c.Expires)
	}
	if c.HTTPOnly {
		pc.HttpOnly = playwright.Bool(true)
	}
	if c.Secure {
		pc.Secure = playwright.Bool(true)
	}
	switch c.SameSite {
	case "Lax":
		pc.SameSite = playwright.SameSiteAttributeLax
	case "Strict":
		pc.SameSite = playwright.SameSiteAttributeStrict
	case "None":
		pc.SameSite = playwright.SameSiteAttributeNone
	}
	return pc
}

func fromPlaywright(c playwright.Cookie) Cookie {
	jar := Cookie{
		Name:     c.Name,
		Value:    c.Value,
		Domain:   c.Domain,
		Path:     c.Path,
		Expires:  c.Expires,
		HTTPOnly: c.HttpOnly,
		Secure:   c.Secure,
	}
	if c.SameSite != nil {
		jar.SameSite = string(*c.SameSite)
	}
	return jar
}

// LoadCookies reads a cookie jar saved by a previous run. A missing file is
// an error the caller should treat as "cold start", not as fatal.
func LoadCookies(path string) ([]playwright.OptionalCookie, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cookies []Cookie
	if err := json.Unmarshal(data, &cookies); err != nil {
		return nil, err
	}

	out := make([]playwright.OptionalCookie, 0, len(cookies))
	for _, c := range cookies {
		out = append(out, c.toPlaywright())
	}
	return out, nil
}

// SaveCookies persists the context's cookies so the next run can skip the
// login flow while the session is still valid.
func SaveCookies(path string, cookies []playwright.Cookie) error {
	jar := make([]Cookie, 0, len(cookies))
	for _, c := range cookies {
		jar = append(jar, fromPlaywright(c))
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(jar, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
