// Load envs from .env
// Load YAML config
// Apply CLI flag overrides
// Validate and provide default values

package config

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const yamlPath = "configs/config.yaml"

// SearchQuery defines the traversal domain for one run. It is constructed
// once at startup and read-only thereafter.
type SearchQuery struct {
	Keywords  string
	Location  string
	GeoID     string
	PageCount int
}

// Config holds all runtime configuration for the scraper.
type Config struct {
	Query       SearchQuery
	OutputPath  string
	CookiesPath string
	Headless    bool

	// credentials are opaque here; sourcing is env-only
	LinkedInUser string
	LinkedInPass string

	// optional run-summary notification
	TelegramToken  string
	TelegramChatID int64
}

// fileConfig mirrors configs/config.yaml. Everything is optional; flags and
// env override it.
type fileConfig struct {
	Keywords       string `yaml:"keywords"`
	Location       string `yaml:"location"`
	GeoID          string `yaml:"geo_id"`
	Pages          int    `yaml:"pages"`
	OutputPath     string `yaml:"output_path"`
	CookiesPath    string `yaml:"cookies_path"`
	TelegramToken  string `yaml:"telegram_token"`
	TelegramChatID int64  `yaml:"telegram_chat_id"`
}

// Load builds the run configuration: .env, then config.yaml, then flags,
// with flags winning. Returns an error instead of exiting so the caller
// controls process semantics.
func Load(args []string) (*Config, error) {
	_ = godotenv.Load()

	fc, err := loadFile(yamlPath)
	if err != nil {
		return nil, err
	}

	// yaml supplies flag defaults so either source works alone
	defaults := fileConfig{
		Keywords:    "junior data analyst",
		Location:    "Spain",
		GeoID:       "105646813",
		Pages:       13,
		OutputPath:  "job_offers.csv",
		CookiesPath: ".cookies/cookies-linkedin.json",
	}
	merge(&defaults, fc)

	fs := flag.NewFlagSet("scraper", flag.ContinueOnError)
	keywords := fs.String("keywords", defaults.Keywords, "search keywords")
	location := fs.String("location", defaults.Location, "search location")
	geoID := fs.String("geoId", defaults.GeoID, "LinkedIn geo identifier (optional)")
	pages := fs.Int("pages", defaults.Pages, "number of listing pages to crawl")
	out := fs.String("out", defaults.OutputPath, "output CSV path")
	headless := fs.Bool("headless", false, "run the browser headless")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg := &Config{
		Query: SearchQuery{
			Keywords:  *keywords,
			Location:  *location,
			GeoID:     *geoID,
			PageCount: *pages,
		},
		OutputPath:     *out,
		CookiesPath:    defaults.CookiesPath,
		Headless:       *headless,
		LinkedInUser:   os.Getenv("LINKEDIN_USER"),
		LinkedInPass:   os.Getenv("LINKEDIN_PASS"),
		TelegramToken:  defaults.TelegramToken,
		TelegramChatID: defaults.TelegramChatID,
	}

	if token := os.Getenv("TELEGRAM_BOT_TOKEN"); token != "" {
		cfg.TelegramToken = token
	}
	if chatID := os.Getenv("TELEGRAM_CHAT_ID"); chatID != "" {
		if _, err := fmt.Sscanf(chatID, "%d", &cfg.TelegramChatID); err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_CHAT_ID %q: %w", chatID, err)
		}
	}

	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	if c.Query.Keywords == "" {
		return fmt.Errorf("keywords are required")
	}
	if c.Query.Location == "" {
		return fmt.Errorf("location is required")
	}
	if c.Query.PageCount < 1 {
		return fmt.Errorf("pages must be a positive integer, got %d", c.Query.PageCount)
	}
	if c.LinkedInUser == "" || c.LinkedInPass == "" {
		return fmt.Errorf("set LINKEDIN_USER and LINKEDIN_PASS (env or .env)")
	}
	return nil
}

func loadFile(path string) (fileConfig, error) {
	var fc fileConfig
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fc, nil
		}
		return fc, fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fc, fmt.Errorf("parse %s: %w", path, err)
	}
	return fc, nil
}

func merge(dst *fileConfig, src fileConfig) {
	if src.Keywords != "" {
		dst.Keywords = src.Keywords
	}
	if src.Location != "" {
		dst.Location = src.Location
	}
	if src.GeoID != "" {
		dst.GeoID = src.GeoID
	}
	if src.Pages > 0 {
		dst.Pages = src.Pages
	}
	if src.OutputPath != "" {
		dst.OutputPath = src.OutputPath
	}
	if src.CookiesPath != "" {
		dst.CookiesPath = src.CookiesPath
	}
	if src.TelegramToken != "" {
		dst.TelegramToken = src.TelegramToken
	}
	if src.TelegramChatID != 0 {
		dst.TelegramChatID = src.TelegramChatID
	}
}
