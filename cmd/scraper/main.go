package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go-linkedin-harvester/internal/browser"
	"go-linkedin-harvester/internal/config"
	"go-linkedin-harvester/internal/dedup"
	"go-linkedin-harvester/internal/reporter"
	"go-linkedin-harvester/internal/run"
	"go-linkedin-harvester/internal/scraper/linkedin"
	"go-linkedin-harvester/internal/session"
	"go-linkedin-harvester/internal/sink"
)

func main() {
	// realMain returns instead of exiting so deferred cleanup (browser,
	// output file) always runs before the process dies.
	if err := realMain(); err != nil {
		log.Printf("❌ Run aborted: %v", err)
		os.Exit(1)
	}
}

func realMain() error {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		return err
	}
	log.Printf("🔧 Config loaded. Query: %q in %q, %d pages -> %s",
		cfg.Query.Keywords, cfg.Query.Location, cfg.Query.PageCount, cfg.OutputPath)

	// interruption between items leaves the CSV valid and closed
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var notify *reporter.TelegramReporter
	if cfg.TelegramToken != "" && cfg.TelegramChatID != 0 {
		notify, err = reporter.NewTelegramReporter(cfg.TelegramToken, cfg.TelegramChatID)
		if err != nil {
			log.Printf("⚠️ Telegram reporter disabled: %v", err)
			notify = nil
		} else {
			log.Println("🤖 Telegram reporter initialized.")
		}
	}

	mgr, err := browser.NewManager(cfg.Headless)
	if err != nil {
		return err
	}
	defer mgr.Close()

	cookies, err := browser.LoadCookies(cfg.CookiesPath)
	if err != nil {
		log.Printf("🍪 No saved cookies (%v), starting cold.", err)
	} else {
		log.Printf("🍪 Loaded %d saved cookies.", len(cookies))
	}

	browserCtx, err := mgr.NewContext(cookies)
	if err != nil {
		return err
	}
	page, err := browserCtx.NewPage()
	if err != nil {
		return err
	}
	log.Println("✅ Browser initialized successfully!")

	writer, err := sink.Open(cfg.OutputPath)
	if err != nil {
		return err
	}
	defer writer.Close()

	sess := session.New(page, session.Credentials{
		Username: cfg.LinkedInUser,
		Password: cfg.LinkedInPass,
	})
	site := linkedin.New(sess, cfg.Query, run.DefaultRetryPolicy())
	orch := run.New(sess, site, site, dedup.New(), writer)

	summary, runErr := orch.Run(ctx)

	// persist the session for the next run's warm start
	if current, err := browserCtx.Cookies(); err == nil {
		if err := browser.SaveCookies(cfg.CookiesPath, current); err != nil {
			log.Printf("⚠️ Could not save cookies: %v", err)
		}
	}

	log.Printf("📊 Summary: %s", summary)

	if runErr != nil {
		if notify != nil {
			if err := notify.SendAbort(runErr); err != nil {
				log.Printf("⚠️ Failed to send abort notification: %v", err)
			}
		}
		return runErr
	}

	log.Println("🏁 Execution finished.")
	if notify != nil {
		if err := notify.SendSummary(summary); err != nil {
			log.Printf("⚠️ Failed to send summary notification: %v", err)
		}
	}
	return nil
}
