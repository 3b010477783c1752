// Optional Telegram notification of the run outcome.

package reporter

import (
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"go-linkedin-harvester/internal/run"
)

type TelegramReporter struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

func NewTelegramReporter(token string, chatID int64) (*TelegramReporter, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram bot: %w", err)
	}
	return &TelegramReporter{bot: bot, chatID: chatID}, nil
}

func (t *TelegramReporter) SendSummary(sum run.Summary) error {
	text := fmt.Sprintf(
		"✅ <b>Scrape finished</b>\n"+
			"📄 Pages visited: %d (empty: %d)\n"+
			"👀 Items seen: %d\n"+
			"💾 Records written: %d\n"+
			"🔁 Duplicates skipped: %d\n"+
			"⚠️ Extraction failures: %d\n"+
			"⏱ Elapsed: %s",
		sum.PagesVisited, sum.EmptyPages, sum.ItemsSeen, sum.RecordsWritten,
		sum.DuplicatesSkipped, sum.ExtractionFailures, sum.Elapsed.Round(time.Second),
	)
	return t.send(text)
}

func (t *TelegramReporter) SendAbort(reason error) error {
	return t.send(fmt.Sprintf("❌ <b>Scrape aborted</b>:\n%v", reason))
}

func (t *TelegramReporter) send(text string) error {
	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.ParseMode = "HTML"
	_, err := t.bot.Send(msg)
	return err
}
