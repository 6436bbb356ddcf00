// Package notify forwards run reports and action events to Telegram.
package notify

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/user/crowquill/internal/metrics"
)

const maxTelegramMessage = 4096

// Telegram pushes notable events and session summaries to a chat.
// Implements metrics.Sink for failure events.
type Telegram struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

func NewTelegram(token string, chatID int64) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}
	return &Telegram{bot: bot, chatID: chatID}, nil
}

// Record forwards failure and rejection events; successes stay quiet to
// keep the chat readable.
func (t *Telegram) Record(event metrics.Event) {
	if event.Outcome == metrics.OutcomeSuccess || event.Outcome == metrics.OutcomeSkipped {
		return
	}
	text := fmt.Sprintf("⚠️ %s %s for %s", event.Kind, event.Outcome, event.Account)
	if event.Detail != "" {
		text += ": " + event.Detail
	}
	t.send(text)
}

// SendRunReport posts a counter summary after a run.
func (t *Telegram) SendRunReport(counters map[string]int) {
	if len(counters) == 0 {
		t.send("Run finished: no actions taken.")
		return
	}
	keys := make([]string, 0, len(counters))
	for k := range counters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("Run finished:\n")
	for _, k := range keys {
		fmt.Fprintf(&b, "- %s: %d\n", k, counters[k])
	}
	t.send(b.String())
}

func (t *Telegram) send(text string) {
	for _, part := range splitMessage(text) {
		msg := tgbotapi.NewMessage(t.chatID, part)
		if _, err := t.bot.Send(msg); err != nil {
			slog.Warn("telegram send failed", "error", err)
		}
	}
}

func splitMessage(text string) []string {
	if len(text) <= maxTelegramMessage {
		return []string{text}
	}
	var parts []string
	for len(text) > 0 {
		end := maxTelegramMessage
		if end > len(text) {
			end = len(text)
		}
		parts = append(parts, text[:end])
		text = text[end:]
	}
	return parts
}
