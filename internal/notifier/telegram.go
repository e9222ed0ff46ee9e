package notifier

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/CunXin1/fearwatch/internal/models"
)

// Telegram pushes operational notices to the operator chat.
type Telegram struct {
	bot            *tgbotapi.BotAPI
	chatID         int64
	maxRetries     int
	retryDelayBase time.Duration
}

// NewTelegram creates a new Telegram operator client.
func NewTelegram(botToken, chatID string, maxRetries int, retryDelayBase time.Duration) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	chatIDInt, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID: %w", err)
	}

	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}

	return &Telegram{
		bot:            bot,
		chatID:         chatIDInt,
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
	}, nil
}

// sendMarkdownV2 sends a MarkdownV2 message with linear-backoff retry.
func (t *Telegram) sendMarkdownV2(text string) error {
	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.ParseMode = "MarkdownV2"

	var lastErr error
	for i := 0; i < t.maxRetries; i++ {
		if _, err := t.bot.Send(msg); err == nil {
			return nil
		} else {
			lastErr = err
		}
		time.Sleep(t.retryDelayBase * time.Duration(i+1))
	}
	return fmt.Errorf("failed after %d retries: %w", t.maxRetries, lastErr)
}

// SendError reports a failed daily cycle.
// Call this only on the first occurrence of a consecutive error sequence.
func (t *Telegram) SendError(cycleErr error) error {
	text := fmt.Sprintf("⚠️ *Daily cycle failed*\n`%s`", escapeMarkdownV2(cycleErr.Error()))
	return t.sendMarkdownV2(text)
}

// SendRecovery reports recovery after consecutive failures.
func (t *Telegram) SendRecovery(failureCount int) error {
	text := fmt.Sprintf("✅ *Daily cycle recovered* after %d consecutive failure\\(s\\)", failureCount)
	return t.sendMarkdownV2(text)
}

// SendDigest summarizes one completed daily cycle.
func (t *Telegram) SendDigest(score float64, state models.MarketState, subscribers, emailsSent int) error {
	text := fmt.Sprintf(
		"📊 *Fear \\& Greed daily run*\n"+
			"Score: %s\n"+
			"State: %s\n"+
			"Subscribers: %d, emails sent: %d",
		escapeMarkdownV2(fmt.Sprintf("%.2f", score)),
		escapeMarkdownV2(string(state)),
		subscribers, emailsSent,
	)
	return t.sendMarkdownV2(text)
}

// escapeMarkdownV2 escapes special characters for Telegram MarkdownV2.
func escapeMarkdownV2(text string) string {
	var b strings.Builder
	b.Grow(len(text) + len(text)/4) // pre-allocate with room for escapes
	for _, char := range text {
		switch char {
		case '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!':
			b.WriteByte('\\')
		}
		b.WriteRune(char)
	}
	return b.String()
}
