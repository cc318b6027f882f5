// Package telegram provides a client for sending notifications via Telegram Bot API.
// It formats evaluation results and run errors into human-readable messages and handles
// delivery with retry logic for reliability.
package telegram

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/rewired-gh/dltcheck/internal/models"
)

// sender is the part of tgbotapi.BotAPI the client uses.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Client handles Telegram notifications
type Client struct {
	bot            sender
	chatID         int64
	maxRetries     int
	retryDelayBase time.Duration
}

// NewClient creates a new Telegram client
func NewClient(botToken, chatID string, maxRetries int, retryDelayBase time.Duration) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	chatIDInt, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID: %w", err)
	}

	return newClient(bot, chatIDInt, maxRetries, retryDelayBase), nil
}

func newClient(bot sender, chatID int64, maxRetries int, retryDelayBase time.Duration) *Client {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}
	return &Client{
		bot:            bot,
		chatID:         chatID,
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
	}
}

// SendEvaluation sends the summary of one evaluation.
func (c *Client) SendEvaluation(e *models.Evaluation) error {
	return c.send(formatEvaluation(e))
}

// SendError sends a failed-run notice.
func (c *Client) SendError(kind, message string) error {
	text := fmt.Sprintf("⚠️ *dltcheck run failed*\n\n%s: %s",
		escapeMarkdownV2(kind), escapeMarkdownV2(message))
	return c.send(text)
}

func (c *Client) send(text string) error {
	msg := tgbotapi.NewMessage(c.chatID, text)
	msg.ParseMode = "MarkdownV2"

	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		_, err := c.bot.Send(msg)
		if err == nil {
			return nil
		}
		lastErr = err
		if i < c.maxRetries-1 {
			time.Sleep(c.retryDelayBase * time.Duration(i+1))
		}
	}

	return fmt.Errorf("failed to send message after %d retries: %w", c.maxRetries, lastErr)
}

// formatEvaluation formats an evaluation into a Telegram message
func formatEvaluation(e *models.Evaluation) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("🎱 *DLT %s evaluation*\n\n", escapeMarkdownV2(e.EvalPeriod)))
	b.WriteString(fmt.Sprintf("Report cutoff: %s\n", escapeMarkdownV2(e.CutoffPeriod)))
	b.WriteString(fmt.Sprintf("Winning: %s \\+ %s\n",
		escapeMarkdownV2(joinNumbers(e.Winning.Front)), escapeMarkdownV2(joinNumbers(e.Winning.Back))))
	b.WriteString(fmt.Sprintf("💰 Total: *%s*\n\n", escapeMarkdownV2(humanize.Comma(e.TotalPrize)+" 元")))

	writeSet(&b, "Discrete", e.Discrete)
	writeSet(&b, "Complex", e.Complex)

	for _, w := range e.Warnings {
		b.WriteString(fmt.Sprintf("ℹ️ %s\n", escapeMarkdownV2(w)))
	}
	return b.String()
}

func writeSet(b *strings.Builder, name string, r models.SetResult) {
	b.WriteString(fmt.Sprintf("*%s* \\(%d tickets\\): %s\n",
		name, r.TicketCount, escapeMarkdownV2(humanize.Comma(r.Prize)+" 元")))
	for _, tier := range models.Tiers {
		if n := r.Breakdown[tier]; n > 0 {
			b.WriteString(fmt.Sprintf("   %s × %d\n", tier.Label(), n))
		}
	}
	b.WriteString("\n")
}

func joinNumbers(nums []int) string {
	parts := make([]string, len(nums))
	for i, n := range nums {
		parts[i] = fmt.Sprintf("%02d", n)
	}
	return strings.Join(parts, " ")
}

// escapeMarkdownV2 escapes special characters for Telegram MarkdownV2
func escapeMarkdownV2(text string) string {
	// Characters that need escaping in MarkdownV2:
	// _ * [ ] ( ) ~ ` > # + - = | { } . !
	var b strings.Builder
	for _, char := range text {
		switch char {
		case '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!':
			b.WriteRune('\\')
		}
		b.WriteRune(char)
	}
	return b.String()
}
