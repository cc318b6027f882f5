package telegram

import (
	"errors"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/rewired-gh/dltcheck/internal/models"
)

type fakeBot struct {
	failures int
	calls    int
	sent     []string
}

func (f *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.calls++
	if f.calls <= f.failures {
		return tgbotapi.Message{}, errors.New("flood wait")
	}
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, msg.Text)
	}
	return tgbotapi.Message{}, nil
}

func sampleEvaluation() *models.Evaluation {
	return &models.Evaluation{
		ID:           "e1",
		EvalPeriod:   "24002",
		CutoffPeriod: "24001",
		Winning:      models.Draw{Period: "24002", Front: []int{1, 2, 3, 4, 5}, Back: []int{6, 7}},
		Discrete: models.SetResult{
			TicketCount: 2,
			Prize:       10_000_200,
			Breakdown:   map[models.Tier]int{1: 1, 6: 1},
		},
		Complex:    models.SetResult{TicketCount: 0, Breakdown: map[models.Tier]int{}},
		TotalPrize: 10_000_200,
		Warnings:   []string{"pool too large (cap 20000)."},
	}
}

func TestEscapeMarkdownV2(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"1.5", "1\\.5"},
		{"a_b*c", "a\\_b\\*c"},
		{"(x)", "\\(x\\)"},
		{"奖金!", "奖金\\!"},
	}
	for _, tt := range tests {
		if got := escapeMarkdownV2(tt.in); got != tt.want {
			t.Errorf("escapeMarkdownV2(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatEvaluation(t *testing.T) {
	msg := formatEvaluation(sampleEvaluation())

	for _, want := range []string{
		"DLT 24002 evaluation",
		"Winning: 01 02 03 04 05 \\+ 06 07",
		"*10,000,200 元*",
		"一等奖 × 1",
		"六等奖 × 1",
		"*Complex* \\(0 tickets\\): 0 元",
		"pool too large \\(cap 20000\\)\\.",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
}

func TestSendRetries(t *testing.T) {
	bot := &fakeBot{failures: 2}
	c := newClient(bot, 42, 3, time.Millisecond)

	if err := c.SendEvaluation(sampleEvaluation()); err != nil {
		t.Fatalf("SendEvaluation failed: %v", err)
	}
	if bot.calls != 3 || len(bot.sent) != 1 {
		t.Errorf("calls=%d sent=%d", bot.calls, len(bot.sent))
	}
}

func TestSendGivesUp(t *testing.T) {
	bot := &fakeBot{failures: 10}
	c := newClient(bot, 42, 2, time.Millisecond)

	if err := c.SendError("NoMatchingReport", "no report for 24001"); err == nil {
		t.Error("expected error after retries")
	}
	if bot.calls != 2 {
		t.Errorf("expected 2 attempts, got %d", bot.calls)
	}
}
