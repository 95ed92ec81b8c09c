package poller

import (
	"errors"
	"testing"
	"time"

	"github.com/IT-Nick/mathquiz/internal/infra/config"
	tele "gopkg.in/telebot.v4"
)

func TestNewPoller_Polling(t *testing.T) {
	p, err := NewPoller(config.TelegramBot{Mode: config.ModePolling, PollInterval: config.Duration{Duration: 5 * time.Second}})
	if err != nil {
		t.Fatalf("NewPoller: %v", err)
	}
	lp, ok := p.(*tele.LongPoller)
	if !ok || lp.Timeout != 5*time.Second {
		t.Fatalf("Ожидался LongPoller с таймаутом 5s, получено %#v", p)
	}
}

func TestNewPoller_Webhook(t *testing.T) {
	if _, err := NewPoller(config.TelegramBot{Mode: config.ModeWebhook}); !errors.Is(err, ErrWebhookURLRequired) {
		t.Fatalf("Ожидалась ErrWebhookURLRequired, получено %v", err)
	}

	p, err := NewPoller(config.TelegramBot{Mode: config.ModeWebhook, WebhookURL: "https://example.org/hook", ListenAddr: ":8443"})
	if err != nil {
		t.Fatalf("NewPoller: %v", err)
	}
	wh, ok := p.(*tele.Webhook)
	if !ok || wh.Listen != ":8443" || wh.Endpoint.PublicURL != "https://example.org/hook" {
		t.Fatalf("Неожиданный webhook: %#v", p)
	}
}

func TestNewPoller_UnknownMode(t *testing.T) {
	if _, err := NewPoller(config.TelegramBot{Mode: "carrier-pigeon"}); !errors.Is(err, config.ErrUnknownBotMode) {
		t.Fatalf("Ожидалась ErrUnknownBotMode, получено %v", err)
	}
}
