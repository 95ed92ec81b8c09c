// Package poller выбирает способ получения обновлений Telegram.
package poller

import (
	"errors"
	"fmt"
	"time"

	"github.com/IT-Nick/mathquiz/internal/infra/config"
	tele "gopkg.in/telebot.v4"
)

var ErrWebhookURLRequired = errors.New("webhook mode requires webhook_url")

// NewPoller создает Poller в зависимости от режима
func NewPoller(cfg config.TelegramBot) (tele.Poller, error) {
	switch cfg.Mode {
	case config.ModeWebhook:
		if cfg.WebhookURL == "" {
			return nil, ErrWebhookURLRequired
		}
		return &tele.Webhook{
			Listen: cfg.ListenAddr,
			Endpoint: &tele.WebhookEndpoint{
				PublicURL: cfg.WebhookURL,
			},
		}, nil
	case config.ModePolling, "":
		timeout := cfg.PollInterval.Duration
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		return &tele.LongPoller{Timeout: timeout}, nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownBotMode, cfg.Mode)
	}
}
