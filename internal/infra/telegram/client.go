// internal/infra/telegram/client.go
package telegram

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
	"gopkg.in/telebot.v3"
)

// Telegram allows roughly one message per second into a single chat.
const defaultSendInterval = time.Second

// sender is the subset of *telebot.Bot used by the adapter.
type sender interface {
	Send(to telebot.Recipient, what interface{}, opts ...interface{}) (*telebot.Message, error)
}

// TelebotAdapter implements the Client interface using the gopkg.in/telebot.v3 library.
type TelebotAdapter struct {
	bot     sender
	limiter *rate.Limiter
}

// NewBot creates a send-only bot. The token is verified against the API unless offline is set.
func NewBot(token string, offline bool) (*telebot.Bot, error) {
	bot, err := telebot.NewBot(telebot.Settings{
		Token:   token,
		Offline: offline,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	return bot, nil
}

func NewTelebotAdapter(b *telebot.Bot) *TelebotAdapter {
	return newAdapter(b, defaultSendInterval)
}

func newAdapter(b sender, interval time.Duration) *TelebotAdapter {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &TelebotAdapter{bot: b, limiter: rate.NewLimiter(limit, 1)}
}

// SendMessage sends a plain-text message to the specified chat.
func (tba *TelebotAdapter) SendMessage(ctx context.Context, recipientChatID int64, text string) error {
	if err := tba.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("send to chat %d not attempted: %w", recipientChatID, err)
	}
	if _, err := tba.bot.Send(telebot.ChatID(recipientChatID), text); err != nil {
		return fmt.Errorf("send to chat %d: %w", recipientChatID, err)
	}
	return nil
}
