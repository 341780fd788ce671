package telegram

import "context"

// Client defines an interface for sending messages via a Telegram bot.
// This helps in decoupling the application logic from the specific bot library.
type Client interface {
	SendMessage(ctx context.Context, recipientChatID int64, text string) error
}
