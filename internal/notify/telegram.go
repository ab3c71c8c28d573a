package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/krw82/usedItem/internal/model"
)

type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramDeliverer sends notifications to a user's Telegram chat.
type TelegramDeliverer struct {
	api telegramAPI
}

// NewTelegramDeliverer creates a TelegramDeliverer with the given bot token.
func NewTelegramDeliverer(token string) (*TelegramDeliverer, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	return &TelegramDeliverer{api: api}, nil
}

// Deliver implements Deliverer. It fails when the user has no chat id on
// record; the dispatcher records that as a normal delivery failure.
func (d *TelegramDeliverer) Deliver(_ context.Context, user model.User, keyword model.Keyword, item model.ScrapedItem) error {
	if user.TelegramChatID == nil {
		return fmt.Errorf("user %d has no telegram chat id", user.ID)
	}
	msg := tgbotapi.NewMessage(*user.TelegramChatID, FormatNotification(keyword, item))
	msg.DisableWebPagePreview = true
	if _, err := d.api.Send(msg); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}
