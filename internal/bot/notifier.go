package bot

import (
	"context"
	"fmt"
	"log"
	"math/rand/v2"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"mentalist/internal/model"
	"mentalist/internal/service"
)

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Notifier delivers reminders and celebrations to one chat. Without a configured chat
// it binds to the first private chat that talks to the bot.
type Notifier struct {
	api  sender
	pick func(n int) int

	mu     sync.RWMutex
	chatID int64
}

func NewNotifier(api sender, chatID int64) *Notifier {
	return &Notifier{api: api, chatID: chatID, pick: rand.IntN}
}

// Bind claims chatID when no chat is bound yet and reports whether chatID is the bound chat.
func (n *Notifier) Bind(chatID int64) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.chatID == 0 {
		n.chatID = chatID
		log.Printf("[info] notifications bound to chat %d", chatID)
	}
	return n.chatID == chatID
}

func (n *Notifier) ChatID() int64 {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.chatID
}

// Notify sends a reminder with a button that completes the task.
func (n *Notifier) Notify(ctx context.Context, title, body, taskID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	chatID := n.ChatID()
	if chatID == 0 {
		return service.ErrNotifierUnavailable
	}

	msg := tgbotapi.NewMessage(chatID, reminderText(title, body))
	msg.ParseMode = tgbotapi.ModeHTML
	if taskID != "" {
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Done", cbConfirmPrefix+taskID),
		))
	}
	if _, err := n.api.Send(msg); err != nil {
		return fmt.Errorf("send reminder: %w", err)
	}
	return nil
}

// Celebrate posts the palette's emojis with a victory quote.
func (n *Notifier) Celebrate(palette model.Palette) {
	chatID := n.ChatID()
	if chatID == 0 {
		log.Printf("[info] celebration skipped: no chat bound")
		return
	}
	quote := model.VictoryQuotes[n.pick(len(model.VictoryQuotes))]
	msg := tgbotapi.NewMessage(chatID, celebrationText(palette, quote))
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := n.api.Send(msg); err != nil {
		log.Printf("[warn] send celebration: %v", err)
	}
}
