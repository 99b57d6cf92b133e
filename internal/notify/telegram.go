// Package notify delivers listing notifications to chat destinations.
// Delivery is fire-and-forget per destination: one sequential attempt each,
// no retry, no batching.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultBaseURL = "https://api.telegram.org"

// Telegram sends messages through the Bot API to one or more chats.
type Telegram struct {
	client  *resty.Client
	token   string
	chatIDs []string
}

func NewTelegram(token string, chatIDs []string) *Telegram {
	client := resty.New().
		SetBaseURL(defaultBaseURL).
		SetTimeout(15 * time.Second)
	return &Telegram{client: client, token: token, chatIDs: chatIDs}
}

// SetBaseURL points the client at a different API host. Used by tests.
func (t *Telegram) SetBaseURL(u string) { t.client.SetBaseURL(u) }

type sendMessageReq struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

// Broadcast delivers text to every configured chat. A failure for one chat
// is logged and does not prevent attempting the rest. Returns the number of
// successful deliveries.
func (t *Telegram) Broadcast(ctx context.Context, text string) int {
	delivered := 0
	for _, chatID := range t.chatIDs {
		if err := t.send(ctx, chatID, text); err != nil {
			slog.Error("failed to deliver notification", "chat_id", chatID, "error", err)
			continue
		}
		slog.Debug("notification delivered", "chat_id", chatID)
		delivered++
	}
	return delivered
}

func (t *Telegram) send(ctx context.Context, chatID, text string) error {
	res, err := t.client.R().
		SetContext(ctx).
		SetBody(sendMessageReq{
			ChatID:                chatID,
			Text:                  text,
			DisableWebPagePreview: true,
		}).
		Post("/bot" + t.token + "/sendMessage")
	if err != nil {
		return err
	}
	if res.IsError() {
		return fmt.Errorf("telegram api status %s: %s", res.Status(), res.String())
	}
	return nil
}
