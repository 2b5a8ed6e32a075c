package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

type Notifier interface {
	Send(ctx context.Context, text string) error
}

type Telegram struct {
	token   string
	chatID  int64
	client  *http.Client
	apiBase string
}

// NewTelegram returns a Telegram notifier, or an error when either
// setting is missing.
func NewTelegram(token string, chatID int64) (*Telegram, error) {
	if token == "" || chatID == 0 {
		return nil, errors.New("missing TELEGRAM_BOT_TOKEN or TELEGRAM_CHAT_ID")
	}
	return &Telegram{
		token:   token,
		chatID:  chatID,
		client:  &http.Client{Timeout: 3 * time.Second},
		apiBase: "https://api.telegram.org",
	}, nil
}

// Message is one sendMessage call. Alerts carry symbols and error text
// only, so link previews are always off.
type Message struct {
	Text   string
	HTML   bool
	Silent bool
}

func (m Message) form(chatID int64) url.Values {
	form := url.Values{}
	form.Set("chat_id", strconv.FormatInt(chatID, 10))
	form.Set("text", m.Text)
	form.Set("disable_web_page_preview", "true")
	if m.HTML {
		form.Set("parse_mode", "HTML")
	}
	if m.Silent {
		form.Set("disable_notification", "true")
	}
	return form
}

// Send posts text as an HTML message.
func (t *Telegram) Send(ctx context.Context, text string) error {
	return t.SendMessage(ctx, Message{Text: text, HTML: true})
}

func (t *Telegram) SendMessage(ctx context.Context, m Message) error {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost,
		fmt.Sprintf("%s/bot%s/sendMessage", t.apiBase, t.token),
		strings.NewReader(m.form(t.chatID).Encode()),
	)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("[NOTIFY] telegram sendMessage: %d %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	return nil
}
