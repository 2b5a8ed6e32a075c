package notify

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTelegram(t *testing.T) {
	_, err := NewTelegram("", 1)
	assert.Error(t, err)
	_, err = NewTelegram("tok", 0)
	assert.Error(t, err)
}

func TestTelegramSend(t *testing.T) {
	var got http.Header
	var form map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bottok/sendMessage", r.URL.Path)
		assert.NoError(t, r.ParseForm())
		got = r.Header
		form = map[string]string{
			"chat_id":    r.PostForm.Get("chat_id"),
			"text":       r.PostForm.Get("text"),
			"parse_mode": r.PostForm.Get("parse_mode"),
			"preview":    r.PostForm.Get("disable_web_page_preview"),
			"silent":     r.PostForm.Get("disable_notification"),
		}
		if r.PostForm.Get("text") == "fail" {
			http.Error(w, "bad request", http.StatusBadRequest)
		}
	}))
	defer srv.Close()

	tg, err := NewTelegram("tok", 42)
	require.NoError(t, err)
	tg.apiBase = srv.URL

	require.NoError(t, tg.Send(context.Background(), "<b>gamma unavailable</b>"))
	assert.Equal(t, "application/x-www-form-urlencoded", got.Get("Content-Type"))
	assert.Equal(t, "42", form["chat_id"])
	assert.Equal(t, "HTML", form["parse_mode"])
	assert.Equal(t, "<b>gamma unavailable</b>", form["text"])
	assert.Equal(t, "true", form["preview"])
	assert.Empty(t, form["silent"])

	require.NoError(t, tg.SendMessage(context.Background(), Message{Text: "SPX recovered", Silent: true}))
	assert.Empty(t, form["parse_mode"])
	assert.Equal(t, "true", form["silent"])

	err = tg.Send(context.Background(), "fail")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}

func TestGammaUnavailable(t *testing.T) {
	at := time.Date(2020, 7, 22, 15, 0, 0, 0, time.FixedZone("EDT", -4*3600))
	msg := GammaUnavailable("SPX", errors.New("chain <nil>"), at)
	assert.Contains(t, msg, "symbol=SPX")
	assert.Contains(t, msg, "time=2020-07-22T19:00:00Z")
	assert.Contains(t, msg, "chain &lt;nil&gt;")
	assert.NoError(t, Discard{}.Send(context.Background(), msg))
}
