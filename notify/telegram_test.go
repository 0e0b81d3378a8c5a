package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentPhoto struct {
	chatID, photo, caption string
}

func botServer(t *testing.T) (*httptest.Server, *[]sentPhoto) {
	t.Helper()
	var sent []sentPhoto
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/botT0KEN/getMe":
			_, _ = w.Write([]byte(`{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"Approvals","username":"approvals_bot"}}`))
		case "/botT0KEN/sendPhoto":
			assert.NoError(t, r.ParseForm())
			sent = append(sent, sentPhoto{r.FormValue("chat_id"), r.FormValue("photo"), r.FormValue("caption")})
			_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":7,"date":1,"chat":{"id":42,"type":"private"}}}`))
		default:
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"ok":false,"error_code":401,"description":"Unauthorized"}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &sent
}

func TestTelegramNotify(t *testing.T) {
	srv, sent := botServer(t)

	tg, err := NewTelegram("T0KEN", "42", srv.URL+"/bot%s/%s", srv.Client(), nil)
	require.NoError(t, err)

	err = tg.Notify(context.Background(), Preview{Title: "Weekly", Caption: "body", ImageURL: "https://i.ibb.co/x.jpg"})
	require.NoError(t, err)

	require.Len(t, *sent, 1)
	got := (*sent)[0]
	assert.Equal(t, "42", got.chatID)
	assert.Equal(t, "https://i.ibb.co/x.jpg", got.photo)
	assert.Equal(t, "🔥FOR APPROVAL🔥 Weekly\n\nbody", got.caption)
}

func TestTelegramCaptionTruncated(t *testing.T) {
	srv, sent := botServer(t)
	tg, err := NewTelegram("T0KEN", "@approvals", srv.URL+"/bot%s/%s", srv.Client(), nil)
	require.NoError(t, err)

	require.NoError(t, tg.Notify(context.Background(), Preview{Title: "t", Caption: strings.Repeat("ж", 2000), ImageURL: "u"}))
	require.Len(t, *sent, 1)
	assert.Equal(t, "@approvals", (*sent)[0].chatID)
	assert.Equal(t, maxCaptionRunes, utf8.RuneCountInString((*sent)[0].caption))
}

func TestNewTelegramBadToken(t *testing.T) {
	srv, _ := botServer(t)
	_, err := NewTelegram("wrong", "42", srv.URL+"/bot%s/%s", srv.Client(), nil)
	assert.Error(t, err)

	_, err = NewTelegram("T0KEN", "not-a-chat", srv.URL+"/bot%s/%s", srv.Client(), nil)
	assert.ErrorIs(t, err, ErrInvalidRecipient)
}
