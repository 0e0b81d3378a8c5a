package notify

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"net/http/httptest"
	"net/mail"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"auto_social_publisher/failure"
)

type staticCreds struct{ client *http.Client }

func (s staticCreds) Client(context.Context) (*http.Client, error) { return s.client, nil }

func TestRenderPreview(t *testing.T) {
	html, err := RenderPreview(Preview{
		Title:    "Launch",
		Caption:  "hello **world**<script>alert(1)</script>",
		ImageURL: "https://i.ibb.co/x.png?a=1&b=2",
	})
	require.NoError(t, err)

	assert.Contains(t, html, `<img src="https://i.ibb.co/x.png?a=1&amp;b=2" alt="Launch">`)
	assert.Contains(t, html, "<strong>world</strong>")
	assert.NotContains(t, html, "<script>")
	assert.NotContains(t, html, "Review and approve")
	assert.True(t, strings.HasPrefix(html, "<table>"))
}

func TestRenderPreviewReviewLink(t *testing.T) {
	html, err := RenderPreview(Preview{Title: "t", Caption: "c", ImageURL: "u", ReviewURL: "http://127.0.0.1:8080/approvals/r1"})
	require.NoError(t, err)
	assert.Contains(t, html, `<a href="http://127.0.0.1:8080/approvals/r1">Review and approve</a>`)
}

func TestRenderPreviewEscapesTitle(t *testing.T) {
	html, err := RenderPreview(Preview{Title: `"><b>x`, ImageURL: "u"})
	require.NoError(t, err)
	assert.NotContains(t, html, `"><b>x`)
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "🔥FOR APPROVAL🔥 Weekly tip", Subject("Weekly tip"))
}

func TestRecipient(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	logger := zap.New(core)

	assert.Equal(t, "a@example.com", Recipient("a@example.com", "12345", logger))
	assert.Equal(t, 0, logs.Len())

	assert.Equal(t, "12345", Recipient("", "12345", logger))
	assert.Equal(t, 1, logs.Len())
}

func TestNewGmailRejectsNonAddress(t *testing.T) {
	_, err := NewGmail(staticCreds{}, "", "123456789", nil)
	assert.ErrorIs(t, err, ErrInvalidRecipient)
}

func TestGmailNotify(t *testing.T) {
	var raw string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/gmail/v1/users/me/messages/send", r.URL.Path)
		var body struct {
			Raw string `json:"raw"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		raw = body.Raw
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"m-1","threadId":"t-1"}`))
	}))
	defer srv.Close()

	g, err := NewGmail(staticCreds{client: srv.Client()}, srv.URL+"/", "ops@example.com", nil)
	require.NoError(t, err)
	require.NoError(t, g.Notify(context.Background(), Preview{Title: "Weekly", Caption: "cap", ImageURL: "https://img"}))

	decoded, err := base64.URLEncoding.DecodeString(raw)
	require.NoError(t, err)
	msg, err := mail.ReadMessage(strings.NewReader(string(decoded)))
	require.NoError(t, err)

	assert.Equal(t, "<ops@example.com>", msg.Header.Get("To"))
	subject, err := new(mime.WordDecoder).DecodeHeader(msg.Header.Get("Subject"))
	require.NoError(t, err)
	assert.Equal(t, "🔥FOR APPROVAL🔥 Weekly", subject)
	assert.Contains(t, msg.Header.Get("Content-Type"), "text/html")

	body, err := io.ReadAll(base64.NewDecoder(base64.StdEncoding, stripCRLF(msg.Body)))
	require.NoError(t, err)
	assert.Contains(t, string(body), `<img src="https://img"`)
	assert.Contains(t, string(body), "<p>cap</p>")
}

func TestGmailNotifyTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"code":500,"message":"down"}}`))
	}))
	defer srv.Close()

	g, err := NewGmail(staticCreds{client: srv.Client()}, srv.URL+"/", "ops@example.com", nil)
	require.NoError(t, err)
	err = g.Notify(context.Background(), Preview{Title: "t"})
	assert.ErrorIs(t, err, failure.ErrTransport)
}

func stripCRLF(r io.Reader) io.Reader {
	b, _ := io.ReadAll(r)
	return strings.NewReader(strings.NewReplacer("\r", "", "\n", "").Replace(string(b)))
}
