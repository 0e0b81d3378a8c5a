package media

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auto_social_publisher/failure"
)

func TestSanitizePrompt(t *testing.T) {
	assert.Equal(t, "A-cat-sitting", SanitizePrompt("A cat, sitting."))
	assert.Equal(t, "", SanitizePrompt(""))
	assert.Equal(t, "3-cats", SanitizePrompt("3. cats"))

	long := strings.Repeat("ab, ", 60)
	got := SanitizePrompt(long)
	assert.Equal(t, MaxPromptRunes, utf8.RuneCountInString(got))
	assert.True(t, strings.HasPrefix(got, "ab-ab-"))

	// truncation happens after removal, so dropped punctuation does not count
	assert.Equal(t, strings.Repeat("x", 100), SanitizePrompt(strings.Repeat("x.", 120)))
}

func TestSanitizePromptCountsRunes(t *testing.T) {
	got := SanitizePrompt(strings.Repeat("é", 150))
	assert.Equal(t, 100, utf8.RuneCountInString(got))
	assert.True(t, utf8.ValidString(got))
}

func TestGeneratorGenerate(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write([]byte("\xff\xd8jpeg"))
	}))
	defer srv.Close()

	g := NewGenerator(srv.URL+"/prompt", srv.Client(), nil)
	data, err := g.Generate(context.Background(), "A cat, sitting?")
	require.NoError(t, err)
	assert.Equal(t, []byte("\xff\xd8jpeg"), data)
	assert.Equal(t, "/prompt/A-cat-sitting%3F", gotPath)
}

func TestGeneratorStatusAndEmptyBody(t *testing.T) {
	status := http.StatusBadGateway
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))
	defer srv.Close()
	g := NewGenerator(srv.URL, srv.Client(), nil)

	_, err := g.Generate(context.Background(), "x")
	assert.ErrorIs(t, err, failure.ErrTransport)

	status = http.StatusOK
	_, err = g.Generate(context.Background(), "x")
	assert.ErrorIs(t, err, failure.ErrUpstreamShape)
}

func TestImgBBUpload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "k-123", r.FormValue("key"))
		assert.Equal(t, "0", r.FormValue("expiration"))
		f, _, err := r.FormFile("image")
		if assert.NoError(t, err) {
			b, _ := io.ReadAll(f)
			assert.Equal(t, "imgbytes", string(b))
		}
		_, _ = w.Write([]byte(`{"data":{"url":"https://i.ibb.co/abc/image.jpg"},"success":true,"status":200}`))
	}))
	defer srv.Close()

	up, err := NewImgBB(srv.URL, "k-123", "0", srv.Client(), nil)
	require.NoError(t, err)
	url, err := up.Upload(context.Background(), []byte("imgbytes"))
	require.NoError(t, err)
	assert.Equal(t, "https://i.ibb.co/abc/image.jpg", url)
}

func TestImgBBUnexpectedShape(t *testing.T) {
	for name, body := range map[string]string{
		"error payload": `{"status_code":400,"error":{"message":"Invalid API v1 key.","code":100}}`,
		"not json":      `<html>bad gateway</html>`,
		"url not str":   `{"data":{"url":42}}`,
	} {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(body))
			}))
			defer srv.Close()

			up, err := NewImgBB(srv.URL, "k", "0", srv.Client(), nil)
			require.NoError(t, err)
			_, err = up.Upload(context.Background(), []byte("x"))
			assert.ErrorIs(t, err, failure.ErrUpstreamShape)
		})
	}
}

func TestNewImgBBRequiresKey(t *testing.T) {
	_, err := NewImgBB("https://api.imgbb.com/1/upload", "", "0", nil, nil)
	assert.ErrorIs(t, err, failure.ErrAuth)
}
