package document

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gdocs "google.golang.org/api/docs/v1"

	"auto_social_publisher/failure"
)

type staticCreds struct{ client *http.Client }

func (s staticCreds) Client(context.Context) (*http.Client, error) { return s.client, nil }

const docBody = `{
  "documentId": "schema-1",
  "body": {"content": [
    {"sectionBreak": {}},
    {"paragraph": {"elements": [
      {"textRun": {"content": "<instagram>{\"foo\":1}</instagram>\n"}},
      {"inlineObjectElement": {"inlineObjectId": "img"}}
    ]}},
    {"table": {}},
    {"paragraph": {"elements": [
      {"textRun": {"content": "<root>{\"name\":"}},
      {"textRun": {"content": "\"R\"}</root>\n"}}
    ]}}
  ]}
}`

func docsServer(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		w.Header().Set("Content-Type", "application/json")
		switch strings.TrimPrefix(r.URL.Path, "/v1/documents/") {
		case "schema-1":
			_, _ = w.Write([]byte(docBody))
		case "system-1":
			_, _ = w.Write([]byte(`{"body":{"content":[{"paragraph":{"elements":[{"textRun":{"content":"<system>S</system>"}}]}}]}}`))
		case "private":
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"error":{"code":403,"message":"denied"}}`))
		case "broken":
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":{"code":500,"message":"oops"}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"code":404,"message":"not found"}}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestFetcher(srv *httptest.Server) *Fetcher {
	return NewFetcher(staticCreds{client: srv.Client()}, srv.URL+"/", nil)
}

func TestFetchConcatenatesTextRuns(t *testing.T) {
	f := newTestFetcher(docsServer(t, nil))

	text, err := f.Fetch(context.Background(), "schema-1")
	require.NoError(t, err)
	assert.Equal(t, "<instagram>{\"foo\":1}</instagram>\n<root>{\"name\":\"R\"}</root>\n", text)
}

func TestFetchErrors(t *testing.T) {
	f := newTestFetcher(docsServer(t, nil))
	ctx := context.Background()

	_, err := f.Fetch(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.Fetch(ctx, "private")
	assert.ErrorIs(t, err, failure.ErrAuth)

	_, err = f.Fetch(ctx, "broken")
	assert.ErrorIs(t, err, failure.ErrTransport)

	_, err = f.Fetch(ctx, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFetchAllKeepsOrder(t *testing.T) {
	var hits atomic.Int32
	f := newTestFetcher(docsServer(t, &hits))

	texts, err := f.FetchAll(context.Background(), "system-1", "schema-1")
	require.NoError(t, err)
	require.Len(t, texts, 2)
	assert.Equal(t, "<system>S</system>", texts[0])
	assert.Contains(t, texts[1], "<instagram>")
	assert.Equal(t, int32(2), hits.Load())
}

func TestFetchAllFailsOnAnyError(t *testing.T) {
	f := newTestFetcher(docsServer(t, nil))
	texts, err := f.FetchAll(context.Background(), "schema-1", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Nil(t, texts)
}

func TestPlainTextNil(t *testing.T) {
	assert.Equal(t, "", PlainText(nil))
	assert.Equal(t, "", PlainText(&gdocs.Document{}))
}
