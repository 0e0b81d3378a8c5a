package approval

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

var sample = Request{
	RunID:       "run-1",
	Title:       "Morning coffee",
	Caption:     "Fresh **beans** today",
	ImageURL:    "https://i.ibb.co/x/cat.png",
	PreviewHTML: "<table>preview</table>",
}

func TestConsole(t *testing.T) {
	tests := []struct {
		name    string
		reply   bool
		err     error
		want    bool
		wantErr error
	}{
		{name: "approve", reply: true, want: true},
		{name: "reject", reply: false, want: false},
		{name: "interrupt", err: terminal.InterruptErr, wantErr: ErrAborted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			var asked string
			c := NewConsole(&out, "notty")
			c.Confirm = func(msg string) (bool, error) {
				asked = msg
				return tt.reply, tt.err
			}

			got, err := c.Await(context.Background(), sample)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, confirmMessage, asked)
			assert.Contains(t, out.String(), "Morning coffee")
			assert.Contains(t, out.String(), "beans")
		})
	}
}

func TestConsoleConfirmError(t *testing.T) {
	c := NewConsole(&bytes.Buffer{}, "notty")
	c.Confirm = func(string) (bool, error) { return false, errors.New("no tty") }
	_, err := c.Await(context.Background(), sample)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrAborted)
}

func TestPreviewMarkdown(t *testing.T) {
	got := previewMarkdown(sample)
	assert.Equal(t, "# Morning coffee\n\nFresh **beans** today\n\n![image](https://i.ibb.co/x/cat.png)\n", got)
	assert.Equal(t, "caption only\n", previewMarkdown(Request{Caption: "caption only"}))
}

func TestLine(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"  yes  \n", true},
		{"yes", true},
		{"n\n", false},
		{"yep\n", false},
		{"\n", false},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		got, err := NewLine(strings.NewReader(tt.in), &out).Await(context.Background(), sample)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, "Approve? (y/n): ", out.String())
	}
}

func TestLineClosedInput(t *testing.T) {
	_, err := NewLine(strings.NewReader(""), &bytes.Buffer{}).Await(context.Background(), sample)
	assert.ErrorIs(t, err, ErrAborted)
}

func TestLineCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewLine(strings.NewReader("y\n"), &bytes.Buffer{}).Await(ctx, sample)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHTTPApprove(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	h := NewHTTP("127.0.0.1:0", "", nil)
	link, err := h.Prepare(context.Background(), sample)
	require.NoError(t, err)
	assert.Equal(t, "http://"+h.Addr().String()+"/approvals/run-1", link)

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}

	resp, err := client.Get(link)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	type result struct {
		ok  bool
		err error
	}
	done := make(chan result, 1)
	go func() {
		ok, err := h.Await(context.Background(), sample)
		done <- result{ok, err}
	}()

	resp, err = client.Post(link+"/approve", "application/x-www-form-urlencoded", nil)
	require.NoError(t, err)
	resp.Body.Close()

	select {
	case r := <-done:
		require.NoError(t, r.err)
		assert.True(t, r.ok)
	case <-time.After(5 * time.Second):
		t.Fatal("no decision")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, h.Close(ctx))
}

func TestHTTPCancelled(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	h := NewHTTP("127.0.0.1:0", "https://review.example.com/", nil)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := h.Await(ctx, sample)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	link, err := h.Prepare(context.Background(), sample)
	require.NoError(t, err)
	assert.Equal(t, "https://review.example.com/approvals/run-1", link)
	require.NoError(t, h.Close(context.Background()))
}

func TestHTTPListenError(t *testing.T) {
	h := NewHTTP("256.0.0.1:bad", "", nil)
	_, err := h.Await(context.Background(), sample)
	require.Error(t, err)
	assert.Nil(t, h.Addr())
}
