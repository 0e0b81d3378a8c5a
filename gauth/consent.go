package gauth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// LoopbackConsent prints the consent URL to out and waits for Google to
// redirect back to a one-shot listener on 127.0.0.1.
func LoopbackConsent(out io.Writer) ConsentFunc {
	return func(ctx context.Context, cfg *oauth2.Config) (*oauth2.Token, error) {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return nil, fmt.Errorf("listen for redirect: %w", err)
		}

		local := *cfg
		local.RedirectURL = "http://" + ln.Addr().String() + "/"
		state := uuid.NewString()

		codes := make(chan string, 1)
		denials := make(chan error, 1)
		srv := &http.Server{
			ReadHeaderTimeout: 10 * time.Second,
			Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				q := r.URL.Query()
				if q.Get("state") != state {
					http.Error(w, "state mismatch", http.StatusBadRequest)
					return
				}
				if reason := q.Get("error"); reason != "" {
					select {
					case denials <- fmt.Errorf("consent denied: %s", reason):
					default:
					}
					fmt.Fprintln(w, "Authorization was not granted. You can close this window.")
					return
				}
				code := q.Get("code")
				if code == "" {
					http.Error(w, "missing code", http.StatusBadRequest)
					return
				}
				select {
				case codes <- code:
				default:
				}
				fmt.Fprintln(w, "Authorization complete. You can close this window.")
			}),
		}
		go func() { _ = srv.Serve(ln) }()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		fmt.Fprintf(out, "Open this URL in a browser to authorize access:\n%s\n",
			local.AuthCodeURL(state, oauth2.AccessTypeOffline))

		var code string
		select {
		case code = <-codes:
		case err := <-denials:
			return nil, err
		case <-ctx.Done():
			return nil, ctx.Err()
		}

		tok, err := local.Exchange(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("exchange code: %w", err)
		}
		if !tok.Valid() {
			return nil, errors.New("exchange returned an invalid token")
		}
		return tok, nil
	}
}
