package approval

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"auto_social_publisher/server"
)

// HTTP waits for a decision posted to the review server.
type HTTP struct {
	addr      string
	publicURL string
	srv       *server.Server
	logger    *zap.Logger

	mu       sync.Mutex
	httpSrv  *http.Server
	ln       net.Listener
	serveErr chan error
	stopped  chan struct{}
}

// NewHTTP returns an approver listening on addr. An empty publicURL is
// derived from the bound address on Start.
func NewHTTP(addr, publicURL string, logger *zap.Logger) *HTTP {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("approval")
	return &HTTP{
		addr:      addr,
		publicURL: strings.TrimRight(publicURL, "/"),
		srv:       server.New(logger),
		logger:    logger,
	}
}

// Start binds the listener and serves in the background. It is a no-op once started.
func (h *HTTP) Start() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.httpSrv != nil {
		return nil
	}
	ln, err := net.Listen("tcp", h.addr)
	if err != nil {
		return fmt.Errorf("approval: listen %s: %w", h.addr, err)
	}
	h.ln = ln
	h.httpSrv = &http.Server{Handler: h.srv.Routes(), ReadHeaderTimeout: 10 * time.Second}
	h.serveErr = make(chan error, 1)
	h.stopped = make(chan struct{})
	if h.publicURL == "" {
		h.publicURL = "http://" + ln.Addr().String()
	}

	go func() {
		defer close(h.stopped)
		if err := h.httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			h.serveErr <- err
		}
		close(h.serveErr)
	}()
	h.logger.Info("review server listening", zap.String("addr", ln.Addr().String()))
	return nil
}

// Addr is the bound address, or nil before Start.
func (h *HTTP) Addr() net.Addr {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.ln == nil {
		return nil
	}
	return h.ln.Addr()
}

func (h *HTTP) Prepare(_ context.Context, req Request) (string, error) {
	if err := h.Start(); err != nil {
		return "", err
	}
	h.srv.Register(req.RunID, req.PreviewHTML)
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.publicURL + "/approvals/" + url.PathEscape(req.RunID), nil
}

func (h *HTTP) Await(ctx context.Context, req Request) (bool, error) {
	link, err := h.Prepare(ctx, req)
	if err != nil {
		return false, err
	}
	h.logger.Info("waiting for decision", zap.String("run_id", req.RunID), zap.String("url", link))

	wctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type decision struct {
		approved bool
		err      error
	}
	done := make(chan decision, 1)
	go func() {
		ok, err := h.srv.Wait(wctx, req.RunID)
		done <- decision{ok, err}
	}()

	h.mu.Lock()
	serveErr := h.serveErr
	h.mu.Unlock()

	select {
	case d := <-done:
		return d.approved, d.err
	case err, ok := <-serveErr:
		if ok {
			return false, fmt.Errorf("approval: review server: %w", err)
		}
		return false, fmt.Errorf("%w: review server closed", ErrAborted)
	}
}

// Close shuts the review server down and waits for it to stop.
func (h *HTTP) Close(ctx context.Context) error {
	h.mu.Lock()
	srv, stopped := h.httpSrv, h.stopped
	h.mu.Unlock()
	if srv == nil {
		return nil
	}
	err := srv.Shutdown(ctx)
	select {
	case <-stopped:
	case <-ctx.Done():
	}
	return err
}
