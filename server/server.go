// Package server exposes pending approvals over HTTP so a reviewer can
// approve or reject a post from a browser or with a JSON call.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/flosch/pongo2/v6"
	"go.uber.org/zap"
)

var (
	// ErrUnknownApproval is returned by Wait for ids that were never registered.
	ErrUnknownApproval = errors.New("unknown approval")
	errDecided         = errors.New("approval already decided")
)

type Server struct {
	store  *approvalStore
	logger *zap.Logger
}

type approval struct {
	preview  string
	decided  bool
	approved bool
	done     chan struct{}
}

type approvalStore struct {
	mu        sync.Mutex
	approvals map[string]*approval
}

func newStore() *approvalStore {
	return &approvalStore{approvals: make(map[string]*approval)}
}

func (s *approvalStore) register(id, preview string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.approvals[id]; ok {
		a.preview = preview
		return
	}
	s.approvals[id] = &approval{preview: preview, done: make(chan struct{})}
}

func (s *approvalStore) get(id string) (*approval, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.approvals[id]
	return a, ok
}

func (s *approvalStore) decide(id string, approved bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.approvals[id]
	if !ok {
		return ErrUnknownApproval
	}
	if a.decided {
		return errDecided
	}
	a.decided = true
	a.approved = approved
	close(a.done)
	return nil
}

type status struct {
	ID       string `json:"id"`
	Decided  bool   `json:"decided"`
	Approved bool   `json:"approved"`
}

func (s *approvalStore) status(id string) (status, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.approvals[id]
	if !ok {
		return status{}, false
	}
	return status{ID: id, Decided: a.decided, Approved: a.approved}, true
}

func New(logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{store: newStore(), logger: logger.Named("server")}
}

// Register makes id reviewable. Registering again replaces the preview.
func (s *Server) Register(id, previewHTML string) {
	s.store.register(id, previewHTML)
}

// Wait blocks until id is decided or ctx ends.
func (s *Server) Wait(ctx context.Context, id string) (bool, error) {
	a, ok := s.store.get(id)
	if !ok {
		return false, ErrUnknownApproval
	}
	select {
	case <-a.done:
		st, _ := s.store.status(id)
		return st.Approved, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /approvals/{id}", s.handlePage)
	mux.HandleFunc("POST /approvals/{id}/approve", s.handleForm(true))
	mux.HandleFunc("POST /approvals/{id}/reject", s.handleForm(false))
	mux.HandleFunc("GET /api/approvals/{id}", s.handleStatus)
	mux.HandleFunc("POST /api/approvals/{id}", s.handleDecide)
	return logMiddleware(s.logger, mux)
}

// --- Handlers ---

const pageSource = `<!doctype html>
<html><head><meta charset="utf-8"><title>Approval {{ id }}</title></head>
<body>
{{ preview|safe }}
{% if decided %}<p>Decision recorded: {% if approved %}approved{% else %}rejected{% endif %}.</p>
{% else %}<form method="post" action="/approvals/{{ id }}/approve"><button type="submit">Approve</button></form>
<form method="post" action="/approvals/{{ id }}/reject"><button type="submit">Reject</button></form>
{% endif %}</body></html>
`

var pageTpl = pongo2.Must(pongo2.FromString(pageSource))

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	a, ok := s.store.get(id)
	if !ok {
		http.NotFound(w, r)
		return
	}
	st, _ := s.store.status(id)
	s.store.mu.Lock()
	preview := a.preview
	s.store.mu.Unlock()

	out, err := pageTpl.Execute(pongo2.Context{
		"id":       id,
		"preview":  preview,
		"decided":  st.Decided,
		"approved": st.Approved,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(out))
}

func (s *Server) handleForm(approved bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if !s.record(w, r, id, approved) {
			return
		}
		http.Redirect(w, r, "/approvals/"+id, http.StatusSeeOther)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st, ok := s.store.status(r.PathValue("id"))
	if !ok {
		http.Error(w, "approval not found", http.StatusNotFound)
		return
	}
	writeJSON(w, st)
}

type decideReq struct {
	Approved *bool `json:"approved"`
}

func (s *Server) handleDecide(w http.ResponseWriter, r *http.Request) {
	var req decideReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Approved == nil {
		http.Error(w, "approved is required", http.StatusBadRequest)
		return
	}
	id := r.PathValue("id")
	if !s.record(w, r, id, *req.Approved) {
		return
	}
	st, _ := s.store.status(id)
	writeJSON(w, st)
}

func (s *Server) record(w http.ResponseWriter, r *http.Request, id string, approved bool) bool {
	switch err := s.store.decide(id, approved); {
	case errors.Is(err, ErrUnknownApproval):
		http.NotFound(w, r)
		return false
	case errors.Is(err, errDecided):
		http.Error(w, err.Error(), http.StatusConflict)
		return false
	}
	s.logger.Info("decision recorded", zap.String("id", id), zap.Bool("approved", approved))
	return true
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func logMiddleware(logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("took", time.Since(start)))
	})
}
