// Package gateway exposes the clearance-gated pipeline over HTTP. One
// process serves many independent sessions; each session's turns run
// sequentially, sessions run concurrently against the shared immutable
// clearance table.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/umbrellacorp/usiop/internal/alert"
	"github.com/umbrellacorp/usiop/internal/assistant"
	"github.com/umbrellacorp/usiop/internal/audit"
	"github.com/umbrellacorp/usiop/internal/clearance"
	"github.com/umbrellacorp/usiop/internal/denylist"
	"github.com/umbrellacorp/usiop/internal/directory"
	"github.com/umbrellacorp/usiop/internal/model"
	"github.com/umbrellacorp/usiop/internal/policy"
	"github.com/umbrellacorp/usiop/internal/prompt"
	"github.com/umbrellacorp/usiop/internal/retrieval"
	"github.com/umbrellacorp/usiop/internal/session"
	"github.com/umbrellacorp/usiop/internal/tracer"
)

// Server wires the whole pipeline behind an HTTP API.
type Server struct {
	cfg       Config
	roster    *directory.Roster
	engine    *policy.Engine
	assist    *assistant.Assistant
	recorder  *audit.Recorder
	store     *audit.Store
	auditLog  *audit.Log
	traces    *tracer.JSONL
	sessStore *session.Store
	logger    *slog.Logger

	sessions sync.Map // session id → *session.Session
	srv      *http.Server
}

// Option overrides a collaborator when constructing a Server.
type Option func(*Server)

// WithRetrieverAndGenerator plugs external collaborators in place of
// the built-in demo pair.
func WithRetrieverAndGenerator(r retrieval.Retriever, g assistant.Generator) Option {
	return func(s *Server) {
		s.assist = assistant.New(s.engine, r, g, s.recorder, s.logger)
	}
}

// New creates a gateway server with loaded table, denylist, roster, and
// audit sinks. A ConfigError here aborts process start.
func New(cfg Config, logger *slog.Logger, opts ...Option) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	table, tableHash, err := clearance.LoadWithHash(cfg.ClearancePath)
	if err != nil {
		return nil, fmt.Errorf("load clearance table: %w", err)
	}

	dl, err := denylist.Load(cfg.DenylistPath)
	if err != nil {
		return nil, fmt.Errorf("load denylist: %w", err)
	}

	var roster *directory.Roster
	if cfg.RosterPath != "" {
		roster, err = directory.LoadRoster(cfg.RosterPath)
		if err != nil {
			return nil, fmt.Errorf("load roster: %w", err)
		}
	} else {
		roster, err = directory.NewRoster(directory.GenerateRandom(5))
		if err != nil {
			return nil, fmt.Errorf("generate roster: %w", err)
		}
	}

	var auditLog *audit.Log
	if cfg.AuditLogPath != "" {
		auditLog, err = audit.Open(cfg.AuditLogPath)
		if err != nil {
			return nil, fmt.Errorf("open audit log: %w", err)
		}
	}

	var store *audit.Store
	if cfg.AuditDBPath != "" {
		store, err = audit.OpenStore(cfg.AuditDBPath)
		if err != nil {
			return nil, fmt.Errorf("open audit store: %w", err)
		}
	}

	var sessStore *session.Store
	if cfg.SessionDBPath != "" {
		sessStore, err = session.OpenStore(cfg.SessionDBPath)
		if err != nil {
			return nil, fmt.Errorf("open session store: %w", err)
		}
	}

	var traces *tracer.JSONL
	var emitter tracer.Emitter = tracer.Nop{}
	if cfg.TracePath != "" {
		traces, err = tracer.OpenJSONL(cfg.TracePath)
		if err != nil {
			return nil, fmt.Errorf("open trace file: %w", err)
		}
		emitter = traces
	}

	dispatcher := alert.NewDispatcher(cfg.Alerts)

	recorder := audit.NewRecorder(auditLog, store)
	recorder.OnSinkError = func(se *audit.SinkError) {
		// The decision already stood; the compliance gap is what pages.
		logger.Error("audit sink degraded", "sink", se.Sink, "err", se.Err)
		dispatcher.Dispatch(alert.Event{
			Timestamp: tracer.UTCNowISO(),
			Type:      "audit_sink_error",
			Reason:    se.Error(),
		})
	}

	engineOpts := []policy.Option{
		policy.WithRecorder(recorder),
		policy.WithEmitter(emitter),
		policy.WithAlerts(dispatcher),
		policy.WithTableHash(tableHash),
	}
	if cfg.PrivilegedSite != "" {
		engineOpts = append(engineOpts, policy.WithPrivilegedFacility(cfg.PrivilegedSite))
	}
	engine := policy.NewEngine(table, dl, engineOpts...)

	s := &Server{
		cfg:       cfg,
		roster:    roster,
		engine:    engine,
		recorder:  recorder,
		store:     store,
		auditLog:  auditLog,
		traces:    traces,
		sessStore: sessStore,
		logger:    logger,
	}

	docs := retrieval.NewMemoryStore()
	if cfg.DocsPath != "" {
		loaded, err := retrieval.LoadDocuments(cfg.DocsPath)
		if err != nil {
			return nil, fmt.Errorf("load documents: %w", err)
		}
		docs.Add(loaded...)
	}
	s.assist = assistant.New(engine, docs, assistant.EchoGenerator{}, recorder, logger)

	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/sessions", s.handleCreateSession)
	mux.HandleFunc("POST /v1/query", s.handleQuery)
	mux.HandleFunc("GET /v1/audit", s.handleAudit)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	s.srv = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: mux,
	}
	return s, nil
}

// Start listens and serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.srv.Addr, err)
	}

	if s.cfg.WatchRoster && s.cfg.RosterPath != "" {
		w := directory.NewWatcher(s.cfg.RosterPath, s.roster, s.logger)
		go func() {
			if err := w.Run(ctx); err != nil {
				s.logger.Error("roster watcher stopped", "err", err)
			}
		}()
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info("gateway listening", "addr", s.srv.Addr)
	if err := s.srv.Serve(ln); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Handler returns the HTTP handler. For tests.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Close releases the audit and session sinks.
func (s *Server) Close() error {
	if s.auditLog != nil {
		_ = s.auditLog.Close()
	}
	if s.store != nil {
		_ = s.store.Close()
	}
	if s.sessStore != nil {
		_ = s.sessStore.Close()
	}
	if s.traces != nil {
		_ = s.traces.Close()
	}
	return nil
}

type createSessionRequest struct {
	EmployeeID string `json:"employee_id"`
}

type createSessionResponse struct {
	SessionID string         `json:"session_id"`
	Identity  model.Identity `json:"identity"`
	Welcome   string         `json:"welcome"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id, ok := s.roster.Lookup(req.EmployeeID)
	if !ok {
		httpError(w, http.StatusNotFound, "unknown employee")
		return
	}

	sess := session.New(id, s.sessStore)
	s.sessions.Store(sess.ID(), sess)

	writeJSON(w, http.StatusCreated, createSessionResponse{
		SessionID: sess.ID(),
		Identity:  id,
		Welcome:   prompt.Welcome(id),
	})
}

type queryRequest struct {
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
}

type queryResponse struct {
	Response string        `json:"response"`
	Verdict  model.Verdict `json:"verdict"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	val, ok := s.sessions.Load(req.SessionID)
	if !ok {
		httpError(w, http.StatusNotFound, "unknown session")
		return
	}
	sess := val.(*session.Session)

	response, verdict, err := s.assist.Respond(r.Context(), sess, req.Text)
	if err != nil {
		var mismatch *session.IdentityMismatchError
		if errors.As(err, &mismatch) {
			httpError(w, http.StatusConflict, mismatch.Error())
			return
		}
		s.logger.Error("query failed", "session", req.SessionID, "err", err)
		httpError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, queryResponse{Response: response, Verdict: verdict})
}

func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		httpError(w, http.StatusServiceUnavailable, "audit store not configured")
		return
	}

	f := audit.Filter{
		EmployeeID: r.URL.Query().Get("employee_id"),
		SessionID:  r.URL.Query().Get("session_id"),
		Outcome:    r.URL.Query().Get("outcome"),
	}
	if lim := r.URL.Query().Get("limit"); lim != "" {
		if n, err := strconv.Atoi(lim); err == nil && n > 0 {
			f.Limit = n
		}
	}

	var entries []audit.Entry
	for e, err := range s.store.Query(f) {
		if err != nil {
			s.logger.Error("audit query failed", "err", err)
			httpError(w, http.StatusInternalServerError, "audit query failed")
			return
		}
		entries = append(entries, e)
	}

	writeJSON(w, http.StatusOK, map[string]any{"entries": entries, "count": len(entries)})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	recorded, failed := s.recorder.Stats()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"roster_size":    s.roster.Len(),
		"audit_recorded": recorded,
		"audit_failures": failed,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
