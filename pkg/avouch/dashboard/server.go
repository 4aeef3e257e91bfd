// Package dashboard serves the assessment API, the badge endpoints and a
// small live-updating page over HTTP, streaming each new assessment to
// websocket clients.
package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/chosenoffset/avouch/pkg/avouch"
	"github.com/chosenoffset/avouch/pkg/avouch/actions"
	"github.com/chosenoffset/avouch/pkg/avouch/codec"
	"github.com/chosenoffset/avouch/pkg/avouch/metrics"
	"github.com/chosenoffset/avouch/pkg/avouch/store"
)

const (
	// DefaultAddress is the listen address used when none is configured.
	DefaultAddress = "127.0.0.1:8931"

	// DefaultHistory is how many recent assessments the in-memory ring
	// buffer keeps for /api/assessments when no store is attached.
	DefaultHistory = 100

	// DefaultMaxClients caps concurrent websocket connections.
	DefaultMaxClients = 100

	// DefaultShutdownTimeout bounds graceful shutdown in Stop.
	DefaultShutdownTimeout = 5 * time.Second
)

// Store persists assessments. *store.SQLiteStore satisfies it.
type Store interface {
	Save(ctx context.Context, a *avouch.Assessment) error
	List(ctx context.Context, f store.Filter) ([]*avouch.Assessment, error)
}

// Options configures a Server. The zero value gets sensible defaults;
// Store, Metrics and Actions are optional and stay disabled when nil.
type Options struct {
	Address         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	History         int
	MaxClients      int
	BadgeLabel      string
	BadgeTemplate   string
	LinkBase        string
	Logger          *slog.Logger
	Store           Store
	Metrics         *metrics.Metrics
	Actions         *actions.Registry
}

// Server assesses statements over HTTP and fans results out to websocket
// clients, the optional store, and registered action handlers.
type Server struct {
	opts     Options
	logger   *slog.Logger
	upgrader websocket.Upgrader
	server   *http.Server

	engineMu sync.RWMutex
	engine   *avouch.Engine

	clientsMu sync.RWMutex
	clients   map[*websocket.Conn]bool

	feed     chan *avouch.Assessment
	stop     chan struct{}
	stopOnce sync.Once

	// Fixed-size circular buffer of recent assessments.
	recentMu    sync.RWMutex
	recent      []*avouch.Assessment
	recentIndex int
	recentCount int
}

// NewServer creates a dashboard server around the given engine and
// starts its broadcast pump. Call Stop to release it even if Start is
// never invoked.
func NewServer(engine *avouch.Engine, opts Options) (*Server, error) {
	if engine == nil {
		return nil, fmt.Errorf("dashboard requires an engine")
	}
	if opts.Address == "" {
		opts.Address = DefaultAddress
	}
	if opts.History <= 0 {
		opts.History = DefaultHistory
	}
	if opts.MaxClients <= 0 {
		opts.MaxClients = DefaultMaxClients
	}
	if opts.BadgeTemplate == "" {
		opts.BadgeTemplate = codec.DefaultBadgeTemplate
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = DefaultShutdownTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	s := &Server{
		opts:   opts,
		logger: opts.Logger.With("component", "dashboard"),
		engine: engine,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				return u.Host == r.Host
			},
		},
		clients: make(map[*websocket.Conn]bool),
		feed:    make(chan *avouch.Assessment, 100),
		stop:    make(chan struct{}),
		recent:  make([]*avouch.Assessment, opts.History),
	}

	if s.opts.Metrics != nil {
		s.opts.Metrics.SetRuleCount(len(engine.Rules()))
	}

	go s.pump()
	return s, nil
}

// Handler returns the full route table. Start uses it; tests can mount
// it on httptest servers directly.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	s.route(mux, "/", http.HandlerFunc(s.handleIndex))
	s.route(mux, "/api/assessments", http.HandlerFunc(s.handleAssessments))
	s.route(mux, "/api/rules", http.HandlerFunc(s.handleRules))
	s.route(mux, "/api/assess", http.HandlerFunc(s.handleAssess))
	s.route(mux, "/api/badge", http.HandlerFunc(s.handleBadge))
	s.route(mux, "/badge/", http.HandlerFunc(s.handleBadgeRedirect))
	s.route(mux, "/healthz", http.HandlerFunc(s.handleHealthz))

	// The websocket route hijacks the connection and /metrics reports on
	// everything else, so neither goes through the instrumentation wrapper.
	mux.HandleFunc("/ws", s.handleWebSocket)
	if s.opts.Metrics != nil {
		mux.Handle("/metrics", s.opts.Metrics.Handler())
	}

	return mux
}

func (s *Server) route(mux *http.ServeMux, pattern string, h http.Handler) {
	if s.opts.Metrics != nil {
		h = s.opts.Metrics.Instrument(pattern, h)
	}
	mux.Handle(pattern, h)
}

// Start listens on the configured address and blocks until the server
// shuts down.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.opts.Address,
		Handler:      s.Handler(),
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
	}

	s.logger.Info("starting dashboard", "address", s.opts.Address)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop shuts the server down, closing the broadcast pump and asking
// websocket handlers to send close frames. Safe to call more than once.
func (s *Server) Stop() error {
	var err error
	s.stopOnce.Do(func() {
		close(s.stop)
		if s.server != nil {
			ctx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
			defer cancel()
			err = s.server.Shutdown(ctx)
		}
	})
	return err
}

// SetEngine swaps the engine used for new assessments. Requests already
// in flight finish against the engine they started with.
func (s *Server) SetEngine(engine *avouch.Engine) {
	if engine == nil {
		return
	}
	s.engineMu.Lock()
	s.engine = engine
	s.engineMu.Unlock()

	if s.opts.Metrics != nil {
		s.opts.Metrics.SetRuleCount(len(engine.Rules()))
	}
	s.logger.Info("engine replaced", "rules", len(engine.Rules()))
}

func (s *Server) currentEngine() *avouch.Engine {
	s.engineMu.RLock()
	defer s.engineMu.RUnlock()
	return s.engine
}

// Publish queues an assessment for the websocket feed and the recent
// buffer. It never blocks.
func (s *Server) Publish(a *avouch.Assessment) {
	if a == nil {
		return
	}
	select {
	case s.feed <- a:
	default:
		// Drop if the feed is full.
	}
}

// process runs the full assessment pipeline for one encoded statement:
// assess, instrument, persist, dispatch, publish.
func (s *Server) process(ctx context.Context, encoded string) (*avouch.Assessment, error) {
	start := time.Now()
	a, err := s.currentEngine().Assess(encoded)
	if err != nil {
		if s.opts.Metrics != nil {
			s.opts.Metrics.RecordDecodeFailure()
		}
		return nil, err
	}

	if s.opts.Metrics != nil {
		s.opts.Metrics.ObserveEvaluation(time.Since(start))
		s.opts.Metrics.RecordAssessment(a.Origin, a.Outcome.Level)
	}
	if s.opts.Store != nil {
		if err := s.opts.Store.Save(ctx, a); err != nil {
			s.logger.Error("failed to persist assessment", "assessment_id", a.ID, "error", err)
		}
	}
	if s.opts.Actions != nil {
		s.opts.Actions.Dispatch(a)
	}
	s.Publish(a)

	return a, nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html")
	w.Write([]byte(indexHTML))
}

func (s *Server) handleAssessments(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var since, until time.Time
	var err error
	if v := query.Get("from"); v != "" {
		since, err = time.Parse(time.RFC3339, v)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid 'from' time format")
			return
		}
	}
	if v := query.Get("to"); v != "" {
		until, err = time.Parse(time.RFC3339, v)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid 'to' time format")
			return
		}
	}
	limit := 0
	if v := query.Get("limit"); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil || limit < 1 {
			s.writeError(w, http.StatusBadRequest, "invalid 'limit' value")
			return
		}
	}
	origin := query.Get("origin")
	level := query.Get("level")

	if s.opts.Store != nil {
		list, err := s.opts.Store.List(r.Context(), store.Filter{
			Origin: origin,
			Level:  level,
			Since:  since,
			Until:  until,
			Limit:  limit,
		})
		if err != nil {
			s.logger.Error("assessment history query failed", "error", err)
			s.writeError(w, http.StatusInternalServerError, "history query failed")
			return
		}
		s.writeData(w, list)
		return
	}

	s.writeData(w, s.recentAssessments(origin, level, since, until, limit))
}

func (s *Server) handleRules(w http.ResponseWriter, r *http.Request) {
	s.writeData(w, s.currentEngine().Rules())
}

func (s *Server) handleAssess(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req struct {
		Statement string `json:"statement"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON request")
		return
	}
	if req.Statement == "" {
		s.writeError(w, http.StatusBadRequest, "statement is required")
		return
	}

	a, err := s.process(r.Context(), req.Statement)
	if err != nil {
		if errors.Is(err, avouch.ErrInvalidStatement) {
			s.writeError(w, http.StatusUnprocessableEntity, "could not parse statement")
			return
		}
		s.writeError(w, http.StatusInternalServerError, "assessment failed")
		return
	}

	s.writeData(w, a)
}

func (s *Server) handleBadge(w http.ResponseWriter, r *http.Request) {
	encoded := r.URL.Query().Get("s")
	if encoded == "" {
		s.writeError(w, http.StatusBadRequest, "query parameter 's' is required")
		return
	}

	a, err := s.currentEngine().Assess(encoded)
	if err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, "could not parse statement")
		return
	}

	link := ""
	if s.opts.LinkBase != "" {
		link = codec.LinkURL(s.opts.LinkBase, a.Encoded)
	}
	s.writeData(w, map[string]any{
		"badge":  codec.BadgeURL(s.opts.BadgeTemplate, s.opts.BadgeLabel, a.Outcome.Label, a.Outcome.Color),
		"link":   link,
		"label":  s.opts.BadgeLabel,
		"status": a.Outcome.Label,
		"color":  a.Outcome.Color,
	})
}

func (s *Server) handleBadgeRedirect(w http.ResponseWriter, r *http.Request) {
	encoded := strings.TrimPrefix(r.URL.Path, "/badge/")
	if encoded == "" {
		http.NotFound(w, r)
		return
	}

	a, err := s.currentEngine().Assess(encoded)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	target := codec.BadgeURL(s.opts.BadgeTemplate, s.opts.BadgeLabel, a.Outcome.Label, a.Outcome.Color)
	http.Redirect(w, r, target, http.StatusFound)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.clientsMu.RLock()
	clients := len(s.clients)
	s.clientsMu.RUnlock()

	s.writeData(w, map[string]any{
		"clients": clients,
		"rules":   len(s.currentEngine().Rules()),
	})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	s.clientsMu.RLock()
	clientCount := len(s.clients)
	s.clientsMu.RUnlock()

	if clientCount >= s.opts.MaxClients {
		http.Error(w, "maximum clients reached", http.StatusServiceUnavailable)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	s.clientsMu.Lock()
	s.clients[conn] = true
	s.clientsMu.Unlock()

	defer func() {
		s.clientsMu.Lock()
		delete(s.clients, conn)
		s.clientsMu.Unlock()
	}()

	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	// Reading is required to notice client disconnects.
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					s.logger.Debug("websocket read failed", "error", err)
				}
				return
			}
		}
	}()

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-readDone:
			return
		case <-s.stop:
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// pump moves published assessments into the recent buffer and out to the
// websocket clients.
func (s *Server) pump() {
	for {
		select {
		case a := <-s.feed:
			s.recentMu.Lock()
			s.recent[s.recentIndex] = a
			s.recentIndex = (s.recentIndex + 1) % len(s.recent)
			if s.recentCount < len(s.recent) {
				s.recentCount++
			}
			s.recentMu.Unlock()

			s.broadcastMessage(map[string]any{
				"type": "assessment",
				"data": a,
			})
		case <-s.stop:
			return
		}
	}
}

// recentAssessments copies the ring buffer newest first, applying the
// same filters the store path supports.
func (s *Server) recentAssessments(origin, level string, since, until time.Time, limit int) []*avouch.Assessment {
	s.recentMu.RLock()
	chronological := make([]*avouch.Assessment, 0, s.recentCount)
	if s.recentCount == len(s.recent) {
		start := s.recentIndex
		for i := 0; i < len(s.recent); i++ {
			chronological = append(chronological, s.recent[(start+i)%len(s.recent)])
		}
	} else {
		chronological = append(chronological, s.recent[:s.recentCount]...)
	}
	s.recentMu.RUnlock()

	out := make([]*avouch.Assessment, 0, len(chronological))
	for i := len(chronological) - 1; i >= 0; i-- {
		a := chronological[i]
		if origin != "" && a.Origin != origin {
			continue
		}
		if level != "" && a.Outcome.Level != level {
			continue
		}
		if !since.IsZero() && a.Time.Before(since) {
			continue
		}
		if !until.IsZero() && !a.Time.Before(until) {
			continue
		}
		out = append(out, a)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

func (s *Server) broadcastMessage(message any) {
	s.clientsMu.RLock()
	if len(s.clients) == 0 {
		s.clientsMu.RUnlock()
		return
	}
	// Copy connections so the lock isn't held during writes.
	conns := make([]*websocket.Conn, 0, len(s.clients))
	for conn := range s.clients {
		conns = append(conns, conn)
	}
	s.clientsMu.RUnlock()

	data, err := json.Marshal(message)
	if err != nil {
		s.logger.Error("failed to marshal broadcast", "error", err)
		return
	}

	var failed []*websocket.Conn
	for _, conn := range conns {
		conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			conn.Close()
			failed = append(failed, conn)
		}
	}

	if len(failed) > 0 {
		s.clientsMu.Lock()
		for _, conn := range failed {
			delete(s.clients, conn)
		}
		s.clientsMu.Unlock()
	}
}

func (s *Server) writeData(w http.ResponseWriter, data any) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"data":   data,
	})
}

func (s *Server) writeError(w http.ResponseWriter, code int, message string) {
	s.writeJSON(w, code, map[string]any{
		"status":  "error",
		"message": message,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}
