package api

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spawnwatch/spawnwatch/pkg/catalog"
	"github.com/spawnwatch/spawnwatch/pkg/engine"
	"github.com/spawnwatch/spawnwatch/pkg/notify"
	"github.com/spawnwatch/spawnwatch/pkg/prefs"
	"github.com/spawnwatch/spawnwatch/pkg/sched"
	"github.com/spawnwatch/spawnwatch/pkg/store"
)

// Config carries the server's listen address and admin secret. The secret
// is a convenience gate for a local tool, compared in plaintext; it is not
// a security boundary.
type Config struct {
	Addr        string
	AdminSecret string
}

// Server encapsulates the HTTP API server
type Server struct {
	catalog  *catalog.Store
	prefs    *prefs.Store
	board    *engine.Refresher
	notifier *notify.Service
	feed     *notify.Feed
	kv       store.KV
	clock    sched.Clock
	secret   string
	server   *http.Server
}

// NewServer creates a new API server instance
func NewServer(cat *catalog.Store, prf *prefs.Store, board *engine.Refresher, notifier *notify.Service, feed *notify.Feed, kv store.KV, clock sched.Clock, cfg Config) *Server {
	s := &Server{
		catalog:  cat,
		prefs:    prf,
		board:    board,
		notifier: notifier,
		feed:     feed,
		kv:       kv,
		clock:    clock,
		secret:   cfg.AdminSecret,
	}

	mux := http.NewServeMux()

	// Register routes
	mux.HandleFunc("/v1/health", handleHealth)
	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/v1/board", s.handleBoard)
	mux.HandleFunc("/v1/board/active", s.handleBoardActive)
	mux.HandleFunc("/v1/version", s.handleVersion)
	mux.HandleFunc("/v1/events", s.handleEvents)   // GET list/search, POST add
	mux.HandleFunc("/v1/events/", s.handleEventByID)
	mux.HandleFunc("/v1/export", s.handleExport)
	mux.HandleFunc("/v1/import", s.withAdmin(s.handleImport))
	mux.HandleFunc("/v1/prefs", s.handlePrefs)
	mux.HandleFunc("/v1/follow/", s.handleFollow)
	mux.HandleFunc("/v1/pin/", s.handlePin)
	mux.HandleFunc("/v1/notifications", s.handleNotifications)
	mux.HandleFunc("/v1/alerts", s.handleAlerts)
	mux.HandleFunc("/v1/admin/login", s.handleLogin)
	mux.HandleFunc("/v1/admin/reset", s.withAdmin(s.handleReset))

	// Middleware: Logging, Panic Recovery
	handler := withLogging(withRecovery(mux))

	// Use default port if addr is empty
	addr := cfg.Addr
	if addr == "" {
		addr = ":8190"
	}

	s.server = &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	return s
}

// Handler exposes the configured handler chain for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start runs the HTTP server (blocking)
func (s *Server) Start() error {
	fmt.Printf(`{"level":"info","msg":"server_starting","addr":"%s"}`+"\n", s.server.Addr)
	if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop gracefully shuts down the server
func (s *Server) Stop(ctx context.Context) error {
	fmt.Println(`{"level":"info","msg":"server_stopping"}`)
	return s.server.Shutdown(ctx)
}

// handleHealth returns simple status
func handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// handleBoard returns the ranked event board.
func (s *Server) handleBoard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, `{"error":"method_not_allowed"}`, http.StatusMethodNotAllowed)
		return
	}
	s.writeBoard(w, s.board.Board())
}

// handleBoardActive returns only the events inside the active window.
func (s *Server) handleBoardActive(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, `{"error":"method_not_allowed"}`, http.StatusMethodNotAllowed)
		return
	}
	s.writeBoard(w, s.board.Active())
}

func (s *Server) writeBoard(w http.ResponseWriter, entries []engine.Entry) {
	now := s.clock.Now()
	resp := BoardResponse{
		Now:     now,
		Version: s.catalog.Version(),
		Entries: make([]BoardEntry, len(entries)),
	}
	for i, e := range entries {
		be := BoardEntry{Entry: e}
		if !e.Next.IsZero() {
			be.Countdown = engine.FormatCountdown(e.Next.Sub(now))
		}
		resp.Entries[i] = be
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleVersion reports the catalog version bookkeeping. Display sessions
// poll this to detect edits made elsewhere.
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, `{"error":"method_not_allowed"}`, http.StatusMethodNotAllowed)
		return
	}
	resp := VersionResponse{
		Version:  s.catalog.Version(),
		Modified: s.catalog.IsModifiedFromDefault(),
	}
	if lm := s.catalog.LastModified(); !lm.IsZero() {
		resp.LastModified = &lm
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleEvents lists or searches the catalog on GET, adds on POST.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		events := s.catalog.List()
		if q := r.URL.Query().Get("q"); q != "" {
			field := catalog.SearchField(r.URL.Query().Get("field"))
			if field == "" {
				field = catalog.FieldAll
			}
			events = catalog.Search(events, q, field)
		}
		writeJSON(w, http.StatusOK, EventsResponse{Events: events})

	case http.MethodPost:
		s.withAdmin(func(w http.ResponseWriter, r *http.Request) {
			var ev catalog.Event
			if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
				http.Error(w, `{"error":"invalid_json_body"}`, http.StatusBadRequest)
				return
			}
			if ev.Name == "" {
				http.Error(w, `{"error":"missing_required_fields"}`, http.StatusBadRequest)
				return
			}
			stored := s.catalog.Add(ev)
			writeJSON(w, http.StatusCreated, stored)
		})(w, r)

	default:
		http.Error(w, `{"error":"method_not_allowed"}`, http.StatusMethodNotAllowed)
	}
}

// handleEventByID serves get/update/delete for a single event.
func (s *Server) handleEventByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/events/")
	if id == "" {
		http.Error(w, `{"error":"missing_event_id"}`, http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		ev, ok := s.catalog.Get(id)
		if !ok {
			http.Error(w, `{"error":"event_not_found"}`, http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, ev)

	case http.MethodPut:
		s.withAdmin(func(w http.ResponseWriter, r *http.Request) {
			var ev catalog.Event
			if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
				http.Error(w, `{"error":"invalid_json_body"}`, http.StatusBadRequest)
				return
			}
			if !s.catalog.Update(id, ev) {
				http.Error(w, `{"error":"event_not_found"}`, http.StatusNotFound)
				return
			}
			updated, _ := s.catalog.Get(id)
			writeJSON(w, http.StatusOK, updated)
		})(w, r)

	case http.MethodDelete:
		s.withAdmin(func(w http.ResponseWriter, r *http.Request) {
			if !s.catalog.Delete(id) {
				http.Error(w, `{"error":"event_not_found"}`, http.StatusNotFound)
				return
			}
			// A deleted event must not keep alerting.
			s.notifier.Cancel(id)
			s.prefs.RemoveFollowed(id)
			s.prefs.RemovePinned(id)
			s.board.Recompute()
			w.WriteHeader(http.StatusNoContent)
		})(w, r)

	default:
		http.Error(w, `{"error":"method_not_allowed"}`, http.StatusMethodNotAllowed)
	}
}

// handleExport streams the catalog snapshot.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, `{"error":"method_not_allowed"}`, http.StatusMethodNotAllowed)
		return
	}
	raw := s.catalog.ExportSnapshot()
	if raw == nil {
		http.Error(w, `{"error":"export_failed"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=spawnwatch_export_%d.json", s.clock.Now().Unix()))
	w.WriteHeader(http.StatusOK)
	w.Write(raw)
}

// handleImport replaces the catalog from an uploaded snapshot.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, `{"error":"method_not_allowed"}`, http.StatusMethodNotAllowed)
		return
	}
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, `{"error":"read_failed"}`, http.StatusBadRequest)
		return
	}
	if !s.catalog.ImportSnapshot(raw) {
		http.Error(w, `{"error":"invalid_snapshot"}`, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "imported",
		"version": s.catalog.Version(),
	})
}

// handlePrefs returns the preference state.
func (s *Server) handlePrefs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, `{"error":"method_not_allowed"}`, http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, PrefsResponse{
		Followed:      s.prefs.Followed(),
		Pinned:        s.prefs.Pinned(),
		Notifications: s.prefs.NotificationsEnabled(),
	})
}

// handleFollow follows (POST) or unfollows (DELETE) an event.
func (s *Server) handleFollow(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/follow/")
	if id == "" {
		http.Error(w, `{"error":"missing_event_id"}`, http.StatusBadRequest)
		return
	}
	ev, ok := s.catalog.Get(id)
	if !ok {
		http.Error(w, `{"error":"event_not_found"}`, http.StatusNotFound)
		return
	}

	switch r.Method {
	case http.MethodPost:
		s.prefs.AddFollowed(id)
		if s.prefs.NotificationsEnabled() {
			s.scheduleWatcher(id)
		}
		s.notifier.Announce("Following "+ev.Name, "You will be alerted before each occurrence")
		s.board.Recompute()
		w.WriteHeader(http.StatusNoContent)

	case http.MethodDelete:
		s.prefs.RemoveFollowed(id)
		s.notifier.Cancel(id)
		s.notifier.Announce("Unfollowed "+ev.Name, "Alerts for this event are off")
		s.board.Recompute()
		w.WriteHeader(http.StatusNoContent)

	default:
		http.Error(w, `{"error":"method_not_allowed"}`, http.StatusMethodNotAllowed)
	}
}

// handlePin pins (POST) or unpins (DELETE) an event.
func (s *Server) handlePin(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/pin/")
	if id == "" {
		http.Error(w, `{"error":"missing_event_id"}`, http.StatusBadRequest)
		return
	}
	if _, ok := s.catalog.Get(id); !ok {
		http.Error(w, `{"error":"event_not_found"}`, http.StatusNotFound)
		return
	}

	switch r.Method {
	case http.MethodPost:
		s.prefs.AddPinned(id)
	case http.MethodDelete:
		s.prefs.RemovePinned(id)
	default:
		http.Error(w, `{"error":"method_not_allowed"}`, http.StatusMethodNotAllowed)
		return
	}
	s.board.Recompute()
	w.WriteHeader(http.StatusNoContent)
}

// handleNotifications toggles the global notifications flag. Enabling
// schedules a watcher per followed event; disabling cancels them all.
func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, `{"error":"method_not_allowed"}`, http.StatusMethodNotAllowed)
		return
	}
	var req NotificationsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid_json_body"}`, http.StatusBadRequest)
		return
	}

	s.prefs.SetNotificationsEnabled(req.Enabled)
	if req.Enabled {
		for _, id := range s.prefs.Followed() {
			s.scheduleWatcher(id)
		}
	} else {
		s.notifier.CancelAll()
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleAlerts returns the recent alert feed.
func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, `{"error":"method_not_allowed"}`, http.StatusMethodNotAllowed)
		return
	}
	alerts := s.feed.Recent()
	if alerts == nil {
		alerts = []notify.Alert{}
	}
	writeJSON(w, http.StatusOK, alerts)
}

// handleLogin exchanges the admin secret for a session token.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, `{"error":"method_not_allowed"}`, http.StatusMethodNotAllowed)
		return
	}
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid_json_body"}`, http.StatusBadRequest)
		return
	}
	if req.Password != s.secret {
		http.Error(w, `{"error":"unauthorized","reason":"wrong_password"}`, http.StatusUnauthorized)
		return
	}

	token := generateToken()
	s.kv.Set(store.KeyAdminSession, []byte(hashToken(token)))
	writeJSON(w, http.StatusOK, LoginResponse{Token: token})
}

// handleReset restores the seed catalog and clears preferences.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, `{"error":"method_not_allowed"}`, http.StatusMethodNotAllowed)
		return
	}
	s.notifier.CancelAll()
	s.prefs.Reset()
	s.catalog.Reset()
	w.WriteHeader(http.StatusNoContent)
}

// scheduleWatcher registers a lead-window watcher that re-reads the event
// on every check, so rule edits take effect without re-following.
func (s *Server) scheduleWatcher(id string) {
	ev, ok := s.catalog.Get(id)
	if !ok {
		return
	}
	s.notifier.Schedule(id, ev.Name, func(now time.Time) []time.Time {
		cur, ok := s.catalog.Get(id)
		if !ok {
			return nil
		}
		return cur.Occurrences(now)
	})
}

// Middleware: Admin Session
func (s *Server) withAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, `{"error":"unauthorized","reason":"missing_token"}`, http.StatusUnauthorized)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			http.Error(w, `{"error":"unauthorized","reason":"invalid_token_format"}`, http.StatusUnauthorized)
			return
		}

		session, ok := s.kv.Get(store.KeyAdminSession)
		if !ok || hashToken(parts[1]) != string(session) {
			http.Error(w, `{"error":"unauthorized","reason":"invalid_token"}`, http.StatusUnauthorized)
			return
		}

		next(w, r)
	}
}

// Middleware: Panic Recovery
func withRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				fmt.Printf(`{"level":"error","msg":"panic_recovered","error":"%v","path":"%s"}`+"\n", err, r.URL.Path)
				http.Error(w, `{"error":"internal_server_error"}`, http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// Middleware: Request Logging
func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)
		duration := time.Since(start)
		fmt.Printf(`{"level":"info","msg":"http_request","method":"%s","path":"%s","status":%d,"duration_ms":%d}`+"\n",
			r.Method, r.URL.Path, ww.status, duration.Milliseconds())
	})
}

// statusWriter captures HTTP status code
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		fmt.Printf(`{"level":"error","msg":"failed_to_encode_response","error":"%v"}`+"\n", err)
	}
}

func generateToken() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano()) // Fallback
	}
	return hex.EncodeToString(b)
}

func hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}
