// Package devserver pushes hot-reloaded templates to running apps over a
// websocket.
package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/livefir/rsxhot/internal/filemap"
	"github.com/livefir/rsxhot/internal/logging"
	"github.com/livefir/rsxhot/internal/metrics"
	"github.com/livefir/rsxhot/internal/preview"
	"github.com/livefir/rsxhot/internal/store"
)

// Endpoint paths.
const (
	WebSocketPath = "/_rsxhot/ws"
	PreviewPath   = "/_rsxhot/preview"
	MetricsPath   = "/_rsxhot/metrics"
)

// Message types sent to clients.
const (
	// MessageTemplates carries templates to apply. The first message on a
	// connection is a templates message with everything sent so far.
	MessageTemplates = "templates"
	// MessageRebuild asks the client to wait for a full rebuild.
	MessageRebuild = "rebuild"
	// MessageParseError reports a file that does not parse.
	MessageParseError = "parse_error"
)

// Message is the JSON envelope sent to clients.
type Message struct {
	Type      string                         `json:"type"`
	Templates []filemap.TemplateWithLocation `json:"templates,omitempty"`
	Path      string                         `json:"path,omitempty"`
	Error     string                         `json:"error,omitempty"`
}

// Options configure a Server.
type Options struct {
	Addr string
	// Debounce is how long a file must stay quiet before it is reloaded.
	Debounce time.Duration
	Logger   *slog.Logger
	Metrics  *metrics.Collector
}

// Server watches the files of a FileMap and broadcasts template updates.
type Server struct {
	files    *filemap.FileMap
	store    store.Store
	hub      *Hub
	metrics  *metrics.Collector
	logger   *slog.Logger
	addr     string
	debounce time.Duration
	upgrader *websocket.Upgrader
}

// New creates a server. st must be the store the FileMap records sent
// templates in.
func New(files *filemap.FileMap, st store.Store, opts Options) *Server {
	s := &Server{
		files:    files,
		store:    st,
		hub:      NewHub(),
		metrics:  opts.Metrics,
		logger:   logging.OrDiscard(opts.Logger),
		addr:     opts.Addr,
		debounce: opts.Debounce,
		upgrader: &websocket.Upgrader{
			// dev clients run on arbitrary local origins
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	if s.metrics == nil {
		s.metrics = metrics.NewCollector()
	}
	if s.debounce <= 0 {
		s.debounce = 100 * time.Millisecond
	}
	return s
}

// Hub returns the client hub.
func (s *Server) Hub() *Hub { return s.hub }

// Metrics returns the collector.
func (s *Server) Metrics() *metrics.Collector { return s.metrics }

// Handler returns the HTTP handler serving the dev endpoints.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(WebSocketPath, s.handleWebSocket)
	mux.HandleFunc(PreviewPath, s.handlePreview)
	mux.HandleFunc(MetricsPath, s.handleMetrics)
	return mux
}

// Run serves HTTP and watches files until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.addr, Handler: s.Handler()}
	w := newWatcher(s.files.Root(), s.files.Discover, s.debounce, s.HandleChange, s.logger)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("dev server listening", "addr", s.addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return w.run(ctx)
	})
	return g.Wait()
}

// HandleChange processes a changed file and notifies clients.
func (s *Server) HandleChange(ctx context.Context, path string) {
	s.metrics.IncrementAttempt()
	rel := path
	if r, err := filepath.Rel(s.files.Root(), path); err == nil {
		rel = filepath.ToSlash(r)
	}

	templates, err := s.files.Update(ctx, path)
	switch {
	case err == nil:
		s.metrics.IncrementHotReload(len(templates))
		if len(templates) == 0 {
			return
		}
		s.logger.Info("hot reloaded", "path", rel, "templates", len(templates))
		s.broadcast(Message{Type: MessageTemplates, Templates: templates})

	case errors.Is(err, filemap.ErrParse):
		s.metrics.IncrementParseError()
		s.logger.Warn("parse error", "path", rel, "error", err)
		s.broadcast(Message{Type: MessageParseError, Path: rel, Error: err.Error()})

	case errors.Is(err, filemap.ErrNotReloadable):
		s.metrics.IncrementFullRebuild()
		s.logger.Info("full rebuild required", "path", rel)
		s.broadcast(Message{Type: MessageRebuild, Path: rel})

	default:
		s.logger.Error("failed to process change", "path", rel, "error", err)
	}
}

func (s *Server) broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		s.logger.Error("failed to encode message", "error", err)
		return
	}
	for _, c := range s.hub.Broadcast(data) {
		s.logger.Debug("dropping client after failed send", "remote", c.Conn.RemoteAddr())
		s.hub.Unregister(c)
		c.Conn.Close()
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	c := s.hub.Register(conn)
	s.metrics.IncrementClientConnected()
	s.logger.Debug("client connected", "remote", conn.RemoteAddr())
	defer func() {
		s.hub.Unregister(c)
		s.metrics.IncrementClientDisconnected()
		conn.Close()
	}()

	entries, err := s.store.List(r.Context())
	if err != nil {
		s.logger.Error("failed to list templates", "error", err)
		return
	}
	snapshot := Message{Type: MessageTemplates}
	for _, e := range entries {
		snapshot.Templates = append(snapshot.Templates, filemap.TemplateWithLocation{Location: e.Location, Template: e.Template})
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		s.logger.Error("failed to encode snapshot", "error", err)
		return
	}
	if err := c.Send(websocket.TextMessage, data); err != nil {
		return
	}

	// clients only listen; reading detects the close
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug("websocket error", "error", err)
			}
			return
		}
	}
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	s.metrics.IncrementCustomCounter("preview_requests")
	name := r.URL.Query().Get("name")
	if name == "" {
		http.Error(w, "missing name", http.StatusBadRequest)
		return
	}
	tmpl, err := s.store.Get(r.Context(), name)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "unknown template", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	values := preview.PlaceholderValues(tmpl)
	if text := r.URL.Query()["text"]; len(text) > 0 {
		values.DynamicText = text
	}
	out, err := preview.Render(tmpl, values)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(out))
}

type metricsResponse struct {
	Metrics     metrics.ReloadMetrics `json:"metrics"`
	Custom      map[string]int64      `json:"custom"`
	SuccessRate float64               `json:"success_rate"`
	Clients     int                   `json:"clients"`
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(metricsResponse{
		Metrics:     s.metrics.GetMetrics(),
		Custom:      s.metrics.GetCustomCounters(),
		SuccessRate: s.metrics.SuccessRate(),
		Clients:     s.hub.Count(),
	})
}
