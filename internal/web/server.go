package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/slok/stagewatch/internal/app/dashboard"
	"github.com/slok/stagewatch/internal/app/inject"
	"github.com/slok/stagewatch/internal/app/refresh"
	"github.com/slok/stagewatch/internal/app/shutdown"
	"github.com/slok/stagewatch/internal/log"
	"github.com/slok/stagewatch/internal/model"
	"github.com/slok/stagewatch/internal/uistate"
	"github.com/slok/stagewatch/internal/view"
)

const (
	defaultListenAddr      = ":8080"
	serverShutdownTimeout  = 10 * time.Second
	confirmShutdownValue   = "yes"
	maxFormBodyBytes int64 = 1 << 20
)

// RefreshService is the refresh coordinator used by the web dashboard.
type RefreshService interface {
	Tick(ctx context.Context) refresh.State
	SetInterval(ctx context.Context, interval time.Duration) error
}

// DashboardService builds the dashboard view.
type DashboardService interface {
	Run(ctx context.Context, req dashboard.Request) (*view.Dashboard, error)
	Build(st refresh.State, req dashboard.Request) view.Dashboard
	UIState() view.UIState
}

// ShutdownService shuts down the backend.
type ShutdownService interface {
	Run(ctx context.Context, req shutdown.Request) (string, error)
}

// InjectService injects tasks into a backend node.
type InjectService interface {
	Run(ctx context.Context, req inject.Request) (*model.TaskInjection, error)
}

// ServerConfig is the configuration of the web dashboard server.
type ServerConfig struct {
	ListenAddr string
	Refresh    RefreshService
	Dashboard  DashboardService
	UIState    *uistate.State
	Shutdown   ShutdownService
	Inject     InjectService
	Logger     log.Logger
}

func (c *ServerConfig) defaults() error {
	if c.ListenAddr == "" {
		c.ListenAddr = defaultListenAddr
	}

	if c.Refresh == nil {
		return fmt.Errorf("refresh service is required")
	}

	if c.Dashboard == nil {
		return fmt.Errorf("dashboard service is required")
	}

	if c.UIState == nil {
		return fmt.Errorf("UI state is required")
	}

	if c.Shutdown == nil {
		return fmt.Errorf("shutdown service is required")
	}

	if c.Inject == nil {
		return fmt.Errorf("inject service is required")
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "web.Server"})

	return nil
}

// Server is the HTML dashboard and JSON API server.
type Server struct {
	listenAddr string
	refresh    RefreshService
	dashboard  DashboardService
	ui         *uistate.State
	shutdown   ShutdownService
	inject     InjectService
	page       *template.Template
	handler    http.Handler
	logger     log.Logger
}

// NewServer creates a new web dashboard server.
func NewServer(cfg ServerConfig) (*Server, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	page, err := template.New("page").Funcs(funcMap).Parse(tmplBase + tmplDashboard)
	if err != nil {
		return nil, fmt.Errorf("could not parse dashboard templates: %w", err)
	}

	s := &Server{
		listenAddr: cfg.ListenAddr,
		refresh:    cfg.Refresh,
		dashboard:  cfg.Dashboard,
		ui:         cfg.UIState,
		shutdown:   cfg.Shutdown,
		inject:     cfg.Inject,
		page:       page,
		logger:     cfg.Logger,
	}
	s.handler = otelhttp.NewHandler(s.router(), "stagewatch")

	return s, nil
}

func (s *Server) router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.metricsMiddleware)

	r.HandleFunc("/", s.handlePage).Methods(http.MethodGet)
	r.HandleFunc("/api/dashboard", s.handleDashboard).Methods(http.MethodGet)
	r.HandleFunc("/api/state", s.handleUIState).Methods(http.MethodGet)
	r.HandleFunc("/api/collapse", s.handleCollapse).Methods(http.MethodPost)
	r.HandleFunc("/api/order", s.handleOrder).Methods(http.MethodPost)
	r.HandleFunc("/api/hidden", s.handleHidden).Methods(http.MethodPost)
	r.HandleFunc("/api/theme", s.handleTheme).Methods(http.MethodPost)
	r.HandleFunc("/api/interval", s.handleInterval).Methods(http.MethodPost)
	r.HandleFunc("/api/refresh", s.handleRefresh).Methods(http.MethodPost)
	r.HandleFunc("/api/inject", s.handleInject).Methods(http.MethodPost)
	r.HandleFunc("/api/shutdown", s.handleShutdown).Methods(http.MethodPost)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	return r
}

// Handler returns the instrumented HTTP handler of the server.
func (s *Server) Handler() http.Handler { return s.handler }

// Run serves the dashboard until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.listenAddr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errC := make(chan error, 1)
	go func() {
		s.logger.Infof("Dashboard listening on %s", s.listenAddr)
		errC <- srv.ListenAndServe()
	}()

	select {
	case err := <-errC:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("dashboard server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), serverShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("could not shutdown dashboard server: %w", err)
	}

	return nil
}

func dashboardRequest(r *http.Request) dashboard.Request {
	q := r.URL.Query()
	return dashboard.Request{
		NodeFilter:      q.Get("node"),
		Dragging:        q.Get("dragging"),
		InjectionSearch: q.Get("search"),
	}
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	d, err := s.dashboard.Run(r.Context(), dashboardRequest(r))
	if err != nil {
		s.writeError(w, r, fmt.Errorf("could not build dashboard: %w", err))
		return
	}

	data := pageData{
		Dashboard: *d,
		Intervals: intervalOptions(),
		Search:    r.URL.Query().Get("search"),
	}
	for _, c := range d.Cards {
		data.Order = append(data.Order, c.Name)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.page.ExecuteTemplate(w, "base", data); err != nil {
		s.logger.Errorf("Could not render dashboard page: %s", err)
	}
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.dashboard.Run(r.Context(), dashboardRequest(r))
	if err != nil {
		s.writeError(w, r, fmt.Errorf("could not build dashboard: %w", err))
		return
	}

	s.writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleUIState(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.dashboard.UIState())
}

func (s *Server) handleCollapse(w http.ResponseWriter, r *http.Request) {
	if !s.parseForm(w, r) {
		return
	}

	id := r.PostForm.Get("id")
	if id == "" {
		s.writeError(w, r, fmt.Errorf("node id is required: %w", model.ErrNotValid))
		return
	}

	collapsed := s.ui.Collapse.Toggle(r.Context(), id)
	s.writeResult(w, r, map[string]any{"id": id, "collapsed": collapsed})
}

func (s *Server) handleOrder(w http.ResponseWriter, r *http.Request) {
	if !s.parseForm(w, r) {
		return
	}

	names := r.PostForm["order[]"]
	if len(names) == 0 {
		// Plain HTML forms send a comma separated list.
		for n := range strings.SplitSeq(r.PostForm.Get("order"), ",") {
			names = append(names, strings.TrimSpace(n))
		}
	}

	s.ui.Order.Set(r.Context(), names)
	s.writeResult(w, r, map[string]any{"order": s.ui.Order.Names()})
}

func (s *Server) handleHidden(w http.ResponseWriter, r *http.Request) {
	if !s.parseForm(w, r) {
		return
	}

	node := r.PostForm.Get("node")
	if node == "" {
		s.writeError(w, r, fmt.Errorf("node is required: %w", model.ErrNotValid))
		return
	}

	hidden := s.ui.Hidden.Toggle(r.Context(), node)
	s.writeResult(w, r, map[string]any{"node": node, "hidden": hidden})
}

func (s *Server) handleTheme(w http.ResponseWriter, r *http.Request) {
	if !s.parseForm(w, r) {
		return
	}

	theme := uistate.ThemeName(r.PostForm.Get("theme"))
	if err := s.ui.Theme.Set(r.Context(), theme); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeResult(w, r, map[string]any{"theme": s.ui.Theme.Get()})
}

func (s *Server) handleInterval(w http.ResponseWriter, r *http.Request) {
	if !s.parseForm(w, r) {
		return
	}

	ms, err := strconv.ParseInt(r.PostForm.Get("interval"), 10, 64)
	if err != nil {
		s.writeError(w, r, fmt.Errorf("interval must be milliseconds: %w", model.ErrNotValid))
		return
	}

	interval := time.Duration(ms) * time.Millisecond
	if err := s.refresh.SetInterval(r.Context(), interval); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeResult(w, r, map[string]any{"interval": ms})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	st := s.refresh.Tick(r.Context())
	d := s.dashboard.Build(st, dashboardRequest(r))
	s.writeResult(w, r, d)
}

func (s *Server) handleInject(w http.ResponseWriter, r *http.Request) {
	if !s.parseForm(w, r) {
		return
	}

	inj, err := s.inject.Run(r.Context(), inject.Request{
		Node: r.PostForm.Get("node"),
		Data: []byte(r.PostForm.Get("data")),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeResult(w, r, map[string]any{"node": inj.Node, "timestamp": inj.Timestamp})
}

func (s *Server) handleShutdown(w http.ResponseWriter, r *http.Request) {
	if !s.parseForm(w, r) {
		return
	}

	msg, err := s.shutdown.Run(r.Context(), shutdown.Request{
		Confirmed: r.PostForm.Get("confirm") == confirmShutdownValue,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{"message": msg})
}

func (s *Server) parseForm(w http.ResponseWriter, r *http.Request) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBodyBytes)
	if err := r.ParseForm(); err != nil {
		s.writeError(w, r, fmt.Errorf("invalid form: %s: %w", err, model.ErrNotValid))
		return false
	}
	return true
}

// writeResult redirects browser form submissions back to the page, API clients get JSON.
func (s *Server) writeResult(w http.ResponseWriter, r *http.Request, v any) {
	if wantsHTML(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.writeJSON(w, http.StatusOK, v)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := errorStatusCode(err)
	if code >= http.StatusInternalServerError {
		s.logger.Errorf("Request %s %s failed: %s", r.Method, r.URL.Path, err)
	} else {
		s.logger.Debugf("Request %s %s rejected: %s", r.Method, r.URL.Path, err)
	}

	s.writeJSON(w, code, map[string]string{"error": err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warningf("Could not write JSON response: %s", err)
	}
}

func errorStatusCode(err error) int {
	switch {
	case errors.Is(err, model.ErrNotValid), errors.Is(err, model.ErrNotConfirmed):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}

func wantsHTML(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

func intervalOptions() []int64 {
	opts := make([]int64, 0, len(model.AllowedRefreshIntervals))
	for _, d := range model.AllowedRefreshIntervals {
		opts = append(opts, d.Milliseconds())
	}
	return opts
}
