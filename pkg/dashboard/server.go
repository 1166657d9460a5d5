// Package dashboard serves the web console: KPI cards, a searchable and
// editable record table, an add form, and CSV bulk import, all rendered
// server-side over the records API client.
package dashboard

import (
	"context"
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/recadm/recadm/pkg/client"
	"github.com/recadm/recadm/pkg/logging"
	"github.com/recadm/recadm/pkg/table"
)

//go:embed templates/*.html.tmpl
var templateFS embed.FS

// Config configures the dashboard server.
type Config struct {
	// Client talks to the records API.
	Client client.Client

	// APIURL is shown in the header so the operator knows which backend
	// the console is pointed at.
	APIURL string

	// CacheTTL bounds how long a loaded snapshot is served before the
	// next page view reloads it. Zero means reload on every view.
	CacheTTL time.Duration

	// ImportRequire lists fields a CSV row must carry to be imported.
	ImportRequire []string

	// Logger receives request and operation logs. Defaults to nop.
	Logger *slog.Logger
}

// Server is the dashboard HTTP server.
type Server struct {
	client  client.Client
	cache   *table.Cache
	apiURL  string
	require []string
	log     *slog.Logger
	tmpl    *template.Template
}

// New creates a dashboard server.
func New(cfg Config) (*Server, error) {
	log := cfg.Logger
	if log == nil {
		log = logging.Nop()
	}

	tmpl, err := template.New("").Funcs(template.FuncMap{
		"cell": cellValue,
	}).ParseFS(templateFS, "templates/*.html.tmpl")
	if err != nil {
		return nil, err
	}

	return &Server{
		client:  cfg.Client,
		cache:   table.NewCache(cfg.CacheTTL),
		apiURL:  cfg.APIURL,
		require: cfg.ImportRequire,
		log:     log,
		tmpl:    tmpl,
	}, nil
}

// Handler returns the routed and middleware-wrapped handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /records", s.handleAdd)
	mux.HandleFunc("POST /records/save", s.handleSave)
	mux.HandleFunc("POST /records/delete", s.handleDelete)
	mux.HandleFunc("POST /import", s.handleImport)
	mux.HandleFunc("POST /refresh", s.handleRefresh)
	mux.HandleFunc("GET /export.csv", s.handleExport)

	// JSON side door for scripts and probes.
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /api/records", s.handleAPIRecords)

	var h http.Handler = mux
	h = securityHeaders(h)
	h = requestLog(s.log, h)
	h = recoverPanic(s.log, h)
	return h
}

// ListenAndServe runs the dashboard on addr until the listener fails.
func (s *Server) ListenAndServe(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.log.Info("dashboard listening", "addr", addr, "api", s.apiURL)
	return srv.ListenAndServe()
}

// load returns the current snapshot through the TTL cache.
func (s *Server) load(r *http.Request) (*table.Model, error) {
	return s.cache.Get(r.Context(), func(ctx context.Context) (*table.Model, error) {
		return table.Load(ctx, s.client)
	})
}
