package server

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"net/netip"
	"time"

	"blogfront/internal/content"
	"blogfront/internal/model"
	"blogfront/internal/store"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Content is what the pages read from.
type Content interface {
	FetchListing(ctx context.Context) (*content.Listing, error)
	FetchOne(ctx context.Context, slug string) (*model.Detail, error)
	FetchCategoryCounts(ctx context.Context) ([]model.CategoryFilter, error)
}

type Config struct {
	SiteTitle string
	// SiteURL prefixes canonical and OpenGraph URLs. Empty yields relative URLs.
	SiteURL       string
	WebhookSecret string
	StaticDir     string
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	RateLimit     float64
	RateBurst     int
	TopPageSize   int
	BlogPageSize  int
	// LoadMoreDelay is how long a "view more" on the top page holds before
	// the window grows.
	LoadMoreDelay  time.Duration
	TrustedProxies []string
}

type Server struct {
	content   Content
	queue     store.Queue
	cfg       Config
	logger    *zap.Logger
	router    *mux.Router
	server    *http.Server
	templates map[string]*template.Template
	trusted   []netip.Prefix
}

// NewServer wires routes and parses the page templates. queue may be nil
// when the cache is disabled; the webhook then acknowledges without work.
func NewServer(c Content, queue store.Queue, cfg Config, logger *zap.Logger) (*Server, error) {
	tmpls, err := parseTemplates()
	if err != nil {
		return nil, err
	}
	trusted, err := parseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		return nil, err
	}

	s := &Server{
		content:   c,
		queue:     queue,
		cfg:       cfg,
		logger:    logger,
		router:    mux.NewRouter(),
		templates: tmpls,
		trusted:   trusted,
	}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.router.Use(s.requestLogger)
	s.router.Use(newRateLimiter(s.cfg.RateLimit, s.cfg.RateBurst, s.trusted, s.logger).middleware)

	s.router.PathPrefix("/static/").Handler(http.StripPrefix("/static/", s.staticHandler()))
	s.router.HandleFunc("/healthz", s.handleHealth).Methods("GET")

	s.router.HandleFunc("/", s.handleIndex).Methods("GET")
	s.router.HandleFunc("/more", s.handleMore).Methods("GET")
	s.router.HandleFunc("/blog", s.handleBlog).Methods("GET")
	s.router.HandleFunc("/blog/{slug}", s.handleArticle).Methods("GET")
	s.router.HandleFunc("/contact", s.handleContact).Methods("GET")

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/articles", s.handleAPIArticles).Methods("GET")
	api.HandleFunc("/articles/{slug}", s.handleAPIArticle).Methods("GET")
	api.HandleFunc("/categories", s.handleAPICategories).Methods("GET")

	s.router.HandleFunc("/webhooks/cms", s.handleWebhook).Methods("POST")

	s.router.NotFoundHandler = http.HandlerFunc(s.handleNotFound)
}

func (s *Server) staticHandler() http.Handler {
	if s.cfg.StaticDir != "" {
		return http.FileServer(http.Dir(s.cfg.StaticDir))
	}
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.FileServer(http.FS(sub))
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start launches the HTTP server
func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	s.logger.Info("Web server listening", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

var templateFuncs = template.FuncMap{
	"date": func(t time.Time) string {
		return t.Format("Jan 02, 2006")
	},
	"isoDate": func(t time.Time) string {
		return t.Format(time.RFC3339)
	},
}

var pages = []string{"index", "blog", "article", "contact", "error", "notfound"}

func parseTemplates() (map[string]*template.Template, error) {
	tmpls := make(map[string]*template.Template, len(pages))
	for _, name := range pages {
		t, err := template.New("layout.html").Funcs(templateFuncs).ParseFS(templateFS,
			"templates/layout.html",
			"templates/partials.html",
			"templates/"+name+".html",
		)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		tmpls[name] = t
	}
	return tmpls, nil
}
