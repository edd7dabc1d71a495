// Package http serves the ledger's JSON API and spreadsheet downloads.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"ledger/internal/cache"
	"ledger/internal/finance"
	"ledger/internal/interchange"
	"ledger/internal/locale"
	"ledger/internal/log"
	"ledger/internal/middleware/ratelimit"
	"ledger/internal/middleware/security"
	"ledger/internal/middleware/trace"
	"ledger/internal/ports"
)

const (
	defaultImportMaxBytes = 10 << 20
	cacheSweepInterval    = 10 * time.Minute
)

// Options configures NewServer. Store is required; a nil Memo gets a small
// default one.
type Options struct {
	Addr           string
	Store          ports.Store
	Memo           *finance.Memo
	Notifier       ports.ImportNotifier
	DefaultLocale  string
	ImportMaxBytes int64
	Logger         *log.Logger
}

type Server struct {
	http.Server

	store          ports.Store
	memo           *finance.Memo
	importer       *interchange.Importer
	defaultLabels  *locale.Labels
	importMaxBytes int64
	logger         *log.Logger
	now            func() time.Time

	limiter      *ratelimit.Limiter
	stopJanitor  context.CancelFunc
	shutdownOnce sync.Once
}

// NewServer wires the routes and middleware and starts the background cache
// sweep. Call Shutdown to stop it.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Wrap(nil, log.ComponentHTTP)
	}
	memo := opts.Memo
	if memo == nil {
		memo = finance.NewMemo(64, 10*time.Minute, logger.WithComponent(log.ComponentFinance).Logger)
	}
	maxBytes := opts.ImportMaxBytes
	if maxBytes <= 0 {
		maxBytes = defaultImportMaxBytes
	}

	importerOpts := []interchange.Option{
		interchange.WithLogger(logger.WithComponent(log.ComponentInterchange).Logger),
	}
	if opts.Notifier != nil {
		importerOpts = append(importerOpts, interchange.WithNotifier(opts.Notifier))
	}

	s := &Server{
		store:          opts.Store,
		memo:           memo,
		importer:       interchange.NewImporter(opts.Store, importerOpts...),
		defaultLabels:  locale.Match(opts.DefaultLocale),
		importMaxBytes: maxBytes,
		logger:         logger,
		now:            time.Now,
		limiter:        ratelimit.NewLimiter(ratelimit.DefaultConfig()),
	}

	janitorCtx, cancel := context.WithCancel(context.Background())
	s.stopJanitor = cancel
	go cache.NewJanitor(logger.WithComponent(log.ComponentCache).Logger, memo).Run(janitorCtx, cacheSweepInterval)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /api/summary", s.handleSummary)
	mux.HandleFunc("GET /api/office-expenses/categories", s.handleCategories)
	mux.HandleFunc("GET /api/export", s.handleExportAll)
	mux.HandleFunc("GET /api/export/{entity}", s.handleExport)
	mux.HandleFunc("POST /api/import/{entity}", s.handleImport)
	mux.HandleFunc("GET /api/attachments/{entity}/{id}", s.handleAttachments)
	mux.HandleFunc("GET /api/{entity}", s.handleList)

	detector := security.NewDetector()
	var handler http.Handler = mux
	handler = s.limiter.Middleware(detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusTooManyRequests, "rate limit exceeded")
	})(handler)
	handler = detector.Middleware(logger.WithComponent(log.ComponentSecurity).Logger)(handler)
	handler = security.Headers(security.DefaultHeadersConfig())(handler)
	handler = trace.Middleware(logger, detector.ExtractClientIP)(handler)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       2 * time.Minute,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       2 * time.Minute,
	}
	return s
}

// Shutdown stops the background goroutines and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.stopJanitor()
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.store.Ping(ctx); err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
		http.Error(w, "not ready", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
