package web

import (
	"context"
	"embed"
	stderrors "errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hpungsan/curatr/internal/metrics"
	"github.com/hpungsan/curatr/internal/ops"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

// ShutdownTimeout bounds graceful shutdown.
const ShutdownTimeout = 5 * time.Second

// Options configures NewServer.
type Options struct {
	Version string
	Bind    string
	Port    int
	Metrics *metrics.Metrics
	Logger  *zap.Logger
}

// NewServer creates and configures the HTTP server for the curatr web UI.
func NewServer(env *ops.Env, opts Options) (*http.Server, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	templateSub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		return nil, fmt.Errorf("template sub-FS: %w", err)
	}
	staticSub, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("static sub-FS: %w", err)
	}

	h := &Handlers{
		env:      env,
		renderer: NewRenderer(templateSub, opts.Version, logger),
	}

	mux := http.NewServeMux()
	routes(mux, h)
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(staticSub)))
	if opts.Metrics != nil {
		mux.Handle("GET /metrics", opts.Metrics.Handler())
	}

	var handler http.Handler = mux
	handler = opts.Metrics.Middleware(handler)
	handler = requestLog(logger, handler)
	handler = securityHeaders(handler)

	return &http.Server{
		Addr:              fmt.Sprintf("%s:%d", opts.Bind, opts.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}, nil
}

func routes(mux *http.ServeMux, h *Handlers) {
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/recommendations", http.StatusFound)
	})

	mux.HandleFunc("GET /recipients", h.HandleRecipients)
	mux.HandleFunc("POST /recipients", h.HandleCreateRecipient)
	mux.HandleFunc("POST /recipients/{id}/rename", h.HandleRenameRecipient)
	mux.HandleFunc("POST /recipients/{id}/delete", h.HandleDeleteRecipient)
	mux.HandleFunc("DELETE /recipients/{id}", h.HandleDeleteRecipient)

	mux.HandleFunc("GET /recommendations", h.HandleRecommendations)
	mux.HandleFunc("GET /quiz", h.HandleQuiz)
	mux.HandleFunc("POST /quiz", h.HandleSubmitQuiz)

	mux.HandleFunc("GET /memorybox", h.HandleMemoryBox)
	mux.HandleFunc("POST /memorybox", h.HandleSave)
	mux.HandleFunc("POST /memorybox/{item}/refresh", h.HandleRefresh)
	mux.HandleFunc("POST /memorybox/{item}/remove", h.HandleRemove)
	mux.HandleFunc("DELETE /memorybox/{item}", h.HandleRemove)

	mux.HandleFunc("POST /buy/{item}", h.HandleBuy)
}

// securityHeaders adds security-related HTTP headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy", "default-src 'self'; img-src 'self' https://images.unsplash.com; script-src 'self'; style-src 'self'")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		next.ServeHTTP(w, r)
	})
}

type loggedWriter struct {
	http.ResponseWriter
	status int
}

func (w *loggedWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// requestLog logs one line per request at debug, or warn for 5xx.
func requestLog(logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lw := &loggedWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(lw, r)

		fields := []zap.Field{
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", lw.status),
			zap.Duration("elapsed", time.Since(start)),
		}
		if lw.status >= 500 {
			logger.Warn("http request", fields...)
			return
		}
		logger.Debug("http request", fields...)
	})
}

// Run serves srv until ctx is cancelled or SIGINT/SIGTERM arrives, then
// shuts down gracefully.
func Run(ctx context.Context, srv *http.Server, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("curatr UI running", zap.String("url", "http://"+srv.Addr))
		if strings.HasPrefix(srv.Addr, "0.0.0.0") || strings.Contains(srv.Addr, "::") {
			logger.Warn("server is binding to all interfaces and may be accessible from the network")
		}
		if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
