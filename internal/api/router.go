// Package api serves aggregation results over HTTP.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/built-history/internal/dataset"
	"github.com/sells-group/built-history/internal/legend"
)

// Options configures the router.
type Options struct {
	AllowedOrigins []string
	RateLimitRPS   float64
	RateLimitBurst int
	CacheEntries   int
	CacheTTL       time.Duration
	Defaults       Query
}

// Server holds the snapshot and legend shared read-only by every request.
type Server struct {
	snap     *dataset.Snapshot
	legend   *legend.Legend
	defaults Query
	cache    *ResultCache
}

// NewRouter builds the HTTP handler for snap.
func NewRouter(snap *dataset.Snapshot, lg *legend.Legend, opts Options) http.Handler {
	if lg == nil {
		lg = legend.Default()
	}
	s := &Server{snap: snap, legend: lg, defaults: opts.Defaults}
	if opts.CacheEntries > 0 {
		s.cache = NewResultCache(opts.CacheEntries, opts.CacheTTL)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"X-Snapshot-ID", "X-Cache"},
		MaxAge:         300,
	}))

	r.Get("/health", s.health)

	r.Route("/v1", func(r chi.Router) {
		if opts.RateLimitRPS > 0 {
			r.Use(rateLimit(rate.NewLimiter(rate.Limit(opts.RateLimitRPS), opts.RateLimitBurst)))
		}
		r.Use(s.snapshotHeader)
		r.Get("/aggregate", s.aggregate)
		r.Get("/buildings/{fid}", s.building)
		r.Get("/eras", s.eras)
		r.Get("/cache", s.cacheStats)
	})

	return r
}

// rateLimit rejects requests beyond the limiter's budget with 429.
func rateLimit(limiter *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				w.Header().Set("Retry-After", "1")
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) snapshotHeader(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Snapshot-ID", s.snap.ID.String())
		next.ServeHTTP(w, r)
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		zap.L().Debug("api: request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
