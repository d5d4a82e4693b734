// Package web serves the company browser page and its JSON API.
package web

import (
	"context"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sells-group/where2work/internal/cache"
	"github.com/sells-group/where2work/internal/chart"
	"github.com/sells-group/where2work/internal/dataset"
	"github.com/sells-group/where2work/internal/filter"
	"github.com/sells-group/where2work/internal/model"
	"github.com/sells-group/where2work/internal/store"
)

// Chart views.
const (
	ViewShortlist = "shortlist"
	ViewAll       = "all"
)

// Options tunes the server. Zero values fall back to defaults.
type Options struct {
	ChartSeed      int64
	ChartWidth     int
	ChartHeight    int
	RateLimitRPS   float64
	RateLimitBurst int
	CORSOrigins    []string
	SessionTTL     time.Duration
	// TrustProxy takes the client address from X-Forwarded-For/X-Real-IP.
	// Only enable behind a proxy that sets those headers itself.
	TrustProxy bool
}

// Server holds the dependencies shared by all handlers.
type Server struct {
	source  *dataset.Source
	store   store.Store
	cache   *cache.ViewCache
	limiter *ClientLimiter
	page    *template.Template
	opts    Options
}

// NewServer wires a Server. views may be nil to disable view caching.
func NewServer(source *dataset.Source, st store.Store, views *cache.ViewCache, opts Options) *Server {
	if opts.ChartSeed == 0 {
		opts.ChartSeed = chart.DefaultSeed
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 30 * 24 * time.Hour
	}
	return &Server{
		source:  source,
		store:   st,
		cache:   views,
		limiter: NewClientLimiter(opts.RateLimitRPS, opts.RateLimitBurst, 10*time.Minute),
		page:    pageTemplate,
		opts:    opts,
	}
}

// Routes builds the chi router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	if s.opts.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(AccessLog)
	r.Use(Recover)

	r.Get("/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(s.limiter.Middleware)

		r.Get("/", s.handleIndex)
		r.Get("/chart/{view}.svg", s.handleChartSVG)
		r.Post("/shortlist/toggle", s.handleToggleForm)
		r.Post("/shortlist/clear", s.handleClearForm)

		r.Route("/api", func(r chi.Router) {
			if len(s.opts.CORSOrigins) > 0 {
				r.Use(cors.Handler(cors.Options{
					AllowedOrigins:   s.opts.CORSOrigins,
					AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
					AllowedHeaders:   []string{"Content-Type", "X-Request-ID"},
					ExposedHeaders:   []string{"X-Request-ID"},
					AllowCredentials: true,
					MaxAge:           300,
				}))
			}
			r.Get("/options", s.handleOptions)
			r.Get("/companies", s.handleCompanies)
			r.Get("/metrics", s.handleMetrics)
			r.Get("/chart/{view}", s.handleChartJSON)
			r.Get("/shortlist", s.handleListShortlist)
			r.Post("/shortlist", s.handleAddShortlist)
			r.Delete("/shortlist", s.handleClearShortlist)
			r.Delete("/shortlist/{name}", s.handleRemoveShortlist)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, r, http.StatusNotFound, "not_found", "no such route")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	})
	return r
}

// view is everything one page render or API call derives from the request.
type view struct {
	Dataset   *dataset.Dataset
	Selection filter.Selection
	Filtered  []model.Company
	Shortlist []model.Company
	Others    []model.Company
	Names     map[string]bool
	Metrics   filter.Metrics
}

// buildView filters the current data set by the request query and splits
// the result by the session's shortlist.
func (s *Server) buildView(ctx context.Context, r *http.Request) (view, error) {
	d := s.source.Current()
	sel := filter.FromQuery(r.URL.Query()).Normalize()
	filtered := s.cache.Filter(d, sel)

	names := map[string]bool{}
	if id := readSession(r); id != "" {
		entries, err := s.store.ListShortlist(ctx, id)
		if err != nil {
			return view{}, err
		}
		names = model.ShortlistNames(entries)
	}

	in, out := filter.Partition(filtered, names)
	m := filter.NewMetrics(len(filtered), d.Len())
	m.Shortlisted = len(in)

	return view{
		Dataset:   d,
		Selection: sel,
		Filtered:  filtered,
		Shortlist: in,
		Others:    out,
		Names:     names,
		Metrics:   m,
	}, nil
}

// records returns the companies shown in the named chart view.
func (v view) records(name string) ([]model.Company, bool) {
	switch name {
	case ViewShortlist:
		return v.Shortlist, true
	case ViewAll:
		return v.Others, true
	default:
		return nil, false
	}
}
