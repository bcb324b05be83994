// Package server exposes subscriptions and the dashboard over a local HTTP API.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gigurra/subsight/internal"
	"github.com/gigurra/subsight/internal/store"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const shutdownTimeout = 5 * time.Second

type Options struct {
	Addr     string
	Currency internal.CurrencyCode
	Limiter  *internal.RateLimiter
	Tracker  internal.Tracker
	// Now is used for the default dashboard year
	Now func() time.Time
}

type Server struct {
	repo     *store.Repository
	log      *logrus.Logger
	addr     string
	currency internal.CurrencyCode
	limiter  *internal.RateLimiter
	tracker  internal.Tracker
	now      func() time.Time

	dashboards singleflight.Group
}

func New(repo *store.Repository, log *logrus.Logger, opts Options) *Server {
	s := &Server{
		repo:     repo,
		log:      log,
		addr:     opts.Addr,
		currency: opts.Currency,
		limiter:  opts.Limiter,
		tracker:  opts.Tracker,
		now:      opts.Now,
	}
	if s.limiter == nil {
		s.limiter = internal.NewRateLimiter(10, time.Minute)
	}
	if s.tracker == nil {
		s.tracker = internal.NopTracker{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Handler returns the router with every route and middleware attached
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(s.logRequests)
	r.HandleFunc("/healthz", s.health).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/subscriptions", s.listSubscriptions).Methods("GET")
	api.HandleFunc("/dashboard", s.dashboard).Methods("GET")
	api.HandleFunc("/export/{format}", s.export).Methods("GET")

	api.Handle("/subscriptions", s.rateLimit(http.HandlerFunc(s.addSubscription))).Methods("POST")
	api.Handle("/subscriptions/{id}", s.rateLimit(http.HandlerFunc(s.updateSubscription))).Methods("PATCH")
	api.Handle("/subscriptions/{id}", s.rateLimit(http.HandlerFunc(s.deleteSubscription))).Methods("DELETE")
	api.Handle("/import", s.rateLimit(http.HandlerFunc(s.importSubscriptions))).Methods("POST")

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log.Infof("Serving dashboard API on http://%s", s.addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.log.Info("Shutting down dashboard API")
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				s.limiter.Cleanup()
			}
		}
	})
	return g.Wait()
}
