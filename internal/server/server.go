package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/georgemunganga/qrpay/internal/config"
	"github.com/georgemunganga/qrpay/internal/logging"
	"github.com/georgemunganga/qrpay/internal/metrics"
	"github.com/georgemunganga/qrpay/internal/modules/cashier"
	"github.com/georgemunganga/qrpay/internal/modules/customer"
	"github.com/georgemunganga/qrpay/internal/modules/document"
	"github.com/georgemunganga/qrpay/internal/modules/events"
	"github.com/georgemunganga/qrpay/internal/modules/qrcode"
	"github.com/georgemunganga/qrpay/internal/modules/status"
)

// ShutdownGrace bounds how long in-flight requests may run after a stop signal.
const ShutdownGrace = 10 * time.Second

// Server hosts the customer and cashier APIs over one document store.
type Server struct {
	cfg       config.Config
	router    *chi.Mux
	customers customer.Service
	terminals cashier.Service
}

func New(cfg config.Config, store document.Store, publisher events.Publisher) (*Server, error) {
	customers, err := customer.NewService(store, qrcode.NewEncoder(qrcode.DefaultScale), publisher, cfg.SessionCacheSize)
	if err != nil {
		return nil, err
	}
	terminals, err := cashier.NewService(store, publisher, cfg.CommitRetries, cfg.TerminalCacheSize, nil)
	if err != nil {
		return nil, err
	}

	// ── Router ──────────────────────────────────────────────
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(logging.Middleware())
	router.Use(middleware.Recoverer)
	router.Use(cors.New(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	router.Handle("/metrics", metrics.Handler())

	// ── Modules ─────────────────────────────────────────────
	status.NewHandler().RegisterRoutes(router)
	customer.NewHandler(customers).RegisterRoutes(router)
	cashier.NewHandler(terminals).RegisterRoutes(router)

	return &Server{cfg: cfg, router: router, customers: customers, terminals: terminals}, nil
}

func (s *Server) Handler() http.Handler { return s.router }

// Serve listens on the configured port until ctx is done and then drains in-flight requests.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + s.cfg.Port,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Msg("qrpay api listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Warn().Msg("shutting down...")
		// Sessions end first so that open event streams return.
		s.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownGrace)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// Close ends every hosted session and terminal.
func (s *Server) Close() {
	s.customers.Close()
	s.terminals.Close()
}

// Run opens the configured store and event publisher and serves until ctx is done.
func Run(ctx context.Context, cfg config.Config) error {
	store, err := document.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	publisher, err := events.Open(cfg)
	if err != nil {
		return err
	}
	defer publisher.Close()

	srv, err := New(cfg, store, publisher)
	if err != nil {
		return err
	}
	return srv.Serve(ctx)
}
