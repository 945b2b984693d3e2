package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/georgemunganga/milkchain-backend/internal/modules/auth"
	"github.com/georgemunganga/milkchain-backend/internal/modules/dashboard"
	"github.com/georgemunganga/milkchain-backend/internal/reconcile"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard API server",
	Long:  `Load all data, then serve the role-based dashboards over HTTP. With reconcile.interval set, unsynced entities are pushed to the remote store periodically.`,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	// A failed load is reported through /api/v1/status; the server still starts.
	if err := a.engine.Bootstrap(ctx); err != nil {
		log.Error().Err(err).Msg("Initial load failed")
	}

	authService, err := auth.NewService(a.cfg.Auth, a.engine, a.store)
	if err != nil {
		return err
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(dashboard.RequestLogger(log.Logger))
	router.Use(middleware.Recoverer)
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	dashboard.NewHandler(a.engine, authService).RegisterRoutes(router)

	srv := &http.Server{
		Addr:         ":" + a.cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer cancel()
		log.Info().Msg("Shutting down HTTP server")
		return srv.Shutdown(shutdownCtx)
	})

	if a.cfg.Reconcile.Interval > 0 && a.engine.Available() {
		g.Go(func() error {
			return runReconcileJob(ctx, a.engine, a.cfg.Reconcile.Interval)
		})
	}

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server error")
		return err
	}
	log.Info().Msg("Server stopped gracefully")
	return nil
}

// runReconcileJob pushes unsynced entities every interval until ctx ends.
func runReconcileJob(ctx context.Context, engine *reconcile.Engine, interval time.Duration) error {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return err
	}
	_, err = scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			report, err := engine.Reconcile(ctx)
			if err != nil {
				log.Error().Err(err).Msg("Scheduled reconcile failed")
				return
			}
			if len(report.Pushed) > 0 || report.Pending() > 0 {
				log.Info().Int("pushed", len(report.Pushed)).Int("pending", report.Pending()).Msg("Scheduled reconcile finished")
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return err
	}

	log.Info().Dur("interval", interval).Msg("Starting reconcile job")
	scheduler.Start()
	<-ctx.Done()
	return scheduler.Shutdown()
}
