package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"

	"github.com/syilabs-io/syi-staking-engine/internal/observability/tracing"
)

const shutdownTimeout = 10 * time.Second

func (s *Service) startApiServer(ctx context.Context) error {
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port),
		Handler:      s.newRouter(),
		WriteTimeout: s.cfg.Server.WriteTimeout,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Failed to shut down API server cleanly")
		}
	}()

	log.Ctx(ctx).Info().Str("addr", server.Addr).Msg("Starting API server")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("api server failed: %w", err)
	}
	return nil
}

func (s *Service) newRouter() *chi.Mux {
	r := chi.NewRouter()
	r.Use(cors.New(cors.Options{
		AllowedOrigins: s.cfg.Server.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders: []string{"Content-Type", "X-Role-Key"},
	}).Handler)
	r.Use(s.tracingMiddleware)

	r.Get("/healthcheck", s.handleHealthcheck)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/stakes", s.handleStake)
		r.Post("/stakes/{account}/{idx}/unstake", s.handleUnstake)
		r.Post("/stakes/{account}/{idx}/withdraw-interest", s.handleWithdrawInterest)

		r.Post("/referrals/bind", s.handleBindReferrer)
		r.Post("/friends/bind", s.handleBindFriend)

		r.Get("/accounts/{account}", s.handleGetAccount)
		r.Get("/accounts/{account}/stakes", s.handleGetStakes)
		r.Get("/accounts/{account}/stakes/{idx}", s.handleGetStake)
		r.Get("/accounts/{account}/rank", s.handleGetRank)
		r.Get("/accounts/{account}/events", s.handleGetEvents)
		r.Get("/accounts/{account}/tier-audits", s.handleGetTierAudits)
		r.Get("/admission", s.handleGetAdmission)
		r.Get("/params", s.handleGetParams)

		r.Route("/admin", func(r chi.Router) {
			r.With(s.requireRoleKey(s.cfg.Server.AdminKey)).Group(func(r chi.Router) {
				r.Put("/rate-table", s.handleUpdateRateTable)
				r.Put("/thresholds", s.handleUpdateThresholds)
				r.Put("/periods", s.handleUpdatePeriods)
				r.Put("/tier-manager", s.handleRotateTierManager)
				r.Put("/fee-sink", s.handleUpdateFeeSink)
				r.Put("/admission-mode", s.handleUpdateAdmissionMode)
				r.Put("/referrer-stake-requirement", s.handleUpdateReferrerStakeRequirement)
			})
			r.With(s.requireRoleKey(s.cfg.Server.TierManagerKey)).Group(func(r chi.Router) {
				r.Put("/tiers/{account}", s.handleSetTier)
				r.Delete("/tiers/{account}", s.handleRemoveTier)
			})
		})
	})

	return r
}

// tracingMiddleware gives every request a trace id carried by the zerolog
// context, so all log lines of one request correlate.
func (s *Service) tracingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := tracing.InjectTraceID(r.Context())
		startTime := time.Now()
		next.ServeHTTP(w, r.WithContext(ctx))
		log.Ctx(ctx).Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("duration", time.Since(startTime)).
			Msg("Request handled")
	})
}

// requireRoleKey gates admin routes on the X-Role-Key header.
func (s *Service) requireRoleKey(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("X-Role-Key") != key {
				writeErrorResponse(w, r, newUnauthorizedError())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
