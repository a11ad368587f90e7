package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"

	"github.com/vidaplena/analytics/internal/dashboard"
	"github.com/vidaplena/analytics/internal/generate"
	"github.com/vidaplena/analytics/internal/platform/auth"
	"github.com/vidaplena/analytics/internal/platform/db"
	"github.com/vidaplena/analytics/internal/platform/middleware"
)

const requestTimeout = 30 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the dashboard API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			return runServer(a)
		},
	}
}

// regenerationGuard protects dataset regeneration. With a signing key a JWT
// carrying the admin role is required; without one the endpoint is open in
// development and disabled elsewhere.
func regenerationGuard(a *app) []echo.MiddlewareFunc {
	limit := middleware.RateLimit(middleware.DefaultRateLimitConfig())
	switch {
	case a.cfg.JWTSigningKey != "":
		return []echo.MiddlewareFunc{
			auth.JWTMiddleware(auth.JWTConfig{SigningKey: []byte(a.cfg.JWTSigningKey)}),
			auth.RequireRole(auth.RoleAdmin),
			limit,
		}
	case a.cfg.IsDev():
		return []echo.MiddlewareFunc{auth.DevAuthMiddleware(), auth.RequireRole(auth.RoleAdmin), limit}
	default:
		return []echo.MiddlewareFunc{func(echo.HandlerFunc) echo.HandlerFunc {
			return func(echo.Context) error {
				return echo.NewHTTPError(http.StatusForbidden, "regeneration is disabled: JWT_SIGNING_KEY is not configured")
			}
		}}
	}
}

// newServer wires the HTTP API. pool may be nil when no warehouse is
// configured.
func newServer(a *app, pool db.Pinger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(a.logger))
	e.Use(middleware.RequestID())
	e.Use(a.metrics.MetricsMiddleware())
	e.Use(middleware.Logger(a.logger))
	e.Use(middleware.SecurityHeaders(a.cfg.IsProduction()))
	e.Use(middleware.RequestTimeout(requestTimeout, "/api/v1/datasets/"))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})
	e.GET("/metrics", a.metrics.PrometheusHandler())
	if pool != nil {
		e.GET("/health/db", db.HealthHandler(pool))
	}

	store := dashboard.NewStore(a.paths, a.cfg.CacheTTL, a.metrics, a.logger)
	runner := generate.NewRunner(a.catalog, a.paths, a.metrics, a.logger)
	h := dashboard.NewHandler(store, runner, a.options(), a.catalog, a.metrics)
	h.RegisterRoutes(e.Group("/api/v1"), regenerationGuard(a)...)
	return e
}

func runServer(a *app) error {
	ctx, stop := signalContext()
	defer stop()

	var pinger db.Pinger
	if a.cfg.DatabaseURL != "" {
		pool, err := db.NewPool(a.logger.WithContext(ctx), db.PoolConfig{
			URL:        a.cfg.DatabaseURL,
			MaxConns:   a.cfg.DBMaxConns,
			MinConns:   a.cfg.DBMinConns,
			MaxElapsed: 30 * time.Second,
		})
		if err != nil {
			return err
		}
		defer pool.Close()
		pinger = pool
		a.logger.Info().Msg("connected to warehouse database")
	}

	e := newServer(a, pinger)

	errc := make(chan error, 1)
	go func() {
		addr := ":" + a.cfg.Port
		a.logger.Info().Str("addr", addr).Str("env", a.cfg.Env).Msg("starting server")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	a.logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return err
	}
	a.logger.Info().Msg("server stopped")
	return nil
}
