// Package server hosts the HTTP surface over the habit engine.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/GabrielVictorica/rutina/calendar"
	"github.com/GabrielVictorica/rutina/internal/metrics"
	"github.com/GabrielVictorica/rutina/internal/profile"
	apiv1 "github.com/GabrielVictorica/rutina/server/router/api/v1"
	"github.com/GabrielVictorica/rutina/store"
)

type Server struct {
	Profile *profile.Profile
	Store   *store.Store

	echoServer *echo.Echo
	apiService *apiv1.APIV1Service
	scheduler  *Scheduler
}

func NewServer(_ context.Context, profile *profile.Profile, st *store.Store) (*Server, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogMethod: true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			slog.Info("request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
			)
			return nil
		},
	}))

	var cal calendar.Service = calendar.NoOp{}
	if profile.IsCalendarEnabled() {
		cal = calendar.NewHTTP(profile.CalendarBaseURL, profile.CalendarToken)
	}

	apiService := apiv1.NewAPIV1Service(profile, st, cal)
	apiService.RegisterRoutes(e.Group("/api/v1"))

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "Service ready.")
	})
	e.GET("/metrics", echo.WrapHandler(metrics.Default.Handler()))

	s := &Server{
		Profile:    profile,
		Store:      st,
		echoServer: e,
		apiService: apiService,
		scheduler:  NewScheduler(apiService),
	}
	return s, nil
}

// API returns the v1 service, mainly so the entrypoint can attach notice
// sinks before any ledger is loaded.
func (s *Server) API() *apiv1.APIV1Service {
	return s.apiService
}

func (s *Server) Start(_ context.Context) error {
	s.scheduler.Start()
	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	return s.echoServer.Start(address)
}

func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	s.scheduler.Stop()

	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown server", "error", err)
	}
	if err := s.Store.Close(); err != nil {
		slog.Error("failed to close database", "error", err)
	}
	slog.Info("server stopped")
}
