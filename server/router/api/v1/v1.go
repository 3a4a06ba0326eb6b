package v1

import (
	"context"
	"net/http"
	"strconv"
	"sync"

	"github.com/labstack/echo/v4"

	"github.com/GabrielVictorica/rutina/analytics"
	"github.com/GabrielVictorica/rutina/calendar"
	"github.com/GabrielVictorica/rutina/internal/profile"
	"github.com/GabrielVictorica/rutina/store"
	"github.com/GabrielVictorica/rutina/tracker"
)

// ownerHeader carries the subject scoping every request. Authentication is
// out of scope; the deployment fronts this API with its own auth layer.
const ownerHeader = "X-Owner-ID"

// APIV1Service wires the habit engine to the JSON API.
type APIV1Service struct {
	Profile  *profile.Profile
	Store    *store.Store
	Calendar calendar.Service

	mu      sync.Mutex
	engines map[int32]*ownerEngine

	noticeSinks []func(tracker.Notice)
}

// ownerEngine bundles the per-owner ledger with its analytics engine.
type ownerEngine struct {
	ledger    *tracker.Ledger
	analytics *analytics.Engine
}

// NewAPIV1Service creates the API service.
func NewAPIV1Service(profile *profile.Profile, st *store.Store, cal calendar.Service) *APIV1Service {
	return &APIV1Service{
		Profile:  profile,
		Store:    st,
		Calendar: cal,
		engines:  make(map[int32]*ownerEngine),
	}
}

// OnNotice registers a sink applied to every owner ledger.
func (s *APIV1Service) OnNotice(fn func(tracker.Notice)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.noticeSinks = append(s.noticeSinks, fn)
}

// Ledgers returns the currently loaded ledgers.
func (s *APIV1Service) Ledgers() []*tracker.Ledger {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*tracker.Ledger, 0, len(s.engines))
	for _, e := range s.engines {
		out = append(out, e.ledger)
	}
	return out
}

// Engines returns the currently loaded analytics engines.
func (s *APIV1Service) Engines() []*analytics.Engine {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*analytics.Engine, 0, len(s.engines))
	for _, e := range s.engines {
		out = append(out, e.analytics)
	}
	return out
}

// RegisterRoutes mounts all API v1 routes on the echo group.
func (s *APIV1Service) RegisterRoutes(g *echo.Group) {
	g.GET("/categories", s.listCategories)

	g.GET("/habits", s.listHabits)
	g.POST("/habits", s.createHabit)
	g.PATCH("/habits/:uid", s.updateHabit)
	g.DELETE("/habits/:uid", s.archiveHabit)
	g.POST("/habits/:uid/toggle", s.toggleHabit)

	g.POST("/calendar/toggle", s.toggleCalendarEntry)
	g.POST("/range", s.fetchRange)

	g.GET("/dailylogs/:date", s.getDailyLog)
	g.PUT("/dailylogs/:date", s.putDailyLog)

	g.GET("/analytics/mastery", s.getMastery)
	g.GET("/analytics/performance", s.getPerformance)
	g.GET("/analytics/insights", s.getInsights)
	g.GET("/analytics/habits/:uid/history", s.getHabitHistory)
}

// engineFor returns the loaded engine bundle for the request's owner,
// loading it on first use.
func (s *APIV1Service) engineFor(c echo.Context) (*ownerEngine, error) {
	raw := c.Request().Header.Get(ownerHeader)
	if raw == "" {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "missing owner header")
	}
	ownerID, err := strconv.ParseInt(raw, 10, 32)
	if err != nil || ownerID <= 0 {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid owner header")
	}
	return s.loadEngine(c.Request().Context(), int32(ownerID))
}

func (s *APIV1Service) loadEngine(ctx context.Context, ownerID int32) (*ownerEngine, error) {
	s.mu.Lock()
	if engine, ok := s.engines[ownerID]; ok {
		s.mu.Unlock()
		return engine, nil
	}
	sinks := make([]func(tracker.Notice), len(s.noticeSinks))
	copy(sinks, s.noticeSinks)
	s.mu.Unlock()

	ledger := tracker.NewLedger(s.Store, ownerID, tracker.WithCalendar(s.Calendar))
	for _, sink := range sinks {
		ledger.OnNotice(sink)
	}
	if err := ledger.Load(ctx, ""); err != nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "failed to load ledger").SetInternal(err)
	}
	engine := &ownerEngine{
		ledger:    ledger,
		analytics: analytics.NewEngine(ledger, s.Profile.AnalysisRangeDays),
	}

	s.mu.Lock()
	if existing, ok := s.engines[ownerID]; ok {
		// Another request loaded it first.
		engine = existing
	} else {
		s.engines[ownerID] = engine
	}
	s.mu.Unlock()
	return engine, nil
}
