package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func (s *APIV1Service) getMastery(c echo.Context) error {
	engine, err := s.engineFor(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, engine.analytics.CategoryMastery())
}

func (s *APIV1Service) getPerformance(c echo.Context) error {
	engine, err := s.engineFor(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, engine.analytics.PerformanceMetrics())
}

func (s *APIV1Service) getInsights(c echo.Context) error {
	engine, err := s.engineFor(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, engine.analytics.QualitativeInsights())
}

func (s *APIV1Service) getHabitHistory(c echo.Context) error {
	engine, err := s.engineFor(c)
	if err != nil {
		return err
	}
	habit, err := s.habitByUID(c, engine)
	if err != nil {
		return err
	}
	history := engine.analytics.HabitYearHistory(habit.ID)
	if history == nil {
		return echo.NewHTTPError(http.StatusNotFound, "habit not found")
	}
	return c.JSON(http.StatusOK, history)
}
