package v1

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/GabrielVictorica/rutina/store"
)

func (s *APIV1Service) getDailyLog(c echo.Context) error {
	engine, err := s.engineFor(c)
	if err != nil {
		return err
	}
	date, err := datePath(c)
	if err != nil {
		return err
	}

	log, err := s.Store.GetDailyLog(c.Request().Context(), engine.ledger.OwnerID(), date)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to get daily log").SetInternal(err)
	}
	if log == nil {
		return echo.NewHTTPError(http.StatusNotFound, "no log for date")
	}
	return c.JSON(http.StatusOK, log)
}

func (s *APIV1Service) putDailyLog(c echo.Context) error {
	engine, err := s.engineFor(c)
	if err != nil {
		return err
	}
	date, err := datePath(c)
	if err != nil {
		return err
	}

	var payload struct {
		Mood   int32    `json:"mood"`
		Energy int32    `json:"energy"`
		Notes  string   `json:"notes"`
		Tags   []string `json:"tags"`
	}
	if err := c.Bind(&payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed daily log payload").SetInternal(err)
	}

	log, err := engine.ledger.SavePulse(c.Request().Context(), date, payload.Mood, payload.Energy, payload.Notes, payload.Tags)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, log)
}

func (s *APIV1Service) fetchRange(c echo.Context) error {
	engine, err := s.engineFor(c)
	if err != nil {
		return err
	}

	var payload struct {
		From string `json:"from"`
		To   string `json:"to"`
	}
	if err := c.Bind(&payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed range payload").SetInternal(err)
	}
	for _, d := range []string{payload.From, payload.To} {
		if _, err := time.Parse(store.DateLayout, d); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid range date")
		}
	}

	if err := engine.ledger.FetchRange(c.Request().Context(), payload.From, payload.To); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to fetch range").SetInternal(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *APIV1Service) toggleCalendarEntry(c echo.Context) error {
	engine, err := s.engineFor(c)
	if err != nil {
		return err
	}

	var payload struct {
		Title   string `json:"title"`
		EventID string `json:"eventId"`
		Date    string `json:"date"`
	}
	if err := c.Bind(&payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed calendar toggle payload").SetInternal(err)
	}
	if payload.Date == "" {
		payload.Date = engine.ledger.SelectedDate()
	} else if _, err := time.Parse(store.DateLayout, payload.Date); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid date")
	}

	if err := engine.ledger.ToggleCalendarEntry(c.Request().Context(), payload.Title, payload.EventID, payload.Date); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to toggle calendar entry").SetInternal(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func datePath(c echo.Context) (string, error) {
	date := c.Param("date")
	if _, err := time.Parse(store.DateLayout, date); err != nil {
		return "", echo.NewHTTPError(http.StatusBadRequest, "invalid date")
	}
	return date, nil
}
