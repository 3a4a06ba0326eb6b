package v1

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/GabrielVictorica/rutina/store"
)

type habitPayload struct {
	Name             string               `json:"name"`
	CategoryID       int32                `json:"categoryId"`
	Weekdays         []int                `json:"weekdays"`
	ScheduleMode     *store.ScheduleMode  `json:"scheduleMode"`
	FixedTime        *string              `json:"fixedTime"`
	EstimatedMinutes *int32               `json:"estimatedMinutes"`
	CognitiveLoad    *store.CognitiveLoad `json:"cognitiveLoad"`
}

func (s *APIV1Service) listCategories(c echo.Context) error {
	categories, err := s.Store.ListHabitCategories(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list categories").SetInternal(err)
	}
	return c.JSON(http.StatusOK, categories)
}

func (s *APIV1Service) listHabits(c echo.Context) error {
	engine, err := s.engineFor(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, engine.ledger.Habits())
}

func (s *APIV1Service) createHabit(c echo.Context) error {
	engine, err := s.engineFor(c)
	if err != nil {
		return err
	}

	var payload habitPayload
	if err := c.Bind(&payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed habit payload").SetInternal(err)
	}

	create := &store.Habit{
		Name:       payload.Name,
		CategoryID: payload.CategoryID,
		Weekdays:   toWeekdays(payload.Weekdays),
	}
	if payload.ScheduleMode != nil {
		create.ScheduleMode = *payload.ScheduleMode
	}
	create.FixedTime = payload.FixedTime
	if payload.EstimatedMinutes != nil {
		create.EstimatedMinutes = *payload.EstimatedMinutes
	}
	if payload.CognitiveLoad != nil {
		create.CognitiveLoad = *payload.CognitiveLoad
	}

	habit, err := engine.ledger.CreateHabit(c.Request().Context(), create)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, habit)
}

func (s *APIV1Service) updateHabit(c echo.Context) error {
	engine, err := s.engineFor(c)
	if err != nil {
		return err
	}
	habit, err := s.habitByUID(c, engine)
	if err != nil {
		return err
	}

	var payload habitPayload
	if err := c.Bind(&payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed habit payload").SetInternal(err)
	}

	update := &store.UpdateHabit{ID: habit.ID}
	if payload.Name != "" {
		update.Name = &payload.Name
	}
	if payload.CategoryID != 0 {
		update.CategoryID = &payload.CategoryID
	}
	if payload.Weekdays != nil {
		weekdays := toWeekdays(payload.Weekdays)
		update.Weekdays = &weekdays
	}
	update.ScheduleMode = payload.ScheduleMode
	update.FixedTime = payload.FixedTime
	update.EstimatedMinutes = payload.EstimatedMinutes
	update.CognitiveLoad = payload.CognitiveLoad

	updated, err := engine.ledger.UpdateHabit(c.Request().Context(), update)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to update habit").SetInternal(err)
	}
	return c.JSON(http.StatusOK, updated)
}

func (s *APIV1Service) archiveHabit(c echo.Context) error {
	engine, err := s.engineFor(c)
	if err != nil {
		return err
	}
	habit, err := s.habitByUID(c, engine)
	if err != nil {
		return err
	}
	if err := engine.ledger.ArchiveHabit(c.Request().Context(), habit.ID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to archive habit").SetInternal(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *APIV1Service) toggleHabit(c echo.Context) error {
	engine, err := s.engineFor(c)
	if err != nil {
		return err
	}
	habit, err := s.habitByUID(c, engine)
	if err != nil {
		return err
	}

	var payload struct {
		Date string `json:"date"`
	}
	if err := c.Bind(&payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed toggle payload").SetInternal(err)
	}
	if payload.Date == "" {
		payload.Date = engine.ledger.SelectedDate()
	} else if _, err := time.Parse(store.DateLayout, payload.Date); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid date")
	}

	if err := engine.ledger.Toggle(c.Request().Context(), habit.ID, payload.Date); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to toggle habit").SetInternal(err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"completed": engine.ledger.IsCompleted(habit.ID, payload.Date),
	})
}

func (s *APIV1Service) habitByUID(c echo.Context, engine *ownerEngine) (*store.Habit, error) {
	uid := c.Param("uid")
	for _, h := range engine.ledger.Habits() {
		if h.UID == uid {
			return h, nil
		}
	}
	return nil, echo.NewHTTPError(http.StatusNotFound, "habit not found")
}

func toWeekdays(days []int) []time.Weekday {
	var out []time.Weekday
	for _, d := range days {
		if d >= 0 && d <= 6 {
			out = append(out, time.Weekday(d))
		}
	}
	return out
}
