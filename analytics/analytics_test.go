package analytics

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GabrielVictorica/rutina/store"
	"github.com/GabrielVictorica/rutina/tracker"
)

// fakeSource is a Source backed by plain slices.
type fakeSource struct {
	habits  []*store.Habit
	today   []*store.HabitCompletion
	history []*store.HabitCompletion
	logs    []*store.DailyLog
	gens    tracker.Generations
}

func (f *fakeSource) Habits() []*store.Habit { return f.habits }

func (f *fakeSource) TodayCompletions() []*store.HabitCompletion { return f.today }

func (f *fakeSource) HistoricalCompletions() []*store.HabitCompletion { return f.history }

func (f *fakeSource) DailyLogs() []*store.DailyLog { return f.logs }

func (f *fakeSource) Generations() tracker.Generations { return f.gens }

func (f *fakeSource) bump() {
	f.gens.Today++
	f.gens.History++
}

// A Wednesday at noon.
func testClock() time.Time {
	return time.Date(2024, 5, 15, 12, 0, 0, 0, time.Local)
}

func newTestEngine(src Source, rangeDays int) *Engine {
	return NewEngine(src, rangeDays, WithClock(testClock))
}

func testHabit(id, categoryID int32, name string) *store.Habit {
	return &store.Habit{
		ID:         id,
		UID:        fmt.Sprintf("h-%d", id),
		Name:       name,
		CategoryID: categoryID,
		Active:     true,
		CreatedTs:  time.Date(2024, 1, 1, 10, 0, 0, 0, time.Local).Unix(),
	}
}

func completion(habitID int32, date string) *store.HabitCompletion {
	ts, _ := time.ParseInLocation(store.DateLayout, date, time.Local)
	return &store.HabitCompletion{
		HabitID:     habitID,
		Date:        date,
		CompletedTs: ts.Add(10 * time.Hour).Unix(),
	}
}

func TestCategoryMastery(t *testing.T) {
	t.Run("reports completed over potential", func(t *testing.T) {
		src := &fakeSource{
			habits: []*store.Habit{testHabit(1, 1, "Leer")},
			history: []*store.HabitCompletion{
				completion(1, "2024-05-13"),
				completion(1, "2024-05-14"),
			},
		}
		engine := newTestEngine(src, 7)

		mastery := engine.CategoryMastery()
		require.Len(t, mastery, 1)
		assert.Equal(t, int32(1), mastery[0].CategoryID)
		assert.Equal(t, 2, mastery[0].Completed)
		assert.Equal(t, 7, mastery[0].Potential)
		assert.Equal(t, 29, mastery[0].Mastery)
	})

	t.Run("mastery never exceeds 100", func(t *testing.T) {
		// Scheduled only Mondays, window 2024-05-09..15 holds one Monday,
		// but completions also landed on off-schedule days.
		habit := testHabit(1, 1, "Leer")
		habit.Weekdays = []time.Weekday{time.Monday}
		src := &fakeSource{
			habits: []*store.Habit{habit},
			history: []*store.HabitCompletion{
				completion(1, "2024-05-13"),
				completion(1, "2024-05-14"),
				completion(1, "2024-05-15"),
			},
		}
		engine := newTestEngine(src, 7)

		mastery := engine.CategoryMastery()
		require.Len(t, mastery, 1)
		assert.Equal(t, 1, mastery[0].Potential)
		assert.Equal(t, 100, mastery[0].Mastery)
	})

	t.Run("zero potential yields zero mastery", func(t *testing.T) {
		habit := testHabit(1, 1, "Leer")
		habit.CreatedTs = time.Date(2024, 6, 1, 0, 0, 0, 0, time.Local).Unix()
		src := &fakeSource{habits: []*store.Habit{habit}}
		engine := newTestEngine(src, 7)

		mastery := engine.CategoryMastery()
		require.Len(t, mastery, 1)
		assert.Equal(t, 0, mastery[0].Potential)
		assert.Equal(t, 0, mastery[0].Mastery)
	})

	t.Run("completions outside the window do not count", func(t *testing.T) {
		src := &fakeSource{
			habits:  []*store.Habit{testHabit(1, 1, "Leer")},
			history: []*store.HabitCompletion{completion(1, "2024-04-01")},
		}
		engine := newTestEngine(src, 7)

		mastery := engine.CategoryMastery()
		require.Len(t, mastery, 1)
		assert.Equal(t, 0, mastery[0].Completed)
	})
}

func TestCacheCoherence(t *testing.T) {
	src := &fakeSource{
		habits:  []*store.Habit{testHabit(1, 1, "Leer")},
		history: []*store.HabitCompletion{completion(1, "2024-05-14")},
	}
	engine := newTestEngine(src, 7)

	t.Run("repeat reads return the memo", func(t *testing.T) {
		first := engine.CategoryMastery()
		second := engine.CategoryMastery()
		assert.Same(t, first[0], second[0])

		perf1 := engine.PerformanceMetrics()
		perf2 := engine.PerformanceMetrics()
		assert.Same(t, perf1, perf2)
	})

	t.Run("any generation movement drops every memo", func(t *testing.T) {
		mastery := engine.CategoryMastery()
		perf := engine.PerformanceMetrics()

		src.bump()

		assert.NotSame(t, perf, engine.PerformanceMetrics())
		fresh := engine.CategoryMastery()
		assert.NotSame(t, mastery[0], fresh[0])
	})

	t.Run("changing the window length recomputes", func(t *testing.T) {
		first := engine.CategoryMastery()
		engine.SetRangeDays(30)
		second := engine.CategoryMastery()
		assert.NotSame(t, first[0], second[0])
		assert.Equal(t, 30, second[0].Potential)
	})
}

func TestPerformanceMetrics(t *testing.T) {
	t.Run("invested time sums habit estimates", func(t *testing.T) {
		reading := testHabit(1, 1, "Leer")
		reading.EstimatedMinutes = 45
		unestimated := testHabit(2, 1, "Estirar")
		src := &fakeSource{
			habits: []*store.Habit{reading, unestimated},
			history: []*store.HabitCompletion{
				completion(1, "2024-05-13"),
				completion(1, "2024-05-14"),
				completion(2, "2024-05-14"),
			},
		}
		engine := newTestEngine(src, 7)

		perf := engine.PerformanceMetrics()
		// 45 + 45 + the 15-minute default.
		assert.Equal(t, 1, perf.InvestedHours)
		assert.Equal(t, 45, perf.InvestedMinutes)
	})

	t.Run("momentum compares against the previous window", func(t *testing.T) {
		src := &fakeSource{
			habits: []*store.Habit{testHabit(1, 1, "Leer")},
			history: []*store.HabitCompletion{
				// Current window 2024-05-09..15: 7 of 7.
				completion(1, "2024-05-09"), completion(1, "2024-05-10"),
				completion(1, "2024-05-11"), completion(1, "2024-05-12"),
				completion(1, "2024-05-13"), completion(1, "2024-05-14"),
				completion(1, "2024-05-15"),
				// Previous window 2024-05-02..08: 0 of 7.
			},
		}
		engine := newTestEngine(src, 7)

		perf := engine.PerformanceMetrics()
		assert.Equal(t, 100, perf.Momentum)
		assert.True(t, perf.IsPositive)
	})

	t.Run("focus index is nil without high-load completions", func(t *testing.T) {
		src := &fakeSource{
			habits:  []*store.Habit{testHabit(1, 1, "Leer")},
			history: []*store.HabitCompletion{completion(1, "2024-05-14")},
		}
		engine := newTestEngine(src, 7)
		assert.Nil(t, engine.PerformanceMetrics().FocusIndex)
	})

	t.Run("focus index scores high-load on high-energy days", func(t *testing.T) {
		deepWork := testHabit(1, 1, "Estudiar")
		deepWork.CognitiveLoad = store.CognitiveLoadHigh
		src := &fakeSource{
			habits: []*store.Habit{deepWork},
			history: []*store.HabitCompletion{
				completion(1, "2024-05-13"),
				completion(1, "2024-05-14"),
			},
			logs: []*store.DailyLog{
				{Date: "2024-05-13", Energy: 8},
				{Date: "2024-05-14", Energy: 3},
			},
		}
		engine := newTestEngine(src, 7)

		perf := engine.PerformanceMetrics()
		require.NotNil(t, perf.FocusIndex)
		assert.Equal(t, 50, *perf.FocusIndex)
	})
}

func TestQualitativeInsights(t *testing.T) {
	t.Run("thin samples report insufficient", func(t *testing.T) {
		src := &fakeSource{
			habits:  []*store.Habit{testHabit(1, 1, "Leer")},
			history: []*store.HabitCompletion{completion(1, "2024-05-14")},
			logs:    []*store.DailyLog{{Date: "2024-05-14", Energy: 5}},
		}
		engine := newTestEngine(src, 7)

		insights := engine.QualitativeInsights()
		assert.True(t, insights.Insufficient)
		assert.Nil(t, insights.GoldenHour)
		assert.Nil(t, insights.EnergyVampire)
		assert.Nil(t, insights.KryptoniteDay)
	})

	t.Run("derives the three insights from a rich sample", func(t *testing.T) {
		deepWork := testHabit(1, 1, "Estudiar")
		deepWork.CognitiveLoad = store.CognitiveLoadHigh
		light := testHabit(2, 1, "Estirar")

		var completions []*store.HabitCompletion
		var logs []*store.DailyLog
		for i := 0; i < 6; i++ {
			date := time.Date(2024, 5, 10+i, 0, 0, 0, 0, time.Local).Format(store.DateLayout)
			completions = append(completions, completion(1, date), completion(2, date))
			energy := int32(8)
			if i%2 == 0 {
				energy = 3
			}
			logs = append(logs, &store.DailyLog{Date: date, Energy: energy})
		}

		src := &fakeSource{
			habits:  []*store.Habit{deepWork, light},
			history: completions,
			logs:    logs,
		}
		engine := newTestEngine(src, 30)

		insights := engine.QualitativeInsights()
		require.False(t, insights.Insufficient)

		// completion() stamps everything at 10:00 local.
		require.NotNil(t, insights.GoldenHour)
		assert.Equal(t, 10, insights.GoldenHour.Hour)
		assert.Equal(t, "Mañana", insights.GoldenHour.Period)
		assert.Equal(t, "Alondra", insights.GoldenHour.Biotype)

		require.NotNil(t, insights.EnergyVampire)
		assert.NotEmpty(t, insights.EnergyVampire.HabitName)

		require.NotNil(t, insights.KryptoniteDay)
		assert.Equal(t, 100-insights.KryptoniteDay.Rate, insights.KryptoniteDay.Gap)
	})
}

func TestHabitYearHistory(t *testing.T) {
	t.Run("classifies blanks, completions and misses", func(t *testing.T) {
		habit := testHabit(1, 1, "Leer")
		habit.CreatedTs = time.Date(2024, 5, 13, 9, 0, 0, 0, time.Local).Unix()
		src := &fakeSource{
			habits:  []*store.Habit{habit},
			history: []*store.HabitCompletion{completion(1, "2024-05-14")},
		}
		engine := newTestEngine(src, 7)

		history := engine.HabitYearHistory(1)
		require.NotNil(t, history)
		require.Len(t, history.Days, 365)

		byDate := make(map[string]DayState)
		for _, d := range history.Days {
			byDate[d.Date] = d.State
		}
		assert.Equal(t, DayBlank, byDate["2024-05-12"])
		assert.Equal(t, DayMissed, byDate["2024-05-13"])
		assert.Equal(t, DayCompleted, byDate["2024-05-14"])
		assert.Equal(t, DayMissed, byDate["2024-05-15"])

		assert.Equal(t, 3, history.ScheduledTotal)
		assert.Equal(t, 1, history.CompletedTotal)
		assert.Equal(t, 33, history.Adherence)
	})

	t.Run("unscheduled weekdays are neutral", func(t *testing.T) {
		habit := testHabit(1, 1, "Leer")
		habit.Weekdays = []time.Weekday{time.Monday}
		src := &fakeSource{habits: []*store.Habit{habit}}
		engine := newTestEngine(src, 7)

		history := engine.HabitYearHistory(1)
		byDate := make(map[string]DayState)
		for _, d := range history.Days {
			byDate[d.Date] = d.State
		}
		// Tuesday the 14th is not scheduled; Monday the 13th is.
		assert.Equal(t, DayNeutral, byDate["2024-05-14"])
		assert.Equal(t, DayMissed, byDate["2024-05-13"])
	})

	t.Run("unknown habit yields nil", func(t *testing.T) {
		engine := newTestEngine(&fakeSource{}, 7)
		assert.Nil(t, engine.HabitYearHistory(42))
	})

	t.Run("memoized per habit until a mutation", func(t *testing.T) {
		src := &fakeSource{habits: []*store.Habit{testHabit(1, 1, "Leer")}}
		engine := newTestEngine(src, 7)

		first := engine.HabitYearHistory(1)
		assert.Same(t, first, engine.HabitYearHistory(1))

		src.bump()
		assert.NotSame(t, first, engine.HabitYearHistory(1))
	})
}
