package analytics

import (
	"time"

	"github.com/GabrielVictorica/rutina/store"
)

// Sufficiency gate: below these thresholds the sample is too thin to say
// anything, and every insight reports Insufficient instead of a fabricated
// number.
const (
	minLogsForInsights        = 3
	minCompletionsForInsights = 10
)

// lowEnergyThreshold is the energy score at or below which a day counts as
// low-energy for the vampire insight.
const lowEnergyThreshold = 4

// GoldenHour is the hour of day with the highest density of
// high-cognitive-load completions.
type GoldenHour struct {
	Hour int `json:"hour"`
	// Period is the day-part label: Mañana [5,12), Tarde [12,18), Noche
	// otherwise.
	Period  string `json:"period"`
	Biotype string `json:"biotype"`
}

// EnergyVampire is the habit most correlated with low-energy days.
type EnergyVampire struct {
	HabitName   string `json:"habitName"`
	Correlation int    `json:"correlation"`
}

// KryptoniteDay is the weekday with the lowest completion rate relative to
// its own observed occurrences.
type KryptoniteDay struct {
	Weekday time.Weekday `json:"weekday"`
	Rate    int          `json:"rate"`
	Gap     int          `json:"gap"`
}

// Insights bundles the three qualitative derivations. When Insufficient is
// true the pointers are nil and callers should render a neutral placeholder.
type Insights struct {
	Insufficient  bool           `json:"insufficient"`
	GoldenHour    *GoldenHour    `json:"goldenHour,omitempty"`
	EnergyVampire *EnergyVampire `json:"energyVampire,omitempty"`
	KryptoniteDay *KryptoniteDay `json:"kryptoniteDay,omitempty"`
}

// QualitativeInsights computes the qualitative derivations, memoized.
func (e *Engine) QualitativeInsights() *Insights {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.refreshLocked()
	if e.insights != nil {
		e.metrics.CountCacheHit("insights")
		return e.insights
	}
	e.metrics.CountCacheMiss("insights")

	habits := e.src.Habits()
	completions := e.completions()
	logs := e.src.DailyLogs()

	if len(logs) < minLogsForInsights || len(completions) < minCompletionsForInsights {
		e.insights = &Insights{Insufficient: true}
		return e.insights
	}

	e.insights = &Insights{
		GoldenHour:    goldenHour(habits, completions),
		EnergyVampire: energyVampire(habits, completions, logs),
		KryptoniteDay: kryptoniteDay(habits, completions, logs),
	}
	return e.insights
}

func goldenHour(habits []*store.Habit, completions []*store.HabitCompletion) *GoldenHour {
	var counts [24]int
	for _, c := range completions {
		habit := habitByID(habits, c.HabitID)
		if habit == nil || habit.CognitiveLoad != store.CognitiveLoadHigh {
			continue
		}
		hour := time.Unix(c.CompletedTs, 0).Local().Hour()
		counts[hour]++
	}

	best, bestCount := -1, 0
	for hour, count := range counts {
		if count > bestCount {
			best, bestCount = hour, count
		}
	}
	if best < 0 {
		return nil
	}

	g := &GoldenHour{Hour: best}
	switch {
	case best >= 5 && best < 12:
		g.Period, g.Biotype = "Mañana", "Alondra"
	case best >= 12 && best < 18:
		g.Period, g.Biotype = "Tarde", "Colibrí"
	default:
		g.Period, g.Biotype = "Noche", "Búho"
	}
	return g
}

func energyVampire(habits []*store.Habit, completions []*store.HabitCompletion, logs []*store.DailyLog) *EnergyVampire {
	lowEnergyDates := make(map[string]bool)
	for _, log := range logs {
		if log.Energy <= lowEnergyThreshold {
			lowEnergyDates[log.Date] = true
		}
	}
	if len(lowEnergyDates) == 0 {
		return nil
	}

	counts := make(map[int32]int)
	for _, c := range completions {
		if lowEnergyDates[c.Date] {
			counts[c.HabitID]++
		}
	}

	var worst *store.Habit
	worstCount := 0
	for habitID, count := range counts {
		habit := habitByID(habits, habitID)
		if habit == nil {
			continue
		}
		if count > worstCount || (count == worstCount && worst != nil && habit.ID < worst.ID) {
			worst, worstCount = habit, count
		}
	}
	if worst == nil {
		return nil
	}

	return &EnergyVampire{
		HabitName:   worst.Name,
		Correlation: roundRatio(worstCount, len(lowEnergyDates)),
	}
}

func kryptoniteDay(habits []*store.Habit, completions []*store.HabitCompletion, logs []*store.DailyLog) *KryptoniteDay {
	// Denominators come from the daily logs actually recorded per weekday,
	// not a uniform 1/7 split over the calendar.
	var potential, completed [7]int
	for _, log := range logs {
		day, err := time.Parse(store.DateLayout, log.Date)
		if err != nil {
			continue
		}
		weekday := day.Weekday()
		for _, h := range habits {
			if h.Active && h.IsScheduledOn(weekday) {
				potential[weekday]++
			}
		}
	}
	loggedDates := make(map[string]bool, len(logs))
	for _, log := range logs {
		loggedDates[log.Date] = true
	}
	for _, c := range completions {
		if !loggedDates[c.Date] {
			continue
		}
		day, err := time.Parse(store.DateLayout, c.Date)
		if err != nil {
			continue
		}
		completed[day.Weekday()]++
	}

	worst := -1
	worstRate := 0
	for weekday := 0; weekday < 7; weekday++ {
		if potential[weekday] == 0 {
			continue
		}
		r := roundRatio(completed[weekday], potential[weekday])
		if worst < 0 || r < worstRate {
			worst, worstRate = weekday, r
		}
	}
	if worst < 0 {
		return nil
	}

	return &KryptoniteDay{
		Weekday: time.Weekday(worst),
		Rate:    worstRate,
		Gap:     100 - worstRate,
	}
}
