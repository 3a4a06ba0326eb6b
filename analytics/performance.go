package analytics

import (
	"math"

	"github.com/GabrielVictorica/rutina/store"
	"github.com/GabrielVictorica/rutina/tracker"
)

// defaultEstimatedMinutes is assumed when a habit has no duration estimate.
const defaultEstimatedMinutes = 15

// highEnergyThreshold is the energy score at or above which a day counts as
// high-energy for the focus index.
const highEnergyThreshold = 7

// PerformanceMetrics aggregates window-level performance numbers.
type PerformanceMetrics struct {
	// Time invested over the window, as whole hours plus remainder minutes.
	InvestedHours   int `json:"investedHours"`
	InvestedMinutes int `json:"investedMinutes"`

	// Momentum is the completion-rate delta between the current window and
	// the previous equal-length window, in percentage points.
	Momentum   int  `json:"momentum"`
	IsPositive bool `json:"isPositive"`

	// FocusIndex is the percentage of high-cognitive-load completions that
	// landed on high-energy days. Nil when the window has no high-load
	// completions: absence of data, not a zero score.
	FocusIndex *int `json:"focusIndex"`
}

// PerformanceMetrics computes the window metrics, memoized.
func (e *Engine) PerformanceMetrics() *PerformanceMetrics {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.refreshLocked()
	if e.perf != nil {
		e.metrics.CountCacheHit("performance")
		return e.perf
	}
	e.metrics.CountCacheMiss("performance")

	start, end := e.window()
	prevEnd := start.AddDate(0, 0, -1)
	prevStart := prevEnd.AddDate(0, 0, -(e.rangeDays - 1))

	habits := e.src.Habits()
	completions := e.completions()

	energyByDate := make(map[string]int32)
	for _, log := range e.src.DailyLogs() {
		energyByDate[log.Date] = log.Energy
	}

	perf := &PerformanceMetrics{}

	var investedMinutes int
	var currentCount, previousCount int
	var highLoadCount, highLoadOnHighEnergy int
	for _, c := range completions {
		habit := habitByID(habits, c.HabitID)
		if habit == nil {
			continue
		}
		switch {
		case inWindow(c.Date, start, end):
			currentCount++
			minutes := int(habit.EstimatedMinutes)
			if minutes <= 0 {
				minutes = defaultEstimatedMinutes
			}
			investedMinutes += minutes
			if habit.CognitiveLoad == store.CognitiveLoadHigh {
				highLoadCount++
				if energyByDate[c.Date] >= highEnergyThreshold {
					highLoadOnHighEnergy++
				}
			}
		case inWindow(c.Date, prevStart, prevEnd):
			previousCount++
		}
	}

	perf.InvestedHours = investedMinutes / 60
	perf.InvestedMinutes = investedMinutes % 60

	currentPotential := sumPotential(tracker.PotentialOccurrences(habits, start, end))
	previousPotential := sumPotential(tracker.PotentialOccurrences(habits, prevStart, prevEnd))
	currentRate := rate(currentCount, currentPotential)
	previousRate := rate(previousCount, previousPotential)
	perf.Momentum = int(math.Round(currentRate - previousRate))
	perf.IsPositive = perf.Momentum >= 0

	if highLoadCount > 0 {
		focus := roundRatio(highLoadOnHighEnergy, highLoadCount)
		perf.FocusIndex = &focus
	}

	e.perf = perf
	return e.perf
}

func sumPotential(potentials map[int32]int) int {
	total := 0
	for _, p := range potentials {
		total += p
	}
	return total
}

func rate(completions, potential int) float64 {
	if potential == 0 {
		return 0
	}
	return 100 * float64(completions) / float64(potential)
}
