package analytics

import (
	"sort"

	"github.com/GabrielVictorica/rutina/tracker"
)

// CategoryMastery reports how much of a category's scheduled potential was
// actually completed within the analysis window.
type CategoryMastery struct {
	CategoryID int32 `json:"categoryId"`
	Completed  int   `json:"completed"`
	Potential  int   `json:"potential"`
	// Mastery is a 0-100 percentage, capped at 100. Zero potential yields
	// zero mastery, not an undefined value.
	Mastery int `json:"mastery"`
}

// CategoryMastery computes per-category mastery for the trailing window.
// Repeat calls without an intervening mutation return the memoized slice.
func (e *Engine) CategoryMastery() []*CategoryMastery {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.refreshLocked()
	if e.mastery != nil {
		e.metrics.CountCacheHit("mastery")
		return e.mastery
	}
	e.metrics.CountCacheMiss("mastery")

	start, end := e.window()
	habits := e.src.Habits()
	potentials := tracker.PotentialOccurrences(habits, start, end)

	completed := make(map[int32]int)
	for _, c := range e.completions() {
		if !inWindow(c.Date, start, end) {
			continue
		}
		habit := habitByID(habits, c.HabitID)
		if habit == nil {
			continue
		}
		completed[habit.CategoryID]++
	}

	categoryIDs := make([]int32, 0, len(potentials))
	for id := range potentials {
		categoryIDs = append(categoryIDs, id)
	}
	sort.Slice(categoryIDs, func(i, j int) bool { return categoryIDs[i] < categoryIDs[j] })

	result := make([]*CategoryMastery, 0, len(categoryIDs))
	for _, id := range categoryIDs {
		m := &CategoryMastery{
			CategoryID: id,
			Completed:  completed[id],
			Potential:  potentials[id],
		}
		if m.Potential > 0 {
			m.Mastery = roundRatio(m.Completed, m.Potential)
			if m.Mastery > 100 {
				m.Mastery = 100
			}
		}
		result = append(result, m)
	}

	e.mastery = result
	return e.mastery
}
