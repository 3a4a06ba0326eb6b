package tracker

import (
	"time"

	"github.com/GabrielVictorica/rutina/store"
)

// PotentialForHabit counts how many days in [rangeStart, rangeEnd] the habit
// was scheduled. The habit's creation date is an effective lower bound: no
// day before it counts, even if the pattern matches. Both range ends are
// inclusive.
func PotentialForHabit(habit *store.Habit, rangeStart, rangeEnd time.Time) int {
	start := truncateDay(rangeStart)
	end := truncateDay(rangeEnd)

	created := truncateDay(time.Unix(habit.CreatedTs, 0).In(rangeStart.Location()))
	if created.After(start) {
		start = created
	}
	if start.After(end) {
		return 0
	}

	potential := 0
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		if habit.IsScheduledOn(day.Weekday()) {
			potential++
		}
	}
	return potential
}

// PotentialOccurrences sums scheduled-day counts per category over the active
// habits for [rangeStart, rangeEnd].
func PotentialOccurrences(habits []*store.Habit, rangeStart, rangeEnd time.Time) map[int32]int {
	potentials := make(map[int32]int)
	for _, h := range habits {
		if !h.Active {
			continue
		}
		potentials[h.CategoryID] += PotentialForHabit(h, rangeStart, rangeEnd)
	}
	return potentials
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
