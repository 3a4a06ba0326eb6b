package tracker

import (
	"regexp"
	"strings"

	"github.com/GabrielVictorica/rutina/store"
)

// normalizePattern strips everything but word characters, whitespace and
// Spanish accented letters. Titles arrive from the remote calendar with
// emoji, punctuation and decorations that must not defeat the match.
var normalizePattern = regexp.MustCompile(`[^\w\sáéíóúüñ]`)

func normalizeTitle(s string) string {
	s = strings.ToLower(s)
	s = normalizePattern.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// Match finds the habit whose name loosely matches a calendar entry title:
// after normalization, either string containing the other counts. First match
// wins. The looseness is deliberate; short habit names can false-positive,
// but strict matching silently stops syncing renamed calendar entries. The
// returned habit is a snapshot copy.
func (l *Ledger) Match(title string) (*store.Habit, bool) {
	normalized := normalizeTitle(title)
	if normalized == "" {
		return nil, false
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	for _, h := range l.habits {
		name := normalizeTitle(h.Name)
		if name == "" {
			continue
		}
		if strings.Contains(normalized, name) || strings.Contains(name, normalized) {
			clone := *h
			return &clone, true
		}
	}
	return nil, false
}
