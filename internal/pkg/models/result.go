package models

import "fmt"

// Finish marks how a match ended.
type Finish string

const (
	FinishRegulation Finish = ""
	FinishOvertime   Finish = "OT"
	FinishShootout   Finish = "Б"
)

// MatchResult is the outcome of one match as scraped from a results
// page. It is ephemeral: only the formatted string and the derived
// WIN/LOSS labels are persisted onto the odds row.
type MatchResult struct {
	Score1 int
	Score2 int
	Finish Finish
	// Winner is the team that took the extra period or shootout.
	// Empty for regulation finishes.
	Winner string
}

// Decided reports whether the match went past regulation time.
func (m MatchResult) Decided() bool {
	return m.Finish != FinishRegulation
}

// TotalGoals is the combined score used against the total line.
func (m MatchResult) TotalGoals() int {
	return m.Score1 + m.Score2
}

// String formats the result the way the ledger stores it:
// "3:2", "3:2 OT", "2:3 Б (Спартак)".
func (m MatchResult) String() string {
	s := fmt.Sprintf("%d:%d", m.Score1, m.Score2)
	if m.Finish != FinishRegulation {
		s += " " + string(m.Finish)
		if m.Winner != "" {
			s += " (" + m.Winner + ")"
		}
	}
	return s
}

// ResultSet holds all results scraped from a single date's page, keyed
// by event name in both team orders ("A — B" and "B — A").
type ResultSet map[string]MatchResult

// Keys returns every event-name key for fuzzy matching.
func (s ResultSet) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	return keys
}
