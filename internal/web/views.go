package web

import (
	"log/slog"
	"sort"
	"time"

	"github.com/apovetkin/fonhockey/internal/pkg/models"
)

// view is a ledger row shaped for JSON responses.
type view struct {
	ParseTimestamp string `json:"parse_timestamp"`
	EventName      string `json:"event_name"`
	EventTime      string `json:"event_time"`

	Odds1 string `json:"odds_1"`
	OddsX string `json:"odds_x"`
	Odds2 string `json:"odds_2"`

	Odds1X string `json:"odds_1x"`
	Odds12 string `json:"odds_12"`
	OddsX2 string `json:"odds_x2"`

	Fora1 string `json:"fora_1"`
	Fora2 string `json:"fora_2"`

	TotalValue string `json:"total_value"`
	TotalOver  string `json:"total_over"`
	TotalUnder string `json:"total_under"`

	MatchResult string `json:"match_result,omitempty"`
}

func toView(r *models.OddsRecord) view {
	return view{
		ParseTimestamp: r.ParseTimestamp,
		EventName:      r.EventName,
		EventTime:      r.EventTime,
		Odds1:          r.Odds1,
		OddsX:          r.OddsX,
		Odds2:          r.Odds2,
		Odds1X:         r.Odds1X,
		Odds12:         r.Odds12,
		OddsX2:         r.OddsX2,
		Fora1:          r.Fora1,
		Fora2:          r.Fora2,
		TotalValue:     r.TotalValue,
		TotalOver:      r.TotalOver,
		TotalUnder:     r.TotalUnder,
		MatchResult:    r.MatchResult,
	}
}

// selectRows filters ledger rows by settlement state and sorts them
// newest first by event time, ties keeping original ledger order. Rows
// whose event time never resolved to an absolute timestamp are
// excluded from the view: they cannot be placed on a timeline.
func selectRows(rows []models.OddsRecord, settled bool) []view {
	type dated struct {
		v  view
		at time.Time
	}

	picked := make([]dated, 0, len(rows))
	for i := range rows {
		r := &rows[i]
		if r.Settled() != settled {
			continue
		}
		at, err := r.StartTime()
		if err != nil {
			slog.Debug("Row excluded from view, opaque event time",
				"event", r.EventName, "event_time", r.EventTime)
			continue
		}
		picked = append(picked, dated{v: toView(r), at: at})
	}

	sort.SliceStable(picked, func(i, j int) bool {
		return picked[i].at.After(picked[j].at)
	})

	out := make([]view, len(picked))
	for i, d := range picked {
		out[i] = d.v
	}
	return out
}
