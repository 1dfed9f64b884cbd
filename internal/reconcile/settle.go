package reconcile

import (
	"strconv"
	"strings"

	"github.com/apovetkin/fonhockey/internal/pkg/models"
)

// defaultTotalLine is the hockey total assumed when the scraped line is
// missing or not numeric.
const defaultTotalLine = 5.5

// Settle derives WIN/LOSS labels for one odds row from a match result
// and writes them in place. A row settles exactly once: calling Settle
// on an already-settled row is a no-op, so re-running reconciliation
// over the same ledger never changes it.
//
// Labeling rules:
//   - regulation win/loss: the side with more goals takes odds_1/odds_2;
//     equal scores take odds_x;
//   - overtime or shootout: draw-at-regulation semantics, odds_x is
//     always the winner regardless of who took the extra period; the
//     winning team's name is appended to event_name in parentheses;
//   - totals: combined score against the line, strict comparison, with
//     an exact hit labeling both over and under WIN (the historical
//     files treat an exact total as a double win, not a push).
func Settle(r *models.OddsRecord, res models.MatchResult) bool {
	if r.Settled() {
		return false
	}

	if res.Decided() {
		r.Odds1 = label(models.OutcomeLoss, r.Odds1)
		r.OddsX = label(models.OutcomeWin, r.OddsX)
		r.Odds2 = label(models.OutcomeLoss, r.Odds2)
		if res.Winner != "" && !strings.Contains(r.EventName, res.Winner) {
			r.EventName = r.EventName + " (" + res.Winner + ")"
		}
	} else {
		switch {
		case res.Score1 > res.Score2:
			r.Odds1 = label(models.OutcomeWin, r.Odds1)
			r.OddsX = label(models.OutcomeLoss, r.OddsX)
			r.Odds2 = label(models.OutcomeLoss, r.Odds2)
		case res.Score1 < res.Score2:
			r.Odds1 = label(models.OutcomeLoss, r.Odds1)
			r.OddsX = label(models.OutcomeLoss, r.OddsX)
			r.Odds2 = label(models.OutcomeWin, r.Odds2)
		default:
			r.Odds1 = label(models.OutcomeLoss, r.Odds1)
			r.OddsX = label(models.OutcomeWin, r.OddsX)
			r.Odds2 = label(models.OutcomeLoss, r.Odds2)
		}
	}

	line := totalLine(r.TotalValue)
	total := float64(res.TotalGoals())
	switch {
	case total > line:
		r.TotalOver = label(models.OutcomeWin, r.TotalOver)
		r.TotalUnder = label(models.OutcomeLoss, r.TotalUnder)
	case total < line:
		r.TotalOver = label(models.OutcomeLoss, r.TotalOver)
		r.TotalUnder = label(models.OutcomeWin, r.TotalUnder)
	default:
		r.TotalOver = label(models.OutcomeWin, r.TotalOver)
		r.TotalUnder = label(models.OutcomeWin, r.TotalUnder)
	}

	r.MatchResult = res.String()
	return true
}

func label(outcome, quote string) string {
	return outcome + " " + quote
}

func totalLine(raw string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return defaultTotalLine
	}
	return v
}
