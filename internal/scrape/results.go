package scrape

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/apovetkin/fonhockey/internal/pkg/models"
)

// Selector strategies for the results page.
var (
	resultEventSelector = `div.results-event--Me6XJ`

	teamNameSelectors = []string{
		`div.results-event-team__name--lRkNU div.overflowed-text--JHSWr`,
		`div.results-event-team__caption--Ra_Se`,
		`div[class*="event-team__name"]`,
	}

	// The extra-time indicator block sits next to the score board and
	// holds "OT"/"Б" in the winning team's cell.
	overtimeBlockSelector = `div.results-scoreBlock--aHrej.results-scoreBoard__sum-subEvents--_LZ3a`
	scoreCellSelector     = `div.results-scoreBlock__score--XvlMM`

	finalScoreSelectors = []string{
		`div.results-scoreBlock__score--XvlMM._summary--Jt8Ej._bold--JaGTY`,
		`div[class*="scoreBlock__score"][class*="_summary"]`,
		`div.results-scoreBlock__score--XvlMM`,
	}

	scoreBlockSelector = `div.results-scoreBlock--aHrej`
)

// ResultsExtractor shapes a rendered results page into match results.
type ResultsExtractor struct {
	// AdjustOvertimeScore subtracts one goal from the extra-time
	// winner to recover the regulation score. Used for feeds that
	// report the score including the deciding goal.
	AdjustOvertimeScore bool
}

// ParseResultsPage extracts every finished match on the page. Each
// match is stored under both team orders so ledger rows match
// regardless of which side the bookmaker listed first. Events missing
// team names or a numeric score are skipped, never fatal.
func (e *ResultsExtractor) ParseResultsPage(html string) (models.ResultSet, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	results := make(models.ResultSet)
	doc.Find(resultEventSelector).Each(func(_ int, event *goquery.Selection) {
		team1, team2, ok := teamNames(event)
		if !ok {
			return
		}
		res, ok := e.extractResult(event, team1, team2)
		if !ok {
			slog.Warn("No readable score for event", "team1", team1, "team2", team2)
			return
		}
		results[team1+" — "+team2] = res
		results[team2+" — "+team1] = res
		slog.Info("Match result", "event", team1+" — "+team2, "result", res.String())
	})

	slog.Info("Extracted results", "events", len(results)/2)
	return results, nil
}

// teamNames finds the two team names; the first strategy yielding at
// least two matches wins.
func teamNames(event *goquery.Selection) (string, string, bool) {
	for _, selector := range teamNameSelectors {
		names := event.Find(selector)
		if names.Length() >= 2 {
			t1 := strings.TrimSpace(names.Eq(0).Text())
			t2 := strings.TrimSpace(names.Eq(1).Text())
			if t1 != "" && t2 != "" {
				return t1, t2, true
			}
		}
	}
	return "", "", false
}

func (e *ResultsExtractor) extractResult(event *goquery.Selection, team1, team2 string) (models.MatchResult, bool) {
	finish, winner := extraTime(event, team1, team2)

	s1, s2, ok := finalScore(event)
	if !ok {
		return models.MatchResult{}, false
	}

	res := models.MatchResult{Score1: s1, Score2: s2, Finish: finish, Winner: winner}
	if finish == models.FinishRegulation {
		return res, true
	}

	// The indicator block names the winning side; when it is blank on
	// both sides fall back to the raw score, which the extra goal has
	// already tipped.
	if res.Winner == "" {
		switch {
		case s1 > s2:
			res.Winner = team1
		case s2 > s1:
			res.Winner = team2
		}
	}

	if e.AdjustOvertimeScore {
		switch res.Winner {
		case team1:
			res.Score1--
		case team2:
			res.Score2--
		default:
			// Winner indeterminate, leave the score untouched.
			slog.Warn("Cannot adjust extra-time score, winner unknown", "team1", team1, "team2", team2)
		}
	}
	return res, true
}

// extraTime inspects the indicator block for an overtime or shootout
// marker and reports which side it sits on.
func extraTime(event *goquery.Selection, team1, team2 string) (models.Finish, string) {
	finish := models.FinishRegulation
	winner := ""
	event.Find(overtimeBlockSelector).EachWithBreak(func(_ int, ot *goquery.Selection) bool {
		cells := ot.Find(scoreCellSelector)
		if cells.Length() < 2 {
			return true
		}
		c1 := strings.TrimSpace(cells.Eq(0).Text())
		c2 := strings.TrimSpace(cells.Eq(1).Text())

		switch {
		case isOvertimeMark(c1) || isOvertimeMark(c2):
			finish = models.FinishOvertime
		case isShootoutMark(c1) || isShootoutMark(c2):
			finish = models.FinishShootout
		default:
			return true
		}

		if c1 != "" && c2 == "" {
			winner = team1
		} else if c2 != "" && c1 == "" {
			winner = team2
		}
		return false
	})
	return finish, winner
}

func isOvertimeMark(s string) bool { return s == "OT" || s == "ОТ" }
func isShootoutMark(s string) bool { return s == "Б" || s == "B" }

// finalScore reads the two summary score cells. Strategies are tried
// in order; a strategy only wins when both cells are purely numeric.
// The last resort takes the last score block on the row, which the
// page renders as the match total.
func finalScore(event *goquery.Selection) (int, int, bool) {
	for _, selector := range finalScoreSelectors {
		cells := event.Find(selector)
		if cells.Length() < 2 {
			continue
		}
		s1 := strings.TrimSpace(cells.Eq(cells.Length() - 2).Text())
		s2 := strings.TrimSpace(cells.Eq(cells.Length() - 1).Text())
		if n1, err := strconv.Atoi(s1); err == nil {
			if n2, err := strconv.Atoi(s2); err == nil {
				return n1, n2, true
			}
		}
	}

	blocks := event.Find(scoreBlockSelector)
	if blocks.Length() > 0 {
		cells := blocks.Eq(blocks.Length() - 1).Find(scoreCellSelector)
		if cells.Length() >= 2 {
			s1 := strings.TrimSpace(cells.Eq(0).Text())
			s2 := strings.TrimSpace(cells.Eq(1).Text())
			if n1, err := strconv.Atoi(s1); err == nil {
				if n2, err := strconv.Atoi(s2); err == nil {
					return n1, n2, true
				}
			}
		}
	}
	return 0, 0, false
}
