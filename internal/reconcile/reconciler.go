// Package reconcile settles pending odds rows against scraped match
// results. It is the state machine at the center of the pipeline: a
// row is either fully unsettled or fully settled, settles at most
// once, and a full re-run over an already-settled ledger is a no-op.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/apovetkin/fonhockey/internal/ledger"
	"github.com/apovetkin/fonhockey/internal/namematch"
	"github.com/apovetkin/fonhockey/internal/pkg/models"
)

// Settlement eligibility window relative to event start. Before the
// lower bound the match may still be in progress; past the upper bound
// the results page has rotated and the row is abandoned as stale.
const (
	settleDelay  = 2 * time.Hour
	settleWindow = 3 * 24 * time.Hour
)

// ResultsFetcher loads all match results for one date. One fetch is
// amortized over every pending event of that date.
type ResultsFetcher interface {
	FetchResults(ctx context.Context, date time.Time) (models.ResultSet, error)
}

// Reconciler reads the odds ledger, settles whatever it can and writes
// the merged outcome ledger.
type Reconciler struct {
	OddsPath    string
	ResultsPath string
	Policy      ledger.KeyPolicy
	Fetcher     ResultsFetcher

	// Now is swappable for tests; nil means time.Now.
	Now func() time.Time
}

// Stats summarizes one reconciliation run.
type Stats struct {
	Rows       int
	Settled    int
	Unresolved int
	Skipped    int
}

// Run executes one reconciliation pass. Per-event failures are logged
// and isolated; only setup and final-write failures abort the run.
func (rc *Reconciler) Run(ctx context.Context) (*Stats, error) {
	lock, err := ledger.AcquireRunLock(rc.ResultsPath)
	if err != nil {
		return nil, err
	}
	defer lock.Release()

	fieldOrder, rows, err := rc.loadMerged()
	if err != nil {
		return nil, err
	}
	fieldOrder = ledger.EnsureResultColumn(fieldOrder)

	now := rc.now()
	stats := &Stats{Rows: len(rows)}
	byDate := rc.groupEligible(rows, now, stats)

	dates := make([]time.Time, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	for _, date := range dates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rc.settleDate(ctx, date, byDate[date], rows, stats)
	}

	if err := ledger.Save(rc.ResultsPath, fieldOrder, rows); err != nil {
		return nil, err
	}
	slog.Info("Reconciliation run finished",
		"ledger", rc.ResultsPath,
		"rows", stats.Rows, "settled", stats.Settled,
		"unresolved", stats.Unresolved, "skipped", stats.Skipped)
	return stats, nil
}

// loadMerged reads the odds ledger and merges it into the existing
// outcome ledger without disturbing settled rows. A missing odds file
// is a run-level failure; a missing outcome file just means this is
// the first settlement run.
func (rc *Reconciler) loadMerged() ([]string, []models.OddsRecord, error) {
	fieldOrder, input, err := ledger.Load(rc.OddsPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, fmt.Errorf("odds ledger %s does not exist: %w", rc.OddsPath, err)
		}
		return nil, nil, err
	}

	_, existing, err := ledger.Load(rc.ResultsPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fieldOrder, input, nil
		}
		return nil, nil, err
	}
	return fieldOrder, ledger.MergePreservingResults(existing, input, rc.Policy), nil
}

// groupEligible indexes pending rows by event date. Rows outside the
// settlement window, already settled, or with an unparsable time are
// skipped (the latter retried on the next run while still in-window).
func (rc *Reconciler) groupEligible(rows []models.OddsRecord, now time.Time, stats *Stats) map[time.Time][]int {
	byDate := make(map[time.Time][]int)
	for i := range rows {
		r := &rows[i]
		if r.Settled() {
			stats.Skipped++
			continue
		}
		start, err := r.StartTime()
		if err != nil {
			slog.Warn("Skipping row with unparsable event time", "event", r.EventName, "event_time", r.EventTime)
			stats.Skipped++
			continue
		}
		if reason := ineligible(start, now); reason != "" {
			slog.Debug("Skipping event", "event", r.EventName, "event_time", r.EventTime, "reason", reason)
			stats.Skipped++
			continue
		}
		date := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
		byDate[date] = append(byDate[date], i)
	}
	return byDate
}

// ineligible returns a skip reason, or "" when the event sits inside
// the [start+2h, start+3d] settlement window.
func ineligible(start, now time.Time) string {
	if now.Before(start) {
		return "not started yet"
	}
	age := now.Sub(start)
	if age < settleDelay {
		return "started recently, likely still in progress"
	}
	if age > settleWindow {
		return "older than 3 days, abandoned"
	}
	return ""
}

func (rc *Reconciler) settleDate(ctx context.Context, date time.Time, indexes []int, rows []models.OddsRecord, stats *Stats) {
	results, err := rc.Fetcher.FetchResults(ctx, date)
	if err != nil {
		slog.Error("Failed to fetch results for date", "date", date.Format("2006-01-02"), "error", err)
		stats.Unresolved += len(indexes)
		return
	}
	if len(results) == 0 {
		slog.Warn("No results found for date", "date", date.Format("2006-01-02"))
		stats.Unresolved += len(indexes)
		return
	}
	keys := results.Keys()

	for _, i := range indexes {
		r := &rows[i]
		if r.Settled() {
			stats.Skipped++
			continue
		}

		res, ok := results[r.EventName]
		if !ok {
			if match, found := namematch.FindBestMatch(r.EventName, keys); found {
				res = results[match]
				ok = true
				slog.Info("Matched event by fuzzy name", "event", r.EventName, "matched", match)
			}
		}
		if !ok {
			slog.Warn("No result found for event, will retry next run", "event", r.EventName, "date", date.Format("2006-01-02"))
			stats.Unresolved++
			continue
		}

		if Settle(r, res) {
			stats.Settled++
			slog.Info("Settled event", "event", r.EventName, "result", r.MatchResult)
		}
	}
}

func (rc *Reconciler) now() time.Time {
	if rc.Now != nil {
		return rc.Now()
	}
	return time.Now()
}
