package scrape

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/apovetkin/fonhockey/internal/ledger"
	"github.com/apovetkin/fonhockey/internal/pkg/config"
	"github.com/apovetkin/fonhockey/internal/pkg/models"
)

// OddsRun is one odds-collection pass for a league: fetch the line
// page, extract events, and merge them into the odds ledger.
type OddsRun struct {
	League  *config.LeagueConfig
	Browser config.BrowserConfig
	Dir     string // ledger directory
}

// Run performs the collection. It returns how many rows the ledger
// gained and the ledger's total size after the merge.
func (r *OddsRun) Run(ctx context.Context) (added, total int, err error) {
	policy, err := ledger.ParseKeyPolicy(r.League.KeyPolicy)
	if err != nil {
		return 0, 0, fmt.Errorf("league %s: %w", r.League.Name, err)
	}
	path := filepath.Join(r.Dir, r.League.OddsFile)

	lock, err := ledger.AcquireRunLock(path)
	if err != nil {
		return 0, 0, err
	}
	defer lock.Release()

	session, err := NewSession(ctx, r.Browser)
	if err != nil {
		return 0, 0, err
	}
	defer session.Close()

	html, err := session.FetchPage(r.League.OddsURL)
	if err != nil {
		return 0, 0, err
	}

	extractor := OddsExtractor{TeamFilter: r.League.TeamFilter, Policy: policy}
	fresh, err := extractor.ParseOddsPage(html)
	if err != nil {
		return 0, 0, fmt.Errorf("parse odds page: %w", err)
	}
	if len(fresh) == 0 {
		SaveDebugPage(r.Browser.DebugDir, html)
		slog.Warn("No events extracted, page dumped for inspection",
			"league", r.League.Name, "url", r.League.OddsURL)
		return 0, 0, nil
	}

	fieldOrder, existing, err := ledger.Load(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return 0, 0, err
		}
		fieldOrder = models.FieldOrder
	}

	merged := ledger.MergePreservingResults(existing, fresh, policy)
	if err := ledger.Save(path, fieldOrder, merged); err != nil {
		return 0, 0, err
	}

	added = len(merged) - len(existing)
	slog.Info("Odds ledger updated", "league", r.League.Name,
		"file", path, "added", added, "total", len(merged))
	return added, len(merged), nil
}

// SiteResultsFetcher loads results by navigating the live results page
// for a given date. It holds no browser of its own: one Session spans
// the whole reconciliation run.
type SiteResultsFetcher struct {
	Session   *Session
	BaseURL   string
	Extractor ResultsExtractor
}

// FetchResults loads the page for date and extracts its finished
// matches. The date travels in the query string as YYYY-MM-DD.
func (f *SiteResultsFetcher) FetchResults(ctx context.Context, date time.Time) (models.ResultSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	url := fmt.Sprintf("%s?date=%s", f.BaseURL, date.Format("2006-01-02"))
	html, err := f.Session.FetchPage(url)
	if err != nil {
		return nil, err
	}
	return f.Extractor.ParseResultsPage(html)
}
