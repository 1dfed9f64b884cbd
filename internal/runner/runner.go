// Package runner executes named collection jobs. Each league has two:
// "<league>_odds" collects the line page into the odds ledger, and
// "<league>_results" settles the ledger against finished matches.
// Starting a job is an acknowledgement, not a completion: the job runs
// detached and reports through the log and the optional notifier.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/apovetkin/fonhockey/internal/archive"
	"github.com/apovetkin/fonhockey/internal/ledger"
	"github.com/apovetkin/fonhockey/internal/notify"
	"github.com/apovetkin/fonhockey/internal/pkg/config"
	"github.com/apovetkin/fonhockey/internal/reconcile"
	"github.com/apovetkin/fonhockey/internal/scrape"
)

const (
	kindOdds    = "odds"
	kindResults = "results"
)

// jobTimeout caps one detached job; a stuck browser never pins a job
// slot forever.
const jobTimeout = 15 * time.Minute

// ErrAlreadyRunning is returned when the job's previous run has not
// finished yet.
var ErrAlreadyRunning = errors.New("job is already running")

// Runner starts and tracks collection jobs.
type Runner struct {
	cfg      *config.Config
	notifier *notify.Notifier

	mu     sync.Mutex
	active map[string]bool
	// done holds each job's latest outcome channel (buffered one)
	// until Wait consumes it, so a job that fails fast still reports
	// its error to a Wait that arrives late.
	done map[string]chan error
}

func New(cfg *config.Config, notifier *notify.Notifier) *Runner {
	return &Runner{
		cfg:      cfg,
		notifier: notifier,
		active:   make(map[string]bool),
		done:     make(map[string]chan error),
	}
}

// Jobs lists every job name the config defines, in league order.
func (r *Runner) Jobs() []string {
	names := make([]string, 0, 2*len(r.cfg.Leagues))
	for _, l := range r.cfg.Leagues {
		names = append(names, l.Name+"_"+kindOdds, l.Name+"_"+kindResults)
	}
	return names
}

// Start launches the named job detached. headless overrides the
// configured browser mode when non-nil. The returned error covers
// starting only; the job's own outcome goes to the log.
func (r *Runner) Start(name string, headless *bool) error {
	league, kind, err := r.resolve(name)
	if err != nil {
		return err
	}

	r.mu.Lock()
	if r.active[name] {
		r.mu.Unlock()
		return fmt.Errorf("%s: %w", name, ErrAlreadyRunning)
	}
	r.active[name] = true
	done := make(chan error, 1)
	r.done[name] = done
	r.mu.Unlock()

	browser := r.cfg.Browser
	if headless != nil {
		browser.Headless = *headless
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		slog.Info("Job started", "job", name)
		var err error
		switch kind {
		case kindOdds:
			err = r.runOdds(ctx, league, browser)
		case kindResults:
			err = r.runResults(ctx, league, browser)
		}

		r.mu.Lock()
		delete(r.active, name)
		r.mu.Unlock()
		done <- err // buffered, never blocks

		if err != nil {
			slog.Error("Job failed", "job", name, "error", err)
			r.notifier.Send(fmt.Sprintf("%s failed: %v", name, err))
			return
		}
		slog.Info("Job finished", "job", name)
	}()
	return nil
}

// Running reports whether the named job is currently active.
func (r *Runner) Running(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active[name]
}

// Wait blocks until the named job finishes and returns its outcome.
// The outcome of a run is consumed once; a job that was never started
// yields nil.
func (r *Runner) Wait(ctx context.Context, name string) error {
	r.mu.Lock()
	done, ok := r.done[name]
	if ok {
		delete(r.done, name)
	}
	r.mu.Unlock()
	if !ok {
		return nil
	}

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Runner) resolve(name string) (*config.LeagueConfig, string, error) {
	leagueName, kind, ok := strings.Cut(name, "_")
	if !ok || (kind != kindOdds && kind != kindResults) {
		return nil, "", fmt.Errorf("unknown job %q", name)
	}
	league, err := r.cfg.League(leagueName)
	if err != nil {
		return nil, "", fmt.Errorf("unknown job %q", name)
	}
	return league, kind, nil
}

func (r *Runner) runOdds(ctx context.Context, league *config.LeagueConfig, browser config.BrowserConfig) error {
	run := scrape.OddsRun{League: league, Browser: browser, Dir: r.cfg.Store.Dir}
	added, total, err := run.Run(ctx)
	if err != nil {
		return err
	}
	r.notifier.Send(fmt.Sprintf("%s odds: +%d events, %d total", league.Name, added, total))
	return nil
}

func (r *Runner) runResults(ctx context.Context, league *config.LeagueConfig, browser config.BrowserConfig) error {
	policy, err := ledger.ParseKeyPolicy(league.KeyPolicy)
	if err != nil {
		return fmt.Errorf("league %s: %w", league.Name, err)
	}

	session, err := scrape.NewSession(ctx, browser)
	if err != nil {
		return err
	}
	defer session.Close()

	rc := reconcile.Reconciler{
		OddsPath:    filepath.Join(r.cfg.Store.Dir, league.OddsFile),
		ResultsPath: filepath.Join(r.cfg.Store.Dir, league.ResultsFile),
		Policy:      policy,
		Fetcher: &scrape.SiteResultsFetcher{
			Session:   session,
			BaseURL:   league.ResultsURL,
			Extractor: scrape.ResultsExtractor{AdjustOvertimeScore: league.AdjustOvertimeScore},
		},
	}
	stats, err := rc.Run(ctx)
	if err != nil {
		return err
	}

	r.archiveSettled(ctx, league)
	r.notifier.Send(fmt.Sprintf("%s results: %d settled, %d unresolved, %d skipped of %d rows",
		league.Name, stats.Settled, stats.Unresolved, stats.Skipped, stats.Rows))
	return nil
}

// archiveSettled mirrors the settled ledger into Postgres when a DSN
// is configured. Archive failures are logged, never fatal: the ledger
// already holds the result.
func (r *Runner) archiveSettled(ctx context.Context, league *config.LeagueConfig) {
	if r.cfg.Postgres.DSN == "" {
		return
	}

	a, err := archive.New(&r.cfg.Postgres)
	if err != nil {
		slog.Error("Archive unavailable", "league", league.Name, "error", err)
		return
	}
	defer a.Close()

	_, rows, err := ledger.Load(filepath.Join(r.cfg.Store.Dir, league.ResultsFile))
	if err != nil {
		slog.Error("Archive skipped, cannot read ledger", "league", league.Name, "error", err)
		return
	}
	written, err := a.StoreSettled(ctx, league.Name, rows)
	if err != nil {
		slog.Error("Archive write failed", "league", league.Name, "error", err)
		return
	}
	slog.Info("Settled rows archived", "league", league.Name, "rows", written)
}
