// Package scrape drives a headless Chrome over the bookmaker's pages
// and shapes their DOM into odds and result records. Selectors live in
// prioritized strategy lists: the site's CSS-module class hashes churn,
// so every field is located by the first strategy that yields content.
package scrape

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/apovetkin/fonhockey/internal/pkg/config"
)

// chromeMu serializes all Chrome usage so only one instance runs at a time.
var chromeMu sync.Mutex

// DebugPageFile is where the raw page is dumped when extraction finds
// nothing, for offline selector debugging.
const DebugPageFile = "debug_page.html"

// Cookie-consent buttons tried in order; all failures are ignored.
var cookieSelectors = []string{
	`button[class*="cookie"]`,
	`button[class*="accept"]`,
	`div[class*="cookie"] button`,
}

// Session owns one headless Chrome for the duration of a run. Creating
// it is the run's fatal setup step; Close must always run on the way
// out (defer it right after NewSession).
type Session struct {
	ctx         context.Context
	cancelAlloc context.CancelFunc
	cancelCtx   context.CancelFunc
	userDir     string
	cfg         config.BrowserConfig

	cookiesDone bool
}

// NewSession launches the browser. Failure here aborts the whole run.
func NewSession(ctx context.Context, cfg config.BrowserConfig) (*Session, error) {
	chromeMu.Lock()

	userDir, err := os.MkdirTemp("", "fonhockey_chrome_")
	if err != nil {
		chromeMu.Unlock()
		return nil, fmt.Errorf("create chrome temp dir: %w", err)
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.WindowSize(1920, 1080),
		chromedp.UserDataDir(userDir),
		chromedp.UserAgent(cfg.UserAgent),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, cancelCtx := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(format string, v ...interface{}) {
		slog.Debug("chromedp", "message", fmt.Sprintf(format, v...))
	}))

	// Start the browser eagerly so setup failures surface here, not on
	// the first navigation.
	if err := chromedp.Run(browserCtx); err != nil {
		cancelCtx()
		cancelAlloc()
		_ = os.RemoveAll(userDir)
		chromeMu.Unlock()
		return nil, fmt.Errorf("start chrome: %w", err)
	}

	slog.Info("Browser session started", "headless", cfg.Headless)
	return &Session{
		ctx:         browserCtx,
		cancelAlloc: cancelAlloc,
		cancelCtx:   cancelCtx,
		userDir:     userDir,
		cfg:         cfg,
	}, nil
}

// Close releases the browser and its temp profile.
func (s *Session) Close() {
	s.cancelCtx()
	s.cancelAlloc()
	_ = os.RemoveAll(s.userDir)
	chromeMu.Unlock()
	slog.Info("Browser session closed")
}

// FetchPage navigates to url and returns the rendered HTML. The
// document-ready wait is soft: on expiry it logs and proceeds with
// whatever has loaded, matching the page's lazy content behavior.
func (s *Session) FetchPage(url string) (string, error) {
	if err := chromedp.Run(s.ctx, chromedp.Navigate(url)); err != nil {
		return "", fmt.Errorf("navigate %s: %w", url, err)
	}
	s.waitReady(url)

	if !s.cookiesDone {
		s.acceptCookies()
		s.cookiesDone = true
	}

	if s.cfg.ContentWait > 0 {
		_ = chromedp.Run(s.ctx, chromedp.Sleep(s.cfg.ContentWait))
	}

	var html string
	if err := chromedp.Run(s.ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("read page html: %w", err)
	}
	return html, nil
}

func (s *Session) waitReady(url string) {
	timeout := s.cfg.PageLoadTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	var ready bool
	err := chromedp.Run(s.ctx, chromedp.Poll(
		`document.readyState === "complete"`,
		&ready,
		chromedp.WithPollingTimeout(timeout),
	))
	if err != nil {
		if errors.Is(err, chromedp.ErrPollingTimeout) {
			slog.Warn("Page did not finish loading in time, continuing", "url", url, "timeout", timeout)
			return
		}
		slog.Warn("Page ready wait failed, continuing", "url", url, "error", err)
	}
}

// acceptCookies clicks through the consent banner if one is shown.
// Absence of the banner is the normal case, not an error.
func (s *Session) acceptCookies() {
	for _, sel := range cookieSelectors {
		clickCtx, cancel := context.WithTimeout(s.ctx, 2*time.Second)
		err := chromedp.Run(clickCtx, chromedp.Click(sel, chromedp.ByQuery, chromedp.NodeVisible))
		cancel()
		if err == nil {
			slog.Info("Accepted cookie banner", "selector", sel)
			return
		}
	}
	slog.Debug("No cookie banner found")
}

// SaveDebugPage persists raw page content for offline inspection after
// a total extraction failure.
func SaveDebugPage(dir, html string) {
	path := filepath.Join(dir, DebugPageFile)
	if err := os.WriteFile(path, []byte(html), 0o644); err != nil {
		slog.Error("Failed to save debug page", "path", path, "error", err)
		return
	}
	slog.Info("Saved raw page for debugging", "path", path)
}
