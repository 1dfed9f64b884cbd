package scrape

import (
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/apovetkin/fonhockey/internal/ledger"
	"github.com/apovetkin/fonhockey/internal/pkg/models"
)

// Selector strategies for the odds page, first non-empty match wins.
// The hashed suffixes are the CSS-module classes currently shipped by
// the site; the [class*=...] entries survive hash churn.
var (
	eventSelectors = []string{
		`[class*="sport-base-event"]`,
		`[class*="sport-event"]`,
		`[class*="event-block"]`,
		`.sport-base-event--W4qkO`,
	}
	eventNameSelectors = []string{
		`a[class*="sport-event__name"]`,
		`div[class*="event-name"]`,
		`span[class*="event-name"]`,
	}
	eventTimeSelectors = []string{
		`span[class*="event-block-planned-time"]`,
		`span[class*="time"]`,
		`div[class*="time"]`,
	}
)

const (
	simpleValueSelector = `span.value--OUKql`
	paramSelector       = `span.param--qbIN_`
	foraBlockSelector   = `div.table-component-factor-value_complex`
	totalBlockSelector  = `div.table-component-factor-value_param`
	factorCellSelector  = `div.factor-value--zrkpK`
)

// defaultTotalText is written when the page shows total quotes without
// a visible line; 5.5 is the standard hockey total.
const defaultTotalText = "5.5"

// cleanParam strips the exotic spaces the site puts inside handicap
// and total parameters.
var cleanParam = strings.NewReplacer(" ", "", " ", "", " ", "")

// OddsExtractor shapes a rendered line page into odds records.
type OddsExtractor struct {
	// TeamFilter keeps only events that name one of these teams.
	// Empty keeps everything.
	TeamFilter []string

	// Policy keys the dedupe of scraped records. The zero value keys
	// by event, matching the ledger default.
	Policy ledger.KeyPolicy

	// Now supplies the clock for timestamps and relative-date
	// resolution; nil means time.Now.
	Now func() time.Time
}

func (e *OddsExtractor) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// ParseOddsPage extracts every event from the page. Event selector
// strategies are tried in order; the first one that yields at least
// one usable record wins. Records are deduplicated under the
// extractor's key policy, first seen wins.
func (e *OddsExtractor) ParseOddsPage(html string) ([]models.OddsRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	var records []models.OddsRecord
	for _, selector := range eventSelectors {
		blocks := doc.Find(selector)
		if blocks.Length() == 0 {
			continue
		}
		slog.Info("Found event blocks", "selector", selector, "count", blocks.Length())

		blocks.Each(func(_ int, block *goquery.Selection) {
			rec, ok := e.extractOdds(block)
			if !ok {
				return
			}
			if !e.wanted(rec.EventName) {
				return
			}
			records = append(records, rec)
		})
		if len(records) > 0 {
			break
		}
	}

	records = ledger.Dedupe(records, e.Policy)
	slog.Info("Extracted odds events", "count", len(records))
	return records, nil
}

// extractOdds pulls one event's fields out of its block. Quotes are
// positional: the first three simple values are 1/X/2, the next three
// 1X/12/X2. Handicaps and totals come from the structured factor
// cells, with a flat positional fallback when the page renders them
// as plain values.
func (e *OddsExtractor) extractOdds(block *goquery.Selection) (models.OddsRecord, bool) {
	name := firstText(block, eventNameSelectors)
	if name == "" {
		return models.OddsRecord{}, false
	}

	rec := models.OddsRecord{
		ParseTimestamp: e.now().Format(models.ParseTimestampLayout),
		EventName:      name,
	}

	if raw := firstText(block, eventTimeSelectors); raw != "" {
		rec.EventTime = ResolveEventTime(raw, e.now())
	}

	var simple []string
	block.Find(simpleValueSelector).Each(func(_ int, s *goquery.Selection) {
		simple = append(simple, strings.TrimSpace(s.Text()))
	})
	assign := func(dst *string, i int) {
		if i < len(simple) {
			*dst = simple[i]
		}
	}
	assign(&rec.Odds1, 0)
	assign(&rec.OddsX, 1)
	assign(&rec.Odds2, 2)
	assign(&rec.Odds1X, 3)
	assign(&rec.Odds12, 4)
	assign(&rec.OddsX2, 5)

	// Handicaps: parameter + quote pairs in encounter order.
	block.Find(foraBlockSelector).EachWithBreak(func(i int, fb *goquery.Selection) bool {
		param := cleanParam.Replace(strings.TrimSpace(fb.Find(paramSelector).First().Text()))
		value := strings.TrimSpace(fb.Find(simpleValueSelector).First().Text())
		if param == "" || value == "" {
			return true
		}
		switch i {
		case 0:
			rec.Fora1 = param + " " + value
		case 1:
			rec.Fora2 = param + " " + value
		}
		return i < 1
	})

	// Totals: the line parameter cell, then the two factor cells that
	// follow it hold the over and under quotes.
	totalBlock := block.Find(totalBlockSelector).FilterFunction(func(_ int, tb *goquery.Selection) bool {
		return strings.TrimSpace(tb.Find(paramSelector).First().Text()) != ""
	}).First()
	if totalBlock.Length() > 0 {
		rec.TotalValue = cleanParam.Replace(strings.TrimSpace(totalBlock.Find(paramSelector).First().Text()))
		factors := block.Find(factorCellSelector)
		idx := factors.IndexOfSelection(totalBlock)
		if idx >= 0 {
			if idx+1 < factors.Length() {
				rec.TotalOver = strings.TrimSpace(factors.Eq(idx + 1).Find(simpleValueSelector).First().Text())
			}
			if idx+2 < factors.Length() {
				rec.TotalUnder = strings.TrimSpace(factors.Eq(idx + 2).Find(simpleValueSelector).First().Text())
			}
		}
	}

	// Positional heuristic: when the structured cells are absent but
	// the flat value list is long enough, assume the site laid out
	// fora/total quotes as plain values after the double chances.
	if rec.Fora1 == "" && rec.Fora2 == "" && len(simple) >= 9 {
		assign(&rec.Fora1, 6)
		assign(&rec.Fora2, 7)
		rec.TotalValue = defaultTotalText
		assign(&rec.TotalOver, 8)
		assign(&rec.TotalUnder, 9)
	}

	return rec, true
}

func (e *OddsExtractor) wanted(eventName string) bool {
	if len(e.TeamFilter) == 0 {
		return true
	}
	for _, team := range e.TeamFilter {
		if strings.Contains(eventName, team) {
			return true
		}
	}
	return false
}

// firstText returns the text of the first selector strategy that
// yields non-empty content.
func firstText(block *goquery.Selection, selectors []string) string {
	for _, selector := range selectors {
		if text := strings.TrimSpace(block.Find(selector).First().Text()); text != "" {
			return text
		}
	}
	return ""
}
