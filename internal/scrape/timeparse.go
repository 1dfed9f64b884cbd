package scrape

import (
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/apovetkin/fonhockey/internal/pkg/models"
)

// Genitive month names as they appear in the site's schedule strings
// ("12 октября в 02:00").
var monthsGenitive = map[string]time.Month{
	"января":   time.January,
	"февраля":  time.February,
	"марта":    time.March,
	"апреля":   time.April,
	"мая":      time.May,
	"июня":     time.June,
	"июля":     time.July,
	"августа":  time.August,
	"сентября": time.September,
	"октября":  time.October,
	"ноября":   time.November,
	"декабря":  time.December,
}

// ResolveEventTime converts a site-relative time phrase («Сегодня в
// 20:00», «Завтра в 20:00», «12 октября в 02:00») into the ledger's
// absolute "dd.mm.yyyy HH:MM" format relative to now. Any phrase it
// does not recognize, and any recognized phrase it fails to parse, is
// returned unchanged; callers must treat such values as opaque.
func ResolveEventTime(phrase string, now time.Time) string {
	text := strings.TrimSpace(phrase)

	switch {
	case strings.Contains(text, "Завтра"):
		clock, ok := clockPart(text)
		if !ok {
			return unparsed(phrase, "no clock part")
		}
		return combine(now.AddDate(0, 0, 1), clock)

	case strings.Contains(text, "Сегодня"):
		clock, ok := clockPart(text)
		if !ok {
			return unparsed(phrase, "no clock part")
		}
		return combine(now, clock)
	}

	// "<day> <genitive month> в HH:MM"
	parts := strings.Fields(text)
	if len(parts) >= 4 {
		if month, ok := monthsGenitive[strings.ToLower(parts[1])]; ok {
			day, err := strconv.Atoi(parts[0])
			if err != nil {
				return unparsed(phrase, "bad day number")
			}
			clock, err := time.Parse("15:04", parts[3])
			if err != nil {
				return unparsed(phrase, "bad clock part")
			}
			resolved := time.Date(now.Year(), month, day,
				clock.Hour(), clock.Minute(), 0, 0, now.Location())
			return resolved.Format(models.EventTimeLayout)
		}
	}

	return phrase
}

// clockPart pulls "HH:MM" out of "Сегодня в 20:00" style phrases.
func clockPart(text string) (time.Time, bool) {
	_, after, found := strings.Cut(text, " в ")
	if !found {
		return time.Time{}, false
	}
	clock, err := time.Parse("15:04", strings.TrimSpace(after))
	if err != nil {
		return time.Time{}, false
	}
	return clock, true
}

func combine(day, clock time.Time) string {
	resolved := time.Date(day.Year(), day.Month(), day.Day(),
		clock.Hour(), clock.Minute(), 0, 0, day.Location())
	return resolved.Format(models.EventTimeLayout)
}

func unparsed(phrase, reason string) string {
	slog.Warn("Failed to resolve event time, keeping raw text", "phrase", phrase, "reason", reason)
	return phrase
}
