package models

import (
	"strings"
	"time"
)

// Timestamp layouts used in the CSV ledgers.
const (
	EventTimeLayout      = "02.01.2006 15:04"
	ParseTimestampLayout = "02.01.2006 15:04:05"
)

// Outcome labels prepended to a quote once an event is settled.
const (
	OutcomeWin  = "WIN"
	OutcomeLoss = "LOSS"
)

// CSV column names of an odds ledger, in canonical order.
var FieldOrder = []string{
	"parse_timestamp", "event_name", "event_time",
	"odds_1", "odds_x", "odds_2",
	"odds_1x", "odds_12", "odds_x2",
	"fora_1", "fora_2",
	"total_value", "total_over", "total_under",
}

// FieldMatchResult is appended to the header on the first settlement run.
const FieldMatchResult = "match_result"

// OddsRecord is one row of an odds ledger. All quote fields are raw
// strings: either the numeric quote as scraped, or "<WIN|LOSS> <quote>"
// once the event is settled. EventTime is kept as text because the
// temporal resolver passes unrecognized phrases through unchanged.
type OddsRecord struct {
	ParseTimestamp string
	EventName      string
	EventTime      string

	Odds1 string
	OddsX string
	Odds2 string

	Odds1X string
	Odds12 string
	OddsX2 string

	Fora1 string
	Fora2 string

	TotalValue string
	TotalOver  string
	TotalUnder string

	MatchResult string
}

// Field returns the value of the CSV column with the given name.
func (r *OddsRecord) Field(name string) string {
	switch name {
	case "parse_timestamp":
		return r.ParseTimestamp
	case "event_name":
		return r.EventName
	case "event_time":
		return r.EventTime
	case "odds_1":
		return r.Odds1
	case "odds_x":
		return r.OddsX
	case "odds_2":
		return r.Odds2
	case "odds_1x":
		return r.Odds1X
	case "odds_12":
		return r.Odds12
	case "odds_x2":
		return r.OddsX2
	case "fora_1":
		return r.Fora1
	case "fora_2":
		return r.Fora2
	case "total_value":
		return r.TotalValue
	case "total_over":
		return r.TotalOver
	case "total_under":
		return r.TotalUnder
	case FieldMatchResult:
		return r.MatchResult
	}
	return ""
}

// SetField sets the CSV column with the given name. Unknown columns are
// ignored so ledgers with extra columns still load.
func (r *OddsRecord) SetField(name, value string) {
	switch name {
	case "parse_timestamp":
		r.ParseTimestamp = value
	case "event_name":
		r.EventName = value
	case "event_time":
		r.EventTime = value
	case "odds_1":
		r.Odds1 = value
	case "odds_x":
		r.OddsX = value
	case "odds_2":
		r.Odds2 = value
	case "odds_1x":
		r.Odds1X = value
	case "odds_12":
		r.Odds12 = value
	case "odds_x2":
		r.OddsX2 = value
	case "fora_1":
		r.Fora1 = value
	case "fora_2":
		r.Fora2 = value
	case "total_value":
		r.TotalValue = value
	case "total_over":
		r.TotalOver = value
	case "total_under":
		r.TotalUnder = value
	case FieldMatchResult:
		r.MatchResult = value
	}
}

// HasResult reports whether the row already carries a final score.
func (r *OddsRecord) HasResult() bool {
	return strings.TrimSpace(r.MatchResult) != ""
}

// Labeled reports whether any outcome field already carries a WIN/LOSS
// prefix. A row is never partially labeled: Settle writes all five
// outcome fields and the result in one step.
func (r *OddsRecord) Labeled() bool {
	for _, v := range []string{r.Odds1, r.OddsX, r.Odds2, r.TotalOver, r.TotalUnder} {
		u := strings.ToUpper(v)
		if strings.Contains(u, OutcomeWin) || strings.Contains(u, OutcomeLoss) {
			return true
		}
	}
	return false
}

// Settled reports whether the row has been through settlement.
func (r *OddsRecord) Settled() bool {
	return r.HasResult() || r.Labeled()
}

// StartTime parses EventTime. The error is non-nil for opaque phrases
// the temporal resolver could not convert.
func (r *OddsRecord) StartTime() (time.Time, error) {
	return time.ParseInLocation(EventTimeLayout, r.EventTime, time.Local)
}
