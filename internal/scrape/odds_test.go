package scrape

import (
	"testing"
	"time"

	"github.com/apovetkin/fonhockey/internal/ledger"
	"github.com/apovetkin/fonhockey/internal/pkg/models"
)

var fixedNow = time.Date(2024, 10, 9, 12, 0, 0, 0, time.Local)

const structuredEventHTML = `
<div class="sport-base-event--W4qkO">
  <a class="sport-event__name--abc123">Ак Барс — Спартак</a>
  <span class="event-block-planned-time--xyz">Завтра в 19:30</span>
  <span class="value--OUKql">2.10</span>
  <span class="value--OUKql">4.20</span>
  <span class="value--OUKql">3.05</span>
  <span class="value--OUKql">1.40</span>
  <span class="value--OUKql">1.25</span>
  <span class="value--OUKql">1.75</span>
  <div class="table-component-factor-value_complex">
    <span class="param--qbIN_">-1.5</span>
    <span class="value--OUKql">3.50</span>
  </div>
  <div class="table-component-factor-value_complex">
    <span class="param--qbIN_">+1.5</span>
    <span class="value--OUKql">1.30</span>
  </div>
  <div class="factor-value--zrkpK table-component-factor-value_param">
    <span class="param--qbIN_">5.5</span>
  </div>
  <div class="factor-value--zrkpK">
    <span class="value--OUKql">1.90</span>
  </div>
  <div class="factor-value--zrkpK">
    <span class="value--OUKql">1.95</span>
  </div>
</div>`

func TestParseOddsPage_StructuredEvent(t *testing.T) {
	e := &OddsExtractor{Now: func() time.Time { return fixedNow }}

	records, err := e.ParseOddsPage(structuredEventHTML)
	if err != nil {
		t.Fatalf("ParseOddsPage: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}

	r := records[0]
	if r.EventName != "Ак Барс — Спартак" {
		t.Errorf("EventName = %q", r.EventName)
	}
	if r.EventTime != "10.10.2024 19:30" {
		t.Errorf("EventTime = %q, want resolved relative date", r.EventTime)
	}
	if r.ParseTimestamp != fixedNow.Format(models.ParseTimestampLayout) {
		t.Errorf("ParseTimestamp = %q", r.ParseTimestamp)
	}

	want := map[string]string{
		"odds_1": "2.10", "odds_x": "4.20", "odds_2": "3.05",
		"odds_1x": "1.40", "odds_12": "1.25", "odds_x2": "1.75",
		"fora_1": "-1.5 3.50", "fora_2": "+1.5 1.30",
		"total_value": "5.5", "total_over": "1.90", "total_under": "1.95",
	}
	for field, expected := range want {
		if got := r.Field(field); got != expected {
			t.Errorf("%s = %q, want %q", field, got, expected)
		}
	}
}

func TestParseOddsPage_FlatValueFallback(t *testing.T) {
	html := `
<div class="sport-base-event--W4qkO">
  <a class="sport-event__name--abc123">Торпедо — ЦСКА</a>
  <span class="event-block-planned-time--xyz">12.10.2024 17:00</span>
  <span class="value--OUKql">2.50</span>
  <span class="value--OUKql">4.00</span>
  <span class="value--OUKql">2.60</span>
  <span class="value--OUKql">1.55</span>
  <span class="value--OUKql">1.28</span>
  <span class="value--OUKql">1.58</span>
  <span class="value--OUKql">3.10</span>
  <span class="value--OUKql">1.35</span>
  <span class="value--OUKql">1.85</span>
  <span class="value--OUKql">1.95</span>
</div>`

	e := &OddsExtractor{Now: func() time.Time { return fixedNow }}
	records, err := e.ParseOddsPage(html)
	if err != nil {
		t.Fatalf("ParseOddsPage: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}

	r := records[0]
	if r.Fora1 != "3.10" || r.Fora2 != "1.35" {
		t.Errorf("fora = %q/%q, want positional values", r.Fora1, r.Fora2)
	}
	if r.TotalValue != "5.5" {
		t.Errorf("TotalValue = %q, want default line", r.TotalValue)
	}
	if r.TotalOver != "1.85" || r.TotalUnder != "1.95" {
		t.Errorf("totals = %q/%q", r.TotalOver, r.TotalUnder)
	}
}

func TestParseOddsPage_TeamFilter(t *testing.T) {
	html := `
<div class="sport-base-event--W4qkO">
  <a class="sport-event__name--abc123">Ак Барс — Спартак</a>
  <span class="event-block-planned-time--xyz">12.10.2024 17:00</span>
  <span class="value--OUKql">2.10</span>
  <span class="value--OUKql">4.20</span>
  <span class="value--OUKql">3.05</span>
</div>
<div class="sport-base-event--W4qkO">
  <a class="sport-event__name--abc123">Random United — Other Town</a>
  <span class="event-block-planned-time--xyz">12.10.2024 19:00</span>
  <span class="value--OUKql">1.50</span>
  <span class="value--OUKql">4.00</span>
  <span class="value--OUKql">5.00</span>
</div>`

	e := &OddsExtractor{
		TeamFilter: []string{"Ак Барс", "Спартак", "ЦСКА"},
		Now:        func() time.Time { return fixedNow },
	}
	records, err := e.ParseOddsPage(html)
	if err != nil {
		t.Fatalf("ParseOddsPage: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1 after filtering", len(records))
	}
	if records[0].EventName != "Ак Барс — Спартак" {
		t.Errorf("kept %q", records[0].EventName)
	}
}

const repeatedEventHTML = `
<div class="sport-base-event--W4qkO">
  <a class="sport-event__name--abc123">Ак Барс — Спартак</a>
  <span class="event-block-planned-time--xyz">12.10.2024 17:00</span>
  <span class="value--OUKql">2.10</span>
  <span class="value--OUKql">4.20</span>
  <span class="value--OUKql">3.05</span>
</div>`

func TestParseOddsPage_DeduplicatesRepeatedEvents(t *testing.T) {
	e := &OddsExtractor{Now: func() time.Time { return fixedNow }}
	records, err := e.ParseOddsPage(repeatedEventHTML + repeatedEventHTML)
	if err != nil {
		t.Fatalf("ParseOddsPage: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1 after dedupe", len(records))
	}
}

func TestParseOddsPage_SnapshotPolicyKeepsEverySnapshot(t *testing.T) {
	ticks := 0
	e := &OddsExtractor{
		Policy: ledger.KeyPolicySnapshot,
		Now: func() time.Time {
			ticks++
			return fixedNow.Add(time.Duration(ticks) * time.Second)
		},
	}

	records, err := e.ParseOddsPage(repeatedEventHTML + repeatedEventHTML)
	if err != nil {
		t.Fatalf("ParseOddsPage: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want one per snapshot", len(records))
	}
	if records[0].ParseTimestamp == records[1].ParseTimestamp {
		t.Error("snapshots share a parse timestamp")
	}
}

func TestParseOddsPage_SkipsNamelessBlocks(t *testing.T) {
	html := `
<div class="sport-base-event--W4qkO">
  <span class="value--OUKql">2.10</span>
</div>
<div class="sport-base-event--W4qkO">
  <a class="sport-event__name--abc123">Торпедо — ЦСКА</a>
  <span class="event-block-planned-time--xyz">12.10.2024 17:00</span>
  <span class="value--OUKql">2.50</span>
  <span class="value--OUKql">4.00</span>
  <span class="value--OUKql">2.60</span>
</div>`

	e := &OddsExtractor{Now: func() time.Time { return fixedNow }}
	records, err := e.ParseOddsPage(html)
	if err != nil {
		t.Fatalf("ParseOddsPage: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want the nameless block skipped", len(records))
	}
	if records[0].EventName != "Торпедо — ЦСКА" {
		t.Errorf("EventName = %q", records[0].EventName)
	}
}

func TestParseOddsPage_EmptyPage(t *testing.T) {
	e := &OddsExtractor{Now: func() time.Time { return fixedNow }}
	records, err := e.ParseOddsPage("<html><body></body></html>")
	if err != nil {
		t.Fatalf("ParseOddsPage: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("got %d records, want 0", len(records))
	}
}
