package ledger

import (
	"testing"

	"github.com/apovetkin/fonhockey/internal/pkg/models"
)

func rec(name, eventTime, parseTS string) models.OddsRecord {
	return models.OddsRecord{
		ParseTimestamp: parseTS,
		EventName:      name,
		EventTime:      eventTime,
		Odds1:          "2.10",
		OddsX:          "3.90",
		Odds2:          "3.05",
	}
}

func settled(name, eventTime string) models.OddsRecord {
	r := rec(name, eventTime, "01.10.2024 09:00:00")
	r.Odds1 = "WIN 2.10"
	r.OddsX = "LOSS 3.90"
	r.Odds2 = "LOSS 3.05"
	r.TotalOver = "WIN 1.85"
	r.TotalUnder = "LOSS 1.95"
	r.MatchResult = "3:2"
	return r
}

func TestParseKeyPolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    KeyPolicy
		wantErr bool
	}{
		{"", KeyPolicyEvent, false},
		{"event", KeyPolicyEvent, false},
		{"snapshot", KeyPolicySnapshot, false},
		{"bogus", "", true},
	}
	for _, tt := range tests {
		got, err := ParseKeyPolicy(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseKeyPolicy(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseKeyPolicy(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDedupe_FirstSeenWins(t *testing.T) {
	first := rec("Ак Барс — Спартак", "10.10.2024 19:30", "09.10.2024 08:00:00")
	dup := rec("Ак Барс — Спартак", "10.10.2024 19:30", "09.10.2024 12:00:00")
	dup.Odds1 = "2.30"
	other := rec("СКА — ЦСКА", "10.10.2024 17:00", "09.10.2024 08:00:00")

	got := Dedupe([]models.OddsRecord{first, dup, other}, KeyPolicyEvent)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Odds1 != "2.10" {
		t.Errorf("kept row odds_1 = %q, want first-seen 2.10", got[0].Odds1)
	}
	if got[1].EventName != "СКА — ЦСКА" {
		t.Errorf("order not preserved: %q", got[1].EventName)
	}
}

func TestDedupe_SnapshotPolicyKeepsBothScrapes(t *testing.T) {
	a := rec("Ак Барс — Спартак", "10.10.2024 19:30", "09.10.2024 08:00:00")
	b := rec("Ак Барс — Спартак", "10.10.2024 19:30", "09.10.2024 12:00:00")

	if got := Dedupe([]models.OddsRecord{a, b}, KeyPolicySnapshot); len(got) != 2 {
		t.Errorf("snapshot policy collapsed distinct scrape timestamps: len = %d", len(got))
	}
}

func TestMerge_NeverDowngradesSettledRow(t *testing.T) {
	existing := []models.OddsRecord{settled("Ак Барс — Спартак", "10.10.2024 19:30")}
	fresh := []models.OddsRecord{rec("Ак Барс — Спартак", "10.10.2024 19:30", "11.10.2024 08:00:00")}

	got := MergePreservingResults(existing, fresh, KeyPolicyEvent)
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	if !got[0].Settled() {
		t.Error("merge downgraded a settled row")
	}
	if got[0].MatchResult != "3:2" {
		t.Errorf("match_result = %q, want 3:2", got[0].MatchResult)
	}
}

func TestMerge_UnsettledRowTakesFreshQuotes(t *testing.T) {
	existing := []models.OddsRecord{rec("СКА — ЦСКА", "10.10.2024 17:00", "09.10.2024 08:00:00")}
	fresh := []models.OddsRecord{rec("СКА — ЦСКА", "10.10.2024 17:00", "09.10.2024 12:00:00")}
	fresh[0].Odds1 = "2.45"

	got := MergePreservingResults(existing, fresh, KeyPolicyEvent)
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	if got[0].Odds1 != "2.45" {
		t.Errorf("odds_1 = %q, want fresh 2.45", got[0].Odds1)
	}
}

func TestMerge_KeepsBothSides(t *testing.T) {
	existing := []models.OddsRecord{settled("Ак Барс — Спартак", "08.10.2024 19:30")}
	fresh := []models.OddsRecord{rec("СКА — ЦСКА", "10.10.2024 17:00", "09.10.2024 08:00:00")}

	got := MergePreservingResults(existing, fresh, KeyPolicyEvent)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].EventName != "Ак Барс — Спартак" || got[1].EventName != "СКА — ЦСКА" {
		t.Errorf("order: existing rows first, new rows appended; got %q, %q",
			got[0].EventName, got[1].EventName)
	}
}

func TestMerge_IdempotentOnceAllSettled(t *testing.T) {
	existing := []models.OddsRecord{
		settled("Ак Барс — Спартак", "08.10.2024 19:30"),
		settled("СКА — ЦСКА", "08.10.2024 17:00"),
	}
	fresh := []models.OddsRecord{
		rec("Ак Барс — Спартак", "08.10.2024 19:30", "09.10.2024 08:00:00"),
		rec("СКА — ЦСКА", "08.10.2024 17:00", "09.10.2024 08:00:00"),
	}

	once := MergePreservingResults(existing, fresh, KeyPolicyEvent)
	twice := MergePreservingResults(once, fresh, KeyPolicyEvent)
	if len(once) != len(existing) || len(twice) != len(existing) {
		t.Fatalf("lens = %d, %d, want %d", len(once), len(twice), len(existing))
	}
	for i := range existing {
		if once[i] != existing[i] || twice[i] != existing[i] {
			t.Errorf("row %d changed across merges", i)
		}
	}
}
