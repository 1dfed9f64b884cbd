package web

import (
	"testing"

	"github.com/apovetkin/fonhockey/internal/pkg/models"
)

func row(name, eventTime, result string) models.OddsRecord {
	return models.OddsRecord{
		ParseTimestamp: "01.10.2024 12:00:00",
		EventName:      name,
		EventTime:      eventTime,
		Odds1:          "2.10",
		OddsX:          "4.20",
		Odds2:          "3.05",
		MatchResult:    result,
	}
}

func TestSelectRows_FiltersBySettlement(t *testing.T) {
	rows := []models.OddsRecord{
		row("Ак Барс — Спартак", "10.10.2024 19:30", ""),
		row("Торпедо — ЦСКА", "11.10.2024 17:00", "3:2"),
	}

	unsettled := selectRows(rows, false)
	if len(unsettled) != 1 || unsettled[0].EventName != "Ак Барс — Спартак" {
		t.Errorf("unsettled view = %+v", unsettled)
	}

	settled := selectRows(rows, true)
	if len(settled) != 1 || settled[0].EventName != "Торпедо — ЦСКА" {
		t.Errorf("settled view = %+v", settled)
	}
	if settled[0].MatchResult != "3:2" {
		t.Errorf("MatchResult = %q", settled[0].MatchResult)
	}
}

func TestSelectRows_SortsNewestFirst(t *testing.T) {
	rows := []models.OddsRecord{
		row("older", "10.10.2024 19:30", ""),
		row("newest", "12.10.2024 19:30", ""),
		row("middle", "11.10.2024 17:00", ""),
	}

	got := selectRows(rows, false)
	if len(got) != 3 {
		t.Fatalf("got %d rows", len(got))
	}
	want := []string{"newest", "middle", "older"}
	for i, name := range want {
		if got[i].EventName != name {
			t.Errorf("position %d = %q, want %q", i, got[i].EventName, name)
		}
	}
}

func TestSelectRows_TiesKeepLedgerOrder(t *testing.T) {
	rows := []models.OddsRecord{
		row("first", "10.10.2024 19:30", ""),
		row("second", "10.10.2024 19:30", ""),
	}

	got := selectRows(rows, false)
	if len(got) != 2 || got[0].EventName != "first" || got[1].EventName != "second" {
		t.Errorf("tie order broken: %+v", got)
	}
}

func TestSelectRows_ExcludesOpaqueEventTimes(t *testing.T) {
	rows := []models.OddsRecord{
		row("ok", "10.10.2024 19:30", ""),
		row("opaque", "Перенесён", ""),
	}

	got := selectRows(rows, false)
	if len(got) != 1 || got[0].EventName != "ok" {
		t.Errorf("opaque row not excluded: %+v", got)
	}
}
