package namematch

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		// Latin c/a folded into the Cyrillic name
		{"Aк Бaрс", "ак барс"},
		{"СПАРТАК", "спартак"},
		{"  Торпедо   НН ", "торпедо нн"},
		{"", ""},
		{"CSKA", "сsка"},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFindBestMatch_ExactAfterNormalization(t *testing.T) {
	got, ok := FindBestMatch("Ак Барс — Спартак", []string{"Aк бaрс — Спартак"})
	if !ok {
		t.Fatal("expected a match")
	}
	if got != "Aк бaрс — Спартак" {
		t.Errorf("FindBestMatch returned %q", got)
	}
}

func TestFindBestMatch_BelowThreshold(t *testing.T) {
	if got, ok := FindBestMatch("Torpedo — CSKA", []string{"Completely — Unrelated"}); ok {
		t.Errorf("expected no match, got %q", got)
	}
}

func TestFindBestMatch_PicksHighestRatio(t *testing.T) {
	candidates := []string{
		"Спартак Москва — Ак Барс Казань",
		"Спартак — Ак Барс Казань",
	}
	got, ok := FindBestMatch("Спартак — Ак Барс", candidates)
	if !ok {
		t.Fatal("expected a match")
	}
	if got != "Спартак — Ак Барс Казань" {
		t.Errorf("FindBestMatch returned %q", got)
	}
}

func TestFindBestMatch_EmptyCandidates(t *testing.T) {
	if _, ok := FindBestMatch("Спартак — ЦСКА", nil); ok {
		t.Error("expected no match for empty candidate set")
	}
}

func TestRatio(t *testing.T) {
	tests := []struct {
		a, b string
		min  float64
		max  float64
	}{
		{"abc", "abc", 1, 1},
		{"", "", 1, 1},
		{"abc", "", 0, 0},
		{"спартак", "спартак москва", 0.6, 0.7},
	}
	for _, tt := range tests {
		got := Ratio(tt.a, tt.b)
		if got < tt.min || got > tt.max {
			t.Errorf("Ratio(%q, %q) = %v, want in [%v, %v]", tt.a, tt.b, got, tt.min, tt.max)
		}
	}
}
