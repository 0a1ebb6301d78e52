package fixture

import (
	"testing"
	"time"
)

func TestTempIDDeterministic(t *testing.T) {
	t.Parallel()

	date := ParseTimestamp("2025-08-16T14:00:00Z")
	first := TempID(1, "Manchester United", "West Ham", date)
	second := TempID(1, "Manchester United", "West Ham", date)
	if first != second {
		t.Fatalf("expected deterministic temp id, got %q and %q", first, second)
	}
	if first != "1_ManchesterUnited_WestHam_2025-08-16T14:00:00Z" {
		t.Fatalf("unexpected temp id %q", first)
	}
}

func TestTempIDStripsAllSpaces(t *testing.T) {
	t.Parallel()

	date := ParseTimestamp("2025-08-16")
	got := TempID(3, "Brighton  and  Hove", "Spurs", date)
	if got != "3_BrightonandHove_Spurs_2025-08-16" {
		t.Fatalf("unexpected temp id %q", got)
	}
}

func TestRecordKeyPrefersUsableGameID(t *testing.T) {
	t.Parallel()

	rec := Record{GameID: "4506001", TempID: "1_A_B_2025-08-16"}
	if rec.Key() != "4506001" {
		t.Fatalf("expected game id key, got %q", rec.Key())
	}

	for _, id := range []string{"", "0", " "} {
		rec := Record{GameID: id, TempID: "1_A_B_2025-08-16"}
		if rec.HasUsableGameID() {
			t.Fatalf("game id %q should not be usable", id)
		}
		if rec.Key() != "1_A_B_2025-08-16" {
			t.Fatalf("expected temp id key for game id %q, got %q", id, rec.Key())
		}
	}
}

func TestParseTimestampLayouts(t *testing.T) {
	t.Parallel()

	cases := map[string]time.Time{
		"2025-08-16T14:00:00Z":      time.Date(2025, 8, 16, 14, 0, 0, 0, time.UTC),
		"2025-08-16T15:00:00+01:00": time.Date(2025, 8, 16, 14, 0, 0, 0, time.UTC),
		"2025-08-16 14:00":          time.Date(2025, 8, 16, 14, 0, 0, 0, time.UTC),
		"2025-08-16":                time.Date(2025, 8, 16, 0, 0, 0, 0, time.UTC),
	}
	for raw, want := range cases {
		got := ParseTimestamp(raw)
		if !got.Equal(want) {
			t.Fatalf("ParseTimestamp(%q) = %v, want %v", raw, got.Time, want)
		}
	}

	if !ParseTimestamp("not a date").IsZero() {
		t.Fatalf("expected zero time for unparseable input")
	}
}

func TestTimestampJSONRoundTrip(t *testing.T) {
	t.Parallel()

	ts := ParseTimestamp("2025-08-16T14:00:00Z")
	data, err := ts.MarshalJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `"2025-08-16T14:00:00Z"` {
		t.Fatalf("unexpected marshal output %s", data)
	}

	var back Timestamp
	if err := back.UnmarshalJSON(data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.Equal(ts.Time) {
		t.Fatalf("round trip mismatch: %v != %v", back.Time, ts.Time)
	}

	var empty Timestamp
	if err := empty.UnmarshalJSON([]byte(`""`)); err != nil {
		t.Fatalf("unmarshal empty: %v", err)
	}
	if !empty.IsZero() {
		t.Fatalf("expected zero time for empty string")
	}
}

func TestParseSource(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"fotmob", "WhoScored", " fbref "} {
		if _, err := ParseSource(raw); err != nil {
			t.Fatalf("ParseSource(%q): %v", raw, err)
		}
	}
	if _, err := ParseSource("espn"); err == nil {
		t.Fatalf("expected error for unknown source")
	}
}
