package textmatch

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestRatioIdentical(t *testing.T) {
	t.Parallel()

	if got := Ratio("Arsenal", "Arsenal"); !almostEqual(got, 1) {
		t.Fatalf("Ratio identical = %v, want 1", got)
	}
}

func TestRatioDisjoint(t *testing.T) {
	t.Parallel()

	if got := Ratio("abc", "xyz"); !almostEqual(got, 0) {
		t.Fatalf("Ratio disjoint = %v, want 0", got)
	}
}

func TestRatioEmpty(t *testing.T) {
	t.Parallel()

	if got := Ratio("", ""); !almostEqual(got, 1) {
		t.Fatalf("Ratio empty/empty = %v, want 1", got)
	}
	if got := Ratio("abc", ""); !almostEqual(got, 0) {
		t.Fatalf("Ratio abc/empty = %v, want 0", got)
	}
}

func TestRatioKnownValue(t *testing.T) {
	t.Parallel()

	// Matched runs are "pe", "r" and "l": 2 * 4 / (5 + 10).
	if got := Ratio("pearl", "periwinkle"); !almostEqual(got, 2*4.0/15.0) {
		t.Fatalf("Ratio pearl/periwinkle = %v", got)
	}
}

func TestNormalizedRatioIgnoresCaseAndSpace(t *testing.T) {
	t.Parallel()

	if got := NormalizedRatio("  Man City ", "man city"); !almostEqual(got, 1) {
		t.Fatalf("NormalizedRatio = %v, want 1", got)
	}
}

func TestRatioOrdersCandidates(t *testing.T) {
	t.Parallel()

	target := "Manchester United"
	close := Ratio(target, "Manchester Utd")
	far := Ratio(target, "Manchester City")
	if close <= far {
		t.Fatalf("expected %q to outscore %q: %v <= %v", "Manchester Utd", "Manchester City", close, far)
	}
}
