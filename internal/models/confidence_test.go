package models

import "testing"

func TestWeakestConfidence(t *testing.T) {
	tests := []struct {
		name   string
		levels []ConfidenceLevel
		want   ConfidenceLevel
	}{
		{"all high", []ConfidenceLevel{ConfidenceHigh, ConfidenceHigh}, ConfidenceHigh},
		{"medium dominates high", []ConfidenceLevel{ConfidenceHigh, ConfidenceMedium}, ConfidenceMedium},
		{"low dominates", []ConfidenceLevel{ConfidenceMedium, ConfidenceLow, ConfidenceHigh}, ConfidenceLow},
		{"uncertain dominates all", []ConfidenceLevel{ConfidenceHigh, ConfidenceUncertain, ConfidenceLow}, ConfidenceUncertain},
		{"empty input", nil, ConfidenceUncertain},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WeakestConfidence(tt.levels...); got != tt.want {
				t.Errorf("WeakestConfidence(%v) = %s, want %s", tt.levels, got, tt.want)
			}
		})
	}
}

func TestConfidenceLevelValid(t *testing.T) {
	for _, level := range []ConfidenceLevel{ConfidenceHigh, ConfidenceMedium, ConfidenceLow, ConfidenceUncertain} {
		if !level.Valid() {
			t.Errorf("%s reported invalid", level)
		}
	}
	if ConfidenceLevel("VeryHigh").Valid() {
		t.Error("VeryHigh reported valid")
	}
	if ConfidenceLevel("").Valid() {
		t.Error("empty level reported valid")
	}
}

func TestCaseNetWorth(t *testing.T) {
	c := Case{TotalAssets: 600000, TotalLiabilities: 50000}
	if got := c.NetWorth(); got != 550000 {
		t.Errorf("NetWorth = %v, want 550000", got)
	}
}
