package models

import (
	"math"
	"testing"
)

func TestCategory_Valid(t *testing.T) {
	tests := []struct {
		name     string
		category Category
		want     bool
	}{
		{"silver is valid", CategorySilver, true},
		{"crimson is valid", CategoryCrimson, true},
		{"void is valid", CategoryVoid, true},
		{"obsidian is valid", CategoryObsidian, true},
		{"omni is valid", CategoryOmni, true},
		{"empty string is invalid", Category(""), false},
		{"uppercase is invalid", Category("SILVER"), false},
		{"unknown is invalid", Category("gold"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.category.Valid(); got != tt.want {
				t.Errorf("Category(%q).Valid() = %v, want %v", tt.category, got, tt.want)
			}
		})
	}
}

// Every declared category must have a profile row, and the table must not
// carry rows for undeclared categories.
func TestProfiles_Exhaustive(t *testing.T) {
	declared := make(map[Category]bool)
	for _, c := range Categories() {
		declared[c] = true
		if _, ok := c.Profile(); !ok {
			t.Errorf("category %s has no profile", c)
		}
	}
	for c := range profiles {
		if !declared[c] {
			t.Errorf("profile table has undeclared category %s", c)
		}
	}
}

func TestProfiles_Bounded(t *testing.T) {
	for _, c := range Categories() {
		p, _ := c.Profile()
		for field, v := range map[string]float64{"ratio": p.Ratio, "precision": p.Precision, "flow": p.Flow} {
			if v < 0 || v > 1 {
				t.Errorf("%s %s = %v, want in [0,1]", c, field, v)
			}
		}
	}
}

func TestCategory_Terminal(t *testing.T) {
	for _, c := range Categories() {
		want := c == CategoryOmni
		if got := c.Terminal(); got != want {
			t.Errorf("%s.Terminal() = %v, want %v", c, got, want)
		}
	}
	if Category("gold").Terminal() {
		t.Error("unknown category should not be terminal")
	}
}

func TestAlignmentRule_Score(t *testing.T) {
	tests := []struct {
		name  string
		rule  AlignmentRule
		ratio float64
		want  float64
	}{
		{"direct passes ratio", AlignDirect, 0.95, 0.95},
		{"inverse flips ratio", AlignInverse, 0.05, 0.95},
		{"balance peaks at half", AlignBalance, 0.5, 1.0},
		{"balance at 0.45", AlignBalance, 0.45, 0.9},
		{"balance at 0", AlignBalance, 0, 0},
		{"balance at 1", AlignBalance, 1, 0},
		{"unity ignores ratio", AlignUnity, 0.1, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.rule.Score(tt.ratio)
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Score(%v) = %v, want %v", tt.ratio, got, tt.want)
			}
		})
	}
}

func TestAlignmentRule_ScoreBounded(t *testing.T) {
	rules := []AlignmentRule{AlignDirect, AlignInverse, AlignBalance, AlignUnity}
	for _, r := range rules {
		for i := 0; i <= 100; i++ {
			ratio := float64(i) / 100
			s := r.Score(ratio)
			if s < 0 || s > 1 {
				t.Errorf("%s.Score(%v) = %v, out of [0,1]", r, ratio, s)
			}
		}
	}
}

func TestClamp01(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{-0.5, 0},
		{0, 0},
		{0.42, 0.42},
		{1, 1},
		{1.02, 1},
		{math.NaN(), 0},
		{math.Inf(1), 1},
		{math.Inf(-1), 0},
	}
	for _, tt := range tests {
		if got := Clamp01(tt.in); got != tt.want {
			t.Errorf("Clamp01(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
