package grading

import "testing"

func TestGrade(t *testing.T) {
	tests := []struct {
		pct  float64
		want int
	}{
		{100, 5},
		{99.99, 4},
		{91, 4},
		{90.999, 3},
		{80, 3},
		{79.999, 2},
		{0, 2},
	}
	for _, tc := range tests {
		if got := Grade(tc.pct); got != tc.want {
			t.Errorf("Grade(%v) = %d, want %d", tc.pct, got, tc.want)
		}
	}
}

func TestPercentage(t *testing.T) {
	tests := []struct {
		score, max int
		want       float64
	}{
		{0, 0, 0},
		{5, 0, 0},
		{0, 10, 0},
		{5, 10, 50},
		{10, 10, 100},
		{12, 10, 100},
		{-1, 10, 0},
	}
	for _, tc := range tests {
		got := Percentage(tc.score, tc.max)
		if got != tc.want {
			t.Errorf("Percentage(%d, %d) = %v, want %v", tc.score, tc.max, got, tc.want)
		}
		if got < 0 || got > 100 {
			t.Errorf("Percentage(%d, %d) = %v out of range", tc.score, tc.max, got)
		}
	}
}
