package grading

// Percentage returns score/maxScore*100 clamped to [0,100]; 0 when maxScore is 0.
func Percentage(score, maxScore int) float64 {
	if maxScore <= 0 || score <= 0 {
		return 0
	}
	if score >= maxScore {
		return 100
	}
	return float64(score) / float64(maxScore) * 100
}

// Grade maps a percentage onto the 5-point school scale.
//
//	100%       -> 5
//	[91, 100)  -> 4
//	[80, 91)   -> 3
//	below 80   -> 2
func Grade(percentage float64) int {
	switch {
	case percentage >= 100:
		return 5
	case percentage >= 91:
		return 4
	case percentage >= 80:
		return 3
	default:
		return 2
	}
}
