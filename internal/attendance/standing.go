package attendance

// Standing is the colour band shown next to a percentage.
type Standing string

const (
	StandingGood     Standing = "good"
	StandingWarning  Standing = "warning"
	StandingCritical Standing = "critical"
)

// DefaultMinimumPercent is the minimum attendance before a student is flagged.
const DefaultMinimumPercent = 75

// StandingOf bands pct: 80 and above is good, 70 and above a warning.
func StandingOf(pct int) Standing {
	switch {
	case pct >= 80:
		return StandingGood
	case pct >= 70:
		return StandingWarning
	default:
		return StandingCritical
	}
}

// BelowMinimum reports whether pct is under the configured minimum.
func BelowMinimum(pct, minimum int) bool {
	return pct < minimum
}
