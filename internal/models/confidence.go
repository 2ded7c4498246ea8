package models

// ConfidenceLevel is the fixed four-value scale attached to every
// forensic finding. Findings without a level fail validation.
type ConfidenceLevel string

const (
	ConfidenceHigh      ConfidenceLevel = "High"
	ConfidenceMedium    ConfidenceLevel = "Medium"
	ConfidenceLow       ConfidenceLevel = "Low"
	ConfidenceUncertain ConfidenceLevel = "Uncertain"
)

// ConfidenceNotApplicable is the sentinel used in failure notifications
// where no analysis output exists.
const ConfidenceNotApplicable = "N/A"

// rank orders levels strongest first.
func (c ConfidenceLevel) rank() int {
	switch c {
	case ConfidenceHigh:
		return 0
	case ConfidenceMedium:
		return 1
	case ConfidenceLow:
		return 2
	default:
		return 3
	}
}

// Valid reports whether c is one of the four allowed levels.
func (c ConfidenceLevel) Valid() bool {
	switch c {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow, ConfidenceUncertain:
		return true
	}
	return false
}

// WeakestConfidence returns the weakest level among levels.
// An empty input yields Uncertain.
func WeakestConfidence(levels ...ConfidenceLevel) ConfidenceLevel {
	weakest := ConfidenceHigh
	if len(levels) == 0 {
		return ConfidenceUncertain
	}
	for _, l := range levels {
		if l.rank() > weakest.rank() {
			weakest = l
		}
	}
	return weakest
}
