package route

import "fmt"

// CongestionLevel is the coarse congestion label attached to a route.
type CongestionLevel string

const (
	CongestionLow      CongestionLevel = "Low"
	CongestionModerate CongestionLevel = "Moderate"
	CongestionHigh     CongestionLevel = "High"
	CongestionUnknown  CongestionLevel = "Unknown"
)

// severities orders the known labels. Unknown is deliberately absent.
var severities = map[CongestionLevel]int{
	CongestionLow:      1,
	CongestionModerate: 2,
	CongestionHigh:     3,
}

// AllCongestionLevels lists every label in display order.
func AllCongestionLevels() []CongestionLevel {
	return []CongestionLevel{CongestionLow, CongestionModerate, CongestionHigh, CongestionUnknown}
}

// IsValid returns true if the level is one of the four labels.
func (l CongestionLevel) IsValid() bool {
	_, known := severities[l]
	return known || l == CongestionUnknown
}

// Severity returns 1..3 for Low..High and 0 for Unknown, which is not
// comparable with the others.
func (l CongestionLevel) Severity() int {
	return severities[l]
}

// IsKnown reports whether the level carries a severity.
func (l CongestionLevel) IsKnown() bool {
	return l.Severity() > 0
}

// String returns the label.
func (l CongestionLevel) String() string {
	return string(l)
}

// ParseCongestionLevel converts a string to a CongestionLevel, returning an error if invalid.
func ParseCongestionLevel(s string) (CongestionLevel, error) {
	level := CongestionLevel(s)
	if !level.IsValid() {
		return "", fmt.Errorf("invalid congestion level: %s", s)
	}
	return level, nil
}
