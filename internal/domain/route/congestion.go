package route

import (
	"fmt"
	"math"
)

// CongestionPolicy labels a route from its distance and duration.
type CongestionPolicy interface {
	// Classify returns the label for the given metrics. A nil input means
	// the metric is unavailable.
	Classify(distanceKm, durationMin *float64) CongestionLevel
}

// Thresholds parameterizes RatioPolicy.
type Thresholds struct {
	// High is the minutes-per-km ratio above which traffic is High.
	High float64
	// Moderate is the ratio above which traffic is Moderate.
	Moderate float64
	// Epsilon floors the distance so zero-length routes do not divide by zero.
	Epsilon float64
}

// DefaultThresholds returns (3, 1.5) with a 0.1 km floor.
func DefaultThresholds() Thresholds {
	return Thresholds{High: 3, Moderate: 1.5, Epsilon: 0.1}
}

// Validate checks that the thresholds are positive and ordered.
func (t Thresholds) Validate() error {
	if !(t.Epsilon > 0) {
		return fmt.Errorf("congestion epsilon must be positive, got %v", t.Epsilon)
	}
	if !(t.Moderate > 0) {
		return fmt.Errorf("moderate threshold must be positive, got %v", t.Moderate)
	}
	if !(t.High > t.Moderate) {
		return fmt.Errorf("high threshold (%v) must exceed moderate threshold (%v)", t.High, t.Moderate)
	}
	return nil
}

// RatioPolicy labels routes by comparing minutes per kilometre against two
// thresholds. Both boundaries are exclusive.
type RatioPolicy struct {
	thresholds Thresholds
}

// NewRatioPolicy creates a RatioPolicy.
func NewRatioPolicy(t Thresholds) *RatioPolicy {
	return &RatioPolicy{thresholds: t}
}

// Thresholds returns the policy parameters.
func (p *RatioPolicy) Thresholds() Thresholds { return p.thresholds }

// Ratio returns duration / max(distance, epsilon).
func (p *RatioPolicy) Ratio(distanceKm, durationMin float64) float64 {
	return durationMin / math.Max(distanceKm, p.thresholds.Epsilon)
}

// Classify implements CongestionPolicy.
func (p *RatioPolicy) Classify(distanceKm, durationMin *float64) CongestionLevel {
	if distanceKm == nil || durationMin == nil {
		return CongestionUnknown
	}
	if math.IsNaN(*distanceKm) || math.IsNaN(*durationMin) {
		return CongestionUnknown
	}

	ratio := p.Ratio(*distanceKm, *durationMin)
	switch {
	case ratio > p.thresholds.High:
		return CongestionHigh
	case ratio > p.thresholds.Moderate:
		return CongestionModerate
	default:
		return CongestionLow
	}
}
