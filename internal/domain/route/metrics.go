package route

import "math"

// Metrics is the distance and travel time returned by the mapping service.
type Metrics struct {
	DistanceMeters  int `json:"distance_meters"`
	DurationSeconds int `json:"duration_seconds"`
}

// DistanceKm returns the distance in kilometres rounded to two decimals.
func (m Metrics) DistanceKm() float64 {
	return round2(float64(m.DistanceMeters) / 1000)
}

// DurationMin returns the duration in minutes rounded to two decimals.
func (m Metrics) DurationMin() float64 {
	return round2(float64(m.DurationSeconds) / 60)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ClassifyMetrics labels m with policy using the unrounded kilometre and
// minute values. A nil m yields Unknown.
func ClassifyMetrics(policy CongestionPolicy, m *Metrics) CongestionLevel {
	if m == nil {
		return policy.Classify(nil, nil)
	}
	km := float64(m.DistanceMeters) / 1000
	minutes := float64(m.DurationSeconds) / 60
	return policy.Classify(&km, &minutes)
}
