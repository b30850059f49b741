// Package route holds the route aggregate and the congestion policy that labels it.
package route

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/movesmart/service-route/internal/platform/domain"
)

// MaxLocationLength bounds start and end location text.
const MaxLocationLength = 200

// Route is a recorded origin/destination pair with its travel metrics and the
// congestion label computed when it was recorded. Routes are never updated.
type Route struct {
	id              uint
	userID          uint
	startLocation   string
	endLocation     string
	distanceKm      float64
	durationMin     float64
	congestionLevel CongestionLevel
	createdAt       time.Time
}

// NewRoute creates a Route ready to be saved. The id is assigned by the store.
func NewRoute(
	userID uint,
	startLocation string,
	endLocation string,
	distanceKm float64,
	durationMin float64,
	level CongestionLevel,
) (*Route, error) {
	startLocation = strings.TrimSpace(startLocation)
	endLocation = strings.TrimSpace(endLocation)

	if userID == 0 {
		return nil, domain.NewValidationError("user ID is required")
	}
	if startLocation == "" {
		return nil, domain.NewValidationError("start location is required")
	}
	if endLocation == "" {
		return nil, domain.NewValidationError("end location is required")
	}
	if len(startLocation) > MaxLocationLength || len(endLocation) > MaxLocationLength {
		return nil, domain.NewValidationError(fmt.Sprintf("locations must be at most %d characters", MaxLocationLength))
	}
	if distanceKm < 0 || math.IsNaN(distanceKm) {
		return nil, domain.NewValidationError("distance must be non-negative")
	}
	if durationMin < 0 || math.IsNaN(durationMin) {
		return nil, domain.NewValidationError("duration must be non-negative")
	}
	if !level.IsValid() {
		return nil, domain.NewValidationError(fmt.Sprintf("invalid congestion level: %s", level))
	}

	return &Route{
		userID:          userID,
		startLocation:   startLocation,
		endLocation:     endLocation,
		distanceKm:      distanceKm,
		durationMin:     durationMin,
		congestionLevel: level,
		createdAt:       time.Now().UTC(),
	}, nil
}

// ReconstructRoute rebuilds a Route from persistence data (no validation).
func ReconstructRoute(
	id uint,
	userID uint,
	startLocation string,
	endLocation string,
	distanceKm float64,
	durationMin float64,
	level CongestionLevel,
	createdAt time.Time,
) *Route {
	return &Route{
		id:              id,
		userID:          userID,
		startLocation:   startLocation,
		endLocation:     endLocation,
		distanceKm:      distanceKm,
		durationMin:     durationMin,
		congestionLevel: level,
		createdAt:       createdAt,
	}
}

// --- Getters ---

// ID returns the store-assigned identifier, or 0 before the route is saved.
func (r *Route) ID() uint { return r.id }

// UserID returns the owning user's ID.
func (r *Route) UserID() uint { return r.userID }

// StartLocation returns the origin text as entered.
func (r *Route) StartLocation() string { return r.startLocation }

// EndLocation returns the destination text as entered.
func (r *Route) EndLocation() string { return r.endLocation }

// DistanceKm returns the route distance in kilometres.
func (r *Route) DistanceKm() float64 { return r.distanceKm }

// DurationMin returns the travel time in minutes.
func (r *Route) DurationMin() float64 { return r.durationMin }

// CongestionLevel returns the label computed at creation.
func (r *Route) CongestionLevel() CongestionLevel { return r.congestionLevel }

// CreatedAt returns the creation timestamp.
func (r *Route) CreatedAt() time.Time { return r.createdAt }

// IsOwnedBy reports whether userID owns the route.
func (r *Route) IsOwnedBy(userID uint) bool { return r.userID == userID }

// AssignID records the identifier chosen by the store.
func (r *Route) AssignID(id uint) { r.id = id }
