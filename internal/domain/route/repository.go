package route

import "context"

// RouteRepository defines the persistence contract for routes.
type RouteRepository interface {
	// FindByID retrieves a route by its identifier.
	FindByID(ctx context.Context, id uint) (*Route, error)

	// FindByUserID retrieves a user's routes, newest first, with pagination.
	FindByUserID(ctx context.Context, userID uint, page, limit int) ([]*Route, int64, error)

	// ListAll retrieves all routes with pagination (admin).
	ListAll(ctx context.Context, page, limit int) ([]*Route, int64, error)

	// CountByCongestion returns route counts grouped by congestion level (admin).
	CountByCongestion(ctx context.Context) (map[CongestionLevel]int64, error)

	// Save persists a new route and assigns its ID.
	Save(ctx context.Context, route *Route) error

	// Delete removes a route.
	Delete(ctx context.Context, id uint) error

	// DeleteByUserID removes every route owned by the user and returns the count.
	DeleteByUserID(ctx context.Context, userID uint) (int64, error)
}
