package application

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	routeDomain "github.com/movesmart/service-route/internal/domain/route"
	userDomain "github.com/movesmart/service-route/internal/domain/user"
	"github.com/movesmart/service-route/internal/maps"
	"github.com/movesmart/service-route/internal/platform/domain"
)

// AddRouteRequest holds the locations of a route to record.
type AddRouteRequest struct {
	StartLocation string `json:"start_location" form:"start_location" binding:"required"`
	EndLocation   string `json:"end_location" form:"end_location" binding:"required"`
}

// RouteDTO is the response representation of a stored route.
type RouteDTO struct {
	ID              uint      `json:"id"`
	UserID          uint      `json:"user_id"`
	StartLocation   string    `json:"start_location"`
	EndLocation     string    `json:"end_location"`
	DistanceKm      float64   `json:"distance"`
	DurationMin     float64   `json:"duration"`
	CongestionLevel string    `json:"congestion_level"`
	CreatedAt       time.Time `json:"created_at"`
}

// PredictionDTO is the /predict_traffic response. Metrics are null when the
// lookup failed.
type PredictionDTO struct {
	Start               string `json:"start"`
	End                 string `json:"end"`
	DistanceMeters      *int   `json:"distance_meters"`
	DurationSeconds     *int   `json:"duration_seconds"`
	PredictedCongestion string `json:"predicted_congestion"`
}

// CongestionStatsDTO summarizes stored routes per congestion level.
type CongestionStatsDTO struct {
	Total   int64            `json:"total"`
	ByLevel map[string]int64 `json:"by_level"`
}

// RouteService orchestrates route use cases.
type RouteService struct {
	repo      routeDomain.RouteRepository
	users     userDomain.UserRepository
	maps      maps.Client
	policy    routeDomain.CongestionPolicy
	publisher EventPublisher
	logger    *zap.Logger
}

// NewRouteService creates a new RouteService.
func NewRouteService(
	repo routeDomain.RouteRepository,
	users userDomain.UserRepository,
	mapsClient maps.Client,
	policy routeDomain.CongestionPolicy,
	publisher EventPublisher,
	logger *zap.Logger,
) *RouteService {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	return &RouteService{
		repo:      repo,
		users:     users,
		maps:      mapsClient,
		policy:    policy,
		publisher: publisher,
		logger:    logger,
	}
}

// errAccountGone is returned when a still-valid token belongs to a deleted user.
var errAccountGone = domain.NewUnauthorizedError("account no longer exists")

// AddRoute looks up the route, labels it and stores it. Nothing is stored when
// the lookup fails or the user no longer exists.
func (s *RouteService) AddRoute(ctx context.Context, userID uint, req AddRouteRequest) (*RouteDTO, error) {
	start := strings.TrimSpace(req.StartLocation)
	end := strings.TrimSpace(req.EndLocation)
	if start == "" || end == "" {
		return nil, domain.NewValidationError("start and end location are required")
	}

	metrics, err := s.maps.Distance(ctx, start, end)
	if err != nil {
		s.logger.Warn("route lookup failed",
			zap.String("start", start),
			zap.String("end", end),
			zap.Error(err),
		)
		if errors.Is(err, maps.ErrNoRoute) {
			return nil, domain.NewValidationError("no route found between the given locations")
		}
		return nil, domain.NewUpstreamError("route lookup failed", err)
	}

	level := routeDomain.ClassifyMetrics(s.policy, metrics)
	rt, err := routeDomain.NewRoute(userID, start, end, metrics.DistanceKm(), metrics.DurationMin(), level)
	if err != nil {
		return nil, err
	}

	if err := s.ensureUser(ctx, userID); err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, rt); err != nil {
		return nil, err
	}

	s.logger.Info("route recorded",
		zap.Uint("route_id", rt.ID()),
		zap.Uint("user_id", userID),
		zap.String("congestion", string(level)),
	)

	publish(ctx, s.publisher, s.logger, TopicRouteEvents, EventRouteCreated, routeSubject(rt.ID()), RouteCreatedEvent{
		RouteID:         rt.ID(),
		UserID:          rt.UserID(),
		StartLocation:   rt.StartLocation(),
		EndLocation:     rt.EndLocation(),
		DistanceKm:      rt.DistanceKm(),
		DurationMin:     rt.DurationMin(),
		CongestionLevel: string(rt.CongestionLevel()),
		CreatedAt:       rt.CreatedAt(),
	})

	result := toRouteDTO(rt)
	return &result, nil
}

// PredictTraffic labels a route without storing it. A failed lookup yields
// null metrics and Unknown.
func (s *RouteService) PredictTraffic(ctx context.Context, start, end string) (*PredictionDTO, error) {
	start = strings.TrimSpace(start)
	end = strings.TrimSpace(end)
	if start == "" || end == "" {
		return nil, domain.NewValidationError("Missing start or end location")
	}

	result := &PredictionDTO{Start: start, End: end}

	metrics, err := s.maps.Distance(ctx, start, end)
	if err != nil {
		s.logger.Warn("route lookup failed for prediction",
			zap.String("start", start),
			zap.String("end", end),
			zap.Error(err),
		)
		metrics = nil
	}

	if metrics != nil {
		distance, duration := metrics.DistanceMeters, metrics.DurationSeconds
		result.DistanceMeters = &distance
		result.DurationSeconds = &duration
	}
	result.PredictedCongestion = string(routeDomain.ClassifyMetrics(s.policy, metrics))
	return result, nil
}

// ListUserRoutes returns the user's routes, newest first.
func (s *RouteService) ListUserRoutes(ctx context.Context, userID uint, page, limit int) (*domain.PaginatedResult[RouteDTO], error) {
	routes, total, err := s.repo.FindByUserID(ctx, userID, page, limit)
	if err != nil {
		return nil, err
	}
	result := domain.NewPaginatedResult(toRouteDTOs(routes), total, page, limit)
	return &result, nil
}

// GetRoute returns one of the user's routes.
func (s *RouteService) GetRoute(ctx context.Context, userID, routeID uint) (*RouteDTO, error) {
	rt, err := s.ownedRoute(ctx, userID, routeID)
	if err != nil {
		return nil, err
	}
	result := toRouteDTO(rt)
	return &result, nil
}

// DeleteRoute removes one of the user's routes.
func (s *RouteService) DeleteRoute(ctx context.Context, userID, routeID uint) error {
	rt, err := s.ownedRoute(ctx, userID, routeID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, rt.ID()); err != nil {
		return err
	}

	s.logger.Info("route deleted", zap.Uint("route_id", routeID), zap.Uint("user_id", userID))
	publish(ctx, s.publisher, s.logger, TopicRouteEvents, EventRouteDeleted, routeSubject(routeID), RouteDeletedEvent{
		RouteID:   routeID,
		UserID:    userID,
		DeletedAt: time.Now().UTC(),
	})
	return nil
}

// PurgeUserRoutes removes every route owned by the user. It is idempotent.
func (s *RouteService) PurgeUserRoutes(ctx context.Context, userID uint) (int64, error) {
	n, err := s.repo.DeleteByUserID(ctx, userID)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("purged user routes", zap.Uint("user_id", userID), zap.Int64("count", n))
	}
	return n, nil
}

// ListAllRoutes returns every stored route (admin).
func (s *RouteService) ListAllRoutes(ctx context.Context, page, limit int) (*domain.PaginatedResult[RouteDTO], error) {
	routes, total, err := s.repo.ListAll(ctx, page, limit)
	if err != nil {
		return nil, err
	}
	result := domain.NewPaginatedResult(toRouteDTOs(routes), total, page, limit)
	return &result, nil
}

// GetCongestionStats counts stored routes per level. Every level is present.
func (s *RouteService) GetCongestionStats(ctx context.Context) (*CongestionStatsDTO, error) {
	counts, err := s.repo.CountByCongestion(ctx)
	if err != nil {
		return nil, err
	}

	stats := &CongestionStatsDTO{ByLevel: make(map[string]int64)}
	for _, level := range routeDomain.AllCongestionLevels() {
		stats.ByLevel[string(level)] = counts[level]
		stats.Total += counts[level]
	}
	return stats, nil
}

func (s *RouteService) ownedRoute(ctx context.Context, userID, routeID uint) (*routeDomain.Route, error) {
	rt, err := s.repo.FindByID(ctx, routeID)
	if err != nil {
		return nil, err
	}
	if !rt.IsOwnedBy(userID) {
		return nil, domain.NewForbiddenError("route belongs to another user")
	}
	return rt, nil
}

func routeSubject(id uint) string {
	return "route/" + strconv.FormatUint(uint64(id), 10)
}

func toRouteDTO(rt *routeDomain.Route) RouteDTO {
	return RouteDTO{
		ID:              rt.ID(),
		UserID:          rt.UserID(),
		StartLocation:   rt.StartLocation(),
		EndLocation:     rt.EndLocation(),
		DistanceKm:      rt.DistanceKm(),
		DurationMin:     rt.DurationMin(),
		CongestionLevel: string(rt.CongestionLevel()),
		CreatedAt:       rt.CreatedAt(),
	}
}

func toRouteDTOs(routes []*routeDomain.Route) []RouteDTO {
	dtos := make([]RouteDTO, len(routes))
	for i, rt := range routes {
		dtos[i] = toRouteDTO(rt)
	}
	return dtos
}

// ensureUser fails with an unauthorized error when userID has no account.
func (s *RouteService) ensureUser(ctx context.Context, userID uint) error {
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		if domain.IsNotFound(err) {
			return errAccountGone
		}
		return err
	}
	return nil
}
