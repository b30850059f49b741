package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"gorm.io/gorm"

	routeDomain "github.com/movesmart/service-route/internal/domain/route"
	"github.com/movesmart/service-route/internal/platform/domain"
)

// RouteModel is the GORM model for the routes table.
type RouteModel struct {
	ID              uint      `gorm:"primaryKey;autoIncrement"`
	UserID          uint      `gorm:"not null;index"`
	StartLocation   string    `gorm:"type:varchar(200);not null"`
	EndLocation     string    `gorm:"type:varchar(200);not null"`
	DistanceKm      float64   `gorm:"not null"`
	DurationMin     float64   `gorm:"not null"`
	CongestionLevel string    `gorm:"type:varchar(20);not null;index"`
	CreatedAt       time.Time `gorm:"type:timestamptz;not null;default:now()"`
}

func (RouteModel) TableName() string { return "routes" }

// GormRouteRepository implements RouteRepository using GORM.
type GormRouteRepository struct {
	db *gorm.DB
}

func NewGormRouteRepository(db *gorm.DB) *GormRouteRepository {
	return &GormRouteRepository{db: db}
}

func (r *GormRouteRepository) FindByID(ctx context.Context, id uint) (*routeDomain.Route, error) {
	var model RouteModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Route", strconv.FormatUint(uint64(id), 10))
		}
		return nil, err
	}
	return toRouteDomain(&model), nil
}

func (r *GormRouteRepository) FindByUserID(ctx context.Context, userID uint, page, limit int) ([]*routeDomain.Route, int64, error) {
	return r.paginate(ctx, func(db *gorm.DB) *gorm.DB { return db.Where("user_id = ?", userID) }, page, limit)
}

func (r *GormRouteRepository) ListAll(ctx context.Context, page, limit int) ([]*routeDomain.Route, int64, error) {
	return r.paginate(ctx, func(db *gorm.DB) *gorm.DB { return db }, page, limit)
}

func (r *GormRouteRepository) paginate(ctx context.Context, scope func(*gorm.DB) *gorm.DB, page, limit int) ([]*routeDomain.Route, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&RouteModel{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var models []RouteModel
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).
		Scopes(scope).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, err
	}

	routes := make([]*routeDomain.Route, len(models))
	for i := range models {
		routes[i] = toRouteDomain(&models[i])
	}
	return routes, total, nil
}

type congestionCount struct {
	CongestionLevel string
	Count           int64
}

func (r *GormRouteRepository) CountByCongestion(ctx context.Context) (map[routeDomain.CongestionLevel]int64, error) {
	var rows []congestionCount
	if err := r.db.WithContext(ctx).
		Model(&RouteModel{}).
		Select("congestion_level, COUNT(*) AS count").
		Group("congestion_level").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[routeDomain.CongestionLevel]int64, len(rows))
	for _, row := range rows {
		counts[routeDomain.CongestionLevel(row.CongestionLevel)] = row.Count
	}
	return counts, nil
}

func (r *GormRouteRepository) Save(ctx context.Context, route *routeDomain.Route) error {
	model := toRouteModel(route)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to insert route: %w", err)
	}
	route.AssignID(model.ID)
	return nil
}

func (r *GormRouteRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&RouteModel{}).Error
}

func (r *GormRouteRepository) DeleteByUserID(ctx context.Context, userID uint) (int64, error) {
	result := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&RouteModel{})
	return result.RowsAffected, result.Error
}

// --- Conversions ---

func toRouteModel(rt *routeDomain.Route) *RouteModel {
	return &RouteModel{
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

func toRouteDomain(m *RouteModel) *routeDomain.Route {
	return routeDomain.ReconstructRoute(
		m.ID, m.UserID,
		m.StartLocation, m.EndLocation,
		m.DistanceKm, m.DurationMin,
		routeDomain.CongestionLevel(m.CongestionLevel),
		m.CreatedAt,
	)
}
