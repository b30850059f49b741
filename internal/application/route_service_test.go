package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	routeDomain "github.com/movesmart/service-route/internal/domain/route"
	userDomain "github.com/movesmart/service-route/internal/domain/user"
	"github.com/movesmart/service-route/internal/maps"
	"github.com/movesmart/service-route/internal/maps/mocks"
	"github.com/movesmart/service-route/internal/platform/domain"
	"github.com/movesmart/service-route/internal/repository/memory"
)

type routeFixture struct {
	svc       *RouteService
	repo      *memory.RouteRepository
	users     *memory.UserRepository
	maps      *mocks.MockClient
	publisher *recordingPublisher
}

func newRouteFixture(t *testing.T) *routeFixture {
	t.Helper()
	f := &routeFixture{
		repo:      memory.NewRouteRepository(),
		users:     memory.NewUserRepository(),
		maps:      mocks.NewMockClient(t),
		publisher: &recordingPublisher{},
	}
	policy := routeDomain.NewRatioPolicy(routeDomain.DefaultThresholds())
	f.svc = NewRouteService(f.repo, f.users, f.maps, policy, f.publisher, zap.NewNop())
	return f
}

func (f *routeFixture) seedUser(t *testing.T, username string) uint {
	t.Helper()
	u, err := userDomain.NewUser(username, "hash")
	require.NoError(t, err)
	require.NoError(t, f.users.Save(context.Background(), u))
	return u.ID()
}

func TestAddRoute_StoresClassifiedRoute(t *testing.T) {
	f := newRouteFixture(t)
	// 10 km in 31 minutes: ratio 3.1.
	f.maps.On("Distance", mock.Anything, "Downtown", "Airport").
		Return(&routeDomain.Metrics{DistanceMeters: 10000, DurationSeconds: 1860}, nil)
	userID := f.seedUser(t, "grace")

	got, err := f.svc.AddRoute(context.Background(), userID, AddRouteRequest{StartLocation: " Downtown ", EndLocation: "Airport"})
	require.NoError(t, err)

	assert.Equal(t, uint(1), got.ID)
	assert.Equal(t, userID, got.UserID)
	assert.Equal(t, "Downtown", got.StartLocation)
	assert.Equal(t, 10.0, got.DistanceKm)
	assert.Equal(t, 31.0, got.DurationMin)
	assert.Equal(t, "High", got.CongestionLevel)
	assert.Equal(t, 1, f.repo.Len())
	assert.Equal(t, []string{EventRouteCreated}, f.publisher.types())
	assert.Equal(t, TopicRouteEvents, f.publisher.events[0].topic)
	assert.Equal(t, "route/1", f.publisher.events[0].event.Subject)
}

func TestAddRoute_LookupFailureStoresNothing(t *testing.T) {
	f := newRouteFixture(t)
	f.maps.On("Distance", mock.Anything, "A", "B").Return(nil, errors.New("connection refused"))

	_, err := f.svc.AddRoute(context.Background(), 1, AddRouteRequest{StartLocation: "A", EndLocation: "B"})
	require.Error(t, err)
	assert.Equal(t, domain.KindUpstream, domain.KindOf(err))
	assert.Zero(t, f.repo.Len())
	assert.Empty(t, f.publisher.types())
}

func TestAddRoute_NoRouteIsValidationError(t *testing.T) {
	f := newRouteFixture(t)
	f.maps.On("Distance", mock.Anything, "A", "Atlantis").Return(nil, maps.ErrNoRoute)

	_, err := f.svc.AddRoute(context.Background(), 1, AddRouteRequest{StartLocation: "A", EndLocation: "Atlantis"})
	require.Error(t, err)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
	assert.Zero(t, f.repo.Len())
}

func TestAddRoute_BlankLocation(t *testing.T) {
	f := newRouteFixture(t)

	_, err := f.svc.AddRoute(context.Background(), 1, AddRouteRequest{StartLocation: "  ", EndLocation: "B"})
	require.Error(t, err)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
	f.maps.AssertNotCalled(t, "Distance", mock.Anything, mock.Anything, mock.Anything)
}

func TestAddRoute_PublishFailureDoesNotFail(t *testing.T) {
	f := newRouteFixture(t)
	f.publisher.err = errors.New("broker down")
	f.maps.On("Distance", mock.Anything, "A", "B").
		Return(&routeDomain.Metrics{DistanceMeters: 1000, DurationSeconds: 60}, nil)
	userID := f.seedUser(t, "heidi")

	got, err := f.svc.AddRoute(context.Background(), userID, AddRouteRequest{StartLocation: "A", EndLocation: "B"})
	require.NoError(t, err)
	assert.Equal(t, "Low", got.CongestionLevel)
	assert.Equal(t, 1, f.repo.Len())
}

func TestAddRoute_UnknownUserStoresNothing(t *testing.T) {
	f := newRouteFixture(t)
	f.maps.On("Distance", mock.Anything, "A", "B").
		Return(&routeDomain.Metrics{DistanceMeters: 1000, DurationSeconds: 60}, nil)
	userID := f.seedUser(t, "ivan")
	require.NoError(t, f.users.Delete(context.Background(), userID))

	_, err := f.svc.AddRoute(context.Background(), userID, AddRouteRequest{StartLocation: "A", EndLocation: "B"})
	require.Error(t, err)
	assert.Equal(t, domain.KindUnauthorized, domain.KindOf(err))
	assert.Zero(t, f.repo.Len())
	assert.Empty(t, f.publisher.types())
}

func TestPredictTraffic(t *testing.T) {
	f := newRouteFixture(t)
	f.maps.On("Distance", mock.Anything, "A", "B").
		Return(&routeDomain.Metrics{DistanceMeters: 10000, DurationSeconds: 960}, nil)

	got, err := f.svc.PredictTraffic(context.Background(), "A", "B")
	require.NoError(t, err)

	require.NotNil(t, got.DistanceMeters)
	require.NotNil(t, got.DurationSeconds)
	assert.Equal(t, 10000, *got.DistanceMeters)
	assert.Equal(t, 960, *got.DurationSeconds)
	assert.Equal(t, "Moderate", got.PredictedCongestion)
	assert.Zero(t, f.repo.Len())
}

func TestPredictTraffic_LookupFailureDegradesToUnknown(t *testing.T) {
	f := newRouteFixture(t)
	f.maps.On("Distance", mock.Anything, "A", "B").Return(nil, maps.ErrNoRoute)

	got, err := f.svc.PredictTraffic(context.Background(), "A", "B")
	require.NoError(t, err)

	assert.Nil(t, got.DistanceMeters)
	assert.Nil(t, got.DurationSeconds)
	assert.Equal(t, "Unknown", got.PredictedCongestion)
	assert.Equal(t, "A", got.Start)
	assert.Equal(t, "B", got.End)
}

func TestPredictTraffic_MissingLocation(t *testing.T) {
	f := newRouteFixture(t)

	_, err := f.svc.PredictTraffic(context.Background(), "A", "")
	require.Error(t, err)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}

func seedRoute(t *testing.T, repo *memory.RouteRepository, userID uint, level routeDomain.CongestionLevel) *routeDomain.Route {
	t.Helper()
	rt, err := routeDomain.NewRoute(userID, "A", "B", 1, 1, level)
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), rt))
	return rt
}

func TestGetRoute_Ownership(t *testing.T) {
	f := newRouteFixture(t)
	rt := seedRoute(t, f.repo, 1, routeDomain.CongestionLow)

	got, err := f.svc.GetRoute(context.Background(), 1, rt.ID())
	require.NoError(t, err)
	assert.Equal(t, rt.ID(), got.ID)

	_, err = f.svc.GetRoute(context.Background(), 2, rt.ID())
	assert.Equal(t, domain.KindForbidden, domain.KindOf(err))

	_, err = f.svc.GetRoute(context.Background(), 1, 999)
	assert.True(t, domain.IsNotFound(err))
}

func TestDeleteRoute(t *testing.T) {
	f := newRouteFixture(t)
	rt := seedRoute(t, f.repo, 1, routeDomain.CongestionLow)

	err := f.svc.DeleteRoute(context.Background(), 2, rt.ID())
	assert.Equal(t, domain.KindForbidden, domain.KindOf(err))
	assert.Equal(t, 1, f.repo.Len())

	require.NoError(t, f.svc.DeleteRoute(context.Background(), 1, rt.ID()))
	assert.Zero(t, f.repo.Len())
	assert.Equal(t, []string{EventRouteDeleted}, f.publisher.types())
}

func TestListUserRoutes_Paginates(t *testing.T) {
	f := newRouteFixture(t)
	for i := 0; i < 5; i++ {
		seedRoute(t, f.repo, 1, routeDomain.CongestionLow)
	}
	seedRoute(t, f.repo, 2, routeDomain.CongestionHigh)

	got, err := f.svc.ListUserRoutes(context.Background(), 1, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(5), got.Total)
	assert.Equal(t, 3, got.TotalPages)
	require.Len(t, got.Items, 2)
	assert.Equal(t, uint(5), got.Items[0].ID)

	all, err := f.svc.ListAllRoutes(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(6), all.Total)
}

func TestPurgeUserRoutes_Idempotent(t *testing.T) {
	f := newRouteFixture(t)
	seedRoute(t, f.repo, 1, routeDomain.CongestionLow)
	seedRoute(t, f.repo, 1, routeDomain.CongestionHigh)
	seedRoute(t, f.repo, 2, routeDomain.CongestionHigh)

	n, err := f.svc.PurgeUserRoutes(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = f.svc.PurgeUserRoutes(context.Background(), 1)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 1, f.repo.Len())
}

func TestGetCongestionStats_IncludesEveryLevel(t *testing.T) {
	f := newRouteFixture(t)
	seedRoute(t, f.repo, 1, routeDomain.CongestionHigh)
	seedRoute(t, f.repo, 1, routeDomain.CongestionHigh)
	seedRoute(t, f.repo, 2, routeDomain.CongestionLow)

	stats, err := f.svc.GetCongestionStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Total)
	assert.Equal(t, map[string]int64{"Low": 1, "Moderate": 0, "High": 2, "Unknown": 0}, stats.ByLevel)
}
