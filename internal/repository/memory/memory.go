// Package memory provides process-local repositories for development and
// tests. Data is lost on restart.
package memory

import (
	"context"
	"sort"
	"strconv"
	"sync"

	routeDomain "github.com/movesmart/service-route/internal/domain/route"
	userDomain "github.com/movesmart/service-route/internal/domain/user"
	"github.com/movesmart/service-route/internal/platform/domain"
)

// RouteRepository is an in-memory route store.
type RouteRepository struct {
	mu     sync.RWMutex
	nextID uint
	routes map[uint]*routeDomain.Route
}

// NewRouteRepository creates an empty RouteRepository.
func NewRouteRepository() *RouteRepository {
	return &RouteRepository{routes: make(map[uint]*routeDomain.Route)}
}

func (r *RouteRepository) FindByID(_ context.Context, id uint) (*routeDomain.Route, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rt, ok := r.routes[id]
	if !ok {
		return nil, domain.NewNotFoundError("Route", strconv.FormatUint(uint64(id), 10))
	}
	return rt, nil
}

func (r *RouteRepository) FindByUserID(_ context.Context, userID uint, page, limit int) ([]*routeDomain.Route, int64, error) {
	routes, total := r.page(func(rt *routeDomain.Route) bool { return rt.IsOwnedBy(userID) }, page, limit)
	return routes, total, nil
}

func (r *RouteRepository) ListAll(_ context.Context, page, limit int) ([]*routeDomain.Route, int64, error) {
	routes, total := r.page(func(*routeDomain.Route) bool { return true }, page, limit)
	return routes, total, nil
}

// page returns matching routes newest first. IDs grow monotonically so they
// order like creation time.
func (r *RouteRepository) page(keep func(*routeDomain.Route) bool, page, limit int) ([]*routeDomain.Route, int64) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var all []*routeDomain.Route
	for _, rt := range r.routes {
		if keep(rt) {
			all = append(all, rt)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID() > all[j].ID() })

	total := int64(len(all))
	start := (page - 1) * limit
	if start < 0 || start >= len(all) {
		return []*routeDomain.Route{}, total
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total
}

func (r *RouteRepository) CountByCongestion(context.Context) (map[routeDomain.CongestionLevel]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	counts := make(map[routeDomain.CongestionLevel]int64)
	for _, rt := range r.routes {
		counts[rt.CongestionLevel()]++
	}
	return counts, nil
}

func (r *RouteRepository) Save(_ context.Context, rt *routeDomain.Route) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	rt.AssignID(r.nextID)
	r.routes[rt.ID()] = rt
	return nil
}

func (r *RouteRepository) Delete(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.routes, id)
	return nil
}

func (r *RouteRepository) DeleteByUserID(_ context.Context, userID uint) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, rt := range r.routes {
		if rt.IsOwnedBy(userID) {
			delete(r.routes, id)
			n++
		}
	}
	return n, nil
}

// Len returns the number of stored routes.
func (r *RouteRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.routes)
}

// UserRepository is an in-memory user store. Usernames are unique.
type UserRepository struct {
	mu     sync.RWMutex
	nextID uint
	users  map[uint]*userDomain.User
}

// NewUserRepository creates an empty UserRepository.
func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[uint]*userDomain.User)}
}

func (r *UserRepository) FindByID(_ context.Context, id uint) (*userDomain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.NewNotFoundError("User", strconv.FormatUint(uint64(id), 10))
	}
	return u, nil
}

func (r *UserRepository) FindByUsername(_ context.Context, username string) (*userDomain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Username() == username {
			return u, nil
		}
	}
	return nil, domain.NewNotFoundError("User", username)
}

func (r *UserRepository) Save(_ context.Context, u *userDomain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Username() == u.Username() {
			return domain.NewConflictError("username " + strconv.Quote(u.Username()) + " is already taken")
		}
	}
	r.nextID++
	u.AssignID(r.nextID)
	r.users[u.ID()] = u
	return nil
}

func (r *UserRepository) Delete(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, id)
	return nil
}
