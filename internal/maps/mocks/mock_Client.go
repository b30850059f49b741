// Package mocks provides test doubles for the maps client.
package mocks

import (
	"context"

	mock "github.com/stretchr/testify/mock"

	"github.com/movesmart/service-route/internal/domain/route"
)

// MockClient is a mock type for the maps.Client interface.
type MockClient struct {
	mock.Mock
}

// Distance provides a mock function with given fields: ctx, origin, destination
func (_m *MockClient) Distance(ctx context.Context, origin string, destination string) (*route.Metrics, error) {
	ret := _m.Called(ctx, origin, destination)

	if len(ret) == 0 {
		panic("no return value specified for Distance")
	}

	var r0 *route.Metrics
	if rf, ok := ret.Get(0).(func(context.Context, string, string) *route.Metrics); ok {
		r0 = rf(ctx, origin, destination)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(*route.Metrics)
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, string, string) error); ok {
		r1 = rf(ctx, origin, destination)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NewMockClient creates a MockClient and registers cleanup assertions.
func NewMockClient(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockClient {
	m := &MockClient{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}
