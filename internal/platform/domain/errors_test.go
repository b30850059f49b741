package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf_Wrapped(t *testing.T) {
	err := fmt.Errorf("service: %w", NewNotFoundError("Route", "42"))

	assert.Equal(t, KindNotFound, KindOf(err))
	assert.True(t, IsNotFound(err))
	assert.False(t, IsConflict(err))
	assert.Contains(t, err.Error(), "Route not found: 42")
}

func TestKindOf_PlainError(t *testing.T) {
	assert.Equal(t, ErrorKind(""), KindOf(errors.New("boom")))
}

func TestConstructors_Kinds(t *testing.T) {
	assert.Equal(t, KindValidation, NewValidationError("bad").Kind)
	assert.Equal(t, KindConflict, NewConflictError("taken").Kind)
	assert.Equal(t, KindForbidden, NewForbiddenError("not yours").Kind)
	assert.Equal(t, KindUnauthorized, NewUnauthorizedError("who").Kind)
	assert.Equal(t, KindUpstream, NewUpstreamError("down", nil).Kind)
}

func TestUpstreamError_Unwraps(t *testing.T) {
	cause := errors.New("timeout")
	err := NewUpstreamError("route lookup failed", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "route lookup failed: timeout", err.Error())
}

func TestNewPaginatedResult(t *testing.T) {
	r := NewPaginatedResult([]int{1, 2}, 41, 1, 20)
	assert.Equal(t, 3, r.TotalPages)

	empty := NewPaginatedResult([]int{}, 0, 1, 20)
	assert.Equal(t, 0, empty.TotalPages)
}
