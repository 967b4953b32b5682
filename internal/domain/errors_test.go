package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil error", nil, ""},
		{"domain error", Invalid("op", "bad input"), EINVALID},
		{"wrapped domain error", fmt.Errorf("context: %w", Unauthorized("op", "nope")), EUNAUTHORIZED},
		{"plain error", errors.New("boom"), EINTERNAL},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorCode(tt.err))
		})
	}
}

func TestErrorMessage(t *testing.T) {
	const generic = "An internal error occurred. Please try again later."

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil error", nil, ""},
		{"client-facing message", Invalid("op", "email is required"), "email is required"},
		{"internal error is masked", Internal(errors.New("pq: duplicate"), "op", "insert failed"), generic},
		{"upstream error is masked", Upstream(errors.New("stripe 503"), "op", "stripe down"), generic},
		{"plain error is masked", errors.New("raw"), generic},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorMessage(tt.err))
		})
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := Internal(cause, "UserService.Register", "Failed to create user")

	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "UserService.Register", ErrorOp(err))
	assert.Contains(t, err.Error(), "UserService.Register")
}

func TestNotFoundMessage(t *testing.T) {
	err := NotFound("op", "user", "u-123")
	assert.Equal(t, ENOTFOUND, err.Code)
	assert.Equal(t, `user with ID "u-123" not found`, err.Message)
}

func TestSubscriptionIsActive(t *testing.T) {
	tests := []struct {
		status SubscriptionStatus
		want   bool
	}{
		{SubscriptionStatusActive, true},
		{SubscriptionStatusTrialing, true},
		{SubscriptionStatusInactive, false},
		{SubscriptionStatusPastDue, false},
		{SubscriptionStatusCanceled, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			sub := &Subscription{Status: tt.status}
			assert.Equal(t, tt.want, sub.IsActive())
		})
	}
}
