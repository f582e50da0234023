// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package apperr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/wingconfig/internal/platform/apperr"
)

/*
TestAppError_Is verifies that errors match on code and status, not on message.
*/
func TestAppError_Is(t *testing.T) {
	sentinel := apperr.Unauthorized("Account is locked").WithCode("ACCOUNT_LOCKED")

	tests := []struct {
		name    string
		err     error
		matches bool
	}{
		{"same_instance", sentinel, true},
		{"different_message", sentinel.WithMessage("Account is locked. Please try again after 10:30"), true},
		{"wrapped", fmt.Errorf("login_failed: %w", sentinel.WithMessage("other")), true},
		{"different_code", apperr.Unauthorized("Account is locked"), false},
		{"different_status", apperr.Forbidden("Account is locked").WithCode("ACCOUNT_LOCKED"), false},
		{"plain_error", errors.New("Account is locked"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.matches, errors.Is(tt.err, sentinel))
		})
	}
}

/*
TestAppError_Derivation ensures the With* helpers never mutate the receiver.
*/
func TestAppError_Derivation(t *testing.T) {
	base := apperr.Unauthorized("Invalid email or password")
	cause := errors.New("boom")

	derived := base.WithCode("INVALID_CREDENTIALS").WithMessage("changed").WithCause(cause)

	assert.Equal(t, "UNAUTHORIZED", base.Code)
	assert.Equal(t, "Invalid email or password", base.Message)
	assert.Nil(t, base.Cause)

	assert.Equal(t, "INVALID_CREDENTIALS", derived.Code)
	assert.Equal(t, "changed", derived.Error())
	assert.Equal(t, http.StatusUnauthorized, derived.HTTPStatus)
	assert.ErrorIs(t, derived, cause)
}

/*
TestAs extracts the AppError from a wrapped chain.
*/
func TestAs(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", apperr.NotFound("User"))

	appError := apperr.As(wrapped)
	require.NotNil(t, appError)
	assert.Equal(t, "NOT_FOUND", appError.Code)
	assert.Equal(t, "User not found", appError.Message)
	assert.True(t, apperr.IsAppError(wrapped))

	assert.Nil(t, apperr.As(errors.New("plain")))
	assert.False(t, apperr.IsAppError(errors.New("plain")))
}
