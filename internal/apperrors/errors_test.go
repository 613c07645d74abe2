package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKind_HTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, KindValidation.HTTPStatus())
	assert.Equal(t, http.StatusConflict, KindConflict.HTTPStatus())
	assert.Equal(t, http.StatusUnauthorized, KindUnauthorized.HTTPStatus())
	assert.Equal(t, http.StatusForbidden, KindForbidden.HTTPStatus())
	assert.Equal(t, http.StatusNotFound, KindNotFound.HTTPStatus())
	assert.Equal(t, http.StatusTooManyRequests, KindRateLimited.HTTPStatus())
	assert.Equal(t, http.StatusInternalServerError, KindInternal.HTTPStatus())
}

func TestError_IsMatchesByCode(t *testing.T) {
	wrapped := fmt.Errorf("login: %w", ErrInvalidCredentials)

	assert.ErrorIs(t, wrapped, ErrInvalidCredentials)
	assert.NotErrorIs(t, wrapped, ErrEmailNotVerified)

	detailed := ErrUserExists.WithDetails("email")
	assert.ErrorIs(t, detailed, ErrUserExists)
}

func TestError_WithDetailsCopies(t *testing.T) {
	e := Validation(CodeWeakPassword, "weak")
	d := e.WithDetails("too short", "no digit")

	assert.Empty(t, e.Details)
	assert.Equal(t, []string{"too short", "no digit"}, d.Details)
}

func TestError_CauseChain(t *testing.T) {
	cause := errors.New("connection refused")
	e := Internal(cause)

	assert.ErrorIs(t, e, cause)
	assert.Equal(t, CodeInternal, e.Code)
	assert.Contains(t, e.Error(), "connection refused")
}

func TestFrom(t *testing.T) {
	e := From(fmt.Errorf("outer: %w", ErrUserNotFound))
	assert.Equal(t, CodeNotFound, e.Code)
	assert.Equal(t, KindNotFound, e.Kind)

	plain := From(errors.New("boom"))
	assert.Equal(t, KindInternal, plain.Kind)
	assert.Equal(t, "An internal error occurred", plain.Message)
}
