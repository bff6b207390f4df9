package apperr_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/kiranshivaraju/logtrail/internal/apperr"
	"github.com/stretchr/testify/assert"
)

func TestMissingParameter_NamesParameter(t *testing.T) {
	err := apperr.MissingParameter("before")
	assert.Equal(t, apperr.KindValidation, err.Kind)
	assert.Contains(t, err.Message, "before")
}

func TestKindOf_Wrapped(t *testing.T) {
	err := fmt.Errorf("resolve: %w", apperr.Forbidden("no access"))
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	assert.True(t, errors.Is(err, apperr.Forbidden("")))
	assert.False(t, errors.Is(err, apperr.NotFound("")))
}

func TestKindOf_PlainError(t *testing.T) {
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(errors.New("boom")))
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(nil))
}

func TestUnavailable_UnwrapsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := apperr.Unavailable("search backend unavailable", cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "unavailable", err.Kind.String())
}
