package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationErrorMatchesSentinel(t *testing.T) {
	err := Invalid("capacity", "must be between %d and %d", 2, 100)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "capacity: must be between 2 and 100", err.Error())

	wrapped := fmt.Errorf("create: %w", err)
	var ve *ValidationError
	assert.True(t, errors.As(wrapped, &ve))
	assert.Equal(t, "capacity", ve.Field)
}

func TestNotFoundWraps(t *testing.T) {
	err := NotFound("event", "e-1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), `"e-1"`)
}
