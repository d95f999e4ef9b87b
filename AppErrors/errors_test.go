package AppErrors_test

import (
	"testing"

	"github.com/Barrelito/sam-a-sub001/AppErrors"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestValidationError(t *testing.T) {
	err := AppErrors.Validation("evidence", "required")
	assert.Equal(t, "evidence: required", err.Error())
	assert.True(t, AppErrors.IsValidation(errors.Wrap(err, "submit")))

	var ve *AppErrors.ValidationError
	assert.True(t, errors.As(err, &ve))
	assert.Equal(t, "evidence", ve.Field)

	assert.Equal(t, "itemId and year are required", AppErrors.Validation("", "itemId and year are required").Error())
}

func TestStorageError(t *testing.T) {
	assert.Nil(t, AppErrors.Storage(nil))

	cause := errors.New("UNIQUE constraint failed: task_completions.id")
	err := AppErrors.Storage(cause)
	assert.Equal(t, cause.Error(), err.Error())
	assert.True(t, AppErrors.IsStorage(err))
	assert.True(t, errors.Is(err, cause))

	// wrapping twice keeps a single layer
	assert.Same(t, err, AppErrors.Storage(err))
}

func TestNotFoundError(t *testing.T) {
	assert.Equal(t, "review 7 not found", AppErrors.NotFound("review", 7).Error())
	assert.Equal(t, "active cycle not found", AppErrors.NotFound("active cycle", nil).Error())
	assert.True(t, AppErrors.IsNotFound(AppErrors.NotFound("station", 1)))
	assert.False(t, AppErrors.IsNotFound(AppErrors.Validation("x", "y")))
}
