package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_WrappingAndCodes(t *testing.T) {
	base := NewInsufficientStock("batch-1", 7, 5)
	wrapped := fmt.Errorf("apply movement: %w", base)

	appErr, ok := AsAppError(wrapped)
	require.True(t, ok)
	assert.Equal(t, CodeInsufficientStock, appErr.Code)

	assert.True(t, HasCode(wrapped, CodeInsufficientStock))
	assert.False(t, HasCode(wrapped, CodeOverRestore))
	assert.False(t, HasCode(errors.New("plain"), CodeInsufficientStock))
}

func TestAppError_Details(t *testing.T) {
	err := NewOverRestore("batch-1", 3, 1)

	assert.Equal(t, "batch-1", err.Details["batch_id"])
	assert.Equal(t, 3.0, err.Details["requested"])
	assert.Equal(t, 1.0, err.Details["headroom"])

	err = err.WithDetail("extra", "value")
	assert.Equal(t, "value", err.Details["extra"])
}

func TestAppError_HTTPStatus(t *testing.T) {
	cases := []struct {
		err  *AppError
		want int
	}{
		{NewValidation("bad"), http.StatusBadRequest},
		{NewNotFound("batch", "x"), http.StatusNotFound},
		{NewBatchNotFound("x"), http.StatusNotFound},
		{NewInsufficientStock("b", 2, 1), http.StatusUnprocessableEntity},
		{NewOverRestore("b", 1, 0), http.StatusUnprocessableEntity},
		{NewConcurrentModification("batch", "x"), http.StatusConflict},
		{NewDuplicate("batch", "batch_number", "LOT-1"), http.StatusConflict},
		{NewNoRecipe("p"), http.StatusNotFound},
		{NewInternalInvariant("broken"), http.StatusInternalServerError},
		{NewInternal(errors.New("boom")), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.err.HTTPStatus, tc.err.Code)
	}
}

func TestAppError_ErrorString(t *testing.T) {
	err := NewValidation("name is required")
	assert.Equal(t, "VALIDATION_ERROR: name is required", err.Error())

	cause := errors.New("boom")
	assert.Contains(t, NewInternal(cause).Error(), "boom")
	assert.ErrorIs(t, NewInternal(cause), cause)
}

func TestClassifiers(t *testing.T) {
	assert.True(t, IsNotFound(NewNotFound("batch", "x")))
	assert.True(t, IsNotFound(NewBatchNotFound("x")))
	assert.False(t, IsNotFound(NewValidation("bad")))

	assert.True(t, IsConcurrentModification(NewConcurrentModification("batch", "x")))
	assert.True(t, IsInsufficient(NewInsufficientStock("b", 2, 1)))
	assert.True(t, IsInsufficient(NewInsufficientIngredients("p")))
	assert.False(t, IsInsufficient(NewOverRestore("b", 1, 0)))
}
