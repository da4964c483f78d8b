package apperr_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tuanvumaihuynh/catalog-service/internal/apperr"
)

func TestKinds(t *testing.T) {
	wrapped := fmt.Errorf("reserve: %w", apperr.InventoryNotFoundErr.WrapParent(errors.New("no rows")))

	assert.True(t, apperr.IsNotFound(wrapped))
	assert.False(t, apperr.IsConflict(wrapped))
	assert.ErrorIs(t, wrapped, apperr.InventoryNotFoundErr)
	assert.NotErrorIs(t, wrapped, apperr.ProductNotFoundErr)

	assert.True(t, apperr.IsValidation(apperr.ValidationErr.WithMsg("qty must be positive")))
	assert.True(t, apperr.IsConflict(apperr.SlugConflictErr))
	assert.False(t, apperr.IsNotFound(apperr.InsufficientStockErr))
	assert.False(t, apperr.IsValidation(errors.New("plain")))
}
