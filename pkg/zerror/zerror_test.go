package zerror_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanvumaihuynh/catalog-service/pkg/zerror"
)

func TestZError(t *testing.T) {
	notFound := zerror.NewNotFound("PRODUCT_NOT_FOUND", "product not found")

	t.Run("Should match predefined error after wrapping", func(t *testing.T) {
		parent := errors.New("no rows")
		err := fmt.Errorf("get product: %w", notFound.WrapParent(parent))

		assert.ErrorIs(t, err, notFound)
		assert.ErrorIs(t, err, parent)
	})

	t.Run("Should not match a different code", func(t *testing.T) {
		other := zerror.NewNotFound("CATEGORY_NOT_FOUND", "category not found")
		assert.NotErrorIs(t, notFound, other)
	})

	t.Run("Should keep code when message is replaced", func(t *testing.T) {
		err := notFound.WithMsg("product abc not found")

		assert.ErrorIs(t, err, notFound)
		assert.Equal(t, "product abc not found", err.Msg())
		assert.Equal(t, "PRODUCT_NOT_FOUND", err.Code())
	})

	t.Run("Should expose status through the chain", func(t *testing.T) {
		err := fmt.Errorf("outer: %w", notFound)

		var zErr zerror.ZError
		require.ErrorAs(t, err, &zErr)
		assert.Equal(t, zerror.StatusNotFound, zErr.Status())
		assert.Equal(t, zerror.StatusNotFound, zerror.StatusOf(err))
		assert.Equal(t, zerror.StatusUnknown, zerror.StatusOf(errors.New("plain")))
	})

	t.Run("Should format parent in message", func(t *testing.T) {
		err := notFound.WrapParent(errors.New("boom"))
		assert.Equal(t, "Code=PRODUCT_NOT_FOUND, Msg=product not found, Parent=(boom)", err.Error())
		assert.Equal(t, "Code=PRODUCT_NOT_FOUND, Msg=product not found", notFound.Error())
	})
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "CONFLICT", zerror.StatusConflict.String())
	assert.Equal(t, "UNKNOWN", zerror.Status(200).String())
}
