package validator_test

import (
	"errors"
	"testing"

	govalidator "github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanvumaihuynh/catalog-service/pkg/validator"
)

type priceInput struct {
	Currency string `validate:"required,currency"`
	Sku      string `validate:"required,notblank,max=8"`
}

func TestDefaultValidator(t *testing.T) {
	v, err := validator.NewDefaultValidator()
	require.NoError(t, err)

	tests := []struct {
		name    string
		input   priceInput
		wantTag string
	}{
		{name: "valid", input: priceInput{Currency: "KZT", Sku: "SKU-1"}},
		{name: "lowercase currency", input: priceInput{Currency: "kzt", Sku: "SKU-1"}, wantTag: "currency"},
		{name: "long currency", input: priceInput{Currency: "EURO", Sku: "SKU-1"}, wantTag: "currency"},
		{name: "blank sku", input: priceInput{Currency: "USD", Sku: "   "}, wantTag: "notblank"},
		{name: "sku too long", input: priceInput{Currency: "USD", Sku: "123456789"}, wantTag: "max"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.input)
			if tt.wantTag == "" {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.True(t, validator.IsValidationError(err))

			var fieldErrs govalidator.ValidationErrors
			require.True(t, errors.As(err, &fieldErrs))
			assert.Equal(t, tt.wantTag, fieldErrs[0].Tag())
			assert.NotEqual(t, "is invalid", validator.ValidationErrorMessage(fieldErrs[0]))
		})
	}
}

func TestFieldNames(t *testing.T) {
	type input struct {
		CategoryIDs []string `validate:"required"`
		ProductID   string   `json:"product_id" validate:"required"`
		SKU         string   `validate:"required"`
	}

	err := validator.MustNewDefaultValidator().Validate(input{})
	require.Error(t, err)

	var fieldErrs govalidator.ValidationErrors
	require.True(t, errors.As(err, &fieldErrs))

	names := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		names = append(names, fe.Field())
	}
	assert.Equal(t, []string{"categoryIDs", "product_id", "sku"}, names)
}
