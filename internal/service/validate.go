package service

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/tuanvumaihuynh/catalog-service/internal/apperr"
	"github.com/tuanvumaihuynh/catalog-service/pkg/validator"
)

var maxAmount = decimal.New(1, 8)

// maxQuantity is the largest stock level the inventory column holds.
const maxQuantity = math.MaxInt32

var errQuantityTooLarge = apperr.ValidationErr.WithMsg("quantity must be less than or equal to 2147483647")

func validate(v validator.Validator, params any) error {
	if err := v.Validate(params); err != nil {
		return apperr.ValidationErr.WrapParent(err)
	}
	return nil
}

// validateAmount checks that amount fits NUMERIC(10,2) and is positive.
func validateAmount(amount decimal.Decimal) error {
	switch {
	case !amount.IsPositive():
		return apperr.ValidationErr.WithMsg("amount must be greater than 0")
	case !amount.Equal(amount.Round(2)):
		return apperr.ValidationErr.WithMsg("amount must have at most 2 fractional digits")
	case amount.GreaterThanOrEqual(maxAmount):
		return apperr.ValidationErr.WithMsg("amount must have at most 8 integer digits")
	}
	return nil
}

func validatePositiveQty(qty int) error {
	switch {
	case qty <= 0:
		return apperr.ValidationErr.WithMsg("quantity must be greater than 0")
	case qty > maxQuantity:
		return errQuantityTooLarge
	}
	return nil
}

func validateNonNegativeQty(qty int) error {
	switch {
	case qty < 0:
		return apperr.ValidationErr.WithMsg("quantity must be greater than or equal to 0")
	case qty > maxQuantity:
		return errQuantityTooLarge
	}
	return nil
}
