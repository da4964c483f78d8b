package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/tuanvumaihuynh/catalog-service/internal/apperr"
)

const (
	pgUniqueViolation      = "23505"
	pgForeignKeyViolation  = "23503"
	pgCheckViolation       = "23514"
	pgNumericOutOfRange    = "22003"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgStringDataRightTrunc = "22001"
	productSkuConstraint   = "product_sku_key"
	categorySlugConstraint = "category_slug_key"
	inventoryQtyConstraint = "product_inventory_quantity_check"
	membershipCategoryFK   = "product_category_category_id_fkey"
)

// mapPgErr turns PostgreSQL errors that callers can act on into application
// errors. Other errors are returned unchanged.
func mapPgErr(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgUniqueViolation:
		switch pgErr.ConstraintName {
		case productSkuConstraint:
			return apperr.SkuConflictErr.WrapParent(err)
		case categorySlugConstraint:
			return apperr.SlugConflictErr.WrapParent(err)
		}
	case pgForeignKeyViolation:
		if pgErr.ConstraintName == membershipCategoryFK {
			return apperr.CategoryNotFoundErr.WrapParent(err)
		}
		return apperr.ProductNotFoundErr.WrapParent(err)
	case pgSerializationFailure, pgDeadlockDetected:
		return apperr.ConcurrentUpdateErr.WrapParent(err)
	case pgNumericOutOfRange, pgStringDataRightTrunc:
		return apperr.ValidationErr.WithMsg("value out of range").WrapParent(err)
	case pgCheckViolation:
		if pgErr.ConstraintName == inventoryQtyConstraint {
			return apperr.InsufficientStockErr.WrapParent(err)
		}
		return apperr.ValidationErr.WrapParent(err)
	}

	return err
}
