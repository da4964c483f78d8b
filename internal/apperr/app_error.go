package apperr

import "github.com/tuanvumaihuynh/catalog-service/pkg/zerror"

const (
	ValidationErrorCode = "VALIDATION_FAILED"

	ProductNotFoundCode   = "PRODUCT_NOT_FOUND"
	CategoryNotFoundCode  = "CATEGORY_NOT_FOUND"
	InventoryNotFoundCode = "INVENTORY_NOT_FOUND"
	ImageNotFoundCode     = "IMAGE_NOT_FOUND"
	PriceNotSetCode       = "PRICE_NOT_SET"

	InsufficientStockCode = "INSUFFICIENT_STOCK"

	SlugConflictCode     = "SLUG_CONFLICT"
	SkuConflictCode      = "SKU_ALREADY_EXISTS"
	ConcurrentUpdateCode = "CONCURRENT_UPDATE"
)

var (
	ValidationErr = zerror.NewValidationFailed(ValidationErrorCode, "validation error")

	ProductNotFoundErr   = zerror.NewNotFound(ProductNotFoundCode, "product not found")
	CategoryNotFoundErr  = zerror.NewNotFound(CategoryNotFoundCode, "category not found")
	InventoryNotFoundErr = zerror.NewNotFound(InventoryNotFoundCode, "inventory not found")
	ImageNotFoundErr     = zerror.NewNotFound(ImageNotFoundCode, "image not found")
	PriceNotSetErr       = zerror.NewNotFound(PriceNotSetCode, "price has not been set")

	InsufficientStockErr = zerror.NewUnprocessableEntity(InsufficientStockCode, "not enough stock")

	SlugConflictErr     = zerror.NewConflict(SlugConflictCode, "category slug already taken")
	SkuConflictErr      = zerror.NewConflict(SkuConflictCode, "product sku already exists")
	ConcurrentUpdateErr = zerror.NewConflict(ConcurrentUpdateCode, "concurrent update detected")
)

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	return zerror.StatusOf(err) == zerror.StatusValidationFailed
}

// IsNotFound reports whether err is a NotFoundError of any entity.
func IsNotFound(err error) bool {
	return zerror.StatusOf(err) == zerror.StatusNotFound
}

// IsConflict reports whether err is a ConflictError.
func IsConflict(err error) bool {
	return zerror.StatusOf(err) == zerror.StatusConflict
}
