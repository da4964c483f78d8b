package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tuanvumaihuynh/catalog-service/internal/apperr"
	"github.com/tuanvumaihuynh/catalog-service/internal/config"
	"github.com/tuanvumaihuynh/catalog-service/internal/event"
	"github.com/tuanvumaihuynh/catalog-service/internal/filter"
	"github.com/tuanvumaihuynh/catalog-service/internal/model"
	"github.com/tuanvumaihuynh/catalog-service/internal/repository"
	"github.com/tuanvumaihuynh/catalog-service/internal/storage/db"
	"github.com/tuanvumaihuynh/catalog-service/internal/storage/objectstore"
	"github.com/tuanvumaihuynh/catalog-service/pkg/ptr"
	"github.com/tuanvumaihuynh/catalog-service/pkg/validator"
)

type CreateProductParams struct {
	Sku         string  `validate:"required,notblank,max=64"`
	Name        string  `validate:"required,notblank,max=255"`
	Description *string `validate:"omitempty,max=4000"`
	// Price and Quantity are optional initial values stored with the
	// product. Currency defaults to the catalog default currency.
	Price       *decimal.Decimal
	Currency    *string `validate:"omitempty,currency"`
	Quantity    *int    `validate:"omitempty,gte=0,lte=2147483647"`
	CategoryIDs []uuid.UUID
}

// UpdateProductParams replaces every mutable field. A nil description
// clears it.
type UpdateProductParams struct {
	Sku         string  `validate:"required,notblank,max=64"`
	Name        string  `validate:"required,notblank,max=255"`
	Description *string `validate:"omitempty,max=4000"`
}

// PatchProductParams overwrites only the fields that are set.
type PatchProductParams struct {
	Sku         *string `validate:"omitempty,notblank,max=64"`
	Name        *string `validate:"omitempty,notblank,max=255"`
	Description *string `validate:"omitempty,max=4000"`
}

type ProductService interface {
	ListProducts(ctx context.Context, page model.PageRequest) (model.Page[model.Product], error)
	SearchProducts(ctx context.Context, f filter.Filter, page model.PageRequest) (model.Page[model.Product], error)
	GetProduct(ctx context.Context, id uuid.UUID) (model.Product, error)
	CreateProduct(ctx context.Context, params CreateProductParams) (model.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, params UpdateProductParams) (model.Product, error)
	PatchProduct(ctx context.Context, id uuid.UUID, params PatchProductParams) (model.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	GetInternalProduct(ctx context.Context, id uuid.UUID) (model.InternalProduct, error)
	AssignCategory(ctx context.Context, productID, categoryID uuid.UUID) error
	UnassignCategory(ctx context.Context, productID, categoryID uuid.UUID) error
	ListImages(ctx context.Context, productID uuid.UUID) ([]model.ProductImage, error)
}

type productService struct {
	cfg           config.Catalog
	logger        *slog.Logger
	db            db.DB
	validator     validator.Validator
	store         objectstore.Store
	productRepo   repository.ProductRepository
	categoryRepo  repository.CategoryRepository
	priceRepo     repository.PriceRepository
	inventoryRepo repository.InventoryRepository
	imageRepo     repository.ImageRepository
	outboxMsgRepo repository.OutboxMsgRepository
}

func NewProductService(
	cfg config.Catalog,
	logger *slog.Logger,
	db db.DB,
	validator validator.Validator,
	store objectstore.Store,
	productRepo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
	priceRepo repository.PriceRepository,
	inventoryRepo repository.InventoryRepository,
	imageRepo repository.ImageRepository,
	outboxMsgRepo repository.OutboxMsgRepository,
) ProductService {
	return &productService{
		cfg:           cfg,
		logger:        logger.With(slog.String("service", "product")),
		db:            db,
		validator:     validator,
		store:         store,
		productRepo:   productRepo,
		categoryRepo:  categoryRepo,
		priceRepo:     priceRepo,
		inventoryRepo: inventoryRepo,
		imageRepo:     imageRepo,
		outboxMsgRepo: outboxMsgRepo,
	}
}

func (s *productService) ListProducts(ctx context.Context, page model.PageRequest) (model.Page[model.Product], error) {
	return s.SearchProducts(ctx, filter.Filter{}, page)
}

func (s *productService) SearchProducts(
	ctx context.Context,
	f filter.Filter,
	page model.PageRequest,
) (model.Page[model.Product], error) {
	pred, err := filter.Compile(f)
	if err != nil {
		return model.Page[model.Product]{}, err
	}

	products, err := s.productRepo.SearchProducts(ctx, pred, page.Normalize(s.cfg.DefaultPageSize, s.cfg.MaxPageSize))
	if err != nil {
		return model.Page[model.Product]{}, fmt.Errorf("product repository search products: %w", err)
	}

	return products, nil
}

func (s *productService) GetProduct(ctx context.Context, id uuid.UUID) (model.Product, error) {
	product, err := s.productRepo.GetProduct(ctx, id)
	if err != nil {
		return model.Product{}, fmt.Errorf("product repository get product: %w", err)
	}
	return product, nil
}

func (s *productService) CreateProduct(ctx context.Context, params CreateProductParams) (model.Product, error) {
	if err := validate(s.validator, params); err != nil {
		return model.Product{}, err
	}
	if params.Price != nil {
		if err := validateAmount(*params.Price); err != nil {
			return model.Product{}, err
		}
	}

	currency := ptr.Deref(params.Currency, s.cfg.DefaultCurrency)

	id, err := uuid.NewV7()
	if err != nil {
		return model.Product{}, fmt.Errorf("generate uuid v7: %w", err)
	}

	now := time.Now()
	product := model.Product{
		ID:          id,
		Sku:         strings.TrimSpace(params.Sku),
		Name:        params.Name,
		Description: params.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	ev := event.ProductCreatedEvent{
		ProductID: product.ID.String(),
		Sku:       product.Sku,
		Name:      product.Name,
		Quantity:  params.Quantity,
	}

	if err := s.db.WithTx(ctx, func(db db.DB) error {
		if err := s.productRepo.
			WithDB(db).
			CreateProduct(ctx, product); err != nil {
			return fmt.Errorf("product repository create product: %w", err)
		}

		if params.Price != nil {
			priceID, err := uuid.NewV7()
			if err != nil {
				return fmt.Errorf("generate uuid v7: %w", err)
			}

			price, err := s.priceRepo.
				WithDB(db).
				InsertPrice(ctx, model.Price{
					ID:        priceID,
					ProductID: product.ID,
					Amount:    *params.Price,
					Currency:  currency,
					CreatedAt: now,
				})
			if err != nil {
				return fmt.Errorf("price repository insert price: %w", err)
			}
			ev.Price = &price.Amount
			ev.Currency = &price.Currency
		}

		if params.Quantity != nil {
			if err := s.inventoryRepo.
				WithDB(db).
				CreateInventory(ctx, model.Inventory{
					ProductID: product.ID,
					Quantity:  *params.Quantity,
					UpdatedAt: now,
				}); err != nil {
				return fmt.Errorf("inventory repository create inventory: %w", err)
			}
		}

		for _, categoryID := range params.CategoryIDs {
			if err := s.productRepo.
				WithDB(db).
				AssignCategory(ctx, product.ID, categoryID); err != nil {
				return fmt.Errorf("product repository assign category: %w", err)
			}
			ev.CategoryIDs = append(ev.CategoryIDs, categoryID.String())
		}

		return publish(ctx, s.outboxMsgRepo.WithDB(db), event.TopicProductCreated, product.ID.String(), ev)
	}); err != nil {
		return model.Product{}, fmt.Errorf("db with tx: %w", err)
	}

	return product, nil
}

func (s *productService) UpdateProduct(ctx context.Context, id uuid.UUID, params UpdateProductParams) (model.Product, error) {
	if err := validate(s.validator, params); err != nil {
		return model.Product{}, err
	}

	return s.modifyProduct(ctx, id, func(p *model.Product) {
		p.Sku = strings.TrimSpace(params.Sku)
		p.Name = params.Name
		p.Description = params.Description
	})
}

func (s *productService) PatchProduct(ctx context.Context, id uuid.UUID, params PatchProductParams) (model.Product, error) {
	if err := validate(s.validator, params); err != nil {
		return model.Product{}, err
	}

	return s.modifyProduct(ctx, id, func(p *model.Product) {
		if params.Sku != nil {
			p.Sku = strings.TrimSpace(*params.Sku)
		}
		if params.Name != nil {
			p.Name = *params.Name
		}
		if params.Description != nil {
			p.Description = params.Description
		}
	})
}

// modifyProduct applies mutate to the locked product and stores it, keeping
// its identity and creation time.
func (s *productService) modifyProduct(ctx context.Context, id uuid.UUID, mutate func(*model.Product)) (model.Product, error) {
	var updated model.Product
	if err := s.db.WithTx(ctx, func(db db.DB) error {
		productRepo := s.productRepo.WithDB(db)

		product, err := productRepo.LockProduct(ctx, id)
		if err != nil {
			return fmt.Errorf("product repository lock product: %w", err)
		}

		mutate(&product)
		product.ID = id
		product.UpdatedAt = time.Now()

		updated, err = productRepo.UpdateProduct(ctx, product)
		if err != nil {
			return fmt.Errorf("product repository update product: %w", err)
		}

		return nil
	}); err != nil {
		return model.Product{}, fmt.Errorf("db with tx: %w", err)
	}

	return updated, nil
}

// DeleteProduct removes the product with its prices, inventory, images and
// memberships. Image blobs are removed after commit; failures there are
// logged and leave orphaned blobs only.
func (s *productService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	var images []model.ProductImage
	if err := s.db.WithTx(ctx, func(db db.DB) error {
		product, err := s.productRepo.WithDB(db).LockProduct(ctx, id)
		if err != nil {
			return fmt.Errorf("product repository lock product: %w", err)
		}

		images, err = s.imageRepo.WithDB(db).ListImages(ctx, id)
		if err != nil {
			return fmt.Errorf("image repository list images: %w", err)
		}

		if err := s.productRepo.WithDB(db).DeleteProduct(ctx, id); err != nil {
			return fmt.Errorf("product repository delete product: %w", err)
		}

		return publish(ctx, s.outboxMsgRepo.WithDB(db), event.TopicProductDeleted, id.String(),
			event.ProductDeletedEvent{ProductID: id.String(), Sku: product.Sku})
	}); err != nil {
		return fmt.Errorf("db with tx: %w", err)
	}

	for _, image := range images {
		if err := s.store.Delete(ctx, image.Key); err != nil {
			s.logger.WarnContext(ctx, "error deleting image blob of deleted product",
				slog.String("product_id", id.String()),
				slog.String("key", image.Key),
				slog.Any("error", err),
			)
		}
	}

	return nil
}

func (s *productService) GetInternalProduct(ctx context.Context, id uuid.UUID) (model.InternalProduct, error) {
	product, err := s.productRepo.GetInternalProduct(ctx, id)
	if err != nil {
		return model.InternalProduct{}, fmt.Errorf("product repository get internal product: %w", err)
	}
	return product, nil
}

func (s *productService) AssignCategory(ctx context.Context, productID, categoryID uuid.UUID) error {
	if err := s.db.WithTx(ctx, func(db db.DB) error {
		if err := s.requireProductAndCategory(ctx, db, productID, categoryID); err != nil {
			return err
		}

		if err := s.productRepo.WithDB(db).AssignCategory(ctx, productID, categoryID); err != nil {
			return fmt.Errorf("product repository assign category: %w", err)
		}
		return nil
	}); err != nil {
		return fmt.Errorf("db with tx: %w", err)
	}

	return nil
}

func (s *productService) UnassignCategory(ctx context.Context, productID, categoryID uuid.UUID) error {
	if err := s.db.WithTx(ctx, func(db db.DB) error {
		if err := s.requireProductAndCategory(ctx, db, productID, categoryID); err != nil {
			return err
		}

		if err := s.productRepo.WithDB(db).UnassignCategory(ctx, productID, categoryID); err != nil {
			return fmt.Errorf("product repository unassign category: %w", err)
		}
		return nil
	}); err != nil {
		return fmt.Errorf("db with tx: %w", err)
	}

	return nil
}

func (s *productService) ListImages(ctx context.Context, productID uuid.UUID) ([]model.ProductImage, error) {
	if err := requireProduct(ctx, s.productRepo, productID); err != nil {
		return nil, err
	}

	images, err := s.imageRepo.ListImages(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("image repository list images: %w", err)
	}
	return images, nil
}

func (s *productService) requireProductAndCategory(ctx context.Context, db db.DB, productID, categoryID uuid.UUID) error {
	if err := requireProduct(ctx, s.productRepo.WithDB(db), productID); err != nil {
		return err
	}

	exists, err := s.categoryRepo.WithDB(db).CategoryExists(ctx, categoryID)
	if err != nil {
		return fmt.Errorf("category repository category exists: %w", err)
	}
	if !exists {
		return apperr.CategoryNotFoundErr
	}
	return nil
}

func requireProduct(ctx context.Context, productRepo repository.ProductRepository, id uuid.UUID) error {
	exists, err := productRepo.ProductExists(ctx, id)
	if err != nil {
		return fmt.Errorf("product repository product exists: %w", err)
	}
	if !exists {
		return apperr.ProductNotFoundErr
	}
	return nil
}
