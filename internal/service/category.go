package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tuanvumaihuynh/catalog-service/internal/apperr"
	"github.com/tuanvumaihuynh/catalog-service/internal/config"
	"github.com/tuanvumaihuynh/catalog-service/internal/event"
	"github.com/tuanvumaihuynh/catalog-service/internal/filter"
	"github.com/tuanvumaihuynh/catalog-service/internal/model"
	"github.com/tuanvumaihuynh/catalog-service/internal/repository"
	"github.com/tuanvumaihuynh/catalog-service/internal/slug"
	"github.com/tuanvumaihuynh/catalog-service/internal/storage/cache"
	"github.com/tuanvumaihuynh/catalog-service/internal/storage/db"
	"github.com/tuanvumaihuynh/catalog-service/pkg/validator"
)

const categoriesCacheKey = "categories"

type CreateCategoryParams struct {
	Name string `validate:"required,notblank,max=255"`
}

type RenameCategoryParams struct {
	Name string `validate:"required,notblank,max=255"`
}

type CategoryService interface {
	ListCategories(ctx context.Context) ([]model.Category, error)
	CreateCategory(ctx context.Context, params CreateCategoryParams) (model.Category, error)
	RenameCategory(ctx context.Context, id uuid.UUID, params RenameCategoryParams) (model.Category, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error
	DeleteCategoryBySlug(ctx context.Context, slug string) error
	// ListCategoryProducts pages the products of a category. An existing
	// category without products yields an empty page.
	ListCategoryProducts(ctx context.Context, id uuid.UUID, page model.PageRequest) (model.Page[model.Product], error)
}

type categoryService struct {
	cfg           config.Catalog
	logger        *slog.Logger
	db            db.DB
	validator     validator.Validator
	cache         cache.Cache
	categoryRepo  repository.CategoryRepository
	productRepo   repository.ProductRepository
	outboxMsgRepo repository.OutboxMsgRepository
}

func NewCategoryService(
	cfg config.Catalog,
	logger *slog.Logger,
	db db.DB,
	validator validator.Validator,
	cache cache.Cache,
	categoryRepo repository.CategoryRepository,
	productRepo repository.ProductRepository,
	outboxMsgRepo repository.OutboxMsgRepository,
) CategoryService {
	return &categoryService{
		cfg:           cfg,
		logger:        logger.With(slog.String("service", "category")),
		db:            db,
		validator:     validator,
		cache:         cache,
		categoryRepo:  categoryRepo,
		productRepo:   productRepo,
		outboxMsgRepo: outboxMsgRepo,
	}
}

func (s *categoryService) ListCategories(ctx context.Context) ([]model.Category, error) {
	var cached []model.Category
	found, err := s.cache.Get(ctx, categoriesCacheKey, &cached)
	if err != nil {
		s.logger.WarnContext(ctx, "category cache read failed, falling back to db", slog.Any("error", err))
	}
	if found {
		return cached, nil
	}

	categories, err := s.categoryRepo.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("category repository list categories: %w", err)
	}

	if err := s.cache.Set(ctx, categoriesCacheKey, categories, s.cfg.CategoryCacheTTL); err != nil {
		s.logger.WarnContext(ctx, "category cache write failed", slog.Any("error", err))
	}

	return categories, nil
}

func (s *categoryService) CreateCategory(ctx context.Context, params CreateCategoryParams) (model.Category, error) {
	if err := validate(s.validator, params); err != nil {
		return model.Category{}, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return model.Category{}, fmt.Errorf("generate uuid v7: %w", err)
	}

	var category model.Category
	if err := s.retryOnSlugConflict(ctx, func() error {
		return s.db.WithTx(ctx, func(db db.DB) error {
			categoryRepo := s.categoryRepo.WithDB(db)

			allocated, err := s.allocateSlug(ctx, categoryRepo, params.Name, "")
			if err != nil {
				return err
			}

			now := time.Now()
			category = model.Category{
				ID:        id,
				Name:      params.Name,
				Slug:      allocated,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := categoryRepo.CreateCategory(ctx, category); err != nil {
				return fmt.Errorf("category repository create category: %w", err)
			}

			return s.publishCategoryChanged(ctx, db, category, event.CategoryActionCreated)
		})
	}); err != nil {
		return model.Category{}, fmt.Errorf("db with tx: %w", err)
	}

	s.invalidateCategories(ctx)

	return category, nil
}

func (s *categoryService) RenameCategory(ctx context.Context, id uuid.UUID, params RenameCategoryParams) (model.Category, error) {
	if err := validate(s.validator, params); err != nil {
		return model.Category{}, err
	}

	var category model.Category
	if err := s.retryOnSlugConflict(ctx, func() error {
		return s.db.WithTx(ctx, func(db db.DB) error {
			categoryRepo := s.categoryRepo.WithDB(db)

			current, err := categoryRepo.LockCategory(ctx, id)
			if err != nil {
				return fmt.Errorf("category repository lock category: %w", err)
			}

			allocated, err := s.allocateSlug(ctx, categoryRepo, params.Name, current.Slug)
			if err != nil {
				return err
			}

			category = current
			category.Name = params.Name
			category.Slug = allocated
			category.UpdatedAt = time.Now()
			if err := categoryRepo.UpdateCategory(ctx, category); err != nil {
				return fmt.Errorf("category repository update category: %w", err)
			}

			return s.publishCategoryChanged(ctx, db, category, event.CategoryActionRenamed)
		})
	}); err != nil {
		return model.Category{}, fmt.Errorf("db with tx: %w", err)
	}

	s.invalidateCategories(ctx)

	return category, nil
}

func (s *categoryService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	return s.deleteCategory(ctx, func(repo repository.CategoryRepository) (model.Category, error) {
		return repo.DeleteCategory(ctx, id)
	})
}

func (s *categoryService) DeleteCategoryBySlug(ctx context.Context, slug string) error {
	return s.deleteCategory(ctx, func(repo repository.CategoryRepository) (model.Category, error) {
		return repo.DeleteCategoryBySlug(ctx, slug)
	})
}

func (s *categoryService) deleteCategory(
	ctx context.Context,
	del func(repository.CategoryRepository) (model.Category, error),
) error {
	if err := s.db.WithTx(ctx, func(db db.DB) error {
		deleted, err := del(s.categoryRepo.WithDB(db))
		if err != nil {
			return fmt.Errorf("category repository delete category: %w", err)
		}

		return s.publishCategoryChanged(ctx, db, deleted, event.CategoryActionDeleted)
	}); err != nil {
		return fmt.Errorf("db with tx: %w", err)
	}

	s.invalidateCategories(ctx)

	return nil
}

func (s *categoryService) ListCategoryProducts(
	ctx context.Context,
	id uuid.UUID,
	page model.PageRequest,
) (model.Page[model.Product], error) {
	exists, err := s.categoryRepo.CategoryExists(ctx, id)
	if err != nil {
		return model.Page[model.Product]{}, fmt.Errorf("category repository category exists: %w", err)
	}
	if !exists {
		return model.Page[model.Product]{}, apperr.CategoryNotFoundErr
	}

	pred, err := filter.Compile(filter.Filter{CategoryID: &id})
	if err != nil {
		return model.Page[model.Product]{}, fmt.Errorf("compile filter: %w", err)
	}

	products, err := s.productRepo.SearchProducts(ctx, pred, page.Normalize(s.cfg.DefaultPageSize, s.cfg.MaxPageSize))
	if err != nil {
		return model.Page[model.Product]{}, fmt.Errorf("product repository search products: %w", err)
	}

	return products, nil
}

// allocateSlug holds the advisory lock of the name's base slug for the rest
// of the transaction, then probes for a free candidate.
func (s *categoryService) allocateSlug(
	ctx context.Context,
	categoryRepo repository.CategoryRepository,
	name, current string,
) (string, error) {
	base := slug.Normalize(name)
	if base == "" {
		return "", apperr.ValidationErr.WithMsg("name must contain at least one letter or digit").
			WrapParent(slug.ErrEmpty)
	}

	if err := categoryRepo.LockSlug(ctx, base); err != nil {
		return "", fmt.Errorf("category repository lock slug: %w", err)
	}

	allocated, err := slug.Allocate(ctx, categoryRepo, name, current)
	if err != nil {
		return "", fmt.Errorf("allocate slug: %w", err)
	}

	return allocated, nil
}

// retryOnSlugConflict re-runs fn when the slug uniqueness constraint rejects
// an allocation, up to the configured number of attempts. Every other
// outcome is returned as is.
func (s *categoryService) retryOnSlugConflict(ctx context.Context, fn func() error) error {
	attempts := max(s.cfg.SlugMaxAttempts, 1)

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = fn()
		if !errors.Is(err, apperr.SlugConflictErr) {
			return err
		}

		s.logger.WarnContext(ctx, "slug taken concurrently",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", attempts),
		)
	}

	return err
}

func (s *categoryService) publishCategoryChanged(
	ctx context.Context,
	db db.DB,
	category model.Category,
	action event.CategoryAction,
) error {
	return publish(ctx, s.outboxMsgRepo.WithDB(db), event.TopicCategoryChanged, category.ID.String(),
		event.CategoryChangedEvent{
			CategoryID: category.ID.String(),
			Name:       category.Name,
			Slug:       category.Slug,
			Action:     action,
		})
}

func (s *categoryService) invalidateCategories(ctx context.Context) {
	if err := s.cache.Delete(ctx, categoriesCacheKey); err != nil {
		s.logger.WarnContext(ctx, "category cache invalidation failed", slog.Any("error", err))
	}
}
