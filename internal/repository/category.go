package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/tuanvumaihuynh/catalog-service/internal/apperr"
	"github.com/tuanvumaihuynh/catalog-service/internal/model"
	"github.com/tuanvumaihuynh/catalog-service/internal/storage/db"
)

const (
	categoryColumns = `id, name, slug, created_at, updated_at`

	listCategoriesSQL = `SELECT ` + categoryColumns + ` FROM category ORDER BY name, id`

	getCategorySQL = `SELECT ` + categoryColumns + ` FROM category WHERE id = $1`

	lockCategorySQL = getCategorySQL + ` FOR UPDATE`

	createCategorySQL = `INSERT INTO category (id, name, slug, created_at, updated_at)
		VALUES (@id, @name, @slug, @created_at, @updated_at)`

	updateCategorySQL = `UPDATE category
		SET name = @name, slug = @slug, updated_at = @updated_at
		WHERE id = @id`

	deleteCategorySQL = `DELETE FROM category WHERE id = $1 RETURNING ` + categoryColumns

	deleteCategoryBySlugSQL = `DELETE FROM category WHERE slug = $1 RETURNING ` + categoryColumns

	categoryExistsSQL = `SELECT EXISTS (SELECT 1 FROM category WHERE id = $1)`

	slugExistsSQL = `SELECT EXISTS (SELECT 1 FROM category WHERE slug = $1)`

	lockSlugSQL = `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`
)

type CategoryRepository interface {
	WithDB(db db.DB) CategoryRepository
	ListCategories(ctx context.Context) ([]model.Category, error)
	GetCategory(ctx context.Context, id uuid.UUID) (model.Category, error)
	// LockCategory reads the category and holds a row lock until the
	// surrounding transaction ends.
	LockCategory(ctx context.Context, id uuid.UUID) (model.Category, error)
	CreateCategory(ctx context.Context, category model.Category) error
	UpdateCategory(ctx context.Context, category model.Category) error
	DeleteCategory(ctx context.Context, id uuid.UUID) (model.Category, error)
	DeleteCategoryBySlug(ctx context.Context, slug string) (model.Category, error)
	CategoryExists(ctx context.Context, id uuid.UUID) (bool, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	// LockSlug serializes slug allocations for base until the surrounding
	// transaction ends.
	LockSlug(ctx context.Context, base string) error
}

type categoryRepository struct {
	db db.DB
}

func NewCategoryRepository(db db.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r categoryRepository) WithDB(db db.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r categoryRepository) ListCategories(ctx context.Context) ([]model.Category, error) {
	rows, err := r.db.Query(ctx, listCategoriesSQL)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}

	categories, err := pgx.CollectRows(rows, scanCategory)
	if err != nil {
		return nil, fmt.Errorf("collect categories: %w", err)
	}

	return categories, nil
}

func (r categoryRepository) GetCategory(ctx context.Context, id uuid.UUID) (model.Category, error) {
	return r.collectOne(ctx, getCategorySQL, id)
}

func (r categoryRepository) LockCategory(ctx context.Context, id uuid.UUID) (model.Category, error) {
	return r.collectOne(ctx, lockCategorySQL, id)
}

func (r categoryRepository) CreateCategory(ctx context.Context, category model.Category) error {
	if _, err := r.db.Exec(ctx, createCategorySQL, pgx.NamedArgs{
		"id":         category.ID,
		"name":       category.Name,
		"slug":       category.Slug,
		"created_at": category.CreatedAt,
		"updated_at": category.UpdatedAt,
	}); err != nil {
		return fmt.Errorf("insert category: %w", mapPgErr(err))
	}

	return nil
}

func (r categoryRepository) UpdateCategory(ctx context.Context, category model.Category) error {
	tag, err := r.db.Exec(ctx, updateCategorySQL, pgx.NamedArgs{
		"id":         category.ID,
		"name":       category.Name,
		"slug":       category.Slug,
		"updated_at": category.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("update category: %w", mapPgErr(err))
	}
	if tag.RowsAffected() == 0 {
		return apperr.CategoryNotFoundErr
	}

	return nil
}

func (r categoryRepository) DeleteCategory(ctx context.Context, id uuid.UUID) (model.Category, error) {
	return r.collectOne(ctx, deleteCategorySQL, id)
}

func (r categoryRepository) DeleteCategoryBySlug(ctx context.Context, slug string) (model.Category, error) {
	return r.collectOne(ctx, deleteCategoryBySlugSQL, slug)
}

func (r categoryRepository) CategoryExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	if err := r.db.QueryRow(ctx, categoryExistsSQL, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("query category exists: %w", err)
	}
	return exists, nil
}

func (r categoryRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	if err := r.db.QueryRow(ctx, slugExistsSQL, slug).Scan(&exists); err != nil {
		return false, fmt.Errorf("query slug exists: %w", err)
	}
	return exists, nil
}

func (r categoryRepository) LockSlug(ctx context.Context, base string) error {
	if _, err := r.db.Exec(ctx, lockSlugSQL, base); err != nil {
		return fmt.Errorf("advisory lock slug: %w", mapPgErr(err))
	}
	return nil
}

func (r categoryRepository) collectOne(ctx context.Context, query string, arg any) (model.Category, error) {
	rows, err := r.db.Query(ctx, query, arg)
	if err != nil {
		return model.Category{}, fmt.Errorf("query category: %w", err)
	}

	category, err := pgx.CollectExactlyOneRow(rows, scanCategory)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Category{}, apperr.CategoryNotFoundErr
		}
		return model.Category{}, fmt.Errorf("collect category: %w", err)
	}

	return category, nil
}

func scanCategory(row pgx.CollectableRow) (model.Category, error) {
	var c model.Category
	err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}
