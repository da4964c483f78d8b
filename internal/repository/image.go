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
	imageColumns = `id, product_id, key, url, is_primary, created_at`

	createImageSQL = `INSERT INTO product_image (id, product_id, key, url, is_primary, created_at)
		VALUES (@id, @product_id, @key, @url, @is_primary, @created_at)`

	clearPrimaryImageSQL = `UPDATE product_image SET is_primary = FALSE
		WHERE product_id = $1 AND is_primary`

	getImageSQL = `SELECT ` + imageColumns + ` FROM product_image WHERE id = $1`

	listImagesSQL = `SELECT ` + imageColumns + ` FROM product_image
		WHERE product_id = $1
		ORDER BY is_primary DESC, created_at, id`

	deleteImageSQL = `DELETE FROM product_image WHERE id = $1 RETURNING ` + imageColumns
)

type ImageRepository interface {
	WithDB(db db.DB) ImageRepository
	// CreateImage stores image metadata. A primary image demotes the
	// product's previous primary image.
	CreateImage(ctx context.Context, image model.ProductImage) error
	GetImage(ctx context.Context, id uuid.UUID) (model.ProductImage, error)
	ListImages(ctx context.Context, productID uuid.UUID) ([]model.ProductImage, error)
	DeleteImage(ctx context.Context, id uuid.UUID) (model.ProductImage, error)
}

type imageRepository struct {
	db db.DB
}

func NewImageRepository(db db.DB) ImageRepository {
	return &imageRepository{db: db}
}

func (r imageRepository) WithDB(db db.DB) ImageRepository {
	return &imageRepository{db: db}
}

func (r imageRepository) CreateImage(ctx context.Context, image model.ProductImage) error {
	return r.db.WithTx(ctx, func(tx db.DB) error {
		if image.Primary {
			if _, err := tx.Exec(ctx, clearPrimaryImageSQL, image.ProductID); err != nil {
				return fmt.Errorf("clear primary image: %w", err)
			}
		}

		if _, err := tx.Exec(ctx, createImageSQL, pgx.NamedArgs{
			"id":         image.ID,
			"product_id": image.ProductID,
			"key":        image.Key,
			"url":        image.URL,
			"is_primary": image.Primary,
			"created_at": image.CreatedAt,
		}); err != nil {
			return fmt.Errorf("insert image: %w", mapPgErr(err))
		}

		return nil
	})
}

func (r imageRepository) GetImage(ctx context.Context, id uuid.UUID) (model.ProductImage, error) {
	rows, err := r.db.Query(ctx, getImageSQL, id)
	if err != nil {
		return model.ProductImage{}, fmt.Errorf("query image: %w", err)
	}
	return collectImage(rows)
}

func (r imageRepository) ListImages(ctx context.Context, productID uuid.UUID) ([]model.ProductImage, error) {
	rows, err := r.db.Query(ctx, listImagesSQL, productID)
	if err != nil {
		return nil, fmt.Errorf("query images: %w", err)
	}

	images, err := pgx.CollectRows(rows, scanImage)
	if err != nil {
		return nil, fmt.Errorf("collect images: %w", err)
	}

	return images, nil
}

func (r imageRepository) DeleteImage(ctx context.Context, id uuid.UUID) (model.ProductImage, error) {
	rows, err := r.db.Query(ctx, deleteImageSQL, id)
	if err != nil {
		return model.ProductImage{}, fmt.Errorf("delete image: %w", err)
	}
	return collectImage(rows)
}

func collectImage(rows pgx.Rows) (model.ProductImage, error) {
	image, err := pgx.CollectExactlyOneRow(rows, scanImage)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ProductImage{}, apperr.ImageNotFoundErr
		}
		return model.ProductImage{}, fmt.Errorf("collect image: %w", err)
	}
	return image, nil
}

func scanImage(row pgx.CollectableRow) (model.ProductImage, error) {
	var i model.ProductImage
	err := row.Scan(&i.ID, &i.ProductID, &i.Key, &i.URL, &i.Primary, &i.CreatedAt)
	return i, err
}
