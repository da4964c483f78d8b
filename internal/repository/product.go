package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/sync/errgroup"

	"github.com/tuanvumaihuynh/catalog-service/internal/apperr"
	"github.com/tuanvumaihuynh/catalog-service/internal/filter"
	"github.com/tuanvumaihuynh/catalog-service/internal/model"
	"github.com/tuanvumaihuynh/catalog-service/internal/storage/db"
)

const (
	productColumns = `p.id, p.sku, p.name, p.description, p.created_at, p.updated_at`

	createProductSQL = `INSERT INTO product (id, sku, name, description, created_at, updated_at)
		VALUES (@id, @sku, @name, @description, @created_at, @updated_at)`

	getProductSQL = `SELECT ` + productColumns + ` FROM product p WHERE p.id = $1`

	lockProductSQL = getProductSQL + ` FOR UPDATE`

	updateProductSQL = `UPDATE product AS p
		SET sku = @sku, name = @name, description = @description, updated_at = @updated_at
		WHERE p.id = @id
		RETURNING ` + productColumns

	deleteProductSQL = `DELETE FROM product WHERE id = $1`

	productExistsSQL = `SELECT EXISTS (SELECT 1 FROM product WHERE id = $1)`

	getInternalProductSQL = `SELECT p.id, p.name, cp.amount, cp.currency, pi.quantity
		FROM product p
		LEFT JOIN LATERAL (
			SELECT pp.amount, pp.currency
			FROM product_price pp
			WHERE pp.product_id = p.id
			ORDER BY pp.created_at DESC, pp.seq DESC
			LIMIT 1
		) cp ON TRUE
		LEFT JOIN product_inventory pi ON pi.product_id = p.id
		WHERE p.id = $1`

	assignCategorySQL = `INSERT INTO product_category (product_id, category_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`

	unassignCategorySQL = `DELETE FROM product_category WHERE product_id = $1 AND category_id = $2`
)

type ProductRepository interface {
	WithDB(db db.DB) ProductRepository
	CreateProduct(ctx context.Context, product model.Product) error
	GetProduct(ctx context.Context, id uuid.UUID) (model.Product, error)
	// LockProduct reads the product and holds a row lock until the
	// surrounding transaction ends.
	LockProduct(ctx context.Context, id uuid.UUID) (model.Product, error)
	UpdateProduct(ctx context.Context, product model.Product) (model.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	ProductExists(ctx context.Context, id uuid.UUID) (bool, error)
	SearchProducts(ctx context.Context, pred filter.Predicate, page model.PageRequest) (model.Page[model.Product], error)
	GetInternalProduct(ctx context.Context, id uuid.UUID) (model.InternalProduct, error)
	AssignCategory(ctx context.Context, productID, categoryID uuid.UUID) error
	UnassignCategory(ctx context.Context, productID, categoryID uuid.UUID) error
}

type productRepository struct {
	db db.DB
}

func NewProductRepository(db db.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r productRepository) WithDB(db db.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r productRepository) CreateProduct(ctx context.Context, product model.Product) error {
	if _, err := r.db.Exec(ctx, createProductSQL, pgx.NamedArgs{
		"id":          product.ID,
		"sku":         product.Sku,
		"name":        product.Name,
		"description": product.Description,
		"created_at":  product.CreatedAt,
		"updated_at":  product.UpdatedAt,
	}); err != nil {
		return fmt.Errorf("insert product: %w", mapPgErr(err))
	}

	return nil
}

func (r productRepository) GetProduct(ctx context.Context, id uuid.UUID) (model.Product, error) {
	return r.getProduct(ctx, getProductSQL, id)
}

func (r productRepository) LockProduct(ctx context.Context, id uuid.UUID) (model.Product, error) {
	return r.getProduct(ctx, lockProductSQL, id)
}

func (r productRepository) getProduct(ctx context.Context, query string, id uuid.UUID) (model.Product, error) {
	rows, err := r.db.Query(ctx, query, id)
	if err != nil {
		return model.Product{}, fmt.Errorf("query product: %w", err)
	}

	product, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Product{}, apperr.ProductNotFoundErr
		}
		return model.Product{}, fmt.Errorf("collect product: %w", err)
	}

	return product, nil
}

func (r productRepository) UpdateProduct(ctx context.Context, product model.Product) (model.Product, error) {
	rows, err := r.db.Query(ctx, updateProductSQL, pgx.NamedArgs{
		"id":          product.ID,
		"sku":         product.Sku,
		"name":        product.Name,
		"description": product.Description,
		"updated_at":  product.UpdatedAt,
	})
	if err != nil {
		return model.Product{}, fmt.Errorf("update product: %w", mapPgErr(err))
	}

	updated, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Product{}, apperr.ProductNotFoundErr
		}
		return model.Product{}, fmt.Errorf("collect updated product: %w", mapPgErr(err))
	}

	return updated, nil
}

func (r productRepository) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, deleteProductSQL, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.ProductNotFoundErr
	}

	return nil
}

func (r productRepository) ProductExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	if err := r.db.QueryRow(ctx, productExistsSQL, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("query product exists: %w", err)
	}
	return exists, nil
}

// SearchProducts renders pred once and runs the count and the page query
// with the same expression. On the pool both run concurrently; inside a
// transaction they share one connection and run in turn.
func (r productRepository) SearchProducts(
	ctx context.Context,
	pred filter.Predicate,
	page model.PageRequest,
) (model.Page[model.Product], error) {
	where, args, err := renderPredicate(pred)
	if err != nil {
		return model.Page[model.Product]{}, fmt.Errorf("render predicate: %w", err)
	}

	countSQL := `SELECT count(*) FROM product p WHERE ` + where
	pageSQL := fmt.Sprintf(`SELECT %s FROM product p WHERE %s ORDER BY %s LIMIT @page_limit OFFSET @page_offset`,
		productColumns, where, orderBy(page.Sort))

	pageArgs := make(pgx.NamedArgs, len(args)+2)
	for k, v := range args {
		pageArgs[k] = v
	}
	pageArgs["page_limit"] = page.Size
	pageArgs["page_offset"] = page.Offset()

	var (
		total    int64
		products []model.Product
	)

	g, gctx := errgroup.WithContext(ctx)
	if _, pooled := r.db.(*db.Client); !pooled {
		g.SetLimit(1)
	}

	g.Go(func() error {
		if err := r.db.QueryRow(gctx, countSQL, args).Scan(&total); err != nil {
			return fmt.Errorf("count products: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		rows, err := r.db.Query(gctx, pageSQL, pageArgs)
		if err != nil {
			return fmt.Errorf("query products: %w", err)
		}
		products, err = pgx.CollectRows(rows, scanProduct)
		if err != nil {
			return fmt.Errorf("collect products: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return model.Page[model.Product]{}, err
	}

	return model.NewPage(products, page, total), nil
}

func (r productRepository) GetInternalProduct(ctx context.Context, id uuid.UUID) (model.InternalProduct, error) {
	rows, err := r.db.Query(ctx, getInternalProductSQL, id)
	if err != nil {
		return model.InternalProduct{}, fmt.Errorf("query internal product: %w", err)
	}

	product, err := pgx.CollectExactlyOneRow(rows, func(row pgx.CollectableRow) (model.InternalProduct, error) {
		var p model.InternalProduct
		err := row.Scan(&p.ID, &p.Name, &p.Price, &p.Currency, &p.Quantity)
		return p, err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.InternalProduct{}, apperr.ProductNotFoundErr
		}
		return model.InternalProduct{}, fmt.Errorf("collect internal product: %w", err)
	}

	return product, nil
}

func (r productRepository) AssignCategory(ctx context.Context, productID, categoryID uuid.UUID) error {
	if _, err := r.db.Exec(ctx, assignCategorySQL, productID, categoryID); err != nil {
		return fmt.Errorf("insert product category: %w", mapPgErr(err))
	}
	return nil
}

func (r productRepository) UnassignCategory(ctx context.Context, productID, categoryID uuid.UUID) error {
	if _, err := r.db.Exec(ctx, unassignCategorySQL, productID, categoryID); err != nil {
		return fmt.Errorf("delete product category: %w", err)
	}
	return nil
}

func scanProduct(row pgx.CollectableRow) (model.Product, error) {
	var p model.Product
	err := row.Scan(&p.ID, &p.Sku, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}
