package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/tuanvumaihuynh/catalog-service/internal/apperr"
	"github.com/tuanvumaihuynh/catalog-service/internal/model"
	"github.com/tuanvumaihuynh/catalog-service/internal/storage/db"
)

const (
	inventoryColumns = `product_id, quantity, updated_at`

	createInventorySQL = `INSERT INTO product_inventory (product_id, quantity, updated_at)
		VALUES ($1, $2, $3)`

	getInventorySQL = `SELECT ` + inventoryColumns + ` FROM product_inventory WHERE product_id = $1`

	// The stock check and the decrement are one statement, so two racing
	// reservations can never both pass the check.
	reserveSQL = `UPDATE product_inventory
		SET quantity = quantity - @qty, updated_at = @updated_at
		WHERE product_id = @product_id AND quantity >= @qty
		RETURNING ` + inventoryColumns

	releaseSQL = `UPDATE product_inventory
		SET quantity = quantity + @qty, updated_at = @updated_at
		WHERE product_id = @product_id
		RETURNING ` + inventoryColumns

	setQuantitySQL = `UPDATE product_inventory
		SET quantity = @qty, updated_at = @updated_at
		WHERE product_id = @product_id
		RETURNING ` + inventoryColumns

	inventoryExistsSQL = `SELECT EXISTS (SELECT 1 FROM product_inventory WHERE product_id = $1)`
)

type InventoryRepository interface {
	WithDB(db db.DB) InventoryRepository
	CreateInventory(ctx context.Context, inventory model.Inventory) error
	GetInventory(ctx context.Context, productID uuid.UUID) (model.Inventory, error)
	Reserve(ctx context.Context, productID uuid.UUID, qty int, at time.Time) (model.Inventory, error)
	Release(ctx context.Context, productID uuid.UUID, qty int, at time.Time) (model.Inventory, error)
	SetQuantity(ctx context.Context, productID uuid.UUID, qty int, at time.Time) (model.Inventory, error)
}

type inventoryRepository struct {
	db db.DB
}

func NewInventoryRepository(db db.DB) InventoryRepository {
	return &inventoryRepository{db: db}
}

func (r inventoryRepository) WithDB(db db.DB) InventoryRepository {
	return &inventoryRepository{db: db}
}

func (r inventoryRepository) CreateInventory(ctx context.Context, inventory model.Inventory) error {
	if _, err := r.db.Exec(ctx, createInventorySQL,
		inventory.ProductID, inventory.Quantity, inventory.UpdatedAt); err != nil {
		return fmt.Errorf("insert inventory: %w", mapPgErr(err))
	}
	return nil
}

func (r inventoryRepository) GetInventory(ctx context.Context, productID uuid.UUID) (model.Inventory, error) {
	rows, err := r.db.Query(ctx, getInventorySQL, productID)
	if err != nil {
		return model.Inventory{}, fmt.Errorf("query inventory: %w", err)
	}
	return collectInventory(rows)
}

// Reserve decrements the quantity by qty. When no row is updated, an
// existence probe tells a missing record from insufficient stock.
func (r inventoryRepository) Reserve(ctx context.Context, productID uuid.UUID, qty int, at time.Time) (model.Inventory, error) {
	rows, err := r.db.Query(ctx, reserveSQL, pgx.NamedArgs{
		"product_id": productID,
		"qty":        qty,
		"updated_at": at,
	})
	if err != nil {
		return model.Inventory{}, fmt.Errorf("reserve inventory: %w", mapPgErr(err))
	}

	inv, err := collectInventory(rows)
	if !errors.Is(err, apperr.InventoryNotFoundErr) {
		return inv, err
	}

	var exists bool
	if err := r.db.QueryRow(ctx, inventoryExistsSQL, productID).Scan(&exists); err != nil {
		return model.Inventory{}, fmt.Errorf("query inventory exists: %w", err)
	}
	if exists {
		return model.Inventory{}, apperr.InsufficientStockErr
	}
	return model.Inventory{}, apperr.InventoryNotFoundErr
}

func (r inventoryRepository) Release(ctx context.Context, productID uuid.UUID, qty int, at time.Time) (model.Inventory, error) {
	return r.update(ctx, releaseSQL, productID, qty, at)
}

func (r inventoryRepository) SetQuantity(ctx context.Context, productID uuid.UUID, qty int, at time.Time) (model.Inventory, error) {
	return r.update(ctx, setQuantitySQL, productID, qty, at)
}

func (r inventoryRepository) update(ctx context.Context, query string, productID uuid.UUID, qty int, at time.Time) (model.Inventory, error) {
	rows, err := r.db.Query(ctx, query, pgx.NamedArgs{
		"product_id": productID,
		"qty":        qty,
		"updated_at": at,
	})
	if err != nil {
		return model.Inventory{}, fmt.Errorf("update inventory: %w", mapPgErr(err))
	}
	return collectInventory(rows)
}

func collectInventory(rows pgx.Rows) (model.Inventory, error) {
	inv, err := pgx.CollectExactlyOneRow(rows, func(row pgx.CollectableRow) (model.Inventory, error) {
		var i model.Inventory
		err := row.Scan(&i.ProductID, &i.Quantity, &i.UpdatedAt)
		return i, err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Inventory{}, apperr.InventoryNotFoundErr
		}
		return model.Inventory{}, fmt.Errorf("collect inventory: %w", mapPgErr(err))
	}
	return inv, nil
}
