package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/tuanvumaihuynh/catalog-service/internal/apperr"
	"github.com/tuanvumaihuynh/catalog-service/internal/model"
	"github.com/tuanvumaihuynh/catalog-service/internal/storage/db"
)

const (
	priceColumns = `id, product_id, amount, currency, seq, created_at`

	latestPriceOrder = `ORDER BY created_at DESC, seq DESC`

	insertPriceSQL = `INSERT INTO product_price (id, product_id, amount, currency, created_at)
		VALUES (@id, @product_id, @amount, @currency, @created_at)
		RETURNING ` + priceColumns

	// The latest row keeps its id, product and created_at.
	overwriteLatestPriceSQL = `UPDATE product_price
		SET amount = @amount, currency = @currency
		WHERE id = (
			SELECT id FROM product_price
			WHERE product_id = @product_id
			` + latestPriceOrder + `
			LIMIT 1
			FOR UPDATE
		)
		RETURNING ` + priceColumns

	currentPriceSQL = `SELECT ` + priceColumns + ` FROM product_price
		WHERE product_id = $1
		` + latestPriceOrder + `
		LIMIT 1`

	listPricesSQL = `SELECT ` + priceColumns + ` FROM product_price
		WHERE product_id = $1
		` + latestPriceOrder
)

type PriceRepository interface {
	WithDB(db db.DB) PriceRepository
	InsertPrice(ctx context.Context, price model.Price) (model.Price, error)
	// OverwriteLatestPrice updates the current observation in place. It
	// reports false when the product has no observation yet.
	OverwriteLatestPrice(ctx context.Context, productID uuid.UUID, amount decimal.Decimal, currency string) (model.Price, bool, error)
	CurrentPrice(ctx context.Context, productID uuid.UUID) (model.Price, error)
	ListPrices(ctx context.Context, productID uuid.UUID) ([]model.Price, error)
}

type priceRepository struct {
	db db.DB
}

func NewPriceRepository(db db.DB) PriceRepository {
	return &priceRepository{db: db}
}

func (r priceRepository) WithDB(db db.DB) PriceRepository {
	return &priceRepository{db: db}
}

func (r priceRepository) InsertPrice(ctx context.Context, price model.Price) (model.Price, error) {
	rows, err := r.db.Query(ctx, insertPriceSQL, pgx.NamedArgs{
		"id":         price.ID,
		"product_id": price.ProductID,
		"amount":     price.Amount,
		"currency":   price.Currency,
		"created_at": price.CreatedAt,
	})
	if err != nil {
		return model.Price{}, fmt.Errorf("insert price: %w", mapPgErr(err))
	}

	inserted, err := pgx.CollectExactlyOneRow(rows, scanPrice)
	if err != nil {
		return model.Price{}, fmt.Errorf("collect inserted price: %w", mapPgErr(err))
	}

	return inserted, nil
}

func (r priceRepository) OverwriteLatestPrice(
	ctx context.Context,
	productID uuid.UUID,
	amount decimal.Decimal,
	currency string,
) (model.Price, bool, error) {
	rows, err := r.db.Query(ctx, overwriteLatestPriceSQL, pgx.NamedArgs{
		"product_id": productID,
		"amount":     amount,
		"currency":   currency,
	})
	if err != nil {
		return model.Price{}, false, fmt.Errorf("overwrite price: %w", mapPgErr(err))
	}

	updated, err := pgx.CollectExactlyOneRow(rows, scanPrice)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Price{}, false, nil
		}
		return model.Price{}, false, fmt.Errorf("collect overwritten price: %w", mapPgErr(err))
	}

	return updated, true, nil
}

func (r priceRepository) CurrentPrice(ctx context.Context, productID uuid.UUID) (model.Price, error) {
	rows, err := r.db.Query(ctx, currentPriceSQL, productID)
	if err != nil {
		return model.Price{}, fmt.Errorf("query current price: %w", err)
	}

	price, err := pgx.CollectExactlyOneRow(rows, scanPrice)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Price{}, apperr.PriceNotSetErr
		}
		return model.Price{}, fmt.Errorf("collect current price: %w", err)
	}

	return price, nil
}

func (r priceRepository) ListPrices(ctx context.Context, productID uuid.UUID) ([]model.Price, error) {
	rows, err := r.db.Query(ctx, listPricesSQL, productID)
	if err != nil {
		return nil, fmt.Errorf("query prices: %w", err)
	}

	prices, err := pgx.CollectRows(rows, scanPrice)
	if err != nil {
		return nil, fmt.Errorf("collect prices: %w", err)
	}

	return prices, nil
}

func scanPrice(row pgx.CollectableRow) (model.Price, error) {
	var p model.Price
	err := row.Scan(&p.ID, &p.ProductID, &p.Amount, &p.Currency, &p.Seq, &p.CreatedAt)
	return p, err
}
