package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tuanvumaihuynh/catalog-service/internal/apperr"
	"github.com/tuanvumaihuynh/catalog-service/internal/config"
	"github.com/tuanvumaihuynh/catalog-service/internal/event"
	"github.com/tuanvumaihuynh/catalog-service/internal/model"
	"github.com/tuanvumaihuynh/catalog-service/internal/repository"
	"github.com/tuanvumaihuynh/catalog-service/internal/storage/db"
	"github.com/tuanvumaihuynh/catalog-service/pkg/validator"
)

type SetPriceParams struct {
	Amount   decimal.Decimal
	Currency string `validate:"required,currency"`
}

type PriceService interface {
	// SetPrice records a new price observation, or replaces the latest one
	// when the catalog runs in overwrite mode.
	SetPrice(ctx context.Context, productID uuid.UUID, params SetPriceParams) (model.Price, error)
	// CurrentPrice returns the most recent observation. Ties on creation
	// time go to the observation recorded last.
	CurrentPrice(ctx context.Context, productID uuid.UUID) (model.Price, error)
	PriceHistory(ctx context.Context, productID uuid.UUID) ([]model.Price, error)
}

type priceService struct {
	cfg           config.Catalog
	logger        *slog.Logger
	db            db.DB
	validator     validator.Validator
	productRepo   repository.ProductRepository
	priceRepo     repository.PriceRepository
	outboxMsgRepo repository.OutboxMsgRepository
}

func NewPriceService(
	cfg config.Catalog,
	logger *slog.Logger,
	db db.DB,
	validator validator.Validator,
	productRepo repository.ProductRepository,
	priceRepo repository.PriceRepository,
	outboxMsgRepo repository.OutboxMsgRepository,
) PriceService {
	return &priceService{
		cfg:           cfg,
		logger:        logger.With(slog.String("service", "price")),
		db:            db,
		validator:     validator,
		productRepo:   productRepo,
		priceRepo:     priceRepo,
		outboxMsgRepo: outboxMsgRepo,
	}
}

func (s *priceService) SetPrice(ctx context.Context, productID uuid.UUID, params SetPriceParams) (model.Price, error) {
	if err := validate(s.validator, params); err != nil {
		return model.Price{}, err
	}
	if err := validateAmount(params.Amount); err != nil {
		return model.Price{}, err
	}

	var price model.Price
	if err := s.db.WithTx(ctx, func(db db.DB) error {
		if err := requireProduct(ctx, s.productRepo.WithDB(db), productID); err != nil {
			return err
		}

		priceRepo := s.priceRepo.WithDB(db)

		var (
			overwritten bool
			err         error
		)
		if s.cfg.PriceMode == config.PriceModeOverwrite {
			price, overwritten, err = priceRepo.OverwriteLatestPrice(ctx, productID, params.Amount, params.Currency)
			if err != nil {
				return fmt.Errorf("price repository overwrite latest price: %w", err)
			}
		}

		if !overwritten {
			id, err := uuid.NewV7()
			if err != nil {
				return fmt.Errorf("generate uuid v7: %w", err)
			}

			price, err = priceRepo.InsertPrice(ctx, model.Price{
				ID:        id,
				ProductID: productID,
				Amount:    params.Amount,
				Currency:  params.Currency,
				CreatedAt: time.Now(),
			})
			if err != nil {
				return fmt.Errorf("price repository insert price: %w", err)
			}
		}

		return publish(ctx, s.outboxMsgRepo.WithDB(db), event.TopicPriceChanged, productID.String(),
			event.PriceChangedEvent{
				ProductID: productID.String(),
				PriceID:   price.ID.String(),
				Amount:    price.Amount,
				Currency:  price.Currency,
			})
	}); err != nil {
		return model.Price{}, fmt.Errorf("db with tx: %w", err)
	}

	s.logger.DebugContext(ctx, "price set",
		slog.String("product_id", productID.String()),
		slog.String("amount", price.Amount.StringFixed(2)),
		slog.String("currency", price.Currency),
		slog.String("mode", s.cfg.PriceMode.String()),
	)

	return price, nil
}

func (s *priceService) CurrentPrice(ctx context.Context, productID uuid.UUID) (model.Price, error) {
	price, err := s.priceRepo.CurrentPrice(ctx, productID)
	if err == nil {
		return price, nil
	}

	if errors.Is(err, apperr.PriceNotSetErr) {
		if err := requireProduct(ctx, s.productRepo, productID); err != nil {
			return model.Price{}, err
		}
	}
	return model.Price{}, fmt.Errorf("price repository current price: %w", err)
}

func (s *priceService) PriceHistory(ctx context.Context, productID uuid.UUID) ([]model.Price, error) {
	if err := requireProduct(ctx, s.productRepo, productID); err != nil {
		return nil, err
	}

	prices, err := s.priceRepo.ListPrices(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("price repository list prices: %w", err)
	}
	return prices, nil
}
