package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tuanvumaihuynh/catalog-service/internal/apperr"
	"github.com/tuanvumaihuynh/catalog-service/internal/event"
	"github.com/tuanvumaihuynh/catalog-service/internal/model"
	"github.com/tuanvumaihuynh/catalog-service/internal/repository"
	"github.com/tuanvumaihuynh/catalog-service/internal/storage/db"
)

const (
	inventoryOpReserve = "reserve"
	inventoryOpRelease = "release"
	inventoryOpSet     = "set"
)

// InventoryService keeps stock levels non-negative. Reserve is the only
// operation that fails for lack of stock.
type InventoryService interface {
	Reserve(ctx context.Context, productID uuid.UUID, qty int) (model.Inventory, error)
	Release(ctx context.Context, productID uuid.UUID, qty int) (model.Inventory, error)
	SetQuantity(ctx context.Context, productID uuid.UUID, qty int) (model.Inventory, error)
	GetQuantity(ctx context.Context, productID uuid.UUID) (model.Inventory, error)
}

type inventoryService struct {
	logger        *slog.Logger
	db            db.DB
	inventoryRepo repository.InventoryRepository
	outboxMsgRepo repository.OutboxMsgRepository
}

func NewInventoryService(
	logger *slog.Logger,
	db db.DB,
	inventoryRepo repository.InventoryRepository,
	outboxMsgRepo repository.OutboxMsgRepository,
) InventoryService {
	return &inventoryService{
		logger:        logger.With(slog.String("service", "inventory")),
		db:            db,
		inventoryRepo: inventoryRepo,
		outboxMsgRepo: outboxMsgRepo,
	}
}

func (s *inventoryService) Reserve(ctx context.Context, productID uuid.UUID, qty int) (inv model.Inventory, err error) {
	defer func() { recordInventoryOp(inventoryOpReserve, err) }()

	if qty <= 0 {
		return model.Inventory{}, validatePositiveQty(qty)
	}

	return s.apply(ctx, productID, event.InventoryReasonReserve, func(repo repository.InventoryRepository) (model.Inventory, int, error) {
		// No stored level exceeds maxQuantity.
		if qty > maxQuantity {
			if _, err := repo.GetInventory(ctx, productID); err != nil {
				return model.Inventory{}, 0, fmt.Errorf("inventory repository get inventory: %w", err)
			}
			return model.Inventory{}, 0, apperr.InsufficientStockErr
		}

		inv, err := repo.Reserve(ctx, productID, qty, time.Now())
		if err != nil {
			return model.Inventory{}, 0, fmt.Errorf("inventory repository reserve: %w", err)
		}
		return inv, -qty, nil
	})
}

func (s *inventoryService) Release(ctx context.Context, productID uuid.UUID, qty int) (inv model.Inventory, err error) {
	defer func() { recordInventoryOp(inventoryOpRelease, err) }()

	if err := validatePositiveQty(qty); err != nil {
		return model.Inventory{}, err
	}

	return s.apply(ctx, productID, event.InventoryReasonRelease, func(repo repository.InventoryRepository) (model.Inventory, int, error) {
		inv, err := repo.Release(ctx, productID, qty, time.Now())
		if err != nil {
			return model.Inventory{}, 0, fmt.Errorf("inventory repository release: %w", err)
		}
		return inv, qty, nil
	})
}

func (s *inventoryService) SetQuantity(ctx context.Context, productID uuid.UUID, qty int) (inv model.Inventory, err error) {
	defer func() { recordInventoryOp(inventoryOpSet, err) }()

	if err := validateNonNegativeQty(qty); err != nil {
		return model.Inventory{}, err
	}

	return s.apply(ctx, productID, event.InventoryReasonSet, func(repo repository.InventoryRepository) (model.Inventory, int, error) {
		prev, err := repo.GetInventory(ctx, productID)
		if err != nil {
			return model.Inventory{}, 0, fmt.Errorf("inventory repository get inventory: %w", err)
		}

		inv, err := repo.SetQuantity(ctx, productID, qty, time.Now())
		if err != nil {
			return model.Inventory{}, 0, fmt.Errorf("inventory repository set quantity: %w", err)
		}
		return inv, qty - prev.Quantity, nil
	})
}

func (s *inventoryService) GetQuantity(ctx context.Context, productID uuid.UUID) (model.Inventory, error) {
	inv, err := s.inventoryRepo.GetInventory(ctx, productID)
	if err != nil {
		return model.Inventory{}, fmt.Errorf("inventory repository get inventory: %w", err)
	}
	return inv, nil
}

// apply runs op and the matching outbox message in one transaction. op
// returns the new stock level and the signed change it made.
func (s *inventoryService) apply(
	ctx context.Context,
	productID uuid.UUID,
	reason event.InventoryReason,
	op func(repo repository.InventoryRepository) (model.Inventory, int, error),
) (model.Inventory, error) {
	var inv model.Inventory
	if err := s.db.WithTx(ctx, func(db db.DB) error {
		var (
			delta int
			err   error
		)
		inv, delta, err = op(s.inventoryRepo.WithDB(db))
		if err != nil {
			return err
		}

		return publish(ctx, s.outboxMsgRepo.WithDB(db), event.TopicInventoryChanged, productID.String(),
			event.InventoryChangedEvent{
				ProductID: productID.String(),
				Quantity:  inv.Quantity,
				Delta:     delta,
				Reason:    reason,
			})
	}); err != nil {
		return model.Inventory{}, fmt.Errorf("db with tx: %w", err)
	}

	s.logger.DebugContext(ctx, "inventory changed",
		slog.String("product_id", productID.String()),
		slog.String("reason", string(reason)),
		slog.Int("quantity", inv.Quantity),
	)

	return inv, nil
}
