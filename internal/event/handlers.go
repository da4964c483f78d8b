package event

import (
	"context"
	"log/slog"
)

func (s *Service) handleProductCreatedEvent(ctx context.Context, ev ProductCreatedEvent) error {
	s.logger.InfoContext(ctx, "product created",
		slog.String("product_id", ev.ProductID),
		slog.String("sku", ev.Sku),
	)
	return nil
}

func (s *Service) handleInventoryChangedEvent(ctx context.Context, ev InventoryChangedEvent) error {
	if ev.Quantity == 0 && ev.Reason != InventoryReasonCreate {
		s.logger.WarnContext(ctx, "product is out of stock",
			slog.String("product_id", ev.ProductID),
			slog.String("reason", string(ev.Reason)),
		)
		return nil
	}

	s.logger.DebugContext(ctx, "inventory changed",
		slog.String("product_id", ev.ProductID),
		slog.Int("quantity", ev.Quantity),
		slog.Int("delta", ev.Delta),
	)
	return nil
}
