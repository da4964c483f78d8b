package service

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/tuanvumaihuynh/catalog-service/internal/apperr"
)

var inventoryOpsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "catalog",
	Name:      "inventory_operations_total",
	Help:      "Inventory ledger operations by kind and outcome.",
}, []string{"op", "outcome"})

func recordInventoryOp(op string, err error) {
	inventoryOpsTotal.WithLabelValues(op, inventoryOutcome(err)).Inc()
}

func inventoryOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, apperr.InsufficientStockErr):
		return "insufficient_stock"
	case apperr.IsNotFound(err):
		return "not_found"
	case apperr.IsValidation(err):
		return "invalid"
	default:
		return "error"
	}
}
