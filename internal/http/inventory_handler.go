package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/tuanvumaihuynh/catalog-service/internal/model"
	"github.com/tuanvumaihuynh/catalog-service/internal/service"
)

type inventoryHandler struct {
	logger       *slog.Logger
	inventorySvc service.InventoryService
}

func newInventoryHandler(logger *slog.Logger, inventorySvc service.InventoryService) *inventoryHandler {
	return &inventoryHandler{
		logger:       logger,
		inventorySvc: inventorySvc,
	}
}

type inventoryOp func(ctx context.Context, productID uuid.UUID, qty int) (model.Inventory, error)

// apply binds the product path parameter and the qty query parameter and
// runs op with them.
func (h *inventoryHandler) apply(w http.ResponseWriter, r *http.Request, param, name string, op inventoryOp) error {
	productID, err := pathUUID(r, param)
	if err != nil {
		return err
	}
	qty, err := queryInt(r, "qty")
	if err != nil {
		return err
	}

	inv, err := op(r.Context(), productID, qty)
	if err != nil {
		return fmt.Errorf("inventory service %s: %w", name, err)
	}

	writeJSON(w, r, h.logger, http.StatusOK, toInventoryResponse(inv))
	return nil
}

func (h *inventoryHandler) Reserve(w http.ResponseWriter, r *http.Request) error {
	return h.apply(w, r, "id", "reserve", h.inventorySvc.Reserve)
}

func (h *inventoryHandler) Release(w http.ResponseWriter, r *http.Request) error {
	return h.apply(w, r, "id", "release", h.inventorySvc.Release)
}

func (h *inventoryHandler) SetQuantity(w http.ResponseWriter, r *http.Request) error {
	return h.apply(w, r, "productId", "set quantity", h.inventorySvc.SetQuantity)
}

func (h *inventoryHandler) GetQuantity(w http.ResponseWriter, r *http.Request) error {
	productID, err := pathUUID(r, "productId")
	if err != nil {
		return err
	}

	inv, err := h.inventorySvc.GetQuantity(r.Context(), productID)
	if err != nil {
		return fmt.Errorf("inventory service get quantity: %w", err)
	}

	writeJSON(w, r, h.logger, http.StatusOK, toInventoryResponse(inv))
	return nil
}
