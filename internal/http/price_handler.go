package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/tuanvumaihuynh/catalog-service/internal/service"
)

type priceHandler struct {
	logger   *slog.Logger
	priceSvc service.PriceService
}

func newPriceHandler(logger *slog.Logger, priceSvc service.PriceService) *priceHandler {
	return &priceHandler{
		logger:   logger,
		priceSvc: priceSvc,
	}
}

func (h *priceHandler) GetCurrentPrice(w http.ResponseWriter, r *http.Request) error {
	id, err := pathUUID(r, "id")
	if err != nil {
		return err
	}

	price, err := h.priceSvc.CurrentPrice(r.Context(), id)
	if err != nil {
		return fmt.Errorf("price service current price: %w", err)
	}

	writeJSON(w, r, h.logger, http.StatusOK, toPriceResponse(price))
	return nil
}

func (h *priceHandler) ListPrices(w http.ResponseWriter, r *http.Request) error {
	id, err := pathUUID(r, "id")
	if err != nil {
		return err
	}

	prices, err := h.priceSvc.PriceHistory(r.Context(), id)
	if err != nil {
		return fmt.Errorf("price service price history: %w", err)
	}

	writeJSON(w, r, h.logger, http.StatusOK, mapSlice(prices, toPriceResponse))
	return nil
}

func (h *priceHandler) SetPrice(w http.ResponseWriter, r *http.Request) error {
	productID, err := pathUUID(r, "productId")
	if err != nil {
		return err
	}

	var body setPriceRequest
	if err := decodeJSON(r, &body); err != nil {
		return err
	}

	price, err := h.priceSvc.SetPrice(r.Context(), productID, service.SetPriceParams{
		Amount:   body.Amount,
		Currency: body.Currency,
	})
	if err != nil {
		return fmt.Errorf("price service set price: %w", err)
	}

	writeJSON(w, r, h.logger, http.StatusOK, toPriceResponse(price))
	return nil
}
