package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/tuanvumaihuynh/catalog-service/internal/filter"
	"github.com/tuanvumaihuynh/catalog-service/internal/model"
	"github.com/tuanvumaihuynh/catalog-service/internal/service"
)

type productHandler struct {
	logger     *slog.Logger
	productSvc service.ProductService
}

func newProductHandler(logger *slog.Logger, productSvc service.ProductService) *productHandler {
	return &productHandler{
		logger:     logger,
		productSvc: productSvc,
	}
}

func (h *productHandler) ListProducts(w http.ResponseWriter, r *http.Request) error {
	return h.search(w, r, filter.Filter{})
}

func (h *productHandler) SearchProducts(w http.ResponseWriter, r *http.Request) error {
	f, err := searchFilter(r)
	if err != nil {
		return err
	}
	return h.search(w, r, f)
}

func (h *productHandler) search(w http.ResponseWriter, r *http.Request, f filter.Filter) error {
	page, err := pageRequest(r)
	if err != nil {
		return err
	}

	products, err := h.productSvc.SearchProducts(r.Context(), f, page)
	if err != nil {
		return fmt.Errorf("product service search products: %w", err)
	}

	writeJSON(w, r, h.logger, http.StatusOK, model.MapPage(products, toProductResponse))
	return nil
}

func (h *productHandler) GetProduct(w http.ResponseWriter, r *http.Request) error {
	id, err := pathUUID(r, "id")
	if err != nil {
		return err
	}

	product, err := h.productSvc.GetProduct(r.Context(), id)
	if err != nil {
		return fmt.Errorf("product service get product: %w", err)
	}

	writeJSON(w, r, h.logger, http.StatusOK, toProductResponse(product))
	return nil
}

func (h *productHandler) GetInternalProduct(w http.ResponseWriter, r *http.Request) error {
	id, err := pathUUID(r, "id")
	if err != nil {
		return err
	}

	product, err := h.productSvc.GetInternalProduct(r.Context(), id)
	if err != nil {
		return fmt.Errorf("product service get internal product: %w", err)
	}

	writeJSON(w, r, h.logger, http.StatusOK, toInternalProductResponse(product))
	return nil
}

func (h *productHandler) ListImages(w http.ResponseWriter, r *http.Request) error {
	id, err := pathUUID(r, "id")
	if err != nil {
		return err
	}

	images, err := h.productSvc.ListImages(r.Context(), id)
	if err != nil {
		return fmt.Errorf("product service list images: %w", err)
	}

	writeJSON(w, r, h.logger, http.StatusOK, mapSlice(images, toImageResponse))
	return nil
}

func (h *productHandler) CreateProduct(w http.ResponseWriter, r *http.Request) error {
	var body createProductRequest
	if err := decodeJSON(r, &body); err != nil {
		return err
	}

	product, err := h.productSvc.CreateProduct(r.Context(), service.CreateProductParams{
		Sku:         body.Sku,
		Name:        body.Name,
		Description: body.Description,
		Price:       body.Price,
		Currency:    body.Currency,
		Quantity:    body.Quantity,
		CategoryIDs: body.CategoryIDs,
	})
	if err != nil {
		return fmt.Errorf("product service create product: %w", err)
	}

	writeJSON(w, r, h.logger, http.StatusCreated, toProductResponse(product))
	return nil
}

func (h *productHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) error {
	id, err := pathUUID(r, "id")
	if err != nil {
		return err
	}

	var body updateProductRequest
	if err := decodeJSON(r, &body); err != nil {
		return err
	}

	product, err := h.productSvc.UpdateProduct(r.Context(), id, service.UpdateProductParams{
		Sku:         body.Sku,
		Name:        body.Name,
		Description: body.Description,
	})
	if err != nil {
		return fmt.Errorf("product service update product: %w", err)
	}

	writeJSON(w, r, h.logger, http.StatusOK, toProductResponse(product))
	return nil
}

func (h *productHandler) PatchProduct(w http.ResponseWriter, r *http.Request) error {
	id, err := pathUUID(r, "id")
	if err != nil {
		return err
	}

	var body patchProductRequest
	if err := decodeJSON(r, &body); err != nil {
		return err
	}

	product, err := h.productSvc.PatchProduct(r.Context(), id, service.PatchProductParams{
		Sku:         body.Sku,
		Name:        body.Name,
		Description: body.Description,
	})
	if err != nil {
		return fmt.Errorf("product service patch product: %w", err)
	}

	writeJSON(w, r, h.logger, http.StatusOK, toProductResponse(product))
	return nil
}

func (h *productHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) error {
	id, err := pathUUID(r, "id")
	if err != nil {
		return err
	}

	if err := h.productSvc.DeleteProduct(r.Context(), id); err != nil {
		return fmt.Errorf("product service delete product: %w", err)
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (h *productHandler) AssignCategory(w http.ResponseWriter, r *http.Request) error {
	productID, err := pathUUID(r, "id")
	if err != nil {
		return err
	}
	categoryID, err := pathUUID(r, "categoryId")
	if err != nil {
		return err
	}

	if err := h.productSvc.AssignCategory(r.Context(), productID, categoryID); err != nil {
		return fmt.Errorf("product service assign category: %w", err)
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (h *productHandler) UnassignCategory(w http.ResponseWriter, r *http.Request) error {
	productID, err := pathUUID(r, "id")
	if err != nil {
		return err
	}
	categoryID, err := pathUUID(r, "categoryId")
	if err != nil {
		return err
	}

	if err := h.productSvc.UnassignCategory(r.Context(), productID, categoryID); err != nil {
		return fmt.Errorf("product service unassign category: %w", err)
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}
