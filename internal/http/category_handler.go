package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/tuanvumaihuynh/catalog-service/internal/model"
	"github.com/tuanvumaihuynh/catalog-service/internal/service"
)

type categoryHandler struct {
	logger      *slog.Logger
	categorySvc service.CategoryService
}

func newCategoryHandler(logger *slog.Logger, categorySvc service.CategoryService) *categoryHandler {
	return &categoryHandler{
		logger:      logger,
		categorySvc: categorySvc,
	}
}

func (h *categoryHandler) ListCategories(w http.ResponseWriter, r *http.Request) error {
	categories, err := h.categorySvc.ListCategories(r.Context())
	if err != nil {
		return fmt.Errorf("category service list categories: %w", err)
	}

	writeJSON(w, r, h.logger, http.StatusOK, mapSlice(categories, toCategoryResponse))
	return nil
}

func (h *categoryHandler) ListCategoryProducts(w http.ResponseWriter, r *http.Request) error {
	id, err := pathUUID(r, "id")
	if err != nil {
		return err
	}
	page, err := pageRequest(r)
	if err != nil {
		return err
	}

	products, err := h.categorySvc.ListCategoryProducts(r.Context(), id, page)
	if err != nil {
		return fmt.Errorf("category service list category products: %w", err)
	}

	writeJSON(w, r, h.logger, http.StatusOK, model.MapPage(products, toProductResponse))
	return nil
}

func (h *categoryHandler) CreateCategory(w http.ResponseWriter, r *http.Request) error {
	var body createCategoryRequest
	if err := decodeJSON(r, &body); err != nil {
		return err
	}

	category, err := h.categorySvc.CreateCategory(r.Context(), service.CreateCategoryParams{Name: body.Name})
	if err != nil {
		return fmt.Errorf("category service create category: %w", err)
	}

	writeJSON(w, r, h.logger, http.StatusCreated, toCategoryResponse(category))
	return nil
}

func (h *categoryHandler) RenameCategory(w http.ResponseWriter, r *http.Request) error {
	id, err := pathUUID(r, "id")
	if err != nil {
		return err
	}

	var body createCategoryRequest
	if err := decodeJSON(r, &body); err != nil {
		return err
	}

	category, err := h.categorySvc.RenameCategory(r.Context(), id, service.RenameCategoryParams{Name: body.Name})
	if err != nil {
		return fmt.Errorf("category service rename category: %w", err)
	}

	writeJSON(w, r, h.logger, http.StatusOK, toCategoryResponse(category))
	return nil
}

func (h *categoryHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) error {
	id, err := pathUUID(r, "id")
	if err != nil {
		return err
	}

	if err := h.categorySvc.DeleteCategory(r.Context(), id); err != nil {
		return fmt.Errorf("category service delete category: %w", err)
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (h *categoryHandler) DeleteCategoryBySlug(w http.ResponseWriter, r *http.Request) error {
	slug, err := pathString(r, "slug")
	if err != nil {
		return err
	}

	if err := h.categorySvc.DeleteCategoryBySlug(r.Context(), slug); err != nil {
		return fmt.Errorf("category service delete category by slug: %w", err)
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}
