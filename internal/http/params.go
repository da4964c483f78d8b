package http

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"
	"github.com/shopspring/decimal"

	"github.com/tuanvumaihuynh/catalog-service/internal/apperr"
	"github.com/tuanvumaihuynh/catalog-service/internal/filter"
	"github.com/tuanvumaihuynh/catalog-service/internal/model"
)

func invalidParam(name string, err error) error {
	return apperr.ValidationErr.WithMsg(fmt.Sprintf("invalid format for parameter %s", name)).WrapParent(err)
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	var id uuid.UUID
	if err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true}); err != nil {
		return uuid.Nil, invalidParam(name, err)
	}
	return id, nil
}

func pathString(r *http.Request, name string) (string, error) {
	var s string
	if err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), &s,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true}); err != nil {
		return "", invalidParam(name, err)
	}
	return s, nil
}

func queryInt(r *http.Request, name string) (int, error) {
	var v int
	if err := runtime.BindQueryParameter("form", true, true, name, r.URL.Query(), &v); err != nil {
		return 0, invalidParam(name, err)
	}
	return v, nil
}

func queryOptional[T any](r *http.Request, name string) (*T, error) {
	var v *T
	if err := runtime.BindQueryParameter("form", true, false, name, r.URL.Query(), &v); err != nil {
		return nil, invalidParam(name, err)
	}
	return v, nil
}

func queryDecimal(r *http.Request, name string) (*decimal.Decimal, error) {
	s, err := queryOptional[string](r, name)
	if err != nil || s == nil || strings.TrimSpace(*s) == "" {
		return nil, err
	}

	d, err := decimal.NewFromString(strings.TrimSpace(*s))
	if err != nil {
		return nil, invalidParam(name, err)
	}
	return &d, nil
}

// pageRequest binds page, size and sort. Absent values are filled in by
// the services.
func pageRequest(r *http.Request) (model.PageRequest, error) {
	var req model.PageRequest

	page, err := queryOptional[int](r, "page")
	if err != nil {
		return req, err
	}
	if page != nil {
		req.Page = *page
	}

	size, err := queryOptional[int](r, "size")
	if err != nil {
		return req, err
	}
	if size != nil {
		req.Size = *size
	}

	var sort []string
	if err := runtime.BindQueryParameter("form", true, false, "sort", r.URL.Query(), &sort); err != nil {
		return req, invalidParam("sort", err)
	}
	if req.Sort, err = model.ParseSort(sort); err != nil {
		return req, apperr.ValidationErr.WithMsg(err.Error())
	}

	return req, nil
}

// searchFilter binds the product search parameters. Empty text parameters
// are treated as absent.
func searchFilter(r *http.Request) (filter.Filter, error) {
	var (
		f   filter.Filter
		err error
	)

	if f.SKU, err = queryOptional[string](r, "sku"); err != nil {
		return f, err
	}
	if f.SKU != nil && strings.TrimSpace(*f.SKU) == "" {
		f.SKU = nil
	}
	if f.Name, err = queryOptional[string](r, "name"); err != nil {
		return f, err
	}
	if f.CategoryID, err = queryOptional[uuid.UUID](r, "categoryId"); err != nil {
		return f, err
	}
	if f.MinPrice, err = queryDecimal(r, "minPrice"); err != nil {
		return f, err
	}
	if f.MaxPrice, err = queryDecimal(r, "maxPrice"); err != nil {
		return f, err
	}
	if f.Available, err = queryOptional[bool](r, "available"); err != nil {
		return f, err
	}

	return f, nil
}
