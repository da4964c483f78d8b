package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tuanvumaihuynh/catalog-service/internal/apperr"
)

const maxJSONBodyBytes = 1 << 20

type createCategoryRequest struct {
	Name string `json:"name"`
}

type createProductRequest struct {
	Sku         string           `json:"sku"`
	Name        string           `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Currency    *string          `json:"currency"`
	Quantity    *int             `json:"quantity"`
	CategoryIDs []uuid.UUID      `json:"categoryIds"`
}

type updateProductRequest struct {
	Sku         string  `json:"sku"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

type patchProductRequest struct {
	Sku         *string `json:"sku"`
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

type setPriceRequest struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// decodeJSON decodes the request body into dst. Unknown fields and
// trailing data are rejected.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxJSONBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.ValidationErr.WithMsg("request body is required")
		}
		return apperr.ValidationErr.WithMsg(fmt.Sprintf("invalid request body: %v", err))
	}
	if dec.More() {
		return apperr.ValidationErr.WithMsg("request body must contain a single JSON object")
	}
	return nil
}
