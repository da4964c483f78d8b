// Package filter compiles sparse product search criteria into a predicate of
// typed clauses that storage layers fold into their own query language.
package filter

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tuanvumaihuynh/catalog-service/internal/apperr"
)

// Filter holds optional search criteria. Nil fields place no constraint.
type Filter struct {
	SKU        *string
	Name       *string
	CategoryID *uuid.UUID
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	Available  *bool
}

// Compile turns f into a Predicate. Clauses appear in a fixed order: sku,
// name, category, price, availability. A blank name places no constraint.
func Compile(f Filter) (Predicate, error) {
	if err := validate(f); err != nil {
		return Predicate{}, err
	}

	var clauses []Clause

	if f.SKU != nil {
		clauses = append(clauses, Equal{Field: FieldSKU, Value: *f.SKU})
	}

	if f.Name != nil && strings.TrimSpace(*f.Name) != "" {
		clauses = append(clauses, Contains{Field: FieldName, Term: strings.ToLower(*f.Name)})
	}

	if f.CategoryID != nil {
		clauses = append(clauses, Exists{
			Relation: RelationCategories,
			Where:    []Clause{Equal{Field: FieldCategoryID, Value: *f.CategoryID}},
		})
	}

	if f.MinPrice != nil || f.MaxPrice != nil {
		r := Range{Field: FieldAmount}
		if f.MinPrice != nil {
			r.Lower = &Bound{Value: *f.MinPrice, Inclusive: true}
		}
		if f.MaxPrice != nil {
			r.Upper = &Bound{Value: *f.MaxPrice, Inclusive: true}
		}
		clauses = append(clauses, Exists{Relation: RelationCurrentPrice, Where: []Clause{r}})
	}

	if f.Available != nil {
		var stock Clause = Equal{Field: FieldQuantity, Value: 0}
		if *f.Available {
			stock = Range{Field: FieldQuantity, Lower: &Bound{Value: decimal.Zero}}
		}
		clauses = append(clauses, Exists{Relation: RelationInventory, Where: []Clause{stock}})
	}

	return Predicate{Clauses: clauses}, nil
}

func validate(f Filter) error {
	if f.MinPrice != nil && f.MinPrice.IsNegative() {
		return apperr.ValidationErr.WithMsg("min price must be greater than or equal to 0")
	}
	if f.MaxPrice != nil && f.MaxPrice.IsNegative() {
		return apperr.ValidationErr.WithMsg("max price must be greater than or equal to 0")
	}
	if f.MinPrice != nil && f.MaxPrice != nil && f.MinPrice.GreaterThan(*f.MaxPrice) {
		return apperr.ValidationErr.WithMsg("min price must not exceed max price")
	}
	return nil
}
