package filter

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Candidate is a product with the related data a Predicate can test.
type Candidate struct {
	SKU          string
	Name         string
	CategoryIDs  []uuid.UUID
	CurrentPrice *decimal.Decimal
	Quantity     *int
}

type row map[Field]any

// Matches evaluates p against c in memory.
func (p Predicate) Matches(c Candidate) bool {
	product := row{FieldSKU: c.SKU, FieldName: c.Name}
	for _, cl := range p.Clauses {
		if !evaluate(cl, product, c) {
			return false
		}
	}
	return true
}

func evaluate(cl Clause, r row, c Candidate) bool {
	switch cl := cl.(type) {
	case Equal:
		v, ok := r[cl.Field]
		return ok && equalValues(v, cl.Value)
	case Contains:
		v, ok := r[cl.Field].(string)
		return ok && strings.Contains(strings.ToLower(v), cl.Term)
	case Range:
		v, ok := toDecimal(r[cl.Field])
		return ok && inRange(v, cl.Lower, cl.Upper)
	case Exists:
		for _, related := range relatedRows(cl.Relation, c) {
			if allMatch(cl.Where, related, c) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func allMatch(clauses []Clause, r row, c Candidate) bool {
	for _, cl := range clauses {
		if !evaluate(cl, r, c) {
			return false
		}
	}
	return true
}

func relatedRows(rel Relation, c Candidate) []row {
	switch rel {
	case RelationCategories:
		rows := make([]row, 0, len(c.CategoryIDs))
		for _, id := range c.CategoryIDs {
			rows = append(rows, row{FieldCategoryID: id})
		}
		return rows
	case RelationCurrentPrice:
		if c.CurrentPrice == nil {
			return nil
		}
		return []row{{FieldAmount: *c.CurrentPrice}}
	case RelationInventory:
		if c.Quantity == nil {
			return nil
		}
		return []row{{FieldQuantity: *c.Quantity}}
	default:
		return nil
	}
}

func inRange(v decimal.Decimal, lower, upper *Bound) bool {
	if lower != nil {
		if lower.Inclusive && v.LessThan(lower.Value) {
			return false
		}
		if !lower.Inclusive && v.LessThanOrEqual(lower.Value) {
			return false
		}
	}
	if upper != nil {
		if upper.Inclusive && v.GreaterThan(upper.Value) {
			return false
		}
		if !upper.Inclusive && v.GreaterThanOrEqual(upper.Value) {
			return false
		}
	}
	return true
}

func equalValues(a, b any) bool {
	da, okA := toDecimal(a)
	db, okB := toDecimal(b)
	if okA && okB {
		return da.Equal(db)
	}
	return a == b
}

func toDecimal(v any) (decimal.Decimal, bool) {
	switch v := v.(type) {
	case decimal.Decimal:
		return v, true
	case int:
		return decimal.NewFromInt(int64(v)), true
	case int64:
		return decimal.NewFromInt(v), true
	default:
		return decimal.Decimal{}, false
	}
}
