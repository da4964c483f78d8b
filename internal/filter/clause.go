package filter

import "github.com/shopspring/decimal"

// Field names a column of the product aggregate or of a related set.
type Field string

const (
	FieldSKU        Field = "sku"
	FieldName       Field = "name"
	FieldCategoryID Field = "category_id"
	FieldAmount     Field = "amount"
	FieldQuantity   Field = "quantity"
)

// Relation names a set of rows related to a product.
type Relation string

const (
	// RelationCategories is the product's category memberships.
	RelationCategories Relation = "categories"
	// RelationCurrentPrice holds at most one row: the latest price observation.
	// A price range therefore matches on the current price only, not on
	// any earlier observation in the product's price history.
	RelationCurrentPrice Relation = "current_price"
	// RelationInventory holds at most one row: the inventory record.
	RelationInventory Relation = "inventory"
)

// Clause is one typed condition of a Predicate.
type Clause interface {
	isClause()
}

// Equal matches when Field equals Value.
type Equal struct {
	Field Field
	Value any
}

// Contains matches when the lower-cased Field contains Term. Term is already
// lower-cased.
type Contains struct {
	Field Field
	Term  string
}

// Bound is one side of a Range.
type Bound struct {
	Value     decimal.Decimal
	Inclusive bool
}

// Range matches when Field lies between Lower and Upper. A nil bound is open.
type Range struct {
	Field Field
	Lower *Bound
	Upper *Bound
}

// Exists matches when at least one row of Relation satisfies every Where
// clause.
type Exists struct {
	Relation Relation
	Where    []Clause
}

func (Equal) isClause()    {}
func (Contains) isClause() {}
func (Range) isClause()    {}
func (Exists) isClause()   {}

// Predicate is the conjunction of its clauses. An empty predicate matches
// every product.
type Predicate struct {
	Clauses []Clause
}

// IsEmpty reports whether the predicate places no constraint.
func (p Predicate) IsEmpty() bool {
	return len(p.Clauses) == 0
}
