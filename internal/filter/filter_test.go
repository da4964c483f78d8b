package filter_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanvumaihuynh/catalog-service/internal/apperr"
	"github.com/tuanvumaihuynh/catalog-service/internal/filter"
	"github.com/tuanvumaihuynh/catalog-service/pkg/ptr"
)

func priced(sku string, amount int64) filter.Candidate {
	return filter.Candidate{
		SKU:          sku,
		Name:         "Product " + sku,
		CurrentPrice: ptr.New(decimal.NewFromInt(amount)),
	}
}

func stocked(sku string, qty int) filter.Candidate {
	return filter.Candidate{SKU: sku, Name: sku, Quantity: ptr.New(qty)}
}

func matching(t *testing.T, f filter.Filter, candidates []filter.Candidate) []string {
	t.Helper()

	p, err := filter.Compile(f)
	require.NoError(t, err)

	var skus []string
	for _, c := range candidates {
		if p.Matches(c) {
			skus = append(skus, c.SKU)
		}
	}
	return skus
}

func TestCompile(t *testing.T) {
	t.Run("Should compile empty filter to empty predicate", func(t *testing.T) {
		p, err := filter.Compile(filter.Filter{})
		require.NoError(t, err)
		assert.True(t, p.IsEmpty())
	})

	t.Run("Should order clauses and wrap relations in exists", func(t *testing.T) {
		categoryID := uuid.New()
		p, err := filter.Compile(filter.Filter{
			SKU:        ptr.New("SKU-1"),
			Name:       ptr.New("Tea"),
			CategoryID: &categoryID,
			MinPrice:   ptr.New(decimal.NewFromInt(10)),
			Available:  ptr.New(true),
		})
		require.NoError(t, err)
		require.Len(t, p.Clauses, 5)

		assert.Equal(t, filter.Equal{Field: filter.FieldSKU, Value: "SKU-1"}, p.Clauses[0])
		assert.Equal(t, filter.Contains{Field: filter.FieldName, Term: "tea"}, p.Clauses[1])
		assert.Equal(t, filter.Exists{
			Relation: filter.RelationCategories,
			Where:    []filter.Clause{filter.Equal{Field: filter.FieldCategoryID, Value: categoryID}},
		}, p.Clauses[2])

		price, ok := p.Clauses[3].(filter.Exists)
		require.True(t, ok)
		assert.Equal(t, filter.RelationCurrentPrice, price.Relation)
		r, ok := price.Where[0].(filter.Range)
		require.True(t, ok)
		assert.Nil(t, r.Upper)
		assert.True(t, r.Lower.Inclusive)
	})

	t.Run("Should ignore blank name", func(t *testing.T) {
		p, err := filter.Compile(filter.Filter{Name: ptr.New("   ")})
		require.NoError(t, err)
		assert.True(t, p.IsEmpty())
	})

	t.Run("Should reject invalid price bounds", func(t *testing.T) {
		tests := []struct {
			name string
			f    filter.Filter
		}{
			{name: "negative min", f: filter.Filter{MinPrice: ptr.New(decimal.NewFromInt(-1))}},
			{name: "negative max", f: filter.Filter{MaxPrice: ptr.New(decimal.NewFromInt(-1))}},
			{name: "min above max", f: filter.Filter{
				MinPrice: ptr.New(decimal.NewFromInt(20)),
				MaxPrice: ptr.New(decimal.NewFromInt(10)),
			}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := filter.Compile(tt.f)
				assert.True(t, apperr.IsValidation(err))
			})
		}
	})
}

func TestPredicateMatches(t *testing.T) {
	t.Run("Should keep only products priced within range", func(t *testing.T) {
		candidates := []filter.Candidate{priced("five", 5), priced("fifteen", 15), priced("twenty-five", 25)}

		got := matching(t, filter.Filter{
			MinPrice: ptr.New(decimal.NewFromInt(10)),
			MaxPrice: ptr.New(decimal.NewFromInt(20)),
		}, candidates)

		assert.Equal(t, []string{"fifteen"}, got)
	})

	t.Run("Should include bounds", func(t *testing.T) {
		candidates := []filter.Candidate{priced("ten", 10), priced("twenty", 20), priced("unpriced", 0)}
		candidates[2].CurrentPrice = nil

		got := matching(t, filter.Filter{
			MinPrice: ptr.New(decimal.NewFromInt(10)),
			MaxPrice: ptr.New(decimal.NewFromInt(20)),
		}, candidates)

		assert.Equal(t, []string{"ten", "twenty"}, got)
	})

	t.Run("Should split by availability", func(t *testing.T) {
		candidates := []filter.Candidate{stocked("empty", 0), stocked("one", 1), stocked("many", 9), {SKU: "untracked"}}

		assert.Equal(t, []string{"one", "many"}, matching(t, filter.Filter{Available: ptr.New(true)}, candidates))
		assert.Equal(t, []string{"empty"}, matching(t, filter.Filter{Available: ptr.New(false)}, candidates))
	})

	t.Run("Should match name case-insensitively as substring", func(t *testing.T) {
		candidates := []filter.Candidate{
			{SKU: "a", Name: "Green TEA"},
			{SKU: "b", Name: "Coffee"},
			{SKU: "c", Name: "teapot"},
		}

		assert.Equal(t, []string{"a", "c"}, matching(t, filter.Filter{Name: ptr.New("Tea")}, candidates))
	})

	t.Run("Should match sku exactly", func(t *testing.T) {
		candidates := []filter.Candidate{{SKU: "SKU-1"}, {SKU: "SKU-10"}, {SKU: "sku-1"}}

		assert.Equal(t, []string{"SKU-1"}, matching(t, filter.Filter{SKU: ptr.New("SKU-1")}, candidates))
	})

	t.Run("Should test category membership", func(t *testing.T) {
		tea, coffee := uuid.New(), uuid.New()
		candidates := []filter.Candidate{
			{SKU: "both", CategoryIDs: []uuid.UUID{tea, coffee}},
			{SKU: "coffee", CategoryIDs: []uuid.UUID{coffee}},
			{SKU: "none"},
		}

		assert.Equal(t, []string{"both"}, matching(t, filter.Filter{CategoryID: &tea}, candidates))
	})

	t.Run("Should AND all clauses", func(t *testing.T) {
		candidates := []filter.Candidate{
			{SKU: "hit", Name: "Tea", CurrentPrice: ptr.New(decimal.NewFromInt(15)), Quantity: ptr.New(3)},
			{SKU: "no-stock", Name: "Tea", CurrentPrice: ptr.New(decimal.NewFromInt(15)), Quantity: ptr.New(0)},
			{SKU: "pricey", Name: "Tea", CurrentPrice: ptr.New(decimal.NewFromInt(50)), Quantity: ptr.New(3)},
		}

		got := matching(t, filter.Filter{
			Name:      ptr.New("tea"),
			MaxPrice:  ptr.New(decimal.NewFromInt(20)),
			Available: ptr.New(true),
		}, candidates)

		assert.Equal(t, []string{"hit"}, got)
	})

	t.Run("Should match everything with empty filter", func(t *testing.T) {
		candidates := []filter.Candidate{priced("a", 1), stocked("b", 0), {SKU: "c"}}

		assert.Equal(t, []string{"a", "b", "c"}, matching(t, filter.Filter{}, candidates))
	})
}
