package repository

import (
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/tuanvumaihuynh/catalog-service/internal/filter"
	"github.com/tuanvumaihuynh/catalog-service/internal/model"
)

// scope maps filter fields to columns of one relation alias.
type scope map[filter.Field]string

var productScope = scope{
	filter.FieldSKU:  "p.sku",
	filter.FieldName: "p.name",
}

type relationSQL struct {
	from  string
	scope scope
}

var relations = map[filter.Relation]relationSQL{
	filter.RelationCategories: {
		from:  "product_category pc WHERE pc.product_id = p.id",
		scope: scope{filter.FieldCategoryID: "pc.category_id"},
	},
	filter.RelationCurrentPrice: {
		from: `(
			SELECT pp.amount
			FROM product_price pp
			WHERE pp.product_id = p.id
			ORDER BY pp.created_at DESC, pp.seq DESC
			LIMIT 1
		) cp WHERE TRUE`,
		scope: scope{filter.FieldAmount: "cp.amount"},
	},
	filter.RelationInventory: {
		from:  "product_inventory pi WHERE pi.product_id = p.id",
		scope: scope{filter.FieldQuantity: "pi.quantity"},
	},
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

type predicateRenderer struct {
	args pgx.NamedArgs
}

// renderPredicate folds a compiled predicate into a WHERE expression over
// the product alias p. The same expression and arguments serve both the
// count and the page query.
func renderPredicate(pred filter.Predicate) (string, pgx.NamedArgs, error) {
	r := &predicateRenderer{args: pgx.NamedArgs{}}

	where, err := r.conjunction(pred.Clauses, productScope)
	if err != nil {
		return "", nil, err
	}
	return where, r.args, nil
}

func (r *predicateRenderer) conjunction(clauses []filter.Clause, sc scope) (string, error) {
	if len(clauses) == 0 {
		return "TRUE", nil
	}

	parts := make([]string, 0, len(clauses))
	for _, cl := range clauses {
		part, err := r.clause(cl, sc)
		if err != nil {
			return "", err
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, " AND "), nil
}

func (r *predicateRenderer) clause(cl filter.Clause, sc scope) (string, error) {
	switch cl := cl.(type) {
	case filter.Equal:
		col, err := sc.column(cl.Field)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s = @%s", col, r.bind(cl.Value)), nil

	case filter.Contains:
		col, err := sc.column(cl.Field)
		if err != nil {
			return "", err
		}
		pattern := "%" + likeEscaper.Replace(cl.Term) + "%"
		return fmt.Sprintf(`lower(%s) LIKE @%s ESCAPE '\'`, col, r.bind(pattern)), nil

	case filter.Range:
		col, err := sc.column(cl.Field)
		if err != nil {
			return "", err
		}
		var parts []string
		if cl.Lower != nil {
			op := ">"
			if cl.Lower.Inclusive {
				op = ">="
			}
			parts = append(parts, fmt.Sprintf("%s %s @%s", col, op, r.bind(cl.Lower.Value)))
		}
		if cl.Upper != nil {
			op := "<"
			if cl.Upper.Inclusive {
				op = "<="
			}
			parts = append(parts, fmt.Sprintf("%s %s @%s", col, op, r.bind(cl.Upper.Value)))
		}
		if len(parts) == 0 {
			return "TRUE", nil
		}
		return strings.Join(parts, " AND "), nil

	case filter.Exists:
		rel, ok := relations[cl.Relation]
		if !ok {
			return "", fmt.Errorf("unknown relation %q", cl.Relation)
		}
		inner, err := r.conjunction(cl.Where, rel.scope)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("EXISTS (SELECT 1 FROM %s AND %s)", rel.from, inner), nil

	default:
		return "", fmt.Errorf("unsupported clause %T", cl)
	}
}

func (r *predicateRenderer) bind(v any) string {
	name := fmt.Sprintf("f%d", len(r.args))
	r.args[name] = v
	return name
}

func (sc scope) column(f filter.Field) (string, error) {
	col, ok := sc[f]
	if !ok {
		return "", fmt.Errorf("field %q is not available here", f)
	}
	return col, nil
}

var sortColumns = map[model.SortField]string{
	model.SortFieldID:        "p.id",
	model.SortFieldSKU:       "p.sku",
	model.SortFieldName:      "p.name",
	model.SortFieldCreatedAt: "p.created_at",
	model.SortFieldUpdatedAt: "p.updated_at",
}

// orderBy renders whitelisted sort orders, always ending on p.id so pages
// are stable.
func orderBy(orders []model.SortOrder) string {
	parts := make([]string, 0, len(orders)+1)
	hasID := false
	for _, o := range orders {
		col, ok := sortColumns[o.Field]
		if !ok {
			continue
		}
		if o.Field == model.SortFieldID {
			hasID = true
		}
		dir := "ASC"
		if o.Desc {
			dir = "DESC"
		}
		parts = append(parts, col+" "+dir)
	}
	if !hasID {
		parts = append(parts, "p.id DESC")
	}
	return strings.Join(parts, ", ")
}
