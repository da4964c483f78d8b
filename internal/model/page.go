package model

import (
	"fmt"
	"strings"
)

// SortField is a product column that results may be ordered by.
type SortField string

const (
	SortFieldID        SortField = "id"
	SortFieldSKU       SortField = "sku"
	SortFieldName      SortField = "name"
	SortFieldCreatedAt SortField = "created_at"
	SortFieldUpdatedAt SortField = "updated_at"
)

var sortFields = map[string]SortField{
	"id":         SortFieldID,
	"sku":        SortFieldSKU,
	"name":       SortFieldName,
	"created_at": SortFieldCreatedAt,
	"createdat":  SortFieldCreatedAt,
	"updated_at": SortFieldUpdatedAt,
	"updatedat":  SortFieldUpdatedAt,
}

type SortOrder struct {
	Field SortField `json:"field"`
	Desc  bool      `json:"desc"`
}

func (o SortOrder) String() string {
	if o.Desc {
		return string(o.Field) + ",desc"
	}
	return string(o.Field) + ",asc"
}

// DefaultSort orders by id, newest first.
var DefaultSort = []SortOrder{{Field: SortFieldID, Desc: true}}

// ParseSort parses "field[,asc|desc]" expressions. Unknown fields or
// directions are rejected.
func ParseSort(exprs []string) ([]SortOrder, error) {
	orders := make([]SortOrder, 0, len(exprs))
	for _, expr := range exprs {
		if strings.TrimSpace(expr) == "" {
			continue
		}

		name, dir, _ := strings.Cut(expr, ",")
		field, ok := sortFields[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return nil, fmt.Errorf("unknown sort field %q", name)
		}

		order := SortOrder{Field: field}
		switch strings.ToLower(strings.TrimSpace(dir)) {
		case "", "asc":
		case "desc":
			order.Desc = true
		default:
			return nil, fmt.Errorf("unknown sort direction %q", dir)
		}
		orders = append(orders, order)
	}

	if len(orders) == 0 {
		return DefaultSort, nil
	}
	return orders, nil
}

// PageRequest selects one zero-based page of results.
type PageRequest struct {
	Page int
	Size int
	Sort []SortOrder
}

func (p PageRequest) Offset() int {
	return p.Page * p.Size
}

// Normalize clamps the request to sane values.
func (p PageRequest) Normalize(defaultSize, maxSize int) PageRequest {
	if p.Page < 0 {
		p.Page = 0
	}
	if p.Size <= 0 {
		p.Size = defaultSize
	}
	if p.Size > maxSize {
		p.Size = maxSize
	}
	if len(p.Sort) == 0 {
		p.Sort = DefaultSort
	}
	return p
}

type PageInfo struct {
	Number        int      `json:"number"`
	Size          int      `json:"size"`
	TotalElements int64    `json:"totalElements"`
	TotalPages    int      `json:"totalPages"`
	Sort          []string `json:"sort"`
}

// Page is one page of results plus paging metadata.
type Page[T any] struct {
	Content []T      `json:"content"`
	Page    PageInfo `json:"page"`
}

// NewPage builds a Page for content fetched with req out of total matches.
func NewPage[T any](content []T, req PageRequest, total int64) Page[T] {
	if content == nil {
		content = []T{}
	}

	totalPages := 0
	if req.Size > 0 {
		totalPages = int((total + int64(req.Size) - 1) / int64(req.Size))
	}

	sort := make([]string, 0, len(req.Sort))
	for _, o := range req.Sort {
		sort = append(sort, o.String())
	}

	return Page[T]{
		Content: content,
		Page: PageInfo{
			Number:        req.Page,
			Size:          req.Size,
			TotalElements: total,
			TotalPages:    totalPages,
			Sort:          sort,
		},
	}
}

// MapPage converts the content of p with fn.
func MapPage[T, U any](p Page[T], fn func(T) U) Page[U] {
	content := make([]U, 0, len(p.Content))
	for _, v := range p.Content {
		content = append(content, fn(v))
	}
	return Page[U]{Content: content, Page: p.Page}
}
