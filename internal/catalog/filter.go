// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package catalog implements the catalog consistency and filtering
// subsystem: compiling filter requests into relational and search-engine
// query forms, and keeping the search index eventually consistent with the
// relational store as entities change.
package catalog

import (
	"strconv"
	"strings"

	"github.com/google/uuid"

	"storefront/internal/store"
)

// Filters is a caller-facing filter request: fixed typed fields plus an
// open map of dynamic attribute criteria. Zero values mean "no constraint",
// never "empty result".
type Filters struct {
	Search       string
	CategoryIDs  []uuid.UUID
	BrandIDs     []uuid.UUID
	PriceMin     *float64
	PriceMax     *float64
	ActiveOnly   bool
	FeaturedOnly bool
	InStockOnly  bool

	// Attributes maps a dynamic attribute key to its accepted values
	// (OR within a key, AND across keys). Only the relational path can
	// evaluate these; the search documents carry a fixed schema.
	Attributes map[string][]string
}

const (
	defaultSortField = "created_at"
	defaultSortDir   = "desc"
)

// relationalSortFields is the allow-list for the relational path. It must
// stay in step with the store's sortable columns.
var relationalSortFields = map[string]bool{
	"name":       true,
	"price":      true,
	"stock":      true,
	"created_at": true,
	"updated_at": true,
}

// searchSortFields is the allow-list for the search path. The items
// collection declares only these fields sortable; display-oriented keys
// like "name" are corrected to the default instead of rejected.
var searchSortFields = map[string]bool{
	"price":      true,
	"created_at": true,
}

// CompileRelational turns a filter request into the relational query form.
// Typed columns are applied directly; dynamic attribute criteria are carried
// through for the attribute store's correlated-existence predicates. An
// unrecognized sort field silently falls back to the default sort.
func CompileRelational(f Filters, sortField, sortDir string, page, perPage int) store.ItemQuery {
	if !relationalSortFields[sortField] {
		sortField, sortDir = defaultSortField, defaultSortDir
	}
	if !strings.EqualFold(sortDir, "desc") {
		sortDir = "asc"
	}
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}

	return store.ItemQuery{
		Search:       f.Search,
		CategoryIDs:  f.CategoryIDs,
		BrandIDs:     f.BrandIDs,
		PriceMin:     f.PriceMin,
		PriceMax:     f.PriceMax,
		ActiveOnly:   f.ActiveOnly,
		FeaturedOnly: f.FeaturedOnly,
		InStockOnly:  f.InStockOnly,
		Attributes:   f.Attributes,
		SortField:    sortField,
		SortDir:      sortDir,
		Limit:        perPage,
		Offset:       (page - 1) * perPage,
	}
}

// SearchExpression compiles the fixed filter fields into the engine's
// filter_by string: `field:=value` for equality, `field:[v1,v2]` for
// membership, `field:>=N` / `field:<=N` for ranges, clauses joined with
// " && ". Dynamic attribute criteria have no equivalent here — the document
// schema is fixed by design — so callers needing them must use the
// relational path. Free-text search travels separately as the query string.
func SearchExpression(f Filters) string {
	var clauses []string

	if f.ActiveOnly {
		clauses = append(clauses, "is_active:=true")
	}
	if f.FeaturedOnly {
		clauses = append(clauses, "is_featured:=true")
	}
	if f.InStockOnly {
		clauses = append(clauses, "in_stock:=true")
	}
	if c := membershipClause("brand_id", f.BrandIDs); c != "" {
		clauses = append(clauses, c)
	}
	if c := membershipClause("category_ids", f.CategoryIDs); c != "" {
		clauses = append(clauses, c)
	}
	if f.PriceMin != nil {
		clauses = append(clauses, "price:>="+formatNumber(*f.PriceMin))
	}
	if f.PriceMax != nil {
		clauses = append(clauses, "price:<="+formatNumber(*f.PriceMax))
	}

	return strings.Join(clauses, " && ")
}

// SearchSort validates a sort request against the search-side allow-list,
// rewriting anything unsortable to the default field and direction.
func SearchSort(field, dir string) string {
	if !searchSortFields[field] {
		return defaultSortField + ":" + defaultSortDir
	}
	if !strings.EqualFold(dir, "desc") {
		dir = "asc"
	}
	return field + ":" + strings.ToLower(dir)
}

// membershipClause renders a single-value equality or multi-value
// membership clause for a list of ids.
func membershipClause(field string, ids []uuid.UUID) string {
	switch len(ids) {
	case 0:
		return ""
	case 1:
		return field + ":=" + ids[0].String()
	default:
		ss := make([]string, len(ids))
		for i, id := range ids {
			ss[i] = id.String()
		}
		return field + ":[" + strings.Join(ss, ",") + "]"
	}
}

func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}
