// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package store contains the canonical relational persistence layer for the
// catalog. It is the source of truth; the search index is a derived replica
// maintained by the catalog synchronizer.
package store

import (
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"storefront/internal/models"
	"storefront/internal/slug"
)

// ItemStore handles all item-related database operations.
type ItemStore struct {
	db *sql.DB
}

// NewItemStore returns a new ItemStore.
func NewItemStore(db *sql.DB) *ItemStore {
	return &ItemStore{db: db}
}

const itemColumns = `i.id, i.name, i.slug, i.description, i.price, i.sale_price,
	i.stock, i.is_active, i.is_featured, i.brand_id, i.image_url,
	i.created_at, i.updated_at`

// scanItem scans a row into an Item struct.
func scanItem(scanner interface{ Scan(...any) error }) (*models.Item, error) {
	var it models.Item
	err := scanner.Scan(
		&it.ID, &it.Name, &it.Slug, &it.Description, &it.Price, &it.SalePrice,
		&it.Stock, &it.IsActive, &it.IsFeatured, &it.BrandID, &it.ImageURL,
		&it.CreatedAt, &it.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &it, nil
}

// ItemQuery is the relational query augmentation produced by the filter
// compiler. Zero values mean "no constraint". SortField must be a key of
// itemSortColumns; anything else falls back to created_at descending.
type ItemQuery struct {
	Search       string
	CategoryIDs  []uuid.UUID
	BrandIDs     []uuid.UUID
	PriceMin     *float64
	PriceMax     *float64
	ActiveOnly   bool
	FeaturedOnly bool
	InStockOnly  bool
	Attributes   map[string][]string // attribute key -> raw encoded values (IN semantics)
	SortField    string
	SortDir      string
	Limit        int
	Offset       int
}

// itemSortColumns is the allow-list of sortable item fields.
var itemSortColumns = map[string]string{
	"name":       "i.name",
	"price":      "i.price",
	"stock":      "i.stock",
	"created_at": "i.created_at",
	"updated_at": "i.updated_at",
}

// buildItemWhere turns an ItemQuery into a WHERE clause and its arguments.
func buildItemWhere(q ItemQuery) (string, []any) {
	var conds []string
	var args []any

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if q.Search != "" {
		p := arg("%" + q.Search + "%")
		conds = append(conds, fmt.Sprintf("(i.name ILIKE %s OR i.description ILIKE %s)", p, p))
	}
	if len(q.CategoryIDs) > 0 {
		ph := make([]string, len(q.CategoryIDs))
		for i, id := range q.CategoryIDs {
			ph[i] = arg(id)
		}
		conds = append(conds, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM item_categories ic WHERE ic.item_id = i.id AND ic.category_id IN (%s))",
			strings.Join(ph, ", ")))
	}
	if len(q.BrandIDs) > 0 {
		ph := make([]string, len(q.BrandIDs))
		for i, id := range q.BrandIDs {
			ph[i] = arg(id)
		}
		conds = append(conds, fmt.Sprintf("i.brand_id IN (%s)", strings.Join(ph, ", ")))
	}
	if q.PriceMin != nil {
		conds = append(conds, fmt.Sprintf("i.price >= %s", arg(*q.PriceMin)))
	}
	if q.PriceMax != nil {
		conds = append(conds, fmt.Sprintf("i.price <= %s", arg(*q.PriceMax)))
	}
	if q.ActiveOnly {
		conds = append(conds, "i.is_active = TRUE")
	}
	if q.FeaturedOnly {
		conds = append(conds, "i.is_featured = TRUE")
	}
	if q.InStockOnly {
		conds = append(conds, "i.stock > 0")
	}

	attrConds, attrArgs := attributeFilterClause(q.Attributes, len(args))
	conds = append(conds, attrConds...)
	args = append(args, attrArgs...)

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// attributeFilterClause builds one correlated-existence predicate per
// attribute key (ANDed across keys); multiple values for one key match with
// IN semantics. Keys are processed in sorted order so the generated SQL is
// deterministic.
func attributeFilterClause(criteria map[string][]string, argCount int) ([]string, []any) {
	if len(criteria) == 0 {
		return nil, nil
	}

	keys := make([]string, 0, len(criteria))
	for k := range criteria {
		if len(criteria[k]) > 0 {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var conds []string
	var args []any
	for _, key := range keys {
		args = append(args, key)
		keyPh := fmt.Sprintf("$%d", argCount+len(args))

		ph := make([]string, len(criteria[key]))
		for i, v := range criteria[key] {
			args = append(args, v)
			ph[i] = fmt.Sprintf("$%d", argCount+len(args))
		}
		conds = append(conds, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM item_attributes a WHERE a.item_id = i.id AND a.key = %s AND a.value IN (%s))",
			keyPh, strings.Join(ph, ", ")))
	}
	return conds, args
}

// FindPage returns one page of items matching the query plus the total
// match count.
func (s *ItemStore) FindPage(q ItemQuery) ([]models.Item, int, error) {
	where, args := buildItemWhere(q)

	var total int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM items i`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count items: %w", err)
	}

	sortCol, ok := itemSortColumns[q.SortField]
	dir := "ASC"
	if !ok {
		sortCol, dir = "i.created_at", "DESC"
	} else if strings.EqualFold(q.SortDir, "desc") {
		dir = "DESC"
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}

	query := fmt.Sprintf(`SELECT %s FROM items i%s ORDER BY %s %s, i.id LIMIT $%d OFFSET $%d`,
		itemColumns, where, sortCol, dir, len(args)+1, len(args)+2)
	args = append(args, limit, q.Offset)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("find items page: %w", err)
	}
	defer rows.Close()

	var items []models.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, *it)
	}
	return items, total, rows.Err()
}

// FindByID retrieves an item by ID. Returns nil if not found.
func (s *ItemStore) FindByID(id uuid.UUID) (*models.Item, error) {
	row := s.db.QueryRow(`SELECT `+itemColumns+` FROM items i WHERE i.id = $1`, id)
	it, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find item by id: %w", err)
	}
	return it, nil
}

// FindByIDWithRelations retrieves an item together with its brand,
// categories, and attributes. Returns nil if the item does not exist.
// This is the read used to build the item's search document.
func (s *ItemStore) FindByIDWithRelations(id uuid.UUID) (*models.Item, error) {
	it, err := s.FindByID(id)
	if err != nil || it == nil {
		return it, err
	}

	if it.BrandID != nil {
		var b models.Brand
		err := s.db.QueryRow(`
			SELECT id, name, slug, is_active, created_at, updated_at
			FROM brands WHERE id = $1
		`, *it.BrandID).Scan(&b.ID, &b.Name, &b.Slug, &b.IsActive, &b.CreatedAt, &b.UpdatedAt)
		if err != nil && err != sql.ErrNoRows {
			return nil, fmt.Errorf("load item brand: %w", err)
		}
		if err == nil {
			it.Brand = &b
		}
	}

	rows, err := s.db.Query(`
		SELECT c.id, c.name, c.slug, c.parent_id, c.sort_order, c.is_active,
		       c.created_at, c.updated_at
		FROM categories c
		JOIN item_categories ic ON ic.category_id = c.id
		WHERE ic.item_id = $1
		ORDER BY c.sort_order, c.name
	`, id)
	if err != nil {
		return nil, fmt.Errorf("load item categories: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(
			&c.ID, &c.Name, &c.Slug, &c.ParentID, &c.SortOrder, &c.IsActive,
			&c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan item category: %w", err)
		}
		it.Categories = append(it.Categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	attrRows, err := s.db.Query(`
		SELECT item_id, key, value, value_type, created_at, updated_at
		FROM item_attributes WHERE item_id = $1 ORDER BY key
	`, id)
	if err != nil {
		return nil, fmt.Errorf("load item attributes: %w", err)
	}
	defer attrRows.Close()
	for attrRows.Next() {
		var a models.Attribute
		if err := attrRows.Scan(
			&a.ItemID, &a.Key, &a.RawValue, &a.Type, &a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan item attribute: %w", err)
		}
		it.Attributes = append(it.Attributes, a)
	}
	return it, attrRows.Err()
}

// Create inserts a new item and returns it. A missing slug is derived
// from the name.
func (s *ItemStore) Create(it *models.Item) (*models.Item, error) {
	if it.Slug == "" {
		it.Slug = slug.Generate(it.Name)
	}

	row := s.db.QueryRow(`
		INSERT INTO items (name, slug, description, price, sale_price, stock,
		                   is_active, is_featured, brand_id, image_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+itemColumns,
		it.Name, it.Slug, it.Description, it.Price, it.SalePrice, it.Stock,
		it.IsActive, it.IsFeatured, it.BrandID, it.ImageURL,
	)
	created, err := scanItem(row)
	if err != nil {
		return nil, fmt.Errorf("create item: %w", err)
	}
	return created, nil
}

// Update modifies an existing item.
func (s *ItemStore) Update(it *models.Item) error {
	if it.Slug == "" {
		it.Slug = slug.Generate(it.Name)
	}

	_, err := s.db.Exec(`
		UPDATE items SET
			name = $1, slug = $2, description = $3, price = $4, sale_price = $5,
			stock = $6, is_active = $7, is_featured = $8, brand_id = $9,
			image_url = $10, updated_at = NOW()
		WHERE id = $11
	`, it.Name, it.Slug, it.Description, it.Price, it.SalePrice,
		it.Stock, it.IsActive, it.IsFeatured, it.BrandID, it.ImageURL, it.ID)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	return nil
}

// Delete removes an item by ID. Attribute rows and category links cascade.
func (s *ItemStore) Delete(id uuid.UUID) error {
	_, err := s.db.Exec(`DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	return nil
}

// SetCategories replaces the item's category links in one transaction.
func (s *ItemStore) SetCategories(itemID uuid.UUID, categoryIDs []uuid.UUID) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("set categories begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM item_categories WHERE item_id = $1`, itemID); err != nil {
		return fmt.Errorf("clear item categories: %w", err)
	}
	for _, catID := range categoryIDs {
		if _, err := tx.Exec(`
			INSERT INTO item_categories (item_id, category_id) VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, itemID, catID); err != nil {
			return fmt.Errorf("link item category: %w", err)
		}
	}
	return tx.Commit()
}

// IDsByCategory returns the ids of all items linked to a category. Used for
// cascade resynchronization when the category's display fields change.
func (s *ItemStore) IDsByCategory(categoryID uuid.UUID) ([]uuid.UUID, error) {
	return s.queryIDs(`SELECT item_id FROM item_categories WHERE category_id = $1`, categoryID)
}

// IDsByBrand returns the ids of all items referencing a brand.
func (s *ItemStore) IDsByBrand(brandID uuid.UUID) ([]uuid.UUID, error) {
	return s.queryIDs(`SELECT id FROM items WHERE brand_id = $1`, brandID)
}

// AllIDs returns every item id, ordered by creation date. Used by the full
// reindex.
func (s *ItemStore) AllIDs() ([]uuid.UUID, error) {
	return s.queryIDs(`SELECT id FROM items ORDER BY created_at`)
}

func (s *ItemStore) queryIDs(query string, args ...any) ([]uuid.UUID, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query item ids: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan item id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
