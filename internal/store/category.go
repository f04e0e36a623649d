// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"storefront/internal/models"
	"storefront/internal/slug"
)

// ErrCategoryCycle is returned when a parent-pointer walk revisits a
// category. The schema does not enforce acyclicity, so walks guard against
// cyclic data instead of assuming it cannot occur.
var ErrCategoryCycle = errors.New("category parent chain contains a cycle")

// CategoryStore manages categories in the database.
type CategoryStore struct {
	db *sql.DB
}

// NewCategoryStore returns a new CategoryStore.
func NewCategoryStore(db *sql.DB) *CategoryStore {
	return &CategoryStore{db: db}
}

const categoryColumns = `id, name, slug, parent_id, sort_order, is_active, created_at, updated_at`

// scanCategory scans a row into a Category struct.
func scanCategory(scanner interface{ Scan(...any) error }) (*models.Category, error) {
	var c models.Category
	err := scanner.Scan(
		&c.ID, &c.Name, &c.Slug, &c.ParentID,
		&c.SortOrder, &c.IsActive, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// List returns all categories ordered by sort_order, with item counts.
func (s *CategoryStore) List() ([]models.Category, error) {
	rows, err := s.db.Query(`
		SELECT c.id, c.name, c.slug, c.parent_id, c.sort_order, c.is_active,
		       c.created_at, c.updated_at,
		       COUNT(ic.item_id) AS item_count
		FROM categories c
		LEFT JOIN item_categories ic ON ic.category_id = c.id
		GROUP BY c.id
		ORDER BY c.sort_order, c.name
	`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var items []models.Category
	for rows.Next() {
		var c models.Category
		err := rows.Scan(
			&c.ID, &c.Name, &c.Slug, &c.ParentID, &c.SortOrder, &c.IsActive,
			&c.CreatedAt, &c.UpdatedAt, &c.ItemCount,
		)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

// Tree returns categories as a nested tree structure.
func (s *CategoryStore) Tree() ([]models.Category, error) {
	flat, err := s.List()
	if err != nil {
		return nil, err
	}
	return buildTree(flat, nil, 0), nil
}

// buildTree recursively builds a tree from a flat list. Depth is capped at
// the list length, which bounds the recursion even on cyclic parent data.
func buildTree(flat []models.Category, parentID *uuid.UUID, depth int) []models.Category {
	if depth > len(flat) {
		return nil
	}
	var result []models.Category
	for _, c := range flat {
		if ptrEqual(c.ParentID, parentID) {
			c.Depth = depth
			c.Children = buildTree(flat, &c.ID, depth+1)
			result = append(result, c)
		}
	}
	return result
}

// ptrEqual compares two *uuid.UUID for equality (both nil or same value).
func ptrEqual(a, b *uuid.UUID) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return *a == *b
}

// Ancestors walks the parent chain from a category to its root and returns
// the path root-first, ending with the category itself. Breadcrumb trails
// are built from this. The walk keeps a visited-id set and returns
// ErrCategoryCycle when the chain revisits a node.
func (s *CategoryStore) Ancestors(id uuid.UUID) ([]models.Category, error) {
	visited := make(map[uuid.UUID]bool)
	var chain []models.Category

	current := &id
	for current != nil {
		if visited[*current] {
			return nil, fmt.Errorf("ancestors of %s: %w", id, ErrCategoryCycle)
		}
		visited[*current] = true

		c, err := s.FindByID(*current)
		if err != nil {
			return nil, err
		}
		if c == nil {
			break
		}
		chain = append(chain, *c)
		current = c.ParentID
	}

	// Reverse to root-first order.
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, nil
}

// FindByID retrieves a category by ID. Returns nil if not found.
func (s *CategoryStore) FindByID(id uuid.UUID) (*models.Category, error) {
	row := s.db.QueryRow(`SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id)
	c, err := scanCategory(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find category by id: %w", err)
	}
	return c, nil
}

// Create inserts a new category and returns it. A missing slug is derived
// from the name.
func (s *CategoryStore) Create(c *models.Category) (*models.Category, error) {
	if c.Slug == "" {
		c.Slug = slug.Generate(c.Name)
	}

	row := s.db.QueryRow(`
		INSERT INTO categories (name, slug, parent_id, sort_order, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+categoryColumns,
		c.Name, c.Slug, c.ParentID, c.SortOrder, c.IsActive,
	)
	result, err := scanCategory(row)
	if err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return result, nil
}

// Update modifies an existing category.
func (s *CategoryStore) Update(c *models.Category) error {
	_, err := s.db.Exec(`
		UPDATE categories SET
			name = $1, slug = $2, parent_id = $3, sort_order = $4,
			is_active = $5, updated_at = NOW()
		WHERE id = $6
	`, c.Name, c.Slug, c.ParentID, c.SortOrder, c.IsActive, c.ID)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return nil
}

// Delete removes a category by ID. Children are re-parented (ON DELETE SET
// NULL) and item links cascade.
func (s *CategoryStore) Delete(id uuid.UUID) error {
	_, err := s.db.Exec(`DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}

// AllIDs returns every category id. Used by the full reindex.
func (s *CategoryStore) AllIDs() ([]uuid.UUID, error) {
	rows, err := s.db.Query(`SELECT id FROM categories ORDER BY sort_order, name`)
	if err != nil {
		return nil, fmt.Errorf("list category ids: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan category id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
