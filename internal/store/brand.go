// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"storefront/internal/models"
	"storefront/internal/slug"
)

// BrandStore manages brands in the database.
type BrandStore struct {
	db *sql.DB
}

// NewBrandStore returns a new BrandStore.
func NewBrandStore(db *sql.DB) *BrandStore {
	return &BrandStore{db: db}
}

const brandColumns = `id, name, slug, is_active, created_at, updated_at`

// scanBrand scans a row into a Brand struct.
func scanBrand(scanner interface{ Scan(...any) error }) (*models.Brand, error) {
	var b models.Brand
	err := scanner.Scan(&b.ID, &b.Name, &b.Slug, &b.IsActive, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// List returns all brands ordered by name, with item counts.
func (s *BrandStore) List() ([]models.Brand, error) {
	rows, err := s.db.Query(`
		SELECT b.id, b.name, b.slug, b.is_active, b.created_at, b.updated_at,
		       COUNT(i.id) AS item_count
		FROM brands b
		LEFT JOIN items i ON i.brand_id = b.id
		GROUP BY b.id
		ORDER BY b.name
	`)
	if err != nil {
		return nil, fmt.Errorf("list brands: %w", err)
	}
	defer rows.Close()

	var brands []models.Brand
	for rows.Next() {
		var b models.Brand
		err := rows.Scan(&b.ID, &b.Name, &b.Slug, &b.IsActive, &b.CreatedAt, &b.UpdatedAt, &b.ItemCount)
		if err != nil {
			return nil, fmt.Errorf("scan brand: %w", err)
		}
		brands = append(brands, b)
	}
	return brands, rows.Err()
}

// FindByID retrieves a brand by ID. Returns nil if not found.
func (s *BrandStore) FindByID(id uuid.UUID) (*models.Brand, error) {
	row := s.db.QueryRow(`SELECT `+brandColumns+` FROM brands WHERE id = $1`, id)
	b, err := scanBrand(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find brand by id: %w", err)
	}
	return b, nil
}

// Create inserts a new brand and returns it. A missing slug is derived
// from the name.
func (s *BrandStore) Create(b *models.Brand) (*models.Brand, error) {
	if b.Slug == "" {
		b.Slug = slug.Generate(b.Name)
	}

	row := s.db.QueryRow(`
		INSERT INTO brands (name, slug, is_active)
		VALUES ($1, $2, $3)
		RETURNING `+brandColumns,
		b.Name, b.Slug, b.IsActive,
	)
	result, err := scanBrand(row)
	if err != nil {
		return nil, fmt.Errorf("create brand: %w", err)
	}
	return result, nil
}

// Update modifies an existing brand.
func (s *BrandStore) Update(b *models.Brand) error {
	_, err := s.db.Exec(`
		UPDATE brands SET name = $1, slug = $2, is_active = $3, updated_at = NOW()
		WHERE id = $4
	`, b.Name, b.Slug, b.IsActive, b.ID)
	if err != nil {
		return fmt.Errorf("update brand: %w", err)
	}
	return nil
}

// Delete removes a brand by ID. Items keep their rows with brand_id set
// to NULL (ON DELETE SET NULL).
func (s *BrandStore) Delete(id uuid.UUID) error {
	_, err := s.db.Exec(`DELETE FROM brands WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete brand: %w", err)
	}
	return nil
}

// AllIDs returns every brand id. Used by the full reindex.
func (s *BrandStore) AllIDs() ([]uuid.UUID, error) {
	rows, err := s.db.Query(`SELECT id FROM brands ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list brand ids: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan brand id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
