// Package database — development seed data.
package database

import (
	"database/sql"
	"fmt"
	"log/slog"
)

// Seed inserts a small development catalog: two brands, a category tree,
// and a handful of items with dynamic attributes. It is a no-op when the
// items table already has rows.
func Seed(db *sql.DB) error {
	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM items`).Scan(&count); err != nil {
		return fmt.Errorf("seed count items: %w", err)
	}
	if count > 0 {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("seed begin: %w", err)
	}
	defer tx.Rollback()

	var voltaID, nordicID string
	if err := tx.QueryRow(`
		INSERT INTO brands (name, slug) VALUES ('Volta', 'volta') RETURNING id
	`).Scan(&voltaID); err != nil {
		return fmt.Errorf("seed brand: %w", err)
	}
	if err := tx.QueryRow(`
		INSERT INTO brands (name, slug) VALUES ('Nordic Sound', 'nordic-sound') RETURNING id
	`).Scan(&nordicID); err != nil {
		return fmt.Errorf("seed brand: %w", err)
	}

	var audioID, cablesID string
	if err := tx.QueryRow(`
		INSERT INTO categories (name, slug, sort_order) VALUES ('Audio', 'audio', 0) RETURNING id
	`).Scan(&audioID); err != nil {
		return fmt.Errorf("seed category: %w", err)
	}
	if err := tx.QueryRow(`
		INSERT INTO categories (name, slug, parent_id, sort_order)
		VALUES ('Cables', 'cables', $1, 1) RETURNING id
	`, audioID).Scan(&cablesID); err != nil {
		return fmt.Errorf("seed category: %w", err)
	}

	items := []struct {
		name, slug, brandID, categoryID string
		price                           float64
		stock                           int
		attrs                           map[string][2]string // key -> (value, value_type)
	}{
		{"Studio Headphones", "studio-headphones", nordicID, audioID, 149.00, 12,
			map[string][2]string{"color": {"black", "string"}, "wireless": {"true", "boolean"}}},
		{"XLR Cable 3m", "xlr-cable-3m", voltaID, cablesID, 19.90, 80,
			map[string][2]string{"color": {"red", "string"}, "length_m": {"3", "number"}}},
		{"XLR Cable 5m", "xlr-cable-5m", voltaID, cablesID, 24.90, 45,
			map[string][2]string{"color": {"blue", "string"}, "length_m": {"5", "number"}}},
	}

	for _, it := range items {
		var itemID string
		if err := tx.QueryRow(`
			INSERT INTO items (name, slug, price, stock, brand_id)
			VALUES ($1, $2, $3, $4, $5) RETURNING id
		`, it.name, it.slug, it.price, it.stock, it.brandID).Scan(&itemID); err != nil {
			return fmt.Errorf("seed item %s: %w", it.slug, err)
		}
		if _, err := tx.Exec(`
			INSERT INTO item_categories (item_id, category_id) VALUES ($1, $2)
		`, itemID, it.categoryID); err != nil {
			return fmt.Errorf("seed item category %s: %w", it.slug, err)
		}
		for key, v := range it.attrs {
			if _, err := tx.Exec(`
				INSERT INTO item_attributes (item_id, key, value, value_type)
				VALUES ($1, $2, $3, $4)
			`, itemID, key, v[0], v[1]); err != nil {
				return fmt.Errorf("seed attribute %s.%s: %w", it.slug, key, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed commit: %w", err)
	}

	slog.Info("development catalog seeded", "items", len(items))
	return nil
}
