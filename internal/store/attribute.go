// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"storefront/internal/models"
)

// AttributeStore owns the dynamic per-item key/value attributes. Raw storage
// is always a string; the value_type column selects the decode function.
// Keys are not validated or namespaced — the attribute schema is open by
// design, and the set of filterable keys is discovered at runtime via Keys.
type AttributeStore struct {
	db *sql.DB
}

// NewAttributeStore returns a new AttributeStore.
func NewAttributeStore(db *sql.DB) *AttributeStore {
	return &AttributeStore{db: db}
}

// Set upserts one attribute. The value type is derived from the runtime type
// of value (string, number, boolean, or anything else serialized as JSON).
// (item_id, key) is unique, so repeated sets overwrite.
func (s *AttributeStore) Set(itemID uuid.UUID, key string, value any) error {
	v := models.ValueOf(value)
	_, err := s.db.Exec(`
		INSERT INTO item_attributes (item_id, key, value, value_type)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (item_id, key)
		DO UPDATE SET value = EXCLUDED.value, value_type = EXCLUDED.value_type,
		              updated_at = NOW()
	`, itemID, key, v.Encode(), v.Type)
	if err != nil {
		return fmt.Errorf("set attribute %q: %w", key, err)
	}
	return nil
}

// Get returns the decoded value for one attribute. Returns nil if the item
// has no such attribute.
func (s *AttributeStore) Get(itemID uuid.UUID, key string) (*models.Value, error) {
	var raw string
	var vt models.ValueType
	err := s.db.QueryRow(`
		SELECT value, value_type FROM item_attributes
		WHERE item_id = $1 AND key = $2
	`, itemID, key).Scan(&raw, &vt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get attribute %q: %w", key, err)
	}

	v := decodeOrDegrade(vt, raw, key)
	return &v, nil
}

// All returns every attribute of an item, decoded, keyed by attribute key.
func (s *AttributeStore) All(itemID uuid.UUID) (map[string]models.Value, error) {
	rows, err := s.db.Query(`
		SELECT key, value, value_type FROM item_attributes
		WHERE item_id = $1 ORDER BY key
	`, itemID)
	if err != nil {
		return nil, fmt.Errorf("list attributes: %w", err)
	}
	defer rows.Close()

	out := make(map[string]models.Value)
	for rows.Next() {
		var key, raw string
		var vt models.ValueType
		if err := rows.Scan(&key, &raw, &vt); err != nil {
			return nil, fmt.Errorf("scan attribute: %w", err)
		}
		out[key] = decodeOrDegrade(vt, raw, key)
	}
	return out, rows.Err()
}

// Keys returns the distinct attribute keys currently in use across all
// items. This is how callers discover which dynamic filters exist without
// a fixed schema.
func (s *AttributeStore) Keys() ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT key FROM item_attributes ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list attribute keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scan attribute key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// UniqueValues returns the distinct decoded values stored under a key,
// for populating filter-option lists. Deduplication happens after decoding;
// raw strings that decode to textually different but logically equal values
// (e.g. "Red" vs "red") are kept as separate options.
func (s *AttributeStore) UniqueValues(key string) ([]models.Value, error) {
	rows, err := s.db.Query(`
		SELECT DISTINCT value, value_type FROM item_attributes
		WHERE key = $1 ORDER BY value
	`, key)
	if err != nil {
		return nil, fmt.Errorf("unique attribute values: %w", err)
	}
	defer rows.Close()

	seen := make(map[string]bool)
	var values []models.Value
	for rows.Next() {
		var raw string
		var vt models.ValueType
		if err := rows.Scan(&raw, &vt); err != nil {
			return nil, fmt.Errorf("scan attribute value: %w", err)
		}
		v := decodeOrDegrade(vt, raw, key)
		fp := string(v.Type) + "\x00" + v.Encode()
		if seen[fp] {
			continue
		}
		seen[fp] = true
		values = append(values, v)
	}
	return values, rows.Err()
}

// Delete removes one attribute. Deleting an absent attribute is a no-op.
func (s *AttributeStore) Delete(itemID uuid.UUID, key string) error {
	_, err := s.db.Exec(`
		DELETE FROM item_attributes WHERE item_id = $1 AND key = $2
	`, itemID, key)
	if err != nil {
		return fmt.Errorf("delete attribute %q: %w", key, err)
	}
	return nil
}

// FilterClause builds the SQL predicates for a map of attribute key ->
// accepted raw values: one correlated EXISTS per key, ANDed together, with
// IN semantics within a key. argCount is the number of placeholders already
// consumed by the enclosing query.
func (s *AttributeStore) FilterClause(criteria map[string][]string, argCount int) ([]string, []any) {
	return attributeFilterClause(criteria, argCount)
}

// decodeOrDegrade decodes a stored value, degrading to a string-typed value
// holding the raw input when decoding fails (e.g. malformed stored JSON).
// The failure is logged, not raised — reads must not break on bad rows.
func decodeOrDegrade(vt models.ValueType, raw, key string) models.Value {
	v, err := models.DecodeValue(vt, raw)
	if err != nil {
		slog.Warn("attribute decode failed, returning raw string",
			"key", key, "value_type", vt, "error", err)
		return models.Value{Type: models.ValueString, Str: raw}
	}
	return v
}
