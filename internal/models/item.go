// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package models defines the catalog domain entities shared between the
// stores, the index synchronizer, and the HTTP layer.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Item represents a single catalog product.
type Item struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Slug        string     `json:"slug"`
	Description string     `json:"description"`
	Price       float64    `json:"price"`
	SalePrice   *float64   `json:"sale_price"`
	Stock       int        `json:"stock"`
	IsActive    bool       `json:"is_active"`
	IsFeatured  bool       `json:"is_featured"`
	BrandID     *uuid.UUID `json:"brand_id"`
	ImageURL    string     `json:"image_url"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// Virtual fields populated by store methods.
	Brand      *Brand      `json:"brand,omitempty"`
	Categories []Category  `json:"categories,omitempty"`
	Attributes []Attribute `json:"attributes,omitempty"`
}

// EffectivePrice returns the sale price when one is set and lower than the
// regular price, otherwise the regular price.
func (i *Item) EffectivePrice() float64 {
	if i.SalePrice != nil && *i.SalePrice < i.Price {
		return *i.SalePrice
	}
	return i.Price
}

// InStock reports whether the item has any stock left.
func (i *Item) InStock() bool {
	return i.Stock > 0
}

// OnSale reports whether a discounted price is currently in effect.
func (i *Item) OnSale() bool {
	return i.SalePrice != nil && *i.SalePrice < i.Price
}
