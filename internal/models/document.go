// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

// Search documents are flattened, read-optimized projections of catalog
// entities stored in the search index, one collection per entity kind.
// They embed copies of related entities' display fields so queries never
// need joins; the index synchronizer keeps them eventually consistent with
// the canonical store.

// ItemDocument is the denormalized search projection of an Item.
type ItemDocument struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Slug          string   `json:"slug"`
	Description   string   `json:"description"`
	Price         float64  `json:"price"`
	SalePrice     float64  `json:"sale_price"`
	OnSale        bool     `json:"on_sale"`
	InStock       bool     `json:"in_stock"`
	IsActive      bool     `json:"is_active"`
	IsFeatured    bool     `json:"is_featured"`
	BrandID       string   `json:"brand_id"`
	BrandName     string   `json:"brand_name"`
	BrandSlug     string   `json:"brand_slug"`
	CategoryIDs   []string `json:"category_ids"`
	CategoryNames []string `json:"category_names"`
	CategorySlugs []string `json:"category_slugs"`
	ImageURL      string   `json:"image_url"`
	CreatedAt     int64    `json:"created_at"`
}

// CategoryDocument is the search projection of a Category.
type CategoryDocument struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	ParentID  string `json:"parent_id"`
	SortOrder int    `json:"sort_order"`
	IsActive  bool   `json:"is_active"`
}

// BrandDocument is the search projection of a Brand.
type BrandDocument struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	IsActive bool   `json:"is_active"`
}
