// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package catalog

import (
	"fmt"

	"github.com/google/uuid"

	"storefront/internal/models"
	"storefront/internal/search"
)

// EntityKind identifies which catalog entity a sync call refers to.
type EntityKind int

const (
	KindItem EntityKind = iota
	KindCategory
	KindBrand
)

func (k EntityKind) String() string {
	switch k {
	case KindItem:
		return "item"
	case KindCategory:
		return "category"
	case KindBrand:
		return "brand"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Action identifies the lifecycle change that triggered a sync call.
type Action int

const (
	ActionCreate Action = iota
	ActionUpdate
	ActionDelete
)

func (a Action) String() string {
	switch a {
	case ActionCreate:
		return "create"
	case ActionUpdate:
		return "update"
	case ActionDelete:
		return "delete"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// Search collection names, one per entity kind.
const (
	CollectionItems      = "items"
	CollectionCategories = "categories"
	CollectionBrands     = "brands"
)

// ItemSource is the slice of the item store the synchronizer reads from.
type ItemSource interface {
	FindByIDWithRelations(id uuid.UUID) (*models.Item, error)
	IDsByCategory(categoryID uuid.UUID) ([]uuid.UUID, error)
	IDsByBrand(brandID uuid.UUID) ([]uuid.UUID, error)
	AllIDs() ([]uuid.UUID, error)
}

// CategorySource is the slice of the category store the synchronizer reads from.
type CategorySource interface {
	FindByID(id uuid.UUID) (*models.Category, error)
	AllIDs() ([]uuid.UUID, error)
}

// BrandSource is the slice of the brand store the synchronizer reads from.
type BrandSource interface {
	FindByID(id uuid.UUID) (*models.Brand, error)
	AllIDs() ([]uuid.UUID, error)
}

// documentFormatter builds one entity kind's denormalized search document
// from the canonical store. The synchronizer dispatches on EntityKind
// through this interface instead of branching on strings.
type documentFormatter interface {
	collection() string
	schema() search.CollectionSchema
	// build re-reads the entity graph and returns the document to upsert,
	// or (nil, nil) when the entity no longer exists.
	build(id uuid.UUID) (any, error)
	allIDs() ([]uuid.UUID, error)
}

// --- items ---

type itemFormatter struct {
	items ItemSource
}

func (f *itemFormatter) collection() string { return CollectionItems }

func (f *itemFormatter) allIDs() ([]uuid.UUID, error) { return f.items.AllIDs() }

func (f *itemFormatter) schema() search.CollectionSchema {
	return search.CollectionSchema{
		Name: CollectionItems,
		Fields: []search.Field{
			{Name: "name", Type: "string"},
			{Name: "slug", Type: "string"},
			{Name: "description", Type: "string"},
			{Name: "price", Type: "float", Facet: true, Sort: true},
			{Name: "sale_price", Type: "float", Optional: true},
			{Name: "on_sale", Type: "bool", Facet: true},
			{Name: "in_stock", Type: "bool", Facet: true},
			{Name: "is_active", Type: "bool", Facet: true},
			{Name: "is_featured", Type: "bool", Facet: true},
			{Name: "brand_id", Type: "string", Facet: true, Optional: true},
			{Name: "brand_name", Type: "string", Facet: true, Optional: true},
			{Name: "brand_slug", Type: "string", Optional: true},
			{Name: "category_ids", Type: "string[]", Facet: true},
			{Name: "category_names", Type: "string[]", Facet: true},
			{Name: "category_slugs", Type: "string[]"},
			{Name: "image_url", Type: "string", Optional: true},
			{Name: "created_at", Type: "int64", Sort: true},
		},
		DefaultSortingField: "created_at",
	}
}

func (f *itemFormatter) build(id uuid.UUID) (any, error) {
	it, err := f.items.FindByIDWithRelations(id)
	if err != nil {
		return nil, fmt.Errorf("build item document: %w", err)
	}
	if it == nil {
		return nil, nil
	}

	doc := models.ItemDocument{
		ID:            it.ID.String(),
		Name:          it.Name,
		Slug:          it.Slug,
		Description:   it.Description,
		Price:         it.Price,
		OnSale:        it.OnSale(),
		InStock:       it.InStock(),
		IsActive:      it.IsActive,
		IsFeatured:    it.IsFeatured,
		ImageURL:      it.ImageURL,
		CreatedAt:     it.CreatedAt.Unix(),
		CategoryIDs:   []string{},
		CategoryNames: []string{},
		CategorySlugs: []string{},
	}
	if it.SalePrice != nil {
		doc.SalePrice = *it.SalePrice
	}
	if it.Brand != nil {
		doc.BrandID = it.Brand.ID.String()
		doc.BrandName = it.Brand.Name
		doc.BrandSlug = it.Brand.Slug
	}
	for _, c := range it.Categories {
		doc.CategoryIDs = append(doc.CategoryIDs, c.ID.String())
		doc.CategoryNames = append(doc.CategoryNames, c.Name)
		doc.CategorySlugs = append(doc.CategorySlugs, c.Slug)
	}
	return doc, nil
}

// --- categories ---

type categoryFormatter struct {
	categories CategorySource
}

func (f *categoryFormatter) collection() string { return CollectionCategories }

func (f *categoryFormatter) allIDs() ([]uuid.UUID, error) { return f.categories.AllIDs() }

func (f *categoryFormatter) schema() search.CollectionSchema {
	return search.CollectionSchema{
		Name: CollectionCategories,
		Fields: []search.Field{
			{Name: "name", Type: "string"},
			{Name: "slug", Type: "string"},
			{Name: "parent_id", Type: "string", Optional: true},
			{Name: "sort_order", Type: "int32", Sort: true},
			{Name: "is_active", Type: "bool", Facet: true},
		},
	}
}

func (f *categoryFormatter) build(id uuid.UUID) (any, error) {
	c, err := f.categories.FindByID(id)
	if err != nil {
		return nil, fmt.Errorf("build category document: %w", err)
	}
	if c == nil {
		return nil, nil
	}

	doc := models.CategoryDocument{
		ID:        c.ID.String(),
		Name:      c.Name,
		Slug:      c.Slug,
		SortOrder: c.SortOrder,
		IsActive:  c.IsActive,
	}
	if c.ParentID != nil {
		doc.ParentID = c.ParentID.String()
	}
	return doc, nil
}

// --- brands ---

type brandFormatter struct {
	brands BrandSource
}

func (f *brandFormatter) collection() string { return CollectionBrands }

func (f *brandFormatter) allIDs() ([]uuid.UUID, error) { return f.brands.AllIDs() }

func (f *brandFormatter) schema() search.CollectionSchema {
	return search.CollectionSchema{
		Name: CollectionBrands,
		Fields: []search.Field{
			{Name: "name", Type: "string"},
			{Name: "slug", Type: "string"},
			{Name: "is_active", Type: "bool", Facet: true},
		},
	}
}

func (f *brandFormatter) build(id uuid.UUID) (any, error) {
	b, err := f.brands.FindByID(id)
	if err != nil {
		return nil, fmt.Errorf("build brand document: %w", err)
	}
	if b == nil {
		return nil, nil
	}

	return models.BrandDocument{
		ID:       b.ID.String(),
		Name:     b.Name,
		Slug:     b.Slug,
		IsActive: b.IsActive,
	}, nil
}
