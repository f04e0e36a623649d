// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"storefront/internal/cache"
	"storefront/internal/models"
	"storefront/internal/search"
	"storefront/internal/store"
)

// Service is the catalog's exposed surface. Reads go to the relational
// store or the search index depending on the operation; every mutation
// commits to the relational store first and only then fires a sync trigger,
// so a store failure aborts the whole operation while an index failure is
// invisible to the caller.
type Service struct {
	db         *sql.DB
	items      *store.ItemStore
	attributes *store.AttributeStore
	categories *store.CategoryStore
	brands     *store.BrandStore

	client  search.Client
	sync    *Synchronizer
	trigger *Trigger

	// filterCache is optional; a nil cache degrades to recomputing the
	// filter options on every call.
	filterCache *cache.FilterOptions
}

// NewService wires the catalog service over its stores, search client, and
// sync trigger.
func NewService(
	db *sql.DB,
	items *store.ItemStore,
	attributes *store.AttributeStore,
	categories *store.CategoryStore,
	brands *store.BrandStore,
	client search.Client,
	sync *Synchronizer,
	trigger *Trigger,
	filterCache *cache.FilterOptions,
) *Service {
	return &Service{
		db:          db,
		items:       items,
		attributes:  attributes,
		categories:  categories,
		brands:      brands,
		client:      client,
		sync:        sync,
		trigger:     trigger,
		filterCache: filterCache,
	}
}

// Page is one page of relational query results.
type Page struct {
	Items    []models.Item `json:"items"`
	Total    int           `json:"total"`
	Page     int           `json:"page"`
	PerPage  int           `json:"per_page"`
	LastPage int           `json:"last_page"`
}

// FindPage runs a filtered, sorted, paginated item query against the
// relational store. This is the only path that can evaluate dynamic
// attribute criteria.
func (s *Service) FindPage(f Filters, sortField, sortDir string, page, perPage int) (*Page, error) {
	q := CompileRelational(f, sortField, sortDir, page, perPage)
	items, total, err := s.items.FindPage(q)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.Item{}
	}

	return &Page{
		Items:    items,
		Total:    total,
		Page:     q.Offset/q.Limit + 1,
		PerPage:  q.Limit,
		LastPage: lastPage(total, q.Limit),
	}, nil
}

// SearchPage is one page of search-engine results.
type SearchPage struct {
	Items    []models.ItemDocument `json:"items"`
	Total    int                   `json:"total"`
	Page     int                   `json:"page"`
	PerPage  int                   `json:"per_page"`
	LastPage int                   `json:"last_page"`
}

// SearchItems runs a relevance-ranked item query against the search index.
// Dynamic attribute criteria in f are ignored on this path; the document
// schema is fixed. An empty query matches everything so pure filter
// browsing works.
func (s *Service) SearchItems(ctx context.Context, f Filters, sortField, sortDir string, page, perPage int) (*SearchPage, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}
	q := f.Search
	if q == "" {
		q = "*"
	}

	res, err := s.client.Search(ctx, CollectionItems, search.Params{
		Query:    q,
		QueryBy:  "name,description,brand_name,category_names",
		FilterBy: SearchExpression(f),
		SortBy:   SearchSort(sortField, sortDir),
		Page:     page,
		PerPage:  perPage,
	})
	if err != nil {
		return nil, fmt.Errorf("search items: %w", err)
	}

	docs := make([]models.ItemDocument, 0, len(res.Hits))
	for _, hit := range res.Hits {
		var doc models.ItemDocument
		if err := json.Unmarshal(hit.Document, &doc); err != nil {
			return nil, fmt.Errorf("decode item hit: %w", err)
		}
		docs = append(docs, doc)
	}

	return &SearchPage{
		Items:    docs,
		Total:    res.Found,
		Page:     page,
		PerPage:  perPage,
		LastPage: lastPage(res.Found, perPage),
	}, nil
}

// QuickResults is the federated quick-search answer: a few top hits from
// each collection for typeahead.
type QuickResults struct {
	Items      []models.ItemDocument     `json:"items"`
	Categories []models.CategoryDocument `json:"categories"`
	Brands     []models.BrandDocument    `json:"brands"`
}

// QuickSearch runs one federated query across the item, category, and brand
// collections, returning the top hits of each.
func (s *Service) QuickSearch(ctx context.Context, query string, limit int) (*QuickResults, error) {
	if limit < 1 {
		limit = 5
	}

	results, err := s.client.MultiSearch(ctx, []search.Params{
		{
			Collection: CollectionItems,
			Query:      query,
			QueryBy:    "name,description,brand_name",
			FilterBy:   "is_active:=true",
			PerPage:    limit,
		},
		{
			Collection: CollectionCategories,
			Query:      query,
			QueryBy:    "name",
			FilterBy:   "is_active:=true",
			PerPage:    limit,
		},
		{
			Collection: CollectionBrands,
			Query:      query,
			QueryBy:    "name",
			FilterBy:   "is_active:=true",
			PerPage:    limit,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("quick search: %w", err)
	}
	if len(results) != 3 {
		return nil, fmt.Errorf("quick search: expected 3 result sets, got %d", len(results))
	}

	out := &QuickResults{
		Items:      []models.ItemDocument{},
		Categories: []models.CategoryDocument{},
		Brands:     []models.BrandDocument{},
	}
	for _, hit := range results[0].Hits {
		var doc models.ItemDocument
		if err := json.Unmarshal(hit.Document, &doc); err != nil {
			return nil, fmt.Errorf("decode item hit: %w", err)
		}
		out.Items = append(out.Items, doc)
	}
	for _, hit := range results[1].Hits {
		var doc models.CategoryDocument
		if err := json.Unmarshal(hit.Document, &doc); err != nil {
			return nil, fmt.Errorf("decode category hit: %w", err)
		}
		out.Categories = append(out.Categories, doc)
	}
	for _, hit := range results[2].Hits {
		var doc models.BrandDocument
		if err := json.Unmarshal(hit.Document, &doc); err != nil {
			return nil, fmt.Errorf("decode brand hit: %w", err)
		}
		out.Brands = append(out.Brands, doc)
	}
	return out, nil
}

// FilterOption is one selectable value of a dynamic filter, carrying its
// decoded type so clients can render it appropriately.
type FilterOption struct {
	Type  models.ValueType `json:"type"`
	Value any              `json:"value"`
}

// FilterSet describes the dynamic filters currently available: the attribute
// keys in use and, per key, the distinct values found.
type FilterSet struct {
	Keys    []string                  `json:"keys"`
	Options map[string][]FilterOption `json:"options"`
}

// AvailableFilters discovers the dynamic filter set from the attributes in
// use. The computed set is cached; cache errors degrade to recomputation.
func (s *Service) AvailableFilters(ctx context.Context) (*FilterSet, error) {
	if s.filterCache != nil {
		if payload, ok := s.filterCache.Get(ctx); ok {
			var fs FilterSet
			if err := json.Unmarshal(payload, &fs); err == nil {
				return &fs, nil
			}
			slog.Warn("cached filter options unreadable, recomputing")
		}
	}

	keys, err := s.attributes.Keys()
	if err != nil {
		return nil, err
	}
	if keys == nil {
		keys = []string{}
	}

	fs := &FilterSet{Keys: keys, Options: make(map[string][]FilterOption, len(keys))}
	for _, key := range keys {
		opts, err := s.FilterValues(key)
		if err != nil {
			return nil, err
		}
		fs.Options[key] = opts
	}

	if s.filterCache != nil {
		if payload, err := json.Marshal(fs); err == nil {
			s.filterCache.Set(ctx, payload)
		}
	}
	return fs, nil
}

// FilterValues returns the distinct decoded values stored under one
// attribute key.
func (s *Service) FilterValues(key string) ([]FilterOption, error) {
	values, err := s.attributes.UniqueValues(key)
	if err != nil {
		return nil, err
	}
	opts := make([]FilterOption, 0, len(values))
	for _, v := range values {
		opts = append(opts, FilterOption{Type: v.Type, Value: v.Any()})
	}
	return opts, nil
}

// ReindexAll rebuilds every search document from the relational store.
// Unlike the background sync, errors surface here: the caller asked for the
// rebuild explicitly and needs to know it did not finish.
func (s *Service) ReindexAll(ctx context.Context) error {
	return s.sync.ReindexAll(ctx)
}

// Health reports component health. A dead database fails the check; an
// unreachable search engine only degrades it, since the relational paths
// keep working.
type Health struct {
	Database bool `json:"database"`
	Search   bool `json:"search"`
}

// Healthy reports whether the service can serve requests at all.
func (h Health) Healthy() bool { return h.Database }

// Health probes the backing stores.
func (s *Service) Health(ctx context.Context) Health {
	h := Health{Database: true, Search: true}
	if err := s.db.PingContext(ctx); err != nil {
		slog.Error("database health check failed", "error", err)
		h.Database = false
	}
	if err := s.client.Health(ctx); err != nil {
		slog.Warn("search health check failed", "error", err)
		h.Search = false
	}
	return h
}

// --- reads ---

// Item returns one item with its brand, categories, and decoded attributes.
// Returns nil when not found.
func (s *Service) Item(id uuid.UUID) (*models.Item, error) {
	return s.items.FindByIDWithRelations(id)
}

// ItemAttributes returns an item's decoded attributes keyed by name.
func (s *Service) ItemAttributes(itemID uuid.UUID) (map[string]models.Value, error) {
	return s.attributes.All(itemID)
}

// Categories returns all categories flat, with item counts.
func (s *Service) Categories() ([]models.Category, error) {
	return s.categories.List()
}

// CategoryTree returns the categories nested by parent.
func (s *Service) CategoryTree() ([]models.Category, error) {
	return s.categories.Tree()
}

// CategoryAncestors returns the breadcrumb path from the root to the given
// category. A parent cycle in the data surfaces as store.ErrCategoryCycle.
func (s *Service) CategoryAncestors(id uuid.UUID) ([]models.Category, error) {
	return s.categories.Ancestors(id)
}

// Brands returns all brands with item counts.
func (s *Service) Brands() ([]models.Brand, error) {
	return s.brands.List()
}

// --- mutations: commit first, trigger after ---

// CreateItem inserts an item and schedules its index document.
func (s *Service) CreateItem(it *models.Item) (*models.Item, error) {
	created, err := s.items.Create(it)
	if err != nil {
		return nil, err
	}
	s.trigger.ItemSaved(created.ID, ActionCreate)
	return created, nil
}

// UpdateItem saves an item and schedules its index document.
func (s *Service) UpdateItem(it *models.Item) error {
	if err := s.items.Update(it); err != nil {
		return err
	}
	s.trigger.ItemSaved(it.ID, ActionUpdate)
	return nil
}

// DeleteItem removes an item and schedules its index document's removal.
func (s *Service) DeleteItem(id uuid.UUID) error {
	if err := s.items.Delete(id); err != nil {
		return err
	}
	s.trigger.ItemDeleted(id)
	return nil
}

// SetItemCategories replaces an item's category links and resyncs its
// document, whose embedded category fields changed.
func (s *Service) SetItemCategories(itemID uuid.UUID, categoryIDs []uuid.UUID) error {
	if err := s.items.SetCategories(itemID, categoryIDs); err != nil {
		return err
	}
	s.trigger.ItemSaved(itemID, ActionUpdate)
	return nil
}

// SetAttribute upserts one dynamic attribute and invalidates the cached
// filter options, which may now list a new key or value.
func (s *Service) SetAttribute(ctx context.Context, itemID uuid.UUID, key string, value any) error {
	if err := s.attributes.Set(itemID, key, value); err != nil {
		return err
	}
	s.invalidateFilters(ctx)
	s.trigger.ItemSaved(itemID, ActionUpdate)
	return nil
}

// DeleteAttribute removes one dynamic attribute.
func (s *Service) DeleteAttribute(ctx context.Context, itemID uuid.UUID, key string) error {
	if err := s.attributes.Delete(itemID, key); err != nil {
		return err
	}
	s.invalidateFilters(ctx)
	s.trigger.ItemSaved(itemID, ActionUpdate)
	return nil
}

// CreateCategory inserts a category and schedules its index document.
func (s *Service) CreateCategory(c *models.Category) (*models.Category, error) {
	created, err := s.categories.Create(c)
	if err != nil {
		return nil, err
	}
	s.trigger.CategorySaved(created.ID, ActionCreate, false)
	return created, nil
}

// UpdateCategory saves a category. When its display fields changed, every
// item document embedding them is resynced as well.
func (s *Service) UpdateCategory(c *models.Category) error {
	old, err := s.categories.FindByID(c.ID)
	if err != nil {
		return err
	}
	if err := s.categories.Update(c); err != nil {
		return err
	}
	displayChanged := old != nil && (old.Name != c.Name || old.Slug != c.Slug)
	s.trigger.CategorySaved(c.ID, ActionUpdate, displayChanged)
	return nil
}

// DeleteCategory removes a category. Link rows cascade in the database, so
// affected item documents are resynced before the category document goes.
func (s *Service) DeleteCategory(id uuid.UUID) error {
	itemIDs, err := s.items.IDsByCategory(id)
	if err != nil {
		return err
	}
	if err := s.categories.Delete(id); err != nil {
		return err
	}
	s.trigger.CategoryDeleted(id)
	for _, itemID := range itemIDs {
		s.trigger.ItemSaved(itemID, ActionUpdate)
	}
	return nil
}

// CreateBrand inserts a brand and schedules its index document.
func (s *Service) CreateBrand(b *models.Brand) (*models.Brand, error) {
	created, err := s.brands.Create(b)
	if err != nil {
		return nil, err
	}
	s.trigger.BrandSaved(created.ID, ActionCreate, false)
	return created, nil
}

// UpdateBrand saves a brand, cascading to item documents when its display
// fields changed.
func (s *Service) UpdateBrand(b *models.Brand) error {
	old, err := s.brands.FindByID(b.ID)
	if err != nil {
		return err
	}
	if err := s.brands.Update(b); err != nil {
		return err
	}
	displayChanged := old != nil && (old.Name != b.Name || old.Slug != b.Slug)
	s.trigger.BrandSaved(b.ID, ActionUpdate, displayChanged)
	return nil
}

// DeleteBrand removes a brand. Items keep existing with a cleared brand
// reference, so their documents are resynced.
func (s *Service) DeleteBrand(id uuid.UUID) error {
	itemIDs, err := s.items.IDsByBrand(id)
	if err != nil {
		return err
	}
	if err := s.brands.Delete(id); err != nil {
		return err
	}
	s.trigger.BrandDeleted(id)
	for _, itemID := range itemIDs {
		s.trigger.ItemSaved(itemID, ActionUpdate)
	}
	return nil
}

func (s *Service) invalidateFilters(ctx context.Context) {
	if s.filterCache != nil {
		s.filterCache.Invalidate(ctx)
	}
}

func lastPage(total, perPage int) int {
	if total == 0 {
		return 1
	}
	return (total + perPage - 1) / perPage
}
