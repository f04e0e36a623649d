// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package catalog

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"

	"storefront/internal/models"
	"storefront/internal/search"
)

// fakeIndex is an in-memory search.Client recording documents per
// collection, keyed by document id. failures, when positive, makes the next
// N write calls fail to exercise retry and failure-isolation paths.
type fakeIndex struct {
	mu          sync.Mutex
	collections map[string]map[string]json.RawMessage
	skip        int
	failures    int
	calls       int
}

type fakeIndexErr struct{ msg string }

func (e *fakeIndexErr) Error() string { return e.msg }

func newFakeIndex() *fakeIndex {
	return &fakeIndex{collections: make(map[string]map[string]json.RawMessage)}
}

func (f *fakeIndex) failNext(n int) {
	f.failNextAfter(0, n)
}

// failNextAfter lets skip calls through, then fails the following n.
func (f *fakeIndex) failNextAfter(skip, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.skip = skip
	f.failures = n
}

func (f *fakeIndex) takeFailure() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.skip > 0 {
		f.skip--
		return false
	}
	if f.failures > 0 {
		f.failures--
		return true
	}
	return false
}

func (f *fakeIndex) EnsureCollection(ctx context.Context, schema search.CollectionSchema) error {
	if f.takeFailure() {
		return &fakeIndexErr{"ensure collection failed"}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.collections[schema.Name]; !ok {
		f.collections[schema.Name] = make(map[string]json.RawMessage)
	}
	return nil
}

func (f *fakeIndex) UpsertDocument(ctx context.Context, collection string, doc any) error {
	if f.takeFailure() {
		return &fakeIndexErr{"upsert failed"}
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	var probe struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.collections[collection]; !ok {
		f.collections[collection] = make(map[string]json.RawMessage)
	}
	f.collections[collection][probe.ID] = raw
	return nil
}

func (f *fakeIndex) DeleteDocument(ctx context.Context, collection, id string) error {
	if f.takeFailure() {
		return &fakeIndexErr{"delete failed"}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.collections[collection], id)
	return nil
}

func (f *fakeIndex) Search(ctx context.Context, collection string, p search.Params) (*search.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	res := &search.Result{Page: 1}
	for _, raw := range f.collections[collection] {
		res.Hits = append(res.Hits, search.Hit{Document: raw})
	}
	res.Found = len(res.Hits)
	return res, nil
}

func (f *fakeIndex) MultiSearch(ctx context.Context, searches []search.Params) ([]search.Result, error) {
	var out []search.Result
	for _, p := range searches {
		res, err := f.Search(ctx, p.Collection, p)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}
	return out, nil
}

func (f *fakeIndex) Health(ctx context.Context) error { return nil }

// document returns the stored document decoded into an ItemDocument, plus
// whether it exists.
func (f *fakeIndex) itemDocument(id string) (models.ItemDocument, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, ok := f.collections[CollectionItems][id]
	if !ok {
		return models.ItemDocument{}, false
	}
	var doc models.ItemDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return models.ItemDocument{}, false
	}
	return doc, true
}

func (f *fakeIndex) size(collection string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.collections[collection])
}

// fakeCatalog is an in-memory canonical store implementing ItemSource,
// CategorySource, and BrandSource for synchronizer tests.
type fakeCatalog struct {
	mu         sync.Mutex
	items      map[uuid.UUID]*models.Item
	categories map[uuid.UUID]*models.Category
	brands     map[uuid.UUID]*models.Brand
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		items:      make(map[uuid.UUID]*models.Item),
		categories: make(map[uuid.UUID]*models.Category),
		brands:     make(map[uuid.UUID]*models.Brand),
	}
}

type fakeItems struct{ c *fakeCatalog }
type fakeCategories struct{ c *fakeCatalog }
type fakeBrands struct{ c *fakeCatalog }

func (s fakeItems) FindByIDWithRelations(id uuid.UUID) (*models.Item, error) {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	it, ok := s.c.items[id]
	if !ok {
		return nil, nil
	}
	cp := *it
	// Re-resolve relations from current state, the way the real store
	// re-reads the entity graph.
	if cp.BrandID != nil {
		if b, ok := s.c.brands[*cp.BrandID]; ok {
			bc := *b
			cp.Brand = &bc
		} else {
			cp.Brand = nil
		}
	}
	cp.Categories = nil
	for _, orig := range it.Categories {
		if cur, ok := s.c.categories[orig.ID]; ok {
			cp.Categories = append(cp.Categories, *cur)
		}
	}
	return &cp, nil
}

func (s fakeItems) IDsByCategory(categoryID uuid.UUID) ([]uuid.UUID, error) {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	var ids []uuid.UUID
	for id, it := range s.c.items {
		for _, cat := range it.Categories {
			if cat.ID == categoryID {
				ids = append(ids, id)
				break
			}
		}
	}
	return ids, nil
}

func (s fakeItems) IDsByBrand(brandID uuid.UUID) ([]uuid.UUID, error) {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	var ids []uuid.UUID
	for id, it := range s.c.items {
		if it.BrandID != nil && *it.BrandID == brandID {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (s fakeItems) AllIDs() ([]uuid.UUID, error) {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	var ids []uuid.UUID
	for id := range s.c.items {
		ids = append(ids, id)
	}
	return ids, nil
}

func (s fakeCategories) FindByID(id uuid.UUID) (*models.Category, error) {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	c, ok := s.c.categories[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (s fakeCategories) AllIDs() ([]uuid.UUID, error) {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	var ids []uuid.UUID
	for id := range s.c.categories {
		ids = append(ids, id)
	}
	return ids, nil
}

func (s fakeBrands) FindByID(id uuid.UUID) (*models.Brand, error) {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	b, ok := s.c.brands[id]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (s fakeBrands) AllIDs() ([]uuid.UUID, error) {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	var ids []uuid.UUID
	for id := range s.c.brands {
		ids = append(ids, id)
	}
	return ids, nil
}

// newTestSynchronizer wires a synchronizer over the fakes.
func newTestSynchronizer(idx *fakeIndex, cat *fakeCatalog) *Synchronizer {
	return NewSynchronizer(idx, fakeItems{cat}, fakeCategories{cat}, fakeBrands{cat})
}
