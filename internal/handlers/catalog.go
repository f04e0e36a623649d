// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers contains the HTTP layer: JSON request parsing, response
// encoding, and status mapping over the catalog service.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"storefront/internal/catalog"
	"storefront/internal/models"
)

// attrParamPrefix marks query parameters carrying dynamic attribute
// criteria, e.g. ?attr.color=red&attr.color=blue&attr.size=xl.
const attrParamPrefix = "attr."

// Catalog groups the catalog API handlers.
type Catalog struct {
	service *catalog.Service
}

// NewCatalog creates the catalog handler group.
func NewCatalog(service *catalog.Service) *Catalog {
	return &Catalog{service: service}
}

// respondJSON writes a JSON response with the given status.
func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("encode response failed", "error", err)
	}
}

// respondError writes a JSON error body. Internal details stay in the log.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// parseFilters reads the filter request out of the query string. Unknown
// parameters are ignored; malformed values fall back to "no constraint".
func parseFilters(q url.Values) catalog.Filters {
	f := catalog.Filters{
		Search:       q.Get("q"),
		CategoryIDs:  parseUUIDs(q["category"]),
		BrandIDs:     parseUUIDs(q["brand"]),
		ActiveOnly:   parseBool(q.Get("active")),
		FeaturedOnly: parseBool(q.Get("featured")),
		InStockOnly:  parseBool(q.Get("in_stock")),
	}
	if v, err := strconv.ParseFloat(q.Get("price_min"), 64); err == nil {
		f.PriceMin = &v
	}
	if v, err := strconv.ParseFloat(q.Get("price_max"), 64); err == nil {
		f.PriceMax = &v
	}

	for key, values := range q {
		name, ok := strings.CutPrefix(key, attrParamPrefix)
		if !ok || name == "" || len(values) == 0 {
			continue
		}
		if f.Attributes == nil {
			f.Attributes = make(map[string][]string)
		}
		f.Attributes[name] = values
	}
	return f
}

func parseUUIDs(values []string) []uuid.UUID {
	var ids []uuid.UUID
	for _, v := range values {
		if id, err := uuid.Parse(v); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

func parseBool(v string) bool {
	b, _ := strconv.ParseBool(v)
	return b
}

func parseInt(v string, fallback int) int {
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// Health reports component health: 200 while the database answers, 503
// otherwise. A down search engine shows in the body but does not fail the
// check, since the relational paths keep serving.
func (h *Catalog) Health(w http.ResponseWriter, r *http.Request) {
	health := h.service.Health(r.Context())
	status := http.StatusOK
	if !health.Healthy() {
		status = http.StatusServiceUnavailable
	}
	respondJSON(w, status, health)
}

// ListItems serves the filtered item listing from the relational store.
// This path supports the dynamic attribute filters.
func (h *Catalog) ListItems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := h.service.FindPage(
		parseFilters(q),
		q.Get("sort"), q.Get("dir"),
		parseInt(q.Get("page"), 1), parseInt(q.Get("per_page"), 20),
	)
	if err != nil {
		slog.Error("list items failed", "error", err)
		respondError(w, http.StatusInternalServerError, "listing failed")
		return
	}
	respondJSON(w, http.StatusOK, page)
}

// SearchItems serves relevance-ranked results from the search index.
func (h *Catalog) SearchItems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := h.service.SearchItems(r.Context(),
		parseFilters(q),
		q.Get("sort"), q.Get("dir"),
		parseInt(q.Get("page"), 1), parseInt(q.Get("per_page"), 20),
	)
	if err != nil {
		slog.Error("search items failed", "error", err)
		respondError(w, http.StatusBadGateway, "search unavailable")
		return
	}
	respondJSON(w, http.StatusOK, page)
}

// QuickSearch serves the federated typeahead query.
func (h *Catalog) QuickSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		respondError(w, http.StatusBadRequest, "missing query")
		return
	}

	results, err := h.service.QuickSearch(r.Context(), query, parseInt(r.URL.Query().Get("limit"), 5))
	if err != nil {
		slog.Error("quick search failed", "error", err)
		respondError(w, http.StatusBadGateway, "search unavailable")
		return
	}
	respondJSON(w, http.StatusOK, results)
}

// GetItem serves one item with its relations and attributes.
func (h *Catalog) GetItem(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}

	item, err := h.service.Item(id)
	if err != nil {
		slog.Error("get item failed", "id", id, "error", err)
		respondError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	if item == nil {
		respondError(w, http.StatusNotFound, "item not found")
		return
	}
	respondJSON(w, http.StatusOK, item)
}

// Filters serves the discovered dynamic filter set.
func (h *Catalog) Filters(w http.ResponseWriter, r *http.Request) {
	fs, err := h.service.AvailableFilters(r.Context())
	if err != nil {
		slog.Error("available filters failed", "error", err)
		respondError(w, http.StatusInternalServerError, "filter discovery failed")
		return
	}
	respondJSON(w, http.StatusOK, fs)
}

// FilterValues serves the distinct values of one attribute key.
func (h *Catalog) FilterValues(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	opts, err := h.service.FilterValues(key)
	if err != nil {
		slog.Error("filter values failed", "key", key, "error", err)
		respondError(w, http.StatusInternalServerError, "filter lookup failed")
		return
	}
	if opts == nil {
		opts = []catalog.FilterOption{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"key": key, "values": opts})
}

// ListCategories serves categories, nested when ?tree=true.
func (h *Catalog) ListCategories(w http.ResponseWriter, r *http.Request) {
	var (
		cats []models.Category
		err  error
	)
	if parseBool(r.URL.Query().Get("tree")) {
		cats, err = h.service.CategoryTree()
	} else {
		cats, err = h.service.Categories()
	}
	if err != nil {
		slog.Error("list categories failed", "error", err)
		respondError(w, http.StatusInternalServerError, "listing failed")
		return
	}
	if cats == nil {
		cats = []models.Category{}
	}
	respondJSON(w, http.StatusOK, cats)
}

// CategoryBreadcrumbs serves the root-first ancestor path of a category.
func (h *Catalog) CategoryBreadcrumbs(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}

	chain, err := h.service.CategoryAncestors(id)
	if err != nil {
		slog.Error("category breadcrumbs failed", "id", id, "error", err)
		respondError(w, http.StatusInternalServerError, "breadcrumb lookup failed")
		return
	}
	if chain == nil {
		chain = []models.Category{}
	}
	respondJSON(w, http.StatusOK, chain)
}

// ListBrands serves all brands with item counts.
func (h *Catalog) ListBrands(w http.ResponseWriter, r *http.Request) {
	brands, err := h.service.Brands()
	if err != nil {
		slog.Error("list brands failed", "error", err)
		respondError(w, http.StatusInternalServerError, "listing failed")
		return
	}
	if brands == nil {
		brands = []models.Brand{}
	}
	respondJSON(w, http.StatusOK, brands)
}

// --- admin ---

// CreateItem creates an item from a JSON body.
func (h *Catalog) CreateItem(w http.ResponseWriter, r *http.Request) {
	var it models.Item
	if err := json.NewDecoder(r.Body).Decode(&it); err != nil {
		respondError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if it.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	created, err := h.service.CreateItem(&it)
	if err != nil {
		slog.Error("create item failed", "error", err)
		respondError(w, http.StatusInternalServerError, "create failed")
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

// UpdateItem updates an item from a JSON body.
func (h *Catalog) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.service.Item(id)
	if err != nil {
		slog.Error("load item failed", "id", id, "error", err)
		respondError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	if existing == nil {
		respondError(w, http.StatusNotFound, "item not found")
		return
	}

	var it models.Item
	if err := json.NewDecoder(r.Body).Decode(&it); err != nil {
		respondError(w, http.StatusBadRequest, "invalid body")
		return
	}
	it.ID = id

	if err := h.service.UpdateItem(&it); err != nil {
		slog.Error("update item failed", "id", id, "error", err)
		respondError(w, http.StatusInternalServerError, "update failed")
		return
	}
	respondJSON(w, http.StatusOK, it)
}

// DeleteItem removes an item.
func (h *Catalog) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.service.DeleteItem(id); err != nil {
		slog.Error("delete item failed", "id", id, "error", err)
		respondError(w, http.StatusInternalServerError, "delete failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetItemCategories replaces an item's category links.
func (h *Catalog) SetItemCategories(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var body struct {
		CategoryIDs []uuid.UUID `json:"category_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid body")
		return
	}

	if err := h.service.SetItemCategories(id, body.CategoryIDs); err != nil {
		slog.Error("set item categories failed", "id", id, "error", err)
		respondError(w, http.StatusInternalServerError, "update failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetAttribute upserts one dynamic attribute. The value keeps whatever JSON
// type the caller sent: string, number, boolean, or structured JSON.
func (h *Catalog) SetAttribute(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}
	key := chi.URLParam(r, "key")

	var body struct {
		Value any `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if body.Value == nil {
		respondError(w, http.StatusBadRequest, "value is required")
		return
	}

	if err := h.service.SetAttribute(r.Context(), id, key, body.Value); err != nil {
		slog.Error("set attribute failed", "id", id, "key", key, "error", err)
		respondError(w, http.StatusInternalServerError, "update failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteAttribute removes one dynamic attribute.
func (h *Catalog) DeleteAttribute(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}
	key := chi.URLParam(r, "key")

	if err := h.service.DeleteAttribute(r.Context(), id, key); err != nil {
		slog.Error("delete attribute failed", "id", id, "key", key, "error", err)
		respondError(w, http.StatusInternalServerError, "delete failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateCategory creates a category from a JSON body.
func (h *Catalog) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var c models.Category
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		respondError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if c.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	created, err := h.service.CreateCategory(&c)
	if err != nil {
		slog.Error("create category failed", "error", err)
		respondError(w, http.StatusInternalServerError, "create failed")
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

// UpdateCategory updates a category from a JSON body.
func (h *Catalog) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var c models.Category
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		respondError(w, http.StatusBadRequest, "invalid body")
		return
	}
	c.ID = id

	if err := h.service.UpdateCategory(&c); err != nil {
		slog.Error("update category failed", "id", id, "error", err)
		respondError(w, http.StatusInternalServerError, "update failed")
		return
	}
	respondJSON(w, http.StatusOK, c)
}

// DeleteCategory removes a category.
func (h *Catalog) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.service.DeleteCategory(id); err != nil {
		slog.Error("delete category failed", "id", id, "error", err)
		respondError(w, http.StatusInternalServerError, "delete failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateBrand creates a brand from a JSON body.
func (h *Catalog) CreateBrand(w http.ResponseWriter, r *http.Request) {
	var b models.Brand
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		respondError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if b.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	created, err := h.service.CreateBrand(&b)
	if err != nil {
		slog.Error("create brand failed", "error", err)
		respondError(w, http.StatusInternalServerError, "create failed")
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

// UpdateBrand updates a brand from a JSON body.
func (h *Catalog) UpdateBrand(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var b models.Brand
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		respondError(w, http.StatusBadRequest, "invalid body")
		return
	}
	b.ID = id

	if err := h.service.UpdateBrand(&b); err != nil {
		slog.Error("update brand failed", "id", id, "error", err)
		respondError(w, http.StatusInternalServerError, "update failed")
		return
	}
	respondJSON(w, http.StatusOK, b)
}

// DeleteBrand removes a brand.
func (h *Catalog) DeleteBrand(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.service.DeleteBrand(id); err != nil {
		slog.Error("delete brand failed", "id", id, "error", err)
		respondError(w, http.StatusInternalServerError, "delete failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Reindex rebuilds every search document from the canonical store.
func (h *Catalog) Reindex(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ReindexAll(r.Context()); err != nil {
		slog.Error("reindex failed", "error", err)
		respondError(w, http.StatusBadGateway, "reindex failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "reindexed"})
}
