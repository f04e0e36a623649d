// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package search provides the client boundary to the document/facet search
// engine (Typesense). The engine holds one denormalized collection per
// catalog entity kind and is an eventually consistent replica of the
// relational store, never a source of truth.
package search

import (
	"context"
	"encoding/json"
)

// Client is the interface the catalog synchronizer and query paths use to
// talk to the search engine. The HTTP implementation lives in this package;
// tests substitute in-memory fakes.
type Client interface {
	// EnsureCollection creates a collection if it does not exist yet.
	// Creating an existing collection is not an error.
	EnsureCollection(ctx context.Context, schema CollectionSchema) error

	// UpsertDocument creates or replaces a document by its id field.
	UpsertDocument(ctx context.Context, collection string, doc any) error

	// DeleteDocument removes a document by id. Deleting an absent document
	// is not an error.
	DeleteDocument(ctx context.Context, collection, id string) error

	// Search runs a paginated single-collection query.
	Search(ctx context.Context, collection string, p Params) (*Result, error)

	// MultiSearch runs a federated query across several collections, each
	// with its own query-by and highlight configuration.
	MultiSearch(ctx context.Context, searches []Params) ([]Result, error)

	// Health reports whether the engine is reachable and serving.
	Health(ctx context.Context) error
}

// CollectionSchema describes a collection and its typed, facetable fields.
type CollectionSchema struct {
	Name                string  `json:"name"`
	Fields              []Field `json:"fields"`
	DefaultSortingField string  `json:"default_sorting_field,omitempty"`
}

// Field is one schema field of a collection.
type Field struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Facet    bool   `json:"facet,omitempty"`
	Optional bool   `json:"optional,omitempty"`
	Sort     bool   `json:"sort,omitempty"`
}

// Params holds the parameters of one search. Collection is only used in
// multi-search requests; single-collection searches name the collection in
// the URL.
type Params struct {
	Collection          string `json:"collection,omitempty"`
	Query               string `json:"q"`
	QueryBy             string `json:"query_by"`
	FilterBy            string `json:"filter_by,omitempty"`
	SortBy              string `json:"sort_by,omitempty"`
	FacetBy             string `json:"facet_by,omitempty"`
	HighlightFullFields string `json:"highlight_full_fields,omitempty"`
	Page                int    `json:"page,omitempty"`
	PerPage             int    `json:"per_page,omitempty"`
}

// Result is the engine's answer to one search.
type Result struct {
	Found int   `json:"found"`
	Page  int   `json:"page"`
	Hits  []Hit `json:"hits"`
}

// Hit is a single matching document. The raw document is kept as JSON so
// each caller can decode into its own document type.
type Hit struct {
	Document json.RawMessage `json:"document"`
}
