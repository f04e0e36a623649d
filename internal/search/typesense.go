// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Typesense is the HTTP implementation of Client against the Typesense API.
// The client is stateless and safe for concurrent use; every call is bounded
// by the HTTP client timeout so a hung engine cannot stall callers forever.
type Typesense struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewTypesense creates a Typesense client for the given server URL and API key.
func NewTypesense(baseURL, apiKey string, timeout time.Duration) *Typesense {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Typesense{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

// do performs one API call and returns the status code and response body.
func (t *Typesense) do(ctx context.Context, method, path string, body any) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("typesense marshal: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, t.baseURL+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("typesense request: %w", err)
	}
	req.Header.Set("X-TYPESENSE-API-KEY", t.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("typesense http: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("typesense read body: %w", err)
	}
	return resp.StatusCode, respBody, nil
}

// EnsureCollection creates the collection, treating 409 Conflict (already
// exists) as success.
func (t *Typesense) EnsureCollection(ctx context.Context, schema CollectionSchema) error {
	status, body, err := t.do(ctx, http.MethodPost, "/collections", schema)
	if err != nil {
		return err
	}
	if status == http.StatusConflict {
		return nil
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return fmt.Errorf("typesense create collection %q (status %d): %s", schema.Name, status, body)
	}
	return nil
}

// UpsertDocument creates or replaces a document keyed by its id field.
func (t *Typesense) UpsertDocument(ctx context.Context, collection string, doc any) error {
	path := "/collections/" + url.PathEscape(collection) + "/documents?action=upsert"
	status, body, err := t.do(ctx, http.MethodPost, path, doc)
	if err != nil {
		return err
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return fmt.Errorf("typesense upsert in %q (status %d): %s", collection, status, body)
	}
	return nil
}

// DeleteDocument removes a document by id, treating 404 Not Found as
// success so deletes stay idempotent.
func (t *Typesense) DeleteDocument(ctx context.Context, collection, id string) error {
	path := "/collections/" + url.PathEscape(collection) + "/documents/" + url.PathEscape(id)
	status, body, err := t.do(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	if status == http.StatusNotFound {
		return nil
	}
	if status != http.StatusOK {
		return fmt.Errorf("typesense delete %s/%s (status %d): %s", collection, id, status, body)
	}
	return nil
}

// Search runs a paginated single-collection query.
func (t *Typesense) Search(ctx context.Context, collection string, p Params) (*Result, error) {
	q := url.Values{}
	q.Set("q", p.Query)
	q.Set("query_by", p.QueryBy)
	if p.FilterBy != "" {
		q.Set("filter_by", p.FilterBy)
	}
	if p.SortBy != "" {
		q.Set("sort_by", p.SortBy)
	}
	if p.FacetBy != "" {
		q.Set("facet_by", p.FacetBy)
	}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.PerPage > 0 {
		q.Set("per_page", strconv.Itoa(p.PerPage))
	}

	path := "/collections/" + url.PathEscape(collection) + "/documents/search?" + q.Encode()
	status, body, err := t.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("typesense search %q (status %d): %s", collection, status, body)
	}

	var result Result
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("typesense search unmarshal: %w", err)
	}
	return &result, nil
}

// multiSearchRequest and multiSearchResponse mirror the /multi_search wire
// format.
type multiSearchRequest struct {
	Searches []Params `json:"searches"`
}

type multiSearchResponse struct {
	Results []Result `json:"results"`
}

// MultiSearch runs a federated query: one request, several collections,
// each with its own query-by and highlight configuration.
func (t *Typesense) MultiSearch(ctx context.Context, searches []Params) ([]Result, error) {
	status, body, err := t.do(ctx, http.MethodPost, "/multi_search", multiSearchRequest{Searches: searches})
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("typesense multi search (status %d): %s", status, body)
	}

	var result multiSearchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("typesense multi search unmarshal: %w", err)
	}
	return result.Results, nil
}

// Health checks the engine's /health endpoint.
func (t *Typesense) Health(ctx context.Context) error {
	status, body, err := t.do(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("typesense health (status %d): %s", status, body)
	}
	return nil
}
