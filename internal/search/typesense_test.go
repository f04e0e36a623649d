// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// newTestServer creates an httptest.Server that responds with the given
// status code and body bytes. The caller must call Close on the returned server.
func newTestServer(t *testing.T, statusCode int, body []byte) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		w.Write(body)
	}))
}

func testClient(srvURL string) *Typesense {
	return NewTypesense(srvURL, "test-api-key", 2*time.Second)
}

func TestUpsertDocument_RequestShape(t *testing.T) {
	var capturedHeaders http.Header
	var capturedBody []byte
	var capturedURL string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedHeaders = r.Header.Clone()
		capturedBody, _ = io.ReadAll(r.Body)
		capturedURL = r.URL.String()
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	doc := map[string]any{"id": "abc", "name": "XLR Cable"}
	if err := testClient(srv.URL).UpsertDocument(context.Background(), "items", doc); err != nil {
		t.Fatalf("UpsertDocument: %v", err)
	}

	if got := capturedHeaders.Get("X-TYPESENSE-API-KEY"); got != "test-api-key" {
		t.Errorf("api key header: got %q", got)
	}
	if got := capturedHeaders.Get("Content-Type"); got != "application/json" {
		t.Errorf("content type: got %q", got)
	}
	if capturedURL != "/collections/items/documents?action=upsert" {
		t.Errorf("url: got %q", capturedURL)
	}

	var sent map[string]any
	if err := json.Unmarshal(capturedBody, &sent); err != nil {
		t.Fatalf("unmarshal sent body: %v", err)
	}
	if sent["id"] != "abc" || sent["name"] != "XLR Cable" {
		t.Errorf("sent document: got %+v", sent)
	}
}

func TestUpsertDocument_HTTPError(t *testing.T) {
	srv := newTestServer(t, http.StatusBadRequest, []byte(`{"message":"bad field"}`))
	defer srv.Close()

	err := testClient(srv.URL).UpsertDocument(context.Background(), "items", map[string]any{"id": "x"})
	if err == nil {
		t.Fatal("expected error for HTTP 400, got nil")
	}
	if !strings.Contains(err.Error(), "status 400") {
		t.Errorf("error should mention status 400: got %q", err.Error())
	}
	if !strings.Contains(err.Error(), "bad field") {
		t.Errorf("error should include response body: got %q", err.Error())
	}
}

func TestDeleteDocument_NotFoundTolerated(t *testing.T) {
	srv := newTestServer(t, http.StatusNotFound, []byte(`{"message":"Not Found"}`))
	defer srv.Close()

	if err := testClient(srv.URL).DeleteDocument(context.Background(), "items", "missing-id"); err != nil {
		t.Fatalf("DeleteDocument should tolerate 404: %v", err)
	}
}

func TestDeleteDocument_OtherErrorSurfaces(t *testing.T) {
	srv := newTestServer(t, http.StatusServiceUnavailable, []byte(`{"message":"down"}`))
	defer srv.Close()

	err := testClient(srv.URL).DeleteDocument(context.Background(), "items", "some-id")
	if err == nil {
		t.Fatal("expected error for HTTP 503, got nil")
	}
	if !strings.Contains(err.Error(), "status 503") {
		t.Errorf("error should mention status 503: got %q", err.Error())
	}
}

func TestEnsureCollection_ConflictTolerated(t *testing.T) {
	srv := newTestServer(t, http.StatusConflict, []byte(`{"message":"already exists"}`))
	defer srv.Close()

	schema := CollectionSchema{Name: "items", Fields: []Field{{Name: "name", Type: "string"}}}
	if err := testClient(srv.URL).EnsureCollection(context.Background(), schema); err != nil {
		t.Fatalf("EnsureCollection should tolerate 409: %v", err)
	}
}

func TestEnsureCollection_SendsSchema(t *testing.T) {
	var capturedBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	schema := CollectionSchema{
		Name: "items",
		Fields: []Field{
			{Name: "name", Type: "string"},
			{Name: "price", Type: "float", Facet: true, Sort: true},
		},
		DefaultSortingField: "created_at",
	}
	if err := testClient(srv.URL).EnsureCollection(context.Background(), schema); err != nil {
		t.Fatalf("EnsureCollection: %v", err)
	}

	var sent CollectionSchema
	if err := json.Unmarshal(capturedBody, &sent); err != nil {
		t.Fatalf("unmarshal sent schema: %v", err)
	}
	if sent.Name != "items" || len(sent.Fields) != 2 {
		t.Errorf("sent schema: got %+v", sent)
	}
	if sent.DefaultSortingField != "created_at" {
		t.Errorf("default sorting field: got %q", sent.DefaultSortingField)
	}
}

func TestSearch_EncodesParams(t *testing.T) {
	var capturedQuery map[string][]string
	var capturedPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedQuery = r.URL.Query()
		capturedPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"found":2,"page":1,"hits":[{"document":{"id":"a"}},{"document":{"id":"b"}}]}`))
	}))
	defer srv.Close()

	result, err := testClient(srv.URL).Search(context.Background(), "items", Params{
		Query:    "cable",
		QueryBy:  "name,description",
		FilterBy: "is_active:=true && price:<=20",
		SortBy:   "price:asc",
		Page:     2,
		PerPage:  10,
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if capturedPath != "/collections/items/documents/search" {
		t.Errorf("path: got %q", capturedPath)
	}
	want := map[string]string{
		"q":         "cable",
		"query_by":  "name,description",
		"filter_by": "is_active:=true && price:<=20",
		"sort_by":   "price:asc",
		"page":      "2",
		"per_page":  "10",
	}
	for k, v := range want {
		if got := capturedQuery[k]; len(got) != 1 || got[0] != v {
			t.Errorf("query param %q: got %v, want %q", k, got, v)
		}
	}

	if result.Found != 2 || len(result.Hits) != 2 {
		t.Errorf("result: got found=%d hits=%d", result.Found, len(result.Hits))
	}
}

func TestSearch_MalformedJSON(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, []byte(`{not json`))
	defer srv.Close()

	_, err := testClient(srv.URL).Search(context.Background(), "items", Params{Query: "x", QueryBy: "name"})
	if err == nil {
		t.Fatal("expected error for malformed JSON, got nil")
	}
	if !strings.Contains(err.Error(), "unmarshal") {
		t.Errorf("error should mention unmarshal: got %q", err.Error())
	}
}

func TestMultiSearch_RequestAndResponse(t *testing.T) {
	var capturedBody []byte
	var capturedPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedBody, _ = io.ReadAll(r.Body)
		capturedPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"results":[{"found":1,"hits":[{"document":{"id":"i1"}}]},{"found":0,"hits":[]}]}`))
	}))
	defer srv.Close()

	searches := []Params{
		{Collection: "items", Query: "cable", QueryBy: "name,description", HighlightFullFields: "name"},
		{Collection: "brands", Query: "cable", QueryBy: "name"},
	}
	results, err := testClient(srv.URL).MultiSearch(context.Background(), searches)
	if err != nil {
		t.Fatalf("MultiSearch: %v", err)
	}

	if capturedPath != "/multi_search" {
		t.Errorf("path: got %q", capturedPath)
	}

	var sent multiSearchRequest
	if err := json.Unmarshal(capturedBody, &sent); err != nil {
		t.Fatalf("unmarshal sent body: %v", err)
	}
	if len(sent.Searches) != 2 {
		t.Fatalf("sent searches: got %d, want 2", len(sent.Searches))
	}
	if sent.Searches[0].Collection != "items" || sent.Searches[0].HighlightFullFields != "name" {
		t.Errorf("first search: got %+v", sent.Searches[0])
	}

	if len(results) != 2 || results[0].Found != 1 || results[1].Found != 0 {
		t.Errorf("results: got %+v", results)
	}
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, []byte(`{"ok":true}`))
	defer srv.Close()

	if err := testClient(srv.URL).Health(context.Background()); err != nil {
		t.Fatalf("Health: %v", err)
	}
}

func TestHealth_Down(t *testing.T) {
	srv := newTestServer(t, http.StatusServiceUnavailable, []byte(`{"ok":false}`))
	defer srv.Close()

	if err := testClient(srv.URL).Health(context.Background()); err == nil {
		t.Fatal("expected error for HTTP 503, got nil")
	}
}

func TestConnectionRefused(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, []byte(`{}`))
	srv.Close()

	err := testClient(srv.URL).Health(context.Background())
	if err == nil {
		t.Fatal("expected error for connection refused, got nil")
	}
	if !strings.Contains(err.Error(), "typesense http") {
		t.Errorf("error should be wrapped with 'typesense http': got %q", err.Error())
	}
}

func TestCancelledContext(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, []byte(`{}`))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := testClient(srv.URL).Health(ctx); err == nil {
		t.Fatal("expected error for cancelled context, got nil")
	}
}
