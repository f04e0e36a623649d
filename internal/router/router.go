// Package router sets up the HTTP routes and middleware chain for the
// storefront catalog API. Read routes are public; mutation routes live
// under /api/admin.
package router

import (
	"github.com/go-chi/chi/v5"

	"storefront/internal/handlers"
	"storefront/internal/middleware"
)

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(catalog *handlers.Catalog) chi.Router {
	r := chi.NewRouter()

	// Global middleware — applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)

	r.Get("/healthz", catalog.Health)

	r.Route("/api", func(r chi.Router) {
		// Items — relational listing with dynamic attribute filters.
		r.Get("/items", catalog.ListItems)
		r.Get("/items/{id}", catalog.GetItem)

		// Search — index-backed relevance queries.
		r.Get("/search", catalog.SearchItems)
		r.Get("/quick-search", catalog.QuickSearch)

		// Dynamic filter discovery.
		r.Get("/filters", catalog.Filters)
		r.Get("/filters/{key}", catalog.FilterValues)

		// Taxonomy.
		r.Get("/categories", catalog.ListCategories)
		r.Get("/categories/{id}/breadcrumbs", catalog.CategoryBreadcrumbs)
		r.Get("/brands", catalog.ListBrands)

		// Admin mutations.
		r.Route("/admin", func(r chi.Router) {
			r.Route("/items", func(r chi.Router) {
				r.Post("/", catalog.CreateItem)
				r.Put("/{id}", catalog.UpdateItem)
				r.Delete("/{id}", catalog.DeleteItem)
				r.Put("/{id}/categories", catalog.SetItemCategories)
				r.Put("/{id}/attributes/{key}", catalog.SetAttribute)
				r.Delete("/{id}/attributes/{key}", catalog.DeleteAttribute)
			})

			r.Route("/categories", func(r chi.Router) {
				r.Post("/", catalog.CreateCategory)
				r.Put("/{id}", catalog.UpdateCategory)
				r.Delete("/{id}", catalog.DeleteCategory)
			})

			r.Route("/brands", func(r chi.Router) {
				r.Post("/", catalog.CreateBrand)
				r.Put("/{id}", catalog.UpdateBrand)
				r.Delete("/{id}", catalog.DeleteBrand)
			})

			r.Post("/reindex", catalog.Reindex)
		})
	})

	return r
}
