package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// setupRoutes mounts the public, admin and blog route groups
func setupRoutes(r chi.Router, handlers *routeHandlers, auth authMiddleware, uploads uploadMiddleware, staticDir string) {
	r.Get("/", healthCheck())
	r.Get("/sitemap.xml", handlers.sitemapHandler.getSitemap())
	r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(staticDir))))

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(auth.authenticate)
		r.Get("/dashboard", handlers.adminHandler.dashboard())
	})

	r.Route("/api/blogs", func(r chi.Router) {
		blogs := handlers.blogPostHandler

		// Public reads
		r.Get("/", blogs.getAllBlogPosts())
		r.Get("/categories", blogs.getCategories())
		r.Get("/tags", blogs.getTags())
		r.Get("/{slug}", blogs.getBlogPostBySlug())

		// Admin writes
		r.Group(func(r chi.Router) {
			r.Use(auth.authenticate)

			r.With(uploads.blogMedia).Post("/create", blogs.createBlogPost())
			r.With(uploads.blogMedia).Put("/{id}", blogs.updateBlogPost())
			r.Delete("/{id}", blogs.deleteBlogPost())
			r.Patch("/{id}/publish", blogs.togglePublish())
			r.With(uploads.singleFile).Post("/upload-file", blogs.uploadFile())
		})
	})
}
