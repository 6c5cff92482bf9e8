package api

import (
	"net/http"

	"github.com/vitaprozen/blog-backend/config"
	"github.com/vitaprozen/blog-backend/services"
)

// initializeHandlers creates and returns all handlers organized in a routeHandlers struct
func initializeHandlers(deps Dependencies, c map[string]string) *routeHandlers {
	blogPostRepo := deps.Database.BlogPostRepo()

	return &routeHandlers{
		blogPostHandler: newBlogPostHandler(blogPostRepo, deps.Cleaner, deps.Cache),
		adminHandler:    newAdminHandler(),
		sitemapHandler: newSitemapHandler(
			blogPostRepo,
			deps.Cache,
			config.GetString(c, "SITE_BASE_URL", "https://www.vitaprozen.com"),
			config.GetList(c, "SITEMAP_STATIC_PATHS", services.DefaultStaticPaths, true),
		),
	}
}

func healthCheck() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("Backend is running"))
	}
}
