package api

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/vitaprozen/blog-backend/cache"
	"github.com/vitaprozen/blog-backend/database"
	"github.com/vitaprozen/blog-backend/services"
)

type sitemapHandler struct {
	logger       zerolog.Logger
	blogPostRepo database.BlogPostRepo
	cache        *cache.Cache
	baseURL      string
	staticPaths  []string
	now          func() time.Time
}

func newSitemapHandler(blogPostRepo database.BlogPostRepo, c *cache.Cache, baseURL string, staticPaths []string) sitemapHandler {
	return sitemapHandler{
		logger:       log.With().Str("handlerName", "sitemapHandler").Logger(),
		blogPostRepo: blogPostRepo,
		cache:        c,
		baseURL:      baseURL,
		staticPaths:  staticPaths,
		now:          time.Now,
	}
}

// getSitemap renders sitemap.xml for every stored post
// @Summary Sitemap
// @Tags SEO
// @Produce xml
// @Success 200 {string} string "sitemap document"
// @Failure 500 {string} string "Could not generate sitemap"
// @Router /sitemap.xml [get]
func (h sitemapHandler) getSitemap() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var doc []byte
		if !h.cache.GetJSON(r.Context(), cache.KeySitemap, &doc) {
			gen := h.cache.Generation(r.Context())
			entries, err := h.blogPostRepo.SitemapEntries(r.Context())
			if err == nil {
				doc, err = services.BuildSitemap(h.baseURL, h.staticPaths, entries, h.now())
			}
			if err != nil {
				h.logger.Error().Err(err).Msg("Error generating sitemap")
				http.Error(w, "Could not generate sitemap", http.StatusInternalServerError)
				return
			}
			h.cache.SetJSON(r.Context(), cache.KeySitemap, gen, doc)
		}

		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(doc); err != nil {
			h.logger.Error().Err(err).Msg("error writing sitemap")
		}
	}
}
