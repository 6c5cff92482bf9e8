package services

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/vitaprozen/blog-backend/models"
)

const sitemapNamespace = "http://www.sitemaps.org/schemas/sitemap/0.9"

// lastModLayout matches JavaScript's Date.toISOString, which crawlers of the
// previous site already saw.
const lastModLayout = "2006-01-02T15:04:05.000Z"

// DefaultStaticPaths are the site pages listed ahead of blog posts.
var DefaultStaticPaths = []string{
	"",
	"/about",
	"/contact",
	"/terms",
	"/privacy",
	"/affiliate-disclaimers",
	"/blog",
}

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq"`
	Priority   string `xml:"priority"`
}

// BuildBlogPostURL constructs the public URL of a blog post from its slug.
func BuildBlogPostURL(baseURL, slug string) string {
	if baseURL == "" || slug == "" {
		return ""
	}
	return fmt.Sprintf("%s/blog/%s", strings.TrimSuffix(baseURL, "/"), slug)
}

// BuildSitemap renders the sitemap document. Entries without an update time
// get now as lastmod.
func BuildSitemap(baseURL string, staticPaths []string, entries []models.SitemapEntry, now time.Time) ([]byte, error) {
	base := strings.TrimSuffix(baseURL, "/")
	urls := make([]sitemapURL, 0, len(staticPaths)+len(entries))

	for _, p := range staticPaths {
		urls = append(urls, sitemapURL{
			Loc:        base + p,
			ChangeFreq: "weekly",
			Priority:   "0.8",
		})
	}

	for _, e := range entries {
		lastMod := e.UpdatedAt
		if lastMod.IsZero() {
			lastMod = now
		}
		urls = append(urls, sitemapURL{
			Loc:        BuildBlogPostURL(base, e.Slug),
			LastMod:    lastMod.UTC().Format(lastModLayout),
			ChangeFreq: "weekly",
			Priority:   "0.9",
		})
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(sitemapURLSet{XMLNS: sitemapNamespace, URLs: urls}); err != nil {
		return nil, fmt.Errorf("failed to encode sitemap: %w", err)
	}
	return buf.Bytes(), nil
}
