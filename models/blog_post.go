package models

import (
	"math"
	"time"
)

// BlogPost represents a blog article together with its media and SEO metadata
type BlogPost struct {
	ID              string    `json:"_id"`
	Title           string    `json:"title"`
	Slug            string    `json:"slug"`
	Content         string    `json:"content"`
	Thumbnail       string    `json:"thumbnail"`
	Category        string    `json:"category"`
	ExtraImages     []string  `json:"extraImages"`
	Videos          []string  `json:"videos"`
	Published       bool      `json:"published"`
	MetaTitle       string    `json:"metaTitle,omitempty"`
	MetaDescription string    `json:"metaDescription,omitempty"`
	Tags            []string  `json:"tags"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// MediaURLs returns every remote asset referenced by the post.
func (p *BlogPost) MediaURLs() []string {
	urls := make([]string, 0, 1+len(p.ExtraImages)+len(p.Videos))
	if p.Thumbnail != "" {
		urls = append(urls, p.Thumbnail)
	}
	urls = append(urls, p.ExtraImages...)
	urls = append(urls, p.Videos...)
	return urls
}

// SitemapEntry is the slug/updatedAt projection used to build the sitemap
type SitemapEntry struct {
	Slug      string
	UpdatedAt time.Time
}

// BlogPostFilter holds the list filters and pagination of the admin listing.
// A nil Published means "any state".
type BlogPostFilter struct {
	Category  string
	Published *bool
	Search    string
	Page      int
	Limit     int
}

// Skip is the number of records before the requested page. It saturates at
// math.MaxInt instead of overflowing for absurd page numbers.
func (f BlogPostFilter) Skip() int {
	if f.Page < 1 || f.Limit < 1 {
		return 0
	}
	if f.Page-1 > math.MaxInt/f.Limit {
		return math.MaxInt
	}
	return (f.Page - 1) * f.Limit
}
