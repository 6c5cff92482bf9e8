package database

import (
	"context"

	"github.com/vitaprozen/blog-backend/models"
)

// BlogPostRepo is implemented by every storage backend. Finders return
// (nil, nil) when nothing matches, including ids that are not well formed for
// the backend.
type BlogPostRepo interface {
	// FindAll returns one page of posts, newest first, plus the total match count
	FindAll(ctx context.Context, filter models.BlogPostFilter) ([]*models.BlogPost, int64, error)
	FindBySlug(ctx context.Context, slug string) (*models.BlogPost, error)
	FindByID(ctx context.Context, id string) (*models.BlogPost, error)
	// Add assigns ID and timestamps. A slug collision wraps errs.ErrUniqueConstraintViolation.
	Add(ctx context.Context, blogPost *models.BlogPost) error
	// Update refreshes UpdatedAt and replaces the stored record.
	Update(ctx context.Context, blogPost *models.BlogPost) error
	// Delete removes a post and returns it, or (nil, nil) when absent.
	Delete(ctx context.Context, id string) (*models.BlogPost, error)
	DistinctCategories(ctx context.Context) ([]string, error)
	DistinctTags(ctx context.Context) ([]string, error)
	SitemapEntries(ctx context.Context) ([]models.SitemapEntry, error)
}
