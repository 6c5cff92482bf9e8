package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"gorm.io/datatypes"

	"github.com/vitaprozen/blog-backend/models"
)

// blogPostDocument mirrors the "blogs" collection layout
type blogPostDocument struct {
	ID              primitive.ObjectID `bson:"_id,omitempty"`
	Title           string             `bson:"title"`
	Slug            string             `bson:"slug"`
	Content         string             `bson:"content"`
	Thumbnail       string             `bson:"thumbnail"`
	Category        string             `bson:"category"`
	ExtraImages     []string           `bson:"extraImages"`
	Videos          []string           `bson:"videos"`
	Published       bool               `bson:"published"`
	MetaTitle       string             `bson:"metaTitle,omitempty"`
	MetaDescription string             `bson:"metaDescription,omitempty"`
	Tags            []string           `bson:"tags"`
	CreatedAt       time.Time          `bson:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt"`
}

func toBlogPostDocument(p *models.BlogPost) blogPostDocument {
	return blogPostDocument{
		Title:           p.Title,
		Slug:            p.Slug,
		Content:         p.Content,
		Thumbnail:       p.Thumbnail,
		Category:        p.Category,
		ExtraImages:     nonNil(p.ExtraImages),
		Videos:          nonNil(p.Videos),
		Published:       p.Published,
		MetaTitle:       p.MetaTitle,
		MetaDescription: p.MetaDescription,
		Tags:            nonNil(p.Tags),
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

func (d *blogPostDocument) toModel() *models.BlogPost {
	return &models.BlogPost{
		ID:              d.ID.Hex(),
		Title:           d.Title,
		Slug:            d.Slug,
		Content:         d.Content,
		Thumbnail:       d.Thumbnail,
		Category:        d.Category,
		ExtraImages:     nonNil(d.ExtraImages),
		Videos:          nonNil(d.Videos),
		Published:       d.Published,
		MetaTitle:       d.MetaTitle,
		MetaDescription: d.MetaDescription,
		Tags:            nonNil(d.Tags),
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

// blogPostRecord is the gorm model of the blog_posts table. Tags stay a text[]
// so search can unnest them; media lists are opaque jsonb.
type blogPostRecord struct {
	ID              uuid.UUID                   `gorm:"type:uuid;primaryKey;default:gen_random_uuid();not null"`
	Title           string                      `gorm:"type:text;not null"`
	Slug            string                      `gorm:"type:text;not null;uniqueIndex:idx_blog_posts_slug"`
	Content         string                      `gorm:"type:text;not null"`
	Thumbnail       string                      `gorm:"type:text;not null"`
	Category        string                      `gorm:"type:text;not null;index"`
	ExtraImages     datatypes.JSONSlice[string] `gorm:"type:jsonb;not null;default:'[]'"`
	Videos          datatypes.JSONSlice[string] `gorm:"type:jsonb;not null;default:'[]'"`
	Published       bool                        `gorm:"not null;default:false"`
	MetaTitle       string                      `gorm:"type:text"`
	MetaDescription string                      `gorm:"type:text"`
	Tags            pq.StringArray              `gorm:"type:text[];not null;default:'{}'"`
	CreatedAt       time.Time                   `gorm:"index:idx_blog_posts_created_at,sort:desc"`
	UpdatedAt       time.Time
}

func (blogPostRecord) TableName() string {
	return "blog_posts"
}

func toBlogPostRecord(p *models.BlogPost) blogPostRecord {
	record := blogPostRecord{
		Title:           p.Title,
		Slug:            p.Slug,
		Content:         p.Content,
		Thumbnail:       p.Thumbnail,
		Category:        p.Category,
		ExtraImages:     datatypes.JSONSlice[string](nonNil(p.ExtraImages)),
		Videos:          datatypes.JSONSlice[string](nonNil(p.Videos)),
		Published:       p.Published,
		MetaTitle:       p.MetaTitle,
		MetaDescription: p.MetaDescription,
		Tags:            pq.StringArray(nonNil(p.Tags)),
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
	if id, err := uuid.Parse(p.ID); err == nil {
		record.ID = id
	}
	return record
}

func (r *blogPostRecord) toModel() *models.BlogPost {
	return &models.BlogPost{
		ID:              r.ID.String(),
		Title:           r.Title,
		Slug:            r.Slug,
		Content:         r.Content,
		Thumbnail:       r.Thumbnail,
		Category:        r.Category,
		ExtraImages:     nonNil([]string(r.ExtraImages)),
		Videos:          nonNil([]string(r.Videos)),
		Published:       r.Published,
		MetaTitle:       r.MetaTitle,
		MetaDescription: r.MetaDescription,
		Tags:            nonNil(r.Tags),
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
