package database

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/vitaprozen/blog-backend/config"
	"github.com/vitaprozen/blog-backend/errs"
	"github.com/vitaprozen/blog-backend/models"
)

const blogCollection = "blogs"

func connectMongo(ctx context.Context, c map[string]string) (Database, error) {
	uri := config.GetString(c, "MONGO_URI", "mongodb://localhost:27017")
	dbName := config.GetString(c, "MONGO_DB", "blog")

	connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(10*time.Second))
	if err != nil {
		return Database{}, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return Database{}, fmt.Errorf("ping mongo: %w", err)
	}

	repo := NewMongoBlogPostRepo(client.Database(dbName).Collection(blogCollection))
	if config.GetBool(c, "DATABASE_AUTO_MIGRATE", true) {
		if err := repo.EnsureIndexes(connectCtx); err != nil {
			_ = client.Disconnect(context.Background())
			return Database{}, fmt.Errorf("create blog indexes: %w", err)
		}
	}

	log.Info().Str("database", dbName).Msg("Connected to MongoDB")
	return New(repo, client.Disconnect), nil
}

type MongoBlogPostRepo struct {
	coll *mongo.Collection
}

func NewMongoBlogPostRepo(coll *mongo.Collection) *MongoBlogPostRepo {
	return &MongoBlogPostRepo{coll}
}

// EnsureIndexes creates the unique slug index and the listing sort index
func (r *MongoBlogPostRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "slug", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("slug_unique"),
		},
		{
			Keys:    bson.D{{Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("created_at_desc"),
		},
	})
	return err
}

func mongoFilter(f models.BlogPostFilter) bson.M {
	query := bson.M{}
	if f.Category != "" {
		query["category"] = f.Category
	}
	if f.Published != nil {
		query["published"] = *f.Published
	}
	if f.Search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
		query["$or"] = bson.A{
			bson.M{"title": pattern},
			bson.M{"content": pattern},
			bson.M{"tags": pattern},
		}
	}
	return query
}

func (r *MongoBlogPostRepo) FindAll(ctx context.Context, filter models.BlogPostFilter) ([]*models.BlogPost, int64, error) {
	query := mongoFilter(filter)

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64(filter.Skip())).
		SetLimit(int64(filter.Limit))

	cursor, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	var docs []blogPostDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, 0, err
	}

	total, err := r.coll.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	blogPosts := make([]*models.BlogPost, 0, len(docs))
	for i := range docs {
		blogPosts = append(blogPosts, docs[i].toModel())
	}
	return blogPosts, total, nil
}

func (r *MongoBlogPostRepo) findOne(ctx context.Context, query bson.M) (*models.BlogPost, error) {
	var doc blogPostDocument
	err := r.coll.FindOne(ctx, query).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return doc.toModel(), nil
}

func (r *MongoBlogPostRepo) FindBySlug(ctx context.Context, slug string) (*models.BlogPost, error) {
	return r.findOne(ctx, bson.M{"slug": slug})
}

func (r *MongoBlogPostRepo) FindByID(ctx context.Context, id string) (*models.BlogPost, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *MongoBlogPostRepo) Add(ctx context.Context, blogPost *models.BlogPost) error {
	now := time.Now().UTC().Truncate(time.Millisecond)
	doc := toBlogPostDocument(blogPost)
	doc.ID = primitive.NewObjectID()
	doc.CreatedAt = now
	doc.UpdatedAt = now

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %v", errs.ErrUniqueConstraintViolation, err)
		}
		return err
	}

	blogPost.ID = doc.ID.Hex()
	blogPost.CreatedAt = now
	blogPost.UpdatedAt = now
	return nil
}

func (r *MongoBlogPostRepo) Update(ctx context.Context, blogPost *models.BlogPost) error {
	oid, err := primitive.ObjectIDFromHex(blogPost.ID)
	if err != nil {
		return fmt.Errorf("blog post %q: %w", blogPost.ID, errs.ErrNotFound)
	}

	doc := toBlogPostDocument(blogPost)
	doc.ID = oid
	doc.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)

	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": oid}, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %v", errs.ErrUniqueConstraintViolation, err)
		}
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("blog post %q: %w", blogPost.ID, errs.ErrNotFound)
	}

	blogPost.UpdatedAt = doc.UpdatedAt
	return nil
}

func (r *MongoBlogPostRepo) Delete(ctx context.Context, id string) (*models.BlogPost, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}

	var doc blogPostDocument
	err = r.coll.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return doc.toModel(), nil
}

func (r *MongoBlogPostRepo) distinct(ctx context.Context, field string) ([]string, error) {
	values, err := r.coll.Distinct(ctx, field, bson.D{})
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (r *MongoBlogPostRepo) DistinctCategories(ctx context.Context) ([]string, error) {
	return r.distinct(ctx, "category")
}

func (r *MongoBlogPostRepo) DistinctTags(ctx context.Context) ([]string, error) {
	return r.distinct(ctx, "tags")
}

func (r *MongoBlogPostRepo) SitemapEntries(ctx context.Context) ([]models.SitemapEntry, error) {
	opts := options.Find().SetProjection(bson.M{"slug": 1, "updatedAt": 1})
	cursor, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}

	var docs []blogPostDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	entries := make([]models.SitemapEntry, 0, len(docs))
	for _, doc := range docs {
		entries = append(entries, models.SitemapEntry{Slug: doc.Slug, UpdatedAt: doc.UpdatedAt})
	}
	return entries, nil
}
