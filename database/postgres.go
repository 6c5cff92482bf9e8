package database

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/dbresolver"

	"github.com/vitaprozen/blog-backend/config"
	"github.com/vitaprozen/blog-backend/errs"
	"github.com/vitaprozen/blog-backend/models"
)

func connectPostgres(ctx context.Context, c map[string]string) (Database, error) {
	dsn := config.GetString(c, "DATABASE_URL", "")
	if dsn == "" {
		return Database{}, errors.New("DATABASE_URL is required when DB_TYPE=postgres")
	}

	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             10 * time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		PrepareStmt:    false,
		Logger:         newLogger,
		TranslateError: true,
	})
	if err != nil {
		return Database{}, fmt.Errorf("connect postgres: %w", err)
	}

	// Listing and sitemap reads may go to replicas; writes and transactions stay on the primary.
	if replicas := config.GetList(c, "DATABASE_REPLICA_URLS", nil, false); len(replicas) > 0 {
		dialectors := make([]gorm.Dialector, 0, len(replicas))
		for _, replica := range replicas {
			dialectors = append(dialectors, postgres.New(postgres.Config{
				DSN:                  replica,
				PreferSimpleProtocol: true,
			}))
		}
		if err := db.Use(dbresolver.Register(dbresolver.Config{
			Replicas: dialectors,
			Policy:   dbresolver.RandomPolicy{},
		})); err != nil {
			return Database{}, fmt.Errorf("register postgres replicas: %w", err)
		}
		zlog.Info().Int("replicas", len(dialectors)).Msg("PostgreSQL read replicas registered")
	}

	if config.GetBool(c, "DATABASE_AUTO_MIGRATE", true) {
		if err := db.WithContext(ctx).AutoMigrate(&blogPostRecord{}); err != nil {
			return Database{}, fmt.Errorf("migrate blog_posts: %w", err)
		}
	}

	sqlDB, err := db.DB()
	if err != nil {
		return Database{}, err
	}

	zlog.Info().Msg("Connected to PostgreSQL")
	return New(NewGormBlogPostRepo(db), func(context.Context) error { return sqlDB.Close() }), nil
}

type GormBlogPostRepo struct {
	db *gorm.DB
}

func NewGormBlogPostRepo(db *gorm.DB) *GormBlogPostRepo {
	return &GormBlogPostRepo{db}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func applyGormFilter(q *gorm.DB, f models.BlogPostFilter) *gorm.DB {
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.Published != nil {
		q = q.Where("published = ?", *f.Published)
	}
	if f.Search != "" {
		like := "%" + likeEscaper.Replace(f.Search) + "%"
		q = q.Where(
			"title ILIKE ? OR content ILIKE ? OR EXISTS (SELECT 1 FROM unnest(tags) AS tag WHERE tag ILIKE ?)",
			like, like, like,
		)
	}
	return q
}

func (r *GormBlogPostRepo) FindAll(ctx context.Context, filter models.BlogPostFilter) ([]*models.BlogPost, int64, error) {
	var (
		total   int64
		records []blogPostRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return applyGormFilter(r.db.WithContext(gctx).Model(&blogPostRecord{}), filter).Count(&total).Error
	})
	g.Go(func() error {
		return applyGormFilter(r.db.WithContext(gctx), filter).
			Order("created_at DESC").
			Offset(filter.Skip()).
			Limit(filter.Limit).
			Find(&records).Error
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	blogPosts := make([]*models.BlogPost, 0, len(records))
	for i := range records {
		blogPosts = append(blogPosts, records[i].toModel())
	}
	return blogPosts, total, nil
}

func (r *GormBlogPostRepo) findOne(q *gorm.DB) (*models.BlogPost, error) {
	var record blogPostRecord
	err := q.First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return record.toModel(), nil
}

func (r *GormBlogPostRepo) FindBySlug(ctx context.Context, slug string) (*models.BlogPost, error) {
	return r.findOne(r.db.WithContext(ctx).Where("slug = ?", slug))
}

func (r *GormBlogPostRepo) FindByID(ctx context.Context, id string) (*models.BlogPost, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, nil
	}
	return r.findOne(r.db.WithContext(ctx).Where("id = ?", uid))
}

func translateGormError(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %v", errs.ErrUniqueConstraintViolation, err)
	}
	return err
}

func (r *GormBlogPostRepo) Add(ctx context.Context, blogPost *models.BlogPost) error {
	now := time.Now().UTC()
	record := toBlogPostRecord(blogPost)
	record.ID = uuid.New()
	record.CreatedAt = now
	record.UpdatedAt = now

	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		return translateGormError(err)
	}

	blogPost.ID = record.ID.String()
	blogPost.CreatedAt = now
	blogPost.UpdatedAt = now
	return nil
}

func (r *GormBlogPostRepo) Update(ctx context.Context, blogPost *models.BlogPost) error {
	record := toBlogPostRecord(blogPost)
	if record.ID == uuid.Nil {
		return fmt.Errorf("blog post %q: %w", blogPost.ID, errs.ErrNotFound)
	}
	record.UpdatedAt = time.Now().UTC()

	res := r.db.WithContext(ctx).Model(&blogPostRecord{ID: record.ID}).
		Select("*").Omit("id", "created_at").
		Updates(&record)
	if res.Error != nil {
		return translateGormError(res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("blog post %q: %w", blogPost.ID, errs.ErrNotFound)
	}

	blogPost.UpdatedAt = record.UpdatedAt
	return nil
}

func (r *GormBlogPostRepo) Delete(ctx context.Context, id string) (*models.BlogPost, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, nil
	}

	var deleted *models.BlogPost
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var record blogPostRecord
		if err := tx.Where("id = ?", uid).First(&record).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		if err := tx.Delete(&blogPostRecord{}, "id = ?", uid).Error; err != nil {
			return err
		}
		deleted = record.toModel()
		return nil
	})
	return deleted, err
}

func (r *GormBlogPostRepo) DistinctCategories(ctx context.Context) ([]string, error) {
	categories := []string{}
	err := r.db.WithContext(ctx).Model(&blogPostRecord{}).
		Where("category <> ''").
		Distinct("category").
		Order("category").
		Pluck("category", &categories).Error
	return categories, err
}

func (r *GormBlogPostRepo) DistinctTags(ctx context.Context) ([]string, error) {
	tags := []string{}
	err := r.db.WithContext(ctx).
		Raw("SELECT DISTINCT tag FROM blog_posts, unnest(tags) AS tag WHERE tag <> '' ORDER BY tag").
		Scan(&tags).Error
	return tags, err
}

func (r *GormBlogPostRepo) SitemapEntries(ctx context.Context) ([]models.SitemapEntry, error) {
	var records []blogPostRecord
	if err := r.db.WithContext(ctx).Select("slug", "updated_at").Find(&records).Error; err != nil {
		return nil, err
	}

	entries := make([]models.SitemapEntry, 0, len(records))
	for _, record := range records {
		entries = append(entries, models.SitemapEntry{Slug: record.Slug, UpdatedAt: record.UpdatedAt})
	}
	return entries, nil
}
