package database

import (
	"context"
	"fmt"

	"github.com/vitaprozen/blog-backend/config"
)

type Database struct {
	blogPostRepo BlogPostRepo
	closeFn      func(context.Context) error
}

// New wraps a repository and the function releasing its connection
func New(blogPostRepo BlogPostRepo, closeFn func(context.Context) error) Database {
	return Database{
		blogPostRepo: blogPostRepo,
		closeFn:      closeFn,
	}
}

// Connect opens the backend selected by DB_TYPE ("mongo" or "postgres").
func Connect(ctx context.Context, c map[string]string) (Database, error) {
	switch dbType := config.GetString(c, "DB_TYPE", "mongo"); dbType {
	case "mongo", "mongodb":
		return connectMongo(ctx, c)
	case "postgres", "postgresql":
		return connectPostgres(ctx, c)
	default:
		return Database{}, fmt.Errorf("unsupported DB_TYPE %q", dbType)
	}
}

func (d Database) BlogPostRepo() BlogPostRepo {
	return d.blogPostRepo
}

func (d Database) Close(ctx context.Context) error {
	if d.closeFn == nil {
		return nil
	}
	return d.closeFn(ctx)
}
