package storage

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Cleaner removes remote media on a best-effort basis. Failures are logged and
// never reported to the caller.
type Cleaner struct {
	store   MediaStore
	timeout time.Duration
	logger  zerolog.Logger

	mu       sync.Mutex
	draining bool
	wg       sync.WaitGroup
}

func NewCleaner(store MediaStore, timeout time.Duration) *Cleaner {
	return &Cleaner{
		store:   store,
		timeout: timeout,
		logger:  log.With().Str("component", "mediaCleaner").Logger(),
	}
}

// Schedule deletes urls in the background, detached from any request context.
// It reports false once Close has been called; the urls are then only logged.
func (c *Cleaner) Schedule(urls ...string) bool {
	if len(urls) == 0 {
		return true
	}
	urls = append([]string(nil), urls...)

	c.mu.Lock()
	if c.draining {
		c.mu.Unlock()
		c.logger.Warn().Strs("urls", urls).Msg("Cleanup requested after shutdown began, leaving remote media in place")
		return false
	}
	c.wg.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		defer cancel()
		c.Purge(ctx, urls...)
	}()
	return true
}

// Purge deletes urls synchronously and returns how many deletions failed.
func (c *Cleaner) Purge(ctx context.Context, urls ...string) int {
	failed := 0
	for _, u := range urls {
		if u == "" {
			continue
		}
		asset := AssetFromURL(u)
		if asset.PublicID == "" {
			c.logger.Warn().Str("url", u).Msg("Cannot derive public id, skipping media cleanup")
			failed++
			continue
		}
		if err := c.store.Delete(ctx, asset); err != nil {
			c.logger.Error().Err(err).Str("url", u).Str("publicId", asset.PublicID).Msg("Error deleting remote media")
			failed++
			continue
		}
		c.logger.Debug().Str("url", u).Msg("Deleted remote media")
	}
	return failed
}

// Wait blocks until every scheduled cleanup has finished.
func (c *Cleaner) Wait() {
	c.wg.Wait()
}

// Close refuses further cleanups and waits for the scheduled ones.
func (c *Cleaner) Close() {
	c.mu.Lock()
	c.draining = true
	c.mu.Unlock()

	c.wg.Wait()
}
