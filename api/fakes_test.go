package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"slices"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/vitaprozen/blog-backend/cache"
	"github.com/vitaprozen/blog-backend/database"
	"github.com/vitaprozen/blog-backend/errs"
	"github.com/vitaprozen/blog-backend/models"
	"github.com/vitaprozen/blog-backend/storage"
)

const (
	testAdminToken = "s3cret-admin-token"
	testCacheTTL   = time.Minute
)

// memoryBlogPostRepo is an in-memory BlogPostRepo. Records are copied on the
// way in and out so handlers cannot mutate stored state by accident.
type memoryBlogPostRepo struct {
	mu     sync.Mutex
	posts  map[string]models.BlogPost
	nextID int
	clock  time.Time
	err    error
}

func newMemoryBlogPostRepo() *memoryBlogPostRepo {
	return &memoryBlogPostRepo{
		posts: map[string]models.BlogPost{},
		clock: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (m *memoryBlogPostRepo) tick() time.Time {
	m.clock = m.clock.Add(time.Minute)
	return m.clock
}

func clonePost(p models.BlogPost) *models.BlogPost {
	p.ExtraImages = slices.Clone(p.ExtraImages)
	p.Videos = slices.Clone(p.Videos)
	p.Tags = slices.Clone(p.Tags)
	return &p
}

func (m *memoryBlogPostRepo) slugTaken(slug, exceptID string) bool {
	for id, p := range m.posts {
		if p.Slug == slug && id != exceptID {
			return true
		}
	}
	return false
}

func matchesSearch(p models.BlogPost, search string) bool {
	search = strings.ToLower(search)
	if strings.Contains(strings.ToLower(p.Title), search) || strings.Contains(strings.ToLower(p.Content), search) {
		return true
	}
	for _, tag := range p.Tags {
		if strings.Contains(strings.ToLower(tag), search) {
			return true
		}
	}
	return false
}

func (m *memoryBlogPostRepo) FindAll(_ context.Context, filter models.BlogPostFilter) ([]*models.BlogPost, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, 0, m.err
	}

	var matched []models.BlogPost
	for _, p := range m.posts {
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		if filter.Published != nil && p.Published != *filter.Published {
			continue
		}
		if filter.Search != "" && !matchesSearch(p, filter.Search) {
			continue
		}
		matched = append(matched, p)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	total := int64(len(matched))
	start := min(filter.Skip(), len(matched))
	end := min(start+filter.Limit, len(matched))

	out := make([]*models.BlogPost, 0, end-start)
	for _, p := range matched[start:end] {
		out = append(out, clonePost(p))
	}
	return out, total, nil
}

func (m *memoryBlogPostRepo) FindBySlug(_ context.Context, slug string) (*models.BlogPost, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, p := range m.posts {
		if p.Slug == slug {
			return clonePost(p), nil
		}
	}
	return nil, nil
}

func (m *memoryBlogPostRepo) FindByID(_ context.Context, id string) (*models.BlogPost, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if p, ok := m.posts[id]; ok {
		return clonePost(p), nil
	}
	return nil, nil
}

func (m *memoryBlogPostRepo) Add(_ context.Context, blogPost *models.BlogPost) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.slugTaken(blogPost.Slug, "") {
		return fmt.Errorf("insert blog %q: %w", blogPost.Slug, errs.ErrUniqueConstraintViolation)
	}

	m.nextID++
	blogPost.ID = strconv.Itoa(m.nextID)
	blogPost.CreatedAt = m.tick()
	blogPost.UpdatedAt = blogPost.CreatedAt
	m.posts[blogPost.ID] = *clonePost(*blogPost)
	return nil
}

func (m *memoryBlogPostRepo) Update(_ context.Context, blogPost *models.BlogPost) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, ok := m.posts[blogPost.ID]; !ok {
		return fmt.Errorf("blog %s: %w", blogPost.ID, errs.ErrNotFound)
	}
	if m.slugTaken(blogPost.Slug, blogPost.ID) {
		return fmt.Errorf("update blog %q: %w", blogPost.Slug, errs.ErrUniqueConstraintViolation)
	}

	blogPost.UpdatedAt = m.tick()
	m.posts[blogPost.ID] = *clonePost(*blogPost)
	return nil
}

func (m *memoryBlogPostRepo) Delete(_ context.Context, id string) (*models.BlogPost, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.posts[id]
	if !ok {
		return nil, nil
	}
	delete(m.posts, id)
	return clonePost(p), nil
}

func (m *memoryBlogPostRepo) distinct(values func(models.BlogPost) []string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	set := map[string]struct{}{}
	for _, p := range m.posts {
		for _, v := range values(p) {
			if v != "" {
				set[v] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out, nil
}

func (m *memoryBlogPostRepo) DistinctCategories(context.Context) ([]string, error) {
	return m.distinct(func(p models.BlogPost) []string { return []string{p.Category} })
}

func (m *memoryBlogPostRepo) DistinctTags(context.Context) ([]string, error) {
	return m.distinct(func(p models.BlogPost) []string { return p.Tags })
}

func (m *memoryBlogPostRepo) SitemapEntries(context.Context) ([]models.SitemapEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	entries := make([]models.SitemapEntry, 0, len(m.posts))
	for _, p := range m.posts {
		entries = append(entries, models.SitemapEntry{Slug: p.Slug, UpdatedAt: p.UpdatedAt})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Slug < entries[j].Slug })
	return entries, nil
}

// fakeMediaStore hands out sequential URLs shaped like Cloudinary's.
type fakeMediaStore struct {
	mu        sync.Mutex
	uploaded  []string
	deleted   []storage.Asset
	failAfter int // uploads beyond this count fail; 0 disables
}

func (s *fakeMediaStore) Upload(_ context.Context, file io.Reader, filename, _ string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failAfter > 0 && len(s.uploaded) >= s.failAfter {
		return "", fmt.Errorf("upload of %s rejected", filename)
	}
	if _, err := io.ReadAll(file); err != nil {
		return "", err
	}

	kind := "image"
	if ext := strings.ToLower(filepath.Ext(filename)); ext == ".mp4" || ext == ".mov" || ext == ".avi" {
		kind = "video"
	}
	url := fmt.Sprintf("https://res.cloudinary.com/test/%s/upload/v1/blogs/media%d%s", kind, len(s.uploaded)+1, filepath.Ext(filename))
	s.uploaded = append(s.uploaded, url)
	return url, nil
}

func (s *fakeMediaStore) Delete(_ context.Context, asset storage.Asset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, asset)
	return nil
}

func (s *fakeMediaStore) deletedURLs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	urls := make([]string, 0, len(s.deleted))
	for _, a := range s.deleted {
		urls = append(urls, a.URL)
	}
	return urls
}

type testApp struct {
	router  *chi.Mux
	repo    *memoryBlogPostRepo
	store   *fakeMediaStore
	cleaner *storage.Cleaner
	redis   *miniredis.Miniredis
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	return buildTestApp(t, nil)
}

// newCachedTestApp backs the response cache with an in-process redis.
func newCachedTestApp(t *testing.T) *testApp {
	t.Helper()

	mr := miniredis.RunT(t)
	c := cache.NewWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), testCacheTTL)
	t.Cleanup(func() { _ = c.Close() })

	app := buildTestApp(t, c)
	app.redis = mr
	return app
}

func buildTestApp(t *testing.T, c *cache.Cache) *testApp {
	t.Helper()

	repo := newMemoryBlogPostRepo()
	store := &fakeMediaStore{}
	cleaner := storage.NewCleaner(store, time.Second)

	cfg := map[string]string{
		"ADMIN_SECRET_TOKEN": testAdminToken,
		"SITE_BASE_URL":      "https://www.vitaprozen.com",
		"STATIC_DIR":         t.TempDir(),
		"MAX_UPLOAD_MB":      "1",
	}
	router := newRouter(Dependencies{
		Database:   newTestDatabase(repo),
		MediaStore: store,
		Cleaner:    cleaner,
		Cache:      c,
	}, withConfig(cfg))

	return &testApp{router: router, repo: repo, store: store, cleaner: cleaner}
}

func newTestDatabase(repo database.BlogPostRepo) database.Database {
	return database.New(repo, nil)
}

func (a *testApp) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	a.cleaner.Wait()
	return rec
}

type formFile struct {
	field    string
	filename string
	content  string
}

func multipartRequest(t *testing.T, method, target string, fields map[string]string, files ...formFile) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, f := range files {
		part, err := mw.CreateFormFile(f.field, f.filename)
		require.NoError(t, err)
		_, err = part.Write([]byte(f.content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(method, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func jsonRequest(t *testing.T, method, target string, payload any) *http.Request {
	t.Helper()

	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(method, target, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func asAdmin(req *http.Request) *http.Request {
	req.Header.Set(adminTokenHeader, testAdminToken)
	return req
}

type testEnvelope struct {
	Success    bool              `json:"success"`
	Message    string            `json:"message"`
	Data       json.RawMessage   `json:"data"`
	Errors     []errs.FieldError `json:"errors"`
	Pagination *Pagination       `json:"pagination"`
	URL        string            `json:"url"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) testEnvelope {
	t.Helper()

	var env testEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func decodePost(t *testing.T, env testEnvelope) models.BlogPost {
	t.Helper()

	var post models.BlogPost
	require.NoError(t, json.Unmarshal(env.Data, &post))
	return post
}

// seedPost stores a post directly, bypassing HTTP.
func (a *testApp) seedPost(t *testing.T, post models.BlogPost) models.BlogPost {
	t.Helper()

	if post.Slug == "" {
		post.Slug = models.Slugify(post.Title)
	}
	if post.Tags == nil {
		post.Tags = []string{}
	}
	if post.ExtraImages == nil {
		post.ExtraImages = []string{}
	}
	if post.Videos == nil {
		post.Videos = []string{}
	}
	require.NoError(t, a.repo.Add(context.Background(), &post))
	return post
}
