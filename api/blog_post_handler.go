package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/vitaprozen/blog-backend/cache"
	"github.com/vitaprozen/blog-backend/database"
	"github.com/vitaprozen/blog-backend/errs"
	"github.com/vitaprozen/blog-backend/models"
	"github.com/vitaprozen/blog-backend/storage"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

const blogNotFound = "Blog not found"

type blogPostHandler struct {
	responder    Responder
	logger       zerolog.Logger
	blogPostRepo database.BlogPostRepo
	cleaner      *storage.Cleaner
	cache        *cache.Cache
}

func newBlogPostHandler(blogPostRepo database.BlogPostRepo, cleaner *storage.Cleaner, c *cache.Cache) blogPostHandler {
	logger := log.With().Str("handlerName", "blogPostHandler").Logger()

	return blogPostHandler{
		responder:    NewResponder(logger),
		logger:       logger,
		blogPostRepo: blogPostRepo,
		cleaner:      cleaner,
		cache:        c,
	}
}

// discardUploads schedules deletion of every file the upload middleware pushed
// for this request.
func (h blogPostHandler) discardUploads(r *http.Request) {
	h.cleaner.Schedule(ctxGetUploads(r.Context()).urls(blogMediaFields)...)
}

// createBlogPost creates a new blog post
// @Summary Create blog post
// @Description Creates a blog post from multipart form data. Files are pushed to the media store before the post is stored.
// @Tags Blogs
// @Accept multipart/form-data
// @Produce json
// @Security AdminToken
// @Param title formData string true "Title"
// @Param content formData string true "HTML content"
// @Param category formData string true "Category"
// @Param thumbnail formData file true "Thumbnail image"
// @Param extraImages formData file false "Up to 10 extra images"
// @Param videos formData file false "Up to 5 videos"
// @Param tags formData string false "Comma separated tags"
// @Param published formData string false "true or false"
// @Success 201 {object} Envelope "Blog created successfully"
// @Failure 400 {object} Envelope "Validation failed"
// @Failure 409 {object} Envelope "Slug already taken"
// @Failure 500 {object} Envelope "Internal Server Error"
// @Router /api/blogs/create [post]
func (h blogPostHandler) createBlogPost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		form, err := readBlogForm(r)
		if err != nil {
			h.discardUploads(r)
			h.responder.WriteError(w, err)
			return
		}

		if fieldErrs := form.validateCreate(); len(fieldErrs) > 0 {
			h.discardUploads(r)
			h.responder.WriteError(w, errs.NewValidationError(fieldErrs))
			return
		}

		blogPost := form.newBlogPost()
		if err := h.blogPostRepo.Add(r.Context(), blogPost); err != nil {
			h.discardUploads(r)
			h.responder.WriteError(w, wrapDatabaseError("create", "blog", err))
			return
		}
		h.cache.Invalidate(r.Context())

		h.logger.Info().Str("id", blogPost.ID).Str("slug", blogPost.Slug).Msg("Blog created")
		h.responder.WriteJSON(w, http.StatusCreated, Envelope{
			Success: true,
			Message: "Blog created successfully",
			Data:    blogPost,
		})
	}
}

// getAllBlogPosts lists blog posts, newest first
// @Summary List blog posts
// @Tags Blogs
// @Produce json
// @Param category query string false "Exact category"
// @Param published query string false "\"true\" for published posts, anything else for drafts"
// @Param search query string false "Case-insensitive match on title, content or tags"
// @Param page query int false "Page, starting at 1"
// @Param limit query int false "Page size, at most 100"
// @Success 200 {object} Envelope "Posts with pagination"
// @Failure 500 {object} Envelope "Internal Server Error"
// @Router /api/blogs [get]
func (h blogPostHandler) getAllBlogPosts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		filter := models.BlogPostFilter{
			Category: q.Get("category"),
			Search:   strings.TrimSpace(q.Get("search")),
			Page:     positiveInt(q.Get("page"), 1),
			Limit:    min(positiveInt(q.Get("limit"), defaultPageLimit), maxPageLimit),
		}
		if q.Has("published") {
			published := q.Get("published") == "true"
			filter.Published = &published
		}

		blogPosts, total, err := h.blogPostRepo.FindAll(r.Context(), filter)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find", "blogs", err))
			return
		}
		if blogPosts == nil {
			blogPosts = []*models.BlogPost{}
		}

		h.responder.WriteJSON(w, http.StatusOK, Envelope{
			Success:    true,
			Data:       blogPosts,
			Pagination: newPagination(total, filter.Page, filter.Limit),
		})
	}
}

// getBlogPostBySlug retrieves a single blog post
// @Summary Get blog post by slug
// @Tags Blogs
// @Produce json
// @Param slug path string true "Slug"
// @Success 200 {object} Envelope "Blog post"
// @Failure 404 {object} Envelope "Blog not found"
// @Router /api/blogs/{slug} [get]
func (h blogPostHandler) getBlogPostBySlug() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := chi.URLParam(r, "slug")

		blogPost, err := h.blogPostRepo.FindBySlug(r.Context(), slug)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find", "blog", err))
			return
		}
		if blogPost == nil {
			h.responder.WriteError(w, errs.NewNotFoundError(blogNotFound))
			return
		}

		h.responder.WriteJSON(w, http.StatusOK, Envelope{Success: true, Data: blogPost})
	}
}

// updateBlogPost applies a partial update. Blank fields keep their stored value;
// each uploaded media field replaces its stored list.
// @Summary Update blog post
// @Tags Blogs
// @Accept multipart/form-data
// @Produce json
// @Security AdminToken
// @Param id path string true "Blog ID"
// @Success 200 {object} Envelope "Blog updated successfully"
// @Failure 400 {object} Envelope "Validation failed"
// @Failure 404 {object} Envelope "Blog not found"
// @Failure 409 {object} Envelope "Slug already taken"
// @Router /api/blogs/{id} [put]
func (h blogPostHandler) updateBlogPost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		form, err := readBlogForm(r)
		if err != nil {
			h.discardUploads(r)
			h.responder.WriteError(w, err)
			return
		}

		if fieldErrs := form.validateUpdate(); len(fieldErrs) > 0 {
			h.discardUploads(r)
			h.responder.WriteError(w, errs.NewValidationError(fieldErrs))
			return
		}

		blogPost, err := h.blogPostRepo.FindByID(r.Context(), id)
		if err != nil {
			h.discardUploads(r)
			h.responder.WriteError(w, wrapDatabaseError("find", "blog", err))
			return
		}
		if blogPost == nil {
			h.discardUploads(r)
			h.responder.WriteError(w, errs.NewNotFoundError(blogNotFound))
			return
		}

		replaced := form.applyTo(blogPost)
		if err := h.blogPostRepo.Update(r.Context(), blogPost); err != nil {
			h.discardUploads(r)
			h.responder.WriteError(w, wrapDatabaseError("update", "blog", err))
			return
		}
		h.cache.Invalidate(r.Context())

		// The record no longer points at the replaced files.
		h.cleaner.Schedule(replaced...)

		h.responder.WriteJSON(w, http.StatusOK, Envelope{
			Success: true,
			Message: "Blog updated successfully",
			Data:    blogPost,
		})
	}
}

// deleteBlogPost deletes a blog post and schedules removal of its media
// @Summary Delete blog post
// @Tags Blogs
// @Produce json
// @Security AdminToken
// @Param id path string true "Blog ID"
// @Success 200 {object} Envelope "Blog deleted successfully"
// @Failure 404 {object} Envelope "Blog not found"
// @Router /api/blogs/{id} [delete]
func (h blogPostHandler) deleteBlogPost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		blogPost, err := h.blogPostRepo.Delete(r.Context(), id)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("delete", "blog", err))
			return
		}
		if blogPost == nil {
			h.responder.WriteError(w, errs.NewNotFoundError(blogNotFound))
			return
		}
		h.cache.Invalidate(r.Context())

		h.cleaner.Schedule(blogPost.MediaURLs()...)

		h.logger.Info().Str("id", blogPost.ID).Msg("Blog deleted")
		h.responder.WriteJSON(w, http.StatusOK, Envelope{
			Success: true,
			Message: "Blog deleted successfully",
		})
	}
}

// togglePublish flips the published flag
// @Summary Toggle publish state
// @Tags Blogs
// @Produce json
// @Security AdminToken
// @Param id path string true "Blog ID"
// @Success 200 {object} Envelope "Blog published successfully"
// @Failure 404 {object} Envelope "Blog not found"
// @Router /api/blogs/{id}/publish [patch]
func (h blogPostHandler) togglePublish() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		blogPost, err := h.blogPostRepo.FindByID(r.Context(), id)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find", "blog", err))
			return
		}
		if blogPost == nil {
			h.responder.WriteError(w, errs.NewNotFoundError(blogNotFound))
			return
		}

		blogPost.Published = !blogPost.Published
		if err := h.blogPostRepo.Update(r.Context(), blogPost); err != nil {
			h.responder.WriteError(w, wrapDatabaseError("update", "blog", err))
			return
		}
		h.cache.Invalidate(r.Context(), cache.KeySitemap)

		state := "unpublished"
		if blogPost.Published {
			state = "published"
		}
		h.responder.WriteJSON(w, http.StatusOK, Envelope{
			Success: true,
			Message: "Blog " + state + " successfully",
			Data:    blogPost,
		})
	}
}

// getCategories lists distinct categories
// @Summary List categories
// @Tags Blogs
// @Produce json
// @Success 200 {object} Envelope "Distinct categories"
// @Router /api/blogs/categories [get]
func (h blogPostHandler) getCategories() http.HandlerFunc {
	return h.distinct(cache.KeyCategories, "categories", h.blogPostRepo.DistinctCategories)
}

// getTags lists distinct tags
// @Summary List tags
// @Tags Blogs
// @Produce json
// @Success 200 {object} Envelope "Distinct tags"
// @Router /api/blogs/tags [get]
func (h blogPostHandler) getTags() http.HandlerFunc {
	return h.distinct(cache.KeyTags, "tags", h.blogPostRepo.DistinctTags)
}

// distinct serves a cached list of distinct values, loading it on a miss.
func (h blogPostHandler) distinct(key, entity string, load func(context.Context) ([]string, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var values []string
		if !h.cache.GetJSON(r.Context(), key, &values) {
			gen := h.cache.Generation(r.Context())
			var err error
			values, err = load(r.Context())
			if err != nil {
				h.responder.WriteError(w, wrapDatabaseError("find", entity, err))
				return
			}
			h.cache.SetJSON(r.Context(), key, gen, values)
		}
		if values == nil {
			values = []string{}
		}

		h.responder.WriteJSON(w, http.StatusOK, Envelope{Success: true, Data: values})
	}
}

// uploadFile pushes a single file for the rich text editor
// @Summary Upload a file
// @Tags Blogs
// @Accept multipart/form-data
// @Produce json
// @Security AdminToken
// @Param file formData file true "Image or video"
// @Success 200 {object} Envelope "File uploaded successfully"
// @Failure 400 {object} Envelope "No file uploaded"
// @Router /api/blogs/upload-file [post]
func (h blogPostHandler) uploadFile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		files := ctxGetUploads(r.Context())["file"]
		if len(files) == 0 {
			h.responder.WriteError(w, errs.NewBadRequestError("No file uploaded"))
			return
		}

		h.responder.WriteJSON(w, http.StatusOK, Envelope{
			Success: true,
			URL:     files[0],
			Message: "File uploaded successfully",
		})
	}
}

func positiveInt(raw string, defaultValue int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return defaultValue
	}
	return n
}
