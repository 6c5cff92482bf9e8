package api

import (
	"context"
	"errors"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/vitaprozen/blog-backend/errs"
	"github.com/vitaprozen/blog-backend/storage"
)

const multipartMemory = 32 << 20

// uploadField is a multipart file field and how many files it may carry
type uploadField struct {
	name     string
	maxCount int
}

var (
	blogMediaFields = []uploadField{
		{name: "thumbnail", maxCount: 1},
		{name: "extraImages", maxCount: 10},
		{name: "videos", maxCount: 5},
	}
	singleFileFields = []uploadField{
		{name: "file", maxCount: 1},
	}
)

var allowedExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".mp4", ".mov", ".avi"}

type uploadMiddleware struct {
	responder   Responder
	store       storage.MediaStore
	cleaner     *storage.Cleaner
	maxFileSize int64
}

func newUploadMiddleware(store storage.MediaStore, cleaner *storage.Cleaner, maxFileSize int64) uploadMiddleware {
	logger := log.With().Str("handlerName", "uploadMiddleware").Logger()
	return uploadMiddleware{
		responder:   NewResponder(logger),
		store:       store,
		cleaner:     cleaner,
		maxFileSize: maxFileSize,
	}
}

func (m uploadMiddleware) blogMedia(next http.Handler) http.Handler {
	return m.accept(blogMediaFields)(next)
}

func (m uploadMiddleware) singleFile(next http.Handler) http.Handler {
	return m.accept(singleFileFields)(next)
}

// accept parses a multipart body, checks every file against fields, then
// pushes the files to the media store. Hosted URLs reach the handler through
// the request context. Requests that are not multipart pass through untouched.
func (m uploadMiddleware) accept(fields []uploadField) func(http.Handler) http.Handler {
	maxFiles := 0
	for _, f := range fields {
		maxFiles += f.maxCount
	}
	maxBody := m.maxFileSize*int64(maxFiles) + multipartMemory

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !isMultipart(r) {
				next.ServeHTTP(w, r)
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, maxBody)
			if err := r.ParseMultipartForm(multipartMemory); err != nil {
				var maxErr *http.MaxBytesError
				if errors.As(err, &maxErr) {
					m.responder.WriteError(w, errs.NewMaxBodySizeExceededError("", m.maxFileSize))
					return
				}
				m.responder.WriteError(w, errs.NewMalformedPayloadError("multipart", err))
				return
			}
			defer r.MultipartForm.RemoveAll()

			files, err := m.collect(r.MultipartForm.File, fields)
			if err != nil {
				m.responder.WriteError(w, err)
				return
			}

			uploads, err := m.push(r.Context(), files, fields)
			if err != nil {
				m.responder.WriteError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(ctxWithUploads(r.Context(), uploads)))
		})
	}
}

// collect groups files by field, accepting both "name" and "name[]", and
// rejects the request before anything leaves the server.
func (m uploadMiddleware) collect(form map[string][]*multipart.FileHeader, fields []uploadField) (map[string][]*multipart.FileHeader, error) {
	files := make(map[string][]*multipart.FileHeader, len(fields))

	for key, headers := range form {
		name := strings.TrimSuffix(key, "[]")
		if !slices.ContainsFunc(fields, func(f uploadField) bool { return f.name == name }) {
			return nil, errs.NewUnexpectedFieldError(key)
		}
		files[name] = append(files[name], headers...)
	}

	for _, f := range fields {
		headers := files[f.name]
		if len(headers) > f.maxCount {
			return nil, errs.NewTooManyFilesError(f.name, f.maxCount)
		}
		for _, h := range headers {
			if h.Size > m.maxFileSize {
				return nil, errs.NewMaxBodySizeExceededError(f.name, m.maxFileSize)
			}
			if !slices.Contains(allowedExtensions, strings.ToLower(filepath.Ext(h.Filename))) {
				return nil, errs.NewUnsupportedMediaTypeError(f.name, h.Filename, allowedExtensions)
			}
		}
	}

	return files, nil
}

// push uploads files in field order. When one upload fails the files already
// hosted for this request are scheduled for deletion.
func (m uploadMiddleware) push(ctx context.Context, files map[string][]*multipart.FileHeader, fields []uploadField) (uploadedFiles, error) {
	uploads := uploadedFiles{}

	for _, f := range fields {
		for _, h := range files[f.name] {
			url, err := m.pushOne(ctx, h)
			if err != nil {
				m.cleaner.Schedule(uploads.urls(fields)...)
				return nil, errs.NewStorageUploadError(f.name, err)
			}
			uploads[f.name] = append(uploads[f.name], url)
		}
	}

	return uploads, nil
}

func (m uploadMiddleware) pushOne(ctx context.Context, h *multipart.FileHeader) (string, error) {
	file, err := h.Open()
	if err != nil {
		return "", err
	}
	defer file.Close()

	return m.store.Upload(ctx, file, h.Filename, h.Header.Get("Content-Type"))
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}
