package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/vitaprozen/blog-backend/errs"
	"github.com/vitaprozen/blog-backend/models"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// blogForm is the text part of a create or update request, with uploaded
// media URLs merged in. Blank values mean "not provided".
type blogForm struct {
	Title           string `json:"title" validate:"required"`
	Slug            string `json:"slug"`
	Content         string `json:"content" validate:"required"`
	Category        string `json:"category" validate:"required"`
	Thumbnail       string `json:"thumbnail" validate:"required"`
	ExtraImages     []string
	Videos          []string
	MetaTitle       string `json:"metaTitle"`
	MetaDescription string `json:"metaDescription"`
	Tags            string `json:"tags"`
	Published       string `json:"published" validate:"omitempty,boolean"`
}

// readBlogForm accepts multipart, urlencoded and JSON bodies. Files pushed by
// the upload middleware take precedence over text values of the same name.
func readBlogForm(r *http.Request) (blogForm, error) {
	values, err := readFormValues(r)
	if err != nil {
		return blogForm{}, err
	}

	form := blogForm{
		Title:           strings.TrimSpace(values["title"]),
		Slug:            strings.TrimSpace(values["slug"]),
		Content:         values["content"],
		Category:        strings.TrimSpace(values["category"]),
		Thumbnail:       strings.TrimSpace(values["thumbnail"]),
		MetaTitle:       strings.TrimSpace(values["metaTitle"]),
		MetaDescription: strings.TrimSpace(values["metaDescription"]),
		Tags:            values["tags"],
		Published:       strings.TrimSpace(values["published"]),
	}
	if strings.TrimSpace(form.Content) == "" {
		form.Content = ""
	}

	uploads := ctxGetUploads(r.Context())
	if thumbs := uploads["thumbnail"]; len(thumbs) > 0 {
		form.Thumbnail = thumbs[0]
	}
	form.ExtraImages = uploads["extraImages"]
	form.Videos = uploads["videos"]

	return form, nil
}

func readFormValues(r *http.Request) (map[string]string, error) {
	values := map[string]string{}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/json":
		raw := map[string]any{}
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
			return nil, errs.NewMalformedPayloadError("JSON", err)
		}
		for key, v := range raw {
			values[key] = stringifyJSONValue(v)
		}
		return values, nil

	case "multipart/form-data":
		if r.MultipartForm == nil {
			if err := r.ParseMultipartForm(multipartMemory); err != nil {
				return nil, errs.NewMalformedPayloadError("multipart", err)
			}
		}
		for key, v := range r.MultipartForm.Value {
			if len(v) > 0 {
				values[key] = v[0]
			}
		}
		return values, nil

	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return nil, errs.NewMalformedPayloadError("form", err)
		}
		for key, v := range r.PostForm {
			if len(v) > 0 {
				values[key] = v[0]
			}
		}
		return values, nil
	}

	return values, nil
}

// stringifyJSONValue maps JSON values onto their form encoding: arrays become
// comma separated lists, booleans and numbers their literal text.
func stringifyJSONValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			parts = append(parts, stringifyJSONValue(item))
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprint(val)
	}
}

func (f blogForm) validateCreate() []errs.FieldError {
	fieldErrs := toFieldErrors(validate.Struct(f))
	if len(fieldErrs) == 0 && f.slug() == "" {
		fieldErrs = append(fieldErrs, errs.FieldError{Field: "slug", Message: "Slug cannot be derived from title"})
	}
	return fieldErrs
}

func (f blogForm) validateUpdate() []errs.FieldError {
	fieldErrs := toFieldErrors(validate.StructPartial(f, "Published"))
	if (f.Title != "" || f.Slug != "") && f.slug() == "" {
		fieldErrs = append(fieldErrs, errs.FieldError{Field: "slug", Message: "Slug cannot be derived from title"})
	}
	return fieldErrs
}

func toFieldErrors(err error) []errs.FieldError {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return nil
	}

	fieldErrs := make([]errs.FieldError, 0, len(validationErrs))
	for _, fe := range validationErrs {
		fieldErrs = append(fieldErrs, errs.FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
	}
	return fieldErrs
}

func fieldMessage(fe validator.FieldError) string {
	label := fe.Field()
	if label != "" {
		label = strings.ToUpper(label[:1]) + label[1:]
	}

	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "boolean":
		return label + " must be a boolean"
	default:
		return label + " is invalid"
	}
}

// slug prefers an explicit slug field over the title.
func (f blogForm) slug() string {
	if f.Slug != "" {
		return models.Slugify(f.Slug)
	}
	return models.Slugify(f.Title)
}

func (f blogForm) newBlogPost() *models.BlogPost {
	return &models.BlogPost{
		Title:           f.Title,
		Slug:            f.slug(),
		Content:         f.Content,
		Category:        f.Category,
		Thumbnail:       f.Thumbnail,
		ExtraImages:     nonNil(f.ExtraImages),
		Videos:          nonNil(f.Videos),
		MetaTitle:       f.MetaTitle,
		MetaDescription: f.MetaDescription,
		Tags:            models.ParseTags(f.Tags),
		Published:       models.ParseBool(f.Published),
	}
}

// applyTo overrides post with every provided value and returns the media URLs
// that are no longer referenced.
func (f blogForm) applyTo(post *models.BlogPost) []string {
	before := post.MediaURLs()

	if f.Title != "" {
		post.Title = f.Title
	}
	if f.Title != "" || f.Slug != "" {
		post.Slug = f.slug()
	}
	if f.Content != "" {
		post.Content = f.Content
	}
	if f.Category != "" {
		post.Category = f.Category
	}
	if f.Thumbnail != "" {
		post.Thumbnail = f.Thumbnail
	}
	if len(f.ExtraImages) > 0 {
		post.ExtraImages = f.ExtraImages
	}
	if len(f.Videos) > 0 {
		post.Videos = f.Videos
	}
	if f.MetaTitle != "" {
		post.MetaTitle = f.MetaTitle
	}
	if f.MetaDescription != "" {
		post.MetaDescription = f.MetaDescription
	}
	if tags := models.ParseTags(f.Tags); len(tags) > 0 {
		post.Tags = tags
	}
	if f.Published != "" {
		post.Published = models.ParseBool(f.Published)
	}

	after := post.MediaURLs()
	var replaced []string
	for _, u := range before {
		if !slices.Contains(after, u) {
			replaced = append(replaced, u)
		}
	}
	return replaced
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
