package errs

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewDatabaseError_UniqueViolationIsConflict(t *testing.T) {
	cause := fmt.Errorf("%w: E11000 duplicate key error", ErrUniqueConstraintViolation)

	err := NewDatabaseError("create", "blog post", cause)

	assert.Equal(t, http.StatusConflict, err.StatusCode)
	assert.Equal(t, "slug", err.Field)
	assert.Equal(t, "A blog post with the same slug already exists", err.Message())
	assert.True(t, IsUniqueConstraintViolationError(err))
}

func TestNewDatabaseError_NotFound(t *testing.T) {
	tests := []struct {
		entity  string
		message string
	}{
		{entity: "blog", message: "Blog not found"},
		{entity: "blog post", message: "Blog post not found"},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			err := NewDatabaseError("update", tt.entity, fmt.Errorf("record 42: %w", ErrNotFound))

			assert.Equal(t, http.StatusNotFound, err.StatusCode)
			assert.Equal(t, tt.message, err.Message())
			assert.True(t, IsNotFound(err))
			assert.Contains(t, err.GetFullError(), "record 42")
		})
	}
}

func TestNewDatabaseError_Connection(t *testing.T) {
	err := NewDatabaseError("find", "blogs", errors.New("dial tcp: connection refused"))

	assert.Equal(t, http.StatusServiceUnavailable, err.StatusCode)
	assert.True(t, errors.Is(err, ErrDatabaseConnection))
}

func TestNewDatabaseError_Generic(t *testing.T) {
	err := NewDatabaseError("find", "blog posts", errors.New("boom"))

	assert.Equal(t, http.StatusInternalServerError, err.StatusCode)
	assert.Equal(t, "Failed to find blog posts", err.Message())
	assert.Contains(t, err.GetFullError(), "boom")
}

func TestNotFound(t *testing.T) {
	err := NewNotFoundError("Blog not found")

	assert.True(t, IsNotFound(err))
	assert.Equal(t, "Blog not found", err.Message())
	assert.Equal(t, http.StatusNotFound, err.StatusCode)
}

func TestTokenErrors(t *testing.T) {
	assert.Equal(t, http.StatusUnauthorized, NewMissingTokenError().StatusCode)
	assert.Equal(t, http.StatusForbidden, NewInvalidTokenError().StatusCode)
	assert.True(t, errors.Is(NewInvalidTokenError(), ErrInvalidToken))
}

func TestValidationError(t *testing.T) {
	err := NewValidationError([]FieldError{{Field: "title", Message: "Title is required"}})

	assert.True(t, errors.Is(err, ErrValidation))
	assert.Len(t, err.Errors, 1)
	assert.Equal(t, http.StatusBadRequest, err.StatusCode)
}
