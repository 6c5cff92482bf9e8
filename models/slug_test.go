package models

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Hello World":              "hello-world",
		"  Go, Mongo & Cloudinary ": "go-mongo-and-cloudinary",
		"10 Tips: Sleep Better!":   "10-tips-sleep-better",
		"Déjà vu":                  "deja-vu",
	}
	for title, want := range cases {
		assert.Equal(t, want, Slugify(title), title)
	}
}

func TestParseTags(t *testing.T) {
	assert.Equal(t, []string{"health", "sleep", "health"}, ParseTags(" health, sleep ,, health ,"))
	assert.Empty(t, ParseTags(" , "))
	assert.NotNil(t, ParseTags(""))
}

func TestParseBool(t *testing.T) {
	assert.True(t, ParseBool("true"))
	assert.True(t, ParseBool(" TRUE "))
	assert.True(t, ParseBool("1"))
	assert.False(t, ParseBool("false"))
	assert.False(t, ParseBool("yes"))
	assert.False(t, ParseBool(""))
}

func TestMediaURLs(t *testing.T) {
	p := BlogPost{
		Thumbnail:   "https://cdn/t.png",
		ExtraImages: []string{"https://cdn/a.png"},
		Videos:      []string{"https://cdn/v.mp4"},
	}

	assert.Equal(t, []string{"https://cdn/t.png", "https://cdn/a.png", "https://cdn/v.mp4"}, p.MediaURLs())
	assert.Empty(t, (&BlogPost{}).MediaURLs())
}

func TestFilterSkip(t *testing.T) {
	assert.Equal(t, 0, BlogPostFilter{Page: 1, Limit: 10}.Skip())
	assert.Equal(t, 20, BlogPostFilter{Page: 3, Limit: 10}.Skip())
	assert.Equal(t, 0, BlogPostFilter{Page: 0, Limit: 10}.Skip())
	assert.Equal(t, 0, BlogPostFilter{Page: 5, Limit: 0}.Skip())
	assert.Equal(t, math.MaxInt, BlogPostFilter{Page: 4611686018427387904, Limit: 100}.Skip())
	assert.Equal(t, math.MaxInt-math.MaxInt%100, BlogPostFilter{Page: math.MaxInt/100 + 1, Limit: 100}.Skip())
}
