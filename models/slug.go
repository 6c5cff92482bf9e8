package models

import (
	"strconv"
	"strings"

	"github.com/gosimple/slug"
)

// Slugify converts a title to a lowercase, hyphenated, URL-safe slug.
func Slugify(title string) string {
	return slug.Make(strings.TrimSpace(title))
}

// ParseTags splits a comma separated tag string. Entries are trimmed, order
// and duplicates are preserved, empty entries are dropped.
func ParseTags(raw string) []string {
	tags := []string{}
	for _, tag := range strings.Split(raw, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// ParseBool reports whether raw spells a true value ("true", "1", "TRUE", ...).
func ParseBool(raw string) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(raw))
	return err == nil && v
}
