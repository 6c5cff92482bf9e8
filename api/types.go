package api

import "github.com/vitaprozen/blog-backend/errs"

// routeHandlers contains all the handlers for different route types
type routeHandlers struct {
	blogPostHandler blogPostHandler
	adminHandler    adminHandler
	sitemapHandler  sitemapHandler
}

// Envelope is the JSON body of every API response
// @Description Standard response envelope
type Envelope struct {
	Success    bool              `json:"success" example:"true"`
	Message    string            `json:"message,omitempty" example:"Blog created successfully"`
	Data       any               `json:"data,omitempty"`
	Errors     []errs.FieldError `json:"errors,omitempty"`
	Pagination *Pagination       `json:"pagination,omitempty"`
	URL        string            `json:"url,omitempty"`
}

// Pagination describes one page of a listing
type Pagination struct {
	Total int64 `json:"total" example:"42"`
	Page  int   `json:"page" example:"1"`
	Limit int   `json:"limit" example:"10"`
	Pages int   `json:"pages" example:"5"`
}

func newPagination(total int64, page, limit int) *Pagination {
	pages := 0
	if limit > 0 {
		pages = int((total + int64(limit) - 1) / int64(limit))
	}
	return &Pagination{Total: total, Page: page, Limit: limit, Pages: pages}
}
