// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package pagination parses page windows for list endpoints and builds the
// metadata returned next to the items.
package pagination

import (
	"net/http"
	"net/url"
	"strconv"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
	DefaultPage  = 1
)

// Query parameter names.
const (
	ParamPage  = "page"
	ParamLimit = "limit"
)

// Params is a 1-indexed page window.
type Params struct {
	Page  int
	Limit int
}

// Offset returns the number of items skipped before the window.
func (params Params) Offset() int {
	if params.Page <= 1 {
		return 0
	}
	return (params.Page - 1) * params.Limit
}

// Meta accompanies a page of items in the response envelope.
type Meta struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
}

// NewMeta derives the page count from total and limit.
func NewMeta(page, limit, total int) Meta {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}

	return Meta{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}

// FromRequest reads the window from the request's query string.
func FromRequest(request *http.Request) Params {
	return Parse(request.URL.Query())
}

/*
Parse reads "page" and "limit" from values.

Missing or malformed values fall back to the defaults. A page below 1 becomes
[DefaultPage]; a limit outside 1..[MaxLimit] becomes [DefaultLimit].
*/
func Parse(values url.Values) Params {
	page := intOr(values.Get(ParamPage), DefaultPage)
	limit := intOr(values.Get(ParamLimit), DefaultLimit)

	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 || limit > MaxLimit {
		limit = DefaultLimit
	}

	return Params{Page: page, Limit: limit}
}

func intOr(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
