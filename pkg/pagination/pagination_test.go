// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package pagination_test

import (
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/ownerauth/pkg/pagination"
)

/*
TestParse clamps bad input to the defaults.
*/
func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  pagination.Params
	}{
		{"empty", "", pagination.Params{Page: 1, Limit: 20}},
		{"explicit", "page=3&limit=50", pagination.Params{Page: 3, Limit: 50}},
		{"negative page", "page=-2", pagination.Params{Page: 1, Limit: 20}},
		{"limit too large", "limit=500", pagination.Params{Page: 1, Limit: 20}},
		{"garbage", "page=x&limit=y", pagination.Params{Page: 1, Limit: 20}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, err := url.ParseQuery(tt.query)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, pagination.Parse(values))
		})
	}

	request := httptest.NewRequest("GET", "/?page=2&limit=10", nil)
	params := pagination.FromRequest(request)
	assert.Equal(t, 10, params.Offset())
}

/*
TestNewMeta rounds the page count up and flags a following page.
*/
func TestNewMeta(t *testing.T) {
	meta := pagination.NewMeta(1, 20, 41)
	assert.Equal(t, 3, meta.TotalPages)
	assert.True(t, meta.HasNext)

	last := pagination.NewMeta(3, 20, 41)
	assert.False(t, last.HasNext)

	empty := pagination.NewMeta(1, 20, 0)
	assert.Equal(t, 0, empty.TotalPages)
	assert.False(t, empty.HasNext)
}
