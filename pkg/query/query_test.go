// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package query_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/ownerauth/pkg/query"
)

/*
TestStringSlice covers trimming, empties and duplicates.
*/
func TestStringSlice(t *testing.T) {
	assert.Nil(t, query.StringSlice(""))
	assert.Equal(t, []string{"a", "b"}, query.StringSlice(" a, ,b,a "))
	assert.Equal(t, []string{"TEST_ADMIN", "CONTENT_ADMIN"}, query.UpperSlice("test_admin,content_admin"))
}
