// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package migration_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/ownerauth/internal/platform/migration"
)

/*
TestDriverURL checks scheme rewriting for the golang-migrate pgx driver.
*/
func TestDriverURL(t *testing.T) {
	cases := map[string]string{
		"postgres://u:p@db:5432/owner":   "pgx5://u:p@db:5432/owner",
		"postgresql://u:p@db:5432/owner": "pgx5://u:p@db:5432/owner",
		"pgx5://u:p@db:5432/owner":       "pgx5://u:p@db:5432/owner",
		"host=db user=u":                 "host=db user=u",
	}

	for in, want := range cases {
		assert.Equal(t, want, migration.DriverURL(in), in)
	}
}
