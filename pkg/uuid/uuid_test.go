// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package uuid_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/ownerauth/pkg/uuid"
)

/*
TestNew_Ordered verifies validity and time ordering of generated ids.
*/
func TestNew_Ordered(t *testing.T) {
	first := uuid.New()
	second := uuid.New()

	assert.True(t, uuid.Valid(first))
	assert.NotEqual(t, first, second)
	assert.LessOrEqual(t, first[:13], second[:13])
	assert.False(t, uuid.Valid("not-a-uuid"))
}
