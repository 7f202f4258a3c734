// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package normalize_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/ownerauth/pkg/normalize"
)

/*
TestName checks lower-casing, whitespace removal and NFC composition.
*/
func TestName(t *testing.T) {
	cases := map[string]string{
		"  Ravi Kumar ": "ravikumar",
		"ANNA\tMARIA":   "annamaria",
		"José":         "josé",
		"already":       "already",
		"":              "",
	}

	for in, want := range cases {
		assert.Equal(t, want, normalize.Name(in), in)
	}
}

/*
TestEmailAndPhone checks contact normalisation.
*/
func TestEmailAndPhone(t *testing.T) {
	assert.Equal(t, "a@b.com", normalize.Email("  A@B.Com "))
	assert.Equal(t, "+919876543210", normalize.Phone("+91 98765-43210"))
}
