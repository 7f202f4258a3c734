// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/taibuivan/ownerauth/internal/platform/constants"
)

// ErrPasswordTooLong is returned for passwords over bcrypt's 72 byte input
// limit. A 64 character policy can still exceed it with multibyte runes.
var ErrPasswordTooLong = errors.New("password exceeds 72 bytes")

// HashPassword returns the bcrypt hash of plain at [constants.BcryptCost].
func HashPassword(plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), constants.BcryptCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", ErrPasswordTooLong
	}
	if err != nil {
		return "", fmt.Errorf("password_hash_failed: %w", err)
	}
	return string(hashed), nil
}

// CheckPasswordHash reports whether plain matches the stored hash. A malformed
// hash never matches.
func CheckPasswordHash(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
