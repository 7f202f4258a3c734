// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package normalize canonicalises identity fields before they are stored or compared.
//
// # Usage
//
// Owner names are stored lower-cased without whitespace, and emails are
// compared case-insensitively. Both go through NFC first so visually equal
// input maps to the same bytes.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var lower = cases.Lower(language.Und)

// Name converts a display name into its stored form.
//
// # Transformation Pipeline
//
// 1. Normalizes to NFC and strips control characters.
// 2. Lower-cases with Unicode case folding rules.
// 3. Removes every whitespace rune.
func Name(s string) string {
	t := transform.Chain(norm.NFC, transform.RemoveFunc(unicode.IsControl))
	result, _, _ := transform.String(t, s)

	result = lower.String(result)

	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, result)
}

// Email trims and lower-cases an email address.
func Email(s string) string {
	return lower.String(norm.NFC.String(strings.TrimSpace(s)))
}

// Phone strips spaces and dashes from a phone number.
func Phone(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '-' {
			return -1
		}
		return r
	}, s)
}
