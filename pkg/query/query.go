// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package query parses list-style URL query parameters.
package query

import "strings"

// StringSlice parses a single comma-separated query string into trimmed,
// de-duplicated values, preserving first-seen order.
func StringSlice(val string) []string {
	if val == "" {
		return nil
	}

	seen := make(map[string]struct{})
	var res []string
	for _, v := range strings.Split(val, ",") {
		clean := strings.TrimSpace(v)
		if clean == "" {
			continue
		}
		if _, dup := seen[clean]; dup {
			continue
		}
		seen[clean] = struct{}{}
		res = append(res, clean)
	}
	return res
}

// UpperSlice is [StringSlice] with every value upper-cased, for enum filters.
func UpperSlice(val string) []string {
	res := StringSlice(strings.ToUpper(val))
	return res
}
