// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug turns menu names and cache file names into identifiers
// that are safe in HTML id and class attributes and on any filesystem.
package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxLength caps a slug so it stays a valid file name component.
const MaxLength = 200

var (
	// disallowed matches anything that isn't a lowercase letter, digit,
	// hyphen or underscore.
	disallowed = regexp.MustCompile(`[^a-z0-9_-]+`)
	// separators matches runs of whitespace, dots and slashes.
	separators = regexp.MustCompile(`[\s./\\]+`)
	// multipleHyphens collapses consecutive hyphens into one.
	multipleHyphens = regexp.MustCompile(`-{2,}`)
)

// Generate creates a slug from s. Accents are folded to their base letter
// ("Café" becomes "cafe") and everything outside [a-z0-9_-] is dropped.
// Example: "Main Menu / Footer" becomes "main-menu-footer".
func Generate(s string) string {
	result := strings.ToLower(strings.TrimSpace(fold(s)))
	result = separators.ReplaceAllString(result, "-")
	result = disallowed.ReplaceAllString(result, "")
	result = multipleHyphens.ReplaceAllString(result, "-")
	result = strings.Trim(result, "-_")
	if len(result) > MaxLength {
		result = strings.TrimRight(result[:MaxLength], "-_")
	}
	return result
}

// fold strips combining marks after canonical decomposition.
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
