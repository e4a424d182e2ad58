// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug generates and validates kebab-case category slugs.
package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// kebabCase is the canonical slug shape: lowercase alphanumeric
	// segments joined by single hyphens.
	kebabCase = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)
	// nonAlphanumeric matches anything that isn't a letter, digit, space or hyphen.
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9\s-]`)
	// whitespace collapses any run of whitespace into a single hyphen.
	whitespace = regexp.MustCompile(`\s+`)
	// multipleHyphens collapses consecutive hyphens into one.
	multipleHyphens = regexp.MustCompile(`-{2,}`)

	// Letters that do not decompose under NFD.
	specialLetters = strings.NewReplacer(
		"ł", "l", "Ł", "l",
		"ß", "ss",
		"æ", "ae", "ø", "o", "đ", "d",
	)
)

// Valid reports whether s is a kebab-case slug.
func Valid(s string) bool {
	return kebabCase.MatchString(s)
}

// Generate creates a kebab-case slug from the given string, transliterating
// diacritics first.
// Example: "Podwozia & Gąsienice" → "podwozia-gasienice"
func Generate(s string) string {
	result := strings.ToLower(strings.TrimSpace(s))
	result = transliterate(result)
	result = nonAlphanumeric.ReplaceAllString(result, "")
	result = whitespace.ReplaceAllString(result, "-")
	result = multipleHyphens.ReplaceAllString(result, "-")
	result = strings.Trim(result, "-")
	return result
}

// transliterate folds accented Latin letters to their ASCII base.
func transliterate(s string) string {
	s = specialLetters.Replace(s)
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
