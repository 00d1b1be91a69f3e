// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package util provides small helpers shared by handlers: slugs, client
// addresses and form value parsing.
package util

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// validSlug matches lowercase ASCII words joined by single hyphens.
var validSlug = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// ErrSlugExhausted is returned when no free slug suffix was found.
var ErrSlugExhausted = errors.New("no free slug available")

// MaxSlugAttempts bounds the numeric suffixes tried by UniqueSlug.
const MaxSlugAttempts = 100

// Slugify turns a title into a URL slug. Diacritics are dropped, other
// scripts such as Arabic are transliterated to ASCII, and runs of spaces,
// hyphens or underscores become one hyphen. Other punctuation is removed.
func Slugify(s string) string {
	stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, _ := transform.String(stripMarks, s)
	ascii := strings.ToLower(unidecode.Unidecode(folded))

	var b strings.Builder
	b.Grow(len(ascii))
	gap := false
	for _, r := range ascii {
		switch {
		case 'a' <= r && r <= 'z', '0' <= r && r <= '9':
			if gap && b.Len() > 0 {
				b.WriteByte('-')
			}
			gap = false
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_' || r == '\t':
			gap = true
		}
	}
	return b.String()
}

// UniqueSlug returns base, or base with the first free numeric suffix
// ("umrah-2", "umrah-3", ...) according to exists.
func UniqueSlug(ctx context.Context, base string, exists func(context.Context, string) (bool, error)) (string, error) {
	candidate := base
	for i := 2; i <= MaxSlugAttempts+1; i++ {
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = base + "-" + strconv.Itoa(i)
	}
	return "", ErrSlugExhausted
}

// IsValidSlug reports whether s is a well-formed slug.
func IsValidSlug(s string) bool {
	return validSlug.MatchString(s)
}
