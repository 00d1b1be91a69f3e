// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/olegiv/muthawwif-go/internal/util"
)

// SlugExistsFunc reports whether a slug is taken by another row.
type SlugExistsFunc func(ctx context.Context, slug string) (bool, error)

// ValidateSlugWithChecker validates a submitted slug. Returns an error
// message, or "" if the slug may be used.
func ValidateSlugWithChecker(ctx context.Context, slug string, checkExists SlugExistsFunc) string {
	if msg := ValidateSlugFormat(slug); msg != "" {
		return msg
	}
	exists, err := checkExists(ctx, slug)
	if err != nil {
		slog.Error("database error checking slug", "error", err)
		return "Gagal memeriksa slug"
	}
	if exists {
		return "Slug sudah digunakan"
	}
	return ""
}

// ValidateSlugFormat validates only the slug format without checking existence.
func ValidateSlugFormat(slug string) string {
	if slug == "" {
		return "Slug wajib diisi"
	}
	if !util.IsValidSlug(slug) {
		return "Format slug tidak valid (gunakan huruf kecil, angka, dan tanda hubung)"
	}
	return ""
}

// resolveSlug returns the slug to store. An empty submission is derived
// from the title and suffixed until free; an explicit one must be valid
// and unused. The second result is a validation message.
func resolveSlug(ctx context.Context, submitted, title string, checkExists SlugExistsFunc) (string, string) {
	submitted = strings.TrimSpace(submitted)
	if submitted != "" {
		return submitted, ValidateSlugWithChecker(ctx, submitted, checkExists)
	}

	base := util.Slugify(title)
	if base == "" {
		return "", "Slug tidak dapat dibuat dari judul"
	}
	slug, err := util.UniqueSlug(ctx, base, checkExists)
	if err != nil {
		slog.Error("failed to generate unique slug", "error", err, "base", base)
		return "", "Gagal membuat slug"
	}
	return slug, ""
}

// validEmail reports whether s parses as a bare email address.
func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

// formValues trims the named form fields into a map for re-rendering.
func formValues(get func(string) string, fields ...string) map[string]string {
	out := make(map[string]string, len(fields))
	for _, f := range fields {
		out[f] = strings.TrimSpace(get(f))
	}
	return out
}
