// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"context"
	"errors"
	"testing"
)

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Paket Umrah Ramadhan":        "paket-umrah-ramadhan",
		"Tips Haji: Persiapan Fisik!": "tips-haji-persiapan-fisik",
		"Umrah 2026":                  "umrah-2026",
		"Manasik   Haji":              "manasik-haji",
		"Mekkah - Madinah":            "mekkah-madinah",
		"  Doa Thawaf  ":              "doa-thawaf",
		"miqat_dzulhulaifah":          "miqat-dzulhulaifah",
		"Jama'ah & Muthawwif":         "jamaah-muthawwif",
		"Café Zamzam":                 "cafe-zamzam",
		"Über München":                "uber-munchen",
		"MuThaWwiF":                   "muthawwif",
		"!@#$%^&*()":                  "",
		"":                            "",
	}
	for in, want := range tests {
		if got := Slugify(in); got != want {
			t.Errorf("Slugify(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSlugify_Transliterates(t *testing.T) {
	for _, in := range []string{"عمرة رمضان", "日本語タイトル"} {
		got := Slugify(in)
		if !IsValidSlug(got) {
			t.Errorf("Slugify(%q) = %q, want a non-empty valid slug", in, got)
		}
	}
}

func TestUniqueSlug(t *testing.T) {
	ctx := context.Background()
	taken := map[string]bool{"umrah-plus": true, "umrah-plus-2": true}
	exists := func(_ context.Context, s string) (bool, error) { return taken[s], nil }

	if got, err := UniqueSlug(ctx, "umrah-plus", exists); err != nil || got != "umrah-plus-3" {
		t.Errorf("UniqueSlug(umrah-plus) = %q, %v; want umrah-plus-3", got, err)
	}
	if got, err := UniqueSlug(ctx, "haji-furoda", exists); err != nil || got != "haji-furoda" {
		t.Errorf("UniqueSlug(haji-furoda) = %q, %v", got, err)
	}

	lookupErr := errors.New("db down")
	failing := func(context.Context, string) (bool, error) { return false, lookupErr }
	if _, err := UniqueSlug(ctx, "x", failing); !errors.Is(err, lookupErr) {
		t.Errorf("err = %v, want the lookup error", err)
	}

	calls := 0
	always := func(context.Context, string) (bool, error) { calls++; return true, nil }
	if _, err := UniqueSlug(ctx, "x", always); !errors.Is(err, ErrSlugExhausted) {
		t.Errorf("err = %v, want ErrSlugExhausted", err)
	}
	if calls != MaxSlugAttempts {
		t.Errorf("exists called %d times, want %d", calls, MaxSlugAttempts)
	}
}

func TestIsValidSlug(t *testing.T) {
	for s, want := range map[string]bool{
		"umrah-reguler": true,
		"paket-9-hari":  true,
		"umrah":         true,
		"2026":          true,
		"":              false,
		"Umrah-Reguler": false,
		"umrah reguler": false,
		"umrah!":        false,
		"-umrah":        false,
		"umrah-":        false,
		"umrah--plus":   false,
		"umrah_plus":    false,
	} {
		if got := IsValidSlug(s); got != want {
			t.Errorf("IsValidSlug(%q) = %v, want %v", s, got, want)
		}
	}
}
