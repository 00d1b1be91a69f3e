// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"database/sql"
	"testing"
	"time"
)

func TestParseNullInt64Positive(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected sql.NullInt64
	}{
		{name: "empty string", input: "", expected: sql.NullInt64{}},
		{name: "zero", input: "0", expected: sql.NullInt64{}},
		{name: "negative", input: "-5", expected: sql.NullInt64{}},
		{name: "positive", input: "42", expected: sql.NullInt64{Int64: 42, Valid: true}},
		{name: "padded", input: " 7 ", expected: sql.NullInt64{Int64: 7, Valid: true}},
		{name: "invalid", input: "abc", expected: sql.NullInt64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseNullInt64Positive(tt.input); got != tt.expected {
				t.Errorf("ParseNullInt64Positive(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNullStringFromValue(t *testing.T) {
	if got := NullStringFromValue(""); got.Valid {
		t.Errorf("NullStringFromValue(\"\") = %v, want invalid", got)
	}
	if got := NullStringFromValue("abc"); !got.Valid || got.String != "abc" {
		t.Errorf("NullStringFromValue(\"abc\") = %v", got)
	}
}

func TestParseNullDate(t *testing.T) {
	got, err := ParseNullDate("")
	if err != nil || got.Valid {
		t.Errorf("ParseNullDate(\"\") = %v, %v; want invalid, nil", got, err)
	}

	got, err = ParseNullDate("2026-02-17")
	if err != nil {
		t.Fatalf("ParseNullDate: %v", err)
	}
	want := time.Date(2026, 2, 17, 0, 0, 0, 0, time.UTC)
	if !got.Valid || !got.Time.Equal(want) {
		t.Errorf("ParseNullDate = %v, want %v", got, want)
	}

	if _, err := ParseNullDate("17/02/2026"); err == nil {
		t.Error("expected error for non ISO date")
	}
}

func TestParseRupiah(t *testing.T) {
	tests := []struct {
		input   string
		want    int64
		wantErr bool
	}{
		{"1500000", 1500000, false},
		{"1.500.000", 1500000, false},
		{"Rp 1.500.000", 1500000, false},
		{"35,000,000", 35000000, false},
		{"", 0, true},
		{"-100", 0, true},
		{"gratis", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseRupiah(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseRupiah(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseRupiah(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}
