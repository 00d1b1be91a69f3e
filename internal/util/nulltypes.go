// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"database/sql"
	"strconv"
	"strings"
	"time"
)

// ParseNullInt64Positive parses a form value into sql.NullInt64, requiring
// a positive value. Empty or invalid input gives an invalid NullInt64.
func ParseNullInt64Positive(s string) sql.NullInt64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return sql.NullInt64{}
	}
	if val, err := strconv.ParseInt(s, 10, 64); err == nil && val > 0 {
		return sql.NullInt64{Int64: val, Valid: true}
	}
	return sql.NullInt64{}
}

// NullStringFromValue returns a valid NullString for non-empty s.
func NullStringFromValue(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// ParseNullDate parses a YYYY-MM-DD form value. Empty input is valid and
// yields an invalid NullTime.
func ParseNullDate(s string) (sql.NullTime, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return sql.NullTime{}, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return sql.NullTime{}, err
	}
	return sql.NullTime{Time: t, Valid: true}, nil
}

// ParseRupiah parses a whole-rupiah amount, tolerating the thousands
// separators people type ("1.500.000" or "1,500,000").
func ParseRupiah(s string) (int64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "Rp")
	s = strings.NewReplacer(".", "", ",", "", " ", "").Replace(s)
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, strconv.ErrRange
	}
	return v, nil
}
