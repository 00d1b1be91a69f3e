// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/muthawwif-go/internal/listing"
	"github.com/olegiv/muthawwif-go/internal/uikit"
)

// errNoSelection is returned when a bulk action names no rows.
var errNoSelection = errors.New("no items selected")

// ParseIDParam parses the "id" URL parameter as int64.
func ParseIDParam(r *http.Request) (int64, error) {
	return ParseURLParamInt64(r, "id")
}

// ParseURLParamInt64 parses a named URL parameter as int64.
func ParseURLParamInt64(r *http.Request, name string) (int64, error) {
	v := chi.URLParam(r, name)
	if v == "" {
		return 0, fmt.Errorf("missing %s parameter", name)
	}
	return strconv.ParseInt(v, 10, 64)
}

// parseIDList parses the ids[] values of a bulk action form. Values may also
// arrive as one comma-separated field.
func parseIDList(values []string) ([]int64, error) {
	var ids []int64
	for _, v := range splitIDs(values) {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid id %q", v)
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, errNoSelection
	}
	return ids, nil
}

// parseProfileIDList is parseIDList for uuid profile ids.
func parseProfileIDList(values []string) ([]string, error) {
	ids := splitIDs(values)
	if len(ids) == 0 {
		return nil, errNoSelection
	}
	return ids, nil
}

func splitIDs(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// listingPagination builds template pagination for a fetched listing page.
func listingPagination[T any](state *listing.State, page listing.Page[T]) uikit.Pagination {
	return uikit.BuildPagination(page.Page, page.TotalPages, page.Total, page.PageSize, state.PageURL)
}
