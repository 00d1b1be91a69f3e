// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package listing

import (
	"context"
	"fmt"

	"github.com/olegiv/muthawwif-go/internal/result"
	"github.com/olegiv/muthawwif-go/internal/store"
)

// Counter runs count-only queries.
type Counter interface {
	Count(ctx context.Context, q *store.Query) (int64, error)
}

// Page is one page of listing results.
type Page[T any] struct {
	Items      []T    `json:"items"`
	Total      int64  `json:"total"`
	Page       int    `json:"page"`
	PageSize   int    `json:"page_size"`
	TotalPages int    `json:"total_pages"`
	Query      string `json:"query"`
}

// HasPrev reports whether a previous page exists.
func (p Page[T]) HasPrev() bool { return p.Page > 1 }

// HasNext reports whether a next page exists.
func (p Page[T]) HasNext() bool { return p.Page < p.TotalPages }

// Fetch runs the listing query for a state. Paginated listings also run a
// count query. A failing query yields an error Result.
func Fetch[T any](ctx context.Context, s *State, counter Counter, list func(context.Context, *store.Query) ([]T, error)) result.Result[Page[T]] {
	spec := s.Spec()

	items, err := list(ctx, spec.Query(s))
	if err != nil {
		return result.Error[Page[T]](err)
	}
	if items == nil {
		items = []T{}
	}

	page := Page[T]{
		Items: items,
		Total: int64(len(items)),
		Page:  1,
		Query: s.Query(),
	}

	if spec.Paginated {
		total, err := counter.Count(ctx, spec.CountQuery(s))
		if err != nil {
			return result.Error[Page[T]](fmt.Errorf("counting results: %w", err))
		}
		page.Total = total
		page.Page = s.Page()
		page.PageSize = spec.PageSize
		page.TotalPages = totalPages(total, spec.PageSize)
	}

	if len(items) == 0 {
		return result.Empty(page)
	}
	return result.Success(page)
}

func totalPages(total int64, size int) int {
	if size <= 0 || total <= 0 {
		return 1
	}
	return int((total + int64(size) - 1) / int64(size))
}
