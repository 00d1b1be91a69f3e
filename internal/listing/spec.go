// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package listing

import (
	"strconv"
	"strings"

	"github.com/olegiv/muthawwif-go/internal/store"
)

// Column maps an equality filter key to a column.
type Column struct {
	Name string
	// Int parses the value as an integer. Non-numeric input matches nothing.
	Int bool
}

// Spec describes one listing: which keys it accepts and how each becomes
// a predicate or ordering.
type Spec struct {
	Path      string
	Keys      []string
	Paginated bool
	PageSize  int

	// Base returns the unfiltered query, including fixed predicates such
	// as "published only".
	Base func() *store.Query

	Equal         map[string]Column
	SearchColumns []string

	// ActiveColumn turns status=active|inactive into a boolean predicate.
	ActiveColumn string
	PriceColumn  string

	Sorts       map[string]store.Order
	DefaultSort string
	// DefaultOrder applies when the listing has no sort key.
	DefaultOrder []store.Order
}

// Filters translates a state into WHERE predicates.
func (sp *Spec) Filters(s *State) []store.Filter {
	var filters []store.Filter

	for _, key := range sp.Keys {
		v := s.values[key]
		if v == "" {
			continue
		}

		switch {
		case key == KeySearch && len(sp.SearchColumns) > 0:
			filters = append(filters, store.AnyILike(store.Contains(v), sp.SearchColumns...))

		case key == KeyStatus && sp.ActiveColumn != "":
			switch v {
			case "active":
				filters = append(filters, store.Eq(sp.ActiveColumn, true))
			case "inactive":
				filters = append(filters, store.Eq(sp.ActiveColumn, false))
			}

		case key == KeyPriceRange && sp.PriceColumn != "":
			filters = append(filters, priceFilters(sp.PriceColumn, v)...)

		default:
			col, ok := sp.Equal[key]
			if !ok {
				continue
			}
			if !col.Int {
				filters = append(filters, store.Eq(col.Name, v))
				continue
			}
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				filters = append(filters, store.Raw("1 = 0"))
				continue
			}
			filters = append(filters, store.Eq(col.Name, n))
		}
	}
	return filters
}

// priceFilters parses "min-max". A bare "min", or a max of 0, is an open
// upper bound. Unparseable input adds no predicate.
func priceFilters(col, v string) []store.Filter {
	minStr, maxStr, _ := strings.Cut(v, "-")

	lo, err := strconv.ParseInt(strings.TrimSpace(minStr), 10, 64)
	if err != nil {
		return nil
	}
	filters := []store.Filter{store.Gte(col, lo)}

	if maxStr == "" {
		return filters
	}
	hi, err := strconv.ParseInt(strings.TrimSpace(maxStr), 10, 64)
	if err != nil || hi == 0 {
		return filters
	}
	return append(filters, store.Lte(col, hi))
}

// Orders returns the ORDER BY terms for a state.
func (sp *Spec) Orders(s *State) []store.Order {
	if len(sp.Sorts) > 0 {
		key := s.values[KeySortBy]
		if o, ok := sp.Sorts[key]; ok {
			return []store.Order{o}
		}
		if o, ok := sp.Sorts[sp.DefaultSort]; ok {
			return []store.Order{o}
		}
	}
	return sp.DefaultOrder
}

// Query builds the full query for a state: filters, ordering and, for
// paginated listings, the row range of the current page.
func (sp *Spec) Query(s *State) *store.Query {
	q := sp.CountQuery(s)
	for _, o := range sp.Orders(s) {
		q.OrderBy(o.Column, o.Desc)
	}
	if sp.Paginated && sp.PageSize > 0 {
		from := (s.page - 1) * sp.PageSize
		q.Range(from, from+sp.PageSize-1)
	}
	return q
}

// CountQuery builds the query without ordering or range.
func (sp *Spec) CountQuery(s *State) *store.Query {
	return sp.Base().Where(sp.Filters(s)...)
}
