// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package listing keeps the filter and pagination state of a list page in
// sync with its URL query string and turns it into a store query.
package listing

import (
	"net/url"
	"slices"
	"strconv"
	"strings"
)

// Filter keys, in the order they are serialized.
const (
	KeySearch     = "search"
	KeyCategory   = "category"
	KeyStatus     = "status"
	KeyRole       = "role"
	KeyLevel      = "level"
	KeyType       = "type"
	KeyPriceRange = "priceRange"
	KeySortBy     = "sortBy"
	KeyPage       = "page"
)

var keyOrder = []string{
	KeySearch, KeyCategory, KeyStatus, KeyRole, KeyLevel, KeyType, KeyPriceRange, KeySortBy, KeyPage,
}

// State is the current filter set of one listing.
type State struct {
	spec   *Spec
	values map[string]string
	page   int
}

// NewState returns an empty state for spec.
func NewState(spec *Spec) *State {
	return &State{spec: spec, values: make(map[string]string), page: 1}
}

// FromQuery reads the keys spec allows from a URL query. Unknown keys are
// dropped and an invalid page becomes 1.
func FromQuery(q url.Values, spec *Spec) *State {
	s := NewState(spec)
	for _, key := range spec.Keys {
		if key == KeyPage {
			continue
		}
		if v := strings.TrimSpace(q.Get(key)); v != "" {
			s.values[key] = v
		}
	}
	if spec.Paginated {
		s.page = parsePage(q.Get(KeyPage))
	}
	return s
}

func parsePage(v string) int {
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// Spec returns the listing this state belongs to.
func (s *State) Spec() *Spec { return s.spec }

// Get returns a filter value, or "" when unset.
func (s *State) Get(key string) string {
	if key == KeyPage {
		return strconv.Itoa(s.page)
	}
	return s.values[key]
}

// Page returns the current page, starting at 1.
func (s *State) Page() int { return s.page }

// Set changes one filter. An empty value removes it. Changing anything but
// the page of a paginated listing resets it to page 1.
func (s *State) Set(key, value string) *State {
	if !s.spec.allows(key) {
		return s
	}
	value = strings.TrimSpace(value)

	if key == KeyPage {
		if s.spec.Paginated {
			s.page = parsePage(value)
		}
		return s
	}

	if value == "" {
		delete(s.values, key)
	} else {
		s.values[key] = value
	}
	s.page = 1
	return s
}

// Clear removes every filter and returns to page 1.
func (s *State) Clear() *State {
	clear(s.values)
	s.page = 1
	return s
}

// IsFiltered reports whether any filter other than the page is set.
func (s *State) IsFiltered() bool {
	return len(s.values) > 0
}

// Clone returns an independent copy.
func (s *State) Clone() *State {
	c := NewState(s.spec)
	for k, v := range s.values {
		c.values[k] = v
	}
	c.page = s.page
	return c
}

// Values serializes the non-empty filters. Page 1 is omitted.
func (s *State) Values() url.Values {
	v := make(url.Values)
	for _, key := range keyOrder {
		if key == KeyPage {
			if s.page > 1 {
				v.Set(KeyPage, strconv.Itoa(s.page))
			}
			continue
		}
		if val, ok := s.values[key]; ok && val != "" {
			v.Set(key, val)
		}
	}
	return v
}

// Query returns the encoded query string without a leading '?'. It is
// empty when no filter is set.
func (s *State) Query() string {
	return s.Values().Encode()
}

// URL returns the listing path with the current query.
func (s *State) URL() string {
	return withQuery(s.spec.Path, s.Query())
}

// With returns the URL of this listing with one filter changed.
func (s *State) With(key, value string) string {
	return s.Clone().Set(key, value).URL()
}

// Without returns the URL of this listing with one filter removed.
func (s *State) Without(key string) string {
	return s.Clone().Set(key, "").URL()
}

// PageURL returns the URL of page n with the same filters.
func (s *State) PageURL(n int) string {
	return s.With(KeyPage, strconv.Itoa(n))
}

// ClearURL returns the listing URL without any filter.
func (s *State) ClearURL() string {
	return s.Clone().Clear().URL()
}

func withQuery(path, query string) string {
	if query == "" {
		return path
	}
	return path + "?" + query
}

func (sp *Spec) allows(key string) bool {
	return slices.Contains(sp.Keys, key)
}
