// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package uikit

// Breadcrumb represents a single breadcrumb item.
type Breadcrumb struct {
	Label  string
	URL    string
	Active bool
}

// Crumbs builds a trail from label/URL pairs. The last item is marked active.
func Crumbs(pairs ...string) []Breadcrumb {
	var out []Breadcrumb
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, Breadcrumb{Label: pairs[i], URL: pairs[i+1]})
	}
	if len(out) > 0 {
		out[len(out)-1].Active = true
	}
	return out
}
