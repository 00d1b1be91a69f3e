// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package uikit

// pagerWidth is how many consecutive page numbers the pager shows.
const pagerWidth = 5

// Pagination is the pager under admin tables and the blog list.
type Pagination struct {
	Page       int
	LastPage   int
	TotalItems int64
	PageSize   int
	PrevURL    string
	NextURL    string
	Pages      []PageLink
}

// PageLink is one entry of the pager. Ellipsis entries carry no number.
type PageLink struct {
	Number     int
	URL        string
	IsCurrent  bool
	IsEllipsis bool
}

// BuildPagination builds the pager for page of lastPage. link renders the
// URL of a page with the listing's filters kept.
func BuildPagination(page, lastPage int, total int64, size int, link func(int) string) Pagination {
	lastPage = max(lastPage, 1)
	page = min(max(page, 1), lastPage)

	p := Pagination{
		Page:       page,
		LastPage:   lastPage,
		TotalItems: total,
		PageSize:   size,
		Pages:      pageLinks(page, lastPage, link),
	}
	if page > 1 {
		p.PrevURL = link(page - 1)
	}
	if page < lastPage {
		p.NextURL = link(page + 1)
	}
	return p
}

func (p Pagination) HasPrev() bool    { return p.PrevURL != "" }
func (p Pagination) HasNext() bool    { return p.NextURL != "" }
func (p Pagination) ShouldShow() bool { return p.LastPage > 1 }

// FirstItem is the 1-based position of the first row on the page, or 0 for
// an empty listing.
func (p Pagination) FirstItem() int64 {
	if p.TotalItems == 0 {
		return 0
	}
	return int64((p.Page-1)*p.PageSize) + 1
}

// LastItem is the 1-based position of the last row on the page.
func (p Pagination) LastItem() int64 {
	return min(int64(p.Page*p.PageSize), p.TotalItems)
}

// pageWindow returns the run of up to pagerWidth pages centred on page,
// shifted inward at either end.
func pageWindow(page, last int) (lo, hi int) {
	lo = max(page-pagerWidth/2, 1)
	hi = min(lo+pagerWidth-1, last)
	lo = max(hi-pagerWidth+1, 1)
	return lo, hi
}

// pageLinks lists the window plus the first and last pages, with an
// ellipsis wherever numbers are skipped.
func pageLinks(page, last int, link func(int) string) []PageLink {
	lo, hi := pageWindow(page, last)
	links := make([]PageLink, 0, hi-lo+5)
	number := func(n int) {
		links = append(links, PageLink{Number: n, URL: link(n), IsCurrent: n == page})
	}
	gap := func() { links = append(links, PageLink{IsEllipsis: true}) }

	if lo > 1 {
		number(1)
		if lo > 2 {
			gap()
		}
	}
	for n := lo; n <= hi; n++ {
		number(n)
	}
	if hi < last {
		if hi < last-1 {
			gap()
		}
		number(last)
	}
	return links
}
