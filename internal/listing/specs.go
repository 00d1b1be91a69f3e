// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package listing

import (
	"github.com/olegiv/muthawwif-go/internal/model"
	"github.com/olegiv/muthawwif-go/internal/store"
)

// Page sizes.
const (
	BlogPageSize   = 9
	AdminPageSize  = 10
	EventsPageSize = 25
)

// Blog lists published posts on the public blog.
var Blog = &Spec{
	Path:      "/blog",
	Keys:      []string{KeySearch, KeyCategory, KeyPage},
	Paginated: true,
	PageSize:  BlogPageSize,
	Base: func() *store.Query {
		return store.PostsQuery().Where(store.Eq("p.status", model.PostStatusPublished))
	},
	Equal:         map[string]Column{KeyCategory: {Name: "p.category_id", Int: true}},
	SearchColumns: []string{"p.title", "p.content"},
	DefaultOrder:  []store.Order{{Column: "p.published_at", Desc: true}, {Column: "p.id", Desc: true}},
}

// Products lists active products in the public catalogue.
var Products = &Spec{
	Path: "/products",
	Keys: []string{KeySearch, KeyCategory, KeyType, KeyPriceRange, KeySortBy},
	Base: func() *store.Query {
		return store.ProductsQuery().Where(store.Eq("pr.is_active", true))
	},
	Equal: map[string]Column{
		KeyCategory: {Name: "pr.category_id", Int: true},
		KeyType:     {Name: "pr.product_type"},
	},
	SearchColumns: []string{"pr.title", "pr.description"},
	PriceColumn:   "pr.price",
	Sorts:         productSorts,
	DefaultSort:   "newest",
}

var productSorts = map[string]store.Order{
	"newest":     {Column: "pr.created_at", Desc: true},
	"price_low":  {Column: "pr.price"},
	"price_high": {Column: "pr.price", Desc: true},
	"popular":    {Column: "pr.sold_count", Desc: true},
	"rating":     {Column: "pr.rating_average", Desc: true},
}

// SortOptions lists the product sort keys in display order.
var SortOptions = []string{"newest", "price_low", "price_high", "popular", "rating"}

// AdminPosts lists every post in the admin panel.
var AdminPosts = &Spec{
	Path:      "/admin/posts",
	Keys:      []string{KeySearch, KeyCategory, KeyStatus, KeyPage},
	Paginated: true,
	PageSize:  AdminPageSize,
	Base:      store.PostsQuery,
	Equal: map[string]Column{
		KeyCategory: {Name: "p.category_id", Int: true},
		KeyStatus:   {Name: "p.status"},
	},
	SearchColumns: []string{"p.title", "p.content"},
	DefaultOrder:  []store.Order{{Column: "p.created_at", Desc: true}, {Column: "p.id", Desc: true}},
}

// AdminProducts lists every product in the admin panel.
var AdminProducts = &Spec{
	Path:      "/admin/products",
	Keys:      []string{KeySearch, KeyCategory, KeyStatus, KeyType, KeyPage},
	Paginated: true,
	PageSize:  AdminPageSize,
	Base:      store.ProductsQuery,
	Equal: map[string]Column{
		KeyCategory: {Name: "pr.category_id", Int: true},
		KeyType:     {Name: "pr.product_type"},
	},
	SearchColumns: []string{"pr.title", "pr.description"},
	ActiveColumn:  "pr.is_active",
	DefaultOrder:  []store.Order{{Column: "pr.created_at", Desc: true}, {Column: "pr.id", Desc: true}},
}

// AdminUsers lists profiles in the admin panel.
var AdminUsers = &Spec{
	Path:          "/admin/users",
	Keys:          []string{KeySearch, KeyRole, KeyStatus, KeyPage},
	Paginated:     true,
	PageSize:      AdminPageSize,
	Base:          store.ProfilesQuery,
	Equal:         map[string]Column{KeyRole: {Name: "p.role"}},
	SearchColumns: []string{"p.full_name", "p.email"},
	ActiveColumn:  "p.is_active",
	DefaultOrder:  []store.Order{{Column: "p.created_at", Desc: true}},
}

// AdminPurchases lists purchases in the admin panel.
var AdminPurchases = &Spec{
	Path:          "/admin/purchases",
	Keys:          []string{KeySearch, KeyStatus, KeyPage},
	Paginated:     true,
	PageSize:      AdminPageSize,
	Base:          store.PurchasesQuery,
	Equal:         map[string]Column{KeyStatus: {Name: "pu.payment_status"}},
	SearchColumns: []string{"pr.title", "u.email", "u.full_name"},
	DefaultOrder:  []store.Order{{Column: "pu.created_at", Desc: true}, {Column: "pu.id", Desc: true}},
}

// AdminConsultations lists contact form submissions.
var AdminConsultations = &Spec{
	Path:          "/admin/consultations",
	Keys:          []string{KeySearch, KeyStatus, KeyPage},
	Paginated:     true,
	PageSize:      AdminPageSize,
	Base:          store.ConsultationsQuery,
	Equal:         map[string]Column{KeyStatus: {Name: "status"}},
	SearchColumns: []string{"name", "email"},
	DefaultOrder:  []store.Order{{Column: "created_at", Desc: true}, {Column: "id", Desc: true}},
}

// AdminEvents lists the audit log.
var AdminEvents = &Spec{
	Path:      "/admin/events",
	Keys:      []string{KeySearch, KeyCategory, KeyLevel, KeyPage},
	Paginated: true,
	PageSize:  EventsPageSize,
	Base:      store.EventsQuery,
	Equal: map[string]Column{
		KeyCategory: {Name: "e.category"},
		KeyLevel:    {Name: "e.level"},
	},
	SearchColumns: []string{"e.message", "u.email"},
	DefaultOrder:  []store.Order{{Column: "e.created_at", Desc: true}, {Column: "e.id", Desc: true}},
}
