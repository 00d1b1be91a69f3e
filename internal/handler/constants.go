// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

// Route pattern constants for chi router registration.
const (
	RouteRoot         = "/"
	RouteSuffixNew    = "/new"
	RouteSuffixBulk   = "/bulk"
	RouteSuffixStatus = "/status"
	RouteParamID      = "/{id}"
	RouteParamSlug    = "/{slug}"

	RouteLogin    = "/login"
	RouteLogout   = "/logout"
	RouteRegister = "/register"
	RouteProfile  = "/profile"
	RouteBlog     = "/blog"
	RouteProducts = "/products"
	RouteContact  = "/contact"
	RouteAbout    = "/about"

	RouteAdmin         = "/admin"
	RoutePosts         = "/posts"
	RouteUsers         = "/users"
	RouteAnalytics     = "/analytics"
	RouteSettings      = "/settings"
	RouteConsultations = "/consultations"
	RoutePurchases     = "/purchases"
	RouteEvents        = "/events"
	RouteCache         = "/cache"
	RouteScheduler     = "/scheduler"
)

const (
	redirectAdmin              = RouteAdmin
	redirectAdminPosts         = RouteAdmin + RoutePosts
	redirectAdminProducts      = RouteAdmin + RouteProducts
	redirectAdminUsers         = RouteAdmin + RouteUsers
	redirectAdminSettings      = RouteAdmin + RouteSettings
	redirectAdminConsultations = RouteAdmin + RouteConsultations
	redirectAdminPurchases     = RouteAdmin + RoutePurchases
	redirectAdminEvents        = RouteAdmin + RouteEvents
	redirectAdminCache         = RouteAdmin + RouteCache
	redirectAdminScheduler     = RouteAdmin + RouteScheduler
	redirectContact            = RouteContact
	redirectLogin              = RouteLogin
	redirectProfile            = RouteProfile

	redirectAdminPostsID    = redirectAdminPosts + "/%d"
	redirectAdminProductsID = redirectAdminProducts + "/%d"
)

// HeaderContentType is the Content-Type HTTP header name.
const HeaderContentType = "Content-Type"
