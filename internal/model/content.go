// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"database/sql"
	"time"
)

// Post statuses.
const (
	PostStatusDraft     = "draft"
	PostStatusPublished = "published"
	PostStatusArchived  = "archived"
)

// ValidPostStatuses lists the accepted post statuses.
var ValidPostStatuses = []string{PostStatusDraft, PostStatusPublished, PostStatusArchived}

// Category groups posts and products.
type Category struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	Color       string    `json:"color"`
	Icon        string    `json:"icon"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// Post is a blog article.
type Post struct {
	ID            int64          `json:"id"`
	Title         string         `json:"title"`
	Slug          string         `json:"slug"`
	Content       string         `json:"content"`
	Excerpt       string         `json:"excerpt"`
	Status        string         `json:"status"`
	CategoryID    sql.NullInt64  `json:"-"`
	AuthorID      sql.NullString `json:"-"`
	FeaturedImage string         `json:"featured_image"`
	ViewCount     int64          `json:"view_count"`
	PublishedAt   sql.NullTime   `json:"-"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`

	// Joined columns.
	CategoryName  string `json:"category_name,omitempty"`
	CategoryColor string `json:"category_color,omitempty"`
	CategoryIcon  string `json:"category_icon,omitempty"`
	AuthorName    string `json:"author_name,omitempty"`
}

// IsPublished reports whether the post is visible on the public site.
func (p *Post) IsPublished() bool {
	return p.Status == PostStatusPublished
}

// Testimonial is a pilgrim's review shown on the home and about pages.
type Testimonial struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	RoleTitle  string    `json:"role_title"`
	Content    string    `json:"content"`
	Rating     int       `json:"rating"`
	Avatar     string    `json:"avatar"`
	IsActive   bool      `json:"is_active"`
	IsFeatured bool      `json:"is_featured"`
	SortOrder  int       `json:"sort_order"`
	CreatedAt  time.Time `json:"created_at"`
}

// Consultation types and statuses.
const (
	ConsultationTypeGeneral = "general"

	ConsultationStatusNew       = "new"
	ConsultationStatusContacted = "contacted"
	ConsultationStatusClosed    = "closed"
)

// ConsultationTypes lists the contact form topics with their labels, in
// display order.
var ConsultationTypes = []struct{ Value, Label string }{
	{ConsultationTypeGeneral, "Konsultasi Umum"},
	{"umrah", "Persiapan Umrah"},
	{"haji", "Persiapan Haji"},
	{"spiritual", "Bimbingan Spiritual"},
	{"urgent", "Konsultasi Urgent"},
}

// IsValidConsultationType reports whether t is one of ConsultationTypes.
func IsValidConsultationType(t string) bool {
	for _, ct := range ConsultationTypes {
		if ct.Value == t {
			return true
		}
	}
	return false
}

// ValidConsultationStatuses lists the accepted consultation statuses.
var ValidConsultationStatuses = []string{ConsultationStatusNew, ConsultationStatusContacted, ConsultationStatusClosed}

// Consultation is a request submitted through the contact form.
type Consultation struct {
	ID               int64          `json:"id"`
	Name             string         `json:"name"`
	Email            string         `json:"email"`
	Phone            string         `json:"phone"`
	ConsultationType string         `json:"consultation_type"`
	PreferredDate    sql.NullTime   `json:"-"`
	Message          string         `json:"message"`
	UserID           sql.NullString `json:"-"`
	Status           string         `json:"status"`
	CreatedAt        time.Time      `json:"created_at"`
}
