// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/olegiv/muthawwif-go/internal/model"
)

var postColumns = []string{
	"p.id", "p.title", "p.slug", "p.content", "p.excerpt", "p.status",
	"p.category_id", "p.author_id", "p.featured_image", "p.view_count",
	"p.published_at", "p.created_at", "p.updated_at",
	"COALESCE(c.name, '')", "COALESCE(c.color, '')", "COALESCE(c.icon, '')",
	"COALESCE(a.full_name, '')",
}

// PostsQuery selects posts aliased as "p" with their category ("c") and
// author ("a") joined in.
func PostsQuery() *Query {
	return Select("posts p", postColumns...).
		LeftJoin("categories c", "c.id = p.category_id").
		LeftJoin("profiles a", "a.id = p.author_id")
}

func scanPost(s scanner) (model.Post, error) {
	var p model.Post
	err := s.Scan(&p.ID, &p.Title, &p.Slug, &p.Content, &p.Excerpt, &p.Status,
		&p.CategoryID, &p.AuthorID, &p.FeaturedImage, &p.ViewCount,
		&p.PublishedAt, &p.CreatedAt, &p.UpdatedAt,
		&p.CategoryName, &p.CategoryColor, &p.CategoryIcon, &p.AuthorName)
	return p, err
}

// ListPosts runs a query built from PostsQuery.
func (q *Queries) ListPosts(ctx context.Context, query *Query) ([]model.Post, error) {
	sqlStr, args := query.Build()
	rows, err := q.db.query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("listing posts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var posts []model.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning post: %w", err)
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// GetPostByID returns one post or ErrNotFound.
func (q *Queries) GetPostByID(ctx context.Context, id int64) (model.Post, error) {
	sqlStr, args := PostsQuery().Where(Eq("p.id", id)).Build()
	p, err := scanPost(q.db.queryRow(ctx, sqlStr, args...))
	return p, notFound(err)
}

// GetPublishedPostBySlug returns a published post for the public blog.
func (q *Queries) GetPublishedPostBySlug(ctx context.Context, slug string) (model.Post, error) {
	sqlStr, args := PostsQuery().
		Where(Eq("p.slug", slug), Eq("p.status", model.PostStatusPublished)).
		Build()
	p, err := scanPost(q.db.queryRow(ctx, sqlStr, args...))
	return p, notFound(err)
}

// PostSlugExists reports whether another post already uses slug.
func (q *Queries) PostSlugExists(ctx context.Context, slug string, excludeID int64) (bool, error) {
	n, err := q.db.Count(ctx, Select("posts").Where(Eq("slug", slug), Neq("id", excludeID)))
	return n > 0, err
}

// PostParams holds the editable post fields.
type PostParams struct {
	Title         string
	Slug          string
	Content       string
	Excerpt       string
	Status        string
	CategoryID    sql.NullInt64
	AuthorID      sql.NullString
	FeaturedImage string
}

// CreatePost inserts a post. Published posts get published_at = now.
func (q *Queries) CreatePost(ctx context.Context, arg PostParams, now time.Time) (int64, error) {
	now = now.UTC()
	var publishedAt sql.NullTime
	if arg.Status == model.PostStatusPublished {
		publishedAt = sql.NullTime{Time: now, Valid: true}
	}

	id, err := q.db.insertReturningID(ctx,
		`INSERT INTO posts (title, slug, content, excerpt, status, category_id, author_id,
		 featured_image, view_count, published_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?, ?)`,
		arg.Title, arg.Slug, arg.Content, arg.Excerpt, arg.Status, arg.CategoryID, arg.AuthorID,
		arg.FeaturedImage, publishedAt, now, now)
	if err != nil {
		return 0, fmt.Errorf("creating post: %w", err)
	}
	return id, nil
}

// UpdatePost rewrites the editable fields. The author is kept.
func (q *Queries) UpdatePost(ctx context.Context, id int64, arg PostParams, now time.Time) error {
	now = now.UTC()
	_, err := q.db.exec(ctx,
		`UPDATE posts SET title = ?, slug = ?, content = ?, excerpt = ?, status = ?, category_id = ?,
		 featured_image = ?, updated_at = ?,
		 published_at = CASE WHEN ? = 'published' THEN COALESCE(published_at, ?) ELSE published_at END
		 WHERE id = ?`,
		arg.Title, arg.Slug, arg.Content, arg.Excerpt, arg.Status, arg.CategoryID,
		arg.FeaturedImage, now, arg.Status, now, id)
	if err != nil {
		return fmt.Errorf("updating post: %w", err)
	}
	return nil
}

// PublishPosts marks posts published, stamping published_at the first time.
func (q *Queries) PublishPosts(ctx context.Context, ids []int64, now time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	now = now.UTC()
	args := []any{model.PostStatusPublished, now, now}
	args = append(args, Int64IDs(ids)...)

	res, err := q.db.exec(ctx,
		"UPDATE posts SET status = ?, published_at = COALESCE(published_at, ?), updated_at = ? WHERE id IN ("+placeholders(len(ids))+")",
		args...)
	if err != nil {
		return 0, fmt.Errorf("publishing posts: %w", err)
	}
	return res.RowsAffected()
}

// SetPostsStatus changes the status without touching published_at.
func (q *Queries) SetPostsStatus(ctx context.Context, ids []int64, status string, now time.Time) (int64, error) {
	if status == model.PostStatusPublished {
		return q.PublishPosts(ctx, ids, now)
	}
	return q.db.UpdateByIDs(ctx, "posts", Int64IDs(ids), Set("status", status), Set("updated_at", now.UTC()))
}

// DeletePosts removes posts by id.
func (q *Queries) DeletePosts(ctx context.Context, ids []int64) (int64, error) {
	return q.db.DeleteByIDs(ctx, "posts", Int64IDs(ids))
}

// IncrementPostViews bumps view_count of a published post.
func (q *Queries) IncrementPostViews(ctx context.Context, id int64) error {
	res, err := q.db.exec(ctx,
		"UPDATE posts SET view_count = view_count + 1 WHERE id = ? AND status = ?",
		id, model.PostStatusPublished)
	if err != nil {
		return fmt.Errorf("incrementing post views: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
