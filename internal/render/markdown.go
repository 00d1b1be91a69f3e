// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package render

import (
	"bytes"
	"html/template"
	"log/slog"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	markdown = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(html.WithHardWraps()),
	)

	// htmlSanitizer allows the tags user-generated content needs. Post
	// bodies are written by staff but may be pasted from anywhere.
	htmlSanitizer = newSanitizer()

	stripTags = bluemonday.StrictPolicy()

	whitespaceRun = regexp.MustCompile(`\s+`)
)

func newSanitizer() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AddTargetBlankToFullyQualifiedLinks(true)
	p.RequireNoFollowOnFullyQualifiedLinks(true)
	p.AllowAttrs("loading").Matching(regexp.MustCompile(`^lazy$`)).OnElements("img")
	return p
}

// Markdown converts post content to sanitized HTML.
func Markdown(src string) template.HTML {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		slog.Warn("markdown conversion failed", "error", err)
		return template.HTML(template.HTMLEscapeString(src))
	}
	return template.HTML(htmlSanitizer.SanitizeBytes(buf.Bytes()))
}

// PlainText renders markdown and strips every tag, leaving collapsed text
// suitable for excerpts and meta descriptions.
func PlainText(src string) string {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return strings.TrimSpace(whitespaceRun.ReplaceAllString(src, " "))
	}
	text := stripTags.Sanitize(buf.String())
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(text, " "))
}
