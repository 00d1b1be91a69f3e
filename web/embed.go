// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package web embeds the HTML templates and built front-end assets.
package web

import (
	"embed"
	"io/fs"
)

//go:embed all:templates
var templates embed.FS

//go:embed all:static/dist
var static embed.FS

// Templates returns the template tree with templates/ as its root.
func Templates() fs.FS { return subtree(templates, "templates") }

// Static returns the built assets with static/dist/ as their root.
func Static() fs.FS { return subtree(static, "static/dist") }

func subtree(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		// dir is a constant, valid path.
		panic(err)
	}
	return sub
}
