// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package version reports which build is running.
package version

import (
	"fmt"
	"runtime/debug"
)

const (
	devVersion = "dev"
	unknown    = "unknown"
)

// Info describes a build. Release builds set the fields with -ldflags;
// Resolve fills the rest from the VCS stamps of the go tool.
type Info struct {
	Version   string
	GitCommit string
	BuildTime string
}

// String formats the info for the -version flag.
func (i Info) String() string {
	return fmt.Sprintf("muthawwif %s (commit: %s, built: %s)", i.Version, i.GitCommit, i.BuildTime)
}

// Resolve returns i with placeholder fields replaced from the embedded
// build info, when there is any.
func Resolve(i Info) Info {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return i
	}
	return i.merge(bi)
}

func (i Info) merge(bi *debug.BuildInfo) Info {
	if isPlaceholder(i.Version) && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		i.Version = bi.Main.Version
	}

	dirty := false
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if isPlaceholder(i.GitCommit) {
				i.GitCommit = s.Value[:min(len(s.Value), 7)]
			}
		case "vcs.time":
			if isPlaceholder(i.BuildTime) {
				i.BuildTime = s.Value
			}
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if dirty && i.GitCommit != "" && i.GitCommit != unknown {
		i.GitCommit += "-dirty"
	}
	return i
}

func isPlaceholder(s string) bool {
	return s == "" || s == devVersion || s == unknown
}
