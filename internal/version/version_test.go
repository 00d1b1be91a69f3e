// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package version

import (
	"runtime/debug"
	"testing"
)

func TestInfoString(t *testing.T) {
	info := Info{Version: "v1.4.0", GitCommit: "abc1234", BuildTime: "2026-01-30T12:00:00Z"}

	want := "muthawwif v1.4.0 (commit: abc1234, built: 2026-01-30T12:00:00Z)"
	if got := info.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestMerge(t *testing.T) {
	bi := &debug.BuildInfo{
		Main: debug.Module{Version: "v1.5.0"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "9f8e7d6c5b4a39281706"},
			{Key: "vcs.time", Value: "2026-09-01T08:30:00Z"},
			{Key: "vcs.modified", Value: "true"},
		},
	}

	tests := []struct {
		name string
		in   Info
		want Info
	}{
		{
			name: "placeholders filled",
			in:   Info{Version: "dev", GitCommit: "unknown", BuildTime: "unknown"},
			want: Info{Version: "v1.5.0", GitCommit: "9f8e7d6-dirty", BuildTime: "2026-09-01T08:30:00Z"},
		},
		{
			name: "ldflags win",
			in:   Info{Version: "v2.0.0", GitCommit: "1234567", BuildTime: "2026-10-01T00:00:00Z"},
			want: Info{Version: "v2.0.0", GitCommit: "1234567-dirty", BuildTime: "2026-10-01T00:00:00Z"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.merge(bi); got != tt.want {
				t.Errorf("merge() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestMerge_DevelBuild(t *testing.T) {
	bi := &debug.BuildInfo{Main: debug.Module{Version: "(devel)"}}
	got := Info{Version: "dev", GitCommit: "unknown", BuildTime: "unknown"}.merge(bi)
	if got.Version != "dev" || got.GitCommit != "unknown" {
		t.Errorf("merge() = %+v, placeholders should stay without stamps", got)
	}
}
