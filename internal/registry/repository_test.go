// SPDX-License-Identifier: MPL-2.0

package registry

import (
	"errors"
	"testing"
)

func TestParseRepositoryURL(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		raw      string
		wantKind Kind
		wantPush string
	}{
		{
			name:     "psgallery api v2",
			raw:      "https://www.powershellgallery.com/api/v2",
			wantKind: KindPSGallery,
			wantPush: "https://www.powershellgallery.com/api/v2/package",
		},
		{
			name:     "psgallery bare host",
			raw:      "https://powershellgallery.com",
			wantKind: KindPSGallery,
			wantPush: "https://www.powershellgallery.com/api/v2/package",
		},
		{
			name:     "nuget v3 service index",
			raw:      "https://nuget.example.com/v3/index.json",
			wantKind: KindNuGetV3,
			wantPush: "https://nuget.example.com/v3/index.json",
		},
		{
			name:     "nuget v2 feed",
			raw:      "https://nuget.example.com/api/v2",
			wantKind: KindNuGetV2,
			wantPush: "https://nuget.example.com/api/v2/package",
		},
		{
			name:     "nuget v2 with trailing slash",
			raw:      "https://nuget.example.com/api/v2/",
			wantKind: KindNuGetV2,
			wantPush: "https://nuget.example.com/api/v2/package",
		},
		{
			name:     "file url",
			raw:      "file:///srv/packages",
			wantKind: KindFileShare,
			wantPush: "/srv/packages",
		},
		{
			name:     "plain unix path",
			raw:      "/srv/packages",
			wantKind: KindFileShare,
			wantPush: "/srv/packages",
		},
		{
			name:     "windows drive path",
			raw:      `C:\packages`,
			wantKind: KindFileShare,
			wantPush: `C:\packages`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ep, err := ParseRepositoryURL(tt.raw)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ep.Kind != tt.wantKind {
				t.Errorf("kind = %q, want %q", ep.Kind, tt.wantKind)
			}
			if ep.PushURL != tt.wantPush {
				t.Errorf("push URL = %q, want %q", ep.PushURL, tt.wantPush)
			}
			if ep.Raw != tt.raw {
				t.Errorf("raw = %q, want %q", ep.Raw, tt.raw)
			}
		})
	}
}

func TestParseRepositoryURL_Rejected(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		raw  string
	}{
		{name: "empty", raw: "   "},
		{name: "unsupported scheme", raw: "ftp://host/feed"},
		{name: "http without feed shape", raw: "https://example.com/some/page"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := ParseRepositoryURL(tt.raw); !errors.Is(err, ErrUnsupportedRepository) {
				t.Errorf("expected ErrUnsupportedRepository, got %v", err)
			}
		})
	}
}
