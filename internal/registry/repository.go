// SPDX-License-Identifier: MPL-2.0

package registry

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

const (
	// KindPSGallery is the public PowerShell Gallery.
	KindPSGallery Kind = "psgallery"
	// KindNuGetV3 is a NuGet v3 feed addressed by its service index.
	KindNuGetV3 Kind = "nuget-v3"
	// KindNuGetV2 is a legacy NuGet v2 feed.
	KindNuGetV2 Kind = "nuget-v2"
	// KindFileShare is a plain directory destination.
	KindFileShare Kind = "file"
)

// psGalleryPushURL is the gallery's fixed push endpoint regardless of
// which gallery URL the spec carries.
const psGalleryPushURL = "https://www.powershellgallery.com/api/v2/package"

// ErrUnsupportedRepository is the sentinel error wrapped when a
// repository URL cannot be classified.
var ErrUnsupportedRepository = errors.New("unsupported repository URL")

type (
	// Kind classifies a publish destination.
	Kind string

	// Endpoint is a classified repository destination.
	Endpoint struct {
		// Kind is the destination family.
		Kind Kind
		// Raw is the URL as configured.
		Raw string
		// PushURL is where artefacts are pushed: the feed push endpoint
		// for NuGet kinds, the directory path for file shares.
		PushURL string
	}
)

// ParseRepositoryURL classifies a repository endpoint and derives its
// push URL. Accepted forms: PowerShell Gallery URLs, NuGet v3 service
// indexes (…/index.json), NuGet v2 feeds (…/api/v2), file:// URLs, and
// plain directory paths.
func ParseRepositoryURL(raw string) (*Endpoint, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: empty URL", ErrUnsupportedRepository)
	}

	u, err := url.Parse(trimmed)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 {
		// No scheme (or a Windows drive letter): treat as a directory path.
		return &Endpoint{Kind: KindFileShare, Raw: raw, PushURL: trimmed}, nil
	}

	switch u.Scheme {
	case "file":
		path := u.Path
		if u.Host != "" {
			// UNC form: file://server/share.
			path = "//" + u.Host + u.Path
		}
		if path == "" {
			return nil, fmt.Errorf("%w: file URL carries no path: %s", ErrUnsupportedRepository, raw)
		}
		return &Endpoint{Kind: KindFileShare, Raw: raw, PushURL: path}, nil

	case "http", "https":
		host := strings.ToLower(u.Hostname())
		cleanPath := strings.TrimRight(u.Path, "/")

		if host == "www.powershellgallery.com" || host == "powershellgallery.com" {
			return &Endpoint{Kind: KindPSGallery, Raw: raw, PushURL: psGalleryPushURL}, nil
		}
		if strings.HasSuffix(cleanPath, "/index.json") {
			return &Endpoint{Kind: KindNuGetV3, Raw: raw, PushURL: trimmed}, nil
		}
		if idx := strings.Index(cleanPath, "/api/v2"); idx >= 0 {
			base := *u
			base.Path = cleanPath[:idx] + "/api/v2/package"
			base.RawQuery = ""
			return &Endpoint{Kind: KindNuGetV2, Raw: raw, PushURL: base.String()}, nil
		}
		return nil, fmt.Errorf(
			"%w: %s is neither a NuGet v3 service index (…/index.json) nor a v2 feed (…/api/v2)",
			ErrUnsupportedRepository, raw)

	default:
		return nil, fmt.Errorf("%w: scheme %q is not supported", ErrUnsupportedRepository, u.Scheme)
	}
}
