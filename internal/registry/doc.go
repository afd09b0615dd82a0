// SPDX-License-Identifier: MPL-2.0

// Package registry handles publish destinations: classifying repository
// URLs (PowerShell Gallery, NuGet v3/v2 feeds, file shares), deriving
// their push endpoints, storing API keys, and pushing packaged artefacts.
package registry
