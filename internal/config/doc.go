// SPDX-License-Identifier: MPL-2.0

// Package config loads and persists the PowerForge user configuration.
//
// The configuration lives in a CUE file in the platform config directory
// (XDG on Linux, Application Support on macOS, APPDATA on Windows). Files
// are validated against an embedded CUE schema before being merged into
// Viper, so typos and wrong types fail loudly instead of being ignored.
//
// The user configuration carries tool path overrides and UI preferences.
// Per-project pipeline behavior lives in forge.json, not here.
package config
