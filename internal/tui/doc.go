// SPDX-License-Identifier: MPL-2.0

// Package tui renders pipeline progress. Interactive terminals get a
// bubbletea program with a progress bar; everything else falls back to
// plain structured log lines.
package tui
