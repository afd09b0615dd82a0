// SPDX-License-Identifier: MPL-2.0

// Package docs renders module help into documentation: one markdown page
// per exported command plus an index, an optional single-page HTML
// export, and a glamour-backed terminal preview.
package docs
