// SPDX-License-Identifier: MPL-2.0

// Package pack stages a module payload into a versioned layout and turns
// it into distributable artefacts: a ZIP archive and a NuGet package for
// repository pushes.
package pack
