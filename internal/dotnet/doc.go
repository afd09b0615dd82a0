// SPDX-License-Identifier: MPL-2.0

// Package dotnet drives the .NET SDK CLI: build, test, and pack
// invocations for companion projects, plus a bounded-parallel publish
// runner that fans one project out across multiple runtime identifiers.
package dotnet
