// SPDX-License-Identifier: MPL-2.0

// Package forge defines the declarative pipeline specification (forge.json)
// and its loader.
//
// A forge spec describes a PowerShell module and the pipeline segments to
// run against it: build, validate, docs, package, sign, publish, install,
// plus .NET publish settings and per-segment hooks. Specs are plain JSON
// validated against an embedded CUE schema, so unknown fields and wrong
// types are rejected with precise positions instead of being silently
// ignored.
package forge
