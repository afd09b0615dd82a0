// SPDX-License-Identifier: MPL-2.0

// Package issue provides user-facing error types for PowerForge.
//
// ActionableError carries the operation that failed, the resource involved,
// and concrete suggestions for fixing the problem. The issue registry maps
// well-known failure classes to rendered markdown help pages shown in the
// terminal.
package issue
