// SPDX-License-Identifier: MPL-2.0

// Package install copies a staged module payload into a PowerShell
// module path using the versioned directory layout PowerShell resolves
// modules from.
package install
