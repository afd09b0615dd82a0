// SPDX-License-Identifier: MPL-2.0

// Package execx resolves and invokes the external tools PowerForge
// orchestrates: the .NET SDK, PowerShell, and signing utilities.
//
// The package deliberately stays thin. It resolves tool binaries from PATH,
// builds argv invocations, and maps process exit statuses to ExitCode values
// without treating a non-zero exit as an infrastructure failure. Higher
// layers (pipeline steps) decide what an exit code means.
package execx
