// SPDX-License-Identifier: MPL-2.0

// Package sign applies and verifies Authenticode signatures on a staged
// module payload, through Set-AuthenticodeSignature on the PowerShell
// side or signtool when one is configured.
package sign
