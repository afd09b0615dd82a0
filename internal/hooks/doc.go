// SPDX-License-Identifier: MPL-2.0

// Package hooks executes the pre/post scripts a forge spec attaches to
// pipeline segments. Two interpreters are available: the system shell
// (native) and an embedded POSIX shell (portable) that behaves the same
// on every platform and is syntax-checked before execution.
package hooks
