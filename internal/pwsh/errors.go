// SPDX-License-Identifier: MPL-2.0

package pwsh

import (
	"errors"
	"fmt"
	"strings"

	"github.com/powerforge/powerforge/internal/execx"
)

// ErrNoOutput is returned when a JSON bridge script prints nothing.
var ErrNoOutput = errors.New("powershell script produced no output")

// ScriptError reports a script that exited non-zero.
type ScriptError struct {
	ExitCode execx.ExitCode
	Stderr   string
}

func (e *ScriptError) Error() string {
	msg := fmt.Sprintf("powershell script failed with exit code %d", e.ExitCode)
	if line := firstLine(e.Stderr); line != "" {
		msg += ": " + line
	}
	return msg
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}
