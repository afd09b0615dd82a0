// SPDX-License-Identifier: MPL-2.0

package docs

import (
	"fmt"

	"github.com/charmbracelet/glamour"
)

// Preview renders generated markdown for terminal display.
func Preview(markdown string) (string, error) {
	out, err := glamour.Render(markdown, "auto")
	if err != nil {
		return "", fmt.Errorf("failed to render markdown preview: %w", err)
	}
	return out, nil
}
