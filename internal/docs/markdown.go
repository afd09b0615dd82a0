// SPDX-License-Identifier: MPL-2.0

package docs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/powerforge/powerforge/internal/pwsh"
)

// IndexFileName is the generated documentation index page.
const IndexFileName = "README.md"

// ModuleDocs is the input of the generators: a module plus the help
// model of its exported commands.
type ModuleDocs struct {
	ModuleName string
	Version    string
	Commands   []pwsh.CommandHelp
}

// WriteMarkdown writes one page per command plus an index into outDir,
// creating it as needed. It returns the paths written.
func WriteMarkdown(docs ModuleDocs, outDir string) ([]string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create docs directory: %w", err)
	}

	var written []string

	indexPath := filepath.Join(outDir, IndexFileName)
	if err := os.WriteFile(indexPath, []byte(renderIndex(docs)), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write docs index: %w", err)
	}
	written = append(written, indexPath)

	for _, cmd := range docs.Commands {
		page := filepath.Join(outDir, cmd.Name+".md")
		if err := os.WriteFile(page, []byte(renderCommand(cmd)), 0o644); err != nil {
			return nil, fmt.Errorf("failed to write docs page for %s: %w", cmd.Name, err)
		}
		written = append(written, page)
	}
	return written, nil
}

func renderIndex(docs ModuleDocs) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s", docs.ModuleName)
	if docs.Version != "" {
		fmt.Fprintf(&b, " %s", docs.Version)
	}
	b.WriteString("\n\n## Commands\n\n")
	if len(docs.Commands) == 0 {
		b.WriteString("This module exports no commands.\n")
		return b.String()
	}
	for _, cmd := range docs.Commands {
		fmt.Fprintf(&b, "- [%s](%s.md)", cmd.Name, cmd.Name)
		if cmd.Synopsis != "" {
			fmt.Fprintf(&b, " — %s", cmd.Synopsis)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func renderCommand(cmd pwsh.CommandHelp) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", cmd.Name)
	if cmd.Synopsis != "" {
		fmt.Fprintf(&b, "%s\n\n", cmd.Synopsis)
	}
	if cmd.Syntax != "" {
		fmt.Fprintf(&b, "## Syntax\n\n```powershell\n%s\n```\n\n", strings.TrimSpace(cmd.Syntax))
	}
	if cmd.Description != "" {
		fmt.Fprintf(&b, "## Description\n\n%s\n\n", cmd.Description)
	}
	if len(cmd.Parameters) > 0 {
		b.WriteString("## Parameters\n\n")
		for _, p := range cmd.Parameters {
			required := "optional"
			if p.Required {
				required = "required"
			}
			fmt.Fprintf(&b, "### -%s\n\n`%s` (%s)\n\n", p.Name, orUnknown(p.Type), required)
			if p.Description != "" {
				fmt.Fprintf(&b, "%s\n\n", p.Description)
			}
		}
	}
	if len(cmd.Examples) > 0 {
		b.WriteString("## Examples\n\n")
		for _, e := range cmd.Examples {
			if e.Title != "" {
				fmt.Fprintf(&b, "### %s\n\n", e.Title)
			}
			if e.Code != "" {
				fmt.Fprintf(&b, "```powershell\n%s\n```\n\n", strings.TrimSpace(e.Code))
			}
			if e.Remarks != "" {
				fmt.Fprintf(&b, "%s\n\n", e.Remarks)
			}
		}
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

func orUnknown(typeName string) string {
	if typeName == "" {
		return "Object"
	}
	return typeName
}
