// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/powerforge/powerforge/internal/forge"
	"github.com/powerforge/powerforge/internal/report"

	"github.com/spf13/cobra"
)

var (
	initForce  bool
	initStdout bool
	initName   string

	// initCmd creates a new forge.json
	initCmd = &cobra.Command{
		Use:   "init",
		Short: "Create a new forge.json in the current directory",
		Long: `Create a new forge.json in the current directory with a starter
pipeline: manifest validation, script analysis, packaging, and a
documentation segment to grow from.`,
		RunE: runInit,
	}
)

// initResult is the `--json` payload of a successful init.
type initResult struct {
	Module string `json:"module"`
	Path   string `json:"path"`
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite existing forge.json")
	initCmd.Flags().BoolVar(&initStdout, "stdout", false, "print the scaffold instead of writing a file")
	initCmd.Flags().StringVar(&initName, "name", "", "module name (defaults to the directory name)")
}

func runInit(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	name := initName
	if name == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to determine working directory: %w", err)
		}
		name = filepath.Base(wd)
	}

	content := scaffoldSpec(name)

	if initStdout {
		if jsonOutput {
			return report.NewEnvelope("init", json.RawMessage(content)).WriteJSON(out)
		}
		fmt.Fprint(out, content)
		return nil
	}

	filename := forge.SpecFileName
	if _, err := os.Stat(filename); err == nil && !initForce {
		return fmt.Errorf("file '%s' already exists. Use --force to overwrite", filename)
	}

	if err := os.WriteFile(filename, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	absPath, _ := filepath.Abs(filename)
	if jsonOutput {
		return report.NewEnvelope("init", initResult{Module: name, Path: absPath}).WriteJSON(out)
	}

	fmt.Fprintf(out, "%s Created %s\n", SuccessStyle.Render("✓"), absPath)
	fmt.Fprintln(out)
	fmt.Fprintln(out, SubtitleStyle.Render("Next steps:"))
	fmt.Fprintln(out, "  1. Point module.path at your module sources")
	fmt.Fprintln(out, "  2. Run 'powerforge plan' to see the pipeline")
	fmt.Fprintln(out, "  3. Run 'powerforge run' to execute it")

	return nil
}

// scaffoldSpec returns a starter forge.json for a module named name.
func scaffoldSpec(name string) string {
	return fmt.Sprintf(`{
  "module": {
    "name": %q,
    "path": "src"
  },
  "validate": {
    "severity": "warning",
    "pester": {
      "path": "tests"
    }
  },
  "docs": {
    "format": "markdown",
    "output": "docs"
  },
  "package": {
    "output": "out",
    "zip": true,
    "exclude": ["*.tests.ps1"]
  }
}
`, name)
}
