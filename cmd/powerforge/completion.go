// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// newCompletionCommand creates the `powerforge completion` command.
// PowerShell completion matters here more than usual: the tool's audience
// lives in pwsh.
func newCompletionCommand() *cobra.Command {
	generators := map[string]func(*cobra.Command) error{
		"bash":       func(root *cobra.Command) error { return root.GenBashCompletion(os.Stdout) },
		"zsh":        func(root *cobra.Command) error { return root.GenZshCompletion(os.Stdout) },
		"fish":       func(root *cobra.Command) error { return root.GenFishCompletion(os.Stdout, true) },
		"powershell": func(root *cobra.Command) error { return root.GenPowerShellCompletionWithDesc(os.Stdout) },
	}

	return &cobra.Command{
		Use:   "completion <shell>",
		Short: "Generate shell completion scripts",
		Long: `Generate a completion script for bash, zsh, fish, or powershell.

` + SubtitleStyle.Render("PowerShell:") + `
  # Add to $PROFILE:
  powerforge completion powershell | Out-String | Invoke-Expression

` + SubtitleStyle.Render("Bash / Zsh:") + `
  # Add to ~/.bashrc or ~/.zshrc:
  eval "$(powerforge completion bash)"

` + SubtitleStyle.Render("Fish:") + `
  powerforge completion fish > ~/.config/fish/completions/powerforge.fish
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			gen, ok := generators[args[0]]
			if !ok {
				return fmt.Errorf("unsupported shell %q", args[0])
			}
			return gen(cmd.Root())
		},
	}
}
