// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/powerforge/powerforge/internal/config"
	"github.com/powerforge/powerforge/internal/registry"
	"github.com/powerforge/powerforge/internal/report"

	"github.com/spf13/cobra"
)

// tokenName is the `--json` payload of token set and remove.
type tokenName struct {
	Name string `json:"name"`
}

// newTokenCommand creates the `powerforge token` command tree. Tokens
// are API keys referenced from forge.json by name, kept out of the spec
// itself.
func newTokenCommand() *cobra.Command {
	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Manage repository API keys",
		Long: `Manage repository API keys.

Publish repositories in forge.json reference tokens by name
("tokenName"); the token values live in the user config directory with
owner-only permissions and never enter the spec.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	tokenCmd.AddCommand(&cobra.Command{
		Use:   "set <name> [token]",
		Short: "Store a token (reads from stdin when the value is omitted)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openTokenStore()
			if err != nil {
				return err
			}

			value := ""
			if len(args) == 2 {
				value = args[1]
			} else {
				fmt.Fprint(os.Stderr, "Token: ")
				reader := bufio.NewReader(os.Stdin)
				line, err := reader.ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("failed to read token from stdin: %w", err)
				}
				value = strings.TrimSpace(line)
			}
			if value == "" {
				return fmt.Errorf("token value must not be empty")
			}

			if err := store.Set(args[0], value); err != nil {
				return err
			}
			if jsonOutput {
				return report.NewEnvelope("token set", tokenName{Name: args[0]}).WriteJSON(cmd.OutOrStdout())
			}
			fmt.Printf("%s Stored token %s\n", SuccessStyle.Render("✓"), CmdStyle.Render(args[0]))
			return nil
		},
	})

	tokenCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List stored token names",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openTokenStore()
			if err != nil {
				return err
			}
			names, err := store.List()
			if err != nil {
				return err
			}
			if jsonOutput {
				data := struct {
					Names []string `json:"names"`
				}{Names: names}
				return report.NewEnvelope("token list", data).WriteJSON(cmd.OutOrStdout())
			}
			if len(names) == 0 {
				fmt.Println(SubtitleStyle.Render("(no tokens stored)"))
				return nil
			}
			for _, name := range names {
				fmt.Println(name)
			}
			return nil
		},
	})

	tokenCmd.AddCommand(&cobra.Command{
		Use:   "remove <name>",
		Short: "Remove a stored token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openTokenStore()
			if err != nil {
				return err
			}
			if err := store.Delete(args[0]); err != nil {
				return err
			}
			if jsonOutput {
				return report.NewEnvelope("token remove", tokenName{Name: args[0]}).WriteJSON(cmd.OutOrStdout())
			}
			fmt.Printf("%s Removed token %s\n", SuccessStyle.Render("✓"), CmdStyle.Render(args[0]))
			return nil
		},
	})

	return tokenCmd
}

func openTokenStore() (*registry.TokenStore, error) {
	path, err := config.TokensFilePath()
	if err != nil {
		return nil, err
	}
	return registry.NewTokenStore(path), nil
}
