// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/powerforge/powerforge/internal/config"
	"github.com/powerforge/powerforge/internal/issue"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"

	// verbose enables verbose output
	verbose bool
	// cfgFile allows specifying a custom config file
	cfgFile string
	// jsonOutput switches every command to the machine-readable envelope
	jsonOutput bool
	// noColor disables styled terminal output
	noColor bool

	// logger is the shared structured logger. Level follows --verbose.
	logger = log.New(os.Stderr)

	// rootCmd represents the base command when called without any subcommands
	rootCmd = &cobra.Command{
		Use:   "powerforge",
		Short: "Build, package, sign, and publish PowerShell modules",
		Long: TitleStyle.Render("powerforge") + SubtitleStyle.Render(" - PowerShell module pipeline") + `

powerforge orchestrates building, testing, documenting, packaging,
signing, and publishing PowerShell modules and their companion .NET
projects. The pipeline is described declaratively in a 'forge.json'
file and executed as an ordered sequence of steps.

` + SubtitleStyle.Render("Quick Start:") + `
  1. Create a forge.json in your module directory
  2. Describe the module and the segments you need
  3. Run the pipeline with: powerforge run

` + SubtitleStyle.Render("Examples:") + `
  powerforge run                 Run the full pipeline
  powerforge plan                Show the ordered plan without running
  powerforge pack                Stage and archive the module
  powerforge publish --resume    Retry a failed run from where it stopped
  powerforge init                Create a new forge.json`,
	}
)

func init() {
	cobra.OnInitialize(initRootConfig)

	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/powerforge/config.cue)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "emit machine-readable JSON output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable styled output")

	// Add subcommands
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(newConfigCommand())
	rootCmd.AddCommand(newTokenCommand())
	rootCmd.AddCommand(newCompletionCommand())
	addSegmentCommands(rootCmd)
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	// Use fang.Execute for enhanced Cobra styling
	// Pass version via fang.WithVersion() since fang overrides rootCmd.Version
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(int(exitErr.Code))
		}
		os.Exit(1)
	}
}

// initRootConfig reads in config file and ENV variables if set.
func initRootConfig() {
	if cfgFile != "" {
		config.SetConfigFilePathOverride(cfgFile)
	}

	cfg, err := config.Load()
	if err != nil {
		// Config loading errors never abort the run; defaults apply.
		fmt.Fprintln(os.Stderr, WarningStyle.Render("Warning: ")+formatErrorForDisplay(err, verbose))
	}

	// Apply verbose from config if not set via flag
	if cfg != nil && !verbose {
		verbose = cfg.UI.Verbose
	}

	if verbose {
		logger.SetLevel(log.DebugLevel)
	}
	if noColor {
		// lipgloss and termenv both honor NO_COLOR.
		os.Setenv("NO_COLOR", "1")
	}
}

// loadConfig returns the user configuration, falling back to defaults
// when loading fails (the warning was already printed at init).
func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil || cfg == nil {
		return config.DefaultConfig()
	}
	return cfg
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}
