// SPDX-License-Identifier: MPL-2.0

package dotnet

import (
	"path/filepath"

	"github.com/powerforge/powerforge/internal/execx"
)

// CLI builds invocations of the resolved .NET SDK executable. It only
// assembles argument lists; execution and error mapping stay in execx.
type CLI struct {
	Tool *execx.Tool
}

// New wraps a resolved dotnet tool.
func New(tool *execx.Tool) *CLI {
	return &CLI{Tool: tool}
}

// Build compiles a project or solution. An empty output keeps the SDK's
// default output path.
func (c *CLI) Build(project, configuration, output, dir string) *execx.Invocation {
	args := []string{"build", project, "--configuration", configuration, "--nologo"}
	if output != "" {
		args = append(args, "--output", output)
	}
	return &execx.Invocation{Tool: c.Tool, Args: args, Dir: dir}
}

// Test runs the project's test suite.
func (c *CLI) Test(project, configuration, dir string) *execx.Invocation {
	args := []string{"test", project, "--configuration", configuration, "--nologo"}
	return &execx.Invocation{Tool: c.Tool, Args: args, Dir: dir}
}

// Pack produces a NuGet package for the project.
func (c *CLI) Pack(project, configuration, output, dir string) *execx.Invocation {
	args := []string{"pack", project, "--configuration", configuration, "--nologo"}
	if output != "" {
		args = append(args, "--output", output)
	}
	return &execx.Invocation{Tool: c.Tool, Args: args, Dir: dir}
}

// Publish publishes a project for one runtime identifier into
// <outputRoot>/<rid>.
func (c *CLI) Publish(project, configuration, rid, outputRoot string, selfContained bool, dir string) *execx.Invocation {
	args := []string{
		"publish", project,
		"--configuration", configuration,
		"--runtime", rid,
		"--output", filepath.Join(outputRoot, rid),
		"--nologo",
	}
	if selfContained {
		args = append(args, "--self-contained", "true")
	} else {
		args = append(args, "--self-contained", "false")
	}
	return &execx.Invocation{Tool: c.Tool, Args: args, Dir: dir}
}

// NugetPush pushes a package to a NuGet feed. The API key is omitted when
// empty (some feeds authenticate out of band).
func (c *CLI) NugetPush(packagePath, source, apiKey, dir string) *execx.Invocation {
	args := []string{"nuget", "push", packagePath, "--source", source}
	if apiKey != "" {
		args = append(args, "--api-key", apiKey)
	}
	return &execx.Invocation{Tool: c.Tool, Args: args, Dir: dir}
}
