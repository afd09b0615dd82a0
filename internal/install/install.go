// SPDX-License-Identifier: MPL-2.0

package install

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/powerforge/powerforge/internal/forge"
)

// AlreadyInstalledError is returned when the target version exists and
// Force is off.
type AlreadyInstalledError struct {
	ModuleName string
	Version    string
	Path       string
}

func (e *AlreadyInstalledError) Error() string {
	return fmt.Sprintf("%s %s is already installed at %s (use force to overwrite)",
		e.ModuleName, e.Version, e.Path)
}

// Options selects where the module lands.
type Options struct {
	// Scope picks the standard module path family. Ignored when
	// Destination is set.
	Scope forge.InstallScope
	// Destination overrides the module path entirely.
	Destination string
	// Force replaces an already installed version.
	Force bool
}

// ModulePath returns the standard PowerShell module path for a scope.
func ModulePath(scope forge.InstallScope) (string, error) {
	switch scope {
	case forge.ScopeAllUsers:
		if runtime.GOOS == "windows" {
			programFiles := os.Getenv("ProgramFiles")
			if programFiles == "" {
				programFiles = `C:\Program Files`
			}
			return filepath.Join(programFiles, "PowerShell", "Modules"), nil
		}
		return "/usr/local/share/powershell/Modules", nil

	case forge.ScopeCurrentUser, "":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to resolve home directory: %w", err)
		}
		if runtime.GOOS == "windows" {
			return filepath.Join(home, "Documents", "PowerShell", "Modules"), nil
		}
		return filepath.Join(home, ".local", "share", "powershell", "Modules"), nil

	default:
		return "", fmt.Errorf("unknown install scope %q", scope)
	}
}

// Install copies the staged payload into <root>/<name>/<version>,
// where root comes from the options. Returns the installed directory.
func Install(stageDir, moduleName, version string, opts Options) (string, error) {
	if moduleName == "" || version == "" {
		return "", errors.New("install needs a module name and version")
	}

	root := opts.Destination
	if root == "" {
		var err error
		root, err = ModulePath(opts.Scope)
		if err != nil {
			return "", err
		}
	}

	target := filepath.Join(root, moduleName, version)
	if _, err := os.Stat(target); err == nil {
		if !opts.Force {
			return "", &AlreadyInstalledError{ModuleName: moduleName, Version: version, Path: target}
		}
		if err := os.RemoveAll(target); err != nil {
			return "", fmt.Errorf("failed to remove installed version: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("failed to check install target: %w", err)
	}

	if err := copyTree(stageDir, target); err != nil {
		// Leave no partial install behind.
		os.RemoveAll(target)
		return "", err
	}
	return target, nil
}

func copyTree(src, dest string) error {
	return filepath.WalkDir(src, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, relErr := filepath.Rel(src, path)
		if relErr != nil {
			return fmt.Errorf("failed to get relative path: %w", relErr)
		}
		target := filepath.Join(dest, rel)

		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		if !d.Type().IsRegular() {
			return fmt.Errorf("%s is not a regular file", rel)
		}
		return copyFile(path, target)
	})
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", src, err)
	}

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}
	return out.Close()
}
