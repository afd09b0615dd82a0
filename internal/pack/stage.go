// SPDX-License-Identifier: MPL-2.0

package pack

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrInvalidPayload is the sentinel error wrapped by payload validation
// failures.
var ErrInvalidPayload = errors.New("invalid module payload")

// StageOptions describes one staging run.
type StageOptions struct {
	// ModuleName and Version form the staged layout
	// <OutputDir>/<ModuleName>/<Version>.
	ModuleName string
	Version    string
	// SourceDir is the module source directory to copy.
	SourceDir string
	// OutputDir is the package output root.
	OutputDir string
	// Exclude lists glob patterns (matched against slash-separated
	// relative paths and against base names) omitted from the payload.
	Exclude []string
}

// Stage copies the module payload into the versioned layout PowerShell
// expects for installed modules, replacing any previous staging of the
// same version. Returns the staged directory.
func Stage(opts StageOptions) (string, error) {
	if opts.ModuleName == "" {
		return "", fmt.Errorf("%w: module name is empty", ErrInvalidPayload)
	}
	if opts.Version == "" {
		return "", fmt.Errorf("%w: module version is empty", ErrInvalidPayload)
	}

	stageDir := filepath.Join(opts.OutputDir, opts.ModuleName, opts.Version)
	if err := os.RemoveAll(stageDir); err != nil {
		return "", fmt.Errorf("failed to clean staging directory: %w", err)
	}
	if err := os.MkdirAll(stageDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create staging directory: %w", err)
	}

	err := filepath.WalkDir(opts.SourceDir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, relErr := filepath.Rel(opts.SourceDir, path)
		if relErr != nil {
			return fmt.Errorf("failed to get relative path: %w", relErr)
		}
		if rel == "." {
			return nil
		}
		if excluded(rel, opts.Exclude) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		dest := filepath.Join(stageDir, rel)
		if d.IsDir() {
			return os.MkdirAll(dest, 0o755)
		}
		if !d.Type().IsRegular() {
			// Symlinks and other special files never land in a payload.
			return fmt.Errorf("%w: %s is not a regular file", ErrInvalidPayload, rel)
		}
		return copyFile(path, dest)
	})
	if err != nil {
		return "", err
	}

	return stageDir, nil
}

// excluded reports whether a relative path matches any exclude pattern.
func excluded(rel string, patterns []string) bool {
	slashRel := filepath.ToSlash(rel)
	base := filepath.Base(rel)
	for _, pattern := range patterns {
		if ok, _ := filepath.Match(pattern, slashRel); ok {
			return true
		}
		if ok, _ := filepath.Match(pattern, base); ok {
			return true
		}
	}
	return false
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

// ValidateStaged checks a staged payload before it becomes an artefact:
// the manifest must sit at the payload root, and the payload must not
// contain a nested staging of itself (a <name>/<version> tree inside the
// payload points at a wrong source directory).
func ValidateStaged(stageDir, manifestFile, moduleName, version string) error {
	manifest := filepath.Join(stageDir, manifestFile)
	if _, err := os.Stat(manifest); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: manifest %s missing from payload root", ErrInvalidPayload, manifestFile)
		}
		return fmt.Errorf("failed to check staged manifest: %w", err)
	}

	nested := filepath.Join(stageDir, moduleName, version)
	if info, err := os.Stat(nested); err == nil && info.IsDir() {
		return fmt.Errorf("%w: payload contains a nested %s staging", ErrInvalidPayload,
			filepath.Join(moduleName, version))
	}

	return filepath.WalkDir(stageDir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, relErr := filepath.Rel(stageDir, path)
		if relErr != nil {
			return relErr
		}
		if strings.HasPrefix(rel, "..") {
			return fmt.Errorf("%w: path %s escapes the payload", ErrInvalidPayload, rel)
		}
		if !d.IsDir() && !d.Type().IsRegular() {
			return fmt.Errorf("%w: %s is not a regular file", ErrInvalidPayload, rel)
		}
		return nil
	})
}
