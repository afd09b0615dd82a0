// SPDX-License-Identifier: MPL-2.0

package pack

import (
	"archive/zip"
	"fmt"
	"os"
	"path/filepath"
)

// Archive zips a staged payload into <outputDir>/<name>-<version>.zip.
// Entries sit under a <name>/ root so the archive expands into a proper
// module directory.
func Archive(stageDir, outputDir, moduleName, version string) (archivePath string, err error) {
	archivePath = filepath.Join(outputDir, fmt.Sprintf("%s-%s.zip", moduleName, version))

	zipFile, err := os.Create(archivePath)
	if err != nil {
		return "", fmt.Errorf("failed to create ZIP file: %w", err)
	}
	defer func() {
		if closeErr := zipFile.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	zipWriter := zip.NewWriter(zipFile)
	defer func() {
		if closeErr := zipWriter.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	if walkErr := addTree(zipWriter, stageDir, moduleName); walkErr != nil {
		zipWriter.Close()
		zipFile.Close()
		os.Remove(archivePath)
		return "", walkErr
	}

	return archivePath, nil
}

// addTree writes every file under root into the ZIP beneath prefix.
func addTree(zipWriter *zip.Writer, root, prefix string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return fmt.Errorf("failed to get relative path: %w", relErr)
		}

		zipPath := filepath.ToSlash(filepath.Join(prefix, rel))

		if d.IsDir() {
			if rel != "." {
				if _, createErr := zipWriter.Create(zipPath + "/"); createErr != nil {
					return fmt.Errorf("failed to create directory entry: %w", createErr)
				}
			}
			return nil
		}

		info, infoErr := d.Info()
		if infoErr != nil {
			return fmt.Errorf("failed to get file info: %w", infoErr)
		}

		header, headerErr := zip.FileInfoHeader(info)
		if headerErr != nil {
			return fmt.Errorf("failed to create file header: %w", headerErr)
		}
		header.Name = zipPath
		header.Method = zip.Deflate

		writer, writerErr := zipWriter.CreateHeader(header)
		if writerErr != nil {
			return fmt.Errorf("failed to create ZIP entry: %w", writerErr)
		}

		data, readErr := os.ReadFile(path)
		if readErr != nil {
			return fmt.Errorf("failed to read file %s: %w", path, readErr)
		}
		if _, writeErr := writer.Write(data); writeErr != nil {
			return fmt.Errorf("failed to write file data: %w", writeErr)
		}
		return nil
	})
}
