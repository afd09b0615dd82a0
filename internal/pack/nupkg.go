// SPDX-License-Identifier: MPL-2.0

package pack

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
)

type (
	// NuspecMeta is the package metadata embedded in the generated
	// .nuspec manifest.
	NuspecMeta struct {
		ID          string
		Version     string
		Authors     string
		Description string
		Tags        string
	}

	nuspecPackage struct {
		XMLName  xml.Name       `xml:"package"`
		Xmlns    string         `xml:"xmlns,attr"`
		Metadata nuspecMetadata `xml:"metadata"`
	}

	nuspecMetadata struct {
		ID          string `xml:"id"`
		Version     string `xml:"version"`
		Authors     string `xml:"authors"`
		Description string `xml:"description"`
		Tags        string `xml:"tags"`
	}
)

const nuspecXmlns = "http://schemas.microsoft.com/packaging/2011/08/nuspec.xsd"

// renderNuspec produces the .nuspec manifest XML. PSModule tagging marks
// the package as a PowerShell module for gallery feeds.
func renderNuspec(meta NuspecMeta) ([]byte, error) {
	if meta.Authors == "" {
		meta.Authors = "unknown"
	}
	if meta.Description == "" {
		meta.Description = meta.ID + " PowerShell module"
	}
	if meta.Tags == "" {
		meta.Tags = "PSModule"
	}

	doc := nuspecPackage{
		Xmlns: nuspecXmlns,
		Metadata: nuspecMetadata{
			ID:          meta.ID,
			Version:     meta.Version,
			Authors:     meta.Authors,
			Description: meta.Description,
			Tags:        meta.Tags,
		},
	}
	body, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to render nuspec: %w", err)
	}
	return append([]byte(xml.Header), body...), nil
}

// WriteNupkg packs the staged payload into a NuGet package at
// <outputDir>/<id>.<version>.nupkg: the generated .nuspec at the package
// root with the payload files beside it, the layout gallery feeds expect
// for module packages.
func WriteNupkg(stageDir, outputDir string, meta NuspecMeta) (nupkgPath string, err error) {
	if meta.ID == "" || meta.Version == "" {
		return "", fmt.Errorf("%w: nupkg needs an id and a version", ErrInvalidPayload)
	}

	nuspec, err := renderNuspec(meta)
	if err != nil {
		return "", err
	}

	nupkgPath = filepath.Join(outputDir, fmt.Sprintf("%s.%s.nupkg", meta.ID, meta.Version))
	f, err := os.Create(nupkgPath)
	if err != nil {
		return "", fmt.Errorf("failed to create nupkg: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	zipWriter := zip.NewWriter(f)
	defer func() {
		if closeErr := zipWriter.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	nuspecEntry, err := zipWriter.Create(meta.ID + ".nuspec")
	if err != nil {
		return "", fmt.Errorf("failed to create nuspec entry: %w", err)
	}
	if _, err := nuspecEntry.Write(nuspec); err != nil {
		return "", fmt.Errorf("failed to write nuspec entry: %w", err)
	}

	if walkErr := addTree(zipWriter, stageDir, ""); walkErr != nil {
		zipWriter.Close()
		f.Close()
		os.Remove(nupkgPath)
		return "", walkErr
	}

	return nupkgPath, nil
}
