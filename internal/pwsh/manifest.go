// SPDX-License-Identifier: MPL-2.0

package pwsh

import (
	"context"
	"fmt"
)

// ManifestInfo is the metadata Test-ModuleManifest reports for a valid
// module manifest.
type ManifestInfo struct {
	Name              string   `json:"Name"`
	Version           string   `json:"Version"`
	GUID              string   `json:"Guid"`
	Author            string   `json:"Author"`
	Description       string   `json:"Description"`
	ExportedFunctions []string `json:"ExportedFunctions"`
	ExportedCmdlets   []string `json:"ExportedCmdlets"`
	ExportedAliases   []string `json:"ExportedAliases"`
}

// TestManifest validates a .psd1 manifest via Test-ModuleManifest and
// returns its metadata. An invalid manifest surfaces as a ScriptError
// carrying PowerShell's own diagnostics.
func (s *Shell) TestManifest(ctx context.Context, manifestPath string) (*ManifestInfo, error) {
	script := fmt.Sprintf(`$m = Test-ModuleManifest -Path %s -ErrorAction Stop
[pscustomobject]@{
  Name = $m.Name
  Version = $m.Version.ToString()
  Guid = $m.Guid.ToString()
  Author = $m.Author
  Description = $m.Description
  ExportedFunctions = @($m.ExportedFunctions.Keys)
  ExportedCmdlets = @($m.ExportedCmdlets.Keys)
  ExportedAliases = @($m.ExportedAliases.Keys)
}`, Quote(manifestPath))

	var info ManifestInfo
	if err := s.RunJSON(ctx, script, "", &info); err != nil {
		return nil, fmt.Errorf("manifest validation failed for %s: %w", manifestPath, err)
	}
	return &info, nil
}
