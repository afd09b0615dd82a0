// SPDX-License-Identifier: MPL-2.0

package docs

import (
	"fmt"
	"html/template"
	"os"
	"path/filepath"
)

// HTMLFileName is the single-page HTML export.
const HTMLFileName = "index.html"

var htmlTemplate = template.Must(template.New("docs").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.ModuleName}}{{if .Version}} {{.Version}}{{end}}</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 60rem; margin: 2rem auto; padding: 0 1rem; color: #1f2937; }
pre { background: #f3f4f6; padding: 0.75rem; overflow-x: auto; border-radius: 4px; }
code { font-family: ui-monospace, monospace; }
h2 { border-bottom: 1px solid #e5e7eb; padding-bottom: 0.25rem; }
.required { color: #b91c1c; font-size: 0.85em; }
</style>
</head>
<body>
<h1>{{.ModuleName}}{{if .Version}} <small>{{.Version}}</small>{{end}}</h1>
{{range .Commands}}
<h2 id="{{.Name}}">{{.Name}}</h2>
{{if .Synopsis}}<p>{{.Synopsis}}</p>{{end}}
{{if .Syntax}}<pre><code>{{.Syntax}}</code></pre>{{end}}
{{if .Description}}<p>{{.Description}}</p>{{end}}
{{if .Parameters}}
<h3>Parameters</h3>
<dl>
{{range .Parameters}}
<dt><code>-{{.Name}}</code>{{if .Required}} <span class="required">required</span>{{end}}</dt>
<dd>{{.Description}}</dd>
{{end}}
</dl>
{{end}}
{{range .Examples}}
{{if .Code}}<pre><code>{{.Code}}</code></pre>{{end}}
{{if .Remarks}}<p>{{.Remarks}}</p>{{end}}
{{end}}
{{end}}
</body>
</html>
`))

// WriteHTML writes the single-page HTML export into outDir and returns
// its path. Command content is escaped by html/template, so untrusted
// help text cannot inject markup.
func WriteHTML(docs ModuleDocs, outDir string) (string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create docs directory: %w", err)
	}

	path := filepath.Join(outDir, HTMLFileName)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create HTML export: %w", err)
	}
	defer f.Close()

	if err := htmlTemplate.Execute(f, docs); err != nil {
		return "", fmt.Errorf("failed to render HTML export: %w", err)
	}
	return path, nil
}
