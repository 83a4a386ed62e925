package notifier

import (
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"time"
)

// PageData fills the static download page published next to a release.
type PageData struct {
	Title     string
	Base      string
	Version   string
	Tunnel    string
	Artifacts []Artifact
	Generated time.Time
}

// Artifact is one downloadable image on the page.
type Artifact struct {
	Name string
	URL  string
	Size string
}

var pageTemplate = template.Must(template.New("page").Funcs(template.FuncMap{
	"anySize": func(artifacts []Artifact) bool {
		for _, a := range artifacts {
			if a.Size != "" {
				return true
			}
		}
		return false
	},
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; max-width: 720px; margin: 2rem auto; padding: 0 1rem; }
h1 { font-size: 1.4rem; }
table { border-collapse: collapse; width: 100%; }
td, th { border: 1px solid #ccc; padding: .5rem; text-align: left; }
a { color: #0a58ca; }
footer { margin-top: 2rem; color: #666; font-size: .85rem; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<p>Base: <strong>{{.Base}}</strong> &middot; Version: <strong>{{.Version}}</strong>{{if .Tunnel}} &middot; Tunnel: <strong>{{.Tunnel}}</strong>{{end}}</p>
<table>
<tr><th>Image</th>{{if anySize .Artifacts}}<th>Size</th>{{end}}</tr>
{{- range .Artifacts}}
<tr><td><a href="{{.URL}}">{{.Name}}</a></td>{{if anySize $.Artifacts}}<td>{{.Size}}</td>{{end}}</tr>
{{- end}}
</table>
<footer>Generated {{.Generated.Format "2006-01-02 15:04 MST"}}</footer>
</body>
</html>
`))

// WritePage renders the download page to path, creating parent directories.
func WritePage(path string, data PageData) error {
	if data.Generated.IsZero() {
		data.Generated = time.Now()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating page directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating page file: %w", err)
	}
	if err := pageTemplate.Execute(f, data); err != nil {
		f.Close()
		return fmt.Errorf("rendering page: %w", err)
	}
	return f.Close()
}
