package app

import (
	"bufio"
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"path/filepath"

	"github.com/corey/featdex/internal/adapters/web"
	"github.com/corey/featdex/internal/domain/corpus"
)

// ExportResult lists the files an Export wrote.
type ExportResult struct {
	JSONPath string
	HTMLPath string
	Features int
}

// exportData is the features.json layout: versions keyed by number, features
// keyed by slug. A feature's version is its version number, null when
// unstable.
type exportData struct {
	Versions map[string]corpus.VersionView `json:"versions"`
	Features map[string]corpus.FeatureView `json:"features"`
}

// Export writes features.json and a static index.html of the stable
// features into dir.
func Export(c *corpus.Corpus, dir string) (ExportResult, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return ExportResult{}, fmt.Errorf("create export dir: %w", err)
	}

	res := ExportResult{
		JSONPath: filepath.Join(dir, "features.json"),
		HTMLPath: filepath.Join(dir, "index.html"),
		Features: c.Len(),
	}
	if err := writeFile(res.JSONPath, func(w *bufio.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(exportJSON(c))
	}); err != nil {
		return ExportResult{}, fmt.Errorf("write features.json: %w", err)
	}
	if err := writeFile(res.HTMLPath, func(w *bufio.Writer) error {
		return pageTemplate.Execute(w, exportPage(c))
	}); err != nil {
		return ExportResult{}, fmt.Errorf("write index.html: %w", err)
	}
	return res, nil
}

func exportJSON(c *corpus.Corpus) exportData {
	data := exportData{
		Versions: make(map[string]corpus.VersionView, len(c.Versions())),
		Features: make(map[string]corpus.FeatureView, c.Len()),
	}
	for i := range c.Versions() {
		v := &c.Versions()[i]
		data.Versions[v.Number] = corpus.ViewOfVersion(v)
	}
	for i := range c.Features() {
		f := &c.Features()[i]
		fv := corpus.ViewOf(f)
		fv.Slug = ""
		fv.Channel = ""
		data.Features[f.Slug] = fv
	}
	return data
}

// writeFile writes through a temp file and renames it into place.
func writeFile(path string, fill func(w *bufio.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	if err := fill(w); err != nil {
		tmp.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

type pageVersion struct {
	Number      string
	ReleaseDate string
	Features    []pageFeature
}

type pageFeature struct {
	Slug  string
	Title template.HTML
	Flag  template.HTML
	Items []template.HTML
}

// exportPage groups the stable features by version, newest first.
func exportPage(c *corpus.Corpus) []pageVersion {
	var out []pageVersion
	cur := c.Explore(corpus.Stable)
	for f, ok := cur.Next(); ok; f, ok = cur.Next() {
		if len(out) == 0 || out[len(out)-1].Number != f.Version.Number {
			out = append(out, pageVersion{Number: f.Version.Number, ReleaseDate: f.Version.ReleaseDate})
		}
		pf := pageFeature{Slug: f.Slug, Title: web.RenderMarkup(f.Title, nil)}
		if f.Flag != "" {
			pf.Flag = web.RenderCode(f.Flag, nil)
		}
		for _, item := range f.Items {
			pf.Items = append(pf.Items, web.RenderCode(item, nil))
		}
		pv := &out[len(out)-1]
		pv.Features = append(pv.Features, pf)
	}
	return out
}

var pageTemplate = template.Must(template.New("index.html").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>featdex: stable features</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 52rem; margin: 2rem auto; padding: 0 1rem; }
code { background: #f3f3f3; padding: 0 .2rem; border-radius: 3px; }
.feature { padding: .4rem 0; }
.items code { margin-right: .5rem; }
</style>
</head>
<body>
<h1>Stable features</h1>
{{- range .}}
<section id="{{.Number}}">
<h2>{{.Number}}{{with .ReleaseDate}} <small>{{.}}</small>{{end}}</h2>
{{- range .Features}}
<div class="feature" id="{{.Slug}}">{{.Title}}{{with .Flag}} &middot; {{.}}{{end}}
{{- if .Items}}<div class="items">{{range .Items}}{{.}} {{end}}</div>{{end}}</div>
{{- end}}
</section>
{{- end}}
</body>
</html>
`))
