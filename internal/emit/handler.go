package emit

import (
	"bytes"
	"fmt"
	"go/format"
	"text/template"
)

// HandlerFile is the Go source that serves the UI page and the document.
const HandlerFile = "swagger_handler.go"

const handlerTemplate = `// Code generated by swagdoc. DO NOT EDIT.

package {{.Package}}

import (
	"embed"
	"net/http"
)

// SpecFile is the file the UI page loads the document from.
const SpecFile = {{printf "%q" .SpecFile}}

//go:embed{{range .Files}} {{.}}{{end}}
var assets embed.FS

// Handler serves index.html at its root together with the document files
// the page loads. Mount it on a path ending in a slash:
//
//	mux.Handle("/docs/", http.StripPrefix("/docs", {{.Package}}.Handler()))
func Handler() http.Handler {
	return http.FileServer(http.FS(assets))
}
`

type handlerData struct {
	Package  string
	SpecFile string
	Files    []string
}

// HandlerSource renders swagger_handler.go, which embeds files and serves
// them over net/http. files must include index.html.
func HandlerSource(pkg, specFile string, files []string) ([]byte, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("failed to render %s: no files to serve", HandlerFile)
	}
	tmpl, err := template.New("handler").Parse(handlerTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, handlerData{Package: pkg, SpecFile: specFile, Files: files}); err != nil {
		return nil, fmt.Errorf("failed to execute template: %w", err)
	}
	formatted, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("failed to format %s: %w", HandlerFile, err)
	}
	return formatted, nil
}
