package emit

import (
	"bytes"
	"fmt"
	"go/format"
	"strings"
	"text/template"

	"github.com/example/swagdoc/internal/openapi"
)

const docsTemplate = `// Code generated by swagdoc. DO NOT EDIT.

package {{.Package}}

// Info describes the embedded document.
type Info struct {
	Version     string
	Title       string
	Description string
	Servers     []string
	OpenAPI     string
}

// SwaggerInfo holds the exported metadata of the embedded document.
var SwaggerInfo = &Info{
	Version:     {{printf "%q" .Version}},
	Title:       {{printf "%q" .Title}},
	Description: {{printf "%q" .Description}},
	Servers:     []string{ {{- range .Servers}}{{printf "%q" .}}, {{end -}} },
	OpenAPI:     {{printf "%q" .OpenAPI}},
}

const docTemplate = ` + "`{{.Doc}}`" + `

// ReadDoc returns the OpenAPI document as JSON.
func ReadDoc() string {
	return docTemplate
}
`

type docsData struct {
	Package     string
	Version     string
	Title       string
	Description string
	Servers     []string
	OpenAPI     string
	Doc         string
}

// GoSource renders docs.go: the JSON document in a constant plus an Info
// value describing it.
func GoSource(doc *openapi.Document, jsonData []byte, pkg string) ([]byte, error) {
	data := docsData{
		Package:     pkg,
		Version:     doc.Info.Version,
		Title:       doc.Info.Title,
		Description: doc.Info.Description,
		OpenAPI:     doc.OpenAPI,
		Doc:         rawString(strings.TrimRight(string(jsonData), "\n")),
	}
	for _, s := range doc.Servers {
		data.Servers = append(data.Servers, s.URL)
	}

	tmpl, err := template.New("docs").Parse(docsTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to execute template: %w", err)
	}
	formatted, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("failed to format docs.go: %w", err)
	}
	return formatted, nil
}

// rawString makes s safe inside a raw string literal by splicing any
// backquote in as an interpreted literal.
func rawString(s string) string {
	return strings.ReplaceAll(s, "`", "` + \"`\" + `")
}
