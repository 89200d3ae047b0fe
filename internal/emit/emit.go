// Package emit serializes a finished document to the output formats and
// writes them, splitting large documents into chunks when asked to.
package emit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/example/swagdoc/internal/openapi"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Output types accepted by Options.Types.
const (
	TypeGo   = "go"
	TypeJSON = "json"
	TypeYAML = "yaml"
	TypeUI   = "ui"
)

// AllTypes is the default output selection.
var AllTypes = []string{TypeGo, TypeJSON, TypeYAML, TypeUI}

// Options controls what Write produces.
type Options struct {
	OutputDir string
	Types     []string
	// MaxChunkSize is the JSON size in bytes above which the document is
	// split; zero disables splitting.
	MaxChunkSize int64
	PackageName  string
}

// Writer renders and writes the output files.
type Writer struct {
	opts Options
	log  logrus.FieldLogger
}

// NewWriter creates a writer. Unknown output types are rejected.
func NewWriter(opts Options, log logrus.FieldLogger) (*Writer, error) {
	if len(opts.Types) == 0 {
		opts.Types = AllTypes
	}
	for _, t := range opts.Types {
		switch t {
		case TypeGo, TypeJSON, TypeYAML, TypeUI:
		default:
			return nil, fmt.Errorf("unknown output type %q (use %s)", t, strings.Join(AllTypes, ","))
		}
	}
	if opts.PackageName == "" {
		opts.PackageName = filepath.Base(filepath.Clean(opts.OutputDir))
		if !isIdentifier(opts.PackageName) {
			opts.PackageName = "docs"
		}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Writer{opts: opts, log: log}, nil
}

func (w *Writer) wants(t string) bool {
	for _, have := range w.opts.Types {
		if have == t {
			return true
		}
	}
	return false
}

// Write renders every selected output in memory first, then writes the
// files. It returns the written paths in write order.
func (w *Writer) Write(doc *openapi.Document) ([]string, error) {
	files, err := w.render(doc)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(w.opts.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	written := make([]string, 0, len(files))
	for _, f := range files {
		path := filepath.Join(w.opts.OutputDir, f.name)
		if err := os.WriteFile(path, f.data, 0o644); err != nil {
			return written, fmt.Errorf("failed to write %s: %w", path, err)
		}
		w.log.WithFields(logrus.Fields{"file": path, "bytes": len(f.data)}).Debug("wrote output")
		written = append(written, path)
	}
	return written, nil
}

type outputFile struct {
	name string
	data []byte
}

func (w *Writer) render(doc *openapi.Document) ([]outputFile, error) {
	var files []outputFile
	jsonData, err := JSON(doc)
	if err != nil {
		return nil, err
	}

	// The UI page needs a document to load even when only ui is selected.
	chunked := false
	if w.wants(TypeJSON) || (w.wants(TypeUI) && !w.wants(TypeYAML)) {
		if w.opts.MaxChunkSize > 0 && int64(len(jsonData)) > w.opts.MaxChunkSize {
			chunks, manifest, err := Split(doc, w.opts.MaxChunkSize)
			if err != nil {
				return nil, err
			}
			for _, c := range chunks {
				files = append(files, outputFile{name: c.File, data: c.Data})
			}
			data, err := encodeJSON(manifest)
			if err != nil {
				return nil, err
			}
			files = append(files, outputFile{name: ManifestFile, data: data})
			chunked = true
			w.log.WithFields(logrus.Fields{"chunks": len(chunks), "bytes": len(jsonData)}).Info("document split into chunks")
		} else {
			files = append(files, outputFile{name: "openapi.json", data: jsonData})
		}
	}
	if w.wants(TypeYAML) {
		data, err := YAML(doc)
		if err != nil {
			return nil, err
		}
		files = append(files, outputFile{name: "openapi.yaml", data: data})
	}
	if w.wants(TypeGo) {
		data, err := GoSource(doc, jsonData, w.opts.PackageName)
		if err != nil {
			return nil, err
		}
		files = append(files, outputFile{name: "docs.go", data: data})
	}
	if w.wants(TypeUI) {
		specURL := "openapi.json"
		switch {
		case chunked:
			specURL = ManifestFile
		case !w.wants(TypeJSON) && w.wants(TypeYAML):
			specURL = "openapi.yaml"
		}
		files = append(files, outputFile{name: "index.html", data: SwaggerUI(doc.Info.Title, specURL, chunked)})

		var served []string
		for _, f := range files {
			if !strings.HasSuffix(f.name, ".go") {
				served = append(served, f.name)
			}
		}
		data, err := HandlerSource(w.opts.PackageName, specURL, served)
		if err != nil {
			return nil, err
		}
		files = append(files, outputFile{name: HandlerFile, data: data})
	}
	return files, nil
}

// JSON encodes doc with two-space indentation.
func JSON(doc *openapi.Document) ([]byte, error) {
	return encodeJSON(doc)
}

func encodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(v); err != nil {
		return nil, fmt.Errorf("failed to encode JSON: %w", err)
	}
	return buf.Bytes(), nil
}

// YAML encodes doc with two-space indentation.
func YAML(doc *openapi.Document) ([]byte, error) {
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(doc); err != nil {
		return nil, fmt.Errorf("failed to encode YAML: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode YAML: %w", err)
	}
	return buf.Bytes(), nil
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, c := range s {
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case i > 0 && c >= '0' && c <= '9':
		default:
			return false
		}
	}
	return true
}
