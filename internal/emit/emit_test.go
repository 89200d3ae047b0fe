package emit

import (
	"encoding/json"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/example/swagdoc/internal/openapi"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func sampleDoc(paths, schemas int) *openapi.Document {
	doc := &openapi.Document{
		OpenAPI: openapi.DefaultVersion,
		Info:    openapi.Info{Title: "Pets `API`", Version: "1.0", Description: "Pet <store>"},
		Servers: []openapi.Server{{URL: "https://api.example.com/v1"}},
		Paths:   make(map[string]*openapi.PathItem),
		Components: &openapi.Components{
			Schemas: make(map[string]*openapi.Schema),
			SecuritySchemes: map[string]*openapi.SecurityScheme{
				"ApiKey": {Type: "apiKey", In: "header", Name: "X-Key"},
			},
		},
	}
	for i := 0; i < schemas; i++ {
		name := fmt.Sprintf("models.Pet%d", i)
		doc.Components.Schemas[name] = &openapi.Schema{
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"name": {Type: "string", Description: strings.Repeat("x", 200)},
			},
		}
	}
	for i := 0; i < paths; i++ {
		doc.Paths[fmt.Sprintf("/pets/%d", i)] = &openapi.PathItem{
			Get: &openapi.Operation{
				Summary: strings.Repeat("y", 200),
				Responses: map[string]*openapi.Response{
					"200": {Description: "OK", Content: map[string]*openapi.MediaType{
						"application/json": {Schema: openapi.RefTo(fmt.Sprintf("models.Pet%d", i%max(schemas, 1)))},
					}},
				},
			},
		}
	}
	return doc
}

func TestJSONAndYAML(t *testing.T) {
	doc := sampleDoc(2, 2)

	data, err := JSON(doc)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "{\n  \"openapi\": \"3.1.1\""))
	assert.Contains(t, string(data), "Pet <store>")

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Len(t, decoded["paths"], 2)

	y, err := YAML(doc)
	require.NoError(t, err)
	var fromYAML map[string]any
	require.NoError(t, yaml.Unmarshal(y, &fromYAML))
	assert.Equal(t, "3.1.1", fromYAML["openapi"])
	assert.Contains(t, string(y), "\n  title: Pets `API`\n")
}

func TestGoSource(t *testing.T) {
	doc := sampleDoc(1, 1)
	data, err := JSON(doc)
	require.NoError(t, err)

	src, err := GoSource(doc, data, "docs")
	require.NoError(t, err)
	out := string(src)

	assert.Contains(t, out, "package docs")
	assert.Contains(t, out, `Title:       "Pets `+"`API`"+`"`)
	assert.Contains(t, out, `Servers:     []string{"https://api.example.com/v1"}`)
	assert.Contains(t, out, "\"title\": \"Pets ` + \"`\" + `API` + \"`\" + `\"")
	assert.Contains(t, out, "func ReadDoc() string")
}

func TestSwaggerUI(t *testing.T) {
	t.Run("single document", func(t *testing.T) {
		page := string(SwaggerUI("Pets & Co", "openapi.json", false))
		assert.Contains(t, page, "<title>Pets &amp; Co</title>")
		assert.Contains(t, page, `url: "openapi.json"`)
		assert.NotContains(t, page, "loadChunked")
	})

	t.Run("chunked", func(t *testing.T) {
		page := string(SwaggerUI("", ManifestFile, true))
		assert.Contains(t, page, "<title>API Documentation</title>")
		assert.Contains(t, page, `loadChunked("openapi.manifest.json")`)
	})
}

func TestHandlerSource(t *testing.T) {
	src, err := HandlerSource("docs", "openapi.json", []string{"openapi.json", "index.html"})
	require.NoError(t, err)

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, HandlerFile, src, parser.ParseComments)
	require.NoError(t, err)
	assert.Equal(t, "docs", file.Name.Name)

	var imports []string
	for _, imp := range file.Imports {
		imports = append(imports, imp.Path.Value)
	}
	assert.Equal(t, []string{`"embed"`, `"net/http"`}, imports)

	var funcs []string
	for _, decl := range file.Decls {
		if fn, ok := decl.(*ast.FuncDecl); ok {
			funcs = append(funcs, fn.Name.Name)
		}
	}
	assert.Equal(t, []string{"Handler"}, funcs)
	assert.Contains(t, string(src), "//go:embed openapi.json index.html\nvar assets embed.FS")

	_, err = HandlerSource("docs", "openapi.json", nil)
	require.Error(t, err)
}

func TestSplitAndMerge(t *testing.T) {
	doc := sampleDoc(12, 8)
	full, err := JSON(doc)
	require.NoError(t, err)

	chunks, manifest, err := Split(doc, 2048)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 2)
	require.Len(t, manifest.Chunks, len(chunks))

	files := make(map[string][]byte)
	seenPaths, seenSchemas := 0, 0
	for i, c := range chunks {
		assert.Equal(t, ChunkFile(i+1), c.File)
		assert.Equal(t, len(c.Data), manifest.Chunks[i].Size)
		seenPaths += len(manifest.Chunks[i].Paths)
		seenSchemas += len(manifest.Chunks[i].Schemas)
		files[c.File] = c.Data
	}
	assert.Equal(t, 12, seenPaths)
	assert.Equal(t, 8, seenSchemas)
	assert.Equal(t, "openapi.1.json", manifest.Chunks[0].File)
	assert.Contains(t, string(chunks[0].Data), `"securitySchemes"`)
	assert.NotContains(t, string(chunks[1].Data), `"securitySchemes"`)

	c, ok := manifest.Find("/pets/3", "")
	require.True(t, ok)
	assert.Contains(t, string(files[c.File]), `"/pets/3"`)
	c, ok = manifest.Find("", "models.Pet7")
	require.True(t, ok)
	assert.Contains(t, string(files[c.File]), `"models.Pet7"`)
	_, ok = manifest.Find("/nope", "")
	assert.False(t, ok)

	merged, err := Merge(manifest, func(file string) ([]byte, error) {
		data, ok := files[file]
		if !ok {
			return nil, os.ErrNotExist
		}
		return data, nil
	})
	require.NoError(t, err)
	again, err := JSON(merged)
	require.NoError(t, err)
	assert.Equal(t, string(full), string(again))
}

func TestSplitOversizedItem(t *testing.T) {
	doc := sampleDoc(3, 1)
	chunks, manifest, err := Split(doc, 64)
	require.NoError(t, err)
	// base chunk holds the first item; every other item gets its own chunk
	assert.Len(t, chunks, 4)
	for _, c := range manifest.Chunks {
		assert.Equal(t, 1, len(c.Paths)+len(c.Schemas))
	}
}

func TestSplitRespectsLimit(t *testing.T) {
	doc := sampleDoc(40, 40)
	for _, limit := range []int64{1024, 2048, 4096, 8192} {
		t.Run(fmt.Sprint(limit), func(t *testing.T) {
			chunks, manifest, err := Split(doc, limit)
			require.NoError(t, err)
			total := 0
			for i, c := range chunks {
				entry := manifest.Chunks[i]
				items := len(entry.Paths) + len(entry.Schemas)
				total += items
				if items > 1 {
					assert.LessOrEqual(t, int64(len(c.Data)), limit, "%s holds %d items", c.File, items)
				}
			}
			assert.Equal(t, 80, total)
		})
	}
}

func TestMergeErrors(t *testing.T) {
	doc := sampleDoc(4, 2)
	chunks, manifest, err := Split(doc, 1024)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)
	files := make(map[string][]byte)
	for _, c := range chunks {
		files[c.File] = c.Data
	}
	load := func(file string) ([]byte, error) {
		if data, ok := files[file]; ok {
			return data, nil
		}
		return nil, os.ErrNotExist
	}

	tests := []struct {
		name    string
		mutate  func(m *Manifest)
		wantErr string
	}{
		{
			name:    "missing chunk file",
			mutate:  func(m *Manifest) { m.Chunks[1].File = "openapi.99.json" },
			wantErr: "failed to read chunk openapi.99.json",
		},
		{
			name:    "missing key",
			mutate:  func(m *Manifest) { m.Chunks[0].Paths = append(m.Chunks[0].Paths, "/ghost") },
			wantErr: "is missing path /ghost",
		},
		{
			name:    "repeated chunk",
			mutate:  func(m *Manifest) { m.Chunks = append(m.Chunks, m.Chunks[len(m.Chunks)-1]) },
			wantErr: "appears in more than one chunk",
		},
		{
			name:    "unknown version",
			mutate:  func(m *Manifest) { m.Version = 9 },
			wantErr: "unsupported manifest version 9",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := json.Marshal(manifest)
			require.NoError(t, err)
			var m Manifest
			require.NoError(t, json.Unmarshal(raw, &m))
			tt.mutate(&m)

			_, err = Merge(&m, load)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestWriter(t *testing.T) {
	t.Run("all outputs", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "docs")
		w, err := NewWriter(Options{OutputDir: dir}, nil)
		require.NoError(t, err)

		written, err := w.Write(sampleDoc(2, 1))
		require.NoError(t, err)
		var names []string
		for _, p := range written {
			names = append(names, filepath.Base(p))
		}
		assert.Equal(t, []string{"openapi.json", "openapi.yaml", "docs.go", "index.html", HandlerFile}, names)

		src, err := os.ReadFile(filepath.Join(dir, "docs.go"))
		require.NoError(t, err)
		assert.Contains(t, string(src), "package docs")

		handler, err := os.ReadFile(filepath.Join(dir, HandlerFile))
		require.NoError(t, err)
		assert.Contains(t, string(handler), "package docs")
		assert.Contains(t, string(handler), "//go:embed openapi.json openapi.yaml index.html\n")
	})

	t.Run("ui alone still writes the document", func(t *testing.T) {
		dir := t.TempDir()
		w, err := NewWriter(Options{OutputDir: dir, Types: []string{TypeUI}}, nil)
		require.NoError(t, err)
		_, err = w.Write(sampleDoc(1, 1))
		require.NoError(t, err)
		assert.FileExists(t, filepath.Join(dir, "openapi.json"))
		assert.FileExists(t, filepath.Join(dir, "index.html"))
		assert.FileExists(t, filepath.Join(dir, HandlerFile))
	})

	t.Run("chunked output", func(t *testing.T) {
		dir := t.TempDir()
		logger, hook := test.NewNullLogger()
		w, err := NewWriter(Options{OutputDir: dir, Types: []string{TypeJSON, TypeUI}, MaxChunkSize: 1024, PackageName: "api"}, logger)
		require.NoError(t, err)

		_, err = w.Write(sampleDoc(6, 3))
		require.NoError(t, err)

		raw, err := os.ReadFile(filepath.Join(dir, ManifestFile))
		require.NoError(t, err)
		var m Manifest
		require.NoError(t, json.Unmarshal(raw, &m))
		for _, c := range m.Chunks {
			assert.FileExists(t, filepath.Join(dir, c.File))
		}
		assert.NoFileExists(t, filepath.Join(dir, "openapi.json"))

		page, err := os.ReadFile(filepath.Join(dir, "index.html"))
		require.NoError(t, err)
		assert.Contains(t, string(page), "loadChunked")

		handler, err := os.ReadFile(filepath.Join(dir, HandlerFile))
		require.NoError(t, err)
		assert.Contains(t, string(handler), "package api")
		assert.Contains(t, string(handler), `const SpecFile = "openapi.manifest.json"`)
		for _, c := range m.Chunks {
			assert.Contains(t, string(handler), " "+c.File)
		}

		require.NotNil(t, hook.LastEntry())
		assert.Equal(t, logrus.InfoLevel, hook.LastEntry().Level)
		assert.Equal(t, len(m.Chunks), hook.LastEntry().Data["chunks"])
	})

	t.Run("yaml stays whole when json is chunked", func(t *testing.T) {
		dir := t.TempDir()
		w, err := NewWriter(Options{OutputDir: dir, Types: []string{TypeJSON, TypeYAML}, MaxChunkSize: 1024}, nil)
		require.NoError(t, err)
		_, err = w.Write(sampleDoc(6, 3))
		require.NoError(t, err)
		assert.FileExists(t, filepath.Join(dir, ManifestFile))

		raw, err := os.ReadFile(filepath.Join(dir, "openapi.yaml"))
		require.NoError(t, err)
		var doc struct {
			Paths      map[string]any `yaml:"paths"`
			Components struct {
				Schemas map[string]any `yaml:"schemas"`
			} `yaml:"components"`
		}
		require.NoError(t, yaml.Unmarshal(raw, &doc))
		assert.Len(t, doc.Paths, 6)
		assert.Len(t, doc.Components.Schemas, 3)
	})

	t.Run("below threshold stays whole", func(t *testing.T) {
		dir := t.TempDir()
		w, err := NewWriter(Options{OutputDir: dir, Types: []string{TypeJSON}, MaxChunkSize: 1 << 20}, nil)
		require.NoError(t, err)
		_, err = w.Write(sampleDoc(1, 1))
		require.NoError(t, err)
		assert.FileExists(t, filepath.Join(dir, "openapi.json"))
		assert.NoFileExists(t, filepath.Join(dir, ManifestFile))
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := NewWriter(Options{OutputDir: t.TempDir(), Types: []string{"xml"}}, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `unknown output type "xml"`)
	})

	t.Run("package name from directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "apidocs")
		w, err := NewWriter(Options{OutputDir: dir, Types: []string{TypeGo}}, nil)
		require.NoError(t, err)
		_, err = w.Write(sampleDoc(1, 1))
		require.NoError(t, err)
		src, err := os.ReadFile(filepath.Join(dir, "docs.go"))
		require.NoError(t, err)
		assert.Contains(t, string(src), "package apidocs")
	})
}
