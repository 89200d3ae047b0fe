package emit

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/example/swagdoc/internal/openapi"
)

// ManifestFile is the name of the chunk index written next to the chunks.
const ManifestFile = "openapi.manifest.json"

// ManifestVersion is bumped when the manifest layout changes.
const ManifestVersion = 1

// Manifest lists the chunks of a split document in load order. Each entry
// names the path items and component schemas the chunk carries, so a
// reader can fetch a single route or schema without loading every chunk.
type Manifest struct {
	Version int             `json:"version"`
	OpenAPI string          `json:"openapi"`
	Chunks  []ManifestChunk `json:"chunks"`
}

// ManifestChunk describes one chunk file.
type ManifestChunk struct {
	Index   int      `json:"index"`
	File    string   `json:"file"`
	Size    int      `json:"size"`
	Paths   []string `json:"paths,omitempty"`
	Schemas []string `json:"schemas,omitempty"`
}

// Chunk is one rendered chunk file.
type Chunk struct {
	File string
	Data []byte
}

// ChunkFile returns the file name of the n-th chunk, counting from 1.
func ChunkFile(n int) string {
	return fmt.Sprintf("openapi.%d.json", n)
}

// Find returns the chunk carrying the given route, or the schema when
// route is empty.
func (m *Manifest) Find(route, schema string) (ManifestChunk, bool) {
	for _, c := range m.Chunks {
		keys := c.Paths
		want := route
		if route == "" {
			keys, want = c.Schemas, schema
		}
		for _, k := range keys {
			if k == want {
				return c, true
			}
		}
	}
	return ManifestChunk{}, false
}

type chunkItem struct {
	path   string
	schema string
	size   int64
}

// Split partitions doc into chunks whose JSON stays within limit bytes where
// possible. The first chunk carries everything except the path items and
// component schemas; those are packed greedily in sorted order, paths
// first. An item larger than limit gets a chunk of its own.
//
// Item sizes are measured with the encoder the chunks are written with, as
// the growth of an otherwise empty chunk. That growth never undercounts the
// item's share of a chunk holding several items.
func Split(doc *openapi.Document, limit int64) ([]Chunk, *Manifest, error) {
	if limit <= 0 {
		return nil, nil, errors.New("chunk limit must be positive")
	}

	empty, err := encodeJSON(skeleton(doc, false))
	if err != nil {
		return nil, nil, err
	}
	growth := func(part *openapi.Document) (int64, error) {
		data, err := encodeJSON(part)
		if err != nil {
			return 0, err
		}
		return int64(len(data) - len(empty)), nil
	}

	var items []chunkItem
	for _, p := range doc.SortedPaths() {
		part := skeleton(doc, false)
		part.Paths[p] = doc.Paths[p]
		size, err := growth(part)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to encode path %s: %w", p, err)
		}
		items = append(items, chunkItem{path: p, size: size})
	}
	for _, n := range doc.SchemaNames() {
		part := skeleton(doc, false)
		part.Components = &openapi.Components{Schemas: map[string]*openapi.Schema{n: doc.Components.Schemas[n]}}
		size, err := growth(part)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to encode schema %s: %w", n, err)
		}
		items = append(items, chunkItem{schema: n, size: size})
	}

	first, err := encodeJSON(skeleton(doc, true))
	if err != nil {
		return nil, nil, err
	}
	var groups [][]chunkItem
	var current []chunkItem
	used := int64(len(first))
	for _, it := range items {
		if len(current) > 0 && used+it.size > limit {
			groups = append(groups, current)
			current = nil
			used = int64(len(empty))
		}
		current = append(current, it)
		used += it.size
	}
	if len(current) > 0 || len(groups) == 0 {
		groups = append(groups, current)
	}

	manifest := &Manifest{Version: ManifestVersion, OpenAPI: doc.OpenAPI}
	chunks := make([]Chunk, 0, len(groups))
	for i, group := range groups {
		part := skeleton(doc, i == 0)
		entry := ManifestChunk{Index: i + 1, File: ChunkFile(i + 1)}
		for _, it := range group {
			if it.path != "" {
				part.Paths[it.path] = doc.Paths[it.path]
				entry.Paths = append(entry.Paths, it.path)
				continue
			}
			if part.Components == nil {
				part.Components = &openapi.Components{}
			}
			if part.Components.Schemas == nil {
				part.Components.Schemas = make(map[string]*openapi.Schema)
			}
			part.Components.Schemas[it.schema] = doc.Components.Schemas[it.schema]
			entry.Schemas = append(entry.Schemas, it.schema)
		}
		data, err := encodeJSON(part)
		if err != nil {
			return nil, nil, err
		}
		entry.Size = len(data)
		manifest.Chunks = append(manifest.Chunks, entry)
		chunks = append(chunks, Chunk{File: entry.File, Data: data})
	}
	return chunks, manifest, nil
}

// skeleton copies the document without path items and component schemas.
// Only the first chunk keeps the document level fields.
func skeleton(doc *openapi.Document, first bool) *openapi.Document {
	out := &openapi.Document{
		OpenAPI: doc.OpenAPI,
		Info:    openapi.Info{Title: doc.Info.Title, Version: doc.Info.Version},
		Paths:   make(map[string]*openapi.PathItem),
	}
	if !first {
		return out
	}
	out.Info = doc.Info
	out.ExternalDocs = doc.ExternalDocs
	out.Servers = doc.Servers
	out.Security = doc.Security
	out.Tags = doc.Tags
	if doc.Components != nil && len(doc.Components.SecuritySchemes) > 0 {
		out.Components = &openapi.Components{SecuritySchemes: doc.Components.SecuritySchemes}
	}
	return out
}

// Merge reassembles a split document. load returns the contents of a chunk
// file named in the manifest. Every key the manifest lists must be present
// in its chunk, and no key may appear twice.
func Merge(manifest *Manifest, load func(file string) ([]byte, error)) (*openapi.Document, error) {
	if manifest == nil || len(manifest.Chunks) == 0 {
		return nil, errors.New("manifest lists no chunks")
	}
	if manifest.Version != ManifestVersion {
		return nil, fmt.Errorf("unsupported manifest version %d", manifest.Version)
	}

	var doc *openapi.Document
	for _, entry := range manifest.Chunks {
		data, err := load(entry.File)
		if err != nil {
			return nil, fmt.Errorf("failed to read chunk %s: %w", entry.File, err)
		}
		var part openapi.Document
		if err := json.Unmarshal(data, &part); err != nil {
			return nil, fmt.Errorf("failed to decode chunk %s: %w", entry.File, err)
		}
		if doc == nil {
			doc = &part
			if doc.Paths == nil {
				doc.Paths = make(map[string]*openapi.PathItem)
			}
			if err := checkKeys(entry, &part); err != nil {
				return nil, err
			}
			continue
		}
		if err := checkKeys(entry, &part); err != nil {
			return nil, err
		}
		for p, item := range part.Paths {
			if _, dup := doc.Paths[p]; dup {
				return nil, fmt.Errorf("path %s appears in more than one chunk", p)
			}
			doc.Paths[p] = item
		}
		if part.Components == nil {
			continue
		}
		for n, s := range part.Components.Schemas {
			if doc.Components == nil {
				doc.Components = &openapi.Components{}
			}
			if doc.Components.Schemas == nil {
				doc.Components.Schemas = make(map[string]*openapi.Schema)
			}
			if _, dup := doc.Components.Schemas[n]; dup {
				return nil, fmt.Errorf("schema %s appears in more than one chunk", n)
			}
			doc.Components.Schemas[n] = s
		}
	}
	return doc, nil
}

func checkKeys(entry ManifestChunk, part *openapi.Document) error {
	for _, p := range entry.Paths {
		if _, ok := part.Paths[p]; !ok {
			return fmt.Errorf("chunk %s is missing path %s", entry.File, p)
		}
	}
	for _, n := range entry.Schemas {
		if part.Components == nil || part.Components.Schemas[n] == nil {
			return fmt.Errorf("chunk %s is missing schema %s", entry.File, n)
		}
	}
	return nil
}
