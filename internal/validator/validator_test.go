package validator

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/example/swagdoc/internal/emit"
	"github.com/example/swagdoc/internal/openapi"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(f float64) *float64 { return &f }

func validDoc(version string) *openapi.Document {
	score := &openapi.Schema{Type: "number", Minimum: floatPtr(0)}
	if version == openapi.Version300 {
		score.ExclusiveMinimum = true
	} else {
		score = &openapi.Schema{Type: "number", ExclusiveMinimum: 0.0}
	}
	return &openapi.Document{
		OpenAPI: version,
		Info:    openapi.Info{Title: "Users", Version: "1.0"},
		Paths: map[string]*openapi.PathItem{
			"/users/{id}": {Get: &openapi.Operation{
				Parameters: []*openapi.Parameter{{Name: "id", In: "path", Required: true, Schema: &openapi.Schema{Type: "integer"}}},
				Responses: map[string]*openapi.Response{
					"200": {Description: "OK", Content: map[string]*openapi.MediaType{
						"application/json": {Schema: openapi.RefTo("models.User")},
					}},
				},
			}},
		},
		Components: &openapi.Components{Schemas: map[string]*openapi.Schema{
			"models.User": {Type: "object", Properties: map[string]*openapi.Schema{
				"id":    {Type: "integer"},
				"score": score,
			}},
		}},
	}
}

func TestValidateDocument(t *testing.T) {
	for _, version := range openapi.SupportedVersions {
		t.Run(version, func(t *testing.T) {
			logger, hook := test.NewNullLogger()
			report, err := New(logger).ValidateDocument(context.Background(), validDoc(version))
			require.NoError(t, err)
			assert.Equal(t, version, report.Version)
			assert.Equal(t, "Users", report.Title)
			assert.Equal(t, 1, report.Paths)
			assert.Equal(t, 1, report.Schemas)
			assert.Empty(t, report.Problems)
			assert.Equal(t, "validated document", hook.LastEntry().Message)
		})
	}
}

func TestValidateProblems(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(d *openapi.Document)
		wantPath string
		wantMsg  string
	}{
		{
			name:     "dangling ref",
			mutate:   func(d *openapi.Document) { delete(d.Components.Schemas, "models.User") },
			wantPath: "paths./users/{id}.get.responses.200.content.application/json.schema",
			wantMsg:  "dangling $ref #/components/schemas/models.User",
		},
		{
			name: "optional path parameter",
			mutate: func(d *openapi.Document) {
				d.Paths["/users/{id}"].Get.Parameters[0].Required = false
			},
			wantPath: "paths./users/{id}.get.parameters[0]",
			wantMsg:  "path parameter must have required: true",
		},
		{
			name: "missing responses",
			mutate: func(d *openapi.Document) {
				d.Paths["/users/{id}"].Get.Responses = map[string]*openapi.Response{}
			},
			wantPath: "paths./users/{id}.get.responses",
			wantMsg:  "missing or empty field",
		},
		{
			name: "boolean exclusive bound in 3.1",
			mutate: func(d *openapi.Document) {
				d.Components.Schemas["models.User"].Properties["score"].ExclusiveMinimum = true
			},
			wantPath: "components.schemas.models.User.properties.score",
			wantMsg:  "exclusiveMinimum must be a number in OpenAPI 3.1.1",
		},
		{
			name:     "unsupported version",
			mutate:   func(d *openapi.Document) { d.OpenAPI = "2.0" },
			wantPath: "openapi",
			wantMsg:  "unsupported OpenAPI version 2.0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := validDoc(openapi.Version311)
			tt.mutate(doc)
			report, err := New(nil).ValidateDocument(context.Background(), doc)
			require.ErrorIs(t, err, ErrInvalid)
			require.NotEmpty(t, report.Problems)
			assert.Equal(t, Problem{Path: tt.wantPath, Message: tt.wantMsg}, report.Problems[0])
		})
	}
}

func TestValidateKinOpenAPI(t *testing.T) {
	doc := validDoc(openapi.Version300)
	doc.Components.SecuritySchemes = map[string]*openapi.SecurityScheme{
		"Key": {Type: "apiKey", In: "body", Name: "X-Key"},
	}
	report, err := New(nil).ValidateDocument(context.Background(), doc)
	require.ErrorIs(t, err, ErrInvalid)
	require.Len(t, report.Problems, 1)
	assert.Empty(t, report.Problems[0].Path)
}

func TestValidateFile(t *testing.T) {
	t.Run("yaml", func(t *testing.T) {
		data, err := emit.YAML(validDoc(openapi.Version310))
		require.NoError(t, err)
		path := filepath.Join(t.TempDir(), "openapi.yaml")
		require.NoError(t, os.WriteFile(path, data, 0o644))

		report, err := New(nil).ValidateFile(context.Background(), path)
		require.NoError(t, err)
		assert.Equal(t, "3.1.0", report.Version)
	})

	t.Run("chunk manifest", func(t *testing.T) {
		dir := t.TempDir()
		w, err := emit.NewWriter(emit.Options{OutputDir: dir, Types: []string{emit.TypeJSON}, MaxChunkSize: 64}, nil)
		require.NoError(t, err)
		_, err = w.Write(validDoc(openapi.Version311))
		require.NoError(t, err)

		report, err := New(nil).ValidateFile(context.Background(), filepath.Join(dir, emit.ManifestFile))
		require.NoError(t, err)
		assert.Equal(t, 1, report.Paths)
		assert.Equal(t, 1, report.Schemas)
	})

	t.Run("unreadable", func(t *testing.T) {
		_, err := New(nil).ValidateFile(context.Background(), filepath.Join(t.TempDir(), "missing.json"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read file")
	})

	t.Run("not a document", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "broken.json")
		require.NoError(t, os.WriteFile(path, []byte("{not: [valid"), 0o644))
		_, err := New(nil).ValidateFile(context.Background(), path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse file")
	})
}
