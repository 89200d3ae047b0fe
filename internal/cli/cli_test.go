package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/example/swagdoc/internal/diag"
	"github.com/example/swagdoc/internal/emit"
	"github.com/example/swagdoc/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const entrySrc = `package main

// @title Users
// @version 2.0
func main() {}
`

const usersSrc = `package api

// @Summary List users
// @Param q query string false "Search"
// @Success 200 {array} User
// @Router /users [get]
func ListUsers() {}

type User struct {
	ID   int    ` + "`json:\"id\"`" + `
	Name string ` + "`json:\"name\" validate:\"required\"`" + `
}
`

func writeProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"go.mod":       "module example.com/users\n\ngo 1.22\n",
		"main.go":      entrySrc,
		"api/users.go": usersSrc,
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestInitCommand(t *testing.T) {
	src := writeProject(t)
	out := filepath.Join(t.TempDir(), "docs")

	_, logs, err := execute(t, "init", "-d", src, "-o", out)
	require.NoError(t, err)
	for _, name := range []string{"openapi.json", "openapi.yaml", "docs.go", "index.html"} {
		assert.FileExists(t, filepath.Join(out, name))
	}
	assert.Contains(t, logs, "generated document")

	data, err := os.ReadFile(filepath.Join(out, "openapi.json"))
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "3.1.1", doc["openapi"])
	assert.Contains(t, doc["paths"], "/users")
}

func TestInitCommandFlags(t *testing.T) {
	src := writeProject(t)

	t.Run("output types and version", func(t *testing.T) {
		out := t.TempDir()
		_, _, err := execute(t, "init", "-d", src, "-o", out, "--ot", "json", "--oas", "3.0.0", "--validate")
		require.NoError(t, err)
		assert.FileExists(t, filepath.Join(out, "openapi.json"))
		assert.NoFileExists(t, filepath.Join(out, "openapi.yaml"))

		data, err := os.ReadFile(filepath.Join(out, "openapi.json"))
		require.NoError(t, err)
		assert.Contains(t, string(data), `"openapi": "3.0.0"`)
	})

	t.Run("invalid output type", func(t *testing.T) {
		_, _, err := execute(t, "init", "-d", src, "-o", t.TempDir(), "--output-types", "json,pdf")
		require.ErrorIs(t, err, diag.ErrInvalidConfig)
		assert.Contains(t, err.Error(), "outputTypes[1] is pdf; must be one of go, json, yaml, ui")
	})

	t.Run("invalid version", func(t *testing.T) {
		_, _, err := execute(t, "init", "-d", src, "--oas", "2.0")
		require.ErrorIs(t, err, diag.ErrInvalidConfig)
		assert.Contains(t, err.Error(), "openapi is 2.0")
	})

	t.Run("fatal run writes nothing", func(t *testing.T) {
		out := filepath.Join(t.TempDir(), "docs")
		_, _, err := execute(t, "init", "-d", src, "-o", out, "--exclude-dir", "nothing")
		require.ErrorIs(t, err, diag.ErrExcludeUnmatched)
		assert.NoDirExists(t, out)
	})

	t.Run("chunked output", func(t *testing.T) {
		out := t.TempDir()
		_, _, err := execute(t, "init", "-d", src, "-o", out, "--ot", "json", "--max-chunk-size", "0.0001")
		require.NoError(t, err)
		assert.FileExists(t, filepath.Join(out, emit.ManifestFile))
		assert.FileExists(t, filepath.Join(out, emit.ChunkFile(1)))
	})
}

func TestInitConfigFile(t *testing.T) {
	src := writeProject(t)
	out := t.TempDir()
	cfgPath := filepath.Join(t.TempDir(), "swagdoc.yml")
	content := "dirs:\n  - " + src + "\noutput: " + out + "\noutputTypes: [yaml]\nopenapi: 3.1.0\ncustomValidators:\n  sku: Stock keeping unit\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0o644))

	t.Run("file values", func(t *testing.T) {
		_, _, err := execute(t, "init", "--config", cfgPath)
		require.NoError(t, err)
		data, err := os.ReadFile(filepath.Join(out, "openapi.yaml"))
		require.NoError(t, err)
		assert.Contains(t, string(data), "openapi: 3.1.0")
		assert.NoFileExists(t, filepath.Join(out, "openapi.json"))
	})

	t.Run("flags override file", func(t *testing.T) {
		_, _, err := execute(t, "init", "--config", cfgPath, "--ot", "json")
		require.NoError(t, err)
		assert.FileExists(t, filepath.Join(out, "openapi.json"))
	})

	t.Run("missing explicit file", func(t *testing.T) {
		_, _, err := execute(t, "init", "--config", filepath.Join(t.TempDir(), "none.yml"))
		require.ErrorIs(t, err, diag.ErrInvalidConfig)
	})
}

func TestConfigCheck(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"no dirs", func(c *Config) { c.SearchDirs = nil }, "dirs is required"},
		{"empty dir", func(c *Config) { c.SearchDirs = []string{""} }, "dirs[0] is required"},
		{"negative size", func(c *Config) { c.MaxChunkSizeMB = -1 }, "maxChunkSize must be at least 0"},
		{"no output", func(c *Config) { c.Output = "" }, "output is required"},
		{"empty validator description", func(c *Config) { c.CustomValidators = map[string]string{"sku": ""} }, "customValidators[sku] is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Check()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			kind, ok := diag.KindOf(err)
			require.True(t, ok)
			assert.Equal(t, diag.Configuration, kind)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateCommand(t *testing.T) {
	src := writeProject(t)
	out := t.TempDir()
	_, _, err := execute(t, "init", "-d", src, "-o", out, "--ot", "json,yaml")
	require.NoError(t, err)

	t.Run("valid document", func(t *testing.T) {
		stdout, _, err := execute(t, "validate", filepath.Join(out, "openapi.yaml"))
		require.NoError(t, err)
		assert.Contains(t, stdout, "OpenAPI 3.1.1, 1 paths, 1 schemas: valid")
	})

	t.Run("invalid document", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{"openapi":"3.1.0","info":{"title":"x","version":"1"},"paths":{"/a":{"get":{"responses":{}}}}}`), 0o644))
		stdout, _, err := execute(t, "validate", bad)
		require.Error(t, err)
		assert.True(t, errors.Is(err, validator.ErrInvalid))
		assert.Contains(t, stdout, "paths./a.get.responses: missing or empty field")
	})

	t.Run("needs a file", func(t *testing.T) {
		_, _, err := execute(t, "validate")
		require.Error(t, err)
	})
}

func TestVersionCommand(t *testing.T) {
	stdout, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "swagdoc dev\n", stdout)
}
