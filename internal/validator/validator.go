// Package validator checks emitted OpenAPI documents. Every document gets a
// structural pass; 3.0 documents are also validated with kin-openapi, which
// does not read 3.1.
package validator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/example/swagdoc/internal/emit"
	"github.com/example/swagdoc/internal/openapi"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/sirupsen/logrus"
	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by the error returned for a document with problems.
var ErrInvalid = errors.New("invalid OpenAPI document")

// Problem is one finding, located by a dotted path into the document.
type Problem struct {
	Path    string
	Message string
}

func (p Problem) String() string {
	if p.Path == "" {
		return p.Message
	}
	return p.Path + ": " + p.Message
}

// Report summarizes a validated document.
type Report struct {
	Version  string
	Title    string
	Paths    int
	Schemas  int
	Problems []Problem
}

// Validator validates documents.
type Validator struct {
	log logrus.FieldLogger
}

// New creates a validator. A nil logger uses the standard logger.
func New(log logrus.FieldLogger) *Validator {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Validator{log: log}
}

// ValidateFile validates a JSON or YAML document on disk. A chunk manifest
// is merged before validation.
func (v *Validator) ValidateFile(ctx context.Context, filename string) (*Report, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if filepath.Base(filename) == emit.ManifestFile {
		var manifest emit.Manifest
		if err := json.Unmarshal(data, &manifest); err != nil {
			return nil, fmt.Errorf("failed to parse manifest: %w", err)
		}
		dir := filepath.Dir(filename)
		doc, err := emit.Merge(&manifest, func(file string) ([]byte, error) {
			return os.ReadFile(filepath.Join(dir, file))
		})
		if err != nil {
			return nil, err
		}
		return v.ValidateDocument(ctx, doc)
	}
	return v.Validate(ctx, data)
}

// ValidateDocument validates an in-memory document.
func (v *Validator) ValidateDocument(ctx context.Context, doc *openapi.Document) (*Report, error) {
	data, err := emit.JSON(doc)
	if err != nil {
		return nil, err
	}
	return v.Validate(ctx, data)
}

// Validate validates raw JSON or YAML. The returned error wraps ErrInvalid
// when the report carries problems.
func (v *Validator) Validate(ctx context.Context, data []byte) (*Report, error) {
	var spec map[string]any
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("failed to parse file as YAML or JSON: %w", err)
	}

	c := &checker{spec: spec}
	report := &Report{}
	c.check(report)

	if strings.HasPrefix(report.Version, "3.0.") && len(c.problems) == 0 {
		v.log.Debug("validating with kin-openapi")
		loader := openapi3.NewLoader()
		doc, err := loader.LoadFromData(data)
		if err != nil {
			c.add("", "failed to load: %v", err)
		} else if err := doc.Validate(ctx); err != nil {
			c.add("", "%v", err)
		}
	}

	report.Problems = c.problems
	v.log.WithFields(logrus.Fields{
		"openapi":  report.Version,
		"paths":    report.Paths,
		"schemas":  report.Schemas,
		"problems": len(report.Problems),
	}).Info("validated document")
	if len(report.Problems) > 0 {
		return report, fmt.Errorf("%w: %s", ErrInvalid, report.Problems[0])
	}
	return report, nil
}

type checker struct {
	spec     map[string]any
	problems []Problem
	schemas  map[string]any
}

func (c *checker) add(path, format string, args ...any) {
	c.problems = append(c.problems, Problem{Path: path, Message: fmt.Sprintf(format, args...)})
}

func (c *checker) check(report *Report) {
	version, ok := c.spec["openapi"].(string)
	if !ok {
		c.add("openapi", "missing or invalid field")
		return
	}
	report.Version = version
	if !semver.IsValid("v"+version) || semver.Compare("v"+version, "v3.0.0") < 0 || semver.Compare("v"+version, "v3.2.0") >= 0 {
		c.add("openapi", "unsupported OpenAPI version %s", version)
		return
	}

	info, ok := c.spec["info"].(map[string]any)
	if !ok {
		c.add("info", "missing or invalid field")
	} else {
		title, ok := info["title"].(string)
		if !ok {
			c.add("info.title", "missing or invalid field")
		}
		report.Title = title
		if _, ok := info["version"].(string); !ok {
			c.add("info.version", "missing or invalid field")
		}
	}

	if components, ok := c.spec["components"].(map[string]any); ok {
		c.schemas, _ = components["schemas"].(map[string]any)
	}
	report.Schemas = len(c.schemas)
	for _, name := range sortedKeys(c.schemas) {
		c.schema("components.schemas."+name, c.schemas[name], version)
	}

	paths, _ := c.spec["paths"].(map[string]any)
	report.Paths = len(paths)
	for _, route := range sortedKeys(paths) {
		c.pathItem("paths."+route, paths[route], version)
	}
}

func (c *checker) pathItem(path string, raw any, version string) {
	item, ok := raw.(map[string]any)
	if !ok {
		c.add(path, "invalid path item")
		return
	}
	found := false
	for _, method := range openapi.Methods {
		op, exists := item[method]
		if !exists {
			continue
		}
		found = true
		c.operation(path+"."+method, op, version)
	}
	if !found {
		if _, hasParams := item["parameters"]; !hasParams {
			c.add(path, "path item has no operations")
		}
	}
}

func (c *checker) operation(path string, raw any, version string) {
	op, ok := raw.(map[string]any)
	if !ok {
		c.add(path, "invalid operation")
		return
	}

	responses, ok := op["responses"].(map[string]any)
	if !ok || len(responses) == 0 {
		c.add(path+".responses", "missing or empty field")
	}
	for _, status := range sortedKeys(responses) {
		rpath := path + ".responses." + status
		resp, ok := responses[status].(map[string]any)
		if !ok {
			c.add(rpath, "invalid response")
			continue
		}
		if _, ok := resp["description"].(string); !ok {
			c.add(rpath, "missing description")
		}
		c.content(rpath, resp["content"], version)
		if headers, ok := resp["headers"].(map[string]any); ok {
			for _, h := range sortedKeys(headers) {
				if header, ok := headers[h].(map[string]any); ok {
					c.schema(rpath+".headers."+h+".schema", header["schema"], version)
				}
			}
		}
	}

	params, _ := op["parameters"].([]any)
	for i, raw := range params {
		ppath := fmt.Sprintf("%s.parameters[%d]", path, i)
		param, ok := raw.(map[string]any)
		if !ok {
			c.add(ppath, "invalid parameter")
			continue
		}
		if _, ok := param["name"].(string); !ok {
			c.add(ppath, "missing name")
		}
		in, _ := param["in"].(string)
		switch in {
		case "query", "header", "cookie":
		case "path":
			if required, ok := param["required"].(bool); !ok || !required {
				c.add(ppath, "path parameter must have required: true")
			}
		default:
			c.add(ppath, "invalid in value %q", in)
		}
		c.schema(ppath+".schema", param["schema"], version)
	}

	if body, ok := op["requestBody"].(map[string]any); ok {
		c.content(path+".requestBody", body["content"], version)
	}
}

func (c *checker) content(path string, raw any, version string) {
	content, _ := raw.(map[string]any)
	for _, mime := range sortedKeys(content) {
		if media, ok := content[mime].(map[string]any); ok {
			c.schema(path+".content."+mime+".schema", media["schema"], version)
		}
	}
}

// schema checks refs resolve and that exclusive bounds use the form the
// document version expects.
func (c *checker) schema(path string, raw any, version string) {
	s, ok := raw.(map[string]any)
	if !ok {
		return
	}
	if ref, ok := s["$ref"].(string); ok {
		name, local := openapi.RefName(ref)
		switch {
		case !local:
			c.add(path, "unsupported $ref %s", ref)
		case c.schemas[name] == nil:
			c.add(path, "dangling $ref %s", ref)
		}
		return
	}

	is31 := semver.Compare("v"+version, "v3.1.0") >= 0
	for _, key := range []string{"exclusiveMinimum", "exclusiveMaximum"} {
		v, ok := s[key]
		if !ok {
			continue
		}
		_, isBool := v.(bool)
		if is31 && isBool {
			c.add(path, "%s must be a number in OpenAPI %s", key, version)
		}
		if !is31 && !isBool {
			c.add(path, "%s must be a boolean in OpenAPI %s", key, version)
		}
	}

	props, _ := s["properties"].(map[string]any)
	for _, name := range sortedKeys(props) {
		c.schema(path+".properties."+name, props[name], version)
	}
	c.schema(path+".items", s["items"], version)
	c.schema(path+".additionalProperties", s["additionalProperties"], version)
	if anyOf, ok := s["anyOf"].([]any); ok {
		for i, sub := range anyOf {
			c.schema(fmt.Sprintf("%s.anyOf[%d]", path, i), sub, version)
		}
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
