package openapi

import (
	"sort"
	"strings"
)

// SchemaRefPrefix is the JSON pointer prefix of component schema references.
const SchemaRefPrefix = "#/components/schemas/"

// RefTo returns a schema referencing the named component.
func RefTo(name string) *Schema {
	return &Schema{Ref: SchemaRefPrefix + name}
}

// RefName returns the component name a $ref points at, if it is local.
func RefName(ref string) (string, bool) {
	if !strings.HasPrefix(ref, SchemaRefPrefix) {
		return "", false
	}
	return strings.TrimPrefix(ref, SchemaRefPrefix), true
}

// Methods lists the HTTP methods a PathItem can carry, in document order.
var Methods = []string{"get", "put", "post", "delete", "options", "head", "patch", "trace"}

// IsMethod reports whether m (lower case) is an HTTP method a PathItem carries.
func IsMethod(m string) bool {
	for _, known := range Methods {
		if known == m {
			return true
		}
	}
	return false
}

// Operation returns the operation registered for method, or nil.
func (p *PathItem) Operation(method string) *Operation {
	switch strings.ToLower(method) {
	case "get":
		return p.Get
	case "put":
		return p.Put
	case "post":
		return p.Post
	case "delete":
		return p.Delete
	case "options":
		return p.Options
	case "head":
		return p.Head
	case "patch":
		return p.Patch
	case "trace":
		return p.Trace
	}
	return nil
}

// SetOperation registers op under method. Unknown methods are ignored.
func (p *PathItem) SetOperation(method string, op *Operation) {
	switch strings.ToLower(method) {
	case "get":
		p.Get = op
	case "put":
		p.Put = op
	case "post":
		p.Post = op
	case "delete":
		p.Delete = op
	case "options":
		p.Options = op
	case "head":
		p.Head = op
	case "patch":
		p.Patch = op
	case "trace":
		p.Trace = op
	}
}

// Operations returns the path item's operations keyed by method.
func (p *PathItem) Operations() map[string]*Operation {
	ops := make(map[string]*Operation)
	for _, m := range Methods {
		if op := p.Operation(m); op != nil {
			ops[m] = op
		}
	}
	return ops
}

// SortedPaths returns the document's route templates in ascending order.
func (d *Document) SortedPaths() []string {
	paths := make([]string, 0, len(d.Paths))
	for p := range d.Paths {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// SchemaNames returns component schema names in ascending order.
func (d *Document) SchemaNames() []string {
	if d.Components == nil {
		return nil
	}
	names := make([]string, 0, len(d.Components.Schemas))
	for n := range d.Components.Schemas {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Clone returns a deep copy of the schema.
func (s *Schema) Clone() *Schema {
	if s == nil {
		return nil
	}
	c := *s
	if s.Properties != nil {
		c.Properties = make(map[string]*Schema, len(s.Properties))
		for k, v := range s.Properties {
			c.Properties[k] = v.Clone()
		}
	}
	c.Items = s.Items.Clone()
	c.AdditionalProperties = s.AdditionalProperties.Clone()
	c.Required = append([]string(nil), s.Required...)
	c.Enum = append([]any(nil), s.Enum...)
	if s.AnyOf != nil {
		c.AnyOf = make([]*Schema, len(s.AnyOf))
		for i, v := range s.AnyOf {
			c.AnyOf[i] = v.Clone()
		}
	}
	if s.Minimum != nil {
		v := *s.Minimum
		c.Minimum = &v
	}
	if s.Maximum != nil {
		v := *s.Maximum
		c.Maximum = &v
	}
	c.MinLength = cloneInt(s.MinLength)
	c.MaxLength = cloneInt(s.MaxLength)
	c.MinItems = cloneInt(s.MinItems)
	c.MaxItems = cloneInt(s.MaxItems)
	return &c
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Walk calls fn for s and every schema nested beneath it.
func (s *Schema) Walk(fn func(*Schema)) {
	if s == nil {
		return
	}
	fn(s)
	keys := make([]string, 0, len(s.Properties))
	for k := range s.Properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		s.Properties[k].Walk(fn)
	}
	s.Items.Walk(fn)
	s.AdditionalProperties.Walk(fn)
	for _, a := range s.AnyOf {
		a.Walk(fn)
	}
}

// WalkSchemas calls fn for every schema in the document, nested ones
// included, in a stable order: component schemas by name, then each path's
// operations.
func (d *Document) WalkSchemas(fn func(*Schema)) {
	for _, name := range d.SchemaNames() {
		d.Components.Schemas[name].Walk(fn)
	}
	for _, path := range d.SortedPaths() {
		item := d.Paths[path]
		for _, m := range Methods {
			op := item.Operation(m)
			if op == nil {
				continue
			}
			for _, p := range op.Parameters {
				p.Schema.Walk(fn)
			}
			if op.RequestBody != nil {
				walkContent(op.RequestBody.Content, fn)
			}
			codes := make([]string, 0, len(op.Responses))
			for c := range op.Responses {
				codes = append(codes, c)
			}
			sort.Strings(codes)
			for _, c := range codes {
				resp := op.Responses[c]
				names := make([]string, 0, len(resp.Headers))
				for n := range resp.Headers {
					names = append(names, n)
				}
				sort.Strings(names)
				for _, n := range names {
					resp.Headers[n].Schema.Walk(fn)
				}
				walkContent(resp.Content, fn)
			}
		}
	}
}

func walkContent(content map[string]*MediaType, fn func(*Schema)) {
	mimes := make([]string, 0, len(content))
	for m := range content {
		mimes = append(mimes, m)
	}
	sort.Strings(mimes)
	for _, m := range mimes {
		content[m].Schema.Walk(fn)
	}
}
