package assembler

import (
	"regexp"

	"github.com/example/swagdoc/internal/diag"
	"github.com/example/swagdoc/internal/interpreter"
	"github.com/example/swagdoc/internal/openapi"
	"github.com/example/swagdoc/internal/resolver"
	"github.com/example/swagdoc/internal/typetable"
)

var placeholderPattern = regexp.MustCompile(`\{([^}/]+)\}`)

// operations groups the fragments by route and method and converts them.
func (a *assembly) operations(doc *openapi.Document, g *interpreter.General) error {
	first := make(map[string]*interpreter.OperationFragment)
	for _, op := range a.in.Operations {
		key := op.Key()
		if prev, ok := first[key]; ok {
			err := diag.Structuralf(diag.ErrDuplicateOperation, op.Pos,
				"operation %s declared by %s and %s", key, prev.Decl, op.Decl)
			err.Related = []diag.Position{prev.Pos}
			err.Operation = key
			return err
		}
		first[key] = op

		if err := checkPathParams(op); err != nil {
			return err
		}
		converted, err := a.operation(op, g)
		if err != nil {
			return err
		}
		item, ok := doc.Paths[op.Route]
		if !ok {
			item = &openapi.PathItem{}
			doc.Paths[op.Route] = item
		}
		item.SetOperation(op.Method, converted)
	}
	return nil
}

// Placeholders returns the {name} placeholders of a route in order.
func Placeholders(route string) []string {
	var out []string
	for _, m := range placeholderPattern.FindAllStringSubmatch(route, -1) {
		out = append(out, m[1])
	}
	return out
}

func checkPathParams(op *interpreter.OperationFragment) error {
	placeholders := make(map[string]bool)
	for _, name := range Placeholders(op.Route) {
		placeholders[name] = true
	}
	declared := op.PathParams()
	for _, p := range op.Params {
		if p.In == "path" && !placeholders[p.Name] {
			err := diag.Structuralf(diag.ErrPathParamMismatch, p.Pos,
				"path parameter %s has no {%s} placeholder in route %s", p.Name, p.Name, op.Route)
			err.Operation = op.Key()
			return err
		}
	}
	for _, name := range Placeholders(op.Route) {
		if _, ok := declared[name]; !ok {
			err := diag.Structuralf(diag.ErrPathParamMismatch, op.Pos,
				"route placeholder {%s} has no path @Param", name)
			err.Operation = op.Key()
			return err
		}
	}
	return nil
}

func (a *assembly) operation(op *interpreter.OperationFragment, g *interpreter.General) (*openapi.Operation, error) {
	out := &openapi.Operation{
		Tags:        append([]string(nil), op.Tags...),
		Summary:     op.Summary,
		Description: op.Description,
		OperationID: op.OperationID,
		Deprecated:  op.Deprecated,
		Security:    a.requirements(op.Security, op.Pos),
		Responses:   make(map[string]*openapi.Response),
	}

	var bodies, form []interpreter.Param
	for _, p := range op.Params {
		switch p.In {
		case "body":
			bodies = append(bodies, p)
		case "formData":
			form = append(form, p)
		default:
			param, err := a.parameter(op, p)
			if err != nil {
				return nil, err
			}
			out.Parameters = append(out.Parameters, param)
		}
	}

	consumes := firstNonEmpty(op.Accept, g.Info.Consumes, []string{interpreter.DefaultMediaType})
	switch {
	case len(bodies) > 0:
		if len(form) > 0 {
			a.diags.Warnf(form[0].Pos, "formData parameters ignored on %s: a body parameter is declared", op.Key())
		}
		body, err := a.requestBody(op, bodies, consumes)
		if err != nil {
			return nil, err
		}
		out.RequestBody = body
	case len(form) > 0:
		body, err := a.formBody(op, form)
		if err != nil {
			return nil, err
		}
		out.RequestBody = body
	}

	produces := firstNonEmpty(op.Produce, g.Info.Produces, []string{interpreter.DefaultMediaType})
	if err := a.responses(op, out, produces); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *assembly) parameter(op *interpreter.OperationFragment, p interpreter.Param) (*openapi.Parameter, error) {
	schema, err := a.res.OperationSchema(op, p.Type, resolver.ParamPath(p), p.Pos)
	if err != nil {
		return nil, err
	}
	applyParamAttributes(schema, p)
	param := &openapi.Parameter{
		Name:        p.Name,
		In:          p.In,
		Description: p.Description,
		Required:    p.Required,
		Schema:      schema,
	}
	if p.HasExample {
		param.Example = resolver.TypedValue(p.Example, schema)
	}
	return param, nil
}

// applyParamAttributes copies the Enums/Format/Default/... attributes onto
// the schema. Enums of an array parameter constrain its items.
func applyParamAttributes(s *openapi.Schema, p interpreter.Param) {
	if s.Ref != "" {
		return
	}
	if p.Format != "" {
		s.Format = p.Format
	}
	if len(p.Enum) > 0 {
		target := s
		if s.Type == "array" && s.Items != nil && s.Items.Ref == "" {
			target = s.Items
		}
		for _, v := range p.Enum {
			target.Enum = append(target.Enum, resolver.TypedValue(v, target))
		}
	}
	if p.HasDefault {
		s.Default = resolver.TypedValue(p.Default, s)
	}
	s.Minimum = p.Minimum
	s.Maximum = p.Maximum
	s.MinLength = p.MinLength
	s.MaxLength = p.MaxLength
}

// requestBody builds the body from `in: body` params. Several bodies are
// alternatives in 3.1; 3.0 keeps the first.
func (a *assembly) requestBody(op *interpreter.OperationFragment, bodies []interpreter.Param, consumes []string) (*openapi.RequestBody, error) {
	if len(bodies) > 1 && !a.is31 {
		a.diags.Warnf(bodies[1].Pos, "%s declares %d body parameters; OpenAPI %s keeps the first", op.Key(), len(bodies), a.version)
		bodies = bodies[:1]
	}
	var schemas []*openapi.Schema
	required := false
	for _, b := range bodies {
		s, err := a.res.OperationSchema(op, b.Type, resolver.ParamPath(b), b.Pos)
		if err != nil {
			return nil, err
		}
		applyParamAttributes(s, b)
		schemas = append(schemas, s)
		required = required || b.Required
	}
	schema := combine(schemas)
	body := &openapi.RequestBody{
		Description: bodies[0].Description,
		Required:    required,
		Content:     make(map[string]*openapi.MediaType, len(consumes)),
	}
	for _, mime := range consumes {
		body.Content[mime] = &openapi.MediaType{Schema: schema.Clone()}
	}
	return body, nil
}

// formBody turns formData params into an object schema. Files force
// multipart/form-data; otherwise an urlencoded Accept is honored.
func (a *assembly) formBody(op *interpreter.OperationFragment, form []interpreter.Param) (*openapi.RequestBody, error) {
	schema := &openapi.Schema{Type: "object", Properties: make(map[string]*openapi.Schema, len(form))}
	mime := "multipart/form-data"
	hasFile := false
	for _, p := range form {
		s, err := a.res.OperationSchema(op, p.Type, resolver.ParamPath(p), p.Pos)
		if err != nil {
			return nil, err
		}
		applyParamAttributes(s, p)
		if p.Description != "" && s.Ref == "" {
			s.Description = p.Description
		}
		if p.Type.Name == "file" {
			hasFile = true
		}
		schema.Properties[p.Name] = s
		if p.Required {
			schema.Required = append(schema.Required, p.Name)
		}
	}
	if !hasFile {
		for _, m := range op.Accept {
			if m == "application/x-www-form-urlencoded" {
				mime = m
			}
		}
	}
	return &openapi.RequestBody{
		Required: len(schema.Required) > 0,
		Content:  map[string]*openapi.MediaType{mime: {Schema: schema}},
	}, nil
}

func (a *assembly) responses(op *interpreter.OperationFragment, out *openapi.Operation, produces []string) error {
	var order []string
	byCode := make(map[string][]interpreter.Response)
	for _, r := range op.Responses {
		if _, ok := byCode[r.Code]; !ok {
			order = append(order, r.Code)
		}
		byCode[r.Code] = append(byCode[r.Code], r)
	}

	for _, code := range order {
		group := byCode[code]
		if len(group) > 1 && !a.is31 {
			a.diags.Warnf(group[1].Pos, "%s declares response %s %d times; OpenAPI %s keeps the first", op.Key(), code, len(group), a.version)
			group = group[:1]
		}
		resp := &openapi.Response{Description: group[0].Description}
		var schemas []*openapi.Schema
		for _, r := range group {
			for _, h := range r.Headers {
				if resp.Headers == nil {
					resp.Headers = make(map[string]*openapi.Header)
				}
				p, _ := typetable.Builtin(h.Type)
				resp.Headers[h.Name] = &openapi.Header{
					Description: h.Description,
					Schema:      &openapi.Schema{Type: p.Type, Format: p.Format},
				}
			}
			if r.Type.IsZero() {
				continue
			}
			s, err := a.res.OperationSchema(op, r.Type, resolver.ResponsePath(r), r.Pos)
			if err != nil {
				return err
			}
			schemas = append(schemas, s)
		}
		if schema := combine(schemas); schema != nil {
			resp.Content = make(map[string]*openapi.MediaType, len(produces))
			for _, mime := range produces {
				resp.Content[mime] = &openapi.MediaType{Schema: schema.Clone()}
			}
		}
		out.Responses[code] = resp
	}

	if len(out.Responses) == 0 {
		a.diags.Warnf(op.Pos, "%s declares no responses; adding a default response", op.Key())
		out.Responses["default"] = &openapi.Response{Description: "Default response"}
	}
	return nil
}

// combine returns the single schema, or an anyOf over several.
func combine(schemas []*openapi.Schema) *openapi.Schema {
	switch len(schemas) {
	case 0:
		return nil
	case 1:
		return schemas[0]
	default:
		return &openapi.Schema{AnyOf: schemas}
	}
}

func firstNonEmpty(lists ...[]string) []string {
	for _, l := range lists {
		if len(l) > 0 {
			return l
		}
	}
	return nil
}

