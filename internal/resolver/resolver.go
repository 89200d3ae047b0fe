// Package resolver turns type references into OpenAPI schemas. Named types
// become component references and are resolved through a worklist, so self
// and mutual references terminate.
package resolver

import (
	"fmt"
	"strings"

	"github.com/example/swagdoc/internal/diag"
	"github.com/example/swagdoc/internal/interpreter"
	"github.com/example/swagdoc/internal/openapi"
	"github.com/example/swagdoc/internal/typetable"
)

// Origin locates the use site that first reached a type, for error messages.
type Origin struct {
	Operation string
	FieldPath string
	Pos       diag.Position
}

func (o Origin) child(name string) Origin {
	if o.FieldPath == "" {
		o.FieldPath = name
	} else {
		o.FieldPath += "." + name
	}
	return o
}

type pending struct {
	def    *typetable.TypeDef
	origin Origin
}

// Resolver builds component schemas for the named types reached from
// operations. It is used by a single goroutine.
type Resolver struct {
	table   *typetable.Table
	diags   *diag.List
	mapper  *ConstraintMapper
	schemas map[string]*openapi.Schema
	queued  map[string]bool
	queue   []pending
}

// New creates a resolver over table. A nil mapper uses the default one.
func New(table *typetable.Table, diags *diag.List, mapper *ConstraintMapper) *Resolver {
	if mapper == nil {
		mapper = NewConstraintMapper()
	}
	return &Resolver{
		table:   table,
		diags:   diags,
		mapper:  mapper,
		schemas: make(map[string]*openapi.Schema),
		queued:  make(map[string]bool),
	}
}

// Resolve seeds the worklist from ops in order and drains it.
func Resolve(ops []*interpreter.OperationFragment, table *typetable.Table, diags *diag.List) (map[string]*openapi.Schema, error) {
	r := New(table, diags, nil)
	if err := r.Seed(ops); err != nil {
		return nil, err
	}
	return r.Drain()
}

// Seed enqueues every type referenced by the parameters and responses of ops.
func (r *Resolver) Seed(ops []*interpreter.OperationFragment) error {
	for _, op := range ops {
		for _, p := range op.Params {
			if _, err := r.OperationSchema(op, p.Type, ParamPath(p), p.Pos); err != nil {
				return err
			}
		}
		for _, resp := range op.Responses {
			if resp.Type.IsZero() {
				continue
			}
			if _, err := r.OperationSchema(op, resp.Type, ResponsePath(resp), resp.Pos); err != nil {
				return err
			}
		}
	}
	return nil
}

// ParamPath names a parameter in error messages.
func ParamPath(p interpreter.Param) string {
	return "param " + p.Name
}

// ResponsePath names a response in error messages.
func ResponsePath(resp interpreter.Response) string {
	return "response " + resp.Code
}

// OperationSchema qualifies a raw reference written in op and returns its
// use-site schema.
func (r *Resolver) OperationSchema(op *interpreter.OperationFragment, ref typetable.TypeRef, path string, pos diag.Position) (*openapi.Schema, error) {
	qualified := r.table.Qualify(ref, op.Scope)
	return r.SchemaFor(qualified, Origin{Operation: op.Key(), FieldPath: path, Pos: pos})
}

// SchemaFor returns the use-site schema for a qualified reference. Named
// types yield a $ref and are enqueued for resolution.
func (r *Resolver) SchemaFor(ref typetable.TypeRef, origin Origin) (*openapi.Schema, error) {
	if len(ref.Wrappers) > 0 {
		inner, err := r.SchemaFor(ref.Elem(), origin)
		if err != nil {
			return nil, err
		}
		switch ref.Wrappers[0] {
		case typetable.Array:
			return &openapi.Schema{Type: "array", Items: inner}, nil
		case typetable.Map:
			return &openapi.Schema{Type: "object", AdditionalProperties: inner}, nil
		default:
			return inner, nil
		}
	}

	if p, ok := typetable.Builtin(ref.Name); ok {
		return &openapi.Schema{Type: p.Type, Format: p.Format}, nil
	}
	def, ok := r.table.Lookup(ref.Name)
	if !ok {
		return nil, r.unresolved(ref.Name, origin)
	}
	if !r.queued[def.Name] {
		r.queued[def.Name] = true
		r.queue = append(r.queue, pending{def: def, origin: origin})
	}
	return openapi.RefTo(def.Name), nil
}

// Drain resolves every enqueued type, including those reached while
// resolving, and returns the schemas by component name.
func (r *Resolver) Drain() (map[string]*openapi.Schema, error) {
	for len(r.queue) > 0 {
		item := r.queue[0]
		r.queue = r.queue[1:]
		if _, done := r.schemas[item.def.Name]; done {
			continue
		}
		s, err := r.build(item.def, item.origin)
		if err != nil {
			return nil, err
		}
		r.schemas[item.def.Name] = s
	}
	return r.schemas, nil
}

func (r *Resolver) build(def *typetable.TypeDef, origin Origin) (*openapi.Schema, error) {
	if def.Kind == typetable.KindNamed {
		return r.buildNamed(def, origin)
	}

	fields, err := r.flatten(def, map[string]bool{}, origin)
	if err != nil {
		return nil, err
	}
	s := &openapi.Schema{
		Type:        "object",
		Description: def.Description,
		Properties:  make(map[string]*openapi.Schema, len(fields)),
	}
	for _, f := range fields {
		name := f.PropertyName()
		fs, err := r.fieldSchema(f, origin.child(name))
		if err != nil {
			return nil, err
		}
		s.Properties[name] = fs
		if f.Required {
			s.Required = append(s.Required, name)
		}
	}
	return s, nil
}

func (r *Resolver) buildNamed(def *typetable.TypeDef, origin Origin) (*openapi.Schema, error) {
	s, err := r.SchemaFor(def.Underlying, origin)
	if err != nil {
		return nil, err
	}
	if s.Ref != "" {
		// A named type over another named type is an alias of its schema.
		return s, nil
	}
	s.Description = def.Description
	for _, v := range def.Enum {
		s.Enum = append(s.Enum, TypedValue(v, s))
	}
	return s, nil
}

// flatten returns def's fields with embedded structs spliced in place. The
// owner's own fields win on JSON name collisions, then the first embedded
// type that declares the name.
func (r *Resolver) flatten(def *typetable.TypeDef, visiting map[string]bool, origin Origin) ([]typetable.FieldDef, error) {
	visiting[def.Key] = true
	defer delete(visiting, def.Key)

	own := make(map[string]bool)
	for _, f := range def.Fields {
		if !f.Embedded {
			own[f.PropertyName()] = true
		}
	}

	var out []typetable.FieldDef
	seen := make(map[string]bool)
	add := func(f typetable.FieldDef) {
		if !seen[f.PropertyName()] {
			seen[f.PropertyName()] = true
			out = append(out, f)
		}
	}

	for _, f := range def.Fields {
		if !f.Embedded {
			add(f)
			continue
		}
		name := f.Type.Name
		if _, ok := typetable.Builtin(name); ok {
			add(asNamedField(f))
			continue
		}
		emb, ok := r.table.Lookup(name)
		if !ok {
			return nil, r.unresolved(name, origin.child(f.Name))
		}
		if emb.Kind != typetable.KindStruct {
			add(asNamedField(f))
			continue
		}
		if visiting[emb.Key] {
			r.diags.Warnf(def.Pos, "embedding cycle through %s cut at %s", emb.Name, def.Name)
			continue
		}
		inner, err := r.flatten(emb, visiting, origin)
		if err != nil {
			return nil, err
		}
		for _, g := range inner {
			if !own[g.PropertyName()] {
				add(g)
			}
		}
	}
	return out, nil
}

// asNamedField turns an embedded non-struct into the field encoding/json
// would produce for it.
func asNamedField(f typetable.FieldDef) typetable.FieldDef {
	f.Embedded = false
	return f
}

func (r *Resolver) fieldSchema(f typetable.FieldDef, origin Origin) (*openapi.Schema, error) {
	s, err := r.SchemaFor(f.Type, origin)
	if err != nil {
		return nil, err
	}
	if s.Ref != "" {
		return s, nil
	}
	if f.Description != "" {
		s.Description = f.Description
	}
	r.mapper.Apply(f.Validate, s)
	if f.HasExample {
		s.Example = TypedValue(f.Example, s)
	}
	return s, nil
}

func (r *Resolver) unresolved(name string, origin Origin) *diag.Error {
	msg := fmt.Sprintf("type %s is not declared in the scanned tree", name)
	if keys := r.table.Candidates(name); len(keys) > 1 {
		msg = fmt.Sprintf("type %s is ambiguous: declared as %s; import the package to pick one", name, strings.Join(keys, ", "))
	}
	return &diag.Error{
		Kind:      diag.Resolution,
		Err:       diag.ErrUnresolvedReference,
		Pos:       origin.Pos,
		Operation: origin.Operation,
		FieldPath: origin.FieldPath,
		Message:   msg,
	}
}
