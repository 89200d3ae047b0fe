// Package typetable indexes the data-type declarations discovered in the
// scanned tree by their qualified name.
package typetable

import (
	"fmt"
	"strings"

	"github.com/example/swagdoc/internal/diag"
)

// Wrapper is one layer of a type reference's wrapper chain.
type Wrapper int

const (
	Array Wrapper = iota + 1
	Map
	Pointer
)

// String returns the Go spelling of the wrapper
func (w Wrapper) String() string {
	switch w {
	case Array:
		return "[]"
	case Map:
		return "map[string]"
	case Pointer:
		return "*"
	default:
		return "?"
	}
}

// TypeRef references a data type through an ordered wrapper chain, outermost
// wrapper first.
type TypeRef struct {
	Name     string
	Wrappers []Wrapper
}

// String renders the reference in Go syntax.
func (r TypeRef) String() string {
	var sb strings.Builder
	for _, w := range r.Wrappers {
		sb.WriteString(w.String())
	}
	sb.WriteString(r.Name)
	return sb.String()
}

// Equal compares name and wrapper chain.
func (r TypeRef) Equal(o TypeRef) bool {
	if r.Name != o.Name || len(r.Wrappers) != len(o.Wrappers) {
		return false
	}
	for i := range r.Wrappers {
		if r.Wrappers[i] != o.Wrappers[i] {
			return false
		}
	}
	return true
}

// IsZero reports whether the reference names nothing.
func (r TypeRef) IsZero() bool {
	return r.Name == ""
}

// Wrap returns r with w added as the outermost wrapper.
func (r TypeRef) Wrap(w Wrapper) TypeRef {
	wrappers := make([]Wrapper, 0, len(r.Wrappers)+1)
	wrappers = append(wrappers, w)
	wrappers = append(wrappers, r.Wrappers...)
	return TypeRef{Name: r.Name, Wrappers: wrappers}
}

// Elem strips the outermost wrapper.
func (r TypeRef) Elem() TypeRef {
	if len(r.Wrappers) == 0 {
		return r
	}
	return TypeRef{Name: r.Name, Wrappers: append([]Wrapper(nil), r.Wrappers[1:]...)}
}

// WithName returns r with the same wrappers around a different name.
func (r TypeRef) WithName(name string) TypeRef {
	return TypeRef{Name: name, Wrappers: append([]Wrapper(nil), r.Wrappers...)}
}

// ParseTypeRef parses a Go type expression such as `[]*models.User` or
// `map[string]int`.
func ParseTypeRef(s string) (TypeRef, error) {
	var ref TypeRef
	rest := strings.TrimSpace(s)
	for {
		switch {
		case strings.HasPrefix(rest, "[]"):
			if rest == "[]byte" || rest == "[]uint8" {
				ref.Name = "[]byte"
				return ref, nil
			}
			ref.Wrappers = append(ref.Wrappers, Array)
			rest = rest[2:]
			continue
		case strings.HasPrefix(rest, "*"):
			ref.Wrappers = append(ref.Wrappers, Pointer)
			rest = rest[1:]
			continue
		case strings.HasPrefix(rest, "map["):
			end := strings.IndexByte(rest, ']')
			if end < 0 {
				return TypeRef{}, fmt.Errorf("malformed map type %q", s)
			}
			ref.Wrappers = append(ref.Wrappers, Map)
			rest = rest[end+1:]
			continue
		}
		break
	}
	if rest == "interface{}" {
		rest = "any"
	}
	if !validTypeName(rest) {
		return TypeRef{}, fmt.Errorf("malformed type %q", s)
	}
	ref.Name = rest
	return ref, nil
}

func validTypeName(s string) bool {
	if s == "" || strings.HasPrefix(s, ".") || strings.HasSuffix(s, ".") {
		return false
	}
	for _, c := range s {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_', c == '.':
		default:
			return false
		}
	}
	return true
}

// Scope is the naming context a raw type reference was written in.
type Scope struct {
	Package string
	// ImportPath is the import path of the scope's own package, empty when
	// no module was found.
	ImportPath string
	// Imports maps a file's local import names to import paths.
	Imports map[string]string
}

// Kind separates struct declarations from named non-struct types.
type Kind int

const (
	KindStruct Kind = iota
	KindNamed
)

// FieldDef is one struct field.
type FieldDef struct {
	Name        string
	Type        TypeRef
	JSONName    string
	OmitEmpty   bool
	Example     string
	HasExample  bool
	Required    bool
	Embedded    bool
	Validate    string
	Description string
	Line        int
}

// PropertyName is the JSON name the field is serialized under.
func (f FieldDef) PropertyName() string {
	if f.JSONName != "" {
		return f.JSONName
	}
	return f.Name
}

// TypeDef is a declared data type. Embedded types are referenced by key
// through fields flagged Embedded, never included structurally.
//
// Key identifies the type by import path (`example.com/app/models.User`).
// Name is the component name it is emitted under (`models.User`), unique
// across the table.
type TypeDef struct {
	Key         string
	Name        string
	Package     string
	ImportPath  string
	TypeName    string
	Kind        Kind
	Fields      []FieldDef
	Underlying  TypeRef
	Enum        []string
	Description string
	Pos         diag.Position
	Scope       Scope
}

// Embedded returns the keys of the embedded types, in order.
func (d *TypeDef) Embedded() []string {
	var names []string
	for _, f := range d.Fields {
		if f.Embedded {
			names = append(names, f.Type.Name)
		}
	}
	return names
}

// ConstDecl is a typed constant, used to collect enum values.
type ConstDecl struct {
	TypeName string
	Value    string
}
