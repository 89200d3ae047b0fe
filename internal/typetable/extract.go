package typetable

import (
	"go/ast"
	"go/token"
	"path"
	"strconv"
	"strings"

	"github.com/example/swagdoc/internal/diag"
)

// FileTypes is the type-declaration pass result for one source file.
type FileTypes struct {
	Path       string
	Package    string
	ImportPath string
	Scope      Scope
	Defs       []*TypeDef
	Consts     []ConstDecl
}

// Extract collects the type declarations and typed constants of a parsed file.
// Type references stay as written; Build keys, names and qualifies them once
// every package and its import path is known.
func Extract(fset *token.FileSet, file *ast.File, filePath string) FileTypes {
	ft := FileTypes{
		Path:    filePath,
		Package: file.Name.Name,
		Scope:   FileScope(file),
	}

	for _, decl := range file.Decls {
		genDecl, ok := decl.(*ast.GenDecl)
		if !ok {
			continue
		}
		switch genDecl.Tok {
		case token.TYPE:
			for _, spec := range genDecl.Specs {
				typeSpec, ok := spec.(*ast.TypeSpec)
				if !ok || typeSpec.TypeParams != nil {
					continue
				}
				def := &TypeDef{
					Package:     ft.Package,
					TypeName:    typeSpec.Name.Name,
					Description: typeComment(genDecl, typeSpec),
					Pos:         diag.Position{File: filePath, Line: fset.Position(typeSpec.Pos()).Line},
					Scope:       ft.Scope,
				}
				if structType, ok := typeSpec.Type.(*ast.StructType); ok {
					def.Kind = KindStruct
					def.Fields = extractFields(fset, structType)
				} else {
					ref, ok := refFromExpr(typeSpec.Type)
					if !ok {
						continue
					}
					def.Kind = KindNamed
					def.Underlying = ref
				}
				ft.Defs = append(ft.Defs, def)
			}
		case token.CONST:
			ft.Consts = append(ft.Consts, extractConsts(genDecl)...)
		}
	}
	return ft
}

// FileScope builds the naming scope of a file from its package clause and
// import declarations.
func FileScope(file *ast.File) Scope {
	scope := Scope{Package: file.Name.Name, Imports: make(map[string]string)}
	for _, imp := range file.Imports {
		importPath, err := strconv.Unquote(imp.Path.Value)
		if err != nil {
			continue
		}
		name := PackageNameFromPath(importPath)
		if imp.Name != nil {
			name = imp.Name.Name
		}
		if name == "_" || name == "." {
			continue
		}
		scope.Imports[name] = importPath
	}
	return scope
}

// PackageNameFromPath guesses a package name from its import path: the last
// element, without a major version suffix.
func PackageNameFromPath(importPath string) string {
	base := path.Base(importPath)
	if len(base) > 1 && base[0] == 'v' && isDigits(base[1:]) {
		base = path.Base(path.Dir(importPath))
	}
	if i := strings.Index(base, ".v"); i > 0 && isDigits(base[i+2:]) {
		base = base[:i]
	}
	return strings.ReplaceAll(base, "-", "_")
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func typeComment(genDecl *ast.GenDecl, typeSpec *ast.TypeSpec) string {
	switch {
	case typeSpec.Doc != nil:
		return strings.TrimSpace(typeSpec.Doc.Text())
	case genDecl.Doc != nil && len(genDecl.Specs) == 1:
		return strings.TrimSpace(genDecl.Doc.Text())
	case typeSpec.Comment != nil:
		return strings.TrimSpace(typeSpec.Comment.Text())
	}
	return ""
}

func fieldComment(field *ast.Field) string {
	if field.Doc != nil {
		return strings.TrimSpace(field.Doc.Text())
	}
	if field.Comment != nil {
		return strings.TrimSpace(field.Comment.Text())
	}
	return ""
}

func extractFields(fset *token.FileSet, st *ast.StructType) []FieldDef {
	var fields []FieldDef
	for _, field := range st.Fields.List {
		ref, ok := refFromExpr(field.Type)
		if !ok {
			continue
		}
		var tags fieldTags
		if field.Tag != nil {
			raw, err := strconv.Unquote(field.Tag.Value)
			if err != nil {
				raw = field.Tag.Value
			}
			tags = parseFieldTags(raw)
		}
		if tags.Skip {
			continue
		}
		line := fset.Position(field.Pos()).Line

		if field.Names == nil {
			// Embedded field: with a JSON name it is an ordinary member.
			name := embeddedName(ref)
			if !ast.IsExported(name) {
				continue
			}
			fields = append(fields, FieldDef{
				Name:        name,
				Type:        ref,
				JSONName:    tags.JSONName,
				OmitEmpty:   tags.OmitEmpty,
				Example:     tags.Example,
				HasExample:  tags.HasExample,
				Required:    tags.Required,
				Embedded:    tags.JSONName == "",
				Validate:    tags.Validate,
				Description: fieldComment(field),
				Line:        line,
			})
			continue
		}

		for _, name := range field.Names {
			if !ast.IsExported(name.Name) {
				continue
			}
			fields = append(fields, FieldDef{
				Name:        name.Name,
				Type:        ref,
				JSONName:    tags.JSONName,
				OmitEmpty:   tags.OmitEmpty,
				Example:     tags.Example,
				HasExample:  tags.HasExample,
				Required:    tags.Required,
				Validate:    tags.Validate,
				Description: fieldComment(field),
				Line:        line,
			})
		}
	}
	return fields
}

// embeddedName is the implicit field name of an embedded type.
func embeddedName(ref TypeRef) string {
	name := ref.Name
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	return name
}

// refFromExpr converts a type expression into a raw TypeRef. Function and
// channel types have no JSON form and report false.
func refFromExpr(expr ast.Expr) (TypeRef, bool) {
	switch t := expr.(type) {
	case *ast.Ident:
		return TypeRef{Name: t.Name}, true
	case *ast.StarExpr:
		inner, ok := refFromExpr(t.X)
		return inner.Wrap(Pointer), ok
	case *ast.ArrayType:
		if elt, ok := t.Elt.(*ast.Ident); ok && (elt.Name == "byte" || elt.Name == "uint8") {
			return TypeRef{Name: "[]byte"}, true
		}
		inner, ok := refFromExpr(t.Elt)
		return inner.Wrap(Array), ok
	case *ast.MapType:
		inner, ok := refFromExpr(t.Value)
		return inner.Wrap(Map), ok
	case *ast.SelectorExpr:
		pkg, ok := t.X.(*ast.Ident)
		if !ok {
			return TypeRef{}, false
		}
		return TypeRef{Name: pkg.Name + "." + t.Sel.Name}, true
	case *ast.InterfaceType:
		return TypeRef{Name: "any"}, true
	case *ast.StructType:
		return TypeRef{Name: "object"}, true
	case *ast.IndexExpr:
		return refFromExpr(t.X)
	case *ast.IndexListExpr:
		return refFromExpr(t.X)
	case *ast.ParenExpr:
		return refFromExpr(t.X)
	default:
		return TypeRef{}, false
	}
}

// extractConsts finds typed constants. Only basic literal values count;
// iota sequences carry no literal and are skipped.
func extractConsts(genDecl *ast.GenDecl) []ConstDecl {
	var out []ConstDecl
	for _, spec := range genDecl.Specs {
		valueSpec, ok := spec.(*ast.ValueSpec)
		if !ok || valueSpec.Type == nil {
			continue
		}
		ident, ok := valueSpec.Type.(*ast.Ident)
		if !ok {
			continue
		}
		for i := range valueSpec.Names {
			if i >= len(valueSpec.Values) {
				break
			}
			if value, ok := constValue(valueSpec.Values[i]); ok {
				out = append(out, ConstDecl{TypeName: ident.Name, Value: value})
			}
		}
	}
	return out
}

func constValue(expr ast.Expr) (string, bool) {
	switch v := expr.(type) {
	case *ast.BasicLit:
		if v.Kind == token.STRING {
			s, err := strconv.Unquote(v.Value)
			if err != nil {
				return "", false
			}
			return s, true
		}
		return v.Value, true
	case *ast.UnaryExpr:
		if v.Op == token.SUB {
			if s, ok := constValue(v.X); ok {
				return "-" + s, true
			}
		}
	}
	return "", false
}
