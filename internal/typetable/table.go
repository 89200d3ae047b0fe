package typetable

import (
	"sort"
	"strings"

	"github.com/example/swagdoc/internal/diag"
)

// Table maps type keys (`import/path.Type`) to their declarations. It is
// written once by Build and read-only afterwards.
type Table struct {
	defs map[string]*TypeDef
	// short indexes declarations by `pkg.Type`, the form handlers may use
	// without importing the package.
	short map[string][]*TypeDef
	names map[string]*TypeDef
}

// Key returns the table key of typeName declared in a package. Packages
// outside any module are keyed by package name.
func Key(importPath, pkg, typeName string) string {
	if importPath == "" {
		return pkg + "." + typeName
	}
	return importPath + "." + typeName
}

// Build indexes the per-file extraction results, in the given file order.
// A key declared twice keeps the first declaration and records a warning.
// Field types are qualified against the declaring file's scope.
func Build(files []FileTypes, diags *diag.List) *Table {
	t := &Table{
		defs:  make(map[string]*TypeDef),
		short: make(map[string][]*TypeDef),
		names: make(map[string]*TypeDef),
	}

	for _, f := range files {
		for _, def := range f.Defs {
			def.ImportPath = f.ImportPath
			def.Scope.ImportPath = f.ImportPath
			def.Key = Key(f.ImportPath, def.Package, def.TypeName)
			if prev, ok := t.defs[def.Key]; ok {
				diags.Warnf(def.Pos, "type %s already declared at %s; keeping the first declaration", def.Key, prev.Pos)
				continue
			}
			t.defs[def.Key] = def
			shortName := def.Package + "." + def.TypeName
			t.short[shortName] = append(t.short[shortName], def)
		}
	}
	t.assignNames()

	for _, f := range files {
		for _, c := range f.Consts {
			if def, ok := t.defs[Key(f.ImportPath, f.Package, c.TypeName)]; ok && def.Kind == KindNamed {
				def.Enum = append(def.Enum, c.Value)
			}
		}
	}

	for _, def := range t.defs {
		for i := range def.Fields {
			def.Fields[i].Type = t.Qualify(def.Fields[i].Type, def.Scope)
		}
		if def.Kind == KindNamed {
			def.Underlying = t.Qualify(def.Underlying, def.Scope)
		}
	}
	return t
}

// assignNames gives every declaration its component name: `pkg.Type` when
// that is unique, otherwise enough trailing import path elements to tell
// the packages apart (`v2_models.User`).
func (t *Table) assignNames() {
	shorts := make([]string, 0, len(t.short))
	for s := range t.short {
		shorts = append(shorts, s)
	}
	sort.Strings(shorts)

	for _, s := range shorts {
		if group := t.short[s]; len(group) == 1 {
			group[0].Name = s
			t.names[s] = group[0]
		}
	}
	for _, s := range shorts {
		group := t.short[s]
		if len(group) == 1 {
			continue
		}
		sort.Slice(group, func(i, j int) bool { return group[i].Key < group[j].Key })
		for depth := 2; ; depth++ {
			candidates := make([]string, len(group))
			seen := make(map[string]bool, len(group))
			unique, exhausted := true, true
			for i, def := range group {
				prefix, more := pathPrefix(def.ImportPath, def.Package, depth)
				exhausted = exhausted && !more
				candidates[i] = prefix + "." + def.TypeName
				if seen[candidates[i]] || t.names[candidates[i]] != nil {
					unique = false
				}
				seen[candidates[i]] = true
			}
			if unique || exhausted {
				for i, def := range group {
					def.Name = candidates[i]
					t.names[def.Name] = def
				}
				break
			}
		}
	}
}

// pathPrefix joins the last depth elements of importPath with underscores.
// The boolean reports whether the path has elements left beyond depth.
func pathPrefix(importPath, pkg string, depth int) (string, bool) {
	if importPath == "" {
		return pkg, false
	}
	parts := strings.Split(importPath, "/")
	more := len(parts) > depth
	if more {
		parts = parts[len(parts)-depth:]
	}
	prefix := strings.Join(parts, "_")
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		}
		return '_'
	}, prefix), more
}

// Lookup returns the declaration for a key, or for a component name when no
// key matches. The boolean is false when nothing by that name was declared.
func (t *Table) Lookup(name string) (*TypeDef, bool) {
	if def, ok := t.defs[name]; ok {
		return def, true
	}
	def, ok := t.names[name]
	return def, ok
}

// Candidates returns the keys of every declaration a `pkg.Type` reference
// could mean, in key order.
func (t *Table) Candidates(shortName string) []string {
	var keys []string
	for _, def := range t.short[shortName] {
		keys = append(keys, def.Key)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of indexed declarations.
func (t *Table) Len() int {
	return len(t.defs)
}

// Names returns every component name in ascending order.
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.names))
	for n := range t.names {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Qualify rewrites a raw reference, as written in scope, to a table key.
// Builtins stay unqualified. `alias.Type` goes through the file's imports
// to the imported package's path; an unimported `pkg.Type` is accepted when
// exactly one scanned package declares it. A bare `Type` belongs to the
// scope's own package.
func (t *Table) Qualify(ref TypeRef, scope Scope) TypeRef {
	name := ref.Name
	if _, ok := Builtin(name); ok {
		return ref
	}
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		qualifier, typeName := name[:i], name[i+1:]
		if importPath, ok := scope.Imports[qualifier]; ok {
			key := importPath + "." + typeName
			if _, ok := t.defs[key]; !ok {
				// The package may sit outside any module and be keyed by name.
				if def, ok := t.unique(PackageNameFromPath(importPath) + "." + typeName); ok && def.ImportPath == "" {
					return ref.WithName(def.Key)
				}
			}
			return ref.WithName(key)
		}
		if def, ok := t.unique(name); ok {
			return ref.WithName(def.Key)
		}
		return ref
	}
	if scope.ImportPath != "" {
		return ref.WithName(scope.ImportPath + "." + name)
	}
	if scope.Package == "" {
		return ref
	}
	shortName := scope.Package + "." + name
	if def, ok := t.unique(shortName); ok {
		return ref.WithName(def.Key)
	}
	return ref.WithName(shortName)
}

func (t *Table) unique(shortName string) (*TypeDef, bool) {
	if defs := t.short[shortName]; len(defs) == 1 {
		return defs[0], true
	}
	return nil, false
}
