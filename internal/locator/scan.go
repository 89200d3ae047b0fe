package locator

import (
	"context"
	"go/ast"
	"go/parser"
	"go/token"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/example/swagdoc/internal/diag"
	"github.com/example/swagdoc/internal/directive"
	"github.com/example/swagdoc/internal/typetable"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// File is the scan result of one source file.
type File struct {
	Index       int
	Path        string
	Package     string
	ImportPath  string
	GeneralInfo bool
	Scope       typetable.Scope
	// Blocks holds the comment blocks that contain a directive marker, in
	// line order.
	Blocks []directive.CommentBlock
	Types  typetable.FileTypes
	Diags  diag.List
}

// ProcessFunc runs inside the worker that scanned f. It must only touch f
// and state owned by f.Index.
type ProcessFunc func(ctx context.Context, f *File) error

// Locator scans planned files in parallel.
type Locator struct {
	workers int
	log     logrus.FieldLogger
}

// New creates a locator. workers <= 0 defaults to the number of CPUs.
func New(workers int, log logrus.FieldLogger) *Locator {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Locator{workers: workers, log: log}
}

// Scan parses every planned file and hands each result to process, if
// given, from the same worker. Results come back in plan order. The first
// error cancels the remaining work.
func (l *Locator) Scan(ctx context.Context, plan *Plan, process ProcessFunc) ([]*File, error) {
	files := make([]*File, len(plan.Files))
	entry, _ := filepath.Abs(plan.GeneralInfo)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.workers)
	for i, path := range plan.Files {
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			abs, _ := filepath.Abs(path)
			f := &File{
				Index:       i,
				Path:        path,
				ImportPath:  plan.ImportPath(filepath.Dir(path)),
				GeneralInfo: abs == entry,
			}
			l.scanFile(f)
			files[i] = f
			if process != nil {
				return process(gctx, f)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return files, nil
}

// scanFile parses one file. A file that does not parse is recorded as a
// warning and contributes nothing.
func (l *Locator) scanFile(f *File) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, f.Path, nil, parser.ParseComments)
	if err != nil {
		f.Diags.Warnf(diag.Position{File: f.Path}, "skipping file that does not parse: %v", err)
		return
	}
	f.Package = file.Name.Name
	f.Scope = typetable.FileScope(file)
	f.Scope.ImportPath = f.ImportPath
	f.Blocks = CommentBlocks(fset, file, f.Path)
	f.Types = typetable.Extract(fset, file, f.Path)
	f.Types.ImportPath = f.ImportPath

	l.log.WithFields(logrus.Fields{
		"file":   f.Path,
		"blocks": len(f.Blocks),
		"types":  len(f.Types.Defs),
	}).Debug("scanned file")
}

// CommentBlocks returns the file's top-level comment groups that carry a
// directive marker, each attached to the func or type declaration it
// immediately precedes. Comments inside declarations are ignored.
func CommentBlocks(fset *token.FileSet, file *ast.File, path string) []directive.CommentBlock {
	attached := make(map[*ast.CommentGroup]*directive.Decl)
	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			if d.Doc != nil {
				attached[d.Doc] = &directive.Decl{Kind: directive.DeclFunc, Name: funcName(d), Line: fset.Position(d.Pos()).Line}
			}
		case *ast.GenDecl:
			if d.Tok != token.TYPE {
				continue
			}
			for _, spec := range d.Specs {
				ts, ok := spec.(*ast.TypeSpec)
				if !ok {
					continue
				}
				doc := ts.Doc
				if doc == nil && !d.Lparen.IsValid() {
					doc = d.Doc
				}
				if doc != nil {
					attached[doc] = &directive.Decl{Kind: directive.DeclType, Name: ts.Name.Name, Line: fset.Position(ts.Pos()).Line}
				}
			}
		}
	}

	var blocks []directive.CommentBlock
	for _, group := range file.Comments {
		decl := attached[group]
		if !hasMarker(group) || decl == nil && insideDecl(group, file) {
			continue
		}
		block := directive.CommentBlock{File: path, Decl: decl}
		for _, c := range group.List {
			start := fset.Position(c.Slash).Line
			for i, text := range strings.Split(c.Text, "\n") {
				block.Lines = append(block.Lines, directive.Line{Num: start + i, Text: text})
			}
		}
		blocks = append(blocks, block)
	}
	return blocks
}

// hasMarker checks the raw comment text for a directive marker.
func hasMarker(group *ast.CommentGroup) bool {
	for _, c := range group.List {
		if strings.Contains(c.Text, "@") {
			return true
		}
	}
	return false
}

func insideDecl(group *ast.CommentGroup, file *ast.File) bool {
	for _, decl := range file.Decls {
		if group.Pos() > decl.Pos() && group.End() < decl.End() {
			return true
		}
	}
	return false
}

func funcName(d *ast.FuncDecl) string {
	if d.Recv == nil || len(d.Recv.List) == 0 {
		return d.Name.Name
	}
	recv := d.Recv.List[0].Type
	if star, ok := recv.(*ast.StarExpr); ok {
		recv = star.X
	}
	switch r := recv.(type) {
	case *ast.Ident:
		return r.Name + "." + d.Name.Name
	case *ast.IndexExpr:
		if id, ok := r.X.(*ast.Ident); ok {
			return id.Name + "." + d.Name.Name
		}
	}
	return d.Name.Name
}
