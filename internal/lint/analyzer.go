// Package lint provides a go/analysis checker for swagdoc directive
// comments, so directive mistakes surface in editors and go vet runs.
package lint

import (
	"go/ast"
	"go/token"
	"path/filepath"

	"github.com/example/swagdoc/internal/assembler"
	"github.com/example/swagdoc/internal/diag"
	"github.com/example/swagdoc/internal/interpreter"
	"github.com/example/swagdoc/internal/locator"
	"github.com/example/swagdoc/internal/typetable"
	"golang.org/x/tools/go/analysis"
)

// Analyzer reports malformed directives, duplicate operations and path
// parameters that do not match their route.
var Analyzer = &analysis.Analyzer{
	Name: "swagdoclint",
	Doc:  "checks swagdoc directive comments",
	Run:  run,
}

var generalInfo string

func init() {
	Analyzer.Flags.StringVar(&generalInfo, "general-info", locator.DefaultGeneralInfo,
		"base name of the file holding the general API info")
}

type declared struct {
	name string
	pos  token.Pos
}

func run(pass *analysis.Pass) (interface{}, error) {
	interp := interpreter.New()
	seen := make(map[string]declared)
	for _, file := range pass.Files {
		checkFile(pass, interp, file, seen)
	}
	return nil, nil
}

func checkFile(pass *analysis.Pass, interp *interpreter.Interpreter, file *ast.File, seen map[string]declared) {
	tf := pass.Fset.File(file.Pos())
	if tf == nil {
		return
	}
	entry := filepath.Base(tf.Name()) == generalInfo
	scope := typetable.FileScope(file)
	general := interpreter.NewGeneral()

	var diags diag.List
	for _, block := range locator.CommentBlocks(pass.Fset, file, tf.Name()) {
		ops := interp.Block(block, entry, scope, general, &diags)
		if len(ops) == 0 {
			continue
		}
		at := lineStart(tf, ops[0].Pos.Line)
		if block.Decl != nil {
			at = lineStart(tf, block.Decl.Line)
		}
		for _, op := range ops {
			checkOperation(pass, op, at, seen)
		}
	}
	for _, d := range diags.Items() {
		pass.Reportf(lineStart(tf, d.Pos.Line), "%s", d.Message)
	}
}

func checkOperation(pass *analysis.Pass, op *interpreter.OperationFragment, at token.Pos, seen map[string]declared) {
	key := op.Key()
	if prev, dup := seen[key]; dup {
		pass.Reportf(at, "duplicate operation %s, first declared by %s at %s", key, prev.name, pass.Fset.Position(prev.pos))
	} else {
		seen[key] = declared{name: op.Decl, pos: at}
	}

	placeholders := make(map[string]bool)
	for _, name := range assembler.Placeholders(op.Route) {
		placeholders[name] = true
	}
	declaredParams := op.PathParams()
	for _, p := range op.Params {
		if p.In == "path" && !placeholders[p.Name] {
			pass.Reportf(at, "path parameter %s has no {%s} placeholder in route %s", p.Name, p.Name, op.Route)
		}
	}
	for _, name := range assembler.Placeholders(op.Route) {
		if _, ok := declaredParams[name]; !ok {
			pass.Reportf(at, "route placeholder {%s} has no path @Param", name)
		}
	}
}

func lineStart(tf *token.File, line int) token.Pos {
	if line < 1 || line > tf.LineCount() {
		return tf.Pos(0)
	}
	return tf.LineStart(line)
}
