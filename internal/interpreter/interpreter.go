package interpreter

import (
	"github.com/example/swagdoc/internal/diag"
	"github.com/example/swagdoc/internal/directive"
	"github.com/example/swagdoc/internal/typetable"
	"github.com/go-openapi/strfmt"
	"github.com/go-playground/validator/v10"
)

// Interpreter dispatches directives to fragment builders. It holds no
// per-run state and is safe for concurrent use.
type Interpreter struct {
	validate *validator.Validate
	formats  strfmt.Registry
}

// New creates an interpreter.
func New() *Interpreter {
	return &Interpreter{
		validate: validator.New(),
		formats:  strfmt.Default,
	}
}

// NewGeneral returns an empty general-info accumulator.
func NewGeneral() *General {
	return &General{set: make(map[string]diag.Position)}
}

// Block interprets one comment block. A block carrying @Router yields one
// operation fragment per route. In the entry file every other block feeds g.
// Anything else is reported and ignored.
func (in *Interpreter) Block(block directive.CommentBlock, entry bool, scope typetable.Scope, g *General, diags *diag.List) []*OperationFragment {
	dirs := directive.Tokenize(block)
	if len(dirs) == 0 {
		return nil
	}
	if hasRouter(dirs) {
		return in.Operation(block, dirs, scope, diags)
	}
	if entry {
		in.General(dirs, g, diags)
		return nil
	}

	reported := false
	for _, d := range dirs {
		if d.Kind == directive.KindUnknown {
			diags.Warnf(d.Pos, "unknown directive @%s", d.Keyword)
			continue
		}
		if !reported {
			reported = true
			if isOperationKeyword(d.Name) && !block.FreeStanding() && block.Decl.Kind == directive.DeclFunc {
				diags.Warnf(d.Pos, "directives on %s ignored: no @Router", block.Decl.Name)
			} else {
				diags.Warnf(d.Pos, "@%s ignored: only operation blocks and the general info file carry directives", d.Keyword)
			}
		}
	}
	return nil
}

func hasRouter(dirs []directive.Directive) bool {
	for _, d := range dirs {
		if d.Name == directive.Router || d.Name == directive.DeprecatedRouter {
			return true
		}
	}
	return false
}

func isOperationKeyword(name string) bool {
	switch name {
	case directive.Summary, directive.Description, directive.ID, directive.Tags,
		directive.Accept, directive.Produce, directive.Param, directive.Success,
		directive.Failure, directive.Response, directive.Header, directive.Router,
		directive.DeprecatedRouter, directive.Security, directive.Deprecated:
		return true
	}
	return false
}
