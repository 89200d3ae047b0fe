// Package generator runs the whole pipeline: discovery, the parallel scan
// that tokenizes and interprets each file, type table construction, schema
// resolution and document assembly.
package generator

import (
	"context"
	"sort"
	"time"

	"github.com/example/swagdoc/internal/assembler"
	"github.com/example/swagdoc/internal/diag"
	"github.com/example/swagdoc/internal/interpreter"
	"github.com/example/swagdoc/internal/locator"
	"github.com/example/swagdoc/internal/openapi"
	"github.com/example/swagdoc/internal/resolver"
	"github.com/example/swagdoc/internal/typetable"
	"github.com/sirupsen/logrus"
)

// Config holds everything one run needs.
type Config struct {
	SearchDirs     []string
	ExcludeDirs    []string
	GeneralInfo    string
	OpenAPIVersion string
	// MaxFileSize in bytes; zero disables the limit.
	MaxFileSize int64
	Workers     int
	// CustomValidators maps validate tag names to the description added to
	// fields that use them.
	CustomValidators map[string]string
}

// Result is the outcome of a run. Diagnostics is filled even when Run
// fails.
type Result struct {
	Document    *openapi.Document
	Diagnostics []diag.Diagnostic
	Files       int
	Operations  int
	Skipped     []locator.SkippedFile
}

// Generator produces documents from source trees.
type Generator struct {
	cfg    Config
	log    logrus.FieldLogger
	interp *interpreter.Interpreter
}

// New creates a generator. A nil logger uses the standard logger.
func New(cfg Config, log logrus.FieldLogger) *Generator {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Generator{cfg: cfg, log: log, interp: interpreter.New()}
}

// RegisterCustomValidator adds a validate tag description.
func (g *Generator) RegisterCustomValidator(name, description string) {
	if g.cfg.CustomValidators == nil {
		g.cfg.CustomValidators = make(map[string]string)
	}
	g.cfg.CustomValidators[name] = description
}

// Run generates the document. The first fatal error stops the run and is
// returned together with the warnings recorded so far.
func (g *Generator) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	result := &Result{}

	plan, err := locator.Discover(locator.Config{
		SearchDirs:  g.cfg.SearchDirs,
		ExcludeDirs: g.cfg.ExcludeDirs,
		GeneralInfo: g.cfg.GeneralInfo,
		MaxFileSize: g.cfg.MaxFileSize,
	})
	if err != nil {
		return result, err
	}
	result.Skipped = plan.Skipped
	g.log.WithFields(logrus.Fields{
		"files":   len(plan.Files),
		"skipped": len(plan.Skipped),
		"entry":   plan.GeneralInfo,
	}).Debug("discovered source files")

	var diags diag.List
	for _, sk := range plan.Skipped {
		diags.Warnf(diag.Position{File: sk.Path}, "file skipped: %s", sk.Reason)
	}

	// Each worker writes only its own slot; general is touched by the
	// entry file's worker alone.
	general := interpreter.NewGeneral()
	fragments := make([][]*interpreter.OperationFragment, len(plan.Files))
	files, err := locator.New(g.cfg.Workers, g.log).Scan(ctx, plan, func(_ context.Context, f *locator.File) error {
		var gi *interpreter.General
		if f.GeneralInfo {
			gi = general
		}
		for _, block := range f.Blocks {
			fragments[f.Index] = append(fragments[f.Index], g.interp.Block(block, f.GeneralInfo, f.Scope, gi, &f.Diags)...)
		}
		return nil
	})
	if err != nil {
		result.Diagnostics = diags.Items()
		return result, err
	}
	result.Files = len(files)

	fileTypes := make([]typetable.FileTypes, 0, len(files))
	var ops []*interpreter.OperationFragment
	for _, f := range files {
		diags.Extend(&f.Diags)
		fileTypes = append(fileTypes, f.Types)
		ops = append(ops, fragments[f.Index]...)
	}
	result.Operations = len(ops)

	table := typetable.Build(fileTypes, &diags)
	g.log.WithFields(logrus.Fields{"types": table.Len(), "operations": len(ops)}).Debug("built type table")

	doc, err := assembler.Assemble(assembler.Input{
		General:     general,
		Operations:  ops,
		Table:       table,
		Version:     g.cfg.OpenAPIVersion,
		GeneralFile: plan.GeneralInfo,
		Mapper:      g.mapper(),
	}, &diags)
	result.Diagnostics = diags.Items()
	g.logDiagnostics(result.Diagnostics)
	if err != nil {
		return result, err
	}
	result.Document = doc

	schemas := 0
	if doc.Components != nil {
		schemas = len(doc.Components.Schemas)
	}
	g.log.WithFields(logrus.Fields{
		"files":      result.Files,
		"operations": result.Operations,
		"paths":      len(doc.Paths),
		"schemas":    schemas,
		"warnings":   len(result.Diagnostics),
		"elapsed":    time.Since(start).Round(time.Millisecond).String(),
	}).Info("generated document")
	return result, nil
}

func (g *Generator) mapper() *resolver.ConstraintMapper {
	m := resolver.NewConstraintMapper()
	names := make([]string, 0, len(g.cfg.CustomValidators))
	for name := range g.cfg.CustomValidators {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		m.Register(name, g.cfg.CustomValidators[name])
	}
	return m
}

func (g *Generator) logDiagnostics(items []diag.Diagnostic) {
	for _, d := range items {
		entry := g.log.WithField("file", d.Pos.File)
		if d.Pos.Line > 0 {
			entry = entry.WithField("line", d.Pos.Line)
		}
		entry.Warn(d.Message)
	}
}
