// Package locator finds the source files of the scanned tree and associates
// their comment blocks with the declarations that follow them.
package locator

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/example/swagdoc/internal/diag"
	"golang.org/x/mod/modfile"
)

// DefaultGeneralInfo is the entry file searched for when none is configured.
const DefaultGeneralInfo = "main.go"

// maxEntryDepth bounds the search for DefaultGeneralInfo below a root.
const maxEntryDepth = 3

// Config describes what to scan.
type Config struct {
	SearchDirs  []string
	ExcludeDirs []string
	GeneralInfo string
	// MaxFileSize in bytes; larger files are skipped. Zero disables the limit.
	MaxFileSize int64
	Workers     int
}

// Module is a Go module root found above a search directory.
type Module struct {
	Dir  string
	Path string
}

// SkippedFile is a source file left out of the scan.
type SkippedFile struct {
	Path   string
	Reason string
}

// Plan is the outcome of discovery: every file to scan, in sorted order.
type Plan struct {
	Files       []string
	GeneralInfo string
	Modules     []Module
	Skipped     []SkippedFile
}

// Discover walks the search directories without opening any source file.
// Configuration problems are reported here, before scanning begins.
func Discover(cfg Config) (*Plan, error) {
	if len(cfg.SearchDirs) == 0 {
		return nil, diag.Configurationf(diag.ErrInvalidConfig, "no search directories configured")
	}

	excluded := make(map[string]bool, len(cfg.ExcludeDirs))
	for _, name := range cfg.ExcludeDirs {
		excluded[name] = false
	}

	plan := &Plan{}
	seen := make(map[string]bool)
	listed := make(map[string]bool)
	var candidates []string

	for _, root := range cfg.SearchDirs {
		root = filepath.Clean(root)
		info, err := os.Stat(root)
		if err != nil || !info.IsDir() {
			return nil, diag.Configurationf(diag.ErrSearchDirMissing, "search directory %s does not exist", root)
		}

		err = filepath.WalkDir(root, func(path string, de fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if de.IsDir() {
				return visitDir(root, path, de, excluded)
			}
			if !isSourceFile(de.Name()) || seen[path] {
				return nil
			}
			seen[path] = true
			if de.Name() == DefaultGeneralInfo && depth(root, path) <= maxEntryDepth {
				candidates = append(candidates, path)
			}
			if cfg.MaxFileSize > 0 {
				fi, err := de.Info()
				if err != nil {
					return err
				}
				if fi.Size() > cfg.MaxFileSize {
					plan.Skipped = append(plan.Skipped, SkippedFile{Path: path, Reason: "exceeds maximum file size"})
					return nil
				}
			}
			listed[path] = true
			plan.Files = append(plan.Files, path)
			return nil
		})
		if err != nil {
			return nil, err
		}

		if mod, ok := findModule(root); ok {
			plan.Modules = append(plan.Modules, mod)
		}
	}

	var unmatched []string
	for name, hit := range excluded {
		if !hit {
			unmatched = append(unmatched, name)
		}
	}
	if len(unmatched) > 0 {
		sort.Strings(unmatched)
		return nil, diag.Configurationf(diag.ErrExcludeUnmatched, "excluded directory %s matches nothing under %s",
			strings.Join(unmatched, ", "), strings.Join(cfg.SearchDirs, ", "))
	}

	entry, err := locateGeneralInfo(cfg, candidates)
	if err != nil {
		return nil, err
	}
	// The entry file is always scanned, even when oversized or outside the
	// search directories.
	plan.GeneralInfo = entry
	if !listed[entry] {
		plan.Files = append(plan.Files, entry)
		kept := plan.Skipped[:0]
		for _, sk := range plan.Skipped {
			if sk.Path != entry {
				kept = append(kept, sk)
			}
		}
		plan.Skipped = kept
	}

	sort.Strings(plan.Files)
	return plan, nil
}

// visitDir prunes excluded and tool-ignored directories. Exclusions are
// checked first so an excluded name is recorded as matched.
func visitDir(root, path string, de fs.DirEntry, excluded map[string]bool) error {
	if path == root {
		return nil
	}
	name := de.Name()
	if _, ok := excluded[name]; ok {
		excluded[name] = true
		return filepath.SkipDir
	}
	if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") || name == "testdata" {
		return filepath.SkipDir
	}
	return nil
}

func isSourceFile(name string) bool {
	return strings.HasSuffix(name, ".go") && !strings.HasSuffix(name, "_test.go")
}

func depth(root, path string) int {
	rel, err := filepath.Rel(root, filepath.Dir(path))
	if err != nil || rel == "." {
		return 0
	}
	return strings.Count(filepath.ToSlash(rel), "/") + 1
}

// locateGeneralInfo resolves the configured entry file, relative to a
// search directory or to the working directory, or falls back to the
// shallowest main.go found while walking.
func locateGeneralInfo(cfg Config, candidates []string) (string, error) {
	if cfg.GeneralInfo == "" {
		if len(candidates) == 0 {
			return "", diag.Configurationf(diag.ErrGeneralInfoMissing, "no %s found in %s", DefaultGeneralInfo, strings.Join(cfg.SearchDirs, ", "))
		}
		best := candidates[0]
		for _, c := range candidates[1:] {
			if depth(".", c) < depth(".", best) || (depth(".", c) == depth(".", best) && c < best) {
				best = c
			}
		}
		return best, nil
	}

	var tries []string
	if !filepath.IsAbs(cfg.GeneralInfo) {
		for _, dir := range cfg.SearchDirs {
			tries = append(tries, filepath.Join(dir, cfg.GeneralInfo))
		}
	}
	tries = append(tries, cfg.GeneralInfo)
	for _, p := range tries {
		p = filepath.Clean(p)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, nil
		}
	}
	return "", diag.Configurationf(diag.ErrGeneralInfoMissing, "general info file %s not found", cfg.GeneralInfo)
}

// findModule reads the module path of the closest go.mod at or above dir.
func findModule(dir string) (Module, bool) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return Module{}, false
	}
	for {
		data, err := os.ReadFile(filepath.Join(abs, "go.mod"))
		if err == nil {
			if path := modfile.ModulePath(data); path != "" {
				return Module{Dir: abs, Path: path}, true
			}
			return Module{}, false
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return Module{}, false
		}
		parent := filepath.Dir(abs)
		if parent == abs {
			return Module{}, false
		}
		abs = parent
	}
}

// ImportPath derives the import path of the package in dir from the
// discovered modules, preferring the innermost module.
func (p *Plan) ImportPath(dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return ""
	}
	var best Module
	for _, m := range p.Modules {
		if (abs == m.Dir || strings.HasPrefix(abs, m.Dir+string(filepath.Separator))) && len(m.Dir) > len(best.Dir) {
			best = m
		}
	}
	if best.Path == "" {
		return ""
	}
	rel, err := filepath.Rel(best.Dir, abs)
	if err != nil || rel == "." {
		return best.Path
	}
	return best.Path + "/" + filepath.ToSlash(rel)
}
