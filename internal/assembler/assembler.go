// Package assembler combines the interpreted fragments and the resolved
// schemas into one OpenAPI document and checks the cross-file invariants.
package assembler

import (
	"fmt"
	"sort"
	"strings"

	"github.com/example/swagdoc/internal/diag"
	"github.com/example/swagdoc/internal/interpreter"
	"github.com/example/swagdoc/internal/openapi"
	"github.com/example/swagdoc/internal/resolver"
	"github.com/example/swagdoc/internal/typetable"
	"golang.org/x/mod/semver"
)

// Input is everything a document is assembled from. Nothing in it is
// modified.
type Input struct {
	General     *interpreter.General
	Operations  []*interpreter.OperationFragment
	Table       *typetable.Table
	Version     string
	GeneralFile string
	// Mapper maps validate tags; nil uses the default mapper.
	Mapper *resolver.ConstraintMapper
}

type assembly struct {
	in      Input
	version string
	is31    bool
	diags   *diag.List
	res     *resolver.Resolver
	schemes map[string]bool
}

// Assemble builds the document. The first fatal inconsistency is returned
// as a *diag.Error; warnings go to diags.
func Assemble(in Input, diags *diag.List) (*openapi.Document, error) {
	version := in.Version
	if version == "" {
		version = openapi.DefaultVersion
	}
	if !supported(version) {
		return nil, diag.Configurationf(diag.ErrUnsupportedVersion,
			"openapi version %q is not one of %s", version, strings.Join(openapi.SupportedVersions, ", "))
	}
	g := in.General
	if g == nil {
		g = interpreter.NewGeneral()
	}
	a := &assembly{
		in:      in,
		version: version,
		is31:    semver.Compare("v"+version, "v"+openapi.Version310) >= 0,
		diags:   diags,
		res:     resolver.New(in.Table, diags, in.Mapper),
		schemes: make(map[string]bool),
	}

	info, err := a.info(g)
	if err != nil {
		return nil, err
	}
	doc := &openapi.Document{
		OpenAPI:      version,
		Info:         info,
		ExternalDocs: cloneExternalDocs(g.Info.ExternalDocs),
		Paths:        make(map[string]*openapi.PathItem),
	}
	if doc.Servers, err = a.servers(g); err != nil {
		return nil, err
	}

	securitySchemes, err := a.securitySchemes(g.Schemes)
	if err != nil {
		return nil, err
	}
	doc.Security = a.requirements(g.Info.Security, diag.Position{File: in.GeneralFile})

	if err := a.operations(doc, g); err != nil {
		return nil, err
	}
	schemas, err := a.res.Drain()
	if err != nil {
		return nil, err
	}

	if len(schemas) > 0 || len(securitySchemes) > 0 {
		doc.Components = &openapi.Components{SecuritySchemes: securitySchemes}
		if len(schemas) > 0 {
			doc.Components.Schemas = schemas
		}
	}
	doc.Tags = a.tags(g.Info.Tags)
	a.normalize(doc)
	return doc, nil
}

func supported(version string) bool {
	for _, v := range openapi.SupportedVersions {
		if v == version {
			return true
		}
	}
	return false
}

func (a *assembly) info(g *interpreter.General) (openapi.Info, error) {
	gi := g.Info
	pos := diag.Position{File: a.in.GeneralFile}
	if gi.Title == "" {
		return openapi.Info{}, diag.Structuralf(diag.ErrMissingTitle, pos, "general info has no @title")
	}
	if gi.Version == "" {
		return openapi.Info{}, diag.Structuralf(diag.ErrMissingVersion, pos, "general info has no @version")
	}
	info := openapi.Info{
		Title:          gi.Title,
		Version:        gi.Version,
		Description:    gi.Description,
		TermsOfService: gi.TermsOfService,
	}
	if gi.Contact != (openapi.Contact{}) {
		c := gi.Contact
		info.Contact = &c
	}
	if gi.License != (openapi.License{}) {
		if gi.License.Name == "" {
			a.diags.Warnf(pos, "license without @license.name dropped")
		} else {
			l := gi.License
			info.License = &l
		}
	}
	return info, nil
}

// servers returns the declared servers, or the legacy host/basePath/schemes
// combination when none are declared.
func (a *assembly) servers(g *interpreter.General) ([]openapi.Server, error) {
	seen := make(map[string]diag.Position)
	var out []openapi.Server
	for _, s := range g.Servers {
		if prev, ok := seen[s.URL]; ok {
			err := diag.Structuralf(diag.ErrDuplicateServer, s.Pos, "server %s declared twice", s.URL)
			err.Related = []diag.Position{prev}
			return nil, err
		}
		seen[s.URL] = s.Pos
		out = append(out, openapi.Server{URL: s.URL, Description: s.Description})
	}

	gi := g.Info
	if len(out) > 0 {
		if gi.Host != "" || gi.BasePath != "" {
			a.diags.Warnf(diag.Position{File: a.in.GeneralFile}, "@host and @BasePath are ignored when @server.url is declared")
		}
		return out, nil
	}
	if gi.Host != "" {
		schemes := gi.Schemes
		if len(schemes) == 0 {
			schemes = []string{"http"}
		}
		for _, scheme := range schemes {
			out = append(out, openapi.Server{URL: fmt.Sprintf("%s://%s%s", scheme, gi.Host, gi.BasePath)})
		}
		return out, nil
	}
	if gi.BasePath != "" {
		out = append(out, openapi.Server{URL: gi.BasePath})
	}
	return out, nil
}

// requirements copies security requirements, warning about schemes that
// were never declared.
func (a *assembly) requirements(reqs []openapi.SecurityRequirement, pos diag.Position) []openapi.SecurityRequirement {
	if len(reqs) == 0 {
		return nil
	}
	out := make([]openapi.SecurityRequirement, 0, len(reqs))
	for _, req := range reqs {
		c := make(openapi.SecurityRequirement, len(req))
		names := make([]string, 0, len(req))
		for name, scopes := range req {
			c[name] = append([]string{}, scopes...)
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if !a.schemes[name] {
				a.diags.Warnf(pos, "security requirement names undeclared scheme %s", name)
			}
		}
		out = append(out, c)
	}
	return out
}

// tags lists declared tags in declaration order, then the tags only
// operations use, sorted.
func (a *assembly) tags(declared []openapi.Tag) []openapi.Tag {
	var out []openapi.Tag
	known := make(map[string]bool)
	for _, t := range declared {
		if known[t.Name] {
			continue
		}
		known[t.Name] = true
		t.ExternalDocs = cloneExternalDocs(t.ExternalDocs)
		out = append(out, t)
	}
	var extra []string
	for _, op := range a.in.Operations {
		for _, name := range op.Tags {
			if !known[name] {
				known[name] = true
				extra = append(extra, name)
			}
		}
	}
	sort.Strings(extra)
	for _, name := range extra {
		out = append(out, openapi.Tag{Name: name})
	}
	return out
}

func cloneExternalDocs(d *openapi.ExternalDocs) *openapi.ExternalDocs {
	if d == nil {
		return nil
	}
	c := *d
	return &c
}
