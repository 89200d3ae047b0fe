package interpreter

import (
	"strings"

	"github.com/example/swagdoc/internal/diag"
	"github.com/example/swagdoc/internal/directive"
	"github.com/example/swagdoc/internal/openapi"
)

var securityKinds = map[string]SchemeKind{
	directive.SecAPIKey:            APIKey,
	directive.SecBasic:             Basic,
	directive.SecBearer:            Bearer,
	directive.SecJWT:               Bearer,
	directive.SecOAuth2Implicit:    OAuth2Implicit,
	directive.SecOAuth2Password:    OAuth2Password,
	directive.SecOAuth2Application: OAuth2ClientCredentials,
	directive.SecOAuth2AccessCode:  OAuth2AuthorizationCode,
	directive.SecOpenIDConnect:     OpenIDConnect,
}

// General folds a free-standing block into g. The security context opened
// by `@securityDefinitions.*` lasts until the next one or the end of the block.
func (in *Interpreter) General(dirs []directive.Directive, g *General, diags *diag.List) {
	if g.set == nil {
		g.set = make(map[string]diag.Position)
	}
	var sec *SecuritySchemeDef

	for _, d := range dirs {
		if d.Kind == directive.KindUnknown {
			diags.Warnf(d.Pos, "unknown directive @%s", d.Keyword)
			continue
		}

		if strings.HasPrefix(d.Name, directive.SecurityDefinitionsPrefix) {
			sec = g.openScheme(d, diags)
			continue
		}
		if sec != nil && in.securityFollowUp(sec, d, diags) {
			continue
		}

		switch d.Name {
		case directive.Title:
			g.setString(d, &g.Info.Title, d.Arg, diags)
			g.Info.TitlePos = d.Pos
		case directive.Version:
			g.setString(d, &g.Info.Version, d.Arg, diags)
			g.Info.VersionPos = d.Pos
		case directive.Description:
			g.setString(d, &g.Info.Description, d.Text(), diags)
		case directive.TermsOfService:
			g.setString(d, &g.Info.TermsOfService, d.Arg, diags)
		case directive.ContactName:
			g.setString(d, &g.Info.Contact.Name, d.Arg, diags)
		case directive.ContactURL:
			in.checkValue(d, "url", diags)
			g.setString(d, &g.Info.Contact.URL, d.Arg, diags)
		case directive.ContactEmail:
			in.checkValue(d, "email", diags)
			g.setString(d, &g.Info.Contact.Email, d.Arg, diags)
		case directive.LicenseName:
			g.setString(d, &g.Info.License.Name, d.Arg, diags)
		case directive.LicenseURL:
			in.checkValue(d, "url", diags)
			g.setString(d, &g.Info.License.URL, d.Arg, diags)
		case directive.LicenseIdentifier:
			g.setString(d, &g.Info.License.Identifier, d.Arg, diags)
		case directive.Host:
			g.setString(d, &g.Info.Host, d.Arg, diags)
		case directive.BasePath:
			g.setString(d, &g.Info.BasePath, d.Arg, diags)
		case directive.Schemes:
			g.Info.Schemes = directive.SplitList(strings.Join(strings.Fields(d.Arg), ","))
		case directive.Accept:
			g.Info.Consumes = parseMIMEList(d.Arg)
		case directive.Produce:
			g.Info.Produces = parseMIMEList(d.Arg)
		case directive.TagName:
			if d.Arg == "" {
				diags.Warnf(d.Pos, "@%s needs a tag name", d.Keyword)
				continue
			}
			g.Info.Tags = append(g.Info.Tags, openapi.Tag{Name: d.Arg})
		case directive.TagDescription, directive.TagDocsURL, directive.TagDocsDescription:
			g.tagDetail(d, diags)
		case directive.ExternalDocsURL, directive.ExternalDocsDescription:
			if g.Info.ExternalDocs == nil {
				g.Info.ExternalDocs = &openapi.ExternalDocs{}
			}
			if d.Name == directive.ExternalDocsURL {
				g.Info.ExternalDocs.URL = d.Arg
			} else {
				g.Info.ExternalDocs.Description = d.Text()
			}
		case directive.Security:
			req, ok := parseSecurity(d.Arg)
			if !ok {
				diags.Warnf(d.Pos, "malformed @%s %q", d.Keyword, d.Arg)
				continue
			}
			g.Info.Security = append(g.Info.Security, req)
		case directive.ServerURL:
			if d.Arg == "" {
				diags.Warnf(d.Pos, "@%s needs a url", d.Keyword)
				continue
			}
			g.Servers = append(g.Servers, ServerEntry{URL: d.Arg, Pos: d.Pos})
		case directive.ServerDescription:
			if len(g.Servers) == 0 {
				diags.Warnf(d.Pos, "@%s without a preceding @server.url", d.Keyword)
				continue
			}
			g.Servers[len(g.Servers)-1].Description = d.Text()
		case directive.In, directive.Name, directive.AuthorizationURL, directive.TokenURL,
			directive.RefreshURL, directive.OpenIDConnectURL:
			diags.Warnf(d.Pos, "@%s outside a @securityDefinitions block", d.Keyword)
		default:
			if strings.HasPrefix(d.Name, directive.ScopePrefix) {
				diags.Warnf(d.Pos, "@%s outside a @securityDefinitions block", d.Keyword)
				continue
			}
			diags.Warnf(d.Pos, "operation directive @%s without @Router", d.Keyword)
		}
	}
}

// setString assigns a single-valued field, warning when it overrides an
// earlier directive.
func (g *General) setString(d directive.Directive, dst *string, value string, diags *diag.List) {
	if value == "" {
		diags.Warnf(d.Pos, "@%s has no value", d.Keyword)
		return
	}
	if prev, ok := g.set[d.Name]; ok {
		diags.Warnf(d.Pos, "@%s overrides the value set at %s", d.Keyword, prev)
	}
	g.set[d.Name] = d.Pos
	*dst = value
}

func (g *General) tagDetail(d directive.Directive, diags *diag.List) {
	if len(g.Info.Tags) == 0 {
		diags.Warnf(d.Pos, "@%s without a preceding @tag.name", d.Keyword)
		return
	}
	tag := &g.Info.Tags[len(g.Info.Tags)-1]
	switch d.Name {
	case directive.TagDescription:
		tag.Description = d.Text()
	case directive.TagDocsURL:
		if tag.ExternalDocs == nil {
			tag.ExternalDocs = &openapi.ExternalDocs{}
		}
		tag.ExternalDocs.URL = d.Arg
	case directive.TagDocsDescription:
		if tag.ExternalDocs == nil {
			tag.ExternalDocs = &openapi.ExternalDocs{}
		}
		tag.ExternalDocs.Description = d.Text()
	}
}

// openScheme starts a security definition. Redefining a name replaces the
// earlier definition in place.
func (g *General) openScheme(d directive.Directive, diags *diag.List) *SecuritySchemeDef {
	kindName := d.Suffix(directive.SecurityDefinitionsPrefix)
	kind, ok := securityKinds[kindName]
	if !ok {
		diags.Warnf(d.Pos, "unknown security definition kind %q", kindName)
		return nil
	}
	name := strings.TrimSpace(d.Arg)
	if name == "" || strings.ContainsAny(name, " \t") {
		diags.Warnf(d.Pos, "@%s needs a single scheme name", d.Keyword)
		return nil
	}
	def := SecuritySchemeDef{Name: name, Kind: kind, Pos: d.Pos}
	if kindName == directive.SecJWT {
		def.BearerFormat = "JWT"
	}
	for i := range g.Schemes {
		if g.Schemes[i].Name == name {
			diags.Warnf(d.Pos, "security scheme %s redefined; replacing the definition at %s", name, g.Schemes[i].Pos)
			g.Schemes[i] = def
			return &g.Schemes[i]
		}
	}
	g.Schemes = append(g.Schemes, def)
	return &g.Schemes[len(g.Schemes)-1]
}

// securityFollowUp applies a follow-up directive to the open scheme. It
// returns false when the directive is not a security follow-up.
func (in *Interpreter) securityFollowUp(sec *SecuritySchemeDef, d directive.Directive, diags *diag.List) bool {
	misplaced := func() bool {
		diags.Warnf(d.Pos, "@%s does not apply to %s scheme %s", d.Keyword, sec.Kind, sec.Name)
		return true
	}

	switch {
	case d.Name == directive.Description:
		sec.Description = d.Text()
	case d.Name == directive.In:
		if sec.Kind != APIKey {
			return misplaced()
		}
		switch loc := strings.ToLower(d.Arg); loc {
		case "header", "query", "cookie":
			sec.In = loc
		default:
			diags.Warnf(d.Pos, "api key location must be header, query or cookie, got %q", d.Arg)
		}
	case d.Name == directive.Name:
		if sec.Kind != APIKey {
			return misplaced()
		}
		sec.ParamName = d.Arg
	case d.Name == directive.AuthorizationURL:
		if sec.Kind != OAuth2Implicit && sec.Kind != OAuth2AuthorizationCode {
			return misplaced()
		}
		sec.AuthorizationURL = d.Arg
	case d.Name == directive.TokenURL:
		if sec.Kind != OAuth2Password && sec.Kind != OAuth2ClientCredentials && sec.Kind != OAuth2AuthorizationCode {
			return misplaced()
		}
		sec.TokenURL = d.Arg
	case d.Name == directive.RefreshURL:
		if !sec.Kind.IsOAuth2() {
			return misplaced()
		}
		sec.RefreshURL = d.Arg
	case d.Name == directive.OpenIDConnectURL:
		if sec.Kind != OpenIDConnect {
			return misplaced()
		}
		sec.OpenIDConnectURL = d.Arg
	case strings.HasPrefix(d.Name, directive.ScopePrefix):
		if !sec.Kind.IsOAuth2() {
			return misplaced()
		}
		// Scope names keep the case they were written in.
		sec.Scopes = append(sec.Scopes, Scope{
			Name:        d.Keyword[len(directive.ScopePrefix):],
			Description: d.Text(),
		})
	default:
		return false
	}
	return true
}

// checkValue records a warning when the directive's value fails the
// validator tag; the value is kept either way.
func (in *Interpreter) checkValue(d directive.Directive, tag string, diags *diag.List) {
	if d.Arg == "" {
		return
	}
	if err := in.validate.Var(d.Arg, tag); err != nil {
		diags.Warnf(d.Pos, "@%s %q is not a valid %s", d.Keyword, d.Arg, tag)
	}
}
