package assembler

import (
	"github.com/example/swagdoc/internal/diag"
	"github.com/example/swagdoc/internal/interpreter"
	"github.com/example/swagdoc/internal/openapi"
)

// securitySchemes converts the definitions, failing on the first one that
// lacks a part its kind requires.
func (a *assembly) securitySchemes(defs []interpreter.SecuritySchemeDef) (map[string]*openapi.SecurityScheme, error) {
	if len(defs) == 0 {
		return nil, nil
	}
	out := make(map[string]*openapi.SecurityScheme, len(defs))
	for _, def := range defs {
		s, err := securityScheme(def)
		if err != nil {
			return nil, err
		}
		out[def.Name] = s
		a.schemes[def.Name] = true
	}
	return out, nil
}

func securityScheme(def interpreter.SecuritySchemeDef) (*openapi.SecurityScheme, error) {
	missing := func(part string) error {
		return diag.Structuralf(diag.ErrIncompleteSecurity, def.Pos,
			"%s security scheme %s has no %s", def.Kind, def.Name, part)
	}

	s := &openapi.SecurityScheme{Description: def.Description}
	switch def.Kind {
	case interpreter.APIKey:
		if def.In == "" {
			return nil, missing("@in")
		}
		if def.ParamName == "" {
			return nil, missing("@name")
		}
		s.Type, s.In, s.Name = "apiKey", def.In, def.ParamName
	case interpreter.Basic:
		s.Type, s.Scheme = "http", "basic"
	case interpreter.Bearer:
		s.Type, s.Scheme, s.BearerFormat = "http", "bearer", def.BearerFormat
	case interpreter.OpenIDConnect:
		if def.OpenIDConnectURL == "" {
			return nil, missing("@openIdConnectUrl")
		}
		s.Type, s.OpenIDConnectURL = "openIdConnect", def.OpenIDConnectURL
	default:
		flow := &openapi.OAuthFlow{
			AuthorizationURL: def.AuthorizationURL,
			TokenURL:         def.TokenURL,
			RefreshURL:       def.RefreshURL,
			Scopes:           make(map[string]string, len(def.Scopes)),
		}
		for _, sc := range def.Scopes {
			flow.Scopes[sc.Name] = sc.Description
		}
		needsAuth := def.Kind == interpreter.OAuth2Implicit || def.Kind == interpreter.OAuth2AuthorizationCode
		needsToken := def.Kind != interpreter.OAuth2Implicit
		if needsAuth && flow.AuthorizationURL == "" {
			return nil, missing("@authorizationUrl")
		}
		if needsToken && flow.TokenURL == "" {
			return nil, missing("@tokenUrl")
		}

		s.Type = "oauth2"
		s.Flows = &openapi.OAuthFlows{}
		switch def.Kind {
		case interpreter.OAuth2Implicit:
			s.Flows.Implicit = flow
		case interpreter.OAuth2Password:
			s.Flows.Password = flow
		case interpreter.OAuth2ClientCredentials:
			s.Flows.ClientCredentials = flow
		case interpreter.OAuth2AuthorizationCode:
			s.Flows.AuthorizationCode = flow
		}
	}
	return s, nil
}
