// Package interpreter maps tokenized directives onto typed fragments: the
// free-standing general info, servers and security definitions, and one
// operation fragment per routed handler.
package interpreter

import (
	"strings"

	"github.com/example/swagdoc/internal/diag"
	"github.com/example/swagdoc/internal/openapi"
	"github.com/example/swagdoc/internal/typetable"
)

// GeneralInfo is the document-level metadata.
type GeneralInfo struct {
	Title          string
	Version        string
	Description    string
	TermsOfService string
	Contact        openapi.Contact
	License        openapi.License
	Host           string
	BasePath       string
	Schemes        []string
	Consumes       []string
	Produces       []string
	Tags           []openapi.Tag
	ExternalDocs   *openapi.ExternalDocs
	Security       []openapi.SecurityRequirement
	// TitlePos and VersionPos locate the directives, for error messages.
	TitlePos   diag.Position
	VersionPos diag.Position
}

// ServerEntry is one `@server.url` with its optional description.
type ServerEntry struct {
	URL         string
	Description string
	Pos         diag.Position
}

// SchemeKind enumerates the supported security scheme variants.
type SchemeKind int

const (
	APIKey SchemeKind = iota
	Basic
	Bearer
	OAuth2Implicit
	OAuth2Password
	OAuth2ClientCredentials
	OAuth2AuthorizationCode
	OpenIDConnect
)

// String returns the string representation of SchemeKind
func (k SchemeKind) String() string {
	switch k {
	case APIKey:
		return "apiKey"
	case Basic:
		return "basic"
	case Bearer:
		return "bearer"
	case OAuth2Implicit:
		return "oauth2.implicit"
	case OAuth2Password:
		return "oauth2.password"
	case OAuth2ClientCredentials:
		return "oauth2.application"
	case OAuth2AuthorizationCode:
		return "oauth2.accessCode"
	case OpenIDConnect:
		return "openIdConnect"
	default:
		return "unknown"
	}
}

// IsOAuth2 reports whether the kind is one of the OAuth2 flows.
func (k SchemeKind) IsOAuth2() bool {
	return k >= OAuth2Implicit && k <= OAuth2AuthorizationCode
}

// Scope is an OAuth2 scope with its description.
type Scope struct {
	Name        string
	Description string
}

// SecuritySchemeDef is a `@securityDefinitions.<kind> <name>` block.
type SecuritySchemeDef struct {
	Name             string
	Kind             SchemeKind
	Description      string
	In               string
	ParamName        string
	BearerFormat     string
	AuthorizationURL string
	TokenURL         string
	RefreshURL       string
	OpenIDConnectURL string
	Scopes           []Scope
	Pos              diag.Position
}

// General accumulates the free-standing fragments of the entry file.
type General struct {
	Info    GeneralInfo
	Servers []ServerEntry
	Schemes []SecuritySchemeDef
	// set tracks where each single-valued directive was last seen.
	set map[string]diag.Position
}

// Param is one `@Param` directive.
type Param struct {
	Name        string
	In          string
	Type        typetable.TypeRef
	Required    bool
	Description string
	Enum        []string
	Format      string
	Default     string
	HasDefault  bool
	Example     string
	HasExample  bool
	Minimum     *float64
	Maximum     *float64
	MinLength   *int
	MaxLength   *int
	Pos         diag.Position
}

// ResponseHeader is one `@Header` directive.
type ResponseHeader struct {
	Name        string
	Type        string
	Description string
}

// Response is one `@Success`, `@Failure` or `@Response` directive. A zero
// Type means the response has no body.
type Response struct {
	Code        string
	Type        typetable.TypeRef
	Description string
	Headers     []ResponseHeader
	Pos         diag.Position
}

// OperationFragment is everything the directives of one handler say about a
// single route and method.
type OperationFragment struct {
	Method      string
	Route       string
	OperationID string
	Summary     string
	Description string
	Tags        []string
	Accept      []string
	Produce     []string
	Params      []Param
	Responses   []Response
	Security    []openapi.SecurityRequirement
	Deprecated  bool
	// Scope is the naming context for the fragment's raw type references.
	Scope typetable.Scope
	Decl  string
	Pos   diag.Position
}

// Key is the method and route, as in "GET /users/{id}".
func (o *OperationFragment) Key() string {
	return strings.ToUpper(o.Method) + " " + o.Route
}

// PathParams returns the declared path parameters by name.
func (o *OperationFragment) PathParams() map[string]Param {
	out := make(map[string]Param)
	for _, p := range o.Params {
		if p.In == "path" {
			out[p.Name] = p
		}
	}
	return out
}
