// Package directive turns comment blocks into ordered directive sequences.
package directive

import (
	"strings"

	"github.com/example/swagdoc/internal/diag"
)

// DeclKind identifies the declaration a comment block precedes.
type DeclKind int

const (
	DeclNone DeclKind = iota
	DeclFunc
	DeclType
)

// String returns the string representation of DeclKind
func (k DeclKind) String() string {
	switch k {
	case DeclFunc:
		return "func"
	case DeclType:
		return "type"
	default:
		return "none"
	}
}

// Decl names the declaration a comment block is attached to.
type Decl struct {
	Kind DeclKind
	Name string
	Line int
}

// Line is one raw source line of a comment, comment syntax included.
type Line struct {
	Num  int
	Text string
}

// CommentBlock is a contiguous run of comment lines.
type CommentBlock struct {
	File  string
	Lines []Line
	Decl  *Decl
}

// StartLine returns the line number of the first comment line.
func (b CommentBlock) StartLine() int {
	if len(b.Lines) == 0 {
		return 0
	}
	return b.Lines[0].Num
}

// FreeStanding reports whether the block precedes no declaration.
func (b CommentBlock) FreeStanding() bool {
	return b.Decl == nil || b.Decl.Kind == DeclNone
}

// Kind tells known keywords from unrecognized ones.
type Kind int

const (
	KindKnown Kind = iota
	KindUnknown
)

// Directive is a single `@keyword argument` instruction.
type Directive struct {
	Kind Kind
	// Keyword is the keyword as written, Name its lower-cased form.
	Keyword string
	Name    string
	Arg     string
	// More holds continuation lines appended after the directive line.
	More []string
	Pos  diag.Position
}

// Text returns the argument joined with its continuation lines.
func (d Directive) Text() string {
	if len(d.More) == 0 {
		return d.Arg
	}
	parts := make([]string, 0, len(d.More)+1)
	if d.Arg != "" {
		parts = append(parts, d.Arg)
	}
	parts = append(parts, d.More...)
	return strings.Join(parts, "\n")
}

// Suffix returns what follows prefix in the canonical name, e.g.
// Suffix("scope.") of "scope.write" is "write".
func (d Directive) Suffix(prefix string) string {
	return strings.TrimPrefix(d.Name, prefix)
}

// Operation directive names
const (
	Summary          = "summary"
	Description      = "description"
	ID               = "id"
	Tags             = "tags"
	Accept           = "accept"
	Produce          = "produce"
	Param            = "param"
	Success          = "success"
	Failure          = "failure"
	Response         = "response"
	Header           = "header"
	Router           = "router"
	DeprecatedRouter = "deprecatedrouter"
	Security         = "security"
	Deprecated       = "deprecated"
)

// General info directive names
const (
	Title                   = "title"
	Version                 = "version"
	TermsOfService          = "termsofservice"
	ContactName             = "contact.name"
	ContactURL              = "contact.url"
	ContactEmail            = "contact.email"
	LicenseName             = "license.name"
	LicenseURL              = "license.url"
	LicenseIdentifier       = "license.identifier"
	Host                    = "host"
	BasePath                = "basepath"
	Schemes                 = "schemes"
	ServerURL               = "server.url"
	ServerDescription       = "server.description"
	TagName                 = "tag.name"
	TagDescription          = "tag.description"
	TagDocsURL              = "tag.docs.url"
	TagDocsDescription      = "tag.docs.description"
	ExternalDocsURL         = "externaldocs.url"
	ExternalDocsDescription = "externaldocs.description"

	SecurityDefinitionsPrefix = "securitydefinitions."
	ScopePrefix               = "scope."

	In               = "in"
	Name             = "name"
	AuthorizationURL = "authorizationurl"
	TokenURL         = "tokenurl"
	RefreshURL       = "refreshurl"
	OpenIDConnectURL = "openidconnecturl"
)

// Security definition kinds accepted after SecurityDefinitionsPrefix
const (
	SecAPIKey            = "apikey"
	SecBasic             = "basic"
	SecBearer            = "bearer"
	SecJWT               = "jwt"
	SecOAuth2Implicit    = "oauth2.implicit"
	SecOAuth2Password    = "oauth2.password"
	SecOAuth2Application = "oauth2.application"
	SecOAuth2AccessCode  = "oauth2.accesscode"
	SecOpenIDConnect     = "openidconnect"
)

var known = map[string]bool{}

func init() {
	for _, k := range []string{
		Summary, Description, ID, Tags, Accept, Produce, Param, Success, Failure,
		Response, Header, Router, DeprecatedRouter, Security, Deprecated,
		Title, Version, TermsOfService, ContactName, ContactURL, ContactEmail,
		LicenseName, LicenseURL, LicenseIdentifier, Host, BasePath, Schemes,
		ServerURL, ServerDescription, TagName, TagDescription, TagDocsURL,
		TagDocsDescription, ExternalDocsURL, ExternalDocsDescription,
		In, Name, AuthorizationURL, TokenURL, RefreshURL, OpenIDConnectURL,
	} {
		known[k] = true
	}
	for _, k := range []string{
		SecAPIKey, SecBasic, SecBearer, SecJWT, SecOAuth2Implicit, SecOAuth2Password,
		SecOAuth2Application, SecOAuth2AccessCode, SecOpenIDConnect,
	} {
		known[SecurityDefinitionsPrefix+k] = true
	}
}

// IsKnown reports whether the canonical (lower-case) keyword is recognized.
func IsKnown(name string) bool {
	if known[name] {
		return true
	}
	return strings.HasPrefix(name, ScopePrefix) && len(name) > len(ScopePrefix)
}
