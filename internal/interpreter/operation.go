package interpreter

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/example/swagdoc/internal/diag"
	"github.com/example/swagdoc/internal/directive"
	"github.com/example/swagdoc/internal/openapi"
	"github.com/example/swagdoc/internal/typetable"
)

var routerPattern = regexp.MustCompile(`^(\S+)\s+\[(\w+)\]$`)

type route struct {
	path       string
	method     string
	deprecated bool
	pos        diag.Position
}

type pendingHeader struct {
	codes  []string
	header ResponseHeader
	pos    diag.Position
}

// Operation builds the fragments of an operation block, one per @Router.
// Malformed directives are dropped with a warning; the rest still apply.
func (in *Interpreter) Operation(block directive.CommentBlock, dirs []directive.Directive, scope typetable.Scope, diags *diag.List) []*OperationFragment {
	op := &OperationFragment{Scope: scope}
	if block.Decl != nil {
		op.Decl = block.Decl.Name
	}
	var (
		routes  []route
		headers []pendingHeader
		seen    = make(map[string]diag.Position)
	)

	single := func(d directive.Directive, dst *string, value string) {
		if prev, ok := seen[d.Name]; ok {
			diags.Warnf(d.Pos, "@%s overrides the value set at %s", d.Keyword, prev)
		}
		seen[d.Name] = d.Pos
		*dst = value
	}

	for _, d := range dirs {
		if d.Kind == directive.KindUnknown {
			diags.Warnf(d.Pos, "unknown directive @%s", d.Keyword)
			continue
		}
		switch d.Name {
		case directive.Summary:
			single(d, &op.Summary, strings.Join(strings.Fields(d.Text()), " "))
		case directive.Description:
			single(d, &op.Description, d.Text())
		case directive.ID:
			single(d, &op.OperationID, d.Arg)
		case directive.Tags:
			op.Tags = appendUnique(op.Tags, directive.SplitList(d.Arg)...)
		case directive.Accept:
			op.Accept = appendUnique(op.Accept, parseMIMEList(d.Arg)...)
		case directive.Produce:
			op.Produce = appendUnique(op.Produce, parseMIMEList(d.Arg)...)
		case directive.Param:
			p, err := in.parseParam(d, diags)
			if err != nil {
				diags.Warnf(d.Pos, "malformed @%s dropped: %v", d.Keyword, err)
				continue
			}
			op.Params = append(op.Params, p)
		case directive.Success, directive.Failure, directive.Response:
			r, err := parseResponse(d)
			if err != nil {
				diags.Warnf(d.Pos, "malformed @%s dropped: %v", d.Keyword, err)
				continue
			}
			op.Responses = append(op.Responses, r)
		case directive.Header:
			codes, h, err := parseHeader(d)
			if err != nil {
				diags.Warnf(d.Pos, "malformed @%s dropped: %v", d.Keyword, err)
				continue
			}
			headers = append(headers, pendingHeader{codes: codes, header: h, pos: d.Pos})
		case directive.Router, directive.DeprecatedRouter:
			r, err := parseRouter(d.Arg)
			if err != nil {
				diags.Warnf(d.Pos, "malformed @%s dropped: %v", d.Keyword, err)
				continue
			}
			r.deprecated = d.Name == directive.DeprecatedRouter
			r.pos = d.Pos
			routes = append(routes, r)
		case directive.Security:
			req, ok := parseSecurity(d.Arg)
			if !ok {
				diags.Warnf(d.Pos, "malformed @%s %q dropped", d.Keyword, d.Arg)
				continue
			}
			op.Security = append(op.Security, req)
		case directive.Deprecated:
			op.Deprecated = true
		default:
			diags.Warnf(d.Pos, "@%s is not an operation directive and is ignored", d.Keyword)
		}
	}

	for _, ph := range headers {
		attached := false
		for i := range op.Responses {
			if matchesCode(ph.codes, op.Responses[i].Code) {
				op.Responses[i].Headers = append(op.Responses[i].Headers, ph.header)
				attached = true
			}
		}
		if !attached {
			diags.Warnf(ph.pos, "@Header for %s matches no response", strings.Join(ph.codes, ","))
		}
	}

	frags := make([]*OperationFragment, 0, len(routes))
	for i, r := range routes {
		frag := *op
		frag.Method = r.method
		frag.Route = r.path
		frag.Pos = r.pos
		frag.Deprecated = op.Deprecated || r.deprecated
		switch {
		case op.OperationID == "":
			frag.OperationID = DefaultOperationID(r.method, r.path)
		case i > 0:
			frag.OperationID = fmt.Sprintf("%s_%d", op.OperationID, i+1)
		}
		frags = append(frags, &frag)
	}
	return frags
}

func parseRouter(arg string) (route, error) {
	m := routerPattern.FindStringSubmatch(strings.TrimSpace(arg))
	if m == nil {
		return route{}, fmt.Errorf("expected `/path [method]`, got %q", arg)
	}
	method := strings.ToLower(m[2])
	if !openapi.IsMethod(method) {
		return route{}, fmt.Errorf("unsupported method %q", m[2])
	}
	if !strings.HasPrefix(m[1], "/") {
		return route{}, fmt.Errorf("route %q must start with /", m[1])
	}
	return route{path: m[1], method: method}, nil
}

// DefaultOperationID derives an operation id from method and route:
// GET /users/{id} becomes get_users_id.
func DefaultOperationID(method, path string) string {
	var sb strings.Builder
	sb.WriteString(strings.ToLower(method))
	underscore := false
	for _, c := range path {
		if c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' {
			if underscore {
				sb.WriteByte('_')
				underscore = false
			}
			sb.WriteRune(c)
			continue
		}
		underscore = true
	}
	return sb.String()
}

// parseSecurity reads `Name`, `Name[a, b]`, `Name a b` or
// `A && B[scope]` into one requirement.
func parseSecurity(arg string) (openapi.SecurityRequirement, bool) {
	req := openapi.SecurityRequirement{}
	for _, part := range strings.Split(arg, "&&") {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, false
		}
		var name string
		scopes := []string{}
		if open := strings.IndexByte(part, '['); open >= 0 {
			if !strings.HasSuffix(part, "]") {
				return nil, false
			}
			name = strings.TrimSpace(part[:open])
			scopes = append(scopes, directive.SplitList(part[open+1:len(part)-1])...)
		} else {
			fields := strings.Fields(part)
			name = fields[0]
			scopes = append(scopes, fields[1:]...)
		}
		if name == "" {
			return nil, false
		}
		req[name] = scopes
	}
	return req, true
}

func matchesCode(codes []string, code string) bool {
	for _, c := range codes {
		if c == "all" || c == code {
			return true
		}
	}
	return false
}

func appendUnique(dst []string, items ...string) []string {
	for _, it := range items {
		dup := false
		for _, have := range dst {
			if have == it {
				dup = true
				break
			}
		}
		if !dup {
			dst = append(dst, it)
		}
	}
	return dst
}
