package interpreter

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/example/swagdoc/internal/diag"
	"github.com/example/swagdoc/internal/directive"
	"github.com/example/swagdoc/internal/typetable"
)

var paramLocations = map[string]string{
	"query":    "query",
	"path":     "path",
	"header":   "header",
	"cookie":   "cookie",
	"body":     "body",
	"formdata": "formData",
}

// numericFormats are OpenAPI formats strfmt does not register.
var numericFormats = map[string]bool{
	"int32":    true,
	"int64":    true,
	"float":    true,
	"double":   true,
	"binary":   true,
	"byte":     true,
	"password": true,
}

var errMissingType = errors.New("missing type")

// parseParam reads `name in type required ["description"] [Attr(value)...]`.
func (in *Interpreter) parseParam(d directive.Directive, diags *diag.List) (Param, error) {
	fields, err := directive.Fields(d.Arg)
	if err != nil {
		return Param{}, err
	}
	if len(fields) < 4 {
		return Param{}, fmt.Errorf("want name, location, type and required flag, got %d fields", len(fields))
	}

	p := Param{Name: fields[0].Text, Pos: d.Pos}
	loc, ok := paramLocations[strings.ToLower(fields[1].Text)]
	if !ok {
		return Param{}, fmt.Errorf("unknown parameter location %q", fields[1].Text)
	}
	p.In = loc

	ref, next, err := parseTypeSpec(fields, 2)
	if err != nil {
		return Param{}, err
	}
	p.Type = ref
	if next >= len(fields) {
		return Param{}, fmt.Errorf("missing required flag")
	}
	p.Required, err = strconv.ParseBool(fields[next].Text)
	if err != nil {
		return Param{}, fmt.Errorf("required flag %q is not true or false", fields[next].Text)
	}
	next++
	if p.In == "path" && !p.Required {
		diags.Warnf(d.Pos, "path parameter %s is always required", p.Name)
		p.Required = true
	}

	if next < len(fields) {
		if _, _, isAttr := directive.Attribute(fields[next].Text); fields[next].Quoted || !isAttr {
			p.Description = fields[next].Text
			next++
		}
	}
	for _, f := range fields[next:] {
		if err := in.applyAttribute(&p, f, d, diags); err != nil {
			return Param{}, err
		}
	}
	return p, nil
}

func (in *Interpreter) applyAttribute(p *Param, f directive.Field, d directive.Directive, diags *diag.List) error {
	name, value, ok := directive.Attribute(f.Text)
	if f.Quoted || !ok {
		diags.Warnf(d.Pos, "unexpected trailing argument %q ignored", f.Text)
		return nil
	}
	switch strings.ToLower(name) {
	case "enums", "enum":
		p.Enum = directive.SplitList(value)
	case "format":
		if !in.formats.ContainsName(value) && !numericFormats[value] {
			diags.Warnf(d.Pos, "unknown format %q on parameter %s", value, p.Name)
		}
		p.Format = value
	case "default":
		p.Default, p.HasDefault = value, true
	case "example":
		p.Example, p.HasExample = value, true
	case "minimum", "maximum":
		n, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return fmt.Errorf("%s(%s) is not a number", name, value)
		}
		if strings.EqualFold(name, "minimum") {
			p.Minimum = &n
		} else {
			p.Maximum = &n
		}
	case "minlength", "maxlength":
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || n < 0 {
			return fmt.Errorf("%s(%s) is not a length", name, value)
		}
		if strings.EqualFold(name, "minlength") {
			p.MinLength = &n
		} else {
			p.MaxLength = &n
		}
	default:
		diags.Warnf(d.Pos, "unknown parameter attribute %s ignored", name)
	}
	return nil
}

// parseResponse reads `code [{wrapper} Type] ["description"]`.
func parseResponse(d directive.Directive) (Response, error) {
	fields, err := directive.Fields(d.Arg)
	if err != nil {
		return Response{}, err
	}
	if len(fields) == 0 {
		return Response{}, fmt.Errorf("missing status code")
	}
	code, err := statusCode(fields[0].Text)
	if err != nil {
		return Response{}, err
	}
	r := Response{Code: code, Pos: d.Pos}

	next := 1
	if next < len(fields) && !fields[next].Quoted && isMarker(fields[next].Text) {
		r.Type, next, err = parseTypeSpec(fields, next)
		if err != nil {
			return Response{}, err
		}
	}
	var desc []string
	for _, f := range fields[next:] {
		desc = append(desc, f.Text)
	}
	r.Description = strings.Join(desc, " ")
	if r.Description == "" {
		r.Description = defaultDescription(code)
	}
	return r, nil
}

// parseHeader reads `codes {type} name ["description"]`, codes being a
// comma list or `all`.
func parseHeader(d directive.Directive) ([]string, ResponseHeader, error) {
	fields, err := directive.Fields(d.Arg)
	if err != nil {
		return nil, ResponseHeader{}, err
	}
	if len(fields) < 3 {
		return nil, ResponseHeader{}, fmt.Errorf("want codes, {type} and name, got %d fields", len(fields))
	}
	var codes []string
	for _, c := range directive.SplitList(fields[0].Text) {
		if strings.EqualFold(c, "all") {
			codes = append(codes, "all")
			continue
		}
		code, err := statusCode(c)
		if err != nil {
			return nil, ResponseHeader{}, err
		}
		codes = append(codes, code)
	}
	if len(codes) == 0 {
		return nil, ResponseHeader{}, fmt.Errorf("missing status code")
	}
	if !isMarker(fields[1].Text) {
		return nil, ResponseHeader{}, fmt.Errorf("header type must be braced, got %q", fields[1].Text)
	}
	h := ResponseHeader{
		Type: strings.Trim(fields[1].Text, "{}"),
		Name: fields[2].Text,
	}
	if _, ok := typetable.Builtin(h.Type); !ok {
		return nil, ResponseHeader{}, fmt.Errorf("header type %q is not a primitive", h.Type)
	}
	if len(fields) > 3 {
		var desc []string
		for _, f := range fields[3:] {
			desc = append(desc, f.Text)
		}
		h.Description = strings.Join(desc, " ")
	}
	return codes, h, nil
}

// parseTypeSpec reads a type at fields[i]: either a plain TypeRef or a
// braced marker. `{array} T` wraps T in an array, `{object} T` is T, and a
// primitive marker such as `{string}` may be followed by its type name.
func parseTypeSpec(fields []directive.Field, i int) (typetable.TypeRef, int, error) {
	if i >= len(fields) || fields[i].Quoted {
		return typetable.TypeRef{}, i, errMissingType
	}
	word := fields[i].Text
	if !isMarker(word) {
		ref, err := typetable.ParseTypeRef(word)
		return ref, i + 1, err
	}

	marker := strings.ToLower(strings.Trim(word, "{}"))
	switch marker {
	case "array", "object":
		if i+1 >= len(fields) || fields[i+1].Quoted {
			return typetable.TypeRef{}, i, fmt.Errorf("%s needs a type name", word)
		}
		ref, err := typetable.ParseTypeRef(fields[i+1].Text)
		if err != nil {
			return typetable.TypeRef{}, i, err
		}
		if marker == "array" {
			ref = ref.Wrap(typetable.Array)
		}
		return ref, i + 2, nil
	}

	if _, ok := typetable.Builtin(marker); !ok {
		return typetable.TypeRef{}, i, fmt.Errorf("unknown type marker %s", word)
	}
	if i+1 < len(fields) && !fields[i+1].Quoted {
		if ref, err := typetable.ParseTypeRef(fields[i+1].Text); err == nil && namesType(ref) {
			return ref, i + 2, nil
		}
	}
	return typetable.TypeRef{Name: marker}, i + 1, nil
}

// namesType reports whether a bare word after a primitive marker is a type
// rather than the start of an unquoted description.
func namesType(ref typetable.TypeRef) bool {
	if _, ok := typetable.Builtin(ref.Name); ok {
		return true
	}
	return strings.Contains(ref.Name, ".")
}

func isMarker(s string) bool {
	return len(s) > 2 && s[0] == '{' && s[len(s)-1] == '}'
}

func statusCode(s string) (string, error) {
	if strings.EqualFold(s, "default") {
		return "default", nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 100 || n > 599 {
		return "", fmt.Errorf("status code %q must be 100..599 or default", s)
	}
	return s, nil
}

func defaultDescription(code string) string {
	if code == "default" {
		return "Default response"
	}
	n, _ := strconv.Atoi(code)
	if text := http.StatusText(n); text != "" {
		return text
	}
	return "Response " + code
}
