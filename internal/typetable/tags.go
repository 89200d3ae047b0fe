package typetable

import (
	"reflect"
	"strings"
)

// fieldTags holds what the struct tag of a field says about its schema.
type fieldTags struct {
	JSONName   string
	OmitEmpty  bool
	Skip       bool
	Example    string
	HasExample bool
	Validate   string
	Required   bool
}

// parseFieldTags reads the json, example, validate, binding and swaggerignore
// keys of a raw struct tag literal (backquotes included or not).
func parseFieldTags(raw string) fieldTags {
	var ft fieldTags
	if raw == "" {
		return ft
	}
	tag := reflect.StructTag(strings.Trim(raw, "`"))

	if jsonTag, ok := tag.Lookup("json"); ok {
		if jsonTag == "-" {
			ft.Skip = true
			return ft
		}
		name, opts := parseTagOptions(jsonTag)
		ft.JSONName = name
		for _, o := range opts {
			if o == "omitempty" || o == "omitzero" {
				ft.OmitEmpty = true
			}
		}
	}
	if ignore, ok := tag.Lookup("swaggerignore"); ok && strings.EqualFold(strings.TrimSpace(ignore), "true") {
		ft.Skip = true
		return ft
	}
	if example, ok := tag.Lookup("example"); ok {
		ft.Example = example
		ft.HasExample = true
	}
	if v, ok := tag.Lookup("validate"); ok {
		ft.Validate = v
	}
	ft.Required = IsRequired(ft.Validate)
	if b, ok := tag.Lookup("binding"); ok && IsRequired(b) {
		ft.Required = true
	}
	return ft
}

// parseTagOptions splits `name,opt1,opt2`. The first item is the name, which
// may be empty.
func parseTagOptions(tag string) (string, []string) {
	parts := strings.Split(tag, ",")
	name := strings.TrimSpace(parts[0])
	var opts []string
	for _, p := range parts[1:] {
		if p = strings.TrimSpace(p); p != "" {
			opts = append(opts, p)
		}
	}
	return name, opts
}

// IsRequired checks if a field is required based on validate tags
func IsRequired(validateTag string) bool {
	if validateTag == "" {
		return false
	}

	hasRequired := false
	hasOmitempty := false
	for _, tag := range strings.Split(validateTag, ",") {
		switch strings.TrimSpace(tag) {
		case "required":
			hasRequired = true
		case "omitempty":
			hasOmitempty = true
		}
	}
	return hasRequired && !hasOmitempty
}
