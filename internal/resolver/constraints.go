package resolver

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/example/swagdoc/internal/openapi"
)

// ConstraintMapper maps go-playground/validator tags onto schema constraints.
type ConstraintMapper struct {
	custom map[string]string // custom validator name -> description
}

// NewConstraintMapper creates a mapper with no custom validators.
func NewConstraintMapper() *ConstraintMapper {
	return &ConstraintMapper{custom: make(map[string]string)}
}

// Register adds a description for a custom validator tag. Fields using the
// tag get the description appended.
func (m *ConstraintMapper) Register(name, description string) {
	m.custom[name] = description
}

// Apply maps validateTag onto s. Rules after `dive` apply to the items of an
// array or the values of a map.
func (m *ConstraintMapper) Apply(validateTag string, s *openapi.Schema) {
	if validateTag == "" || s == nil || s.Ref != "" {
		return
	}
	rules := splitRules(validateTag)
	for i, rule := range rules {
		if rule == "dive" {
			inner := s.Items
			if inner == nil {
				inner = s.AdditionalProperties
			}
			if inner != nil {
				m.Apply(strings.Join(rules[i+1:], ","), inner)
			}
			return
		}
		if strings.Contains(rule, "|") {
			m.applyAlternatives(strings.Split(rule, "|"), s)
			continue
		}
		m.applyRule(rule, s)
	}
}

func (m *ConstraintMapper) applyRule(rule string, s *openapi.Schema) {
	name, value := parseRule(rule)
	switch name {
	case "required", "omitempty", "":
	case "email":
		s.Format = "email"
	case "url", "uri", "http_url":
		s.Format = "uri"
	case "uuid", "uuid3", "uuid4", "uuid5":
		s.Format = "uuid"
	case "datetime":
		s.Format = "date-time"
	case "ipv4", "ip":
		s.Format = "ipv4"
	case "ipv6":
		s.Format = "ipv6"
	case "hostname", "hostname_rfc1123":
		s.Format = "hostname"
	case "base64", "base64url":
		s.Format = "byte"
	case "e164":
		s.Pattern = `^\+[1-9]\d{1,14}$`
	case "alpha":
		s.Pattern = `^[a-zA-Z]+$`
	case "alphanum":
		s.Pattern = `^[a-zA-Z0-9]+$`
	case "numeric":
		s.Pattern = `^[0-9]+$`
	case "hexadecimal":
		s.Pattern = `^[0-9a-fA-F]+$`
	case "hexcolor":
		s.Pattern = `^#[0-9a-fA-F]{6}$`
	case "latitude":
		setRange(s, -90, 90)
	case "longitude":
		setRange(s, -180, 180)
	case "min", "gte":
		m.bound(s, value, true)
	case "max", "lte":
		m.bound(s, value, false)
	case "gt":
		if v, err := strconv.ParseFloat(value, 64); err == nil {
			s.Minimum = &v
			s.ExclusiveMinimum = true
		}
	case "lt":
		if v, err := strconv.ParseFloat(value, 64); err == nil {
			s.Maximum = &v
			s.ExclusiveMaximum = true
		}
	case "len":
		if v, err := strconv.Atoi(value); err == nil && v >= 0 {
			switch s.Type {
			case "string":
				s.MinLength, s.MaxLength = intPtr(v), intPtr(v)
			case "array":
				s.MinItems, s.MaxItems = intPtr(v), intPtr(v)
			}
		}
	case "oneof":
		if value != "" {
			s.Enum = nil
			for _, v := range strings.Fields(value) {
				s.Enum = append(s.Enum, TypedValue(v, s))
			}
		}
	case "contains":
		if value != "" {
			s.Pattern = fmt.Sprintf(".*%s.*", escapeRegex(value))
		}
	case "startswith":
		if value != "" {
			s.Pattern = "^" + escapeRegex(value)
		}
	case "endswith":
		if value != "" {
			s.Pattern = escapeRegex(value) + "$"
		}
	case "unique":
		if s.Type == "array" {
			s.UniqueItems = true
		}
	case "eqfield", "nefield", "gtfield", "gtefield", "ltfield", "ltefield":
		appendDescription(s, fmt.Sprintf("Must be %s field '%s'", strings.TrimSuffix(name, "field"), value))
	case "required_if", "required_unless", "required_with", "required_with_all",
		"required_without", "required_without_all", "excluded_with", "excluded_without":
		appendDescription(s, fmt.Sprintf("Conditional validation: %s %s", name, value))
	default:
		if desc, ok := m.custom[name]; ok {
			appendDescription(s, desc)
		}
	}
}

// bound maps min/max onto length, item count or value depending on the
// schema type.
func (m *ConstraintMapper) bound(s *openapi.Schema, value string, lower bool) {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return
	}
	switch s.Type {
	case "string":
		n := intPtr(int(v))
		if lower {
			s.MinLength = n
		} else {
			s.MaxLength = n
		}
	case "array":
		n := intPtr(int(v))
		if lower {
			s.MinItems = n
		} else {
			s.MaxItems = n
		}
	default:
		if lower {
			s.Minimum = &v
		} else {
			s.Maximum = &v
		}
	}
}

func (m *ConstraintMapper) applyAlternatives(rules []string, s *openapi.Schema) {
	if len(rules) <= 1 {
		return
	}
	s.AnyOf = make([]*openapi.Schema, 0, len(rules))
	for _, rule := range rules {
		sub := &openapi.Schema{Type: s.Type}
		m.applyRule(strings.TrimSpace(rule), sub)
		s.AnyOf = append(s.AnyOf, sub)
	}
}

// splitRules splits a validate tag on top-level commas.
func splitRules(tag string) []string {
	var (
		rules   []string
		current strings.Builder
		depth   int
	)
	for _, ch := range tag {
		switch ch {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				rules = append(rules, strings.TrimSpace(current.String()))
				current.Reset()
				continue
			}
		}
		current.WriteRune(ch)
	}
	if current.Len() > 0 {
		rules = append(rules, strings.TrimSpace(current.String()))
	}
	return rules
}

func parseRule(rule string) (name, value string) {
	name, value, _ = strings.Cut(rule, "=")
	return strings.TrimSpace(name), strings.TrimSpace(value)
}

func setRange(s *openapi.Schema, lo, hi float64) {
	if s.Type == "number" || s.Type == "integer" {
		s.Minimum, s.Maximum = &lo, &hi
	}
}

func appendDescription(s *openapi.Schema, desc string) {
	if s.Description != "" {
		s.Description += ". " + desc
		return
	}
	s.Description = desc
}

// escapeRegex escapes special regex characters
func escapeRegex(s string) string {
	result := strings.ReplaceAll(s, `\`, `\\`)
	for _, c := range []string{".", "+", "*", "?", "^", "$", "(", ")", "[", "]", "{", "}", "|"} {
		result = strings.ReplaceAll(result, c, `\`+c)
	}
	return result
}

func intPtr(v int) *int {
	return &v
}
