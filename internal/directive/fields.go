package directive

import (
	"fmt"
	"strings"
)

// Field is one positional argument of a directive.
type Field struct {
	Text   string
	Quoted bool
}

// Fields splits a directive argument on whitespace. Double-quoted runs form a
// single field with the quotes removed; whitespace inside (...) or [...] does
// not split, so `Enums(a, b)` and `Name[read, write]` stay whole.
func Fields(s string) ([]Field, error) {
	var fields []Field
	i := 0
	for i < len(s) {
		skipSpace(s, &i)
		if i >= len(s) {
			break
		}
		if s[i] == '"' {
			lit, err := scanQuoted(s, &i)
			if err != nil {
				return nil, err
			}
			fields = append(fields, Field{Text: lit, Quoted: true})
			continue
		}
		word, err := scanWord(s, &i)
		if err != nil {
			return nil, err
		}
		fields = append(fields, Field{Text: word})
	}
	return fields, nil
}

func skipSpace(s string, i *int) {
	for *i < len(s) {
		c := s[*i]
		if c == ' ' || c == '\t' || c == '\r' || c == '\n' {
			*i++
			continue
		}
		break
	}
}

// scanQuoted scans a "..." literal; \" escapes a quote.
func scanQuoted(s string, i *int) (string, error) {
	*i++
	var sb strings.Builder
	for *i < len(s) {
		c := s[*i]
		if c == '\\' && *i+1 < len(s) && s[*i+1] == '"' {
			sb.WriteByte('"')
			*i += 2
			continue
		}
		if c == '"' {
			*i++
			return sb.String(), nil
		}
		sb.WriteByte(c)
		*i++
	}
	return "", fmt.Errorf("unterminated quoted string")
}

func scanWord(s string, i *int) (string, error) {
	start := *i
	depth := 0
	for *i < len(s) {
		switch c := s[*i]; c {
		case '(', '[':
			depth++
		case ')', ']':
			depth--
		case ' ', '\t', '\r', '\n':
			if depth <= 0 {
				return s[start:*i], nil
			}
		}
		*i++
	}
	if depth > 0 {
		return "", fmt.Errorf("unbalanced brackets in %q", s[start:])
	}
	return s[start:], nil
}

// Attribute splits `Name(value)` into its parts.
func Attribute(s string) (name, value string, ok bool) {
	open := strings.IndexByte(s, '(')
	if open <= 0 || !strings.HasSuffix(s, ")") {
		return "", "", false
	}
	return s[:open], s[open+1 : len(s)-1], true
}

// SplitList splits a comma separated list, trimming and dropping empty items.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
