package directive

import (
	"strings"

	"github.com/example/swagdoc/internal/diag"
)

// Tokenize splits a comment block into its directives, in source order.
//
// Lines that do not open a directive are appended to the most recent one.
// Prose before the first directive is not a directive and is dropped.
func Tokenize(block CommentBlock) []Directive {
	var (
		out     []Directive
		inBlock bool
	)
	for _, line := range block.Lines {
		text, ok := stripComment(line.Text, &inBlock)
		if !ok {
			break
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		if d, ok := scanDirective(text); ok {
			d.Pos = diag.Position{File: block.File, Line: line.Num}
			out = append(out, d)
			continue
		}
		if len(out) > 0 {
			last := &out[len(out)-1]
			last.More = append(last.More, text)
		}
	}
	return out
}

// stripComment removes comment syntax from a raw line. It returns false when
// the line ends the block: a non-comment line or a blank line inside a
// /* */ comment.
func stripComment(raw string, inBlock *bool) (string, bool) {
	s := strings.TrimSpace(raw)
	if *inBlock {
		if s == "" {
			return "", false
		}
		if end := strings.Index(s, "*/"); end >= 0 {
			*inBlock = false
			s = s[:end]
		}
		return strings.TrimPrefix(strings.TrimSpace(s), "*"), true
	}
	switch {
	case strings.HasPrefix(s, "//go:"), strings.HasPrefix(s, "//nolint"):
		return "", true
	case strings.HasPrefix(s, "//"):
		return s[2:], true
	case strings.HasPrefix(s, "/*"):
		s = s[2:]
		if end := strings.Index(s, "*/"); end >= 0 {
			return s[:end], true
		}
		*inBlock = true
		return s, true
	default:
		return "", false
	}
}

// scanDirective recognizes `@keyword rest`. The keyword is alphanumeric plus '.'.
func scanDirective(s string) (Directive, bool) {
	if len(s) < 2 || s[0] != '@' {
		return Directive{}, false
	}
	i := 1
	for i < len(s) && isKeywordChar(s[i]) {
		i++
	}
	if i == 1 {
		return Directive{}, false
	}
	keyword := s[1:i]
	name := strings.ToLower(keyword)
	d := Directive{
		Keyword: keyword,
		Name:    name,
		Arg:     strings.TrimSpace(s[i:]),
		Kind:    KindKnown,
	}
	if !IsKnown(name) {
		d.Kind = KindUnknown
	}
	return d, true
}

func isKeywordChar(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '.'
}
