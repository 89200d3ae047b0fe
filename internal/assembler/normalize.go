package assembler

import (
	"github.com/example/swagdoc/internal/diag"
	"github.com/example/swagdoc/internal/openapi"
)

// normalize adapts version dependent parts of the finished document.
// 3.0 has no license identifier; 3.1 carries exclusive bounds as numbers.
func (a *assembly) normalize(doc *openapi.Document) {
	if !a.is31 {
		if l := doc.Info.License; l != nil && l.Identifier != "" {
			a.diags.Warnf(diag.Position{File: a.in.GeneralFile}, "@license.identifier dropped: OpenAPI %s has no license identifier", a.version)
			l.Identifier = ""
		}
		doc.WalkSchemas(func(s *openapi.Schema) {
			if b, ok := s.ExclusiveMinimum.(bool); ok && !b {
				s.ExclusiveMinimum = nil
			}
			if b, ok := s.ExclusiveMaximum.(bool); ok && !b {
				s.ExclusiveMaximum = nil
			}
		})
		return
	}

	doc.WalkSchemas(func(s *openapi.Schema) {
		if b, ok := s.ExclusiveMinimum.(bool); ok {
			s.ExclusiveMinimum = nil
			if b && s.Minimum != nil {
				s.ExclusiveMinimum = *s.Minimum
				s.Minimum = nil
			}
		}
		if b, ok := s.ExclusiveMaximum.(bool); ok {
			s.ExclusiveMaximum = nil
			if b && s.Maximum != nil {
				s.ExclusiveMaximum = *s.Maximum
				s.Maximum = nil
			}
		}
	})
}
