package resolver

import (
	"testing"

	"github.com/example/swagdoc/internal/openapi"
	"github.com/stretchr/testify/assert"
)

func TestConstraintMapper(t *testing.T) {
	f := func(v float64) *float64 { return &v }
	tests := []struct {
		name   string
		tag    string
		schema *openapi.Schema
		want   *openapi.Schema
	}{
		{
			name:   "string length",
			tag:    "required,min=3,max=20",
			schema: &openapi.Schema{Type: "string"},
			want:   &openapi.Schema{Type: "string", MinLength: intPtr(3), MaxLength: intPtr(20)},
		},
		{
			name:   "numeric range",
			tag:    "gte=1,lte=10",
			schema: &openapi.Schema{Type: "integer"},
			want:   &openapi.Schema{Type: "integer", Minimum: f(1), Maximum: f(10)},
		},
		{
			name:   "array items",
			tag:    "min=1,max=5,unique",
			schema: &openapi.Schema{Type: "array", Items: &openapi.Schema{Type: "string"}},
			want:   &openapi.Schema{Type: "array", Items: &openapi.Schema{Type: "string"}, MinItems: intPtr(1), MaxItems: intPtr(5), UniqueItems: true},
		},
		{
			name:   "exact length",
			tag:    "len=2",
			schema: &openapi.Schema{Type: "string"},
			want:   &openapi.Schema{Type: "string", MinLength: intPtr(2), MaxLength: intPtr(2)},
		},
		{
			name:   "oneof typed by schema",
			tag:    "oneof=1 2 3",
			schema: &openapi.Schema{Type: "integer"},
			want:   &openapi.Schema{Type: "integer", Enum: []any{int64(1), int64(2), int64(3)}},
		},
		{
			name:   "formats",
			tag:    "email",
			schema: &openapi.Schema{Type: "string"},
			want:   &openapi.Schema{Type: "string", Format: "email"},
		},
		{
			name:   "pattern escaping",
			tag:    "startswith=a.b",
			schema: &openapi.Schema{Type: "string"},
			want:   &openapi.Schema{Type: "string", Pattern: `^a\.b`},
		},
		{
			name:   "dive applies to map values",
			tag:    "dive,email",
			schema: &openapi.Schema{Type: "object", AdditionalProperties: &openapi.Schema{Type: "string"}},
			want:   &openapi.Schema{Type: "object", AdditionalProperties: &openapi.Schema{Type: "string", Format: "email"}},
		},
		{
			name:   "alternatives",
			tag:    "email|uuid",
			schema: &openapi.Schema{Type: "string"},
			want: &openapi.Schema{Type: "string", AnyOf: []*openapi.Schema{
				{Type: "string", Format: "email"},
				{Type: "string", Format: "uuid"},
			}},
		},
		{
			name:   "cross field note",
			tag:    "gtfield=Start",
			schema: &openapi.Schema{Type: "string"},
			want:   &openapi.Schema{Type: "string", Description: "Must be gt field 'Start'"},
		},
		{
			name:   "references untouched",
			tag:    "required,min=1",
			schema: openapi.RefTo("models.User"),
			want:   openapi.RefTo("models.User"),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			NewConstraintMapper().Apply(tt.tag, tt.schema)
			assert.Equal(t, tt.want, tt.schema)
		})
	}
}

func TestCustomValidatorDescription(t *testing.T) {
	m := NewConstraintMapper()
	m.Register("slug", "Lower-case URL slug")
	s := &openapi.Schema{Type: "string", Description: "Article slug"}
	m.Apply("required,slug", s)
	assert.Equal(t, "Article slug. Lower-case URL slug", s.Description)
}

func TestTypedValue(t *testing.T) {
	tests := []struct {
		raw    string
		schema *openapi.Schema
		want   any
	}{
		{"42", &openapi.Schema{Type: "integer"}, int64(42)},
		{"4.5", &openapi.Schema{Type: "number"}, 4.5},
		{"true", &openapi.Schema{Type: "boolean"}, true},
		{"nope", &openapi.Schema{Type: "boolean"}, "nope"},
		{"1,2", &openapi.Schema{Type: "array", Items: &openapi.Schema{Type: "integer"}}, []any{int64(1), int64(2)}},
		{`["x"]`, &openapi.Schema{Type: "array"}, []any{"x"}},
		{`{"a":1}`, &openapi.Schema{Type: "object"}, map[string]any{"a": float64(1)}},
		{"plain", &openapi.Schema{Type: "object"}, "plain"},
		{"text", nil, "text"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, TypedValue(tt.raw, tt.schema))
		})
	}
}
