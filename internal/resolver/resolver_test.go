package resolver

import (
	"errors"
	"fmt"
	"go/parser"
	"go/token"
	"sort"
	"strings"
	"testing"

	"github.com/example/swagdoc/internal/diag"
	"github.com/example/swagdoc/internal/interpreter"
	"github.com/example/swagdoc/internal/openapi"
	"github.com/example/swagdoc/internal/typetable"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildTable parses Go sources of package models. Struct tags are written
// with ~ in place of backquotes.
func buildTable(t *testing.T, srcs ...string) *typetable.Table {
	t.Helper()
	var files []typetable.FileTypes
	for i, src := range srcs {
		fset := token.NewFileSet()
		path := fmt.Sprintf("models/file%d.go", i)
		file, err := parser.ParseFile(fset, path, strings.ReplaceAll(src, "~", "`"), parser.ParseComments)
		require.NoError(t, err)
		ft := typetable.Extract(fset, file, path)
		ft.ImportPath = "example.com/app/models"
		files = append(files, ft)
	}
	var diags diag.List
	return typetable.Build(files, &diags)
}

var modelsScope = typetable.Scope{Package: "api", Imports: map[string]string{"models": "example.com/app/models"}}

func responseOp(method, route string, types ...string) *interpreter.OperationFragment {
	op := &interpreter.OperationFragment{Method: method, Route: route, Scope: modelsScope}
	for i, ty := range types {
		ref, err := typetable.ParseTypeRef(ty)
		if err != nil {
			panic(err)
		}
		op.Responses = append(op.Responses, interpreter.Response{Code: fmt.Sprint(200 + i), Type: ref})
	}
	return op
}

func assertNoDanglingRefs(t *testing.T, schemas map[string]*openapi.Schema) {
	t.Helper()
	for name, s := range schemas {
		s.Walk(func(n *openapi.Schema) {
			if n.Ref == "" {
				return
			}
			target, ok := openapi.RefName(n.Ref)
			require.True(t, ok, n.Ref)
			assert.Contains(t, schemas, target, "dangling ref in %s", name)
		})
	}
}

func TestSelfReference(t *testing.T) {
	table := buildTable(t, `package models

// Node is a tree node.
type Node struct {
	Name     string  ~json:"name" validate:"required,min=1,max=64"~
	Children []*Node ~json:"children"~
	Parent   *Node   ~json:"parent,omitempty"~
}
`)
	var diags diag.List
	schemas, err := Resolve([]*interpreter.OperationFragment{responseOp("get", "/nodes", "models.Node")}, table, &diags)
	require.NoError(t, err)
	require.Len(t, schemas, 1)

	node := schemas["models.Node"]
	require.NotNil(t, node)
	assert.Equal(t, "object", node.Type)
	assert.Equal(t, "Node is a tree node.", node.Description)
	assert.Equal(t, []string{"name"}, node.Required)
	assert.Equal(t, 1, *node.Properties["name"].MinLength)
	assert.Equal(t, 64, *node.Properties["name"].MaxLength)
	assert.Equal(t, "array", node.Properties["children"].Type)
	assert.Equal(t, "#/components/schemas/models.Node", node.Properties["children"].Items.Ref)
	assert.Equal(t, "#/components/schemas/models.Node", node.Properties["parent"].Ref)
	assertNoDanglingRefs(t, schemas)
}

func TestMutualReferenceOrderIndependent(t *testing.T) {
	src := `package models

type Author struct {
	Books []Book ~json:"books"~
}

type Book struct {
	Author *Author ~json:"author"~
	Tags   map[string]Tag ~json:"tags"~
}

type Tag struct {
	Label string ~json:"label"~
}
`
	table := buildTable(t, src)
	var diags diag.List
	first, err := Resolve([]*interpreter.OperationFragment{responseOp("get", "/a", "models.Author", "models.Book")}, table, &diags)
	require.NoError(t, err)
	second, err := Resolve([]*interpreter.OperationFragment{responseOp("get", "/b", "models.Book", "models.Author")}, table, &diags)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, first, 3)
	assert.Equal(t, "#/components/schemas/models.Tag", first["models.Book"].Properties["tags"].AdditionalProperties.Ref)
	assertNoDanglingRefs(t, first)
}

func TestGeneratedGraphsHaveNoDanglingRefs(t *testing.T) {
	for _, size := range []int{1, 5, 17, 40} {
		t.Run(fmt.Sprint(size), func(t *testing.T) {
			var sb strings.Builder
			sb.WriteString("package models\n")
			for i := 0; i < size; i++ {
				fmt.Fprintf(&sb, "type T%d struct {\n", i)
				// Each type points forward, backward and at itself.
				fmt.Fprintf(&sb, "\tNext *T%d ~json:\"next\"~\n", (i*7+3)%size)
				fmt.Fprintf(&sb, "\tPrev []T%d ~json:\"prev\"~\n", (i+size-1)%size)
				fmt.Fprintf(&sb, "\tSelf map[string]*T%d ~json:\"self\"~\n", i)
				sb.WriteString("}\n")
			}
			table := buildTable(t, sb.String())
			var diags diag.List
			schemas, err := Resolve([]*interpreter.OperationFragment{responseOp("get", "/t", "models.T0")}, table, &diags)
			require.NoError(t, err)
			assertNoDanglingRefs(t, schemas)
			assert.Contains(t, schemas, "models.T0")
		})
	}
}

func TestEmbeddedFieldsSpliced(t *testing.T) {
	table := buildTable(t, `package models

import "time"

type Base struct {
	ID        int       ~json:"id"~
	CreatedAt time.Time ~json:"createdAt"~
}

type Audit struct {
	CreatedAt string ~json:"createdAt"~
	By        string ~json:"by"~
}

type User struct {
	Base
	*Audit
	ID   string ~json:"id" validate:"required,uuid"~
	Name string ~json:"name"~
	Meta Meta   ~json:"meta"~
}

type Meta struct {
	Loop
}

type Loop struct {
	*Meta
	Depth int ~json:"depth"~
}
`)
	var diags diag.List
	schemas, err := Resolve([]*interpreter.OperationFragment{responseOp("get", "/users", "models.User")}, table, &diags)
	require.NoError(t, err)

	user := schemas["models.User"]
	require.NotNil(t, user)
	assert.Len(t, user.Properties, 5)
	assert.Equal(t, "string", user.Properties["id"].Type)
	assert.Equal(t, "uuid", user.Properties["id"].Format)
	assert.Equal(t, "date-time", user.Properties["createdAt"].Format)
	assert.Equal(t, "string", user.Properties["by"].Type)
	assert.Equal(t, []string{"id"}, user.Required)
	assert.NotContains(t, schemas, "models.Base")

	meta := schemas["models.Meta"]
	require.NotNil(t, meta)
	assert.Contains(t, meta.Properties, "depth")

	var msgs []string
	for _, d := range diags.Items() {
		msgs = append(msgs, d.Message)
	}
	assert.Contains(t, strings.Join(msgs, "\n"), "embedding cycle through models.Meta")
}

func TestNamedTypesAndEnums(t *testing.T) {
	table := buildTable(t, `package models

// Status of an order.
type Status string

const (
	Pending Status = "pending"
	Shipped Status = "shipped"
)

type Priority int

const (
	Low  Priority = 1
	High Priority = 9
)

type Statuses []Status

type Order struct {
	Status   Status   ~json:"status"~
	Priority Priority ~json:"priority" example:"9"~
	History  Statuses ~json:"history"~
	Tags     []string ~json:"tags" example:"a,b" validate:"dive,min=2"~
	Count    int      ~json:"count" example:"3" validate:"gte=0,lt=100"~
	Raw      any      ~json:"raw"~
}
`)
	var diags diag.List
	schemas, err := Resolve([]*interpreter.OperationFragment{responseOp("post", "/orders", "[]models.Order")}, table, &diags)
	require.NoError(t, err)

	status := schemas["models.Status"]
	require.NotNil(t, status)
	assert.Equal(t, "string", status.Type)
	assert.Equal(t, "Status of an order.", status.Description)
	assert.Equal(t, []any{"pending", "shipped"}, status.Enum)

	assert.Equal(t, []any{int64(1), int64(9)}, schemas["models.Priority"].Enum)

	history := schemas["models.Statuses"]
	require.NotNil(t, history)
	assert.Equal(t, "array", history.Type)
	assert.Equal(t, "#/components/schemas/models.Status", history.Items.Ref)

	order := schemas["models.Order"]
	assert.Equal(t, []any{"a", "b"}, order.Properties["tags"].Example)
	assert.Equal(t, 2, *order.Properties["tags"].Items.MinLength)
	assert.Equal(t, int64(3), order.Properties["count"].Example)
	assert.Equal(t, 0.0, *order.Properties["count"].Minimum)
	assert.Equal(t, 100.0, *order.Properties["count"].Maximum)
	assert.Equal(t, true, order.Properties["count"].ExclusiveMaximum)
	assert.Equal(t, &openapi.Schema{}, order.Properties["raw"])
	assert.Equal(t, "#/components/schemas/models.Priority", order.Properties["priority"].Ref)
}

func TestUnresolvedReference(t *testing.T) {
	table := buildTable(t, `package models

type User struct {
	Org Org ~json:"org"~
}
`)
	tests := []struct {
		name string
		op   *interpreter.OperationFragment
		path string
		miss string
	}{
		{
			name: "direct response",
			op:   responseOp("get", "/x", "models.Missing"),
			path: "response 200",
			miss: "models.Missing",
		},
		{
			name: "nested field",
			op:   responseOp("get", "/users/{id}", "models.User"),
			path: "response 200.org",
			miss: "models.Org",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var diags diag.List
			_, err := Resolve([]*interpreter.OperationFragment{tt.op}, table, &diags)
			require.Error(t, err)
			assert.True(t, errors.Is(err, diag.ErrUnresolvedReference))

			var de *diag.Error
			require.True(t, errors.As(err, &de))
			assert.Equal(t, diag.Resolution, de.Kind)
			assert.Equal(t, tt.op.Key(), de.Operation)
			assert.Equal(t, tt.path, de.FieldPath)
			assert.Contains(t, de.Error(), tt.miss)
		})
	}
}

func TestParamsQualifiedInScope(t *testing.T) {
	table := buildTable(t, `package models

type Filter struct {
	Q string ~json:"q"~
}
`)
	op := &interpreter.OperationFragment{
		Method: "post",
		Route:  "/search",
		Scope:  typetable.Scope{Package: "api", Imports: map[string]string{"m": "example.com/app/models"}},
		Params: []interpreter.Param{{Name: "body", In: "body", Type: typetable.TypeRef{Name: "m.Filter"}}},
	}
	var diags diag.List
	schemas, err := Resolve([]*interpreter.OperationFragment{op}, table, &diags)
	require.NoError(t, err)
	names := make([]string, 0, len(schemas))
	for n := range schemas {
		names = append(names, n)
	}
	sort.Strings(names)
	assert.Equal(t, []string{"models.Filter"}, names)
}
