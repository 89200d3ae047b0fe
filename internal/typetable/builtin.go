package typetable

// Primitive is the schema shape of a builtin or well-known type.
type Primitive struct {
	Type   string
	Format string
}

var builtins = map[string]Primitive{
	"string":  {Type: "string"},
	"bool":    {Type: "boolean"},
	"boolean": {Type: "boolean"},
	"int":     {Type: "integer"},
	"integer": {Type: "integer"},
	"int8":    {Type: "integer", Format: "int32"},
	"int16":   {Type: "integer", Format: "int32"},
	"int32":   {Type: "integer", Format: "int32"},
	"int64":   {Type: "integer", Format: "int64"},
	"uint":    {Type: "integer"},
	"uint8":   {Type: "integer", Format: "int32"},
	"uint16":  {Type: "integer", Format: "int32"},
	"uint32":  {Type: "integer", Format: "int64"},
	"uint64":  {Type: "integer", Format: "int64"},
	"byte":    {Type: "integer", Format: "int32"},
	"rune":    {Type: "integer", Format: "int32"},
	"float32": {Type: "number", Format: "float"},
	"float64": {Type: "number", Format: "double"},
	"number":  {Type: "number"},
	"float":   {Type: "number", Format: "float"},
	"double":  {Type: "number", Format: "double"},
	"object":  {Type: "object"},
	"file":    {Type: "string", Format: "binary"},
	"any":     {},
	"error":   {Type: "string"},
	"[]byte":  {Type: "string", Format: "byte"},

	"time.Time":       {Type: "string", Format: "date-time"},
	"time.Duration":   {Type: "integer", Format: "int64"},
	"json.RawMessage": {Type: "object"},
	"json.Number":     {Type: "number"},
	"uuid.UUID":       {Type: "string", Format: "uuid"},
	"decimal.Decimal": {Type: "number"},
	"url.URL":         {Type: "string", Format: "uri"},
	"big.Int":         {Type: "integer"},
}

// Builtin returns the primitive shape for a builtin or well-known type name.
func Builtin(name string) (Primitive, bool) {
	p, ok := builtins[name]
	return p, ok
}
