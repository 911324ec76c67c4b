package symtab

import (
	"log/slog"
	"strings"
)

// maxTypedefDepth bounds typedef resolution.
const maxTypedefDepth = 64

// Builtin indexes the builtin-name table.
type Builtin int

// Type is a node in the type graph. Pointer, function and typedef nodes refer
// to their Base; nothing in the graph is owned by the generator.
type Type struct {
	Kind     Kind
	Base     *Type
	Builtin  Builtin
	Tag      string
	Name     string
	Params   []*Symbol
	Variadic bool
	Members  []*Symbol
}

// Builtins returns the canonical builtin spellings in table order.
func Builtins() []string {
	return append([]string(nil), builtinNames...)
}

// BuiltinName returns the table entry for t when t is a builtin.
func BuiltinName(t *Type) (string, bool) {
	if t == nil || t.Kind != KindBuiltin {
		return "", false
	}

	if t.Builtin < 0 || int(t.Builtin) >= len(builtinNames) {
		return "", false
	}

	return builtinNames[t.Builtin], true
}

// LookupBuiltin finds the table id for a builtin spelling. Whitespace runs are
// collapsed and the common reorderings ("int unsigned", "long int") are folded
// onto their canonical names.
func LookupBuiltin(spelling string) (Builtin, bool) {
	key := strings.Join(strings.Fields(spelling), " ")
	if alias, ok := builtinAliases[key]; ok {
		key = alias
	}

	for i, name := range builtinNames {
		if name == key {
			return Builtin(i), true
		}
	}

	return 0, false
}

// NewBuiltin returns a builtin node for a known spelling, or nil.
func NewBuiltin(spelling string) *Type {
	id, ok := LookupBuiltin(spelling)
	if !ok {
		return nil
	}

	return &Type{Kind: KindBuiltin, Builtin: id}
}

// PointerTo wraps base in one pointer layer.
func PointerTo(base *Type) *Type {
	return &Type{Kind: KindPointer, Base: base}
}

// Function returns the function type a symbol declares, following one pointer
// layer when the symbol is a function pointer. The bool reports whether a
// pointer was followed.
func (t *Type) Function() (*Type, bool) {
	t = t.Underlying()
	if t == nil {
		return nil, false
	}

	if t.Kind == KindFunction {
		return t, false
	}

	if base := t.Base.Underlying(); t.Kind == KindPointer && base != nil && base.Kind == KindFunction {
		return base, true
	}

	return nil, false
}

// IsPointer reports whether t, after typedef resolution, is a pointer node.
func (t *Type) IsPointer() bool {
	t = t.Underlying()

	return t != nil && t.Kind == KindPointer
}

// Underlying follows typedef nodes to the type they name. Typedefs whose
// target the front-end never saw are returned as is.
func (t *Type) Underlying() *Type {
	for range maxTypedefDepth {
		if t == nil || t.Kind != KindTypedef || t.Base == nil {
			return t
		}

		t = t.Base
	}

	return t
}

// LogValue implements slog.LogValuer.
func (t *Type) LogValue() slog.Value {
	if t == nil {
		return slog.StringValue("<nil>")
	}

	attrs := []slog.Attr{slog.String("kind", t.Kind.String())}

	if name, ok := BuiltinName(t); ok {
		attrs = append(attrs, slog.String("builtin", name))
	}

	if t.Tag != "" {
		attrs = append(attrs, slog.String("tag", t.Tag))
	}

	if t.Name != "" {
		attrs = append(attrs, slog.String("name", t.Name))
	}

	if t.Kind == KindFunction {
		attrs = append(attrs, slog.Int("params", len(t.Params)))
	}

	if t.Base != nil && t.Kind != KindTypedef {
		attrs = append(attrs, slog.Any("base", t.Base))
	}

	return slog.GroupValue(attrs...)
}

// unexported variables.
var (
	//nolint:gochecknoglobals // builtin alias table
	builtinAliases = map[string]string{
		"signed":                 "int",
		"signed int":             "int",
		"int signed":             "int",
		"unsigned":               "unsigned int",
		"int unsigned":           "unsigned int",
		"short int":              "short",
		"signed short":           "short",
		"unsigned short int":     "unsigned short",
		"long int":               "long",
		"signed long":            "long",
		"unsigned long int":      "unsigned long",
		"long long int":          "long long",
		"signed long long":       "long long",
		"unsigned long long int": "unsigned long long",
		"bool":                   "_Bool",
	}
	//nolint:gochecknoglobals // builtin-name table
	builtinNames = []string{
		"void",
		"char",
		"signed char",
		"unsigned char",
		"short",
		"unsigned short",
		"int",
		"unsigned int",
		"long",
		"unsigned long",
		"long long",
		"unsigned long long",
		"float",
		"double",
		"long double",
		"_Bool",
		"size_t",
		"ssize_t",
		"ptrdiff_t",
		"intptr_t",
		"uintptr_t",
		"int8_t",
		"int16_t",
		"int32_t",
		"int64_t",
		"uint8_t",
		"uint16_t",
		"uint32_t",
		"uint64_t",
	}
)
