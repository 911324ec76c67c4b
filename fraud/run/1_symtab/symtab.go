// Package symtab holds the read-only symbol and type graph that a C front-end
// builds for one run of the generator.
package symtab

import (
	"log/slog"
)

// Kind classifies a Type node.
type Kind int

// Kind values.
const (
	KindBuiltin Kind = iota
	KindPointer
	KindStruct
	KindUnion
	KindEnum
	KindFunction
	KindTypedef
)

// Namespace is the identifier space a symbol was declared in.
type Namespace int

// Namespace values. Anything outside this range is unrecognised.
const (
	NSSymbol Namespace = iota
	NSTypedef
	NSStruct
	NSLabel
	NSMacro
)

// Pool identifies one of the three symbol lists a front-end fills.
type Pool int

// Pool values, in walk order.
const (
	PoolUnit Pool = iota
	PoolFile
	PoolGlobal
)

// SymbolKind distinguishes plain declarations from the other symbol kinds.
type SymbolKind int

// SymbolKind values.
const (
	SymNode SymbolKind = iota
	SymTypedef
	SymTag
	SymEnumerator
)

// NoStream is returned by Table.StreamID for files the front-end never saw.
const NoStream = -1

// Symbol is a named (or anonymous) declaration.
type Symbol struct {
	Name      string
	Stream    int
	Line      int
	Kind      SymbolKind
	Namespace Namespace
	Reserved  bool
	Type      *Type
}

// LogValue implements slog.LogValuer so verbose runs can dump symbols.
func (s *Symbol) LogValue() slog.Value {
	if s == nil {
		return slog.StringValue("<nil>")
	}

	return slog.GroupValue(
		slog.String("name", s.Name),
		slog.Int("stream", s.Stream),
		slog.Int("line", s.Line),
		slog.String("kind", s.Kind.String()),
		slog.String("namespace", s.Namespace.String()),
		slog.Any("type", s.Type),
	)
}

// Table is the front-end's view of one run: the registered streams and the
// three symbol pools.
type Table struct {
	Streams []string
	Unit    []*Symbol
	File    []*Symbol
	Global  []*Symbol
}

// AddStream registers a file name and returns its stream id. Registering the
// same name twice returns the existing id.
func (t *Table) AddStream(name string) int {
	if id := t.StreamID(name); id != NoStream {
		return id
	}

	t.Streams = append(t.Streams, name)

	return len(t.Streams) - 1
}

// Add appends sym to the given pool.
func (t *Table) Add(pool Pool, sym *Symbol) {
	switch pool {
	case PoolUnit:
		t.Unit = append(t.Unit, sym)
	case PoolFile:
		t.File = append(t.File, sym)
	case PoolGlobal:
		t.Global = append(t.Global, sym)
	}
}

// Pools returns the symbol lists in the fixed walk order.
func (t *Table) Pools() [][]*Symbol {
	return [][]*Symbol{t.Unit, t.File, t.Global}
}

// StreamID resolves a file name to its stream id by exact match, or NoStream.
func (t *Table) StreamID(name string) int {
	for i, stream := range t.Streams {
		if stream == name {
			return i
		}
	}

	return NoStream
}

// StreamName returns the file name registered for id, or "" when out of range.
func (t *Table) StreamName(id int) string {
	if id < 0 || id >= len(t.Streams) {
		return ""
	}

	return t.Streams[id]
}

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindBuiltin:
		return "builtin"
	case KindPointer:
		return "pointer"
	case KindStruct:
		return "struct"
	case KindUnion:
		return "union"
	case KindEnum:
		return "enum"
	case KindFunction:
		return "function"
	case KindTypedef:
		return "typedef"
	default:
		return "unknown"
	}
}

// String implements fmt.Stringer.
func (n Namespace) String() string {
	switch n {
	case NSSymbol:
		return "symbol"
	case NSTypedef:
		return "typedef"
	case NSStruct:
		return "struct"
	case NSLabel:
		return "label"
	case NSMacro:
		return "macro"
	default:
		return "unknown"
	}
}

// String implements fmt.Stringer.
func (k SymbolKind) String() string {
	switch k {
	case SymNode:
		return "node"
	case SymTypedef:
		return "typedef"
	case SymTag:
		return "tag"
	case SymEnumerator:
		return "enumerator"
	default:
		return "unknown"
	}
}
