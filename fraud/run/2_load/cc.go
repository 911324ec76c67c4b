package load

import (
	"bytes"
	"io"
	"sync"

	symtab "github.com/toejough/fraud/fraud/run/1_symtab"
	"gitlab.com/tozd/go/errors"
	"rsc.io/c2go/cc"
)

// CCFrontend parses all headers as one program with rsc.io/c2go/cc, which
// follows #include through IncludeDirs. Declarations pulled in from other
// files keep their own stream and are filtered out by the walker.
type CCFrontend struct {
	IncludeDirs []string
}

// Load implements Frontend.
func (f *CCFrontend) Load(files []string, src Source) (*symtab.Table, error) {
	addCCIncludes(f.IncludeDirs)

	readers := make([]io.Reader, 0, len(files))

	for _, name := range files {
		content, err := src.ReadFile(name)
		if err != nil {
			return nil, errors.Errorf("loading %s: %w", name, err)
		}

		readers = append(readers, bytes.NewReader(content))
	}

	prog, err := cc.ReadMany(files, readers)
	if err != nil {
		return nil, errors.Errorf("parsing %v: %w", files, err)
	}

	table := &symtab.Table{}
	for _, name := range files {
		table.AddStream(name)
	}

	conv := &ccConverter{table: table, seen: make(map[*cc.Type]*symtab.Type)}
	for _, decl := range prog.Decls {
		conv.decl(decl)
	}

	return table, nil
}

// ccConverter maps cc types onto symtab nodes, sharing one node per cc node so
// self-referential structs terminate.
type ccConverter struct {
	table  *symtab.Table
	seen   map[*cc.Type]*symtab.Type
	stream int
	line   int
}

func (c *ccConverter) decl(decl *cc.Decl) {
	if decl == nil {
		return
	}

	c.stream = c.table.AddStream(decl.Span.Start.File)
	c.line = decl.Span.Start.Line

	typ := c.typ(decl.Type)

	if decl.Storage&cc.Typedef != 0 {
		if decl.Name == "" {
			return
		}

		c.table.Add(symtab.PoolUnit, &symtab.Symbol{
			Name:      decl.Name,
			Stream:    c.stream,
			Line:      c.line,
			Kind:      symtab.SymTypedef,
			Namespace: symtab.NSTypedef,
			Type:      &symtab.Type{Kind: symtab.KindTypedef, Name: decl.Name, Base: typ},
		})

		return
	}

	if decl.Name == "" {
		return
	}

	pool := symtab.PoolUnit

	switch {
	case decl.Storage&cc.Static != 0:
		pool = symtab.PoolFile
	case decl.Storage&cc.Extern != 0:
		pool = symtab.PoolGlobal
	}

	c.table.Add(pool, &symtab.Symbol{
		Name:      decl.Name,
		Stream:    c.stream,
		Line:      c.line,
		Kind:      symtab.SymNode,
		Namespace: symtab.NSSymbol,
		Type:      typ,
	})
}

func (c *ccConverter) members(decls []*cc.Decl) []*symtab.Symbol {
	out := make([]*symtab.Symbol, 0, len(decls))

	for _, d := range decls {
		out = append(out, &symtab.Symbol{
			Name:      d.Name,
			Stream:    c.stream,
			Line:      d.Span.Start.Line,
			Kind:      symtab.SymNode,
			Namespace: symtab.NSSymbol,
			Type:      c.typ(d.Type),
		})
	}

	return out
}

//nolint:cyclop // one case per cc type kind
func (c *ccConverter) typ(t *cc.Type) *symtab.Type {
	if t == nil {
		return nil
	}

	if got, ok := c.seen[t]; ok {
		return got
	}

	out := &symtab.Type{}
	c.seen[t] = out

	switch t.Kind {
	case cc.Ptr, cc.Array:
		out.Kind = symtab.KindPointer
		out.Base = c.typ(t.Base)
	case cc.Func:
		out.Kind = symtab.KindFunction
		out.Base = c.typ(t.Base)

		for _, p := range t.Decls {
			if p.Name == "..." {
				out.Variadic = true

				continue
			}

			out.Params = append(out.Params, c.members([]*cc.Decl{p})...)
		}

		out.Params = dropVoidParams(out.Params)
	case cc.Struct, cc.Union:
		out.Kind = symtab.KindStruct
		if t.Kind == cc.Union {
			out.Kind = symtab.KindUnion
		}

		out.Tag = t.Tag

		if t.Decls != nil {
			out.Members = c.members(t.Decls)

			if t.Tag != "" {
				c.table.Add(symtab.PoolUnit, &symtab.Symbol{
					Name:      t.Tag,
					Stream:    c.stream,
					Line:      c.line,
					Kind:      symtab.SymTag,
					Namespace: symtab.NSStruct,
					Type:      out,
				})
			}
		}
	case cc.Enum:
		out.Kind = symtab.KindEnum
		out.Tag = t.Tag
	case cc.TypedefType:
		out.Kind = symtab.KindTypedef
		out.Name = t.Name

		if t.TypeDecl != nil {
			out.Base = c.typ(t.TypeDecl.Type)
		}
	default:
		out.Kind = symtab.KindBuiltin
		out.Builtin = -1

		if name, ok := ccBuiltins[t.Kind]; ok {
			out.Builtin, _ = symtab.LookupBuiltin(name)
		}
	}

	return out
}

// addCCIncludes registers each directory with cc once; cc keeps its search
// path in package state.
func addCCIncludes(dirs []string) {
	ccIncludesMu.Lock()
	defer ccIncludesMu.Unlock()

	for _, dir := range dirs {
		if ccIncludes[dir] {
			continue
		}

		ccIncludes[dir] = true
		cc.AddInclude(dir)
	}
}

// unexported variables.
var (
	//nolint:gochecknoglobals // mirrors cc's package-level include path
	ccIncludes = make(map[string]bool)
	//nolint:gochecknoglobals // guards ccIncludes
	ccIncludesMu sync.Mutex
	//nolint:gochecknoglobals // cc builtin kinds
	ccBuiltins = map[cc.TypeKind]string{
		cc.Void:      "void",
		cc.Char:      "char",
		cc.Uchar:     "unsigned char",
		cc.Short:     "short",
		cc.Ushort:    "unsigned short",
		cc.Int:       "int",
		cc.Uint:      "unsigned int",
		cc.Long:      "long",
		cc.Ulong:     "unsigned long",
		cc.Longlong:  "long long",
		cc.Ulonglong: "unsigned long long",
		cc.Float:     "float",
		cc.Double:    "double",
	}
)
