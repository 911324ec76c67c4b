package load

import (
	"context"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
	symtab "github.com/toejough/fraud/fraud/run/1_symtab"
	"gitlab.com/tozd/go/errors"
)

// SitterFrontend parses each header on its own with the tree-sitter C
// grammar. Every input file is one stream, registered in argument order.
// Preprocessor conditionals are descended into; #include is not followed.
type SitterFrontend struct{}

// Load implements Frontend.
func (f *SitterFrontend) Load(files []string, src Source) (*symtab.Table, error) {
	parser := sitter.NewParser()
	defer parser.Close()

	parser.SetLanguage(c.GetLanguage())

	table := &symtab.Table{}
	b := &sitterBuilder{
		table:    table,
		tags:     make(map[string]*symtab.Type),
		typedefs: make(map[string]*symtab.Type),
	}

	for _, name := range files {
		content, err := src.ReadFile(name)
		if err != nil {
			return nil, errors.Errorf("loading %s: %w", name, err)
		}

		tree, err := parser.ParseCtx(context.Background(), nil, content)
		if err != nil {
			return nil, errors.Errorf("parsing %s: %w", name, err)
		}

		b.src = content
		b.stream = table.AddStream(name)
		b.items(tree.RootNode())

		tree.Close()
	}

	return table, nil
}

// sitterBuilder turns tree-sitter nodes into symtab nodes. Tags and typedefs
// are shared across files so later headers see earlier definitions.
type sitterBuilder struct {
	table    *symtab.Table
	src      []byte
	stream   int
	tags     map[string]*symtab.Type
	typedefs map[string]*symtab.Type
}

// aggregate returns the shared node for a struct/union/enum specifier and
// records its members when the specifier carries a body.
func (b *sitterBuilder) aggregate(kind symtab.Kind, keyword string, node *sitter.Node) *symtab.Type {
	tag := ""
	if name := node.ChildByFieldName("name"); name != nil {
		tag = name.Content(b.src)
	}

	var typ *symtab.Type

	if tag != "" {
		key := keyword + " " + tag

		typ = b.tags[key]
		if typ == nil {
			typ = &symtab.Type{Kind: kind, Tag: tag}
			b.tags[key] = typ
		}
	} else {
		typ = &symtab.Type{Kind: kind}
	}

	body := node.ChildByFieldName("body")
	if body == nil || kind == symtab.KindEnum {
		if body != nil && tag != "" {
			b.addTag(node, typ)
		}

		return typ
	}

	typ.Members = nil

	for i := range int(body.NamedChildCount()) {
		field := body.NamedChild(i)
		if field.Type() != "field_declaration" {
			continue
		}

		base := b.specifier(field.ChildByFieldName("type"))

		for _, decl := range declarators(field) {
			name, memberType := b.declare(base, decl)
			typ.Members = append(typ.Members, &symtab.Symbol{
				Name:      name,
				Stream:    b.stream,
				Line:      line(field),
				Kind:      symtab.SymNode,
				Namespace: symtab.NSSymbol,
				Type:      memberType,
			})
		}
	}

	if tag != "" {
		b.addTag(node, typ)
	}

	return typ
}

func (b *sitterBuilder) addTag(node *sitter.Node, typ *symtab.Type) {
	b.table.Add(symtab.PoolUnit, &symtab.Symbol{
		Name:      typ.Tag,
		Stream:    b.stream,
		Line:      line(node),
		Kind:      symtab.SymTag,
		Namespace: symtab.NSStruct,
		Type:      typ,
	})
}

// declaration registers every declarator of a declaration or function
// definition in the pool its storage class selects.
func (b *sitterBuilder) declaration(node *sitter.Node) {
	base := b.specifier(node.ChildByFieldName("type"))
	pool := poolFor(storageClass(node, b.src))

	for _, decl := range declarators(node) {
		name, typ := b.declare(base, decl)
		b.table.Add(pool, &symtab.Symbol{
			Name:      name,
			Stream:    b.stream,
			Line:      line(node),
			Kind:      symtab.SymNode,
			Namespace: symtab.NSSymbol,
			Type:      typ,
		})
	}
}

// declare applies a declarator to its base type, returning the declared name
// (empty for abstract declarators) and the resulting type.
//
//nolint:cyclop // one case per declarator node type
func (b *sitterBuilder) declare(base *symtab.Type, node *sitter.Node) (string, *symtab.Type) {
	if node == nil {
		return "", base
	}

	switch node.Type() {
	case "identifier", "field_identifier", "type_identifier", "primitive_type":
		return node.Content(b.src), base
	case "pointer_declarator", "abstract_pointer_declarator", "pointer_type_declarator",
		"array_declarator", "abstract_array_declarator", "array_type_declarator":
		return b.declare(symtab.PointerTo(base), node.ChildByFieldName("declarator"))
	case "function_declarator", "abstract_function_declarator", "function_type_declarator":
		fn := b.function(base, node.ChildByFieldName("parameters"))

		return b.declare(fn, node.ChildByFieldName("declarator"))
	case "init_declarator":
		return b.declare(base, node.ChildByFieldName("declarator"))
	case "parenthesized_declarator", "abstract_parenthesized_declarator",
		"parenthesized_type_declarator", "attributed_declarator":
		if node.NamedChildCount() == 0 {
			return "", base
		}

		return b.declare(base, node.NamedChild(0))
	default:
		return "", base
	}
}

// function builds a function node from its return type and parameter list.
func (b *sitterBuilder) function(ret *symtab.Type, params *sitter.Node) *symtab.Type {
	fn := &symtab.Type{Kind: symtab.KindFunction, Base: ret}
	if params == nil {
		return fn
	}

	for i := range int(params.ChildCount()) {
		param := params.Child(i)

		switch param.Type() {
		case "variadic_parameter", "...":
			fn.Variadic = true
		case "parameter_declaration":
			name, typ := b.declare(b.specifier(param.ChildByFieldName("type")), param.ChildByFieldName("declarator"))
			fn.Params = append(fn.Params, &symtab.Symbol{
				Name:      name,
				Stream:    b.stream,
				Line:      line(param),
				Kind:      symtab.SymNode,
				Namespace: symtab.NSSymbol,
				Type:      typ,
			})
		}
	}

	fn.Params = dropVoidParams(fn.Params)

	return fn
}

// items walks a node holding top-level items, descending into preprocessor
// conditionals and linkage blocks.
func (b *sitterBuilder) items(node *sitter.Node) {
	for i := range int(node.NamedChildCount()) {
		child := node.NamedChild(i)

		switch child.Type() {
		case "declaration", "function_definition":
			b.declaration(child)
		case "type_definition":
			b.typedef(child)
		case "struct_specifier", "union_specifier", "enum_specifier":
			b.specifier(child)
		case "preproc_ifdef", "preproc_if", "preproc_else", "preproc_elif", "preproc_elifdef",
			"linkage_specification", "declaration_list", "ERROR":
			b.items(child)
		}
	}
}

// specifier converts a type specifier node. Unknown spellings come back as
// nil, which the namer reports as unresolved.
func (b *sitterBuilder) specifier(node *sitter.Node) *symtab.Type {
	if node == nil {
		return nil
	}

	switch node.Type() {
	case "primitive_type", "sized_type_specifier":
		text := node.Content(b.src)
		if typ := symtab.NewBuiltin(text); typ != nil {
			return typ
		}

		return &symtab.Type{Kind: symtab.KindTypedef, Name: text}
	case "type_identifier":
		name := node.Content(b.src)

		return &symtab.Type{Kind: symtab.KindTypedef, Name: name, Base: b.typedefs[name]}
	case "struct_specifier":
		return b.aggregate(symtab.KindStruct, "struct", node)
	case "union_specifier":
		return b.aggregate(symtab.KindUnion, "union", node)
	case "enum_specifier":
		return b.aggregate(symtab.KindEnum, "enum", node)
	default:
		return nil
	}
}

// typedef records each name a type_definition introduces.
func (b *sitterBuilder) typedef(node *sitter.Node) {
	base := b.specifier(node.ChildByFieldName("type"))

	for _, decl := range declarators(node) {
		name, target := b.declare(base, decl)
		if name == "" {
			continue
		}

		b.typedefs[name] = target
		b.table.Add(symtab.PoolUnit, &symtab.Symbol{
			Name:      name,
			Stream:    b.stream,
			Line:      line(node),
			Kind:      symtab.SymTypedef,
			Namespace: symtab.NSTypedef,
			Type:      &symtab.Type{Kind: symtab.KindTypedef, Name: name, Base: target},
		})
	}
}

// declarators returns every child in the "declarator" field, in order.
func declarators(node *sitter.Node) []*sitter.Node {
	var out []*sitter.Node

	for i := range int(node.ChildCount()) {
		if node.FieldNameForChild(i) == "declarator" {
			out = append(out, node.Child(i))
		}
	}

	return out
}

func line(node *sitter.Node) int {
	return int(node.StartPoint().Row) + 1
}

// storageClass returns "static", "extern" or "" for a declaration node.
func storageClass(node *sitter.Node, src []byte) string {
	for i := range int(node.ChildCount()) {
		child := node.Child(i)
		if child.Type() == "storage_class_specifier" {
			return child.Content(src)
		}
	}

	return ""
}
