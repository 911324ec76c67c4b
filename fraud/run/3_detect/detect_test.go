package detect_test

import (
	"testing"

	. "github.com/onsi/gomega"
	symtab "github.com/toejough/fraud/fraud/run/1_symtab"
	detect "github.com/toejough/fraud/fraud/run/3_detect"
)

func TestWalk_FiltersByStream(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	table := &symtab.Table{}
	mine := table.AddStream("simple.h")
	other := table.AddStream("other.h")

	add := fnSym("add", mine)
	table.Add(symtab.PoolUnit, add)
	table.Add(symtab.PoolUnit, fnSym("elsewhere", other))

	got, err := detect.Walk("simple.h", table, detect.Config{})
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(names(got)).To(Equal([]string{"add"}))
	g.Expect(got[0].Symbol).To(BeIdenticalTo(add))
}

func TestWalk_UnknownFileYieldsNothing(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	table := &symtab.Table{}
	table.AddStream("simple.h")
	// A symbol with no stream must not leak into an unregistered file's walk.
	table.Add(symtab.PoolUnit, fnSym("builtin", symtab.NoStream))

	got, err := detect.Walk("missing.h", table, detect.Config{})
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(got).To(BeEmpty())
}

func TestWalk_PoolOrder(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	table := &symtab.Table{}
	s := table.AddStream("order.h")

	table.Add(symtab.PoolGlobal, fnSym("global_fn", s))
	table.Add(symtab.PoolFile, fnSym("file_fn", s))
	table.Add(symtab.PoolUnit, fnSym("unit_b", s))
	table.Add(symtab.PoolUnit, fnSym("unit_a", s))

	got, err := detect.Walk("order.h", table, detect.Config{})
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(names(got)).To(Equal([]string{"unit_b", "unit_a", "file_fn", "global_fn"}))
}

func TestWalk_SkipsReservedTypedefsAndAnonymous(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	table := &symtab.Table{}
	s := table.AddStream("mixed.h")

	reserved := fnSym("__builtin_thing", s)
	reserved.Reserved = true

	typedef := fnSym("handler_t", s)
	typedef.Kind = symtab.SymTypedef
	typedef.Namespace = symtab.NSTypedef

	anon := &symtab.Symbol{Stream: s, Namespace: symtab.NSSymbol}

	table.Add(symtab.PoolUnit, reserved)
	table.Add(symtab.PoolUnit, typedef)
	table.Add(symtab.PoolUnit, anon)
	table.Add(symtab.PoolUnit, nil)
	table.Add(symtab.PoolUnit, fnSym("kept", s))

	got, err := detect.Walk("mixed.h", table, detect.Config{})
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(names(got)).To(Equal([]string{"kept"}))
}

// TestWalk_NonFunctionsAreCandidates verifies that selection is by symbol
// kind; the emitter decides whether a candidate produces output.
func TestWalk_NonFunctionsAreCandidates(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	table := &symtab.Table{}
	s := table.AddStream("vars.h")

	table.Add(symtab.PoolGlobal, &symtab.Symbol{
		Name: "counter", Stream: s, Namespace: symtab.NSSymbol, Type: symtab.NewBuiltin("int"),
	})

	got, err := detect.Walk("vars.h", table, detect.Config{})
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(names(got)).To(Equal([]string{"counter"}))
}

func TestWalk_UnknownNamespace(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	table := &symtab.Table{}
	s := table.AddStream("odd.h")

	table.Add(symtab.PoolUnit, &symtab.Symbol{Stream: s, Line: 7, Namespace: symtab.Namespace(42)})

	_, err := detect.Walk("odd.h", table, detect.Config{})
	g.Expect(err).To(MatchError(detect.ErrUnknownNamespace))
	g.Expect(err.Error()).To(HavePrefix("odd.h:7: "))
}

func TestWalk_StructTarget(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	table := &symtab.Table{}
	s := table.AddStream("ops.h")

	fn := &symtab.Type{Kind: symtab.KindFunction, Base: symtab.NewBuiltin("int")}
	callback := &symtab.Type{Kind: symtab.KindTypedef, Name: "callback_t", Base: symtab.PointerTo(fn)}

	ops := &symtab.Type{Kind: symtab.KindStruct, Tag: "ops", Members: []*symtab.Symbol{
		{Name: "open", Type: symtab.PointerTo(fn)},
		{Name: "flags", Type: symtab.NewBuiltin("int")},
		{Name: "close", Type: callback},
		{Name: "", Type: symtab.PointerTo(fn)},
	}}
	other := &symtab.Type{Kind: symtab.KindStruct, Tag: "other", Members: []*symtab.Symbol{
		{Name: "run", Type: symtab.PointerTo(fn)},
	}}

	table.Add(symtab.PoolUnit, fnSym("plain_fn", s))
	table.Add(symtab.PoolUnit, tagSym(other, s))
	table.Add(symtab.PoolUnit, tagSym(ops, s))

	got, err := detect.Walk("ops.h", table, detect.Config{TargetStruct: "ops"})
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(names(got)).To(Equal([]string{"ops_open", "ops_close"}))
	g.Expect(got[0].Owner).To(Equal("ops"))
	g.Expect(got[1].Symbol.Name).To(Equal("close"))
}

func fnSym(name string, stream int) *symtab.Symbol {
	return &symtab.Symbol{
		Name:      name,
		Stream:    stream,
		Kind:      symtab.SymNode,
		Namespace: symtab.NSSymbol,
		Type:      &symtab.Type{Kind: symtab.KindFunction, Base: symtab.NewBuiltin("void")},
	}
}

func names(cands []detect.Candidate) []string {
	out := make([]string, 0, len(cands))
	for _, c := range cands {
		out = append(out, c.Name)
	}

	return out
}

func tagSym(typ *symtab.Type, stream int) *symtab.Symbol {
	return &symtab.Symbol{
		Name:      typ.Tag,
		Stream:    stream,
		Kind:      symtab.SymTag,
		Namespace: symtab.NSStruct,
		Type:      typ,
	}
}
