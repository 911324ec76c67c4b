package generate_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/onsi/gomega"
	cutil "github.com/toejough/fraud/fraud/run/0_util"
	symtab "github.com/toejough/fraud/fraud/run/1_symtab"
	generate "github.com/toejough/fraud/fraud/run/5_generate"
	"pgregory.net/rapid"
)

// FuzzEmit generates random function signatures and checks the shape of the
// mock: one parameter line and one check (or out block) per parameter, a
// return statement exactly when the return type is not void.
func FuzzEmit(f *testing.F) {
	f.Fuzz(rapid.MakeFuzz(func(t *rapid.T) {
		expect := gomega.NewWithT(t)

		fn := signature().Draw(t, "fn")

		var buf bytes.Buffer

		err := generate.NewEmitter(generate.Config{}).Emit(&buf, candidate("mocked", fn))
		expect.Expect(err).NotTo(gomega.HaveOccurred())

		out := buf.String()
		expect.Expect(strings.SplitN(out, "\n", 3)[1]).To(gomega.Equal("mocked("))
		expect.Expect(out).To(gomega.HaveSuffix("}\n\n"))

		checks := strings.Count(out, "\tcheck_expected(") +
			strings.Count(out, "\tcheck_expected_ptr(") +
			strings.Count(out, "mock_ptr_type(")
		expect.Expect(checks).To(gomega.Equal(len(fn.Params)))

		_, isVoid := voidReturn(fn)
		expect.Expect(strings.Contains(out, "\treturn mock_type(")).To(gomega.Equal(!isVoid))
	}))
}

// TestBuildMockSpec_Property verifies every parameter gets a name and that
// only "result" is marked as an out parameter.
func TestBuildMockSpec_Property(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(rt *rapid.T) {
		fn := signature().Draw(rt, "fn")

		spec, ok, err := generate.BuildMockSpec(candidate("mocked", fn), &cutil.Namer{})
		if err != nil || !ok {
			rt.Fatalf("BuildMockSpec: ok=%v err=%v", ok, err)
		}

		if len(spec.Params) != len(fn.Params) {
			rt.Fatalf("got %d params, want %d", len(spec.Params), len(fn.Params))
		}

		for i, p := range spec.Params {
			if p.Name == "" {
				rt.Fatalf("param %d left unnamed", i+1)
			}

			if p.Out != (p.Name == generate.OutParamName) {
				rt.Fatalf("param %q: Out=%v", p.Name, p.Out)
			}
		}
	})
}

func signature() *rapid.Generator[*symtab.Type] {
	return rapid.Custom(func(t *rapid.T) *symtab.Type {
		base := rapid.SampledFrom(symtab.Builtins())
		names := rapid.OneOf(rapid.Just(""), rapid.Just("result"), rapid.StringMatching(`[a-z][a-z0-9_]{0,8}`))

		count := rapid.IntRange(0, 12).Draw(t, "count")
		params := make([]*symtab.Symbol, 0, count)

		for i := range count {
			typ := symtab.NewBuiltin(base.Draw(t, "paramBase"))
			for range rapid.IntRange(0, 3).Draw(t, "depth") {
				typ = symtab.PointerTo(typ)
			}

			name := names.Draw(t, "name")
			if name != "" && name != "result" {
				name += "_" + string(rune('a'+i))
			}

			params = append(params, param(name, typ))
		}

		ret := symtab.NewBuiltin(base.Draw(t, "ret"))
		if rapid.Bool().Draw(t, "pointerReturn") {
			ret = symtab.PointerTo(ret)
		}

		return &symtab.Type{
			Kind:     symtab.KindFunction,
			Base:     ret,
			Params:   params,
			Variadic: rapid.Bool().Draw(t, "variadic"),
		}
	})
}

func voidReturn(fn *symtab.Type) (string, bool) {
	name, ok := symtab.BuiltinName(fn.Base)

	return name, ok && name == "void"
}
