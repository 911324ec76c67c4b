// Package generate renders cmocka mock functions for detected declarations.
package generate

import (
	"bytes"
	"log/slog"

	cutil "github.com/toejough/fraud/fraud/run/0_util"
	symtab "github.com/toejough/fraud/fraud/run/1_symtab"
	detect "github.com/toejough/fraud/fraud/run/3_detect"
	"gitlab.com/tozd/go/errors"
)

// OutParamName is the parameter name that marks an out parameter.
const OutParamName = "result"

// Config controls mock emission.
type Config struct {
	// StrictTags aborts on types the namer cannot spell instead of emitting
	// the "?" placeholder.
	StrictTags bool
	Logger     *slog.Logger
}

// Emitter renders mock functions.
type Emitter struct {
	cfg       Config
	templates *TemplateRegistry
}

// MockSpec is the template data for one mock function.
type MockSpec struct {
	Name      string
	Return    string
	HasReturn bool
	Params    []Param
	Variadic  bool
}

// Param is one mock parameter.
type Param struct {
	Name    string
	Type    string
	Pointer bool
	Out     bool
}

// NewEmitter returns an emitter for cfg.
func NewEmitter(cfg Config) *Emitter {
	return &Emitter{cfg: cfg, templates: NewTemplateRegistry()}
}

// BuildMockSpec extracts the mock data for a candidate. The bool is false
// when the candidate does not declare a function (or, for struct members, a
// pointer to one); such candidates produce no output.
func BuildMockSpec(c detect.Candidate, namer *cutil.Namer) (MockSpec, bool, error) {
	if c.Symbol == nil {
		return MockSpec{}, false, nil
	}

	fn, viaPointer := c.Symbol.Type.Function()
	if fn == nil || viaPointer != (c.Owner != "") {
		return MockSpec{}, false, nil
	}

	ret, err := namer.Name(fn.Base)
	if err != nil {
		return MockSpec{}, false, errors.Errorf("return type of %s: %w", c.Name, err)
	}

	spec := MockSpec{
		Name:      c.Name,
		Return:    ret,
		HasReturn: ret != "void",
		Variadic:  fn.Variadic,
		Params:    make([]Param, 0, len(fn.Params)),
	}

	for i, p := range fn.Params {
		param, err := buildParam(i+1, p, namer)
		if err != nil {
			return MockSpec{}, false, errors.Errorf("parameter %d of %s: %w", i+1, c.Name, err)
		}

		spec.Params = append(spec.Params, param)
	}

	return spec, true, nil
}

// Emit appends the mock for c to buf, or nothing when c is not a function.
func (e *Emitter) Emit(buf *bytes.Buffer, c detect.Candidate) error {
	namer := &cutil.Namer{
		StrictTags: e.cfg.StrictTags,
		OnUnknown: func(t *symtab.Type) {
			e.logger().Warn("unresolved type, emitting placeholder",
				"mock", c.Name, "placeholder", cutil.Unknown, "type", t)
		},
	}

	spec, ok, err := BuildMockSpec(c, namer)
	if err != nil {
		return err
	}

	if !ok {
		e.logger().Debug("skipping non-function symbol", "symbol", c.Symbol)

		return nil
	}

	for i, p := range spec.Params {
		e.logger().Debug("argument", "mock", spec.Name, "index", i+1, "name", p.Name, "type", p.Type)
	}

	e.templates.WriteMockFunction(buf, spec)

	return nil
}

// EmitAll emits every candidate in order.
func (e *Emitter) EmitAll(buf *bytes.Buffer, candidates []detect.Candidate) error {
	for _, c := range candidates {
		err := e.Emit(buf, c)
		if err != nil {
			return err
		}
	}

	return nil
}

func (e *Emitter) logger() *slog.Logger {
	if e.cfg.Logger != nil {
		return e.cfg.Logger
	}

	return slog.New(slog.DiscardHandler)
}

func buildParam(index int, sym *symtab.Symbol, namer *cutil.Namer) (Param, error) {
	var typ *symtab.Type
	if sym != nil {
		typ = sym.Type
	}

	typeName, err := namer.Name(typ)
	if err != nil {
		return Param{}, err
	}

	declared := ""
	if sym != nil {
		declared = sym.Name
	}

	name := cutil.ArgName(index, declared)

	return Param{
		Name:    name,
		Type:    typeName,
		Pointer: typ.IsPointer(),
		Out:     name == OutParamName,
	}, nil
}
