// Package detect walks a symbol table and picks out the declarations that can
// be mocked.
package detect

import (
	"log/slog"

	symtab "github.com/toejough/fraud/fraud/run/1_symtab"
	"gitlab.com/tozd/go/errors"
)

// Exported variables.
var (
	ErrUnknownNamespace = errors.New("unrecognised namespace")
)

// Config controls the walk.
type Config struct {
	// TargetStruct switches to struct-target mode: only function-pointer
	// members of the struct with this tag are selected.
	TargetStruct string
	Logger       *slog.Logger
}

// Candidate is one mockable declaration.
type Candidate struct {
	// Name is the mock function name.
	Name   string
	Symbol *symtab.Symbol
	// Owner is the enclosing struct tag in struct-target mode.
	Owner string
}

// Walk returns the mock candidates declared in file, walking the
// translation-unit, file and global pools once each in that order. A file the
// table never registered yields nothing.
func Walk(file string, table *symtab.Table, cfg Config) ([]Candidate, error) {
	logger := cfg.logger()
	stream := table.StreamID(file)

	logger.Debug("walking symbols", "file", file, "stream", stream)

	if stream == symtab.NoStream {
		return nil, nil
	}

	var out []Candidate

	for _, pool := range table.Pools() {
		for _, sym := range pool {
			if sym == nil || sym.Stream != stream {
				continue
			}

			logger.Debug("examining symbol", "symbol", sym)

			found, err := examine(sym, cfg)
			if err != nil {
				return nil, errors.Errorf("%s:%d: %w", file, sym.Line, err)
			}

			for _, c := range found {
				logger.Debug("selected symbol", "mock", c.Name, "symbol", c.Symbol)
			}

			out = append(out, found...)
		}
	}

	return out, nil
}

// examine applies the selection rule for the configured mode to one symbol.
func examine(sym *symtab.Symbol, cfg Config) ([]Candidate, error) {
	if cfg.TargetStruct == "" && sym.Name != "" {
		if sym.Kind == symtab.SymNode && !sym.Reserved {
			return []Candidate{{Name: sym.Name, Symbol: sym}}, nil
		}

		return nil, nil
	}

	if sym.Reserved {
		return nil, nil
	}

	switch sym.Namespace {
	case symtab.NSStruct:
		return structMembers(sym, cfg.TargetStruct), nil
	case symtab.NSSymbol, symtab.NSTypedef, symtab.NSLabel, symtab.NSMacro:
		return nil, nil
	default:
		return nil, errors.WithDetails(ErrUnknownNamespace, "namespace", int(sym.Namespace), "symbol", sym.Name)
	}
}

// structMembers selects the function-pointer members of a matching struct or
// union definition.
func structMembers(sym *symtab.Symbol, target string) []Candidate {
	typ := sym.Type
	if typ == nil || (typ.Kind != symtab.KindStruct && typ.Kind != symtab.KindUnion) {
		return nil
	}

	if target == "" || typ.Tag != target {
		return nil
	}

	var out []Candidate

	for _, member := range typ.Members {
		if member == nil || member.Name == "" {
			continue
		}

		if _, viaPointer := member.Type.Function(); !viaPointer {
			continue
		}

		out = append(out, Candidate{
			Name:   typ.Tag + "_" + member.Name,
			Symbol: member,
			Owner:  typ.Tag,
		})
	}

	return out
}

func (c Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}

	return slog.New(slog.DiscardHandler)
}
