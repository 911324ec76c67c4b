// Package load adapts C front-ends to the symbol table the generator walks.
package load

import (
	"os"

	symtab "github.com/toejough/fraud/fraud/run/1_symtab"
	"gitlab.com/tozd/go/errors"
)

// Front-end names accepted by ByName.
const (
	FrontendSitter = "sitter"
	FrontendCC     = "cc"
)

// Exported variables.
var (
	ErrUnknownFrontend = errors.New("unknown front-end")
)

// Frontend parses a set of headers into a symbol table.
type Frontend interface {
	Load(files []string, src Source) (*symtab.Table, error)
}

// Source reads input files.
type Source interface {
	ReadFile(name string) ([]byte, error)
}

// OSSource reads from the local filesystem.
type OSSource struct{}

// ReadFile reads the named file.
func (OSSource) ReadFile(name string) ([]byte, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, errors.Errorf("failed to read %s: %w", name, err)
	}

	return data, nil
}

// ByName returns the named front-end. includeDirs is only used by front-ends
// that follow #include.
func ByName(name string, includeDirs []string) (Frontend, error) {
	switch name {
	case "", FrontendSitter:
		return &SitterFrontend{}, nil
	case FrontendCC:
		return &CCFrontend{IncludeDirs: includeDirs}, nil
	default:
		return nil, errors.WithDetails(ErrUnknownFrontend, "frontend", name)
	}
}

// poolFor maps a storage-class keyword onto a symbol pool.
func poolFor(storage string) symtab.Pool {
	switch storage {
	case "static":
		return symtab.PoolFile
	case "extern":
		return symtab.PoolGlobal
	default:
		return symtab.PoolUnit
	}
}

// dropVoidParams turns the C "(void)" parameter list into an empty one.
func dropVoidParams(params []*symtab.Symbol) []*symtab.Symbol {
	if len(params) != 1 || params[0].Name != "" {
		return params
	}

	if name, ok := symtab.BuiltinName(params[0].Type); ok && name == "void" {
		return nil
	}

	return params
}
