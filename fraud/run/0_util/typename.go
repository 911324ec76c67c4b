// Package cutil provides the C spelling helpers shared by the walker and the
// mock emitter.
package cutil

import (
	"strconv"
	"strings"

	symtab "github.com/toejough/fraud/fraud/run/1_symtab"
	"gitlab.com/tozd/go/errors"
)

// Unknown is the placeholder spelling for a type the namer cannot resolve.
const Unknown = "?"

// Exported variables.
var (
	ErrUnresolvedType = errors.New("unresolved type")
)

// Namer turns type nodes into C spellings.
type Namer struct {
	// StrictTags turns the Unknown placeholder into ErrUnresolvedType.
	StrictTags bool
	// OnUnknown, when set, is called once per placeholder emitted.
	OnUnknown func(t *symtab.Type)
}

// ArgName returns the declared name, or "arg<n>" for an anonymous parameter at
// 1-based position n.
func ArgName(n int, declared string) string {
	if declared != "" {
		return declared
	}

	return "arg" + strconv.Itoa(n)
}

// TypeName is the lenient namer: unresolvable types come back as Unknown.
func TypeName(t *symtab.Type) string {
	name, _ := (&Namer{}).Name(t)

	return name
}

// Name strips pointer layers, names the base, and appends one space plus a
// star per stripped layer.
func (n *Namer) Name(t *symtab.Type) (string, error) {
	pcount := 0

	for t != nil && t.Kind == symtab.KindPointer {
		pcount++
		t = t.Base
	}

	base, ok := baseName(t)
	if !ok {
		if n.StrictTags {
			return Unknown, errors.WithDetails(ErrUnresolvedType, "kind", kindOf(t))
		}

		if n.OnUnknown != nil {
			n.OnUnknown(t)
		}

		base = Unknown
	}

	if pcount == 0 {
		return base, nil
	}

	return base + " " + strings.Repeat("*", pcount), nil
}

// baseName names a non-pointer node.
func baseName(t *symtab.Type) (string, bool) {
	if t == nil {
		return "", false
	}

	if name, ok := symtab.BuiltinName(t); ok {
		return name, true
	}

	switch t.Kind {
	case symtab.KindStruct:
		return tagged("struct", t.Tag)
	case symtab.KindUnion:
		return tagged("union", t.Tag)
	case symtab.KindEnum:
		return tagged("enum", t.Tag)
	case symtab.KindTypedef:
		if t.Name != "" {
			return t.Name, true
		}
	case symtab.KindBuiltin, symtab.KindPointer, symtab.KindFunction:
	}

	return "", false
}

func kindOf(t *symtab.Type) string {
	if t == nil {
		return "nil"
	}

	return t.Kind.String()
}

func tagged(keyword, tag string) (string, bool) {
	if tag == "" {
		return "", false
	}

	return keyword + " " + tag, true
}
