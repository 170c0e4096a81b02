// Package symbols implements the scope-chained name binding used by the
// resolver: a global scope holding type/const/parser/control/package
// declarations, with nested scopes per parser state, control apply block,
// and action body.
package symbols

import (
	"github.com/oxide-computer/x4c/internal/ast"
	"github.com/oxide-computer/x4c/internal/hlirtypes"
)

// SymbolKind classifies what a Symbol names.
type SymbolKind int

const (
	SymConst SymbolKind = iota
	SymHeaderType
	SymStructType
	SymTypedef
	SymExtern
	SymParser
	SymControl
	SymAction
	SymTable
	SymPackageType
	SymParam
	SymLocalVar
	SymErrorMember
)

// Symbol is one bound name together with its kind, elaborated type, and
// declaring AST node (for "defined at" diagnostics and the HLIR index).
type Symbol struct {
	Name string
	Kind SymbolKind
	Type *hlirtypes.Type
	Decl ast.Node
}

// Table is a single lexical scope, chained to its parent via Outer.
// Lookup walks outward; Define only ever touches the innermost scope,
// mirroring a classic scope-chained symbol table.
type Table struct {
	Outer *Table
	names map[string]*Symbol
}

// New creates a root (global) scope.
func New() *Table {
	return &Table{names: make(map[string]*Symbol)}
}

// NewEnclosed creates a child scope nested inside outer.
func NewEnclosed(outer *Table) *Table {
	return &Table{Outer: outer, names: make(map[string]*Symbol)}
}

// Define binds name in the current (innermost) scope. It returns false,
// without overwriting, if name is already bound in this exact scope —
// callers use this to detect duplicate-declaration errors; shadowing an
// outer scope's binding is allowed and is not an error.
func (t *Table) Define(sym *Symbol) bool {
	if _, exists := t.names[sym.Name]; exists {
		return false
	}
	t.names[sym.Name] = sym
	return true
}

// Lookup searches this scope and its outer chain for name.
func (t *Table) Lookup(name string) (*Symbol, bool) {
	for s := t; s != nil; s = s.Outer {
		if sym, ok := s.names[name]; ok {
			return sym, true
		}
	}
	return nil, false
}

// LookupLocal searches only this scope, not its outer chain.
func (t *Table) LookupLocal(name string) (*Symbol, bool) {
	sym, ok := t.names[name]
	return sym, ok
}

// InstancePath tracks the dotted path of nested package/control/parser
// instantiation a symbol occurs under, e.g. "main.ingress.ipv4_lpm" — the
// basis for the IR consumer's external entry-point naming convention.
type InstancePath struct {
	segments []string
}

// RootInstancePath is the empty path, anchored at the top-level package
// instantiation.
func RootInstancePath() InstancePath { return InstancePath{} }

// Child appends one path segment, returning a new InstancePath; the
// receiver is never mutated, so sibling instantiations can share a
// prefix safely.
func (p InstancePath) Child(name string) InstancePath {
	next := make([]string, len(p.segments)+1)
	copy(next, p.segments)
	next[len(p.segments)] = name
	return InstancePath{segments: next}
}

// String renders the path using the "_"-joined convention the IR
// consumer's entry-point names use.
func (p InstancePath) String() string {
	out := ""
	for i, s := range p.segments {
		if i > 0 {
			out += "_"
		}
		out += s
	}
	return out
}
