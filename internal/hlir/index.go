// Package hlir holds the resolver's output: a side-table keyed by AST
// node identity, never mutating the AST itself. Downstream phases
// (checker, IR consumer) read the AST and this Index together instead of
// an annotated tree.
package hlir

import (
	"github.com/oxide-computer/x4c/internal/ast"
	"github.com/oxide-computer/x4c/internal/hlirtypes"
	"github.com/oxide-computer/x4c/internal/symbols"
)

// Index is the complete elaboration result for one compilation unit.
type Index struct {
	// Types maps declaration nodes (constants, fields, parameters, locals,
	// header/struct/typedef declarations) and the expressions whose type
	// the resolver determines to their elaborated hlirtypes.Type.
	Types map[ast.Node]*hlirtypes.Type

	// Bindings maps every Identifier/ActionRef node that refers to a
	// declared name to the symbols.Symbol it resolves to.
	Bindings map[ast.Node]*symbols.Symbol

	// InstancePaths maps each PackageInstantiation node to its path, and
	// each ControlDecl/ParserDecl passed as an argument to it to that
	// instance's path. Controls and parsers are keyed by their
	// declaration, so a control passed to more than one instantiation
	// keeps only the last path recorded.
	InstancePaths map[ast.Node]symbols.InstancePath

	// TableActions maps each TableDecl to the ActionDecl nodes bound in
	// its actions{} list, in source order, per the table/action binding
	// invariants.
	TableActions map[*ast.TableDecl][]*ast.ActionDecl

	// ParserGraph maps each StateDecl to the StateDecl nodes directly
	// reachable from its transition, for the reachability/parser-loop
	// checks. Every declared state has an entry; targets that are not
	// declared states ("accept", "reject") are left out of its list.
	ParserGraph map[*ast.StateDecl][]*ast.StateDecl
}

// NewIndex creates an empty Index ready for the resolver to populate.
func NewIndex() *Index {
	return &Index{
		Types:         make(map[ast.Node]*hlirtypes.Type),
		Bindings:      make(map[ast.Node]*symbols.Symbol),
		InstancePaths: make(map[ast.Node]symbols.InstancePath),
		TableActions:  make(map[*ast.TableDecl][]*ast.ActionDecl),
		ParserGraph:   make(map[*ast.StateDecl][]*ast.StateDecl),
	}
}

// TypeOf returns the elaborated type recorded for n, or nil if n was
// never visited (e.g. the resolver stopped early after a fatal error).
func (idx *Index) TypeOf(n ast.Node) *hlirtypes.Type {
	return idx.Types[n]
}

// BindingOf returns the symbol n resolves to, if any.
func (idx *Index) BindingOf(n ast.Node) (*symbols.Symbol, bool) {
	sym, ok := idx.Bindings[n]
	return sym, ok
}
