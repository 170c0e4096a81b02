package hlir

import (
	"testing"

	"github.com/oxide-computer/x4c/internal/ast"
	"github.com/oxide-computer/x4c/internal/hlirtypes"
	"github.com/oxide-computer/x4c/internal/symbols"
)

func TestNewIndexMapsAreUsable(t *testing.T) {
	idx := NewIndex()
	n := &ast.Identifier{Name: "x"}

	if got := idx.TypeOf(n); got != nil {
		t.Fatalf("expected TypeOf on an unvisited node to be nil, got %v", got)
	}
	if _, ok := idx.BindingOf(n); ok {
		t.Fatalf("expected BindingOf on an unbound node to report false")
	}

	idx.Types[n] = hlirtypes.Bit(8)
	idx.Bindings[n] = &symbols.Symbol{Name: "x", Kind: symbols.SymConst}

	if got := idx.TypeOf(n); got == nil || got.Width != 8 {
		t.Fatalf("expected TypeOf to return the recorded bit<8>, got %v", got)
	}
	sym, ok := idx.BindingOf(n)
	if !ok || sym.Name != "x" {
		t.Fatalf("expected BindingOf to return the recorded symbol, got %v ok=%v", sym, ok)
	}
}

func TestTableActionsKeyedByTableIdentity(t *testing.T) {
	idx := NewIndex()
	t1 := &ast.TableDecl{Name: "t1"}
	t2 := &ast.TableDecl{Name: "t2"}
	drop := &ast.ActionDecl{Name: "drop"}

	idx.TableActions[t1] = []*ast.ActionDecl{drop}

	if len(idx.TableActions[t2]) != 0 {
		t.Fatalf("expected t2 to have no bound actions, got %v", idx.TableActions[t2])
	}
	if len(idx.TableActions[t1]) != 1 || idx.TableActions[t1][0].Name != "drop" {
		t.Fatalf("expected t1 to bind the drop action, got %v", idx.TableActions[t1])
	}
}
