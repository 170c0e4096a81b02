package ast

import (
	"testing"

	"github.com/oxide-computer/x4c/internal/source"
)

// countingVisitor embeds BaseVisitor (so it satisfies Visitor without
// implementing every method) and counts how many identifiers it sees.
type countingVisitor struct {
	BaseVisitor
	idents int
}

func (v *countingVisitor) VisitIdentifier(n *Identifier) { v.idents++ }

func TestAcceptDispatchesToTheRightVisitMethod(t *testing.T) {
	id := &Identifier{Name: "x"}
	v := &countingVisitor{}
	id.Accept(v)
	if v.idents != 1 {
		t.Fatalf("expected VisitIdentifier to be invoked once, got %d", v.idents)
	}
}

func TestBaseVisitorIsANoOpForUnhandledNodes(t *testing.T) {
	lit := &IntLiteral{Value: int64(1)}
	v := &countingVisitor{}
	// Should not panic even though countingVisitor never overrides
	// VisitIntLiteral.
	lit.Accept(v)
	if v.idents != 0 {
		t.Fatalf("expected the identifier counter to stay at 0 for a non-identifier node")
	}
}

func TestSpanIsReturnedVerbatim(t *testing.T) {
	sp := source.Span{File: "main.p4", Line: 3, Column: 5}
	n := &Identifier{SourceSpan: sp, Name: "x"}
	if got := n.Span(); got != sp {
		t.Fatalf("expected Span() to return the stored span, got %v", got)
	}
}

func TestDirectionString(t *testing.T) {
	cases := map[Direction]string{
		DirNone:   "",
		DirIn:     "in",
		DirOut:    "out",
		DirInout:  "inout",
	}
	for dir, want := range cases {
		if got := dir.String(); got != want {
			t.Errorf("Direction(%d).String() = %q, want %q", dir, got, want)
		}
	}
}
